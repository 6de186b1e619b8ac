package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mediahub/internal/modes"
	"mediahub/pkg/config"
	"mediahub/pkg/logger"
)

var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "mediahub",
		Short:         "Media storage server",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, source, err := loadConfig()
			if err != nil {
				return err
			}
			if err := modes.ConfigureLogging(cfg.Logging); err != nil {
				return fmt.Errorf("failed to configure logging: %w", err)
			}
			logger.Info("configuration loaded", "source", source)
			return modes.RunServer(cfg)
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file (default: search MEDIAHUB_CONFIG_PATH, ./config.yaml, /etc/mediahub/config.yaml)")
	cmd.AddCommand(newConfigCmd())

	return cmd
}

func newConfigCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			if output != "" {
				return cfg.SaveToFile(output)
			}
			data, err := cfg.ToYAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the configuration to a file instead of stdout")

	return cmd
}

func loadConfig() (*config.Config, string, error) {
	if configPath != "" {
		cfg, err := config.LoadFromFile(configPath)
		return cfg, configPath, err
	}
	return config.LoadConfig()
}
