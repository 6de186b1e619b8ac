// Package mediactl implements the mediactl command line client.
package mediactl

import (
	"context"

	"github.com/spf13/cobra"

	"mediahub/pkg/client"
	"mediahub/pkg/config"
)

type rootParams struct {
	configPath string
	serverAddr string
}

// NewRootCmd builds the command tree. Configuration is loaded before any
// subcommand runs; --server wins over the file and MEDIA_SERVICE_ENDPOINT.
func NewRootCmd() *cobra.Command {
	params := &rootParams{}
	cfg := &config.CLIConfig{}

	rootCmd := &cobra.Command{
		Use:           "mediactl",
		Short:         "MediaHub CLI client",
		Long:          "Command Line Interface to list, upload, download and delete media on a MediaHub server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.LoadCLIConfig(params.configPath)
			if err != nil {
				return err
			}
			*cfg = *loaded
			if cmd.Flags().Changed("server") {
				cfg.ServerAddr = params.serverAddr
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&params.serverAddr, "server", "s", config.DefaultCLIConfig.ServerAddr,
		"Server address in format host:port")
	rootCmd.PersistentFlags().StringVar(&params.configPath, "config", "",
		"Path to the CLI config file (default ~/.mediahub/cli.yaml)")

	rootCmd.AddCommand(newListCmd(cfg))
	rootCmd.AddCommand(newUploadCmd(cfg))
	rootCmd.AddCommand(newDownloadCmd(cfg))
	rootCmd.AddCommand(newDeleteCmd(cfg))

	return rootCmd
}

func Execute() error {
	return NewRootCmd().Execute()
}

func newMediaClient(cfg *config.CLIConfig) (*client.MediaClient, error) {
	return client.NewMediaClient(cfg.ServerAddr)
}

// commandContext applies the configured timeout, if any.
func commandContext(parent context.Context, cfg *config.CLIConfig) (context.Context, context.CancelFunc) {
	if cfg.Timeout > 0 {
		return context.WithTimeout(parent, cfg.Timeout)
	}
	return context.WithCancel(parent)
}
