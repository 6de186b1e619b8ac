package mediactl

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"mediahub/pkg/config"
)

type downloadCmdParams struct {
	dir string
}

func newDownloadCmd(cfg *config.CLIConfig) *cobra.Command {
	params := &downloadCmdParams{}

	cmd := &cobra.Command{
		Use:   "download <file-name>",
		Short: "Download a media file from the server",
		Long: `Download a media file from the server into the output directory. The data
is written to <file-name>.downloading and renamed once complete.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDownload(cmd, cfg, params, args[0])
		},
	}

	cmd.Flags().StringVarP(&params.dir, "dir", "o", ".", "Output directory")

	return cmd
}

func runDownload(cmd *cobra.Command, cfg *config.CLIConfig, params *downloadCmdParams, arg string) error {
	name := filepath.Base(arg)

	ctx, cancel := commandContext(cmd.Context(), cfg)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(cmd.ErrOrStderr(), "\nReceived termination signal. Cancelling download...")
			cancel()
		case <-ctx.Done():
		}
	}()

	mediaClient, err := newMediaClient(cfg)
	if err != nil {
		return err
	}
	defer mediaClient.Close()

	target := filepath.Join(params.dir, name)
	tmp := target + ".downloading"

	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmp, err)
	}

	received, err := mediaClient.DownloadMedia(ctx, name, f, nil)
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmp)
		if ctx.Err() == context.Canceled {
			return fmt.Errorf("download of %s cancelled", name)
		}
		return fmt.Errorf("failed to download %s: %v", name, err)
	}

	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", tmp, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Download finished: %s (%d bytes)\n", target, received)
	return nil
}
