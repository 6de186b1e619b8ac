package mediactl

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"mediahub/pkg/config"
)

func newDeleteCmd(cfg *config.CLIConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <file-name>",
		Short: "Delete a media file from the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(cmd, cfg, args[0])
		},
	}
}

func runDelete(cmd *cobra.Command, cfg *config.CLIConfig, arg string) error {
	name := filepath.Base(arg)

	mediaClient, err := newMediaClient(cfg)
	if err != nil {
		return err
	}
	defer mediaClient.Close()

	ctx, cancel := commandContext(cmd.Context(), cfg)
	defer cancel()

	if err := mediaClient.DeleteMedia(ctx, name); err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("media [%s] not found to be deleted", name)
		}
		return fmt.Errorf("failed to delete %s: %v", name, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Media [%s] deleted\n", name)
	return nil
}
