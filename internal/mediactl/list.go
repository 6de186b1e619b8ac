package mediactl

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"mediahub/pkg/config"
)

type listedMedia struct {
	OriginalName string `json:"originalName"`
	Hash         string `json:"hash"`
	Size         int64  `json:"size"`
}

func newListCmd(cfg *config.CLIConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all media on the server as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, cfg)
		},
	}
}

func runList(cmd *cobra.Command, cfg *config.CLIConfig) error {
	mediaClient, err := newMediaClient(cfg)
	if err != nil {
		return err
	}
	defer mediaClient.Close()

	ctx, cancel := commandContext(cmd.Context(), cfg)
	defer cancel()

	medias, err := mediaClient.ListMedia(ctx)
	if err != nil {
		return fmt.Errorf("failed to list media: %v", err)
	}

	out := make([]listedMedia, 0, len(medias))
	for _, m := range medias {
		out = append(out, listedMedia{OriginalName: m.GetOriginalName(), Hash: m.GetHash(), Size: m.GetSize()})
	}

	data, err := json.MarshalIndent(map[string][]listedMedia{"medias": out}, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
