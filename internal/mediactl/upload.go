package mediactl

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"mediahub/pkg/config"
)

type uploadCmdParams struct {
	chunkSize int
}

func newUploadCmd(cfg *config.CLIConfig) *cobra.Command {
	params := &uploadCmdParams{}

	cmd := &cobra.Command{
		Use:   "upload <file-path>",
		Short: "Upload a media file to the server",
		Long: `Upload a media file to the server. The media is stored under the file's
base name and tagged with its sha256 checksum.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("chunk-size") {
				cfg.ChunkSize = params.chunkSize
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			return runUpload(cmd, cfg, args[0])
		},
	}

	cmd.Flags().IntVar(&params.chunkSize, "chunk-size", config.DefaultCLIConfig.ChunkSize, "Bytes per upload chunk")

	return cmd
}

func runUpload(cmd *cobra.Command, cfg *config.CLIConfig, path string) error {
	hash, err := fileHash(path)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	mediaClient, err := newMediaClient(cfg)
	if err != nil {
		return err
	}
	defer mediaClient.Close()

	ctx, cancel := commandContext(cmd.Context(), cfg)
	defer cancel()

	name := filepath.Base(path)
	sent, err := mediaClient.UploadMedia(ctx, name, hash, f, cfg.ChunkSize)
	if err != nil {
		return fmt.Errorf("failed to upload %s: %v", name, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Upload finished: %s (%d bytes, %s)\n", name, sent, hash)
	return nil
}

// fileHash returns the checksum string stored with each upload,
// "<hex> sha256".
func fileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)) + " sha256", nil
}
