package gateway

import (
	"compress/gzip"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
)

// contentEncodings maps the ?compression= values to Content-Encoding.
var contentEncodings = map[string]string{
	"br":   "br",
	"gzip": "gzip",
	"zstd": "zstd",
}

// NewCompressor returns an io.WriteCloser that compresses into w. Only cheap
// levels are used since downloads are compressed on the fly. The caller
// must Close it to flush the trailer.
func NewCompressor(w io.Writer, compressionType string) (io.WriteCloser, error) {
	switch compressionType {
	case "br":
		return brotli.NewWriterLevel(w, brotli.BestSpeed), nil
	case "gzip":
		return gzip.NewWriterLevel(w, gzip.BestSpeed)
	case "zstd":
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedFastest))
	}

	return nil, fmt.Errorf("unsupported compression type: %v", compressionType)
}
