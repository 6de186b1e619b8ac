// Package gateway serves the media store over plain HTTP next to the gRPC
// API. Downloads run through the same transfer sessions as GetStreamMedia.
package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"mediahub/internal/mediahub/core/catalog"
	"mediahub/internal/mediahub/core/transfer"
	"mediahub/internal/mediahub/domain"
	mediaerrors "mediahub/pkg/errors"
	"mediahub/pkg/logger"
)

type Server struct {
	Handler *chi.Mux

	catalog   catalog.Catalog
	transfers transfer.Service
	logger    *logger.Logger
}

// mediaJSON is the listing entry, named like the gRPC Media message.
type mediaJSON struct {
	OriginalName string `json:"originalName"`
	Hash         string `json:"hash"`
	Size         uint64 `json:"size"`
}

func NewServer(cat catalog.Catalog, transfers transfer.Service) *Server {
	s := &Server{
		Handler:   chi.NewRouter(),
		catalog:   cat,
		transfers: transfers,
		logger:    logger.WithField("component", "http-gateway"),
	}

	s.Handler.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	s.Handler.Get("/media", s.handleList)
	s.Handler.Get("/media/{name}", s.handleDownload)
	s.Handler.Head("/media/{name}", s.handleDownload)
	s.Handler.Delete("/media/{name}", s.handleDelete)

	return s
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	medias, err := s.catalog.List(r.Context())
	if err != nil {
		s.writeError(w, "list", err)
		return
	}

	out := make([]mediaJSON, 0, len(medias))
	for _, m := range medias {
		out = append(out, mediaJSON{OriginalName: m.Name, Hash: m.ContentHash, Size: m.SizeBytes})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		s.logger.Warn("failed to write media list", "error", err)
	}
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	log := s.logger.WithFields("operation", "download", "name", name)

	d, err := s.catalog.Find(r.Context(), name)
	if err != nil {
		s.writeError(w, "download", err)
		return
	}

	compression := r.URL.Query().Get("compression")
	encoding, compressed := contentEncodings[compression]
	if compression != "" && !compressed {
		http.Error(w, fmt.Sprintf("download: unsupported compression type: %v", compression), http.StatusBadRequest)
		return
	}

	if r.Method == http.MethodHead {
		setDownloadHeaders(w, d.ContentHash, encoding, d.SizeBytes)
		w.WriteHeader(http.StatusOK)
		return
	}

	body := &responseBody{w: w, contentHash: d.ContentHash, encoding: encoding}
	var out io.Writer = body
	var compressor io.WriteCloser
	if compressed {
		compressor, err = NewCompressor(body, compression)
		if err != nil {
			s.writeError(w, "download", err)
			return
		}
		out = compressor
	}

	err = s.transfers.Download(r.Context(), name, &writerSink{w: out, body: body})

	if compressor != nil {
		if err != nil && !body.started {
			body.discard = true
		}
		if cerr := compressor.Close(); cerr != nil && err == nil {
			log.Warn("failed to finish compressed stream", "error", cerr)
		}
	}

	switch {
	case err == nil:
		body.start()
	case !body.started:
		// nothing reached the client yet, so the failure can still be
		// reported with a proper status
		body.discard = true
		s.writeError(w, "download", err)
	default:
		log.Warn("download aborted", "error", err)
	}
}

// setDownloadHeaders sets the media headers. Content-Length is only known
// for uncompressed bodies.
func setDownloadHeaders(w http.ResponseWriter, contentHash, encoding string, length uint64) {
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("X-Content-Hash", contentHash)
	if encoding != "" {
		w.Header().Set("Content-Encoding", encoding)
	} else {
		w.Header().Set("Content-Length", fmt.Sprintf("%d", length))
	}
}

// responseBody commits the download headers with the first body byte, so a
// download that fails before sending anything still gets an error status.
type responseBody struct {
	w           http.ResponseWriter
	contentHash string
	encoding    string
	totalSize   uint64
	started     bool
	discard     bool
}

func (rb *responseBody) start() {
	if rb.started || rb.discard {
		return
	}
	rb.started = true
	setDownloadHeaders(rb.w, rb.contentHash, rb.encoding, rb.totalSize)
	rb.w.WriteHeader(http.StatusOK)
}

func (rb *responseBody) Write(p []byte) (int, error) {
	if rb.discard {
		return len(p), nil
	}
	rb.start()
	return rb.w.Write(p)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if err := s.catalog.Delete(r.Context(), name); err != nil {
		s.writeError(w, "delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeError(w http.ResponseWriter, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, mediaerrors.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, mediaerrors.ErrAlreadyExists):
		status = http.StatusConflict
	default:
		s.logger.Error("request failed", "operation", op, "error", err)
	}
	http.Error(w, fmt.Sprintf("%s: %v", op, err), status)
}

// writerSink copies download chunks into an io.Writer, possibly a
// compressor in front of body.
type writerSink struct {
	w    io.Writer
	body *responseBody
}

func (ws *writerSink) Send(chunk domain.Chunk) error {
	ws.body.totalSize = chunk.TotalSize
	_, err := ws.w.Write(chunk.Payload)
	return err
}
