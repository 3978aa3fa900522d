package metadata

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sv4u/spotifydl/download/logging"
)

// Embedder writes tags into downloaded audio files. Only MP3 gets tags
// written here; other containers keep what yt-dlp embedded.
type Embedder struct {
	http   *http.Client
	logger *logging.Logger
}

// NewEmbedder creates a new metadata embedder.
func NewEmbedder(rt *logging.Runtime) *Embedder {
	return &Embedder{
		http:   &http.Client{Timeout: 10 * time.Second},
		logger: rt.Logger,
	}
}

// Embed writes song into the file at filePath.
func (e *Embedder) Embed(ctx context.Context, filePath string, song *Song) error {
	if err := ctx.Err(); err != nil {
		return &MetadataError{
			Path:     filePath,
			Message:  "Context cancelled",
			Original: err,
		}
	}

	if _, err := os.Stat(filePath); err != nil {
		return &MetadataError{
			Path:     filePath,
			Message:  "File not found",
			Original: err,
		}
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filePath), "."))
	if ext != "mp3" {
		e.logger.Debugf("metadata_embed_skipped file=%s format=%s", filePath, ext)
		return nil
	}

	if err := e.embedMP3(ctx, filePath, song); err != nil {
		return err
	}

	e.logger.Debugf("metadata_embed_complete file=%s track=%q", filePath, song.Title)
	return nil
}
