//go:build integration

package audio

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/sv4u/spotifydl/download/logging"
)

func TestProviderDownload_Integration(t *testing.T) {
	if _, err := exec.LookPath("yt-dlp"); err != nil {
		t.Skip("yt-dlp not installed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	p, err := NewProvider(&Config{
		Format:       "bestaudio/best",
		Codec:        "mp3",
		NoOverwrite:  true,
		SkipNonMusic: true,
	}, logging.Quiet())
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}

	dir := t.TempDir()
	req := Request{Query: "Rick Astley - Never Gonna Give You Up", Dir: dir, Name: "Rick Astley - Never Gonna Give You Up"}

	res, err := p.Download(ctx, req)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if res.Outcome != OutcomeDownloaded {
		t.Fatalf("Expected OutcomeDownloaded, got %s", res.Outcome)
	}

	again, err := p.Download(ctx, req)
	if err != nil {
		t.Fatalf("Second Download() error = %v", err)
	}
	if again.Outcome != OutcomeSkipped || again.Path != res.Path {
		t.Errorf("Expected skip of %s, got %+v", res.Path, again)
	}
}
