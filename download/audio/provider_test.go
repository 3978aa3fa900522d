package audio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sv4u/spotifydl/download/logging"
)

func newTestProvider(t *testing.T, cfg *Config) *Provider {
	t.Helper()
	p, err := NewProvider(cfg, logging.Quiet())
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	return p
}

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to create %s: %v", path, err)
	}
	return path
}

func TestNewProviderValidation(t *testing.T) {
	if _, err := NewProvider(&Config{Codec: "mp3"}, logging.Quiet()); err == nil {
		t.Error("Expected error without format selector")
	}
	if _, err := NewProvider(&Config{Format: "bestaudio"}, logging.Quiet()); err == nil {
		t.Error("Expected error without codec when transcoding")
	}
	if _, err := NewProvider(&Config{Format: "bestaudio", SkipTranscode: true}, logging.Quiet()); err != nil {
		t.Errorf("Codec is not needed when transcoding is skipped: %v", err)
	}
}

func TestTarget(t *testing.T) {
	p := newTestProvider(t, &Config{Format: "bestaudio", Codec: "mp3"})

	if got := p.Target(Request{Query: "Artist - Song"}); got != "ytsearch1:Artist - Song" {
		t.Errorf("Target() = %q", got)
	}

	manual := "https://www.youtube.com/watch?v=dQw4w9WgXcQ"
	if got := p.Target(Request{Query: "Artist - Song", SourceURL: manual}); got != manual {
		t.Errorf("Manual source should bypass search, got %q", got)
	}
}

func TestOutputTemplate(t *testing.T) {
	got := OutputTemplate("/music/Album", "Artist - 100% Pure")
	want := filepath.Join("/music/Album", "Artist - 100%% Pure") + ".%(ext)s"
	if got != want {
		t.Errorf("OutputTemplate() = %q, want %q", got, want)
	}
}

func TestFindExisting(t *testing.T) {
	dir := t.TempDir()

	if got := FindExisting(dir, "Artist - Song"); got != "" {
		t.Errorf("Expected no match in empty dir, got %q", got)
	}

	touch(t, dir, "Artist - Song.webp")
	touch(t, dir, "Artist - Song.mp3.part")
	touch(t, dir, "Artist - Song.f251.webm")
	touch(t, dir, "Artist - Song Extended.mp3")
	if got := FindExisting(dir, "Artist - Song"); got != "" {
		t.Errorf("Sidecars, partials and other tracks should not match, got %q", got)
	}

	want := touch(t, dir, "Artist - Song.opus")
	if got := FindExisting(dir, "Artist - Song"); got != want {
		t.Errorf("FindExisting() = %q, want %q", got, want)
	}

	if got := FindExisting(filepath.Join(dir, "missing"), "x"); got != "" {
		t.Errorf("Missing dir should yield empty, got %q", got)
	}
}

func TestDownloadSkipsExistingWithNoOverwrite(t *testing.T) {
	dir := t.TempDir()
	existing := touch(t, dir, "Artist - Song.mp3")

	p := newTestProvider(t, &Config{Format: "bestaudio", Codec: "mp3", NoOverwrite: true})
	res, err := p.Download(context.Background(), Request{Query: "Artist - Song", Dir: dir, Name: "Artist - Song"})
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if res.Outcome != OutcomeSkipped {
		t.Errorf("Expected OutcomeSkipped, got %s", res.Outcome)
	}
	if res.Path != existing {
		t.Errorf("Expected path %q, got %q", existing, res.Path)
	}
}

func TestDownloadNoOverwriteIgnoresOtherContainers(t *testing.T) {
	dir := t.TempDir()
	// An earlier run whose transcode step failed.
	touch(t, dir, "Artist - Song.webm")

	p := newTestProvider(t, &Config{Format: "bestaudio", Codec: "mp3", NoOverwrite: true})
	req := Request{Query: "Artist - Song", Dir: dir, Name: "Artist - Song"}
	if got := p.existing(req); got != "" {
		t.Errorf("Expected stale .webm to be ignored when transcoding to mp3, got %q", got)
	}

	want := touch(t, dir, "Artist - Song.mp3")
	touch(t, dir, "Artist - Song.aac")
	if got := p.existing(req); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestExistingSkipTranscodeMatchesAnyAudio(t *testing.T) {
	dir := t.TempDir()
	want := touch(t, dir, "Artist - Song.webm")

	p := newTestProvider(t, &Config{Format: "bestaudio", SkipTranscode: true, NoOverwrite: true})
	res, err := p.Download(context.Background(), Request{Query: "Artist - Song", Dir: dir, Name: "Artist - Song"})
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if res.Outcome != OutcomeSkipped || res.Path != want {
		t.Errorf("Expected skipped %q, got %s %q", want, res.Outcome, res.Path)
	}
}

func TestExistingUsesCodecExtension(t *testing.T) {
	dir := t.TempDir()
	want := touch(t, dir, "Artist - Song.ogg")

	p := newTestProvider(t, &Config{Format: "bestaudio", Codec: "vorbis"})
	if got := p.existing(Request{Dir: dir, Name: "Artist - Song"}); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestCodecExt(t *testing.T) {
	tests := map[string]string{
		"mp3":    "mp3",
		"vorbis": "ogg",
		"aac":    "m4a",
		"OPUS":   "opus",
		"flac":   "flac",
	}
	for codec, want := range tests {
		if got := CodecExt(codec); got != want {
			t.Errorf("CodecExt(%q) = %q, want %q", codec, got, want)
		}
	}
}

func TestClassifyRunError(t *testing.T) {
	var de *DownloadError
	err := classifyRunError(Request{Query: "q"}, errors.New("ERROR: HTTP Error 429: Too Many Requests"))
	if !errors.As(err, &de) || de.Message != "Rate limited by provider" {
		t.Errorf("Expected rate limit DownloadError, got %v", err)
	}

	var se *SearchError
	err = classifyRunError(Request{Query: "q"}, errors.New("no video results"))
	if !errors.As(err, &se) {
		t.Errorf("Expected SearchError, got %v", err)
	}

	err = classifyRunError(Request{SourceURL: "https://example.com/v"}, errors.New("no video results"))
	if !errors.As(err, &de) {
		t.Errorf("Manual source failures are download errors, got %v", err)
	}
}

func TestOutcomeString(t *testing.T) {
	if OutcomeDownloaded.String() != "downloaded" || OutcomeSkipped.String() != "skipped" {
		t.Error("Unexpected Outcome strings")
	}
}
