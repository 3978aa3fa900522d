package metadata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/bogem/id3v2/v2"

	"github.com/sv4u/spotifydl/download/logging"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}

// fakeMP3 starts with an MPEG frame sync and has no ID3 header.
var fakeMP3 = append([]byte{0xFF, 0xFB, 0x90, 0x00}, make([]byte, 64)...)

func TestEmbedder_Embed_NonMP3IsLeftAlone(t *testing.T) {
	embedder := NewEmbedder(logging.Quiet())
	path := writeFile(t, "test.opus", []byte("opus data"))

	if err := embedder.Embed(context.Background(), path, &Song{Title: "Song"}); err != nil {
		t.Errorf("Expected no error for non-mp3 file, got: %v", err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "opus data" {
		t.Error("Non-mp3 file should not be modified")
	}
}

func TestEmbedder_Embed_FileNotFound(t *testing.T) {
	embedder := NewEmbedder(logging.Quiet())

	err := embedder.Embed(context.Background(), "/nonexistent/file.mp3", &Song{Title: "Song"})
	var metaErr *MetadataError
	if !errors.As(err, &metaErr) {
		t.Fatalf("Expected MetadataError, got %v", err)
	}
	if metaErr.Path != "/nonexistent/file.mp3" {
		t.Errorf("Expected path on error, got %q", metaErr.Path)
	}
}

func TestEmbedder_Embed_CancelledContext(t *testing.T) {
	embedder := NewEmbedder(logging.Quiet())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := embedder.Embed(ctx, writeFile(t, "a.mp3", fakeMP3), &Song{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestEmbedder_EmbedMP3Tags(t *testing.T) {
	cover := append([]byte{0x89, 'P', 'N', 'G'}, make([]byte, 32)...)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(cover)
	}))
	defer server.Close()

	path := writeFile(t, "song.mp3", fakeMP3)
	song := &Song{
		Title:       "Song",
		Artist:      "Artist",
		Album:       "Record",
		AlbumArtist: "Band",
		TrackNumber: 2,
		TracksCount: 12,
		Date:        "2004-06-01",
		CoverURL:    server.URL + "/cover.png",
	}

	embedder := NewEmbedder(logging.Quiet())
	if err := embedder.Embed(context.Background(), path, song); err != nil {
		t.Fatalf("Embed() error = %v", err)
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		t.Fatalf("Failed to reopen tag: %v", err)
	}
	defer tag.Close()

	if tag.Title() != "Song" || tag.Artist() != "Artist" || tag.Album() != "Record" {
		t.Errorf("Unexpected basic tags: %q %q %q", tag.Title(), tag.Artist(), tag.Album())
	}
	if got := tag.GetTextFrame("TPE2").Text; got != "Band" {
		t.Errorf("Expected album artist 'Band', got %q", got)
	}
	if got := tag.GetTextFrame("TRCK").Text; got != "2/12" {
		t.Errorf("Expected track '2/12', got %q", got)
	}
	if got := tag.GetTextFrame("TDRC").Text; got != "2004-06-01" {
		t.Errorf("Expected date '2004-06-01', got %q", got)
	}
	if got := tag.GetTextFrame("TYER").Text; got != "2004" {
		t.Errorf("Expected year '2004', got %q", got)
	}

	pictures := tag.GetFrames("APIC")
	if len(pictures) != 1 {
		t.Fatalf("Expected 1 picture frame, got %d", len(pictures))
	}
	pic, ok := pictures[0].(id3v2.PictureFrame)
	if !ok {
		t.Fatalf("Unexpected frame type %T", pictures[0])
	}
	if pic.MimeType != "image/png" {
		t.Errorf("Expected image/png, got %s", pic.MimeType)
	}
}

func TestEmbedder_CoverFailureIsNotFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	path := writeFile(t, "song.mp3", fakeMP3)
	embedder := NewEmbedder(logging.Quiet())
	err := embedder.Embed(context.Background(), path, &Song{Title: "Song", CoverURL: server.URL})
	if err != nil {
		t.Errorf("Cover failure should only warn, got %v", err)
	}
}

func TestSongYear(t *testing.T) {
	tests := map[string]int{
		"2004-06-01": 2004,
		"1999":       1999,
		"":           0,
		"abcd":       0,
		"20":         0,
	}
	for date, want := range tests {
		s := &Song{Date: date}
		if got := s.Year(); got != want {
			t.Errorf("Year(%q) = %d, want %d", date, got, want)
		}
	}
}
