package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"github.com/sv4u/spotifydl/download/logging"
)

// SponsorBlock category for intros, outros and other non-music sections of
// music videos.
const nonMusicCategory = "music_offtopic"

// Config holds configuration for the audio provider.
type Config struct {
	// Format is the yt-dlp format selector.
	Format string
	// Codec is the transcode target, ignored when SkipTranscode is set.
	Codec         string
	SkipTranscode bool
	NoOverwrite   bool
	SkipNonMusic  bool
}

// Outcome of a download request.
type Outcome int

const (
	OutcomeDownloaded Outcome = iota
	OutcomeSkipped
)

func (o Outcome) String() string {
	if o == OutcomeSkipped {
		return "skipped"
	}
	return "downloaded"
}

// Request describes one track to fetch.
type Request struct {
	// Query is searched for when SourceURL is empty.
	Query     string
	SourceURL string
	Dir       string
	// Name is the file name without extension.
	Name string
	// Progress, when set, receives download progress between 0 and 1.
	Progress func(fraction float64)
}

// Result reports where the audio ended up.
type Result struct {
	Outcome Outcome
	Path    string
}

// Provider downloads audio through yt-dlp.
type Provider struct {
	config *Config
	logger *logging.Logger
}

// NewProvider creates a new audio provider.
func NewProvider(config *Config, rt *logging.Runtime) (*Provider, error) {
	if config.Format == "" {
		return nil, errors.New("audio provider requires a format selector")
	}
	if !config.SkipTranscode && config.Codec == "" {
		return nil, errors.New("audio provider requires a codec unless transcoding is skipped")
	}
	return &Provider{config: config, logger: rt.Logger}, nil
}

// Target is what yt-dlp is pointed at for req.
func (p *Provider) Target(req Request) string {
	if req.SourceURL != "" {
		return req.SourceURL
	}
	return "ytsearch1:" + req.Query
}

// Download fetches one track into req.Dir. With NoOverwrite set and a file
// for req.Name already present, nothing is downloaded and the result is
// OutcomeSkipped.
func (p *Provider) Download(ctx context.Context, req Request) (*Result, error) {
	if p.config.NoOverwrite {
		if existing := p.existing(req); existing != "" {
			p.logger.Infof("download_skipped reason=exists path=%s", existing)
			return &Result{Outcome: OutcomeSkipped, Path: existing}, nil
		}
	}

	if err := os.MkdirAll(req.Dir, 0755); err != nil {
		return nil, &DownloadError{
			Message:  fmt.Sprintf("Failed to create output directory: %s", req.Dir),
			Original: err,
		}
	}

	target := p.Target(req)
	p.logger.Debugf("ytdlp_run target=%q dir=%s name=%q", target, req.Dir, req.Name)

	cmd := p.command(req)
	if _, err := cmd.Run(ctx, target); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, classifyRunError(req, err)
	}

	path := p.existing(req)
	if path == "" {
		if req.SourceURL == "" {
			return nil, &SearchError{Query: req.Query}
		}
		return nil, &DownloadError{
			Message: fmt.Sprintf("Downloaded file not found for %s", filepath.Join(req.Dir, req.Name)),
		}
	}

	return &Result{Outcome: OutcomeDownloaded, Path: path}, nil
}

// command builds the yt-dlp invocation for req.
func (p *Provider) command(req Request) *ytdlp.Command {
	cmd := ytdlp.New().
		Format(p.config.Format).
		Output(OutputTemplate(req.Dir, req.Name)).
		NoPlaylist().
		EmbedMetadata().
		NoWarnings()

	if !p.config.SkipTranscode {
		cmd = cmd.ExtractAudio().
			AudioFormat(p.config.Codec).
			AudioQuality("0")
	}
	if p.config.NoOverwrite {
		cmd = cmd.NoOverwrites()
	}
	if p.config.SkipNonMusic {
		cmd = cmd.SponsorblockRemove(nonMusicCategory)
	}
	if req.Progress != nil {
		progress := req.Progress
		cmd = cmd.ProgressFunc(250*time.Millisecond, func(update ytdlp.ProgressUpdate) {
			if update.TotalBytes > 0 {
				progress(float64(update.DownloadedBytes) / float64(update.TotalBytes))
			}
		})
	}
	return cmd
}

// existing returns the finished file for req, or "". When transcoding, only
// the file with the codec's extension counts; leftovers of an earlier run
// in another container are ignored.
func (p *Provider) existing(req Request) string {
	if p.config.SkipTranscode {
		return FindExisting(req.Dir, req.Name)
	}
	path := filepath.Join(req.Dir, req.Name+"."+CodecExt(p.config.Codec))
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return path
	}
	return ""
}

// CodecExt is the file extension yt-dlp gives audio extracted as codec.
func CodecExt(codec string) string {
	switch c := strings.ToLower(codec); c {
	case "vorbis":
		return "ogg"
	case "aac":
		return "m4a"
	default:
		return c
	}
}

// OutputTemplate is the yt-dlp output template; yt-dlp fills in the
// extension.
func OutputTemplate(dir, name string) string {
	// yt-dlp treats % as a template escape.
	safe := strings.ReplaceAll(name, "%", "%%")
	return filepath.Join(dir, safe) + ".%(ext)s"
}

func classifyRunError(req Request, err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate limit") || strings.Contains(msg, "too many requests"):
		return &DownloadError{Message: "Rate limited by provider", Original: err}
	case req.SourceURL == "" && (strings.Contains(msg, "no video results") || strings.Contains(msg, "no results")):
		return &SearchError{Query: req.Query, Original: err}
	default:
		return &DownloadError{Message: "yt-dlp download failed", Original: err}
	}
}

var sidecarExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true,
	".json": true, ".description": true, ".vtt": true, ".srt": true,
	".part": true, ".ytdl": true, ".temp": true, ".tmp": true,
}

// FindExisting returns the path of a finished audio file named name plus
// any extension in dir, or "" when there is none.
func FindExisting(dir, name string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}

	prefix := name + "."
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		// "name.f251.webm" style intermediates carry a second extension.
		if strings.Contains(strings.TrimPrefix(entry.Name(), prefix), ".") {
			continue
		}
		if sidecarExts[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		return filepath.Join(dir, entry.Name())
	}
	return ""
}
