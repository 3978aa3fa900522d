package download

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/sv4u/spotifydl/download/audio"
	"github.com/sv4u/spotifydl/download/catalog"
	"github.com/sv4u/spotifydl/download/config"
	"github.com/sv4u/spotifydl/download/logging"
	"github.com/sv4u/spotifydl/download/metadata"
	"github.com/sv4u/spotifydl/download/naming"
)

// AudioDownloader fetches the audio for one track.
type AudioDownloader interface {
	Download(ctx context.Context, req audio.Request) (*audio.Result, error)
}

// TagEmbedder writes tags into a downloaded file.
type TagEmbedder interface {
	Embed(ctx context.Context, filePath string, song *metadata.Song) error
}

// TrackStatus is the final state of one track.
type TrackStatus string

const (
	StatusDownloaded TrackStatus = "downloaded"
	StatusSkipped    TrackStatus = "skipped"
	StatusFailed     TrackStatus = "failed"
)

// TrackResult is the outcome for one track of a listing.
type TrackResult struct {
	Track  catalog.Track
	Name   string
	Path   string
	Status TrackStatus
	Err    error
}

// Downloader downloads every track of a listing into one directory.
type Downloader struct {
	config *config.RunConfig
	audio  AudioDownloader
	tags   TagEmbedder
	namer  naming.FileNamer
	logger *logging.Logger
}

// NewDownloader creates a downloader. tags may be nil to skip tagging.
func NewDownloader(cfg *config.RunConfig, audioDownloader AudioDownloader, tags TagEmbedder, rt *logging.Runtime) *Downloader {
	return &Downloader{
		config: cfg,
		audio:  audioDownloader,
		tags:   tags,
		namer:  naming.ForOrder(cfg.KeepOrder),
		logger: rt.Logger,
	}
}

// SearchQuery is the text searched for when no manual source is set.
func SearchQuery(track catalog.Track) string {
	if track.Artist == "" {
		return track.Title
	}
	return track.Artist + " - " + track.Title
}

// DownloadTracks downloads listing's tracks into dir. A failing track never
// stops the others; results are returned in listing order. notify may be
// nil.
func (d *Downloader) DownloadTracks(ctx context.Context, listing *catalog.Listing, dir string, notify Observer) []TrackResult {
	total := len(listing.Tracks)
	results := make([]TrackResult, total)

	var mu sync.Mutex
	emit := func(e Event) {
		if notify == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		notify(e)
	}

	// Names come from listing order before any work is dispatched.
	for i, track := range listing.Tracks {
		results[i] = TrackResult{Track: track, Name: d.namer(track, total)}
	}

	// Tracks that share a file name (the same song listed twice) would
	// race on one output path, so they take turns. Case-folded for
	// case-insensitive filesystems.
	nameLocks := make(map[string]*sync.Mutex, total)
	for _, r := range results {
		key := strings.ToLower(r.Name)
		if nameLocks[key] == nil {
			nameLocks[key] = &sync.Mutex{}
		}
	}

	// Only an album listing is a whole record; a playlist's length says
	// nothing about the track's album.
	albumTracks := 0
	if listing.Resource.Kind == catalog.KindAlbum {
		albumTracks = total
	}

	workers := d.config.Workers
	if workers < 1 {
		workers = 1
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i := range results {
		if ctx.Err() != nil {
			results[i].Status = StatusFailed
			results[i].Err = ctx.Err()
			continue
		}
		lock := nameLocks[strings.ToLower(results[i].Name)]
		g.Go(func() error {
			lock.Lock()
			defer lock.Unlock()
			d.downloadOne(ctx, &results[i], i, total, albumTracks, dir, emit)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (d *Downloader) downloadOne(ctx context.Context, result *TrackResult, index, total, albumTracks int, dir string, emit Observer) {
	track := result.Track
	base := Event{Name: result.Name, Index: index + 1, Total: total}

	start := base
	start.Kind = EventTrackStart
	emit(start)

	if err := ctx.Err(); err != nil {
		d.fail(result, base, err, emit)
		return
	}

	req := audio.Request{
		Query:     SearchQuery(track),
		SourceURL: d.config.SourceURL,
		Dir:       dir,
		Name:      result.Name,
		Progress: func(fraction float64) {
			e := base
			e.Kind = EventTrackProgress
			e.Progress = fraction
			emit(e)
		},
	}

	d.logger.Debugf("download_start track=%q artist=%q query=%q", track.Title, track.Artist, req.Query)
	res, err := d.audio.Download(ctx, req)
	if err != nil {
		d.fail(result, base, fmt.Errorf("failed to download %q: %w", SearchQuery(track), err), emit)
		return
	}

	result.Path = res.Path
	done := base
	done.Path = res.Path

	if res.Outcome == audio.OutcomeSkipped {
		result.Status = StatusSkipped
		done.Kind = EventTrackSkipped
		d.logger.Infof("download_skipped track=%q path=%s", track.Title, res.Path)
		emit(done)
		return
	}

	if d.tags != nil {
		if err := d.tags.Embed(ctx, res.Path, songFromTrack(track, albumTracks)); err != nil {
			d.logger.WarnWithOperation("tag", fmt.Sprintf("metadata_embed_failed path=%s", res.Path), err)
		}
	}

	result.Status = StatusDownloaded
	done.Kind = EventTrackDone
	d.logger.Infof("download_complete track=%q artist=%q path=%s", track.Title, track.Artist, res.Path)
	emit(done)
}

func (d *Downloader) fail(result *TrackResult, base Event, err error, emit Observer) {
	result.Status = StatusFailed
	result.Err = err

	if errors.Is(err, context.Canceled) {
		d.logger.Debugf("download_cancelled track=%q", result.Track.Title)
	} else {
		d.logger.Error(fmt.Sprintf("download_failed track=%q", result.Track.Title), err)
	}

	e := base
	e.Kind = EventTrackFailed
	e.Err = err
	emit(e)
}

func songFromTrack(track catalog.Track, albumTracks int) *metadata.Song {
	song := &metadata.Song{
		Title:       track.Title,
		Artist:      track.Artist,
		Album:       track.Album,
		AlbumArtist: track.AlbumArtist,
		TrackNumber: track.TrackNumber,
		TracksCount: albumTracks,
		DiscNumber:  track.DiscNumber,
		Date:        track.ReleaseDate,
		SpotifyURL:  track.SpotifyURL,
		CoverURL:    track.CoverURL,
	}
	if song.AlbumArtist == "" {
		song.AlbumArtist = track.Artist
	}
	return song
}
