package download

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sv4u/spotifydl/download/catalog"
	"github.com/sv4u/spotifydl/download/config"
	"github.com/sv4u/spotifydl/download/logging"
	"github.com/sv4u/spotifydl/download/naming"
)

// CatalogFetcher resolves a classified locator into its listing.
type CatalogFetcher interface {
	Fetch(ctx context.Context, res catalog.Resource) (*catalog.Listing, error)
}

// Service runs the whole pipeline for a list of locators: classify, fetch,
// create the output directory, download.
type Service struct {
	config     *config.RunConfig
	fetcher    CatalogFetcher
	downloader *Downloader
	console    *logging.Console
	logger     *logging.Logger
	observer   Observer
}

// NewService creates a new run service.
func NewService(cfg *config.RunConfig, fetcher CatalogFetcher, downloader *Downloader, rt *logging.Runtime) *Service {
	return &Service{
		config:     cfg,
		fetcher:    fetcher,
		downloader: downloader,
		console:    rt.Console,
		logger:     rt.Logger,
	}
}

// SetObserver registers fn to receive progress events. It must be called
// before Run.
func (s *Service) SetObserver(fn Observer) {
	s.observer = fn
}

func (s *Service) emit(e Event) {
	if s.observer != nil {
		s.observer(e)
	}
}

// Run processes locators one after another. Failures are confined to the
// locator or track they occur in and are tallied in the returned Summary.
func (s *Service) Run(ctx context.Context, locators []string) *Summary {
	summary := &Summary{}

	for _, locator := range locators {
		if ctx.Err() != nil {
			summary.Interrupted = true
			break
		}
		summary.Resources = append(summary.Resources, s.runOne(ctx, locator))
	}
	if ctx.Err() != nil {
		summary.Interrupted = true
	}

	summary.tally()
	s.logger.Infof("run_complete downloaded=%d skipped=%d failed=%d invalid_locators=%d failed_resources=%d",
		summary.Downloaded, summary.Skipped, summary.Failed, summary.InvalidLocators, summary.FailedResources)
	return summary
}

func (s *Service) runOne(ctx context.Context, locator string) ResourceResult {
	result := ResourceResult{Locator: locator}

	res, err := catalog.ParseLocator(locator)
	if err != nil {
		return s.failResource(result, err)
	}
	result.Resource = res

	listing, err := s.fetcher.Fetch(ctx, res)
	if err != nil {
		return s.failResource(result, err)
	}
	result.Name = listing.Name

	dir := filepath.Join(s.config.Output, naming.DirName(listing.Name))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return s.failResource(result, fmt.Errorf("failed to create output directory %s: %w", dir, err))
	}
	result.Dir = dir

	s.console.Headingf("Saving %d song(s) from %q to %s", len(listing.Tracks), listing.Name, dir)
	s.emit(Event{Kind: EventResourceStart, Locator: locator, Resource: res, Name: listing.Name, Total: len(listing.Tracks), Path: dir})

	result.Tracks = s.downloader.DownloadTracks(ctx, listing, dir, s.observeTrack(locator, res))
	return result
}

func (s *Service) observeTrack(locator string, res catalog.Resource) Observer {
	return func(e Event) {
		e.Locator = locator
		e.Resource = res
		switch e.Kind {
		case EventTrackDone:
			s.console.Successf("[%d/%d] Downloaded %s", e.Index, e.Total, e.Name)
		case EventTrackSkipped:
			s.console.Warnf("[%d/%d] Skipped %s (already exists)", e.Index, e.Total, e.Name)
		case EventTrackFailed:
			s.console.Failf("[%d/%d] Failed %s: %v", e.Index, e.Total, e.Name, e.Err)
		}
		s.emit(e)
	}
}

func (s *Service) failResource(result ResourceResult, err error) ResourceResult {
	result.Err = err
	if errors.Is(err, catalog.ErrInvalidLocator) {
		result.Invalid = true
		s.console.Failf("Skipping %q: not a Spotify track, album or playlist link", result.Locator)
	} else {
		s.console.Failf("Skipping %q: %v", result.Locator, err)
	}
	s.logger.Error(fmt.Sprintf("resource_failed locator=%q", result.Locator), err)
	s.emit(Event{Kind: EventResourceFailed, Locator: result.Locator, Resource: result.Resource, Err: err})
	return result
}
