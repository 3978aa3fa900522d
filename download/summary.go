package download

import (
	"context"
	"errors"

	"github.com/sv4u/spotifydl/download/catalog"
)

// Process exit codes.
const (
	ExitSuccess        = 0
	ExitConfigError    = 1
	ExitInvalidLocator = 2
	ExitRemoteError    = 3
	ExitTrackFailures  = 4
	ExitInterrupted    = 130
)

// ResourceResult is the outcome for one locator.
type ResourceResult struct {
	Locator  string
	Resource catalog.Resource
	Name     string
	Dir      string
	// Invalid is set when the locator could not be classified.
	Invalid bool
	// Err is set when the locator was abandoned before any download.
	Err    error
	Tracks []TrackResult
}

// Summary tallies a run.
type Summary struct {
	Resources []ResourceResult

	InvalidLocators int
	FailedResources int
	Downloaded      int
	Skipped         int
	Failed          int
	Interrupted     bool
}

func (s *Summary) tally() {
	s.InvalidLocators, s.FailedResources = 0, 0
	s.Downloaded, s.Skipped, s.Failed = 0, 0, 0

	for _, r := range s.Resources {
		switch {
		case r.Invalid:
			s.InvalidLocators++
		case r.Err != nil:
			if errors.Is(r.Err, context.Canceled) {
				s.Interrupted = true
			} else {
				s.FailedResources++
			}
		}
		for _, t := range r.Tracks {
			switch t.Status {
			case StatusDownloaded:
				s.Downloaded++
			case StatusSkipped:
				s.Skipped++
			case StatusFailed:
				if errors.Is(t.Err, context.Canceled) {
					s.Interrupted = true
				}
				s.Failed++
			}
		}
	}
}

// ExitCode maps the summary to a process exit status. Remote failures take
// precedence over invalid locators, which take precedence over track
// failures. An interrupted run always exits 130.
func (s *Summary) ExitCode() int {
	switch {
	case s.Interrupted:
		return ExitInterrupted
	case s.FailedResources > 0:
		return ExitRemoteError
	case s.InvalidLocators > 0:
		return ExitInvalidLocator
	case s.Failed > 0:
		return ExitTrackFailures
	default:
		return ExitSuccess
	}
}
