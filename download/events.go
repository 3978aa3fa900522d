package download

import "github.com/sv4u/spotifydl/download/catalog"

// EventKind identifies a progress event.
type EventKind string

const (
	EventResourceStart  EventKind = "resource_start"
	EventResourceFailed EventKind = "resource_failed"
	EventTrackStart     EventKind = "track_start"
	EventTrackProgress  EventKind = "track_progress"
	EventTrackDone      EventKind = "track_done"
	EventTrackSkipped   EventKind = "track_skipped"
	EventTrackFailed    EventKind = "track_failed"
)

// Event is a progress notification. Fields not meaningful for Kind are
// zero.
type Event struct {
	Kind     EventKind
	Locator  string
	Resource catalog.Resource
	// Name is the listing name for resource events and the file name for
	// track events.
	Name     string
	Index    int
	Total    int
	Progress float64
	Path     string
	Err      error
}

// Observer receives progress events. Calls are serialized.
type Observer func(Event)
