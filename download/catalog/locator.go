package catalog

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Kind identifies the type of Spotify resource a locator points at.
type Kind string

const (
	KindTrack    Kind = "track"
	KindAlbum    Kind = "album"
	KindPlaylist Kind = "playlist"
)

// ErrInvalidLocator is returned when a string is not a recognized Spotify
// track, album or playlist locator.
var ErrInvalidLocator = errors.New("invalid spotify locator")

// Resource is a classified locator.
type Resource struct {
	Kind Kind
	ID   string
}

func (r Resource) String() string {
	return fmt.Sprintf("spotify:%s:%s", r.Kind, r.ID)
}

var (
	webLocator = regexp.MustCompile(`^https?://open\.spotify\.com/(?:intl-[A-Za-z-]+/)?(track|album|playlist)/([A-Za-z0-9]+)/?(?:\?.*)?$`)
	uriLocator = regexp.MustCompile(`^spotify:(track|album|playlist):([A-Za-z0-9]+)$`)
	// spotify:user:<name>:playlist:<id>
	legacyPlaylistURI = regexp.MustCompile(`^spotify:user:[^:]+:playlist:([A-Za-z0-9]+)$`)
)

// ParseLocator classifies a web URL or URI locator. It never touches the
// network.
func ParseLocator(locator string) (Resource, error) {
	s := strings.TrimSpace(locator)

	if m := webLocator.FindStringSubmatch(s); m != nil {
		return Resource{Kind: Kind(m[1]), ID: m[2]}, nil
	}
	if m := uriLocator.FindStringSubmatch(s); m != nil {
		return Resource{Kind: Kind(m[1]), ID: m[2]}, nil
	}
	if m := legacyPlaylistURI.FindStringSubmatch(s); m != nil {
		return Resource{Kind: KindPlaylist, ID: m[1]}, nil
	}

	return Resource{}, fmt.Errorf("%w: %q", ErrInvalidLocator, locator)
}
