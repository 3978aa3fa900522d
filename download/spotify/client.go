package spotify

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/sv4u/spotigo"

	"github.com/sv4u/spotifydl/download/catalog"
)

// Config holds configuration for the Spotify client wrapper.
type Config struct {
	ClientID     string
	ClientSecret string
}

// SpotifyClient adapts spotigo.Client to the catalog.Client interface.
type SpotifyClient struct {
	client *spotigo.Client
}

var _ catalog.Client = (*SpotifyClient)(nil)

// NewSpotifyClient creates a client-credentials authenticated client. No
// request is made until the first lookup.
func NewSpotifyClient(config *Config) (*SpotifyClient, error) {
	auth, err := spotigo.NewClientCredentials(config.ClientID, config.ClientSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth: %w", err)
	}

	spotigoClient, err := spotigo.NewClient(auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create spotigo client: %w", err)
	}

	return &SpotifyClient{client: spotigoClient}, nil
}

// handleError classifies spotigo errors.
func (c *SpotifyClient) handleError(message string, err error) error {
	if err == nil {
		return nil
	}

	if isRateLimitError(err) {
		return &RateLimitError{
			RetryAfter: extractRetryAfter(err),
			Original:   err,
		}
	}

	return &SpotifyError{
		Message:  message,
		Original: err,
	}
}

// isRateLimitError checks if an error is a rate limit error (HTTP 429).
func isRateLimitError(err error) bool {
	if httpErr, ok := err.(interface {
		StatusCode() int
	}); ok {
		return httpErr.StatusCode() == http.StatusTooManyRequests
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests")
}

// extractRetryAfter returns the Retry-After hint, or 0 when unknown.
func extractRetryAfter(err error) int {
	if httpErr, ok := err.(interface {
		RetryAfter() int
	}); ok {
		if retryAfter := httpErr.RetryAfter(); retryAfter > 0 {
			return retryAfter
		}
	}
	return 0
}

// Track retrieves a single track.
func (c *SpotifyClient) Track(ctx context.Context, id string) (*catalog.Track, error) {
	track, err := c.client.Track(ctx, id)
	if err != nil {
		return nil, c.handleError("failed to get track "+id, err)
	}
	if track == nil {
		return nil, &SpotifyError{Message: "track not found: " + id}
	}

	converted := trackFromFull(track)
	return &converted, nil
}

// Album retrieves album metadata and the first page of its tracks.
func (c *SpotifyClient) Album(ctx context.Context, id string) (string, *catalog.Page, error) {
	album, err := c.client.Album(ctx, id)
	if err != nil {
		return "", nil, c.handleError("failed to get album "+id, err)
	}
	if album == nil {
		return "", nil, &SpotifyError{Message: "album not found: " + id}
	}

	info := albumInfoFromAlbum(album)
	page := &catalog.Page{}
	if album.Tracks != nil {
		page = albumPage(album.Tracks, info)
	}
	return album.Name, page, nil
}

// Playlist retrieves playlist metadata and the first page of its tracks.
func (c *SpotifyClient) Playlist(ctx context.Context, id string) (string, *catalog.Page, error) {
	playlist, err := c.client.Playlist(ctx, id, nil)
	if err != nil {
		return "", nil, c.handleError("failed to get playlist "+id, err)
	}
	if playlist == nil {
		return "", nil, &SpotifyError{Message: "playlist not found: " + id}
	}

	tracks, err := c.client.PlaylistTracks(ctx, id, nil)
	if err != nil {
		return "", nil, c.handleError("failed to get playlist tracks "+id, err)
	}
	if tracks == nil {
		return playlist.Name, &catalog.Page{}, nil
	}
	return playlist.Name, playlistPage(tracks), nil
}

// NextPage follows a continuation cursor from a previous album or playlist
// page. A nil page means the listing is exhausted.
func (c *SpotifyClient) NextPage(ctx context.Context, kind catalog.Kind, cursor string) (*catalog.Page, error) {
	switch kind {
	case catalog.KindAlbum:
		next, err := spotigo.NextGeneric[spotigo.SimplifiedTrack](c.client, ctx, pageCursor(cursor))
		if err != nil {
			return nil, c.handleError("failed to paginate album tracks", err)
		}
		if next == nil {
			return nil, nil
		}
		// Album tags for later pages are filled in by the fetcher.
		return albumPage(next, albumInfo{}), nil
	case catalog.KindPlaylist:
		next, err := spotigo.NextGeneric[spotigo.PlaylistTrack](c.client, ctx, pageCursor(cursor))
		if err != nil {
			return nil, c.handleError("failed to paginate playlist tracks", err)
		}
		if next == nil {
			return nil, nil
		}
		return playlistPage(next), nil
	default:
		return nil, fmt.Errorf("%s listings are not paginated", kind)
	}
}

// pageCursor lets a bare next-URL drive spotigo.NextGeneric.
type pageCursor string

func (p pageCursor) GetNext() *string {
	s := string(p)
	return &s
}

func nextCursor(paging interface{ GetNext() *string }) string {
	if next := paging.GetNext(); next != nil {
		return *next
	}
	return ""
}
