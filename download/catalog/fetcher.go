package catalog

import (
	"context"
	"fmt"

	"github.com/sv4u/spotifydl/download/logging"
)

// Client is the remote catalog as the fetcher needs it. Album and Playlist
// return the display name and the first page of tracks; NextPage follows a
// continuation cursor returned on a previous page.
type Client interface {
	Track(ctx context.Context, id string) (*Track, error)
	Album(ctx context.Context, id string) (string, *Page, error)
	Playlist(ctx context.Context, id string) (string, *Page, error)
	NextPage(ctx context.Context, kind Kind, cursor string) (*Page, error)
}

// Fetcher resolves a Resource into its ordered track listing.
type Fetcher struct {
	client Client
	logger *logging.Logger
}

// NewFetcher creates a fetcher over an authenticated client.
func NewFetcher(client Client, rt *logging.Runtime) *Fetcher {
	return &Fetcher{client: client, logger: rt.Logger}
}

// Fetch returns the listing for res. Remote errors are returned as-is so
// callers can inspect them with errors.As.
func (f *Fetcher) Fetch(ctx context.Context, res Resource) (*Listing, error) {
	f.logger.Debugf("catalog_fetch_start resource=%s", res)

	var listing *Listing
	var err error
	switch res.Kind {
	case KindTrack:
		listing, err = f.fetchTrack(ctx, res)
	case KindAlbum:
		listing, err = f.fetchPaged(ctx, res, f.client.Album)
	case KindPlaylist:
		listing, err = f.fetchPaged(ctx, res, f.client.Playlist)
	default:
		return nil, fmt.Errorf("%w: unsupported kind %q", ErrInvalidLocator, res.Kind)
	}
	if err != nil {
		return nil, err
	}

	for i := range listing.Tracks {
		listing.Tracks[i].Position = i + 1
	}

	f.logger.Infof("catalog_fetch_complete resource=%s name=%q tracks=%d", res, listing.Name, len(listing.Tracks))
	return listing, nil
}

func (f *Fetcher) fetchTrack(ctx context.Context, res Resource) (*Listing, error) {
	track, err := f.client.Track(ctx, res.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get track %s: %w", res.ID, err)
	}
	return &Listing{Resource: res, Name: track.Title, Tracks: []Track{*track}}, nil
}

func (f *Fetcher) fetchPaged(ctx context.Context, res Resource, first func(context.Context, string) (string, *Page, error)) (*Listing, error) {
	name, page, err := first(ctx, res.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s %s: %w", res.Kind, res.ID, err)
	}

	listing := &Listing{Resource: res, Name: name}
	if page == nil {
		return listing, nil
	}
	listing.Tracks = append(listing.Tracks, page.Tracks...)

	pages := 1
	for page.Next != "" {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		next, err := f.client.NextPage(ctx, res.Kind, page.Next)
		if err != nil {
			f.logger.Error(fmt.Sprintf("pagination_failed resource=%s page=%d", res, pages+1), err)
			return nil, fmt.Errorf("failed to paginate %s tracks: %w", res.Kind, err)
		}
		if next == nil || next.Next == page.Next {
			if next != nil {
				listing.Tracks = append(listing.Tracks, next.Tracks...)
			}
			break
		}

		listing.Tracks = append(listing.Tracks, next.Tracks...)
		page = next
		pages++
	}
	f.logger.Debugf("catalog_pages resource=%s pages=%d", res, pages)

	if res.Kind == KindAlbum {
		inheritAlbum(listing.Tracks)
	}
	return listing, nil
}

// inheritAlbum copies album-level tags from the first track to tracks on
// later pages that arrived without them.
func inheritAlbum(tracks []Track) {
	if len(tracks) == 0 {
		return
	}
	head := tracks[0]
	for i := range tracks[1:] {
		t := &tracks[i+1]
		if t.Album == "" {
			t.Album = head.Album
		}
		if t.AlbumArtist == "" {
			t.AlbumArtist = head.AlbumArtist
		}
		if t.ReleaseDate == "" {
			t.ReleaseDate = head.ReleaseDate
		}
		if t.CoverURL == "" {
			t.CoverURL = head.CoverURL
		}
	}
}
