package spotify

import (
	"time"

	"github.com/sv4u/spotigo"

	"github.com/sv4u/spotifydl/download/catalog"
)

type albumInfo struct {
	name        string
	artist      string
	releaseDate string
	coverURL    string
}

func albumInfoFromAlbum(album *spotigo.Album) albumInfo {
	info := albumInfo{name: album.Name, releaseDate: album.ReleaseDate}
	if len(album.Artists) > 0 {
		info.artist = album.Artists[0].Name
	}
	if len(album.Images) > 0 {
		info.coverURL = album.Images[0].URL
	}
	return info
}

func trackFromFull(t *spotigo.Track) catalog.Track {
	track := catalog.Track{
		Title:       t.Name,
		Duration:    time.Duration(t.DurationMs) * time.Millisecond,
		TrackNumber: t.TrackNumber,
		DiscNumber:  t.DiscNumber,
	}
	if len(t.Artists) > 0 {
		track.Artist = t.Artists[0].Name
	}
	if t.ExternalURLs != nil {
		track.SpotifyURL = t.ExternalURLs.Spotify
	}
	if t.Album != nil {
		track.Album = t.Album.Name
		track.ReleaseDate = t.Album.ReleaseDate
		if len(t.Album.Artists) > 0 {
			track.AlbumArtist = t.Album.Artists[0].Name
		}
		if len(t.Album.Images) > 0 {
			track.CoverURL = t.Album.Images[0].URL
		}
	}
	return track
}

func trackFromSimplified(t *spotigo.SimplifiedTrack, album albumInfo) catalog.Track {
	track := catalog.Track{
		Title:       t.Name,
		Duration:    time.Duration(t.DurationMs) * time.Millisecond,
		TrackNumber: t.TrackNumber,
		DiscNumber:  t.DiscNumber,
		Album:       album.name,
		AlbumArtist: album.artist,
		ReleaseDate: album.releaseDate,
		CoverURL:    album.coverURL,
	}
	if len(t.Artists) > 0 {
		track.Artist = t.Artists[0].Name
	}
	if t.ExternalURLs != nil {
		track.SpotifyURL = t.ExternalURLs.Spotify
	}
	return track
}

func albumPage(paging *spotigo.Paging[spotigo.SimplifiedTrack], album albumInfo) *catalog.Page {
	page := &catalog.Page{Next: nextCursor(paging)}
	for i := range paging.Items {
		page.Tracks = append(page.Tracks, trackFromSimplified(&paging.Items[i], album))
	}
	return page
}

func playlistPage(paging *spotigo.Paging[spotigo.PlaylistTrack]) *catalog.Page {
	page := &catalog.Page{Next: nextCursor(paging)}
	for _, item := range paging.Items {
		if track, ok := playlistEntry(item); ok {
			page.Tracks = append(page.Tracks, track)
		}
	}
	return page
}

// playlistEntry converts one playlist item. Local files and removed tracks
// cannot be searched for and are dropped.
func playlistEntry(item spotigo.PlaylistTrack) (catalog.Track, bool) {
	switch t := item.Track.(type) {
	case *spotigo.Track:
		if t == nil || t.IsLocal {
			return catalog.Track{}, false
		}
		return trackFromFull(t), true
	case spotigo.Track:
		if t.IsLocal {
			return catalog.Track{}, false
		}
		return trackFromFull(&t), true
	case *spotigo.SimplifiedTrack:
		if t == nil || t.IsLocal {
			return catalog.Track{}, false
		}
		return trackFromSimplified(t, albumInfo{}), true
	case spotigo.SimplifiedTrack:
		if t.IsLocal {
			return catalog.Track{}, false
		}
		return trackFromSimplified(&t, albumInfo{}), true
	default:
		return catalog.Track{}, false
	}
}
