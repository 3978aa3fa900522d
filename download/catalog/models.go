package catalog

import "time"

// Track is the metadata needed to search for, name and tag one song.
type Track struct {
	Title       string
	Artist      string
	Duration    time.Duration
	Album       string
	AlbumArtist string
	TrackNumber int
	DiscNumber  int
	ReleaseDate string
	CoverURL    string
	SpotifyURL  string

	// Position is the 1-based index of the track in its listing.
	Position int
}

// Listing is the resolved contents of a resource.
type Listing struct {
	Resource Resource
	Name     string
	Tracks   []Track
}

// Page is one page of an album or playlist track listing. Next is the
// continuation cursor and is empty on the last page.
type Page struct {
	Tracks []Track
	Next   string
}
