package metadata

import (
	"strconv"
	"strings"
)

// Song is the tag data written into a downloaded file.
type Song struct {
	Title       string
	Artist      string
	Album       string
	AlbumArtist string
	TrackNumber int
	TracksCount int
	DiscNumber  int
	// Date is the release date as reported by the catalog: YYYY, YYYY-MM
	// or YYYY-MM-DD.
	Date       string
	SpotifyURL string
	CoverURL   string
}

// Year extracts the year from Date, or 0.
func (s *Song) Year() int {
	if len(s.Date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(strings.SplitN(s.Date, "-", 2)[0])
	if err != nil {
		return 0
	}
	return year
}
