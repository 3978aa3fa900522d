// Package naming decides directory and file names for downloaded tracks.
// Everything here is pure: no filesystem access.
package naming

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sv4u/spotifydl/download/catalog"
)

// maxNameBytes leaves room for an extension and yt-dlp's temporary suffixes
// within the common 255-byte file name limit.
const maxNameBytes = 200

// FileNamer names one track given the size of its listing.
type FileNamer func(track catalog.Track, total int) string

// DirName is the directory a listing is saved into.
func DirName(listingName string) string {
	return SanitizeFilename(listingName)
}

// Natural names a file "{artist} - {title}".
func Natural(track catalog.Track, total int) string {
	if track.Artist == "" {
		return SanitizeFilename(track.Title)
	}
	return SanitizeFilename(track.Artist + " - " + track.Title)
}

// Positional names a file "{position} - {title}" with the position
// zero-padded to the digit count of total, so sorting file names
// lexicographically reproduces listing order.
func Positional(track catalog.Track, total int) string {
	return SanitizeFilename(fmt.Sprintf("%0*d - %s", IndexWidth(total), track.Position, track.Title))
}

// IndexWidth is the number of decimal digits in total, at least 1.
func IndexWidth(total int) int {
	if total < 1 {
		return 1
	}
	return len(strconv.Itoa(total))
}

// ForOrder picks the positional namer when keepOrder is set.
func ForOrder(keepOrder bool) FileNamer {
	if keepOrder {
		return Positional
	}
	return Natural
}

// SanitizeFilename makes name safe to use as a single path element.
func SanitizeFilename(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r):
			b.WriteRune('_')
		case unicode.IsControl(r):
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}

	// Leading/trailing dots and spaces break Windows and hide files on Unix.
	sanitized := strings.Trim(b.String(), ". ")
	sanitized = truncate(sanitized, maxNameBytes)
	sanitized = strings.TrimRight(sanitized, ". ")
	if sanitized == "" {
		return "_"
	}
	return sanitized
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
