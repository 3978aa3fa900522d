package audio

import "fmt"

// DownloadError is a yt-dlp failure after a source was chosen.
type DownloadError struct {
	Message  string
	Original error
}

func (e *DownloadError) Error() string {
	if e.Original != nil {
		return fmt.Sprintf("Audio download error: %s: %v", e.Message, e.Original)
	}
	return fmt.Sprintf("Audio download error: %s", e.Message)
}

func (e *DownloadError) Unwrap() error {
	return e.Original
}

// SearchError means the search for Query matched nothing downloadable.
type SearchError struct {
	Query    string
	Original error
}

func (e *SearchError) Error() string {
	msg := fmt.Sprintf("Audio search error: no result for %q", e.Query)
	if e.Original != nil {
		msg += ": " + e.Original.Error()
	}
	return msg
}

func (e *SearchError) Unwrap() error {
	return e.Original
}
