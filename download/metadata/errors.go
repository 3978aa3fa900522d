package metadata

import "fmt"

// MetadataError is a failure to tag the file at Path.
type MetadataError struct {
	Path     string
	Message  string
	Original error
}

func (e *MetadataError) Error() string {
	msg := fmt.Sprintf("Metadata error: %s", e.Message)
	if e.Path != "" {
		msg += " (" + e.Path + ")"
	}
	if e.Original != nil {
		msg += ": " + e.Original.Error()
	}
	return msg
}

func (e *MetadataError) Unwrap() error {
	return e.Original
}
