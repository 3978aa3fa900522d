package config

import (
	"fmt"
	"strings"
)

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}

const (
	DefaultOutput  = "."
	DefaultFormat  = "bestaudio/best"
	DefaultCodec   = "mp3"
	DefaultWorkers = 1
	MaxWorkers     = 8
)

// Codecs lists the audio formats yt-dlp can transcode to.
var Codecs = []string{"mp3", "m4a", "opus", "flac", "wav", "vorbis", "aac"}

// RunConfig is the effective configuration of one invocation. It is built
// once from defaults, the settings file and command-line flags, and not
// modified afterwards.
type RunConfig struct {
	Locators []string

	Output        string
	Format        string
	Codec         string
	SkipTranscode bool
	KeepOrder     bool
	NoOverwrite   bool
	SkipNonMusic  bool

	// SourceURL, when set, replaces search for every track.
	SourceURL string

	Verbose bool
	Workers int
	LogFile string
	NoTUI   bool
}

// SetDefaults fills unset fields.
func (c *RunConfig) SetDefaults() {
	if c.Output == "" {
		c.Output = DefaultOutput
	}
	if c.Format == "" {
		c.Format = DefaultFormat
	}
	if c.Codec == "" {
		c.Codec = DefaultCodec
	}
	if c.Workers == 0 {
		c.Workers = DefaultWorkers
	}
}

// Validate checks the configuration is usable.
func (c *RunConfig) Validate() error {
	var locators []string
	for _, l := range c.Locators {
		if strings.TrimSpace(l) != "" {
			locators = append(locators, l)
		}
	}
	if len(locators) == 0 {
		return &ConfigError{
			Message: "No locator provided. Pass a Spotify track, album or playlist URL as an argument or with --url",
		}
	}
	c.Locators = locators

	if strings.TrimSpace(c.Output) == "" {
		return &ConfigError{Message: "Output directory must not be empty"}
	}

	if c.Workers < 1 || c.Workers > MaxWorkers {
		return &ConfigError{
			Message: fmt.Sprintf("Invalid workers: %d. Must be between 1 and %d", c.Workers, MaxWorkers),
		}
	}

	codec := strings.ToLower(c.Codec)
	valid := false
	for _, known := range Codecs {
		if codec == known {
			valid = true
			break
		}
	}
	if !valid {
		return &ConfigError{
			Message: fmt.Sprintf("Invalid codec: %s. Must be one of: %s", c.Codec, strings.Join(Codecs, ", ")),
		}
	}
	c.Codec = codec

	if strings.TrimSpace(c.Format) == "" {
		return &ConfigError{Message: "Format selector must not be empty"}
	}

	return nil
}
