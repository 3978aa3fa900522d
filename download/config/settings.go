package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Flag names shared by the command line and the settings overlay.
const (
	FlagURL          = "url"
	FlagOutput       = "output"
	FlagFormat       = "format"
	FlagCodec        = "codec"
	FlagSkipMP3      = "skip-transcode"
	FlagKeepOrder    = "keep-playlist-order"
	FlagNoOverwrites = "no-overwrites"
	FlagSkipNonMusic = "skip-non-music-sections"
	FlagSourceURL    = "source-url"
	FlagVerbose      = "verbose"
	FlagWorkers      = "workers"
)

const settingsEnv = "SPOTIFYDL_SETTINGS"

var (
	truthy = map[string]bool{"true": true, "t": true, "yes": true, "y": true, "on": true, "1": true}
	falsy  = map[string]bool{"false": true, "f": true, "no": true, "n": true, "off": true, "0": true, "": true}
)

// ParseFlag interprets a settings boolean. Matching is case-insensitive.
func ParseFlag(s string) (bool, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if truthy[v] {
		return true, nil
	}
	if falsy[v] {
		return false, nil
	}
	return false, &ConfigError{
		Message: fmt.Sprintf("Invalid boolean value: %q. Use one of true/false, yes/no, on/off, 1/0", s),
	}
}

// Flag is a boolean settings value accepting the literals ParseFlag knows.
type Flag bool

func (f *Flag) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return &ConfigError{Message: fmt.Sprintf("line %d: expected a boolean, got a %s", node.Line, kindName(node.Kind))}
	}
	value := node.Value
	if node.Tag == "!!null" {
		value = ""
	}
	b, err := ParseFlag(value)
	if err != nil {
		return &ConfigError{Message: fmt.Sprintf("line %d: %v", node.Line, err)}
	}
	*f = Flag(b)
	return nil
}

// Locators accepts either a single string or a list of strings.
type Locators []string

func (l *Locators) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" || node.Value == "" {
			*l = nil
			return nil
		}
		*l = Locators{node.Value}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return &ConfigError{Message: fmt.Sprintf("line %d: url must be a list of strings: %v", node.Line, err)}
		}
		*l = list
		return nil
	default:
		return &ConfigError{Message: fmt.Sprintf("line %d: url must be a string or a list of strings", node.Line)}
	}
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.SequenceNode:
		return "list"
	case yaml.MappingNode:
		return "mapping"
	default:
		return "non-scalar"
	}
}

// Settings is the on-disk settings file. Absent keys stay nil and do not
// touch the corresponding RunConfig field.
type Settings struct {
	URL          Locators `yaml:"url"`
	Output       *string  `yaml:"output"`
	Format       *string  `yaml:"format_str"`
	Codec        *string  `yaml:"codec"`
	SkipMP3      *Flag    `yaml:"skip_mp3"`
	KeepOrder    *Flag    `yaml:"keep_playlist_order"`
	NoOverwrites *Flag    `yaml:"no_overwrites"`
	SkipNonMusic *Flag    `yaml:"skip_non_music_sections"`
	SourceURL    *string  `yaml:"alternative_yt_url"`
	Verbose      *Flag    `yaml:"verbose"`
	Workers      *int     `yaml:"workers"`

	// Download is accepted for compatibility with older settings files
	// and ignored.
	Download *Flag `yaml:"download"`
}

// LoadSettings reads a YAML (or JSON) settings file. A missing file yields
// empty settings; unknown keys are an error.
func LoadSettings(path string) (*Settings, error) {
	settings := &Settings{}
	if path == "" {
		return settings, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return settings, nil
	}
	if err != nil {
		return nil, &ConfigError{
			Message: fmt.Sprintf("Error reading settings file: %v", err),
		}
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(settings); err != nil {
		if errors.Is(err, io.EOF) {
			return settings, nil
		}
		var cfgErr *ConfigError
		if errors.As(err, &cfgErr) {
			return nil, &ConfigError{Message: fmt.Sprintf("Invalid settings file %s: %s", path, cfgErr.Message)}
		}
		return nil, &ConfigError{
			Message: fmt.Sprintf("Error parsing settings file %s: %v", path, err),
		}
	}

	return settings, nil
}

// Apply overlays present settings onto cfg, except for fields whose flag
// was given explicitly on the command line.
func (s *Settings) Apply(cfg *RunConfig, changed func(flag string) bool) {
	if changed == nil {
		changed = func(string) bool { return false }
	}

	if len(s.URL) > 0 && !changed(FlagURL) && len(cfg.Locators) == 0 {
		cfg.Locators = append([]string(nil), s.URL...)
	}
	if s.Output != nil && !changed(FlagOutput) {
		cfg.Output = *s.Output
	}
	if s.Format != nil && !changed(FlagFormat) {
		cfg.Format = *s.Format
	}
	if s.Codec != nil && !changed(FlagCodec) {
		cfg.Codec = *s.Codec
	}
	if s.SkipMP3 != nil && !changed(FlagSkipMP3) {
		cfg.SkipTranscode = bool(*s.SkipMP3)
	}
	if s.KeepOrder != nil && !changed(FlagKeepOrder) {
		cfg.KeepOrder = bool(*s.KeepOrder)
	}
	if s.NoOverwrites != nil && !changed(FlagNoOverwrites) {
		cfg.NoOverwrite = bool(*s.NoOverwrites)
	}
	if s.SkipNonMusic != nil && !changed(FlagSkipNonMusic) {
		cfg.SkipNonMusic = bool(*s.SkipNonMusic)
	}
	if s.SourceURL != nil && !changed(FlagSourceURL) {
		cfg.SourceURL = *s.SourceURL
	}
	if s.Verbose != nil && !changed(FlagVerbose) {
		cfg.Verbose = bool(*s.Verbose)
	}
	if s.Workers != nil && !changed(FlagWorkers) {
		cfg.Workers = *s.Workers
	}
}

// DefaultSettingsPath returns $SPOTIFYDL_SETTINGS, then ~/.spotify_dl_settings
// if it exists, then settings.yaml under the user config directory.
func DefaultSettingsPath() string {
	if p := os.Getenv(settingsEnv); p != "" {
		return p
	}

	if home, err := os.UserHomeDir(); err == nil {
		legacy := filepath.Join(home, ".spotify_dl_settings")
		if _, err := os.Stat(legacy); err == nil {
			return legacy
		}
	}

	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "spotifydl", "settings.yaml")
	}
	return ""
}
