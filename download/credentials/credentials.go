// Package credentials finds the Spotify client credentials for a run: a
// saved credentials file first, then the environment, then an interactive
// prompt whose answers are saved for next time.
package credentials

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/sv4u/spotifydl/download/logging"
)

const (
	keyClientID     = "SPOTIFY_CLIENT_ID"
	keyClientSecret = "SPOTIFY_CLIENT_SECRET"

	legacyClientID     = "SPOTIPY_CLIENT_ID"
	legacyClientSecret = "SPOTIPY_CLIENT_SECRET"

	pathEnv = "SPOTIFYDL_CREDENTIALS"
)

// ErrUnavailable means no source produced credentials.
var ErrUnavailable = errors.New("spotify credentials unavailable")

// Credentials is a Spotify client id/secret pair.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// Valid reports whether both halves are present.
func (c Credentials) Valid() bool {
	return strings.TrimSpace(c.ClientID) != "" && strings.TrimSpace(c.ClientSecret) != ""
}

// Source names where credentials came from.
type Source string

const (
	SourceFile   Source = "file"
	SourceEnv    Source = "env"
	SourcePrompt Source = "prompt"
)

// Prompter asks the user for credentials.
type Prompter interface {
	Prompt() (Credentials, error)
}

// Resolver tries each credential source in order.
type Resolver struct {
	path     string
	prompter Prompter
	logger   *logging.Logger
}

// NewResolver creates a resolver using the credentials file at path.
// prompter may be nil for non-interactive use.
func NewResolver(path string, prompter Prompter, rt *logging.Runtime) *Resolver {
	return &Resolver{path: path, prompter: prompter, logger: rt.Logger}
}

// Resolve returns the first valid credentials and their source. Prompted
// credentials are written to the credentials file; a failed write is only
// logged.
func (r *Resolver) Resolve() (Credentials, Source, error) {
	if r.path != "" {
		creds, err := Load(r.path)
		switch {
		case err == nil && creds.Valid():
			r.logger.Debugf("credentials_resolved source=file path=%s", r.path)
			return creds, SourceFile, nil
		case err != nil && !errors.Is(err, os.ErrNotExist):
			r.logger.Warnf("credentials_file_unreadable path=%s error=%v", r.path, err)
		}
	}

	if creds := FromEnv(); creds.Valid() {
		r.logger.Debug("credentials_resolved source=env")
		return creds, SourceEnv, nil
	}

	if r.prompter == nil {
		return Credentials{}, "", ErrUnavailable
	}

	creds, err := r.prompter.Prompt()
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			return Credentials{}, "", err
		}
		return Credentials{}, "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !creds.Valid() {
		return Credentials{}, "", ErrUnavailable
	}

	if r.path != "" {
		if err := Save(r.path, creds); err != nil {
			r.logger.Warnf("credentials_save_failed path=%s error=%v", r.path, err)
		} else {
			r.logger.Infof("credentials_saved path=%s", r.path)
		}
	}
	return creds, SourcePrompt, nil
}

// FromEnv reads SPOTIFY_CLIENT_ID/SECRET, falling back to the SPOTIPY_
// names.
func FromEnv() Credentials {
	creds := Credentials{
		ClientID:     os.Getenv(keyClientID),
		ClientSecret: os.Getenv(keyClientSecret),
	}
	if creds.ClientID == "" {
		creds.ClientID = os.Getenv(legacyClientID)
	}
	if creds.ClientSecret == "" {
		creds.ClientSecret = os.Getenv(legacyClientSecret)
	}
	return creds
}

// LoadDotEnv loads .env from the working directory into the environment
// without overriding variables that are already set. A missing file is
// not an error.
func LoadDotEnv() error {
	err := godotenv.Load()
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Load reads a credentials file.
func Load(path string) (Credentials, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		return Credentials{}, err
	}
	return Credentials{
		ClientID:     values[keyClientID],
		ClientSecret: values[keyClientSecret],
	}, nil
}

// Save writes creds to path readable only by the owner.
func Save(path string, creds Credentials) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create credentials directory: %w", err)
	}
	values := map[string]string{
		keyClientID:     creds.ClientID,
		keyClientSecret: creds.ClientSecret,
	}
	if err := godotenv.Write(values, path); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	return os.Chmod(path, 0600)
}

// DefaultPath is $SPOTIFYDL_CREDENTIALS or credentials.env under the user
// config directory.
func DefaultPath() string {
	if p := os.Getenv(pathEnv); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "spotifydl", "credentials.env")
}
