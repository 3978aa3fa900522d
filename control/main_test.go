package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/sv4u/spotifydl/download"
	"github.com/sv4u/spotifydl/download/config"
	"github.com/sv4u/spotifydl/download/credentials"
)

type unavailablePrompter struct{}

func (unavailablePrompter) Prompt() (credentials.Credentials, error) {
	return credentials.Credentials{}, credentials.ErrUnavailable
}

// emptySettings points SPOTIFYDL_SETTINGS at an empty file so the user's
// own settings never leak into a test.
func emptySettings(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatalf("write settings: %v", err)
	}
	t.Setenv("SPOTIFYDL_SETTINGS", path)
	t.Setenv("SPOTIFYDL_NO_TUI", "1")
	return path
}

func TestRun_VersionExits0(t *testing.T) {
	emptySettings(t)
	for _, args := range [][]string{{"--version"}, {"-v", "not-a-link", "--workers", "99"}} {
		var stdout, stderr bytes.Buffer
		code := run(args, &stdout, &stderr)
		if code != download.ExitSuccess {
			t.Errorf("run(%v) = %d, want %d (stderr %q)", args, code, download.ExitSuccess, stderr.String())
		}
		if !strings.Contains(stdout.String(), "spotifydl version "+Version) {
			t.Errorf("Expected version output, got %q", stdout.String())
		}
	}
}

func TestRun_NoLocatorExits1(t *testing.T) {
	emptySettings(t)
	var stdout, stderr bytes.Buffer
	code := run([]string{"--no-tui"}, &stdout, &stderr)
	if code != download.ExitConfigError {
		t.Errorf("run(no locator) = %d, want %d", code, download.ExitConfigError)
	}
	if !strings.Contains(stderr.String(), "Configuration error") {
		t.Errorf("Expected configuration error on stderr, got %q", stderr.String())
	}
}

func TestRun_InvalidWorkersExits1(t *testing.T) {
	emptySettings(t)
	var stdout, stderr bytes.Buffer
	code := run([]string{"--workers", "99", "spotify:track:4uLU6hMCjMI75M1A2tKUQC"}, &stdout, &stderr)
	if code != download.ExitConfigError {
		t.Errorf("run(--workers 99) = %d, want %d", code, download.ExitConfigError)
	}
}

func TestRun_UnknownFlagExits1(t *testing.T) {
	emptySettings(t)
	var stdout, stderr bytes.Buffer
	code := run([]string{"--no-such-flag"}, &stdout, &stderr)
	if code != download.ExitConfigError {
		t.Errorf("run(--no-such-flag) = %d, want %d", code, download.ExitConfigError)
	}
	if !strings.Contains(stderr.String(), "--help") {
		t.Errorf("Expected usage hint on stderr, got %q", stderr.String())
	}
}

func TestRun_MissingSettingsFileExits1(t *testing.T) {
	emptySettings(t)
	var stdout, stderr bytes.Buffer
	missing := filepath.Join(t.TempDir(), "nope.yaml")
	code := run([]string{"--settings", missing, "spotify:track:4uLU6hMCjMI75M1A2tKUQC"}, &stdout, &stderr)
	if code != download.ExitConfigError {
		t.Errorf("run(missing settings) = %d, want %d", code, download.ExitConfigError)
	}
}

func TestRun_InvalidSettingsExits1(t *testing.T) {
	path := emptySettings(t)
	if err := os.WriteFile(path, []byte("codec: [\n"), 0644); err != nil {
		t.Fatalf("write settings: %v", err)
	}
	var stdout, stderr bytes.Buffer
	code := run([]string{"spotify:track:4uLU6hMCjMI75M1A2tKUQC"}, &stdout, &stderr)
	if code != download.ExitConfigError {
		t.Errorf("run(bad settings) = %d, want %d", code, download.ExitConfigError)
	}
}

func TestRun_MissingCredentialsExits1(t *testing.T) {
	emptySettings(t)
	dir := t.TempDir()
	t.Setenv("SPOTIFYDL_CREDENTIALS", filepath.Join(dir, "credentials.env"))
	for _, key := range []string{"SPOTIFY_CLIENT_ID", "SPOTIFY_CLIENT_SECRET", "SPOTIPY_CLIENT_ID", "SPOTIPY_CLIENT_SECRET"} {
		t.Setenv(key, "")
	}

	origWd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	defer func() { _ = os.Chdir(origWd) }()

	orig := newPrompter
	newPrompter = func() credentials.Prompter { return unavailablePrompter{} }
	defer func() { newPrompter = orig }()

	var stdout, stderr bytes.Buffer
	code := run([]string{"--no-tui", "-o", dir, "spotify:track:4uLU6hMCjMI75M1A2tKUQC"}, &stdout, &stderr)
	if code != download.ExitConfigError {
		t.Errorf("run(no credentials) = %d, want %d", code, download.ExitConfigError)
	}
	if !strings.Contains(stderr.String(), "Credentials error") {
		t.Errorf("Expected credentials error on stderr, got %q", stderr.String())
	}
}

func TestRun_Help(t *testing.T) {
	emptySettings(t)
	var stdout, stderr bytes.Buffer
	code := run([]string{"--help"}, &stdout, &stderr)
	if code != download.ExitSuccess {
		t.Errorf("run(--help) = %d, want %d", code, download.ExitSuccess)
	}

	output := stdout.String()
	expected := []string{
		"spotifydl",
		"Usage:",
		"--url",
		"--output",
		"--format",
		"--skip-transcode",
		"--keep-playlist-order",
		"--no-overwrites",
		"--skip-non-music-sections",
		"--source-url",
		"--verbose",
		"--version",
		"Examples:",
	}
	for _, exp := range expected {
		if !strings.Contains(output, exp) {
			t.Errorf("help output missing %q", exp)
		}
	}
}

// parseConfig runs the root command with args and returns the built config.
func parseConfig(t *testing.T, args []string) (*config.RunConfig, error) {
	t.Helper()
	opts := &cliOptions{}
	var cfg *config.RunConfig
	var buildErr error
	cmd := newRootCommand(opts, func(cmd *cobra.Command, positional []string) {
		cfg, buildErr = buildConfig(cmd, opts, positional)
	})
	cmd.SetArgs(args)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	return cfg, buildErr
}

func TestBuildConfig_FlagsAndArgs(t *testing.T) {
	emptySettings(t)
	cfg, err := parseConfig(t, []string{
		"spotify:album:1DFixLWuPkv3KT3TnV35m3",
		"-l", "spotify:track:4uLU6hMCjMI75M1A2tKUQC",
		"-o", "music", "-k", "-w", "-s", "-m", "--codec", "OPUS", "--workers", "3",
	})
	if err != nil {
		t.Fatalf("buildConfig: %v", err)
	}
	if len(cfg.Locators) != 2 || cfg.Locators[0] != "spotify:album:1DFixLWuPkv3KT3TnV35m3" {
		t.Errorf("Expected positional then --url locators, got %v", cfg.Locators)
	}
	if cfg.Output != "music" || !cfg.KeepOrder || !cfg.NoOverwrite || !cfg.SkipNonMusic || !cfg.SkipTranscode {
		t.Errorf("Expected flags applied, got %+v", cfg)
	}
	if cfg.Codec != "opus" {
		t.Errorf("Expected codec opus, got %q", cfg.Codec)
	}
	if cfg.Workers != 3 {
		t.Errorf("Expected 3 workers, got %d", cfg.Workers)
	}
}

func TestBuildConfig_SettingsOverlay(t *testing.T) {
	path := emptySettings(t)
	settings := `url: spotify:playlist:37i9dQZF1DXcBWIGoYBM5M
output: from-settings
codec: flac
keep_playlist_order: true
`
	if err := os.WriteFile(path, []byte(settings), 0644); err != nil {
		t.Fatalf("write settings: %v", err)
	}

	cfg, err := parseConfig(t, []string{"-o", "from-flag"})
	if err != nil {
		t.Fatalf("buildConfig: %v", err)
	}
	if cfg.Output != "from-flag" {
		t.Errorf("Expected explicit flag to win, got output %q", cfg.Output)
	}
	if cfg.Codec != "flac" || !cfg.KeepOrder {
		t.Errorf("Expected settings applied, got codec %q keep order %v", cfg.Codec, cfg.KeepOrder)
	}
	if len(cfg.Locators) != 1 || cfg.Locators[0] != "spotify:playlist:37i9dQZF1DXcBWIGoYBM5M" {
		t.Errorf("Expected locator from settings, got %v", cfg.Locators)
	}
}

func TestWantTUI_Disabled(t *testing.T) {
	if WantTUI(true) {
		t.Error("Expected --no-tui to disable the progress view")
	}
	t.Setenv("SPOTIFYDL_NO_TUI", "1")
	if WantTUI(false) {
		t.Error("Expected SPOTIFYDL_NO_TUI to disable the progress view")
	}
}
