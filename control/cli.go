package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sv4u/spotifydl/download"
	"github.com/sv4u/spotifydl/download/audio"
	"github.com/sv4u/spotifydl/download/catalog"
	"github.com/sv4u/spotifydl/download/config"
	"github.com/sv4u/spotifydl/download/credentials"
	"github.com/sv4u/spotifydl/download/logging"
	"github.com/sv4u/spotifydl/download/metadata"
	"github.com/sv4u/spotifydl/download/spotify"
)

const serviceName = "spotifydl"

// newPrompter is replaced in tests.
var newPrompter = func() credentials.Prompter {
	return credentials.NewSurveyPrompter()
}

// cliOptions holds the raw flag values.
type cliOptions struct {
	urls          []string
	output        string
	format        string
	codec         string
	skipTranscode bool
	keepOrder     bool
	noOverwrites  bool
	skipNonMusic  bool
	sourceURL     string
	verbose       bool
	version       bool
	workers       int
	settings      string
	logFile       string
	noTUI         bool
}

func newRootCommand(opts *cliOptions, runFn func(cmd *cobra.Command, args []string)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spotifydl [flags] [locator...]",
		Short: "Download Spotify tracks, albums and playlists as audio files",
		Long: `spotifydl looks up Spotify tracks, albums and playlists, finds each song on
YouTube and downloads it with yt-dlp.

Locators may be open.spotify.com links or spotify: URIs, given as arguments
or with --url. Credentials are read from the saved credentials file, then
SPOTIFY_CLIENT_ID/SPOTIFY_CLIENT_SECRET, then asked for interactively.`,
		Example: `  spotifydl https://open.spotify.com/album/1DFixLWuPkv3KT3TnV35m3
  spotifydl -o ~/Music -k spotify:playlist:37i9dQZF1DXcBWIGoYBM5M
  spotifydl -l spotify:track:4uLU6hMCjMI75M1A2tKUQC --codec opus -s`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		Run:           runFn,
	}

	f := cmd.Flags()
	f.SortFlags = false
	f.StringArrayVarP(&opts.urls, config.FlagURL, "l", nil, "Spotify track, album or playlist link (repeatable)")
	f.StringVarP(&opts.output, config.FlagOutput, "o", config.DefaultOutput, "output directory")
	f.StringVarP(&opts.format, config.FlagFormat, "f", config.DefaultFormat, "yt-dlp format selector")
	f.StringVar(&opts.codec, config.FlagCodec, config.DefaultCodec, "audio codec to transcode to")
	f.BoolVarP(&opts.skipTranscode, config.FlagSkipMP3, "m", false, "keep the downloaded audio stream as-is")
	f.BoolVarP(&opts.keepOrder, config.FlagKeepOrder, "k", false, "prefix file names with their position in the listing")
	f.BoolVarP(&opts.noOverwrites, config.FlagNoOverwrites, "w", false, "skip tracks whose file already exists")
	f.BoolVarP(&opts.skipNonMusic, config.FlagSkipNonMusic, "s", false, "cut non-music sections using SponsorBlock")
	f.StringVarP(&opts.sourceURL, config.FlagSourceURL, "y", "", "download every track from this URL instead of searching")
	f.BoolVarP(&opts.verbose, config.FlagVerbose, "V", false, "enable debug logging")
	f.BoolVarP(&opts.version, "version", "v", false, "print version and exit")
	f.IntVar(&opts.workers, config.FlagWorkers, config.DefaultWorkers, fmt.Sprintf("tracks to download in parallel (1-%d)", config.MaxWorkers))
	f.StringVar(&opts.settings, "settings", "", "settings file (default $SPOTIFYDL_SETTINGS or the user config dir)")
	f.StringVar(&opts.logFile, "log-file", "", "write JSON logs to this file")
	f.BoolVar(&opts.noTUI, "no-tui", false, "disable the interactive progress view")

	return cmd
}

// run parses args, executes the command and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	opts := &cliOptions{}
	code := download.ExitSuccess

	cmd := newRootCommand(opts, func(cmd *cobra.Command, positional []string) {
		code = execute(cmd, opts, positional, stdout, stderr)
	})
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		fmt.Fprintln(stderr, "Run 'spotifydl --help' for usage.")
		return download.ExitConfigError
	}
	return code
}

func execute(cmd *cobra.Command, opts *cliOptions, positional []string, stdout, stderr io.Writer) int {
	if opts.version {
		fmt.Fprintf(stdout, "spotifydl version %s\n", Version)
		return download.ExitSuccess
	}

	cfg, err := buildConfig(cmd, opts, positional)
	if err != nil {
		fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return download.ExitConfigError
	}

	useTUI := WantTUI(cfg.NoTUI)
	out, err := newRunOutput(cfg, useTUI, stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error setting up logging: %v\n", err)
		return download.ExitConfigError
	}
	defer out.Close()
	rt := out.rt

	if err := credentials.LoadDotEnv(); err != nil {
		rt.Logger.Warnf("dotenv_load_failed error=%v", err)
	}
	creds, source, err := credentials.NewResolver(credentials.DefaultPath(), newPrompter(), rt).Resolve()
	if err != nil {
		fmt.Fprintf(stderr, "Credentials error: %v\n", err)
		fmt.Fprintln(stderr, "Set SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET, or run from a terminal to enter them.")
		return download.ExitConfigError
	}
	rt.Logger.Infof("credentials_loaded source=%s", source)

	client, err := spotify.NewSpotifyClient(&spotify.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Spotify client error: %v\n", err)
		return download.ExitConfigError
	}

	provider, err := audio.NewProvider(&audio.Config{
		Format:        cfg.Format,
		Codec:         cfg.Codec,
		SkipTranscode: cfg.SkipTranscode,
		NoOverwrite:   cfg.NoOverwrite,
		SkipNonMusic:  cfg.SkipNonMusic,
	}, rt)
	if err != nil {
		fmt.Fprintf(stderr, "Audio provider error: %v\n", err)
		return download.ExitConfigError
	}

	downloader := download.NewDownloader(cfg, provider, metadata.NewEmbedder(rt), rt)
	service := download.NewService(cfg, catalog.NewFetcher(client, rt), downloader, rt)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var summary *download.Summary
	if useTUI {
		summary, err = RunDownloadTUI(ctx, cancel, service, cfg.Locators, out.logPath, out.errCh)
		if err != nil {
			fmt.Fprintf(stderr, "Progress view error: %v\n", err)
		}
	}
	if summary == nil {
		summary = service.Run(ctx, cfg.Locators)
	}

	printSummary(stdout, summary, out.logPath)
	return summary.ExitCode()
}

// buildConfig assembles the run configuration: flag defaults, overlaid by
// the settings file, overlaid by flags given explicitly.
func buildConfig(cmd *cobra.Command, opts *cliOptions, positional []string) (*config.RunConfig, error) {
	cfg := &config.RunConfig{
		Locators:      append(append([]string(nil), positional...), opts.urls...),
		Output:        opts.output,
		Format:        opts.format,
		Codec:         opts.codec,
		SkipTranscode: opts.skipTranscode,
		KeepOrder:     opts.keepOrder,
		NoOverwrite:   opts.noOverwrites,
		SkipNonMusic:  opts.skipNonMusic,
		SourceURL:     opts.sourceURL,
		Verbose:       opts.verbose,
		Workers:       opts.workers,
		LogFile:       opts.logFile,
		NoTUI:         opts.noTUI,
	}

	settingsPath := opts.settings
	if settingsPath != "" {
		if _, err := os.Stat(settingsPath); errors.Is(err, os.ErrNotExist) {
			return nil, &config.ConfigError{Message: fmt.Sprintf("Settings file not found: %s", settingsPath)}
		}
	} else {
		settingsPath = config.DefaultSettingsPath()
	}

	settings, err := config.LoadSettings(settingsPath)
	if err != nil {
		return nil, err
	}
	settings.Apply(cfg, cmd.Flags().Changed)

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runOutput owns the logger and console for one invocation.
type runOutput struct {
	rt      *logging.Runtime
	logPath string
	errCh   chan string
	closers []io.Closer
}

func newRunOutput(cfg *config.RunConfig, useTUI bool, stdout, stderr io.Writer) (*runOutput, error) {
	level := logging.LogLevelInfo
	if env := os.Getenv("SPOTIFYDL_LOG_LEVEL"); env != "" {
		level = logging.ParseLevel(env)
	}
	if cfg.Verbose {
		level = logging.LogLevelDebug
	}

	out := &runOutput{}
	var logger *logging.Logger
	switch {
	case cfg.LogFile != "":
		l, err := logging.NewJSONLogger(cfg.LogFile, serviceName, level)
		if err != nil {
			return nil, err
		}
		logger = l
		out.logPath = cfg.LogFile
		out.closers = append(out.closers, l)
	case useTUI:
		logPath, err := CreateRunLog()
		if err != nil {
			return nil, err
		}
		out.errCh = make(chan string, 64)
		tee, err := NewLogTeeWriter(logPath, out.errCh)
		if err != nil {
			return nil, err
		}
		logger = logging.NewLogger(tee, serviceName, level)
		out.logPath = logPath
		out.closers = append(out.closers, tee)
	default:
		logger = logging.NewLogger(stderr, serviceName, level)
	}

	console := logging.NewConsole(stdout, false)
	if useTUI {
		console = logging.NewConsole(io.Discard, true)
	}
	out.rt = logging.NewRuntime(logger, console)
	return out, nil
}

func (o *runOutput) Close() {
	for _, c := range o.closers {
		_ = c.Close()
	}
}

func printSummary(w io.Writer, s *download.Summary, logPath string) {
	console := logging.NewConsole(w, false)
	console.Headingf("Done: %d downloaded, %d skipped, %d failed", s.Downloaded, s.Skipped, s.Failed)

	for _, r := range s.Resources {
		if r.Err != nil {
			console.Failf("  %s: %v", r.Locator, r.Err)
			continue
		}
		for _, t := range r.Tracks {
			if t.Status == download.StatusFailed {
				console.Failf("  %s: %v", t.Name, t.Err)
			}
		}
	}
	if s.Interrupted {
		console.Warnf("Interrupted")
	}
	if logPath != "" {
		console.Printf("Log file: %s", logPath)
	}
}
