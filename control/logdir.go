package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// getLogDir returns SPOTIFYDL_LOG_DIR, or logs under the user cache dir.
func getLogDir() string {
	if d := os.Getenv("SPOTIFYDL_LOG_DIR"); d != "" {
		return d
	}
	if d, err := os.UserCacheDir(); err == nil {
		return filepath.Join(d, "spotifydl", "logs")
	}
	return ".logs"
}

// CreateRunLog returns a fresh log file path for this run
// (<log dir>/run_<timestamp>_<nanos>.log), creating the directory.
func CreateRunLog() (string, error) {
	base := getLogDir()
	if err := os.MkdirAll(base, 0755); err != nil {
		return "", fmt.Errorf("create log dir: %w", err)
	}
	now := time.Now()
	ts := strings.ReplaceAll(now.Format(time.RFC3339), ":", "-")
	return filepath.Join(base, "run_"+ts+"_"+strconv.FormatInt(now.UnixNano(), 10)+".log"), nil
}
