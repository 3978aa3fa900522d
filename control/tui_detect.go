package main

import (
	"os"

	"golang.org/x/term"
)

// WantTUI returns true if the CLI should show the progress view: stdout is a
// terminal and neither --no-tui nor SPOTIFYDL_NO_TUI is set.
func WantTUI(noTUIFlag bool) bool {
	if noTUIFlag {
		return false
	}
	if os.Getenv("SPOTIFYDL_NO_TUI") != "" {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}
