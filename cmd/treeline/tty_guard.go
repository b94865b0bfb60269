package main

import (
	"os"
	"strings"
)

// init runs before Bubble Tea acquires the terminal (and before any TUI starts).
//
// In some PTY/TTY capture environments (notably automated runners), Bubble Tea's
// init triggers Lipgloss/Termenv background detection, which can emit OSC/DSR
// control sequences to stdout. Those sequences are harmless in a real terminal
// but can corrupt output captured from headless invocations.
//
// We treat headless invocations as non-interactive and set CI=1 early. Termenv
// uses CI to disable TTY probing, preventing those sequences from being written.
func init() {
	if os.Getenv("CI") != "" {
		return
	}

	if !shouldSuppressTTYQueries(os.Args, os.Getenv("TREELINE_ROBOT") == "1", os.Getenv("TREELINE_TEST_MODE") != "") {
		return
	}

	_ = os.Setenv("CI", "1")
}

func shouldSuppressTTYQueries(args []string, envRobot, envTest bool) bool {
	if envRobot || envTest {
		return true
	}

	for _, arg := range args {
		name := strings.TrimLeft(arg, "-")
		switch name {
		case "version", "help", "stats", "sources":
			if strings.HasPrefix(arg, "-") {
				return true
			}
		}
		if strings.HasPrefix(arg, "-export") || strings.HasPrefix(arg, "--export") {
			return true
		}
	}

	return false
}
