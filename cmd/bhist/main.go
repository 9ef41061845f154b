// Command bhist is an interactive fuzzy search over shell history,
// meant to be bound to a key in an interactive shell so the selected
// line is typed back at the prompt.
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/kir-gadjello/bhist/history"
	"github.com/kir-gadjello/bhist/internal/terminfo"
	"github.com/kir-gadjello/bhist/internal/tty"
	"github.com/kir-gadjello/bhist/loop"
	"github.com/kir-gadjello/bhist/render"
)

// version is overridden at build time via -ldflags.
var version = "dev"

func main() {
	var debug bool

	rootCmd := &cobra.Command{
		Use:          "bhist",
		Short:        "Fuzzy search your shell history interactively",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isatty.IsTerminal(os.Stdin.Fd()) {
				return fmt.Errorf("stdin is not a tty")
			}
			if debug {
				log.SetFlags(log.Ltime | log.Lshortfile)
			} else {
				log.SetOutput(os.Stderr)
			}
			return run()
		},
	}

	rootCmd.Flags().BoolVarP(&debug, "debug", "D", false, "verbose logging to stderr")
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	fd := int(os.Stdin.Fd())

	guard, err := tty.Prepare(fd)
	if err != nil {
		return fmt.Errorf("prepare terminal: %w", err)
	}
	defer guard.Restore()

	rows, cols, err := tty.WindowSize(fd)
	if err != nil {
		return fmt.Errorf("window size: %w", err)
	}

	db, err := terminfo.Load()
	if err != nil {
		return fmt.Errorf("load terminfo: %w", err)
	}

	rdr := render.New(os.Stdout, db, rows, cols)
	l := loop.New(fd, rdr, historyPath(), completionsPath(), cwd())

	l.Run()
	return nil
}

func historyPath() string {
	return history.ResolvePath()
}

func completionsPath() string {
	if p := os.Getenv("BHIST_COMPLETIONS_FILE"); p != "" {
		return p
	}
	return filepath.Join(os.Getenv("HOME"), ".bis2_completions")
}

func cwd() string {
	d, err := os.Getwd()
	if err != nil {
		return ""
	}
	return d
}
