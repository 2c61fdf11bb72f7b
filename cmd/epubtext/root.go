package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/simp-lee/epubtext/internal/config"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// globalFlags holds the persistent flags shared by every subcommand.
type globalFlags struct {
	verbose bool
	cfgFile string
}

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "epubtext",
		Short: "Extract plain text from ePub archives",
		Long: TitleStyle.Render("epubtext") + SubtitleStyle.Render(" - Extract plain text from ePub archives") + `

epubtext unpacks each archive into a temporary working tree, reads the
package document to find the reading order, strips navigation, notes and
other apparatus from every content document, and writes the remaining
narrative text to a .txt file named after the archive.

` + SubtitleStyle.Render("Examples:") + `
  epubtext extract book.epub             Write book.txt next to book.epub
  epubtext extract -o out/ library/      Convert every .epub in library/
  epubtext order book.epub               Show the resolved reading order
  epubtext config init                   Create a default config file`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&flags.cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/epubtext/config.toml)")

	rootCmd.AddCommand(newExtractCommand(flags))
	rootCmd.AddCommand(newOrderCommand(flags))
	rootCmd.AddCommand(newConfigCommand(flags))
	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// execute runs the command tree and returns the process exit code.
func execute() int {
	// fang overrides rootCmd.Version, so the version goes through WithVersion.
	if err := fang.Execute(
		context.Background(),
		newRootCommand(),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return exitErr.Code
		}
		return 1
	}
	return 0
}

// loadConfig loads the configuration honoring --config.
func (f *globalFlags) loadConfig() (*config.Config, string, error) {
	return config.Load(config.LoadOptions{ConfigFilePath: f.cfgFile})
}

// newLogger returns the status logger used by all commands.
func newLogger(w io.Writer, verbose bool) *log.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		Prefix: "epubtext",
		Level:  level,
	})
}
