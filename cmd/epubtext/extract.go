package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/simp-lee/epubtext"
)

// archiveExt is the extension collected when a directory is given.
const archiveExt = ".epub"

func newExtractCommand(flags *globalFlags) *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "extract <archive|dir>...",
		Short: "Write the plain text of one or more ePub archives",
		Long: `Write the plain text of one or more ePub archives.

Each argument is an archive or a directory; directories contribute the
.epub files directly inside them, in natural order. A failing archive is
reported and the batch continues; the exit code is 1 if any archive failed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cfgPath, err := flags.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("output-dir") {
				cfg.OutputDir = outputDir
			}

			logger := newLogger(cmd.ErrOrStderr(), flags.verbose || cfg.Verbose)
			if cfgPath != "" {
				logger.Debug("loaded config", "path", cfgPath)
			}

			archives, failed := collectArchives(logger, args)
			b := &batch{
				extractor: epubtext.New(cfg.Options()),
				outputDir: cfg.OutputDir,
				logger:    logger,
				failed:    failed,
			}
			b.run(archives)
			return b.finish(cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "directory for .txt files (default: next to each archive)")
	return cmd
}

// collectArchives expands the arguments into archive paths. Paths that
// cannot be read are logged and counted as failures.
func collectArchives(logger *log.Logger, args []string) (archives []string, failed int) {
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			logger.Error("cannot read path", "path", arg, "err", err)
			failed++
			continue
		}
		if !info.IsDir() {
			archives = append(archives, arg)
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			logger.Error("cannot list directory", "path", arg, "err", err)
			failed++
			continue
		}
		var found []string
		for _, e := range entries {
			if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), archiveExt) {
				found = append(found, filepath.Join(arg, e.Name()))
			}
		}
		if len(found) == 0 {
			logger.Warn("no archives in directory", "path", arg)
		}
		epubtext.SortNatural(found)
		archives = append(archives, found...)
	}
	return archives, failed
}

// batch extracts archives one after another and tallies the outcome.
type batch struct {
	extractor *epubtext.Extractor
	outputDir string
	logger    *log.Logger

	done   int
	failed int
}

func (b *batch) run(archives []string) {
	for _, archive := range archives {
		outDir := b.outputDir
		if outDir == "" {
			outDir = filepath.Dir(archive)
		}

		res, err := b.extractor.ExtractToFile(archive, outDir)
		report(b.logger, res)
		if err != nil {
			b.logger.Error("extraction failed", "archive", archive, "err", err)
			b.failed++
			continue
		}
		b.logger.Info("wrote", "archive", archive, "output", res.OutputPath, "blocks", len(res.Blocks))
		b.done++
	}
}

// report logs what happened inside one run, independent of its outcome.
func report(logger *log.Logger, res *epubtext.Result) {
	if res == nil {
		return
	}
	l := logger.With("archive", res.Archive)

	if res.Book.Title != "" {
		l.Debug("book", "title", res.Book.Title, "authors", strings.Join(res.Book.Authors, ", "),
			"language", res.Book.Language, "version", res.Book.Version)
	}
	switch {
	case res.Order.UsedFallback:
		l.Warn("using heuristic reading order", "documents", len(res.Order.Paths))
	case res.Order.PackagePath != "":
		l.Info("using spine reading order", "package", res.Order.PackagePath, "documents", len(res.Order.Paths))
	}
	for _, w := range res.Warnings {
		l.Warn(w)
	}
	for _, s := range res.Order.Skipped {
		l.Warn("spine reference skipped", "ref", s.Path, "reason", s.Reason)
	}
	for _, s := range res.Skipped {
		if s.Err != nil {
			l.Warn("document skipped", "path", s.Path, "reason", s.Reason, "err", s.Err)
			continue
		}
		l.Debug("document skipped", "path", s.Path, "reason", s.Reason)
	}
	for _, blk := range res.Blocks {
		l.Debug("document", "path", blk.Path, "heading", blk.Heading, "chars", len(blk.Body))
	}
}

// finish prints the summary line and converts failures into an exit code.
func (b *batch) finish(w io.Writer) error {
	summary := SuccessStyle.Render(fmt.Sprintf("%d converted", b.done))
	if b.failed > 0 {
		summary += ", " + ErrorStyle.Render(fmt.Sprintf("%d failed", b.failed))
	}
	fmt.Fprintln(w, summary)

	if b.failed > 0 {
		return &ExitError{Code: 1, Err: fmt.Errorf("%d of %d archives failed", b.failed, b.done+b.failed)}
	}
	return nil
}
