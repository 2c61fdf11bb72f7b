package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/simp-lee/epubtext"
)

func newOrderCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "order <archive>",
		Short: "Show the reading order resolved for an archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := flags.loadConfig()
			if err != nil {
				return err
			}
			return printOrder(cmd.OutOrStdout(), args[0], cfg.Options())
		},
	}
}

// printOrder unpacks archive, resolves its reading order and prints the
// documents in that order. Nothing is filtered or written.
func printOrder(w io.Writer, archive string, opts epubtext.Options) error {
	tree, err := epubtext.Unpack(archive, opts)
	if err != nil {
		return err
	}
	defer tree.Release()

	packagePath, _ := epubtext.LocatePackage(tree)
	order := epubtext.ResolveOrder(tree, packagePath, epubtext.HeuristicOrder{Rules: opts.Fallback})

	if order.UsedFallback {
		fmt.Fprintf(w, "%s %s\n", TitleStyle.Render("Reading order:"), WarningStyle.Render("heuristic"))
	} else {
		fmt.Fprintf(w, "%s spine of %s\n", TitleStyle.Render("Reading order:"), PathStyle.Render(order.PackagePath))
	}
	for _, warning := range order.Warnings {
		fmt.Fprintf(w, "%s %s\n", WarningStyle.Render("warning:"), warning)
	}
	for i, p := range order.Paths {
		fmt.Fprintf(w, "%4d  %s\n", i+1, tree.Rel(p))
	}
	for _, s := range order.Skipped {
		fmt.Fprintf(w, "%s %s (%s)\n", SubtitleStyle.Render("skipped:"), s.Path, s.Reason)
	}
	return nil
}
