package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/simp-lee/epubtext/internal/config"
)

// newConfigCommand creates the `epubtext config` command tree.
func newConfigCommand(flags *globalFlags) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage epubtext configuration",
		Long: `Manage epubtext configuration.

Configuration is read from the file given with --config, else
$XDG_CONFIG_HOME/epubtext/config.toml (~/.config/epubtext/config.toml),
else ./epubtext.toml. EPUBTEXT_* environment variables override file
values, e.g. EPUBTEXT_OUTPUT_DIR or EPUBTEXT_FILTER_TAGS=script,style.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd.OutOrStdout(), flags)
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file with the defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cmd.OutOrStdout(), flags, force)
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cfgCmd.AddCommand(initCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfigPath(cmd.OutOrStdout())
		},
	})

	return cfgCmd
}

func showConfig(w io.Writer, flags *globalFlags) error {
	cfg, path, err := flags.loadConfig()
	if err != nil {
		return err
	}
	data, err := config.Encode(cfg)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	if path != "" {
		fmt.Fprintf(w, "%s: %s\n\n", PathStyle.Render("Config file"), path)
	} else {
		fmt.Fprintf(w, "%s: %s\n\n", PathStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	_, err = w.Write(data)
	return err
}

func initConfig(w io.Writer, flags *globalFlags, force bool) error {
	path := flags.cfgFile
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := config.WriteDefault(path, force); err != nil {
		return err
	}
	fmt.Fprintf(w, "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), path)
	return nil
}

func showConfigPath(w io.Writer) error {
	dir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	path, err := config.DefaultPath()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Config directory: %s\n", dir)
	fmt.Fprintf(w, "Config file: %s\n", path)
	fmt.Fprintf(w, "Local config file: %s\n", config.LocalConfigFile)
	return nil
}
