package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/euforicio/richmd/internal/renderer/highlight"
)

var stylesCmd = &cobra.Command{
	Use:   "styles",
	Short: "Print the syntax highlighting stylesheet",
	Long: `Print the class-mode CSS for the configured light and dark chroma styles,
scoped to the richmd theme classes. Pages rendered with --inline-styles do not
need it.`,
	Args: cobra.NoArgs,
	RunE: runStyles,
}

func init() {
	stylesCmd.Flags().Bool("list", false, "list the available chroma style names")
}

func runStyles(cmd *cobra.Command, _ []string) error {
	if err := resolveConfig(cmd); err != nil {
		return err
	}

	list, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}
	if list {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), strings.Join(highlight.StyleNames(), "\n"))
		return err
	}

	opts := highlight.DefaultOptions()
	opts.LightStyle = cfg.LightStyle
	opts.DarkStyle = cfg.DarkStyle
	opts.CacheSize = 0
	h, err := highlight.New(newLogger(cfg.Verbose), opts)
	if err != nil {
		return err
	}
	css, err := h.Stylesheet()
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), css)
	return err
}
