package commands

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/shamspias/embedimg"
	"github.com/spf13/cobra"
)

// Root builds the command tree. Each call returns a fresh tree.
func Root() *cobra.Command {
	root := &cobra.Command{
		Use:   "embedimg",
		Short: "Fit any image into a bounded data URL",
		Long: `embedimg converts an uploaded image into a base64 data URL short enough
to store in a single spreadsheet-style cell (under 49,000 characters).

It tries a fixed sequence: the scaled image in its own format (PNG stays PNG,
anything else becomes JPEG), then JPEG at quality 0.5, then JPEG at quality 0.5
shrunk to 60%. If none fits, nothing is written.

Quick start:
  embedimg config init               Write the default presets
  embedimg encode photo.jpg          Print the data URL for photo.jpg
  embedimg inspect logo.png          Show what each tier would do`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolP("verbose", "v", false, "log every encoding attempt to stderr")

	root.AddCommand(
		versionCmd(),
		encodeCmd(),
		inspectCmd(),
		configCmd(),
	)
	return root
}

// newLogger builds cmd's stderr logger at level. --verbose, read from the tree
// cmd belongs to, forces Debug.
func newLogger(cmd *cobra.Command, level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		lvl = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: lvl}))
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "embedimg %s\n", embedimg.Version)
			return nil
		},
	}
}
