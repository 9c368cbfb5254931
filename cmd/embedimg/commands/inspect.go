package commands

import (
	"fmt"

	"github.com/shamspias/embedimg"
	"github.com/spf13/cobra"
)

func inspectCmd() *cobra.Command {
	var flags encodeFlags

	cmd := &cobra.Command{
		Use:   "inspect <input>",
		Short: "Show the source image and the tiers an encode would try",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig()
			if err != nil {
				return err
			}
			opts, err := flags.options(cmd, cfg)
			if err != nil {
				return err
			}
			src, err := flags.source(cmd, args[0])
			if err != nil {
				return err
			}

			in, err := embedimg.Inspect(src, opts)
			if err != nil {
				return userError(err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "File:         %s\n", args[0])
			fmt.Fprintf(out, "Declared:     %s\n", in.ContentType)
			fmt.Fprintf(out, "Codec:        %s\n", in.Codec)
			fmt.Fprintf(out, "Dimensions:   %d x %d\n", in.NativeWidth, in.NativeHeight)
			fmt.Fprintf(out, "Orientation:  %s\n", in.Orientation)
			fmt.Fprintf(out, "Alpha:        %v (kept: %v)\n", in.HasAlpha, in.PreservesAlpha())
			fmt.Fprintf(out, "Budget:       soft %d / hard %d chars\n", opts.Budget.Soft, opts.Budget.Hard)
			for _, t := range in.Tiers {
				q := "lossless"
				if t.Format == embedimg.JPEG {
					q = fmt.Sprintf("q=%.2f", t.Quality)
				}
				fmt.Fprintf(out, "Tier %-8s %s %dx%d %s\n", t.Tier.String()+":", t.Format, t.Width, t.Height, q)
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}
