package commands

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/pkg/errors"
	"github.com/shamspias/embedimg"
	"github.com/spf13/cobra"
)

// encodeFlags are shared by encode and inspect.
type encodeFlags struct {
	preset      string
	maxWidth    int
	quality     float64
	filter      string
	contentType string
	softLimit   int
	hardLimit   int
	noOrient    bool
}

func (f *encodeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.preset, "preset", "p", "", "named preset from the config (default: config's default_preset)")
	cmd.Flags().IntVar(&f.maxWidth, "max-width", 0, "maximum width in pixels (overrides the preset)")
	cmd.Flags().Float64Var(&f.quality, "quality", 0, "primary-tier JPEG quality 0..1 (overrides the preset)")
	cmd.Flags().StringVar(&f.filter, "filter", "", "resampling filter: lanczos|catmullrom|bilinear|nearest|mitchell")
	cmd.Flags().StringVar(&f.contentType, "content-type", "", "declared content type (default: from extension or sniffed)")
	cmd.Flags().IntVar(&f.softLimit, "soft-limit", embedimg.DefaultBudget.Soft, "length that triggers the next tier")
	cmd.Flags().IntVar(&f.hardLimit, "hard-limit", embedimg.DefaultBudget.Hard, "exclusive ceiling on the result length")
	cmd.Flags().BoolVar(&f.noOrient, "no-orient", false, "ignore EXIF orientation")
}

func (f *encodeFlags) options(cmd *cobra.Command, cfg *Config) (embedimg.Options, error) {
	preset, err := cfg.Preset(f.preset)
	if err != nil {
		return embedimg.Options{}, err
	}

	opts := embedimg.DefaultOptions()
	opts.MaxWidth = preset.MaxWidth
	opts.Quality = preset.Quality
	if cmd.Flags().Changed("max-width") {
		opts.MaxWidth = f.maxWidth
	}
	if cmd.Flags().Changed("quality") {
		opts.Quality = f.quality
	}

	filterName := cfg.Filter
	if f.filter != "" {
		filterName = f.filter
	}
	if opts.Filter, err = embedimg.ParseFilter(filterName); err != nil {
		return embedimg.Options{}, err
	}

	opts.Budget = embedimg.Budget{Soft: f.softLimit, Hard: f.hardLimit}
	opts.IgnoreOrientation = f.noOrient
	opts.Logger = newLogger(cmd, cfg.LogLevel)
	return opts, nil
}

// source loads path ("-" for stdin), applying --content-type if given.
func (f *encodeFlags) source(cmd *cobra.Command, path string) (embedimg.Source, error) {
	var src embedimg.Source
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return src, errors.Wrap(err, "read stdin")
		}
		src = embedimg.Source{Data: data, ContentType: http.DetectContentType(data)}
	} else {
		var err error
		if src, err = embedimg.SourceFromFile(path); err != nil {
			return src, err
		}
	}
	if f.contentType != "" {
		src.ContentType = f.contentType
	}
	return src, nil
}

func encodeCmd() *cobra.Command {
	var (
		flags  encodeFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "encode <input>",
		Short: "Encode an image as a size-bounded data URL",
		Long: `Encode prints the data URL on stdout (or writes it to --output) and a one-line
summary on stderr. When the image cannot be made small enough, nothing is
written and the command fails.`,
		Args: cobra.ExactArgs(1),
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

			result, err := embedimg.EncodeSource(src, opts)
			if err != nil {
				return userError(err)
			}

			if output == "" || output == "-" {
				if _, err := result.WriteTo(cmd.OutOrStdout()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout())
			} else if err := os.WriteFile(output, []byte(result.DataURL), 0644); err != nil {
				return errors.Wrapf(err, "write %q", output)
			}

			fmt.Fprintln(cmd.ErrOrStderr(), result)
			if result.AlphaDropped {
				fmt.Fprintln(cmd.ErrOrStderr(), "note: transparency was flattened to fit the budget")
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the data URL to this file instead of stdout")
	return cmd
}

// userError turns an encoder failure into the message a form would show,
// keeping the cause for --verbose readers.
func userError(err error) error {
	switch {
	case embedimg.IsDecodeError(err):
		return fmt.Errorf("this file could not be read as an image; try a JPEG or PNG (%v)", err)
	case embedimg.IsCanvasError(err):
		return fmt.Errorf("this image could not be processed; try a smaller picture (%v)", err)
	case embedimg.IsSizeExceeded(err):
		return fmt.Errorf("this image is too detailed to store; try a simpler or smaller picture (%v)", err)
	default:
		return err
	}
}
