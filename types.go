package embedimg

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
)

// Version is the library version.
const Version = "1.0.0"

// Format is an output image format. The set is closed: one lossy and one
// lossless format.
type Format int

const (
	// JPEG is the lossy format every fallback tier uses.
	JPEG Format = iota
	// PNG is the lossless format, kept only at tier 0 for PNG sources.
	PNG
)

func (f Format) String() string {
	switch f {
	case PNG:
		return "PNG"
	default:
		return "JPEG"
	}
}

// MIMEType returns the media type written into the data URL.
func (f Format) MIMEType() string {
	if f == PNG {
		return "image/png"
	}
	return "image/jpeg"
}

// lossless reports whether quality is ignored for f.
func (f Format) lossless() bool { return f == PNG }

// Tier identifies one step of the fixed fallback sequence.
type Tier int

const (
	// TierPrimary encodes at the scaled dimensions in the source's format
	// (PNG stays PNG, everything else becomes JPEG) at the requested quality.
	TierPrimary Tier = iota
	// TierLossy forces JPEG at quality 0.5, same dimensions as TierPrimary.
	TierLossy
	// TierReduced forces JPEG at quality 0.5 and shrinks TierPrimary's
	// dimensions by 0.6, flooring each side.
	TierReduced
)

// String returns the human-readable tier name.
func (t Tier) String() string {
	switch t {
	case TierPrimary:
		return "primary"
	case TierLossy:
		return "lossy"
	case TierReduced:
		return "reduced"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// Filter selects the resampling kernel used to draw a raster onto a surface.
// The zero value is Lanczos.
type Filter int

const (
	// Lanczos is a two-pass Lanczos-3 with alpha-weighted taps (default).
	Lanczos Filter = iota
	// CatmullRom is the cubic kernel from golang.org/x/image/draw.
	CatmullRom
	// BiLinear is the bilinear kernel from golang.org/x/image/draw.
	BiLinear
	// NearestNeighbor copies the closest source pixel.
	NearestNeighbor
	// Mitchell is the Mitchell-Netravali cubic from github.com/nfnt/resize.
	Mitchell
)

// String returns the filter name as accepted by ParseFilter.
func (f Filter) String() string {
	switch f {
	case Lanczos:
		return "lanczos"
	case CatmullRom:
		return "catmullrom"
	case BiLinear:
		return "bilinear"
	case NearestNeighbor:
		return "nearest"
	case Mitchell:
		return "mitchell"
	default:
		return "unknown"
	}
}

// ParseFilter maps a filter name to a Filter.
func ParseFilter(name string) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "lanczos":
		return Lanczos, nil
	case "catmullrom", "catmull-rom", "cubic":
		return CatmullRom, nil
	case "bilinear", "linear":
		return BiLinear, nil
	case "nearest", "nearestneighbor":
		return NearestNeighbor, nil
	case "mitchell":
		return Mitchell, nil
	default:
		return Lanczos, errors.Wrapf(ErrInvalidArgument, "unknown filter %q", name)
	}
}

// Budget bounds the length of the encoded data URL, in characters.
type Budget struct {
	// Soft is the length above which the controller escalates to the next tier.
	Soft int
	// Hard is the exclusive ceiling on any returned result.
	Hard int
}

// DefaultBudget fits a data URL into a 50,000-character spreadsheet cell with
// room to spare.
var DefaultBudget = Budget{Soft: 45000, Hard: 49000}

func (b Budget) validate() error {
	if b.Soft <= 0 || b.Hard <= 0 {
		return errors.Wrapf(ErrInvalidArgument, "budget limits must be positive (soft=%d, hard=%d)", b.Soft, b.Hard)
	}
	if b.Soft >= b.Hard {
		return errors.Wrapf(ErrInvalidArgument, "soft limit %d must be below hard limit %d", b.Soft, b.Hard)
	}
	return nil
}

const (
	// DefaultQuality is the lossy quality used when none (or an invalid one)
	// is requested.
	DefaultQuality = 0.92

	// DefaultMaxSurfacePixels caps a single drawing surface at 16384².
	DefaultMaxSurfacePixels = 16384 * 16384

	// maxSurfaceSide is the largest width or height a surface may have.
	maxSurfaceSide = 32767
)

// Attempt describes one materialized encoding.
type Attempt struct {
	Tier    Tier
	Format  Format
	Quality float64
	Width   int
	Height  int
	// Length is the character count of the encoded data URL.
	Length int
}

// Options configures an encode. Start from DefaultOptions; in a zero Options
// only MaxWidth and Quality need setting by hand.
type Options struct {
	// MaxWidth is the widest the primary tier may be. Required, > 0.
	// Images narrower than this are never enlarged.
	MaxWidth int

	// Quality in [0,1] for the primary tier when it is lossy. Values outside
	// the range fall back to DefaultQuality; 0 is honored as the lowest JPEG
	// quality. DefaultOptions sets DefaultQuality. Fallback tiers ignore it.
	Quality float64

	// Budget is the size budget. The zero value means DefaultBudget.
	Budget Budget

	// Filter is the resampling kernel used by every tier.
	Filter Filter

	// IgnoreOrientation skips JPEG EXIF orientation. By default the image
	// is turned upright before scaling.
	IgnoreOrientation bool

	// MaxSurfacePixels caps width*height of a drawing surface.
	// 0 means DefaultMaxSurfacePixels.
	MaxSurfacePixels int

	// Logger receives one Debug record per attempt. Nil discards.
	Logger *slog.Logger

	// OnAttempt, if set, is called after each attempt is measured.
	OnAttempt func(Attempt)
}

// DefaultOptions returns photo-scale defaults.
func DefaultOptions() Options {
	return Options{
		MaxWidth: 300,
		Quality:  DefaultQuality,
		Budget:   DefaultBudget,
		Filter:   Lanczos,
	}
}

// normalized fills zero values and validates opts.
func (o Options) normalized() (Options, error) {
	if o.MaxWidth <= 0 {
		return o, errors.Wrapf(ErrInvalidArgument, "max width must be positive, got %d", o.MaxWidth)
	}
	if o.Budget == (Budget{}) {
		o.Budget = DefaultBudget
	}
	if err := o.Budget.validate(); err != nil {
		return o, err
	}
	if math.IsNaN(o.Quality) || o.Quality < 0 || o.Quality > 1 {
		o.Quality = DefaultQuality
	}
	if o.MaxSurfacePixels <= 0 {
		o.MaxSurfacePixels = DefaultMaxSurfacePixels
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return o, nil
}

// Result is an accepted encoding. len(DataURL) is always below the budget's
// hard limit.
type Result struct {
	// DataURL is the embeddable, format-tagged string.
	DataURL string

	// Format, Quality, Width and Height describe the accepted attempt.
	// Quality is 0 for PNG.
	Format  Format
	Quality float64
	Width   int
	Height  int

	// Tier is the tier that produced DataURL.
	Tier Tier

	// NativeWidth and NativeHeight are the decoded (oriented) dimensions.
	NativeWidth  int
	NativeHeight int

	// AlphaDropped is true when the source had transparency that the
	// accepted JPEG encoding flattened.
	AlphaDropped bool
}

// Len returns the length of the data URL in characters.
func (r *Result) Len() int { return len(r.DataURL) }

// Payload decodes the base64 body of the data URL back into image bytes.
func (r *Result) Payload() ([]byte, error) {
	_, raw, err := ParseDataURL(r.DataURL)
	return raw, err
}

// Fingerprint is a stable 64-bit hash of the data URL. Identical inputs and
// options always produce the same fingerprint.
func (r *Result) Fingerprint() uint64 {
	return xxhash.Sum64String(r.DataURL)
}

// WriteTo writes the data URL to w.
func (r *Result) WriteTo(w io.Writer) (int64, error) {
	if r.DataURL == "" {
		return 0, errors.New("embedimg: no encoded data available")
	}
	n, err := io.WriteString(w, r.DataURL)
	return int64(n), err
}

// String returns a human-readable summary of the result.
func (r *Result) String() string {
	qStr := ""
	if !r.Format.lossless() {
		qStr = fmt.Sprintf(" Q=%.2f |", r.Quality)
	}
	return fmt.Sprintf(
		"embedimg: %s |%s %dx%d → %dx%d | tier %s | %d chars (%s)",
		r.Format, qStr,
		r.NativeWidth, r.NativeHeight,
		r.Width, r.Height,
		r.Tier, r.Len(), humanBytes(r.Len()),
	)
}
