// Package embedimg turns an arbitrary uploaded image into a base64 data URL
// that is guaranteed to fit a fixed character budget, for storage in
// cell-oriented backends such as spreadsheet rows.
//
// The encoder never searches. It tries at most three fixed tiers, in order:
//
//   - primary: scaled to the caller's max width (rounded), PNG sources stay
//     PNG and everything else becomes JPEG at the requested quality
//   - lossy: same size, JPEG at quality 0.5
//   - reduced: primary size × 0.6 (floored), JPEG at quality 0.5
//
// The primary tier is accepted if it is within the soft limit (45,000 chars by
// default). Otherwise the first fallback within the soft limit, or else the
// reduced tier, is accepted only if it is below the hard limit (49,000 chars).
// Anything else is a *SizeExceededError; no over-budget string is ever returned.
package embedimg

import (
	"io"

	"github.com/pkg/errors"
)

// Encode encodes data with default options, the given max width and quality.
// contentType is the caller's declaration, e.g. the upload's MIME type.
func Encode(data []byte, contentType string, maxWidth int, quality float64) (*Result, error) {
	opts := DefaultOptions()
	opts.MaxWidth = maxWidth
	opts.Quality = quality
	return EncodeSource(Source{Data: data, ContentType: contentType}, opts)
}

// EncodeSource decodes src and runs the tier sequence with opts.
func EncodeSource(src Source, opts Options) (*Result, error) {
	opts, err := opts.normalized()
	if err != nil {
		return nil, err
	}

	raster, err := DecodeAsync(src, !opts.IgnoreOrientation, opts.MaxSurfacePixels).Wait()
	if err != nil {
		return nil, err
	}

	primary := declaredFormat(src.ContentType)
	plan := planTiers(raster.Width(), raster.Height(), opts.MaxWidth, primary, opts.Quality)
	return newController(opts).run(raster, plan)
}

// EncodeReader reads all of r and encodes it.
func EncodeReader(r io.Reader, contentType string, opts Options) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "embedimg: read")
	}
	return EncodeSource(Source{Data: data, ContentType: contentType}, opts)
}

// EncodeFile encodes the image at path. The content type comes from the
// file extension, or from sniffing when the extension is unknown.
func EncodeFile(path string, opts Options) (*Result, error) {
	src, err := SourceFromFile(path)
	if err != nil {
		return nil, err
	}
	return EncodeSource(src, opts)
}
