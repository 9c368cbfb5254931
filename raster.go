package embedimg

import (
	"bytes"
	"fmt"
	"image"

	"github.com/pkg/errors"
)

// surfaceEncoder draws a raster at a tier's size and serializes it to a data
// URL. Each call must use its own surface.
type surfaceEncoder interface {
	encode(r *Raster, spec TierSpec) (string, error)
}

// rasterizer is the production surfaceEncoder.
type rasterizer struct {
	filter    Filter
	maxPixels int
}

func (z rasterizer) encode(r *Raster, spec TierSpec) (string, error) {
	surface, err := newSurface(spec.Width, spec.Height, z.maxPixels)
	if err != nil {
		return "", err
	}
	drawScaled(surface, r.img, z.filter)

	var buf bytes.Buffer
	switch spec.Format {
	case PNG:
		err = encodePNG(&buf, surface)
	default:
		err = encodeJPEG(&buf, surface, spec.Quality)
	}
	if err != nil {
		return "", &CanvasError{
			Width:  spec.Width,
			Height: spec.Height,
			Err:    errors.Wrapf(err, "serialize %s", spec.Format),
		}
	}
	return BuildDataURL(spec.Format.MIMEType(), buf.Bytes()), nil
}

// newSurface allocates a transparent w×h drawing surface.
func newSurface(w, h, maxPixels int) (*image.RGBA, error) {
	if w <= 0 || h <= 0 {
		return nil, &CanvasError{Width: w, Height: h, Err: errors.New("zero-area surface")}
	}
	if w > maxSurfaceSide || h > maxSurfaceSide {
		return nil, &CanvasError{Width: w, Height: h, Err: fmt.Errorf("side exceeds %d pixels", maxSurfaceSide)}
	}
	if w*h > maxPixels {
		return nil, &CanvasError{Width: w, Height: h, Err: fmt.Errorf("area exceeds %d pixels", maxPixels)}
	}
	return image.NewRGBA(image.Rect(0, 0, w, h)), nil
}
