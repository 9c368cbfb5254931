package embedimg

import (
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"math"
)

// jpegQuality maps a [0,1] quality onto the encoder's 1–100 scale,
// rounding to nearest.
func jpegQuality(q float64) int {
	return min(max(int(math.Round(q*100)), 1), 100)
}

// encodeJPEG writes surface as baseline JPEG. Alpha is discarded; fully
// transparent pixels come out black, as the surface is premultiplied.
func encodeJPEG(w io.Writer, surface *image.RGBA, quality float64) error {
	return jpeg.Encode(w, surface, &jpeg.Options{Quality: jpegQuality(quality)})
}

// encodePNG writes surface losslessly, reducing to grayscale or to a palette
// when that loses nothing.
func encodePNG(w io.Writer, surface *image.RGBA) error {
	encoder := png.Encoder{CompressionLevel: png.BestCompression}

	if opaquePix(surface.Pix) && grayPix(surface.Pix) {
		return encoder.Encode(w, grayOf(surface))
	}
	if paletted := tryPalettize(surface, 256); paletted != nil {
		return encoder.Encode(w, paletted)
	}
	return encoder.Encode(w, surface)
}

// tryPalettize returns surface as an indexed image, or nil if it has more
// than maxColors distinct colors. Palette order is first-seen in raster
// order, so the output is deterministic.
func tryPalettize(surface *image.RGBA, maxColors int) *image.Paletted {
	w := surface.Bounds().Dx()
	h := surface.Bounds().Dy()

	index := make(map[[4]uint8]uint8, maxColors)
	palette := make(color.Palette, 0, maxColors)
	pix := make([]uint8, w*h)

	for y := 0; y < h; y++ {
		off := y * surface.Stride
		for x := 0; x < w; x++ {
			i := off + x*4
			key := [4]uint8{surface.Pix[i], surface.Pix[i+1], surface.Pix[i+2], surface.Pix[i+3]}
			idx, ok := index[key]
			if !ok {
				if len(palette) == maxColors {
					return nil
				}
				idx = uint8(len(palette))
				index[key] = idx
				palette = append(palette, color.RGBA{key[0], key[1], key[2], key[3]})
			}
			pix[y*w+x] = idx
		}
	}

	return &image.Paletted{
		Pix:     pix,
		Stride:  w,
		Rect:    image.Rect(0, 0, w, h),
		Palette: palette,
	}
}
