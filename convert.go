package embedimg

import (
	"fmt"
	"image"
	"math"

	"golang.org/x/image/draw"
)

// toNRGBA copies img into a fresh non-premultiplied raster anchored at (0,0).
// Decoders return whatever model suits the file (YCbCr, Paletted, Gray, RGBA
// ...); everything downstream works on one layout.
func toNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// opaquePix reports whether every alpha byte of a 4-byte-per-pixel buffer
// is 0xff.
func opaquePix(pix []uint8) bool {
	for i := 3; i < len(pix); i += 4 {
		if pix[i] != 0xff {
			return false
		}
	}
	return true
}

// grayPix reports whether R == G == B for every pixel.
func grayPix(pix []uint8) bool {
	for i := 0; i+2 < len(pix); i += 4 {
		if pix[i] != pix[i+1] || pix[i] != pix[i+2] {
			return false
		}
	}
	return true
}

// grayOf extracts the R channel of an opaque gray surface.
func grayOf(surface *image.RGBA) *image.Gray {
	b := surface.Bounds()
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := range b.Dy() {
		row := surface.Pix[y*surface.Stride:]
		out := g.Pix[y*g.Stride : y*g.Stride+b.Dx()]
		for x := range out {
			out[x] = row[x*4]
		}
	}
	return g
}

// clamp8 rounds x into a byte.
func clamp8(x float64) uint8 {
	return uint8(min(max(math.Round(x), 0), 255))
}

// humanBytes formats n using 1024-based units.
func humanBytes(n int) string {
	switch {
	case n < 1<<10:
		return fmt.Sprintf("%d B", n)
	case n < 1<<20:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	}
}
