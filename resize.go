package embedimg

import (
	"image"
	"math"
	"runtime"
	"sync"

	"github.com/nfnt/resize"
	"golang.org/x/image/draw"
)

// drawScaled paints src onto the whole of dst, resampling with f. dst is a
// fresh, fully transparent surface, so compositing Over is the same as a copy
// wherever src is opaque.
func drawScaled(dst *image.RGBA, src *image.NRGBA, f Filter) {
	w, h := dst.Bounds().Dx(), dst.Bounds().Dy()
	if src.Bounds().Dx() == w && src.Bounds().Dy() == h {
		draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Over)
		return
	}

	switch f {
	case CatmullRom:
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	case BiLinear:
		draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	case NearestNeighbor:
		draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	case Mitchell:
		scaled := resize.Resize(uint(w), uint(h), src, resize.MitchellNetravali)
		draw.Draw(dst, dst.Bounds(), scaled, scaled.Bounds().Min, draw.Over)
	default:
		scaled := lanczosResize(src, w, h)
		draw.Draw(dst, dst.Bounds(), scaled, image.Point{}, draw.Over)
	}
}

// lanczosResize is a two-pass separable Lanczos-3 resample, horizontal then
// vertical. Taps are weighted by alpha so transparent pixels don't bleed
// their (meaningless) color into edges.
func lanczosResize(img *image.NRGBA, dstW, dstH int) *image.NRGBA {
	srcW := img.Bounds().Dx()
	srcH := img.Bounds().Dy()

	if srcW <= 0 || srcH <= 0 || dstW <= 0 || dstH <= 0 {
		return image.NewNRGBA(image.Rect(0, 0, 0, 0))
	}

	tmp := image.NewNRGBA(image.Rect(0, 0, dstW, srcH))
	cols := lanczosTaps(srcW, dstW)
	parallelRows(srcH, func(y int) {
		for dx := 0; dx < dstW; dx++ {
			resample(tmp.Pix[y*tmp.Stride+dx*4:], img.Pix, cols[dx], y*img.Stride, 4)
		}
	})

	dst := image.NewNRGBA(image.Rect(0, 0, dstW, dstH))
	rows := lanczosTaps(srcH, dstH)
	parallelRows(dstW, func(x int) {
		for dy := 0; dy < dstH; dy++ {
			resample(dst.Pix[dy*dst.Stride+x*4:], tmp.Pix, rows[dy], x*4, tmp.Stride)
		}
	})
	return dst
}

const lanczosA = 3.0 // kernel support

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	x *= math.Pi
	return math.Sin(x) / x
}

func lanczos3(x float64) float64 {
	if x <= -lanczosA || x >= lanczosA {
		return 0
	}
	return sinc(x) * sinc(x/lanczosA)
}

type tap struct {
	index  int
	weight float64
}

// lanczosTaps precomputes normalized weights mapping srcN samples onto dstN.
func lanczosTaps(srcN, dstN int) [][]tap {
	ratio := float64(srcN) / float64(dstN)
	scale := math.Max(ratio, 1.0)
	support := lanczosA * scale

	taps := make([][]tap, dstN)
	for d := 0; d < dstN; d++ {
		center := (float64(d)+0.5)*ratio - 0.5
		lo := max(int(math.Ceil(center-support)), 0)
		hi := min(int(math.Floor(center+support)), srcN-1)

		var sum float64
		entries := make([]tap, 0, hi-lo+1)
		for s := lo; s <= hi; s++ {
			if w := lanczos3((float64(s) - center) / scale); w != 0 {
				sum += w
				entries = append(entries, tap{s, w})
			}
		}
		if sum != 0 {
			for i := range entries {
				entries[i].weight /= sum
			}
		}
		taps[d] = entries
	}
	return taps
}

// resample writes one NRGBA pixel into out from the taps over pix, where
// sample i of the line lives at base + i*step.
func resample(out, pix []uint8, taps []tap, base, step int) {
	var r, g, b, a float64
	for _, t := range taps {
		off := base + t.index*step
		aw := float64(pix[off+3]) * t.weight
		r += float64(pix[off]) * aw
		g += float64(pix[off+1]) * aw
		b += float64(pix[off+2]) * aw
		a += aw
	}
	if a == 0 {
		return
	}
	inv := 1.0 / a
	out[0] = clamp8(r * inv)
	out[1] = clamp8(g * inv)
	out[2] = clamp8(b * inv)
	out[3] = clamp8(a)
}

// parallelRows calls fn for every i in [0, n), spreading contiguous chunks
// over GOMAXPROCS goroutines. fn must only write output owned by i.
func parallelRows(n int, fn func(i int)) {
	workers := min(runtime.GOMAXPROCS(0), n)
	if workers <= 1 {
		for i := range n {
			fn(i)
		}
		return
	}

	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		wg.Go(func() {
			for i := lo; i < hi; i++ {
				fn(i)
			}
		})
	}
	wg.Wait()
}
