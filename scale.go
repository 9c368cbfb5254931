package embedimg

import (
	"image"
	"math"
)

const (
	// fallbackQuality is the fixed JPEG quality of the lossy and reduced tiers.
	fallbackQuality = 0.5
	// reduceRatio shrinks the primary dimensions for the reduced tier.
	reduceRatio = 0.6
)

// scaleToWidth fits (w, h) to maxWidth, preserving aspect ratio and never
// enlarging. The height is rounded to the nearest pixel.
func scaleToWidth(w, h, maxWidth int) image.Point {
	if w <= maxWidth {
		return image.Pt(w, h)
	}
	scaled := math.Round(float64(h) * float64(maxWidth) / float64(w))
	return image.Pt(maxWidth, int(scaled))
}

// reduce applies reduceRatio to both sides, flooring. Unlike scaleToWidth
// it never rounds up.
func reduce(p image.Point) image.Point {
	return image.Pt(
		int(math.Floor(float64(p.X)*reduceRatio)),
		int(math.Floor(float64(p.Y)*reduceRatio)),
	)
}

// TierSpec is the format, quality and size a tier encodes at.
type TierSpec struct {
	Tier    Tier
	Format  Format
	Quality float64 // 0 for PNG
	Width   int
	Height  int
}

// planTiers derives all three tier specs up front. None of them depends on
// an earlier tier's output, only on the source and the caller's parameters.
func planTiers(nativeW, nativeH, maxWidth int, primary Format, quality float64) [3]TierSpec {
	p := scaleToWidth(nativeW, nativeH, maxWidth)
	r := reduce(p)

	q0 := quality
	if primary.lossless() {
		q0 = 0
	}
	return [3]TierSpec{
		{Tier: TierPrimary, Format: primary, Quality: q0, Width: p.X, Height: p.Y},
		{Tier: TierLossy, Format: JPEG, Quality: fallbackQuality, Width: p.X, Height: p.Y},
		{Tier: TierReduced, Format: JPEG, Quality: fallbackQuality, Width: r.X, Height: r.Y},
	}
}
