package embedimg

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── Test Helpers ────────────────────────────────────────────────────────────

func makeTestImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			off := y*img.Stride + x*4
			img.Pix[off] = uint8(x * 255 / w)
			img.Pix[off+1] = uint8(y * 255 / h)
			img.Pix[off+2] = uint8((x + y) % 256)
			img.Pix[off+3] = 0xff
		}
	}
	return img
}

func makeTestImageWithAlpha(w, h int) *image.NRGBA {
	img := makeTestImage(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			off := y*img.Stride + x*4
			img.Pix[off+3] = uint8(x * 255 / w)
		}
	}
	return img
}

func makeSolidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	return img
}

// makeNoiseImage is an opaque image that compresses badly and predictably
// gets smaller as quality or size drops.
func makeNoiseImage(w, h int, seed int64) *image.NRGBA {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = uint8(rng.Intn(256))
		img.Pix[i+1] = uint8(rng.Intn(256))
		img.Pix[i+2] = uint8(rng.Intn(256))
		img.Pix[i+3] = 0xff
	}
	return img
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func jpegBytes(t *testing.T, img image.Image, quality int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}))
	return buf.Bytes()
}

func testOptions(maxWidth int, quality float64) Options {
	opts := DefaultOptions()
	opts.MaxWidth = maxWidth
	opts.Quality = quality
	return opts
}

// tierStrings encodes every tier of src's plan directly, bypassing the
// controller.
func tierStrings(t *testing.T, src Source, opts Options) ([3]TierSpec, [3]string) {
	t.Helper()
	opts, err := opts.normalized()
	require.NoError(t, err)
	raster, err := Decode(src, !opts.IgnoreOrientation, opts.MaxSurfacePixels)
	require.NoError(t, err)

	plan := planTiers(raster.Width(), raster.Height(), opts.MaxWidth, declaredFormat(src.ContentType), opts.Quality)
	enc := rasterizer{filter: opts.Filter, maxPixels: opts.MaxSurfacePixels}

	var out [3]string
	for i, spec := range plan {
		out[i], err = enc.encode(raster, spec)
		require.NoError(t, err)
	}
	return plan, out
}

// ── Pass-through and scaling ────────────────────────────────────────────────

func TestEncodeIconPassesThrough(t *testing.T) {
	src := Source{Data: pngBytes(t, makeSolidImage(64, 48, color.NRGBA{200, 30, 30, 255})), ContentType: "image/png"}
	opts := testOptions(64, 0.9)

	result, err := EncodeSource(src, opts)
	require.NoError(t, err)

	assert.Equal(t, TierPrimary, result.Tier)
	assert.Equal(t, PNG, result.Format)
	assert.Equal(t, 64, result.Width)
	assert.Equal(t, 48, result.Height)
	assert.True(t, strings.HasPrefix(result.DataURL, "data:image/png;base64,"))

	_, tiers := tierStrings(t, src, opts)
	assert.Equal(t, tiers[TierPrimary], result.DataURL, "accepted primary tier must be byte-identical to a direct encode")
}

func TestEncodeNeverUpscales(t *testing.T) {
	src := Source{Data: jpegBytes(t, makeTestImage(50, 40), 90), ContentType: "image/jpeg"}

	result, err := EncodeSource(src, testOptions(300, 0.8))
	require.NoError(t, err)
	assert.Equal(t, 50, result.Width)
	assert.Equal(t, 40, result.Height)
	assert.Equal(t, 50, result.NativeWidth)
}

func TestEncodePhotoScalesToMaxWidth(t *testing.T) {
	src := Source{Data: jpegBytes(t, makeTestImage(800, 600), 90), ContentType: "image/jpeg"}

	result, err := EncodeSource(src, testOptions(300, 0.8))
	require.NoError(t, err)
	assert.Equal(t, TierPrimary, result.Tier)
	assert.Equal(t, JPEG, result.Format)
	assert.Equal(t, 0.8, result.Quality)
	assert.Equal(t, 300, result.Width)
	assert.Equal(t, 225, result.Height)

	payload, err := result.Payload()
	require.NoError(t, err)
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, 300, cfg.Width)
	assert.Equal(t, 225, cfg.Height)
}

func TestEncodeNonPNGSourceBecomesJPEG(t *testing.T) {
	img := makeSolidImage(40, 40, color.NRGBA{10, 20, 30, 255})
	// A PNG payload declared as GIF still takes the lossy path.
	src := Source{Data: pngBytes(t, img), ContentType: "image/gif"}

	result, err := EncodeSource(src, testOptions(100, 0.7))
	require.NoError(t, err)
	assert.Equal(t, JPEG, result.Format)
	assert.True(t, strings.HasPrefix(result.DataURL, "data:image/jpeg;base64,"))
}

func TestEncodeQualityOutOfRangeUsesDefault(t *testing.T) {
	src := Source{Data: jpegBytes(t, makeTestImage(60, 60), 90), ContentType: "image/jpeg"}

	for _, q := range []float64{-0.1, 1.5} {
		result, err := EncodeSource(src, testOptions(100, q))
		require.NoError(t, err)
		assert.Equal(t, DefaultQuality, result.Quality)
	}
}

// ── Escalation with real encodings ──────────────────────────────────────────

func TestEncodeEscalatesToLossy(t *testing.T) {
	src := Source{Data: pngBytes(t, makeNoiseImage(200, 150, 1)), ContentType: "image/jpeg"}
	opts := testOptions(300, 0.95)

	plan, tiers := tierStrings(t, src, opts)
	require.Less(t, len(tiers[TierLossy]), len(tiers[TierPrimary]))

	opts.Budget = Budget{Soft: len(tiers[TierLossy]), Hard: len(tiers[TierPrimary]) + 1000}
	result, err := EncodeSource(src, opts)
	require.NoError(t, err)

	assert.Equal(t, TierLossy, result.Tier)
	assert.Equal(t, JPEG, result.Format)
	assert.Equal(t, 0.5, result.Quality, "lossy tier ignores the requested quality")
	assert.Equal(t, plan[TierPrimary].Width, result.Width)
	assert.Equal(t, plan[TierPrimary].Height, result.Height)
	assert.Equal(t, tiers[TierLossy], result.DataURL)
}

func TestEncodeEscalatesToReduced(t *testing.T) {
	src := Source{Data: pngBytes(t, makeNoiseImage(200, 150, 2)), ContentType: "image/jpeg"}
	opts := testOptions(300, 0.95)

	_, tiers := tierStrings(t, src, opts)
	require.Less(t, len(tiers[TierReduced]), len(tiers[TierLossy]))
	require.Less(t, len(tiers[TierLossy]), len(tiers[TierPrimary]))

	opts.Budget = Budget{Soft: len(tiers[TierLossy]) - 1, Hard: len(tiers[TierLossy])}
	var attempts []Attempt
	opts.OnAttempt = func(a Attempt) { attempts = append(attempts, a) }

	result, err := EncodeSource(src, opts)
	require.NoError(t, err)

	assert.Equal(t, TierReduced, result.Tier)
	assert.Equal(t, 120, result.Width)
	assert.Equal(t, 90, result.Height)
	assert.Equal(t, 0.5, result.Quality)
	assert.Equal(t, tiers[TierReduced], result.DataURL)

	require.Len(t, attempts, 3)
	for i, a := range attempts {
		assert.Equal(t, Tier(i), a.Tier, "tiers run strictly in order")
		assert.Equal(t, len(tiers[i]), a.Length)
	}
}

func TestEncodeSizeExceeded(t *testing.T) {
	src := Source{Data: pngBytes(t, makeNoiseImage(120, 90, 3)), ContentType: "image/png"}
	opts := testOptions(300, 0.9)
	opts.Budget = Budget{Soft: 10, Hard: 20}
	var attempts int
	opts.OnAttempt = func(Attempt) { attempts++ }

	result, err := EncodeSource(src, opts)
	assert.Nil(t, result)
	require.Error(t, err)

	var sizeErr *SizeExceededError
	require.ErrorAs(t, err, &sizeErr)
	assert.Equal(t, TierReduced, sizeErr.Tier)
	assert.Equal(t, 20, sizeErr.Limit)
	assert.GreaterOrEqual(t, sizeErr.Length, 20)
	assert.True(t, IsSizeExceeded(err))
	assert.False(t, IsDecodeError(err))
	assert.Equal(t, 3, attempts, "no tier beyond the reduced one")
}

func TestEncodeResultBelowHardLimit(t *testing.T) {
	src := Source{Data: pngBytes(t, makeNoiseImage(160, 120, 4)), ContentType: "image/png"}
	_, tiers := tierStrings(t, src, testOptions(300, 0.9))

	for _, l := range tiers {
		for _, delta := range []int{-1, 0, 1} {
			opts := testOptions(300, 0.9)
			opts.Budget = Budget{Soft: len(l) + delta - 500, Hard: len(l) + delta}
			result, err := EncodeSource(src, opts)
			if err != nil {
				assert.True(t, IsSizeExceeded(err), "unexpected error kind: %v", err)
				continue
			}
			assert.Less(t, result.Len(), opts.Budget.Hard)
		}
	}
}

func TestEncodeAlpha(t *testing.T) {
	img := makeTestImageWithAlpha(80, 60)
	src := Source{Data: pngBytes(t, img), ContentType: "image/png"}

	kept, err := EncodeSource(src, testOptions(300, 0.9))
	require.NoError(t, err)
	assert.Equal(t, PNG, kept.Format)
	assert.False(t, kept.AlphaDropped)

	payload, err := kept.Payload()
	require.NoError(t, err)
	decoded, err := png.Decode(bytes.NewReader(payload))
	require.NoError(t, err)
	_, _, _, a := decoded.At(0, 0).RGBA()
	assert.Equal(t, uint32(0), a, "left column is fully transparent")

	_, tiers := tierStrings(t, src, testOptions(300, 0.9))
	opts := testOptions(300, 0.9)
	opts.Budget = Budget{Soft: len(tiers[TierPrimary]) - 1, Hard: len(tiers[TierPrimary]) + 100000}
	flattened, err := EncodeSource(src, opts)
	require.NoError(t, err)
	assert.Equal(t, JPEG, flattened.Format)
	assert.True(t, flattened.AlphaDropped)
}

// ── Failures ────────────────────────────────────────────────────────────────

func TestEncodeDecodeError(t *testing.T) {
	_, err := Encode([]byte("definitely not an image"), "image/png", 300, 0.9)
	require.Error(t, err)

	var decErr *DecodeError
	require.ErrorAs(t, err, &decErr)
	assert.Equal(t, "image/png", decErr.ContentType)
	assert.True(t, IsDecodeError(err))
	assert.False(t, IsSizeExceeded(err))

	_, err = Encode(nil, "", 300, 0.9)
	assert.True(t, IsDecodeError(err))
}

func TestEncodeCanvasError(t *testing.T) {
	// 10000x1 scaled to 300 wide rounds to a zero-height surface.
	src := Source{Data: pngBytes(t, makeSolidImage(10000, 1, color.NRGBA{0, 0, 0, 255})), ContentType: "image/png"}

	_, err := EncodeSource(src, testOptions(300, 0.9))
	require.Error(t, err)

	var canvasErr *CanvasError
	require.ErrorAs(t, err, &canvasErr)
	assert.Equal(t, 300, canvasErr.Width)
	assert.Equal(t, 0, canvasErr.Height)
	assert.True(t, IsCanvasError(err))
}

func TestEncodeInvalidArguments(t *testing.T) {
	data := pngBytes(t, makeSolidImage(10, 10, color.NRGBA{1, 2, 3, 255}))

	_, err := Encode(data, "image/png", 0, 0.9)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	opts := testOptions(100, 0.9)
	opts.Budget = Budget{Soft: 500, Hard: 500}
	_, err = EncodeSource(Source{Data: data, ContentType: "image/png"}, opts)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	opts.Budget = Budget{Soft: -1, Hard: 10}
	_, err = EncodeSource(Source{Data: data, ContentType: "image/png"}, opts)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

// ── Determinism and concurrency ─────────────────────────────────────────────

func TestEncodeDeterministic(t *testing.T) {
	src := Source{Data: pngBytes(t, makeNoiseImage(150, 100, 5)), ContentType: "image/jpeg"}

	for _, f := range []Filter{Lanczos, CatmullRom, BiLinear, NearestNeighbor, Mitchell} {
		opts := testOptions(90, 0.8)
		opts.Filter = f

		first, err := EncodeSource(src, opts)
		require.NoError(t, err)
		second, err := EncodeSource(src, opts)
		require.NoError(t, err)

		assert.Equal(t, first.DataURL, second.DataURL, "filter %s", f)
		assert.Equal(t, first.Fingerprint(), second.Fingerprint())
	}
}

func TestEncodeConcurrentCallsShareNothing(t *testing.T) {
	photo := Source{Data: jpegBytes(t, makeTestImage(320, 240), 90), ContentType: "image/jpeg"}
	logo := Source{Data: pngBytes(t, makeTestImageWithAlpha(100, 100)), ContentType: "image/png"}

	wantPhoto, err := EncodeSource(photo, testOptions(200, 0.8))
	require.NoError(t, err)
	wantLogo, err := EncodeSource(logo, testOptions(64, 0.8))
	require.NoError(t, err)

	const n = 8
	var wg sync.WaitGroup
	got := make([]string, 2*n)
	errs := make([]error, 2*n)
	for i := 0; i < n; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			r, err := EncodeSource(photo, testOptions(200, 0.8))
			if r != nil {
				got[2*i] = r.DataURL
			}
			errs[2*i] = err
		}()
		go func() {
			defer wg.Done()
			r, err := EncodeSource(logo, testOptions(64, 0.8))
			if r != nil {
				got[2*i+1] = r.DataURL
			}
			errs[2*i+1] = err
		}()
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[2*i])
		require.NoError(t, errs[2*i+1])
		assert.Equal(t, wantPhoto.DataURL, got[2*i])
		assert.Equal(t, wantLogo.DataURL, got[2*i+1])
	}
}

// ── Result ──────────────────────────────────────────────────────────────────

func TestResultWriteTo(t *testing.T) {
	result, err := Encode(pngBytes(t, makeTestImage(30, 30)), "image/png", 300, 0.9)
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := result.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(result.Len()), n)
	assert.Equal(t, result.DataURL, buf.String())

	_, err = (&Result{}).WriteTo(&buf)
	assert.Error(t, err)
}

func TestResultString(t *testing.T) {
	r := &Result{
		DataURL:      "data:image/jpeg;base64,AAAA",
		Format:       JPEG,
		Quality:      0.5,
		Width:        180,
		Height:       135,
		Tier:         TierReduced,
		NativeWidth:  4000,
		NativeHeight: 3000,
	}
	s := r.String()
	assert.Contains(t, s, "JPEG")
	assert.Contains(t, s, "Q=0.50")
	assert.Contains(t, s, "4000x3000 → 180x135")
	assert.Contains(t, s, "tier reduced")
}

func TestTierAndFormatStrings(t *testing.T) {
	assert.Equal(t, "primary", TierPrimary.String())
	assert.Equal(t, "lossy", TierLossy.String())
	assert.Equal(t, "reduced", TierReduced.String())
	assert.Equal(t, "tier(7)", Tier(7).String())
	assert.Equal(t, "image/png", PNG.MIMEType())
	assert.Equal(t, "image/jpeg", JPEG.MIMEType())
}

func TestParseFilter(t *testing.T) {
	for _, f := range []Filter{Lanczos, CatmullRom, BiLinear, NearestNeighbor, Mitchell} {
		got, err := ParseFilter(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
	_, err := ParseFilter("sinc")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
