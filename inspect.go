package embedimg

// Inspection describes a source and the tiers an encode would try, without
// encoding anything.
type Inspection struct {
	// NativeWidth and NativeHeight are post-orientation dimensions.
	NativeWidth, NativeHeight int

	// Codec is the sniffed codec name.
	Codec string

	// ContentType is the declared content type as given.
	ContentType string

	// HasAlpha indicates some pixel is not fully opaque.
	HasAlpha bool

	// Orientation is the EXIF orientation found in the source.
	Orientation Orientation

	// Tiers lists the primary, lossy and reduced specs in order.
	Tiers [3]TierSpec
}

// PreservesAlpha reports whether the primary tier can keep transparency.
// The fallback tiers never do.
func (in *Inspection) PreservesAlpha() bool {
	return in.HasAlpha && in.Tiers[TierPrimary].Format.lossless()
}

// Inspect decodes src and reports the tier plan opts would produce.
func Inspect(src Source, opts Options) (*Inspection, error) {
	opts, err := opts.normalized()
	if err != nil {
		return nil, err
	}
	raster, err := Decode(src, !opts.IgnoreOrientation, opts.MaxSurfacePixels)
	if err != nil {
		return nil, err
	}

	primary := declaredFormat(src.ContentType)
	return &Inspection{
		NativeWidth:  raster.Width(),
		NativeHeight: raster.Height(),
		Codec:        raster.Codec(),
		ContentType:  src.ContentType,
		HasAlpha:     raster.HasAlpha(),
		Orientation:  raster.Orientation(),
		Tiers:        planTiers(raster.Width(), raster.Height(), opts.MaxWidth, primary, opts.Quality),
	}, nil
}
