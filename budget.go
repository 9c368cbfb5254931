package embedimg

import (
	"log/slog"
)

// controller walks the fixed tier sequence for one raster. It is not a
// search: at most three encodings happen, in order, and the hard limit is
// checked exactly once on whichever fallback candidate the sequence ends with.
type controller struct {
	enc       surfaceEncoder
	budget    Budget
	logger    *slog.Logger
	onAttempt func(Attempt)
}

func newController(opts Options) *controller {
	return &controller{
		enc:       rasterizer{filter: opts.Filter, maxPixels: opts.MaxSurfacePixels},
		budget:    opts.Budget,
		logger:    opts.Logger,
		onAttempt: opts.OnAttempt,
	}
}

func (c *controller) run(r *Raster, plan [3]TierSpec) (*Result, error) {
	primary, err := c.attempt(r, plan[TierPrimary])
	if err != nil {
		return nil, err
	}
	if len(primary) <= c.budget.Soft {
		return c.accept(r, plan[TierPrimary], primary), nil
	}

	spec := plan[TierLossy]
	candidate, err := c.attempt(r, spec)
	if err != nil {
		return nil, err
	}
	if len(candidate) > c.budget.Soft {
		spec = plan[TierReduced]
		candidate, err = c.attempt(r, spec)
		if err != nil {
			return nil, err
		}
	}

	if len(candidate) >= c.budget.Hard {
		c.logger.Warn("encoded image over hard limit",
			slog.String("tier", spec.Tier.String()),
			slog.Int("length", len(candidate)),
			slog.Int("limit", c.budget.Hard),
		)
		return nil, &SizeExceededError{Length: len(candidate), Limit: c.budget.Hard, Tier: spec.Tier}
	}
	return c.accept(r, spec, candidate), nil
}

// attempt fully materializes one tier before anything looks at its length.
func (c *controller) attempt(r *Raster, spec TierSpec) (string, error) {
	dataURL, err := c.enc.encode(r, spec)
	if err != nil {
		c.logger.Debug("attempt failed", slog.String("tier", spec.Tier.String()), slog.Any("error", err))
		return "", err
	}

	a := Attempt{
		Tier:    spec.Tier,
		Format:  spec.Format,
		Quality: spec.Quality,
		Width:   spec.Width,
		Height:  spec.Height,
		Length:  len(dataURL),
	}
	c.logger.Debug("attempt",
		slog.String("tier", a.Tier.String()),
		slog.String("format", a.Format.String()),
		slog.Float64("quality", a.Quality),
		slog.Int("width", a.Width),
		slog.Int("height", a.Height),
		slog.Int("length", a.Length),
		slog.Int("soft_limit", c.budget.Soft),
	)
	if c.onAttempt != nil {
		c.onAttempt(a)
	}
	return dataURL, nil
}

func (c *controller) accept(r *Raster, spec TierSpec, dataURL string) *Result {
	c.logger.Debug("accepted",
		slog.String("tier", spec.Tier.String()),
		slog.Int("length", len(dataURL)),
	)
	return &Result{
		DataURL:      dataURL,
		Format:       spec.Format,
		Quality:      spec.Quality,
		Width:        spec.Width,
		Height:       spec.Height,
		Tier:         spec.Tier,
		NativeWidth:  r.Width(),
		NativeHeight: r.Height(),
		AlphaDropped: r.HasAlpha() && !spec.Format.lossless(),
	}
}
