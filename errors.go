package embedimg

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrInvalidArgument is wrapped by every error returned for bad options,
// before any decoding starts.
var ErrInvalidArgument = errors.New("embedimg: invalid argument")

// DecodeError reports that the input could not be interpreted as an image.
// It is never retried.
type DecodeError struct {
	// ContentType is the caller's declared content type, possibly empty.
	ContentType string
	// Err is the underlying cause.
	Err error
}

func (e *DecodeError) Error() string {
	if e.ContentType == "" {
		return fmt.Sprintf("embedimg: decode: %v", e.Err)
	}
	return fmt.Sprintf("embedimg: decode %s: %v", e.ContentType, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// CanvasError reports that a drawing surface could not be allocated or used.
type CanvasError struct {
	Width  int
	Height int
	Err    error
}

func (e *CanvasError) Error() string {
	return fmt.Sprintf("embedimg: surface %dx%d: %v", e.Width, e.Height, e.Err)
}

func (e *CanvasError) Unwrap() error { return e.Err }

// SizeExceededError reports that the last tier's encoding still reached the
// hard limit. It carries no encoded data.
type SizeExceededError struct {
	// Length is the character count of the rejected candidate.
	Length int
	// Limit is the hard limit it failed.
	Limit int
	// Tier is the tier that produced the rejected candidate.
	Tier Tier
}

func (e *SizeExceededError) Error() string {
	return fmt.Sprintf("embedimg: encoded image is %d chars at tier %s, limit is %d", e.Length, e.Tier, e.Limit)
}

// IsDecodeError reports whether err is, or wraps, a *DecodeError.
func IsDecodeError(err error) bool {
	var target *DecodeError
	return errors.As(err, &target)
}

// IsCanvasError reports whether err is, or wraps, a *CanvasError.
func IsCanvasError(err error) bool {
	var target *CanvasError
	return errors.As(err, &target)
}

// IsSizeExceeded reports whether err is, or wraps, a *SizeExceededError.
func IsSizeExceeded(err error) bool {
	var target *SizeExceededError
	return errors.As(err, &target)
}
