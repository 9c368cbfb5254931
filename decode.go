package embedimg

import (
	"bytes"
	"fmt"
	"image"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	// Register decoders for every format an upload may arrive in.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Source is a caller-owned image payload plus its declared content type
// (for example "image/png"). The content type decides the primary tier's
// format; decoding itself sniffs the payload.
type Source struct {
	Data        []byte
	ContentType string
}

// SourceFromFile reads path and derives a content type from its extension,
// falling back to sniffing the first 512 bytes.
func SourceFromFile(path string) (Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Source{}, errors.Wrapf(err, "embedimg: read %q", path)
	}
	ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if ct == "" {
		ct = http.DetectContentType(data)
	}
	return Source{Data: data, ContentType: ct}, nil
}

// mediaType strips parameters and normalizes case: "Image/PNG; x=y" → "image/png".
func mediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return mt
}

// declaredFormat picks the primary tier's format. Only a declared PNG keeps its
// format; anything else, including a missing or unparseable content type, is
// encoded as JPEG. The sniffed codec never overrides the declaration.
func declaredFormat(contentType string) Format {
	if mediaType(contentType) == "image/png" {
		return PNG
	}
	return JPEG
}

// Raster is a decoded, orientation-corrected image. It belongs to a single
// encode and is never shared.
type Raster struct {
	img         *image.NRGBA
	codec       string
	orientation Orientation
	opaque      bool
}

// Width is the native (post-orientation) width.
func (r *Raster) Width() int { return r.img.Bounds().Dx() }

// Height is the native (post-orientation) height.
func (r *Raster) Height() int { return r.img.Bounds().Dy() }

// Codec is the sniffed codec name, e.g. "jpeg", "png", "gif", "webp", "bmp".
func (r *Raster) Codec() string { return r.codec }

// Orientation is the EXIF orientation found in the source (OrientNormal if none).
func (r *Raster) Orientation() Orientation { return r.orientation }

// HasAlpha reports whether any pixel is not fully opaque.
func (r *Raster) HasAlpha() bool { return !r.opaque }

// Image exposes the decoded pixels. Callers must not modify them.
func (r *Raster) Image() *image.NRGBA { return r.img }

// PendingRaster is an in-flight decode. It completes exactly once.
type PendingRaster struct {
	done   chan struct{}
	raster *Raster
	err    error
}

// DecodeAsync starts decoding src and returns immediately. The decode cannot
// be cancelled; call Wait for its single completion. Sources whose header
// declares more than maxPixels pixels (0 means DefaultMaxSurfacePixels) fail
// with a *DecodeError before any pixel data is decoded.
func DecodeAsync(src Source, autoOrient bool, maxPixels int) *PendingRaster {
	p := &PendingRaster{done: make(chan struct{})}
	go func() {
		defer close(p.done)
		defer func() {
			if v := recover(); v != nil {
				p.raster = nil
				p.err = &DecodeError{ContentType: src.ContentType, Err: fmt.Errorf("decoder panic: %v", v)}
			}
		}()
		p.raster, p.err = decode(src, autoOrient, maxPixels)
	}()
	return p
}

// Done is closed once the decode has completed.
func (p *PendingRaster) Done() <-chan struct{} { return p.done }

// Wait blocks until the decode completes and returns its outcome. It may be
// called any number of times and always returns the same values.
func (p *PendingRaster) Wait() (*Raster, error) {
	<-p.done
	return p.raster, p.err
}

// Decode decodes src synchronously.
func Decode(src Source, autoOrient bool, maxPixels int) (*Raster, error) {
	return DecodeAsync(src, autoOrient, maxPixels).Wait()
}

func decode(src Source, autoOrient bool, maxPixels int) (*Raster, error) {
	if len(src.Data) == 0 {
		return nil, &DecodeError{ContentType: src.ContentType, Err: errors.New("empty payload")}
	}
	if maxPixels <= 0 {
		maxPixels = DefaultMaxSurfacePixels
	}

	// Reject oversized images from the header alone.
	cfg, _, err := image.DecodeConfig(bytes.NewReader(src.Data))
	if err != nil {
		return nil, &DecodeError{ContentType: src.ContentType, Err: err}
	}
	if cfg.Width > 0 && cfg.Height > 0 && int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return nil, &DecodeError{
			ContentType: src.ContentType,
			Err:         fmt.Errorf("image is %dx%d, exceeds %d pixels", cfg.Width, cfg.Height, maxPixels),
		}
	}

	img, codec, err := image.Decode(bytes.NewReader(src.Data))
	if err != nil {
		return nil, &DecodeError{ContentType: src.ContentType, Err: err}
	}

	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, &DecodeError{
			ContentType: src.ContentType,
			Err:         fmt.Errorf("empty image (%dx%d)", bounds.Dx(), bounds.Dy()),
		}
	}

	nrgba := toNRGBA(img)
	orient := OrientNormal
	if codec == "jpeg" {
		orient = orientationFromJPEG(src.Data)
	}
	if autoOrient && orient > OrientNormal {
		nrgba = ApplyOrientation(nrgba, orient)
	}

	return &Raster{
		img:         nrgba,
		codec:       codec,
		orientation: orient,
		opaque:      opaquePix(nrgba.Pix),
	}, nil
}
