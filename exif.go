package embedimg

import (
	"encoding/binary"
	"image"
)

// Orientation is an EXIF orientation tag value.
type Orientation int

const (
	OrientNormal      Orientation = 1
	OrientFlipH       Orientation = 2
	OrientRotate180   Orientation = 3
	OrientFlipV       Orientation = 4
	OrientTranspose   Orientation = 5 // mirror across the main diagonal
	OrientRotate90CW  Orientation = 6
	OrientTransverse  Orientation = 7 // mirror across the anti-diagonal
	OrientRotate270CW Orientation = 8
)

// String returns the tag value and its meaning.
func (o Orientation) String() string {
	switch o {
	case OrientFlipH:
		return "2 (flip horizontal)"
	case OrientRotate180:
		return "3 (rotate 180)"
	case OrientFlipV:
		return "4 (flip vertical)"
	case OrientTranspose:
		return "5 (transpose)"
	case OrientRotate90CW:
		return "6 (rotate 90 CW)"
	case OrientTransverse:
		return "7 (transverse)"
	case OrientRotate270CW:
		return "8 (rotate 270 CW)"
	default:
		return "1 (normal)"
	}
}

// orientationFromJPEG scans the JPEG marker segments in data for an APP1 Exif
// block and returns its orientation tag. Anything malformed or missing yields
// OrientNormal; orientation never causes a decode failure.
func orientationFromJPEG(data []byte) Orientation {
	if len(data) < 4 || data[0] != 0xFF || data[1] != 0xD8 {
		return OrientNormal
	}

	pos := 2
	for pos+4 <= len(data) {
		if data[pos] != 0xFF {
			return OrientNormal
		}
		marker := data[pos+1]
		if marker == 0xFF { // fill byte
			pos++
			continue
		}
		// Start of scan: metadata segments are all behind us.
		if marker == 0xDA {
			return OrientNormal
		}

		segLen := int(binary.BigEndian.Uint16(data[pos+2 : pos+4]))
		if segLen < 2 || pos+2+segLen > len(data) {
			return OrientNormal
		}
		body := data[pos+4 : pos+2+segLen]
		if marker == 0xE1 {
			if o, ok := parseExifOrientation(body); ok {
				return o
			}
		}
		pos += 2 + segLen
	}
	return OrientNormal
}

// parseExifOrientation reads tag 0x0112 from IFD0 of an APP1 body. ok is false
// when body is not an Exif block (XMP also lives in APP1).
func parseExifOrientation(body []byte) (Orientation, bool) {
	if len(body) < 14 || string(body[:4]) != "Exif" || body[4] != 0 || body[5] != 0 {
		return OrientNormal, false
	}
	tiff := body[6:]

	var bo binary.ByteOrder
	switch string(tiff[:2]) {
	case "II":
		bo = binary.LittleEndian
	case "MM":
		bo = binary.BigEndian
	default:
		return OrientNormal, true
	}
	if bo.Uint16(tiff[2:4]) != 42 {
		return OrientNormal, true
	}

	ifd := int(bo.Uint32(tiff[4:8]))
	if ifd < 8 || ifd+2 > len(tiff) {
		return OrientNormal, true
	}
	count := int(bo.Uint16(tiff[ifd : ifd+2]))
	ifd += 2

	for i := 0; i < count; i++ {
		off := ifd + i*12
		if off+12 > len(tiff) {
			break
		}
		if bo.Uint16(tiff[off:off+2]) != 0x0112 {
			continue
		}
		if bo.Uint16(tiff[off+2:off+4]) != 3 { // SHORT
			return OrientNormal, true
		}
		val := Orientation(bo.Uint16(tiff[off+8 : off+10]))
		if val >= OrientNormal && val <= OrientRotate270CW {
			return val, true
		}
		return OrientNormal, true
	}
	return OrientNormal, true
}

// ApplyOrientation returns img transformed so that it displays upright.
// Orientations 5 through 8 swap width and height.
func ApplyOrientation(img *image.NRGBA, o Orientation) *image.NRGBA {
	if o <= OrientNormal || o > OrientRotate270CW {
		return img
	}
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	dw, dh := w, h
	if o >= OrientTranspose {
		dw, dh = h, w
	}

	dst := image.NewNRGBA(image.Rect(0, 0, dw, dh))
	for y := range h {
		src := img.Pix[y*img.Stride:]
		for x := range w {
			dx, dy := orientPoint(o, x, y, w, h)
			copy(dst.Pix[dy*dst.Stride+dx*4:][:4], src[x*4:x*4+4])
		}
	}
	return dst
}

// orientPoint maps source pixel (x, y) of a w×h image to its upright position.
func orientPoint(o Orientation, x, y, w, h int) (int, int) {
	switch o {
	case OrientFlipH:
		return w - 1 - x, y
	case OrientRotate180:
		return w - 1 - x, h - 1 - y
	case OrientFlipV:
		return x, h - 1 - y
	case OrientTranspose:
		return y, x
	case OrientRotate90CW:
		return h - 1 - y, x
	case OrientTransverse:
		return h - 1 - y, w - 1 - x
	case OrientRotate270CW:
		return y, w - 1 - x
	default:
		return x, y
	}
}
