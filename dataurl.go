package embedimg

import (
	"encoding/base64"
	"strings"

	"github.com/pkg/errors"
)

// BuildDataURL constructs a base64 data URL from a media type and raw bytes.
func BuildDataURL(mimeType string, raw []byte) string {
	prefix := "data:" + mimeType + ";base64,"
	var sb strings.Builder
	sb.Grow(len(prefix) + base64.StdEncoding.EncodedLen(len(raw)))
	sb.WriteString(prefix)
	sb.WriteString(base64.StdEncoding.EncodeToString(raw))
	return sb.String()
}

// ParseDataURL splits a base64 data URL into its media type and decoded bytes.
func ParseDataURL(dataURL string) (mimeType string, raw []byte, err error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return "", nil, errors.New("embedimg: not a data URL: missing 'data:' prefix")
	}

	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, errors.New("embedimg: invalid data URL: missing comma separator")
	}

	mimeType, ok = strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, errors.New("embedimg: invalid data URL: missing ';base64' marker")
	}
	if mimeType == "" {
		return "", nil, errors.New("embedimg: invalid data URL: empty media type")
	}

	raw, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, errors.Wrap(err, "embedimg: invalid data URL payload")
	}
	return mimeType, raw, nil
}
