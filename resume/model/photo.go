package model

import (
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// MaxPhotoBytes is the largest decoded photo accepted.
const MaxPhotoBytes = 2 << 20

// PhotoPattern is the accepted shape of the photo data URL.
var PhotoPattern = regexp.MustCompile(`^data:image/[\w.+-]+;base64,[A-Za-z0-9+/=]+$`)

var (
	ErrPhotoFormat   = errors.New("photo must be a data:image/<type>;base64 URL")
	ErrPhotoEncoding = errors.New("photo payload is not valid base64")
	ErrPhotoTooLarge = fmt.Errorf("photo exceeds %d bytes", MaxPhotoBytes)
)

// Photo is a decoded photo data URL.
type Photo struct {
	Subtype string
	Data    []byte
}

// MIMEType returns image/<subtype>.
func (p Photo) MIMEType() string {
	return "image/" + p.Subtype
}

// ParsePhoto validates and decodes a data URL. The encoded length is checked
// before decoding so oversized payloads are never materialized.
func ParsePhoto(dataURL string) (Photo, error) {
	if !PhotoPattern.MatchString(dataURL) {
		return Photo{}, ErrPhotoFormat
	}
	comma := strings.IndexByte(dataURL, ',')
	header, payload := dataURL[:comma], dataURL[comma+1:]
	subtype := strings.ToLower(strings.TrimSuffix(strings.TrimPrefix(header, "data:image/"), ";base64"))

	if base64.StdEncoding.DecodedLen(len(payload))-2 > MaxPhotoBytes {
		return Photo{}, ErrPhotoTooLarge
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Photo{}, ErrPhotoEncoding
	}
	if len(data) > MaxPhotoBytes {
		return Photo{}, ErrPhotoTooLarge
	}
	return Photo{Subtype: subtype, Data: data}, nil
}

// PhotoDataURL encodes raw image bytes as a data URL.
func PhotoDataURL(subtype string, data []byte) string {
	return "data:image/" + subtype + ";base64," + base64.StdEncoding.EncodeToString(data)
}
