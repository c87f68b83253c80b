package services

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"regexp"
	"strings"
)

var dataURLPrefix = regexp.MustCompile(`^data:([a-zA-Z0-9.+/-]+);base64,`)

// ImageData is a decoded reference image.
type ImageData struct {
	MIMEType string
	Data     []byte
}

// ParseImage accepts a `data:<mime>;base64,<payload>` URL or a bare base64 payload.
// Only PNG and JPEG are accepted; the declared MIME type is checked against the bytes when they are recognizable.
func ParseImage(raw string) (ImageData, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ImageData{}, fmt.Errorf("empty image")
	}
	declared := ""
	payload := raw
	if m := dataURLPrefix.FindStringSubmatch(raw); m != nil {
		declared = strings.ToLower(m[1])
		payload = raw[len(m[0]):]
	} else if strings.HasPrefix(raw, "data:") {
		return ImageData{}, fmt.Errorf("unsupported data URL, expected base64 payload")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return ImageData{}, fmt.Errorf("invalid base64 image: %w", err)
		}
	}

	mimeType := declared
	if sniffed := http.DetectContentType(data); sniffed == "image/png" || sniffed == "image/jpeg" {
		mimeType = sniffed
	}
	switch mimeType {
	case "image/png", "image/jpeg":
	case "image/jpg", "":
		mimeType = "image/jpeg"
	default:
		return ImageData{}, fmt.Errorf("unsupported image type %s, expected PNG or JPEG", mimeType)
	}
	return ImageData{MIMEType: mimeType, Data: data}, nil
}

// DataURL renders the image back into a data URL.
func (img ImageData) DataURL() string {
	return ToDataURL(img.MIMEType, img.Data)
}

func ToDataURL(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}

// IsDataURL reports whether s carries inline image bytes rather than a link.
func IsDataURL(s string) bool {
	return strings.HasPrefix(s, "data:image")
}
