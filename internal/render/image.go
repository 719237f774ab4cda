package render

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

// splitDataURI separates an optional "data:<mime>;base64," prefix from the
// payload. mime is empty when there is no prefix.
func splitDataURI(image string) (mime, payload string) {
	if !strings.HasPrefix(image, "data:") {
		return "", image
	}
	comma := strings.Index(image, ",")
	if comma < 0 {
		return "", image
	}
	header := strings.TrimPrefix(image[:comma], "data:")
	header = strings.TrimSuffix(header, ";base64")
	return header, image[comma+1:]
}

// decodeImage returns the image bytes and the fpdf image type.
func decodeImage(image string) ([]byte, string, error) {
	_, payload := splitDataURI(image)
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return nil, "", fmt.Errorf("decode base64 image: %w", err)
	}

	switch mime := http.DetectContentType(data); mime {
	case "image/png":
		return data, "png", nil
	case "image/jpeg":
		return data, "jpg", nil
	case "image/gif":
		return data, "gif", nil
	default:
		return nil, "", fmt.Errorf("unsupported image type %s", mime)
	}
}

// dataURI returns image as a data URI, adding a prefix when it is bare base64.
func dataURI(image string) string {
	if strings.HasPrefix(image, "data:") {
		return image
	}
	mime := "image/png"
	if data, err := base64.StdEncoding.DecodeString(image); err == nil {
		if sniffed := http.DetectContentType(data); strings.HasPrefix(sniffed, "image/") {
			mime = sniffed
		}
	}
	return "data:" + mime + ";base64," + image
}
