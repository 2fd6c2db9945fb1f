package domain

import (
	"context"
)

// FileRepository defines the interface for photo storage
type FileRepository interface {
	// Upload saves a file and returns its access URL
	Upload(ctx context.Context, file []byte, key string, contentType string) (string, error)
}

// SniffImageType detects the MIME type and file extension of an image from its header bytes.
// Unknown payloads are reported as JPEG, matching what browsers upload by default.
func SniffImageType(data []byte) (contentType, ext string) {
	switch {
	case len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF:
		return "image/jpeg", "jpg"
	case len(data) >= 4 && data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47:
		return "image/png", "png"
	case len(data) >= 3 && data[0] == 0x47 && data[1] == 0x49 && data[2] == 0x46:
		return "image/gif", "gif"
	case len(data) >= 2 && data[0] == 0x42 && data[1] == 0x4D:
		return "image/bmp", "bmp"
	case len(data) >= 12 && data[0] == 0x52 && data[1] == 0x49 && data[2] == 0x46 && data[3] == 0x46 &&
		data[8] == 0x57 && data[9] == 0x45 && data[10] == 0x42 && data[11] == 0x50:
		return "image/webp", "webp"
	default:
		return "image/jpeg", "jpg"
	}
}
