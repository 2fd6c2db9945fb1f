package analysis

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format
	_ "image/jpeg" // Register JPEG format
	_ "image/png"  // Register PNG format

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"  // Register BMP format
	_ "golang.org/x/image/webp" // Register WEBP format
)

// ErrDecodeFailure is returned when the payload cannot be rasterized
var ErrDecodeFailure = errors.New("image could not be decoded")

// LoadImage decodes an image blob and resamples it onto a size×size canvas.
// The aspect ratio is not preserved, so thresholds stay resolution independent.
func LoadImage(data []byte, size int) (*image.RGBA, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrDecodeFailure)
	}
	if size <= 0 {
		return nil, fmt.Errorf("%w: invalid target resolution %d", ErrDecodeFailure, size)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailure, err)
	}
	if src.Bounds().Empty() {
		return nil, fmt.Errorf("%w: zero-sized image", ErrDecodeFailure)
	}

	return Normalize(src, size), nil
}

// Normalize draws src scaled onto a new size×size RGBA canvas
func Normalize(src image.Image, size int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}
