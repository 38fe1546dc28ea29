// Package legacytile holds conventional image-format tile encoders (JPEG,
// PNG, WebP, Terrarium-PNG) for colored imagery output. The core of this
// module never touches these: web-tile serving (internal/webtile) and the
// wire format (internal/rastertile) work on typed pixel arrays, not images.
// This package is the renderer behind provider.ColoredTile, the
// debug-dump/human-preview path §1 carves out of the core's scope ("PNG
// encoding used only for debug dumps").
package legacytile

import (
	"fmt"
	"image"
)

// Encoder encodes an image into tile bytes for one conventional format.
type Encoder interface {
	// Encode encodes an image to bytes in the tile format.
	Encode(img image.Image) ([]byte, error)

	// Format returns the format name (e.g. "jpeg", "png", "webp").
	Format() string

	// FileExtension returns the appropriate file extension.
	FileExtension() string
}

// NewEncoder creates an encoder for the given format and quality.
func NewEncoder(format string, quality int) (Encoder, error) {
	switch format {
	case "jpeg", "jpg":
		return &JPEGEncoder{Quality: quality}, nil
	case "png":
		return &PNGEncoder{}, nil
	case "webp":
		return newWebPEncoder(quality)
	case "terrarium":
		return &TerrariumEncoder{}, nil
	default:
		return nil, fmt.Errorf("unsupported tile format: %q (supported: jpeg, png, webp, terrarium)", format)
	}
}
