// Package thumbnail renders the fixed-size JPEG previews stored next to
// every upload.
package thumbnail

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	"github.com/disintegration/gift"
)

const (
	Width       = 300
	Height      = 300
	JPEGQuality = 80

	MaxImageWidth  = 10000
	MaxImageHeight = 10000
)

var ErrThumbnail = errors.New("thumbnail: cannot render image")

// Make decodes a JPEG or PNG, scales and center-crops it to cover
// Width x Height and encodes the result as JPEG.
func Make(src []byte) ([]byte, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrThumbnail, err)
	}
	if cfg.Width > MaxImageWidth || cfg.Height > MaxImageHeight {
		return nil, fmt.Errorf("%w: image too large (%dx%d)", ErrThumbnail, cfg.Width, cfg.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrThumbnail, err)
	}

	g := gift.New(gift.ResizeToFill(Width, Height, gift.LanczosResampling, gift.CenterAnchor))
	dst := image.NewRGBA(g.Bounds(img.Bounds()))
	g.Draw(dst, img)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrThumbnail, err)
	}
	return buf.Bytes(), nil
}
