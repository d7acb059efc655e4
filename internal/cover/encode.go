package cover

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"

	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"golang.org/x/image/draw"

	"github.com/desertthunder/discog/internal/shared"
)

const (
	// MaxUploadSize is the largest base64-encoded cover the playlist image endpoint accepts.
	MaxUploadSize = 256 * 1024

	DefaultSize = 640

	maxQuality  = 90
	minQuality  = 30
	qualityStep = 10
)

// Encode decodes data, crops the center square, scales it to size x size and returns JPEG bytes
// whose base64 form fits in [MaxUploadSize]. Quality is lowered step by step until it fits.
func Encode(data []byte, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultSize
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("error decoding image: %w", err)
	}

	dst := Square(src, size)

	var buf bytes.Buffer
	for quality := maxQuality; quality >= minQuality; quality -= qualityStep {
		buf.Reset()
		if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("encoding image: %w", err)
		}
		if base64.StdEncoding.EncodedLen(buf.Len()) <= MaxUploadSize {
			return buf.Bytes(), nil
		}
	}

	return nil, fmt.Errorf("%w: %d bytes at quality %d", shared.ErrImageTooLarge, buf.Len(), minQuality)
}

// Square crops the largest centered square from src and scales it to size x size on a white background.
func Square(src image.Image, size int) *image.RGBA {
	b := src.Bounds()
	side := min(b.Dx(), b.Dy())
	x0 := b.Min.X + (b.Dx()-side)/2
	y0 := b.Min.Y + (b.Dy()-side)/2
	crop := image.Rect(x0, y0, x0+side, y0+side)

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, draw.Over, nil)

	return dst
}
