// Package imaging normalizes attachment images before storage: large
// images are scaled down and everything is re-encoded as JPEG.
package imaging

import (
	"bytes"
	"image"
	"image/jpeg"
	_ "image/png"

	pkgerrors "maxnotes/pkg/errors"

	"golang.org/x/image/draw"
)

const (
	// DefaultMaxDimension bounds the longer image side after scaling
	DefaultMaxDimension = 1600
	// DefaultJPEGQuality is the re-encode quality
	DefaultJPEGQuality = 85
)

// Processor implements ports.AttachmentProcessor. Scaling preserves the
// aspect ratio; images already within bounds are only re-encoded.
type Processor struct {
	maxDimension int
	quality      int
}

// NewProcessor creates a processor with the default bounds
func NewProcessor() *Processor {
	return &Processor{
		maxDimension: DefaultMaxDimension,
		quality:      DefaultJPEGQuality,
	}
}

// NewProcessorWithBounds creates a processor with explicit bounds
func NewProcessorWithBounds(maxDimension, quality int) *Processor {
	return &Processor{maxDimension: maxDimension, quality: quality}
}

// Compress decodes the image, scales it to fit the bounding dimension and
// re-encodes it as JPEG. Input that is not a decodable image is a decode
// error; the caller's previous state must stay untouched.
func (p *Processor) Compress(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, pkgerrors.NewDecodeError("data is not a decodable image", err)
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, pkgerrors.NewDecodeError("image has empty bounds", nil)
	}

	targetW, targetH := fitWithin(width, height, p.maxDimension)
	if targetW != width || targetH != height {
		dst := image.NewRGBA(image.Rect(0, 0, targetW, targetH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
		src = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: p.quality}); err != nil {
		return nil, pkgerrors.NewWriteError("encode attachment", err)
	}
	return buf.Bytes(), nil
}

// fitWithin scales dimensions so the longer side equals max, never
// upscaling
func fitWithin(width, height, max int) (int, int) {
	longer := width
	if height > longer {
		longer = height
	}
	if longer <= max {
		return width, height
	}

	scale := float64(max) / float64(longer)
	targetW := int(float64(width) * scale)
	targetH := int(float64(height) * scale)
	if targetW < 1 {
		targetW = 1
	}
	if targetH < 1 {
		targetH = 1
	}
	return targetW, targetH
}
