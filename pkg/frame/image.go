package frame

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"golang.org/x/image/draw"
)

// FromRGB builds an image from a packed 8-bit RGB buffer, row-major, the
// layout of a continuous 3-channel capture Mat after BGR to RGB conversion.
func FromRGB(width, height int, buf []byte) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrBadBuffer, width, height)
	}
	if len(buf) != width*height*3 {
		return nil, fmt.Errorf("%w: got %d bytes for %dx%d", ErrBadBuffer, len(buf), width, height)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i, j := 0, 0; i < len(buf); i, j = i+3, j+4 {
		img.Pix[j] = buf[i]
		img.Pix[j+1] = buf[i+1]
		img.Pix[j+2] = buf[i+2]
		img.Pix[j+3] = 0xff
	}
	return img, nil
}

// DecodeJPEG decodes a JPEG payload into an image.
func DecodeJPEG(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("decode jpeg: empty payload")
	}
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode jpeg: %w", err)
	}
	return img, nil
}

// EncodeJPEG encodes img as JPEG at the given quality (1-100).
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Crop copies the part of img inside r. The rectangle is clipped to the
// image bounds first; nil is returned when nothing is left.
func Crop(img image.Image, r image.Rectangle) *image.RGBA {
	if img == nil {
		return nil
	}
	r = r.Canon().Intersect(img.Bounds())
	if r.Empty() {
		return nil
	}

	out := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(out, out.Bounds(), img, r.Min, draw.Src)
	return out
}

// NeedsUpscale reports whether either edge of img is shorter than minEdge.
func NeedsUpscale(img image.Image, minEdge int) bool {
	b := img.Bounds()
	return b.Dx() < minEdge || b.Dy() < minEdge
}

// Upscale resizes img to exactly size using bilinear interpolation.
// Aspect ratio is not preserved.
func Upscale(img image.Image, size image.Point) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, size.X, size.Y))
	draw.BiLinear.Scale(out, out.Bounds(), img, img.Bounds(), draw.Src, nil)
	return out
}
