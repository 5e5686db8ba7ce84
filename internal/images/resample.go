// Package images decodes uploaded images and produces resized derivatives.
package images

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// ErrUnsupportedFormat is returned when the input bytes cannot be decoded as
// any supported image format.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Resample decodes data, applies any embedded orientation metadata, composites
// alpha sources onto a white background, scales the image to fit inside the
// maxWidth x maxHeight bounding box preserving aspect ratio (never upsampling),
// and re-encodes the result as PNG. It is a pure function of its inputs.
func Resample(data []byte, maxWidth, maxHeight int) ([]byte, error) {
	if maxWidth <= 0 || maxHeight <= 0 {
		return nil, fmt.Errorf("invalid bounding box %dx%d", maxWidth, maxHeight)
	}
	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	src = flattenAlpha(src)
	bounds := src.Bounds()
	if bounds.Dx() > maxWidth || bounds.Dy() > maxHeight {
		src = imaging.Fit(src, maxWidth, maxHeight, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, src, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// flattenAlpha composites images carrying transparency onto a white canvas so
// transparent regions do not end up black in the opaque output.
func flattenAlpha(src image.Image) image.Image {
	if o, ok := src.(interface{ Opaque() bool }); ok && o.Opaque() {
		return src
	}
	bounds := src.Bounds()
	canvas := imaging.New(bounds.Dx(), bounds.Dy(), color.White)
	return imaging.Overlay(canvas, src, image.Point{}, 1.0)
}
