package images

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"
)

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

func transparentPNGBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func decodePNG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a valid PNG: %v", err)
	}
	return img
}

func TestResampleFitsBoundingBox(t *testing.T) {
	src := jpegBytes(t, 1600, 900)

	out, err := Resample(src, 400, 400)
	if err != nil {
		t.Fatalf("resample: %v", err)
	}
	img := decodePNG(t, out)
	if got := img.Bounds(); got.Dx() != 400 || got.Dy() != 225 {
		t.Fatalf("expected 400x225, got %dx%d", got.Dx(), got.Dy())
	}

	thumb, err := Resample(src, 50, 50)
	if err != nil {
		t.Fatalf("resample thumbnail: %v", err)
	}
	img = decodePNG(t, thumb)
	if got := img.Bounds(); got.Dx() != 50 || got.Dy() != 28 {
		t.Fatalf("expected 50x28, got %dx%d", got.Dx(), got.Dy())
	}
}

func TestResampleNeverUpsamples(t *testing.T) {
	src := jpegBytes(t, 120, 80)
	out, err := Resample(src, 400, 400)
	if err != nil {
		t.Fatalf("resample: %v", err)
	}
	img := decodePNG(t, out)
	if got := img.Bounds(); got.Dx() != 120 || got.Dy() != 80 {
		t.Fatalf("expected source dimensions 120x80, got %dx%d", got.Dx(), got.Dy())
	}
}

func TestResampleDimensionFixedPoint(t *testing.T) {
	src := jpegBytes(t, 1600, 900)
	first, err := Resample(src, 400, 400)
	if err != nil {
		t.Fatalf("first resample: %v", err)
	}
	second, err := Resample(first, 400, 400)
	if err != nil {
		t.Fatalf("second resample: %v", err)
	}
	a := decodePNG(t, first).Bounds()
	b := decodePNG(t, second).Bounds()
	if a.Dx() != b.Dx() || a.Dy() != b.Dy() {
		t.Fatalf("expected stable dimensions, got %dx%d then %dx%d", a.Dx(), a.Dy(), b.Dx(), b.Dy())
	}
}

func TestResampleCompositesAlphaOntoWhite(t *testing.T) {
	src := transparentPNGBytes(t, 64, 64)
	out, err := Resample(src, 50, 50)
	if err != nil {
		t.Fatalf("resample: %v", err)
	}
	img := decodePNG(t, out)
	r, g, b, _ := img.At(10, 10).RGBA()
	if r < 0xf000 || g < 0xf000 || b < 0xf000 {
		t.Fatalf("transparent source should flatten to white, got rgb(%d,%d,%d)", r>>8, g>>8, b>>8)
	}
}

func TestResampleRejectsGarbage(t *testing.T) {
	_, err := Resample([]byte("definitely not an image"), 400, 400)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

// exifOrientation6JPEG splices an APP1 EXIF segment with Orientation=6
// (rotate 90 CW) into an encoded JPEG, right after the SOI marker.
func exifOrientation6JPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	base := jpegBytes(t, w, h)
	app1 := []byte{
		0xff, 0xe1, 0x00, 0x22,
		'E', 'x', 'i', 'f', 0x00, 0x00,
		'I', 'I', 0x2a, 0x00,
		0x08, 0x00, 0x00, 0x00,
		0x01, 0x00,
		0x12, 0x01, 0x03, 0x00, 0x01, 0x00, 0x00, 0x00, 0x06, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
	}
	out := make([]byte, 0, len(base)+len(app1))
	out = append(out, base[:2]...)
	out = append(out, app1...)
	out = append(out, base[2:]...)
	return out
}

func TestResampleAppliesExifOrientation(t *testing.T) {
	src := exifOrientation6JPEG(t, 1600, 900)
	out, err := Resample(src, 400, 400)
	if err != nil {
		t.Fatalf("resample: %v", err)
	}
	// Orientation 6 transposes the visual dimensions to 900x1600 before the
	// fit, so the output must be portrait.
	img := decodePNG(t, out)
	if got := img.Bounds(); got.Dx() != 225 || got.Dy() != 400 {
		t.Fatalf("expected 225x400 after orientation, got %dx%d", got.Dx(), got.Dy())
	}
}

func TestResampleDecodesGIF(t *testing.T) {
	img := image.NewPaletted(image.Rect(0, 0, 200, 100), palette.Plan9)
	for y := 0; y < 100; y++ {
		for x := 0; x < 200; x++ {
			img.SetColorIndex(x, y, uint8((x+y)%256))
		}
	}
	var buf bytes.Buffer
	if err := gif.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode gif: %v", err)
	}
	out, err := Resample(buf.Bytes(), 50, 50)
	if err != nil {
		t.Fatalf("resample gif: %v", err)
	}
	decoded := decodePNG(t, out)
	if got := decoded.Bounds(); got.Dx() != 50 || got.Dy() != 25 {
		t.Fatalf("expected 50x25, got %dx%d", got.Dx(), got.Dy())
	}
}
