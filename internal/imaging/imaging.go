// Package imaging decodes query and corpus images into an opaque RGB buffer
// that every extractor accepts.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	_ "image/png"
	"io"
	"os"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/saturnino-fabrica-de-software/facefinder/internal/domain"
)

const jpegQuality = 95

var ErrEmptyImage = errors.New("image has no pixels")

// Image is a decoded picture normalised to 3-channel colour. Alpha is
// composited over white so the buffer is always fully opaque.
type Image struct {
	Ref    string
	Format string
	RGB    *image.RGBA
}

func (i *Image) Width() int  { return i.RGB.Bounds().Dx() }
func (i *Image) Height() int { return i.RGB.Bounds().Dy() }

// Decode reads an image from r. Failures are returned as
// *domain.ExtractionError tagged with ref.
func Decode(ref string, r io.Reader) (*Image, error) {
	src, format, err := image.Decode(r)
	if err != nil {
		return nil, domain.NewExtractionError(ref, fmt.Errorf("decode image: %w", err))
	}

	b := src.Bounds()
	if b.Empty() {
		return nil, domain.NewExtractionError(ref, ErrEmptyImage)
	}

	return &Image{
		Ref:    ref,
		Format: format,
		RGB:    toRGB(src),
	}, nil
}

// DecodeFile decodes the image stored at path.
func DecodeFile(ref, path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, domain.NewExtractionError(ref, fmt.Errorf("open staged image: %w", err))
	}
	defer func() {
		_ = f.Close()
	}()

	return Decode(ref, f)
}

// toRGB converts any colour model to opaque RGBA anchored at the origin.
func toRGB(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	return dst
}

// Fit returns a copy scaled down so neither side exceeds maxSide. Images
// already within bounds, or maxSide <= 0, are returned as is.
func (i *Image) Fit(maxSide int) *Image {
	w, h := i.Width(), i.Height()
	if maxSide <= 0 || (w <= maxSide && h <= maxSide) {
		return i
	}

	var nw, nh int
	if w >= h {
		nw = maxSide
		nh = h * maxSide / w
	} else {
		nh = maxSide
		nw = w * maxSide / h
	}
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), i.RGB, i.RGB.Bounds(), draw.Src, nil)
	return &Image{Ref: i.Ref, Format: i.Format, RGB: dst}
}

// JPEG encodes the normalised buffer. Extractors that take encoded input
// (dlib, HTTP services) use this so every backend sees the same pixels.
func (i *Image) JPEG() ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, i.RGB, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
