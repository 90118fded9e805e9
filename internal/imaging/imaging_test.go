package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/facefinder/internal/domain"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecode_NormalisesColourModels(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 4, 3))
	gray.SetGray(1, 1, color.Gray{Y: 200})

	paletted := image.NewPaletted(image.Rect(0, 0, 2, 2), color.Palette{color.Black, color.RGBA{R: 255, A: 255}})
	paletted.SetColorIndex(0, 0, 1)

	transparent := image.NewNRGBA(image.Rect(0, 0, 2, 2))

	tests := []struct {
		name  string
		src   image.Image
		check func(t *testing.T, img *Image)
	}{
		{
			name: "grayscale",
			src:  gray,
			check: func(t *testing.T, img *Image) {
				assert.Equal(t, 4, img.Width())
				assert.Equal(t, 3, img.Height())
				assert.Equal(t, color.RGBA{200, 200, 200, 255}, img.RGB.RGBAAt(1, 1))
			},
		},
		{
			name: "paletted",
			src:  paletted,
			check: func(t *testing.T, img *Image) {
				assert.Equal(t, color.RGBA{255, 0, 0, 255}, img.RGB.RGBAAt(0, 0))
				assert.Equal(t, color.RGBA{0, 0, 0, 255}, img.RGB.RGBAAt(1, 1))
			},
		},
		{
			name: "transparent pixels become white",
			src:  transparent,
			check: func(t *testing.T, img *Image) {
				assert.Equal(t, color.RGBA{255, 255, 255, 255}, img.RGB.RGBAAt(0, 0))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := Decode("test.png", bytes.NewReader(encodePNG(t, tt.src)))
			require.NoError(t, err)
			assert.Equal(t, "png", img.Format)
			assert.Equal(t, "test.png", img.Ref)
			tt.check(t, img)
		})
	}
}

func TestDecode_CorruptImageIsExtractionError(t *testing.T) {
	_, err := Decode("broken.jpg", strings.NewReader("definitely not a jpeg"))
	require.Error(t, err)

	var extErr *domain.ExtractionError
	require.True(t, errors.As(err, &extErr))
	assert.Equal(t, "broken.jpg", extErr.Ref)
	assert.ErrorIs(t, err, domain.ErrExtraction)
}

func TestDecodeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "face.png")
	require.NoError(t, os.WriteFile(path, encodePNG(t, image.NewRGBA(image.Rect(0, 0, 8, 8))), 0o600))

	img, err := DecodeFile("face.png", path)
	require.NoError(t, err)
	assert.Equal(t, 8, img.Width())

	_, err = DecodeFile("missing.png", filepath.Join(t.TempDir(), "missing.png"))
	assert.ErrorIs(t, err, domain.ErrExtraction)
}

func TestImage_Fit(t *testing.T) {
	img := &Image{Ref: "wide", RGB: image.NewRGBA(image.Rect(0, 0, 400, 100))}

	fitted := img.Fit(200)
	assert.Equal(t, 200, fitted.Width())
	assert.Equal(t, 50, fitted.Height())
	assert.Equal(t, "wide", fitted.Ref)

	assert.Same(t, img, img.Fit(0))
	assert.Same(t, img, img.Fit(1000))

	tall := &Image{RGB: image.NewRGBA(image.Rect(0, 0, 100, 400))}
	assert.Equal(t, 50, tall.Fit(200).Width())
}

func TestImage_JPEGRoundTrip(t *testing.T) {
	img := &Image{RGB: image.NewRGBA(image.Rect(0, 0, 16, 9))}

	data, err := img.JPEG()
	require.NoError(t, err)

	decoded, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 16, decoded.Bounds().Dx())
	assert.Equal(t, 9, decoded.Bounds().Dy())
}
