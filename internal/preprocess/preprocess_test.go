package preprocess

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filled(img interface {
	image.Image
	Set(x, y int, c color.Color)
}, c color.Color) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			img.Set(x, y, c)
		}
	}
}

func TestImageShape(t *testing.T) {
	rgba := image.NewRGBA(image.Rect(0, 0, 640, 480))
	gray := image.NewGray(image.Rect(0, 0, 31, 517))
	paletted := image.NewPaletted(image.Rect(0, 0, 10, 10), color.Palette{color.Black, color.White})
	cmyk := image.NewCMYK(image.Rect(0, 0, 300, 300))
	ycbcr := image.NewYCbCr(image.Rect(0, 0, 1, 1), image.YCbCrSubsampleRatio420)
	offset := image.NewNRGBA(image.Rect(-50, 20, 150, 60))

	tests := []struct {
		name string
		img  image.Image
	}{
		{"landscape rgba", rgba},
		{"tall grayscale", gray},
		{"paletted", paletted},
		{"square cmyk", cmyk},
		{"single pixel ycbcr", ycbcr},
		{"non-zero origin", offset},
		{"empty", image.NewRGBA(image.Rect(0, 0, 0, 0))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tensor := Image(tt.img)

			assert.Equal(t, [4]int64{1, Size, Size, Channels}, tensor.Shape)
			assert.Len(t, tensor.Data, Size*Size*Channels)
		})
	}
}

func TestImageValues(t *testing.T) {
	t.Run("solid color keeps intensities in 0-255", func(t *testing.T) {
		img := image.NewRGBA(image.Rect(0, 0, 300, 200))
		filled(img, color.RGBA{R: 200, G: 100, B: 50, A: 255})

		tensor := Image(img)

		for _, pos := range [][2]int{{0, 0}, {111, 111}, {Size - 1, Size - 1}} {
			assert.InDelta(t, 200, tensor.At(pos[0], pos[1], 0), 1)
			assert.InDelta(t, 100, tensor.At(pos[0], pos[1], 1), 1)
			assert.InDelta(t, 50, tensor.At(pos[0], pos[1], 2), 1)
		}
	})

	t.Run("crops the sides of wide images instead of stretching", func(t *testing.T) {
		// Left and right quarters red, center half blue; a 2:1 image cropped
		// to a centered square keeps only blue.
		img := image.NewRGBA(image.Rect(0, 0, 400, 200))
		filled(img, color.RGBA{R: 255, A: 255})
		center := img.SubImage(image.Rect(100, 0, 300, 200)).(*image.RGBA)
		filled(center, color.RGBA{B: 255, A: 255})

		tensor := Image(img)

		assert.InDelta(t, 0, tensor.At(Size/2, 0, 0), 1)
		assert.InDelta(t, 255, tensor.At(Size/2, 0, 2), 1)
		assert.InDelta(t, 0, tensor.At(Size/2, Size-1, 0), 1)
		assert.InDelta(t, 255, tensor.At(Size/2, Size-1, 2), 1)
	})

	t.Run("translucent pixels keep straight intensities", func(t *testing.T) {
		img := image.NewNRGBA(image.Rect(0, 0, 50, 50))
		filled(img, color.NRGBA{R: 200, G: 100, B: 50, A: 128})

		tensor := Image(img)

		for _, pos := range [][2]int{{0, 0}, {112, 112}, {Size - 1, Size - 1}} {
			assert.InDelta(t, 200, tensor.At(pos[0], pos[1], 0), 2)
			assert.InDelta(t, 100, tensor.At(pos[0], pos[1], 1), 2)
			assert.InDelta(t, 50, tensor.At(pos[0], pos[1], 2), 2)
		}
	})

	t.Run("empty image yields zeros", func(t *testing.T) {
		tensor := Image(image.NewGray(image.Rect(0, 0, 0, 5)))

		for _, v := range tensor.Data {
			require.Zero(t, v)
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		img := image.NewRGBA(image.Rect(0, 0, 97, 53))
		for i := range img.Pix {
			img.Pix[i] = uint8(i * 31)
		}

		assert.Equal(t, Image(img).Data, Image(img).Data)
	})
}

func TestCropToAspect(t *testing.T) {
	tests := []struct {
		name   string
		bounds image.Rectangle
		want   image.Point
	}{
		{"wide", image.Rect(0, 0, 640, 480), image.Pt(480, 480)},
		{"tall", image.Rect(0, 0, 100, 300), image.Pt(100, 100)},
		{"square", image.Rect(0, 0, 50, 50), image.Pt(50, 50)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cropped := cropToAspect(image.NewRGBA(tt.bounds), 1, 1)

			require.NotNil(t, cropped)
			assert.Equal(t, tt.want, cropped.Bounds().Size())
		})
	}
}
