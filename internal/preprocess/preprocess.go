// Package preprocess turns decoded images into the fixed-shape input tensor
// expected by the species classifier.
package preprocess

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/nfnt/resize"
)

const (
	// Size is the edge length, in pixels, of the classifier input.
	Size = 224
	// Channels is the number of color channels fed to the classifier (RGB).
	Channels = 3
)

// Tensor is a rank-4 NHWC float32 tensor with a batch dimension of one.
type Tensor struct {
	Shape [4]int64
	Data  []float32
}

// At returns the value at row y, column x and channel c of the single batch entry.
func (t Tensor) At(y, x, c int) float32 {
	width := int(t.Shape[2])
	channels := int(t.Shape[3])
	return t.Data[(y*width+x)*channels+c]
}

func newTensor(size int) Tensor {
	return Tensor{
		Shape: [4]int64{1, int64(size), int64(size), Channels},
		Data:  make([]float32, size*size*Channels),
	}
}

// Image converts img into a (1, Size, Size, 3) tensor of pixel intensities in [0, 255].
func Image(img image.Image) Tensor {
	return Fit(img, Size)
}

// Fit center-crops img to a square, resizes it to size×size with Lanczos
// resampling and lays the RGB channels out in NHWC order. Channels are taken
// straight (not alpha-premultiplied) and alpha is dropped.
// An empty image yields an all-zero tensor of the same shape.
func Fit(img image.Image, size int) Tensor {
	tensor := newTensor(size)

	cropped := cropToAspect(img, size, size)
	if cropped == nil {
		return tensor
	}

	resized := resize.Resize(uint(size), uint(size), cropped, resize.Lanczos3)
	bounds := resized.Bounds()

	i := 0
	for y := bounds.Min.Y; y < bounds.Min.Y+size; y++ {
		for x := bounds.Min.X; x < bounds.Min.X+size; x++ {
			c := color.NRGBAModel.Convert(resized.At(x, y)).(color.NRGBA)
			tensor.Data[i] = float32(c.R)
			tensor.Data[i+1] = float32(c.G)
			tensor.Data[i+2] = float32(c.B)
			i += Channels
		}
	}

	return tensor
}

// cropToAspect returns the largest centered region of img with the
// width:height ratio of w:h, copied into an NRGBA image anchored at the origin.
func cropToAspect(img image.Image, w, h int) *image.NRGBA {
	if img == nil {
		return nil
	}
	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW <= 0 || srcH <= 0 {
		return nil
	}

	cropW, cropH := srcW, srcH
	if srcW*h > srcH*w {
		cropW = srcH * w / h
	} else {
		cropH = srcW * h / w
	}
	if cropW < 1 {
		cropW = 1
	}
	if cropH < 1 {
		cropH = 1
	}

	origin := image.Point{
		X: bounds.Min.X + (srcW-cropW)/2,
		Y: bounds.Min.Y + (srcH-cropH)/2,
	}

	dst := image.NewNRGBA(image.Rect(0, 0, cropW, cropH))
	draw.Draw(dst, dst.Bounds(), img, origin, draw.Src)
	return dst
}
