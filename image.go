package main

// image module provides normalized in-memory image representation
// used across dataset, corruption and inference layers. All decode
// and resize logic is isolated here at the service boundary.
//
// Copyright (c) 2024 - Valentin Kuznetsov <vkuznet@gmail.com>
//

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/nfnt/resize"
)

// Image represents fixed-shape numeric pixel grid with values in [0,1],
// stored row-major with channels interleaved
type Image struct {
	Width    int
	Height   int
	Channels int
	Pix      []float32
}

// NewImage creates zero-valued image of given shape
func NewImage(width, height, channels int) *Image {
	return &Image{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]float32, width*height*channels),
	}
}

// Valid checks image shape consistency
func (im *Image) Valid() bool {
	if im == nil || im.Width <= 0 || im.Height <= 0 || im.Channels <= 0 {
		return false
	}
	return len(im.Pix) == im.Width*im.Height*im.Channels
}

// Clone returns deep copy of the image
func (im *Image) Clone() *Image {
	out := &Image{Width: im.Width, Height: im.Height, Channels: im.Channels}
	out.Pix = append([]float32{}, im.Pix...)
	return out
}

// At returns pixel value at given coordinates and channel
func (im *Image) At(x, y, c int) float32 {
	return im.Pix[(y*im.Width+x)*im.Channels+c]
}

// Set assigns pixel value at given coordinates and channel
func (im *Image) Set(x, y, c int, v float32) {
	im.Pix[(y*im.Width+x)*im.Channels+c] = v
}

// helper function to clamp pixel value to valid range
func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// FromGoImage converts standard Go image into normalized representation
// with requested number of channels (1 for grayscale, 3 for RGB)
func FromGoImage(img image.Image, channels int) (*Image, error) {
	if channels != 1 && channels != 3 {
		return nil, fmt.Errorf("%w: unsupported channels %d", ErrInvalidInput, channels)
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: empty image %dx%d", ErrInvalidInput, width, height)
	}
	out := NewImage(width, height, channels)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			if channels == 1 {
				// ITU-R BT.601 luma
				gray := 0.299*float32(r) + 0.587*float32(g) + 0.114*float32(b)
				out.Set(x, y, 0, gray/65535.0)
			} else {
				out.Set(x, y, 0, float32(r)/65535.0)
				out.Set(x, y, 1, float32(g)/65535.0)
				out.Set(x, y, 2, float32(b)/65535.0)
			}
		}
	}
	return out, nil
}

// ToRGBA converts normalized image back to standard Go image
func (im *Image) ToRGBA() *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, im.Width, im.Height))
	for y := 0; y < im.Height; y++ {
		for x := 0; x < im.Width; x++ {
			var r, g, b float32
			if im.Channels == 1 {
				r = clamp01(im.At(x, y, 0))
				g, b = r, r
			} else {
				r = clamp01(im.At(x, y, 0))
				g = clamp01(im.At(x, y, 1))
				b = clamp01(im.At(x, y, 2))
			}
			out.SetRGBA(x, y, color.RGBA{
				R: uint8(r*255 + 0.5),
				G: uint8(g*255 + 0.5),
				B: uint8(b*255 + 0.5),
				A: 255,
			})
		}
	}
	return out
}

// helper function to resize Go image to square model input, mode is
// either stretch (default) or crop (center crop of the dominant
// dimension followed by resize)
func resizeGoImage(img image.Image, size int, mode string) image.Image {
	bounds := img.Bounds()
	if bounds.Dx() == size && bounds.Dy() == size {
		return img
	}
	if mode == ResizeCrop {
		side := bounds.Dx()
		if bounds.Dy() < side {
			side = bounds.Dy()
		}
		x0 := bounds.Min.X + (bounds.Dx()-side)/2
		y0 := bounds.Min.Y + (bounds.Dy()-side)/2
		rect := image.Rect(x0, y0, x0+side, y0+side)
		type subImager interface {
			SubImage(r image.Rectangle) image.Image
		}
		if si, ok := img.(subImager); ok {
			img = si.SubImage(rect)
		}
	}
	return resize.Resize(uint(size), uint(size), img, resize.Lanczos3)
}

// DecodeImage decodes raw image bytes (JPEG, PNG or GIF) and converts
// them into normalized representation of given square size and channels
func DecodeImage(data []byte, size, channels int, mode string) (*Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	img = resizeGoImage(img, size, mode)
	out, err := FromGoImage(img, channels)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return out, nil
}
