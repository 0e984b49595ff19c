package main

// corrupt module implements corruption synthesizer which applies one of
// several randomized degradations to a normalized image
//
// Copyright (c) 2024 - Valentin Kuznetsov <vkuznet@gmail.com>
//

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"math/rand"
)

// CorruptionKind enumerates supported degradation kinds
type CorruptionKind int

// supported corruption kinds
const (
	CorruptNoise CorruptionKind = iota
	CorruptBlur
	CorruptCompression
	CorruptBrightness
	CorruptOcclusion
)

// CorruptionKinds lists all supported corruption kinds
var CorruptionKinds = []CorruptionKind{
	CorruptNoise, CorruptBlur, CorruptCompression, CorruptBrightness, CorruptOcclusion,
}

// String provides human readable corruption kind name
func (k CorruptionKind) String() string {
	switch k {
	case CorruptNoise:
		return "noise"
	case CorruptBlur:
		return "blur"
	case CorruptCompression:
		return "compression"
	case CorruptBrightness:
		return "brightness"
	case CorruptOcclusion:
		return "occlusion"
	}
	return fmt.Sprintf("kind-%d", int(k))
}

// Descriptor represents corruption kind with its severity parameters
type Descriptor struct {
	Kind      CorruptionKind `json:"kind"`       // corruption kind
	Sigma     float64        `json:"sigma"`      // noise standard deviation
	Radius    int            `json:"radius"`     // blur kernel radius
	Quality   int            `json:"quality"`    // JPEG re-encode quality
	Factor    float64        `json:"factor"`     // brightness multiplier
	Offset    float64        `json:"offset"`     // brightness offset
	X         int            `json:"x"`          // occlusion patch origin
	Y         int            `json:"y"`          // occlusion patch origin
	W         int            `json:"w"`          // occlusion patch width
	H         int            `json:"h"`          // occlusion patch height
	NoiseFill bool           `json:"noise_fill"` // fill occlusion patch with noise
	Fill      float64        `json:"fill"`       // constant occlusion fill value
}

// RandomDescriptor draws corruption kind uniformly at random along with
// kind-specific severity parameters within bounded ranges
func RandomDescriptor(rng *rand.Rand, width, height int) *Descriptor {
	desc := &Descriptor{Kind: CorruptionKinds[rng.Intn(len(CorruptionKinds))]}
	switch desc.Kind {
	case CorruptNoise:
		desc.Sigma = 0.02 + 0.13*rng.Float64()
	case CorruptBlur:
		desc.Radius = 1 + rng.Intn(3)
	case CorruptCompression:
		desc.Quality = 5 + rng.Intn(36)
	case CorruptBrightness:
		desc.Factor = 0.6 + 0.8*rng.Float64()
		desc.Offset = -0.2 + 0.4*rng.Float64()
	case CorruptOcclusion:
		desc.W = width/5 + rng.Intn(width/4+1)
		desc.H = height/5 + rng.Intn(height/4+1)
		desc.X = rng.Intn(width)
		desc.Y = rng.Intn(height)
		desc.NoiseFill = rng.Float64() < 0.5
		desc.Fill = rng.Float64()
	}
	return desc
}

// Corrupt applies given corruption descriptor to the image and returns a
// degraded copy of identical dimensions, the source image is never
// mutated. Randomized corruptions draw from the supplied generator so
// equal descriptor and seed yield byte-identical output.
func Corrupt(img *Image, desc *Descriptor, rng *rand.Rand) (*Image, error) {
	if !img.Valid() {
		return nil, fmt.Errorf("%w: malformed image shape", ErrInvalidInput)
	}
	switch desc.Kind {
	case CorruptNoise:
		return corruptNoise(img, desc.Sigma, rng), nil
	case CorruptBlur:
		return corruptBlur(img, desc.Radius), nil
	case CorruptCompression:
		return corruptCompression(img, desc.Quality)
	case CorruptBrightness:
		return corruptBrightness(img, desc.Factor, desc.Offset), nil
	case CorruptOcclusion:
		return corruptOcclusion(img, desc, rng), nil
	}
	return nil, fmt.Errorf("%w: unsupported corruption kind %v", ErrInvalidInput, desc.Kind)
}

// helper function to add zero-mean Gaussian noise with given standard
// deviation, pixel values are clamped to the valid range
func corruptNoise(img *Image, sigma float64, rng *rand.Rand) *Image {
	out := img.Clone()
	for i, v := range out.Pix {
		out.Pix[i] = clamp01(v + float32(rng.NormFloat64()*sigma))
	}
	return out
}

// helper function to convolve image with a box smoothing kernel of
// given radius
func corruptBlur(img *Image, radius int) *Image {
	if radius < 1 {
		radius = 1
	}
	// horizontal pass over a copy, vertical pass over the result
	tmp := img.Clone()
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			for c := 0; c < img.Channels; c++ {
				var sum float32
				var cnt int
				for dx := -radius; dx <= radius; dx++ {
					xx := x + dx
					if xx < 0 || xx >= img.Width {
						continue
					}
					sum += img.At(xx, y, c)
					cnt++
				}
				tmp.Set(x, y, c, sum/float32(cnt))
			}
		}
	}
	out := tmp.Clone()
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			for c := 0; c < img.Channels; c++ {
				var sum float32
				var cnt int
				for dy := -radius; dy <= radius; dy++ {
					yy := y + dy
					if yy < 0 || yy >= img.Height {
						continue
					}
					sum += tmp.At(x, yy, c)
					cnt++
				}
				out.Set(x, y, c, sum/float32(cnt))
			}
		}
	}
	return out
}

// helper function to simulate compression artifacts via lossy JPEG
// re-encode and decode round-trip
func corruptCompression(img *Image, quality int) (*Image, error) {
	if quality < 1 {
		quality = 1
	} else if quality > 100 {
		quality = 100
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img.ToRGBA(), &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	decoded, _, err := image.Decode(&buf)
	if err != nil {
		return nil, err
	}
	out, err := FromGoImage(decoded, img.Channels)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// helper function to shift image brightness by bounded multiplier and
// offset, pixel values are clamped to the valid range
func corruptBrightness(img *Image, factor, offset float64) *Image {
	out := img.Clone()
	for i, v := range out.Pix {
		out.Pix[i] = clamp01(v*float32(factor) + float32(offset))
	}
	return out
}

// helper function to overwrite rectangular region with constant or
// noise fill, the patch is clipped to image bounds
func corruptOcclusion(img *Image, desc *Descriptor, rng *rand.Rand) *Image {
	out := img.Clone()
	x0, y0 := desc.X, desc.Y
	x1, y1 := desc.X+desc.W, desc.Y+desc.H
	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x1 > img.Width {
		x1 = img.Width
	}
	if y1 > img.Height {
		y1 = img.Height
	}
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			for c := 0; c < img.Channels; c++ {
				if desc.NoiseFill {
					out.Set(x, y, c, float32(rng.Float64()))
				} else {
					out.Set(x, y, c, float32(desc.Fill))
				}
			}
		}
	}
	return out
}
