package main

import (
	"errors"
	"math/rand"
	"testing"
)

// helper function to create deterministic test image
func testImage(width, height, channels int, seed int64) *Image {
	rng := rand.New(rand.NewSource(seed))
	img := NewImage(width, height, channels)
	for i := range img.Pix {
		img.Pix[i] = float32(rng.Float64())
	}
	return img
}

// helper function to create descriptor of given kind with fixed severity
func testDescriptor(kind CorruptionKind) *Descriptor {
	switch kind {
	case CorruptNoise:
		return &Descriptor{Kind: kind, Sigma: 0.1}
	case CorruptBlur:
		return &Descriptor{Kind: kind, Radius: 2}
	case CorruptCompression:
		return &Descriptor{Kind: kind, Quality: 10}
	case CorruptBrightness:
		return &Descriptor{Kind: kind, Factor: 1.3, Offset: 0.1}
	case CorruptOcclusion:
		return &Descriptor{Kind: kind, X: 2, Y: 2, W: 5, H: 5, Fill: 0.5}
	}
	return nil
}

// TestCorruptPreservesDimensions
func TestCorruptPreservesDimensions(t *testing.T) {
	img := testImage(16, 16, 3, 1)
	for _, kind := range CorruptionKinds {
		rng := rand.New(rand.NewSource(1))
		out, err := Corrupt(img, testDescriptor(kind), rng)
		if err != nil {
			t.Fatalf("corruption %v failed, error %v", kind, err)
		}
		if out.Width != img.Width || out.Height != img.Height || out.Channels != img.Channels {
			t.Errorf("corruption %v changed dimensions %dx%dx%d -> %dx%dx%d",
				kind, img.Width, img.Height, img.Channels, out.Width, out.Height, out.Channels)
		}
		if len(out.Pix) != len(img.Pix) {
			t.Errorf("corruption %v changed pixel count %d -> %d", kind, len(img.Pix), len(out.Pix))
		}
	}
}

// TestCorruptDoesNotMutateSource
func TestCorruptDoesNotMutateSource(t *testing.T) {
	img := testImage(12, 12, 3, 2)
	orig := append([]float32{}, img.Pix...)
	for _, kind := range CorruptionKinds {
		rng := rand.New(rand.NewSource(2))
		if _, err := Corrupt(img, testDescriptor(kind), rng); err != nil {
			t.Fatalf("corruption %v failed, error %v", kind, err)
		}
		for i, v := range img.Pix {
			if v != orig[i] {
				t.Fatalf("corruption %v mutated source image at index %d", kind, i)
			}
		}
	}
}

// TestCorruptDeterministic checks that equal descriptor and seed yield
// byte-identical degraded output
func TestCorruptDeterministic(t *testing.T) {
	img := testImage(16, 16, 3, 3)
	descs := []*Descriptor{
		testDescriptor(CorruptNoise),
		{Kind: CorruptOcclusion, X: 1, Y: 1, W: 8, H: 8, NoiseFill: true},
	}
	for _, desc := range descs {
		first, err := Corrupt(img, desc, rand.New(rand.NewSource(42)))
		if err != nil {
			t.Fatalf("corruption %v failed, error %v", desc.Kind, err)
		}
		second, err := Corrupt(img, desc, rand.New(rand.NewSource(42)))
		if err != nil {
			t.Fatalf("corruption %v failed, error %v", desc.Kind, err)
		}
		for i := range first.Pix {
			if first.Pix[i] != second.Pix[i] {
				t.Fatalf("corruption %v is not deterministic at index %d", desc.Kind, i)
			}
		}
	}
}

// TestCorruptValues checks degraded pixel values stay in valid range
func TestCorruptValues(t *testing.T) {
	img := testImage(16, 16, 3, 4)
	for _, kind := range CorruptionKinds {
		rng := rand.New(rand.NewSource(4))
		out, err := Corrupt(img, testDescriptor(kind), rng)
		if err != nil {
			t.Fatalf("corruption %v failed, error %v", kind, err)
		}
		for i, v := range out.Pix {
			if v < 0 || v > 1 {
				t.Fatalf("corruption %v produced out-of-range value %v at index %d", kind, v, i)
			}
		}
	}
}

// TestCorruptInvalidInput
func TestCorruptInvalidInput(t *testing.T) {
	img := &Image{Width: 8, Height: 8, Channels: 3, Pix: make([]float32, 10)}
	rng := rand.New(rand.NewSource(5))
	if _, err := Corrupt(img, testDescriptor(CorruptNoise), rng); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

// TestRandomDescriptor checks severity bounds of random descriptors
func TestRandomDescriptor(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	for i := 0; i < 100; i++ {
		desc := RandomDescriptor(rng, 32, 32)
		switch desc.Kind {
		case CorruptNoise:
			if desc.Sigma < 0.02 || desc.Sigma > 0.15 {
				t.Errorf("noise sigma %v out of range", desc.Sigma)
			}
		case CorruptBlur:
			if desc.Radius < 1 || desc.Radius > 3 {
				t.Errorf("blur radius %d out of range", desc.Radius)
			}
		case CorruptCompression:
			if desc.Quality < 5 || desc.Quality > 40 {
				t.Errorf("compression quality %d out of range", desc.Quality)
			}
		case CorruptBrightness:
			if desc.Factor < 0.6 || desc.Factor > 1.4 {
				t.Errorf("brightness factor %v out of range", desc.Factor)
			}
		case CorruptOcclusion:
			if desc.W <= 0 || desc.H <= 0 {
				t.Errorf("empty occlusion patch %dx%d", desc.W, desc.H)
			}
		}
	}
}
