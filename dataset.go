package main

// dataset module provides image sources and the labeled dataset wrapper
// which decides per-access whether a sample gets corrupted
//
// Copyright (c) 2024 - Valentin Kuznetsov <vkuznet@gmail.com>
//

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/unixpickle/anynet/anyff"
	"github.com/unixpickle/anyvec/anyvec32"
)

// binary sample labels, index order matches Classes
const (
	SampleClean = iota
	SampleCorrupted
)

// ImageSource provides random access to upstream images, any semantic
// label of the upstream corpus is discarded by implementations
type ImageSource interface {
	Len() int
	Image(idx int) (*Image, error)
}

// DirSource serves images from a directory of JPEG/PNG/GIF files
type DirSource struct {
	files    []string
	size     int
	channels int
	mode     string
}

// NewDirSource scans given directory for image files, inaccessible or
// empty directory yields dataset error which is fatal to a training run
func NewDirSource(dir string, size, channels int, mode string) (*DirSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatasetUnavailable, err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".jpg", ".jpeg", ".png", ".gif":
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no images in %s", ErrDatasetUnavailable, dir)
	}
	return &DirSource{files: files, size: size, channels: channels, mode: mode}, nil
}

// Len returns number of images in the source
func (s *DirSource) Len() int {
	return len(s.files)
}

// Image loads and decodes image at given index
func (s *DirSource) Image(idx int) (*Image, error) {
	data, err := os.ReadFile(s.files[idx])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatasetUnavailable, err)
	}
	return DecodeImage(data, s.size, s.channels, s.mode)
}

// CIFAR-10 binary record layout: 1 label byte followed by 3072 bytes of
// channel-planar 32x32 RGB pixels
const (
	cifarSide       = 32
	cifarPixels     = cifarSide * cifarSide
	cifarRecordSize = 1 + 3*cifarPixels
)

// CIFARSource serves images from CIFAR-10 binary batch files, the
// record label byte is read and discarded
type CIFARSource struct {
	records  [][]byte
	size     int
	channels int
	mode     string
}

// NewCIFARSource loads all *.bin batch files from given directory
func NewCIFARSource(dir string, size, channels int, mode string) (*CIFARSource, error) {
	batches, err := filepath.Glob(filepath.Join(dir, "*.bin"))
	if err != nil || len(batches) == 0 {
		return nil, fmt.Errorf("%w: no CIFAR batches in %s", ErrDatasetUnavailable, dir)
	}
	sort.Strings(batches)
	src := &CIFARSource{size: size, channels: channels, mode: mode}
	for _, batch := range batches {
		data, err := os.ReadFile(batch)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDatasetUnavailable, err)
		}
		if len(data)%cifarRecordSize != 0 {
			return nil, fmt.Errorf("%w: malformed CIFAR batch %s", ErrDatasetUnavailable, batch)
		}
		for off := 0; off < len(data); off += cifarRecordSize {
			src.records = append(src.records, data[off:off+cifarRecordSize])
		}
	}
	return src, nil
}

// Len returns number of records in the source
func (s *CIFARSource) Len() int {
	return len(s.records)
}

// Image decodes CIFAR record at given index, the upstream semantic
// label byte is discarded
func (s *CIFARSource) Image(idx int) (*Image, error) {
	rec := s.records[idx][1:] // skip label byte
	img := NewImage(cifarSide, cifarSide, 3)
	for y := 0; y < cifarSide; y++ {
		for x := 0; x < cifarSide; x++ {
			pix := y*cifarSide + x
			img.Set(x, y, 0, float32(rec[pix])/255.0)
			img.Set(x, y, 1, float32(rec[cifarPixels+pix])/255.0)
			img.Set(x, y, 2, float32(rec[2*cifarPixels+pix])/255.0)
		}
	}
	if s.size == cifarSide && s.channels == 3 {
		return img, nil
	}
	// adjust shape through the common boundary path
	resized := resizeGoImage(img.ToRGBA(), s.size, s.mode)
	return FromGoImage(resized, s.channels)
}

// NewSource selects image source implementation for given data
// directory: CIFAR binary batches when present, plain image files
// otherwise
func NewSource(dir string, size, channels int, mode string) (ImageSource, error) {
	if batches, err := filepath.Glob(filepath.Join(dir, "*.bin")); err == nil && len(batches) > 0 {
		return NewCIFARSource(dir, size, channels, mode)
	}
	return NewDirSource(dir, size, channels, mode)
}

// Dataset wraps an image source and emits (image, binary label) pairs,
// the corruption decision is drawn independently on every access from
// an explicitly owned random generator
type Dataset struct {
	Source ImageSource
	Prob   float64
	seed   int64
	rng    *rand.Rand
}

// NewDataset creates labeled dataset wrapper with corruption
// probability p, zero seed means fresh randomness per process
func NewDataset(src ImageSource, prob float64, seed int64) *Dataset {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Dataset{
		Source: src,
		Prob:   prob,
		seed:   seed,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Len returns number of samples in the dataset
func (d *Dataset) Len() int {
	return d.Source.Len()
}

// Sample fetches (image, label) pair at given index, drawing the
// corruption decision from the dataset generator
func (d *Dataset) Sample(idx int) (*Image, int, *Descriptor, error) {
	return d.sampleWith(d.rng, idx)
}

// helper function to fetch a sample with an explicit random generator
func (d *Dataset) sampleWith(rng *rand.Rand, idx int) (*Image, int, *Descriptor, error) {
	img, err := d.Source.Image(idx)
	if err != nil {
		return nil, 0, nil, err
	}
	if rng.Float64() >= d.Prob {
		return img, SampleClean, nil, nil
	}
	desc := RandomDescriptor(rng, img.Width, img.Height)
	out, err := Corrupt(img, desc, rng)
	if err != nil {
		return nil, 0, nil, err
	}
	return out, SampleCorrupted, desc, nil
}

// helper function to convert (image, label) pair into feed-forward
// training sample with one-hot desired output
func toSample(img *Image, label int) *anyff.Sample {
	target := make([]float32, len(Classes))
	target[label] = 1
	return &anyff.Sample{
		Input:  anyvec32.MakeVectorData(append([]float32{}, img.Pix...)),
		Output: anyvec32.MakeVectorData(target),
	}
}

// Samples materializes feed-forward samples for given indices, fanning
// the work out across workers. Worker seeds are drawn from the dataset
// generator up front, so every worker owns an independent generator and
// repeated calls redraw the corruption decisions.
func (d *Dataset) Samples(indices []int, workers int) (anyff.SliceSampleList, error) {
	if workers > len(indices) {
		workers = len(indices)
	}
	if workers < 1 {
		workers = 1
	}
	seeds := make([]int64, workers)
	for w := range seeds {
		seeds[w] = d.rng.Int63()
	}
	out := make(anyff.SliceSampleList, len(indices))
	errs := make([]error, workers)
	chunk := (len(indices) + workers - 1) / workers
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		begin := w * chunk
		end := begin + chunk
		if end > len(indices) {
			end = len(indices)
		}
		if begin >= end {
			break
		}
		wg.Add(1)
		go func(w, begin, end int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seeds[w]))
			for i := begin; i < end; i++ {
				img, label, _, err := d.sampleWith(rng, indices[i])
				if err != nil {
					errs[w] = err
					return
				}
				out[i] = toSample(img, label)
			}
		}(w, begin, end)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
