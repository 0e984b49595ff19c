package main

// infer module wraps a trained checkpoint behind a single classify call
//
// Copyright (c) 2024 - Valentin Kuznetsov <vkuznet@gmail.com>
//

import (
	"math"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anynet"
	"github.com/unixpickle/anyvec/anyvec32"
)

// Predictor classifies images with a classifier loaded from a
// persisted checkpoint. The checkpoint is read once at construction
// and the predictor is purely functional afterwards.
type Predictor struct {
	net        anynet.Net
	Meta       CheckpointMeta
	ResizeMode string
}

// NewPredictor loads checkpoint from given location and verifies it
// matches the requested model architecture
func NewPredictor(checkpoint string, size, channels int, resizeMode string) (*Predictor, error) {
	net, meta, err := LoadCheckpoint(checkpoint, size, channels)
	if err != nil {
		return nil, err
	}
	if resizeMode == "" {
		resizeMode = ResizeStretch
	}
	return &Predictor{net: net, Meta: meta, ResizeMode: resizeMode}, nil
}

// Classify decodes raw image bytes, forward-passes them through the
// classifier and returns label, confidence and per-class probabilities
// which sum to one
func (p *Predictor) Classify(data []byte) (*PredictionResult, error) {
	img, err := DecodeImage(data, p.Meta.ImageSize, p.Meta.ImageChannels, p.ResizeMode)
	if err != nil {
		return nil, err
	}
	return p.ClassifyImage(img)
}

// ClassifyImage classifies an already normalized image
func (p *Predictor) ClassifyImage(img *Image) (*PredictionResult, error) {
	if !img.Valid() || img.Width != p.Meta.ImageSize || img.Height != p.Meta.ImageSize ||
		img.Channels != p.Meta.ImageChannels {
		return nil, ErrInvalidInput
	}
	in := anyvec32.MakeVectorData(append([]float32{}, img.Pix...))
	res := p.net.Apply(anydiff.NewConst(in), 1)
	logProbs := res.Output().Data().([]float32)

	result := &PredictionResult{Probs: make(map[string]float64)}
	maxIdx := argmax(logProbs)
	for i, class := range p.Meta.Classes {
		// network emits log-softmax outputs
		result.Probs[class] = math.Exp(float64(logProbs[i]))
	}
	result.Label = p.Meta.Classes[maxIdx]
	result.Confidence = result.Probs[result.Label]
	return result, nil
}
