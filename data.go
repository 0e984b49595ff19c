package main

// data module holds all data representations used in our package
//
// Copyright (c) 2024 - Valentin Kuznetsov <vkuznet@gmail.com>
//

import (
	"encoding/json"
)

// class labels of the binary classifier, index order matches model logits
const (
	LabelClean     = "clean"
	LabelCorrupted = "corrupted"
)

// Classes defines classifier class names
var Classes = []string{LabelClean, LabelCorrupted}

// resize modes for incoming images whose resolution differs from the
// model input size
const (
	ResizeStretch = "stretch"
	ResizeCrop    = "crop"
)

// ResizeModes defines supported resize modes
var ResizeModes = []string{ResizeStretch, ResizeCrop}

// PredictionResult represents outcome of single classification call
type PredictionResult struct {
	Label      string             `json:"label"`      // predicted class name
	Confidence float64            `json:"confidence"` // max class probability
	Probs      map[string]float64 `json:"probs"`      // per-class probabilities
}

// ToJSON provides string representation of PredictionResult
func (p PredictionResult) ToJSON() string {
	data, _ := json.MarshalIndent(p, "", "    ")
	return string(data)
}

// TrainReport represents outcome of a training run
type TrainReport struct {
	Epochs         int       `json:"epochs"`          // number of epochs performed
	BestEpoch      int       `json:"best_epoch"`      // epoch of the best validation accuracy
	BestAccuracy   float64   `json:"best_accuracy"`   // best validation accuracy
	Accuracies     []float64 `json:"accuracies"`      // per-epoch validation accuracies
	CheckpointPath string    `json:"checkpoint_path"` // location of persisted checkpoint
}

// RunRecord defines training run mongo record
type RunRecord struct {
	Model          string  `json:"model"`                  // model name
	Epochs         int     `json:"epochs"`                 // number of epochs
	BatchSize      int     `json:"batch_size"`             // training batch size
	LearningRate   float64 `json:"learning_rate"`          // optimizer learning rate
	CorruptionProb float64 `json:"corruption_probability"` // per-sample corruption probability
	BestEpoch      int     `json:"best_epoch"`             // best epoch
	BestAccuracy   float64 `json:"best_accuracy"`          // best validation accuracy
	Checkpoint     string  `json:"checkpoint"`             // checkpoint location
	Timestamp      int64   `json:"timestamp"`              // record timestamp
}

// ToJSON provides string representation of RunRecord
func (r RunRecord) ToJSON() string {
	data, _ := json.MarshalIndent(r, "", "    ")
	return string(data)
}
