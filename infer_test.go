package main

import (
	"errors"
	"path/filepath"
	"testing"
)

// helper function to persist an untrained checkpoint for given shape
func saveTestCheckpoint(t *testing.T, size, channels int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "checkpoint.bin")
	net, err := BuildClassifier(size, channels)
	if err != nil {
		t.Fatalf("unable to build classifier, error %v", err)
	}
	meta := CheckpointMeta{ImageSize: size, ImageChannels: channels, Classes: Classes, Epoch: 1, Accuracy: 0.5}
	if err := SaveCheckpoint(path, net, meta); err != nil {
		t.Fatalf("unable to save checkpoint, error %v", err)
	}
	return path
}

// TestNewPredictorMissingCheckpoint
func TestNewPredictorMissingCheckpoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.bin")
	if _, err := NewPredictor(path, 8, 1, ResizeStretch); !errors.Is(err, ErrCheckpointNotFound) {
		t.Errorf("expected ErrCheckpointNotFound, got %v", err)
	}
}

// TestNewPredictorIncompatibleCheckpoint
func TestNewPredictorIncompatibleCheckpoint(t *testing.T) {
	path := saveTestCheckpoint(t, 8, 1)
	if _, err := NewPredictor(path, 16, 3, ResizeStretch); !errors.Is(err, ErrCheckpointIncompatible) {
		t.Errorf("expected ErrCheckpointIncompatible, got %v", err)
	}
}

// TestPredictorProbabilities checks that even an untrained classifier
// emits a proper probability distribution over both classes
func TestPredictorProbabilities(t *testing.T) {
	path := saveTestCheckpoint(t, 8, 1)
	predictor, err := NewPredictor(path, 8, 1, ResizeStretch)
	if err != nil {
		t.Fatalf("unable to load checkpoint, error %v", err)
	}
	img := testImage(8, 8, 1, 3)
	result, err := predictor.ClassifyImage(img)
	if err != nil {
		t.Fatalf("unable to classify image, error %v", err)
	}
	if !InList(result.Label, Classes) {
		t.Errorf("unknown label %s", result.Label)
	}
	if len(result.Probs) != len(Classes) {
		t.Errorf("wrong number of probabilities %d", len(result.Probs))
	}
	sum := 0.0
	for class, p := range result.Probs {
		if p < 0 || p > 1 {
			t.Errorf("probability %v for class %s out of range", p, class)
		}
		sum += p
	}
	if sum < 0.999 || sum > 1.001 {
		t.Errorf("probabilities sum to %v", sum)
	}
	if result.Confidence != result.Probs[result.Label] {
		t.Errorf("confidence %v does not match label probability", result.Confidence)
	}
}

// TestPredictorClassifyBytes classifies raw encoded image bytes
func TestPredictorClassifyBytes(t *testing.T) {
	path := saveTestCheckpoint(t, 8, 3)
	predictor, err := NewPredictor(path, 8, 3, ResizeStretch)
	if err != nil {
		t.Fatalf("unable to load checkpoint, error %v", err)
	}
	result, err := predictor.Classify(testPNG(10, 6))
	if err != nil {
		t.Fatalf("unable to classify image bytes, error %v", err)
	}
	if !InList(result.Label, Classes) {
		t.Errorf("unknown label %s", result.Label)
	}
	if _, err := predictor.Classify([]byte("not an image")); !errors.Is(err, ErrInvalidImage) {
		t.Errorf("expected ErrInvalidImage, got %v", err)
	}
}

// TestPredictorShapeMismatch
func TestPredictorShapeMismatch(t *testing.T) {
	path := saveTestCheckpoint(t, 8, 1)
	predictor, err := NewPredictor(path, 8, 1, ResizeStretch)
	if err != nil {
		t.Fatalf("unable to load checkpoint, error %v", err)
	}
	if _, err := predictor.ClassifyImage(testImage(16, 16, 1, 3)); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
