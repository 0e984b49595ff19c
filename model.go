package main

// model module builds the convolutional-residual classifier and manages
// its checkpoints. A checkpoint is a serialized parameter blob paired
// with a sidecar JSON meta-data file used to verify architecture
// compatibility between producer and consumer.
//
// Copyright (c) 2024 - Valentin Kuznetsov <vkuznet@gmail.com>
//

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/unixpickle/anynet"
	"github.com/unixpickle/anynet/anyconv"
	"github.com/unixpickle/anyvec/anyvec32"
	"github.com/unixpickle/serializer"
)

// network markup template, two residual blocks with 3x3 convolutions
// and two pooling stages feeding the 2-way classification head
const networkMarkup = `
Input(w=%d, h=%d, d=%d)
Padding(t=1, b=1, l=1, r=1)
Conv(w=3, h=3, n=16)
ReLU
Residual {
  Padding(t=1, b=1, l=1, r=1)
  Conv(w=3, h=3, n=16)
  ReLU
  Padding(t=1, b=1, l=1, r=1)
  Conv(w=3, h=3, n=16)
}
MaxPool(w=2, h=2)
ReLU
Residual {
  Padding(t=1, b=1, l=1, r=1)
  Conv(w=3, h=3, n=16)
  ReLU
  Padding(t=1, b=1, l=1, r=1)
  Conv(w=3, h=3, n=16)
}
MaxPool(w=2, h=2)
ReLU
FC(out=32)
ReLU
FC(out=%d)
`

// CheckpointMeta describes persisted classifier parameters
type CheckpointMeta struct {
	ImageSize     int      `json:"image_size"`     // model input image size
	ImageChannels int      `json:"image_channels"` // model input image channels
	Classes       []string `json:"classes"`        // classifier class names
	Epoch         int      `json:"epoch"`          // epoch at which checkpoint was saved
	Accuracy      float64  `json:"accuracy"`       // validation accuracy at that epoch
	Timestamp     int64    `json:"timestamp"`      // checkpoint creation time
}

// helper function to locate sidecar meta-data file of a checkpoint
func metaPath(checkpoint string) string {
	return checkpoint + ".json"
}

// BuildClassifier constructs the convolutional-residual network mapping
// an image to class log-probabilities. Image size must be divisible by
// four to survive both pooling stages.
func BuildClassifier(size, channels int) (anynet.Net, error) {
	if size < 4 || size%4 != 0 {
		return nil, fmt.Errorf("%w: image size %d not divisible by 4", ErrInvalidInput, size)
	}
	creator := anyvec32.CurrentCreator()
	markup := fmt.Sprintf(networkMarkup, size, size, channels, len(Classes))
	net, err := anyconv.FromMarkup(creator, markup)
	if err != nil {
		return nil, err
	}
	return append(net.(anynet.Net), anynet.LogSoftmax), nil
}

// SaveCheckpoint persists classifier parameters with meta-data, the
// previous checkpoint at this location is overwritten
func SaveCheckpoint(path string, net anynet.Net, meta CheckpointMeta) error {
	if meta.Timestamp == 0 {
		meta.Timestamp = time.Now().Unix()
	}
	if err := serializer.SaveAny(path, net); err != nil {
		return err
	}
	data, err := json.MarshalIndent(meta, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(metaPath(path), data, 0644)
}

// LoadCheckpoint reads classifier parameters from given location and
// verifies they are compatible with the requested architecture
func LoadCheckpoint(path string, size, channels int) (anynet.Net, CheckpointMeta, error) {
	var meta CheckpointMeta
	if _, err := os.Stat(path); err != nil {
		return nil, meta, fmt.Errorf("%w: %s", ErrCheckpointNotFound, path)
	}
	data, err := os.ReadFile(metaPath(path))
	if err != nil {
		return nil, meta, fmt.Errorf("%w: missing meta-data for %s", ErrCheckpointIncompatible, path)
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, meta, fmt.Errorf("%w: %v", ErrCheckpointIncompatible, err)
	}
	if meta.ImageSize != size || meta.ImageChannels != channels || len(meta.Classes) != len(Classes) {
		return nil, meta, fmt.Errorf("%w: checkpoint built for size=%d channels=%d classes=%d",
			ErrCheckpointIncompatible, meta.ImageSize, meta.ImageChannels, len(meta.Classes))
	}
	var net anynet.Net
	if err := serializer.LoadAny(path, &net); err != nil {
		return nil, meta, fmt.Errorf("%w: %v", ErrCheckpointIncompatible, err)
	}
	return net, meta, nil
}
