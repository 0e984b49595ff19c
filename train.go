package main

// train module drives the training/evaluation loop: for every epoch it
// optimizes the classifier over the training partition, measures
// validation accuracy and persists the checkpoint on strict improvement
//
// Copyright (c) 2024 - Valentin Kuznetsov <vkuznet@gmail.com>
//

import (
	"fmt"
	"log"
	"time"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anynet"
	"github.com/unixpickle/anynet/anyff"
	"github.com/unixpickle/anynet/anysgd"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/anyvec/anyvec32"
)

// sampleProvider yields feed-forward samples for dataset indices
type sampleProvider interface {
	Samples(indices []int, workers int) (anyff.SliceSampleList, error)
}

// trainParams bundles hyper-parameters of a single training run
type trainParams struct {
	Epochs         int
	BatchSize      int
	LearningRate   float64
	Workers        int
	ImageSize      int
	ImageChannels  int
	CheckpointPath string
}

// Train runs a full training job according to the server configuration
// and returns its report. Dataset access failure is fatal to the run.
func Train() (*TrainReport, error) {
	src, err := NewSource(Config.DataDir, Config.ImageSize, Config.ImageChannels, Config.ResizeMode)
	if err != nil {
		return nil, err
	}
	ds := NewDataset(src, Config.CorruptionProb, Config.Seed)
	trainIdx, valIdx := splitIndices(ds.Len(), Config.ValidationFraction)
	if len(trainIdx) == 0 || len(valIdx) == 0 {
		return nil, fmt.Errorf("%w: %d images is not enough for a train/validation split",
			ErrDatasetUnavailable, ds.Len())
	}
	log.Printf("dataset %T with %d images, %d train %d validation, corruption probability %.2f",
		src, ds.Len(), len(trainIdx), len(valIdx), Config.CorruptionProb)

	net, err := BuildClassifier(Config.ImageSize, Config.ImageChannels)
	if err != nil {
		return nil, err
	}
	params := trainParams{
		Epochs:         Config.Epochs,
		BatchSize:      Config.BatchSize,
		LearningRate:   Config.LearningRate,
		Workers:        Config.NumWorkers,
		ImageSize:      Config.ImageSize,
		ImageChannels:  Config.ImageChannels,
		CheckpointPath: Config.CheckpointPath,
	}
	report, err := runTraining(net, ds, trainIdx, valIdx, params)
	if err != nil {
		return nil, err
	}

	// keep training run history in MetaData database when configured
	if Config.DBURI != "" {
		history := &RunHistory{DBName: Config.DBName, DBColl: Config.DBColl}
		rec := RunRecord{
			Model:          "imgqc",
			Epochs:         params.Epochs,
			BatchSize:      params.BatchSize,
			LearningRate:   params.LearningRate,
			CorruptionProb: Config.CorruptionProb,
			BestEpoch:      report.BestEpoch,
			BestAccuracy:   report.BestAccuracy,
			Checkpoint:     report.CheckpointPath,
			Timestamp:      time.Now().Unix(),
		}
		if err := history.Insert(rec); err != nil {
			log.Printf("unable to insert run record, error %v", err)
		}
	}
	return report, nil
}

// helper function to split dataset indices into train and held-out
// validation partitions
func splitIndices(total int, valFraction float64) ([]int, []int) {
	valSize := int(float64(total) * valFraction)
	if valSize < 1 && total > 1 {
		valSize = 1
	}
	var trainIdx, valIdx []int
	for i := 0; i < total-valSize; i++ {
		trainIdx = append(trainIdx, i)
	}
	for i := total - valSize; i < total; i++ {
		valIdx = append(valIdx, i)
	}
	return trainIdx, valIdx
}

// runTraining performs the epoch loop over given partitions. The best
// validation accuracy is an explicit value threaded through the loop
// rather than process-wide state.
func runTraining(net anynet.Net, ds sampleProvider, trainIdx, valIdx []int, p trainParams) (*TrainReport, error) {
	creator := anyvec32.CurrentCreator()
	trainer := &anyff.Trainer{
		Net:     net,
		Cost:    anynet.DotCost{},
		Params:  net.Parameters(),
		Average: true,
	}
	adam := &anysgd.Adam{}
	report := &TrainReport{Epochs: p.Epochs, CheckpointPath: p.CheckpointPath}

	best := -1.0
	bestEpoch := 0
	for epoch := 1; epoch <= p.Epochs; epoch++ {
		start := time.Now()
		samples, err := ds.Samples(trainIdx, p.Workers)
		if err != nil {
			return nil, err
		}
		anysgd.Shuffle(samples)
		for i := 0; i < samples.Len(); i += p.BatchSize {
			end := i + p.BatchSize
			if end > samples.Len() {
				end = samples.Len()
			}
			batch, err := trainer.Fetch(samples.Slice(i, end))
			if err != nil {
				return nil, err
			}
			grad := trainer.Gradient(batch)
			grad = adam.Transform(grad)
			grad.Scale(creator.MakeNumeric(-p.LearningRate))
			grad.AddToVars()
		}

		valSamples, err := ds.Samples(valIdx, p.Workers)
		if err != nil {
			return nil, err
		}
		accuracy := evaluate(net, valSamples, p.BatchSize)
		report.Accuracies = append(report.Accuracies, accuracy)

		meta := CheckpointMeta{
			ImageSize:     p.ImageSize,
			ImageChannels: p.ImageChannels,
			Classes:       Classes,
			Epoch:         epoch,
			Accuracy:      accuracy,
		}
		newBest, saved, err := checkpointIfBest(p.CheckpointPath, net, meta, best)
		if err != nil {
			return nil, err
		}
		if saved {
			best = newBest
			bestEpoch = epoch
		}
		log.Printf("epoch %d/%d cost=%v accuracy=%.4f best=%.4f (epoch %d) elapsed=%v",
			epoch, p.Epochs, trainer.LastCost, accuracy, best, bestEpoch, time.Since(start))
	}
	report.BestEpoch = bestEpoch
	report.BestAccuracy = best
	return report, nil
}

// checkpointIfBest persists the checkpoint only when accuracy strictly
// exceeds the best seen so far, ties leave the previous checkpoint
// untouched
func checkpointIfBest(path string, net anynet.Net, meta CheckpointMeta, best float64) (float64, bool, error) {
	if meta.Accuracy <= best {
		return best, false, nil
	}
	if err := SaveCheckpoint(path, net, meta); err != nil {
		return best, false, err
	}
	return meta.Accuracy, true, nil
}

// evaluate computes classification accuracy over given samples without
// gradient computation
func evaluate(net anynet.Net, samples anyff.SliceSampleList, batchSize int) float64 {
	creator := anyvec32.CurrentCreator()
	var correct, total int
	k := len(Classes)
	for i := 0; i < samples.Len(); i += batchSize {
		end := i + batchSize
		if end > samples.Len() {
			end = samples.Len()
		}
		n := end - i
		ins := make([]anyvec.Vector, 0, n)
		outs := make([]anyvec.Vector, 0, n)
		for j := i; j < end; j++ {
			ins = append(ins, samples[j].Input)
			outs = append(outs, samples[j].Output)
		}
		res := net.Apply(anydiff.NewConst(creator.Concat(ins...)), n)
		data := res.Output().Data().([]float32)
		for j := 0; j < n; j++ {
			pred := argmax(data[j*k : (j+1)*k])
			want := argmax(outs[j].Data().([]float32))
			if pred == want {
				correct++
			}
			total++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(correct) / float64(total)
}

// helper function to find index of the maximum value
func argmax(vals []float32) int {
	idx := 0
	for i, v := range vals {
		if v > vals[idx] {
			idx = i
		}
	}
	return idx
}
