package main

// config module
//
// Copyright (c) 2024 - Valentin Kuznetsov <vkuznet@gmail.com>
//

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
)

// Configuration stores server and training configuration parameters
type Configuration struct {
	// web server parts
	Base      string `json:"base"`       // base URL
	LogFile   string `json:"log_file"`   // server log file
	Port      int    `json:"port"`       // server port number
	Verbose   int    `json:"verbose"`    // verbose output
	StaticDir string `json:"static_dir"` // specify static dir location

	// server parts
	RootCAs       string   `json:"rootCAs"`      // server Root CAs path
	ServerCrt     string   `json:"server_cert"`  // server certificate
	ServerKey     string   `json:"server_key"`   // server certificate
	DomainNames   []string `json:"domain_names"` // LetsEncrypt domain names
	LimiterPeriod string   `json:"rate"`         // limiter rate value

	// model parts
	ImageSize      int    `json:"image_size"`      // model input image size
	ImageChannels  int    `json:"image_channels"`  // model input image channels
	ResizeMode     string `json:"resize_mode"`     // input resize mode: stretch or crop
	CheckpointPath string `json:"checkpoint_path"` // model checkpoint location

	// training parts
	DataDir            string  `json:"data_dir"`               // training images location
	Epochs             int     `json:"epochs"`                 // number of training epochs
	BatchSize          int     `json:"batch_size"`             // training batch size
	LearningRate       float64 `json:"learning_rate"`          // optimizer learning rate
	CorruptionProb     float64 `json:"corruption_probability"` // per-sample corruption probability
	ValidationFraction float64 `json:"validation_fraction"`    // held-out validation fraction
	Seed               int64   `json:"seed"`                   // dataset random seed, 0 for fresh randomness
	NumWorkers         int     `json:"num_workers"`            // concurrent dataset workers

	// MetaData parts
	DBURI  string `json:"db_uri"`  // meta-data server URI
	DBName string `json:"db_name"` // meta-data database name
	DBColl string `json:"db_coll"` // meta-data database collection
}

// Config variable represents configuration object
var Config Configuration

// helper function to parse server configuration file
func parseConfig(configFile string) error {
	if configFile != "" {
		data, err := os.ReadFile(filepath.Clean(configFile))
		if err != nil {
			log.Println("Unable to read", err)
			return err
		}
		err = json.Unmarshal(data, &Config)
		if err != nil {
			log.Println("Unable to parse", err)
			return err
		}
	}

	// default values
	if Config.Port == 0 {
		Config.Port = 8181
	}
	if Config.LimiterPeriod == "" {
		Config.LimiterPeriod = "100-S"
	}
	if Config.StaticDir == "" {
		cdir, err := os.Getwd()
		if err == nil {
			Config.StaticDir = filepath.Join(cdir, "static")
		} else {
			Config.StaticDir = "static"
		}
	}
	if Config.ImageSize == 0 {
		Config.ImageSize = 32
	}
	if Config.ImageChannels == 0 {
		Config.ImageChannels = 3
	}
	if Config.ResizeMode == "" {
		Config.ResizeMode = ResizeStretch
	}
	if !InList(Config.ResizeMode, ResizeModes) {
		log.Printf("unsupported resize_mode '%s', fall back to %s", Config.ResizeMode, ResizeStretch)
		Config.ResizeMode = ResizeStretch
	}
	if Config.CheckpointPath == "" {
		Config.CheckpointPath = "checkpoint.bin"
	}
	if Config.Epochs == 0 {
		Config.Epochs = 10
	}
	if Config.BatchSize == 0 {
		Config.BatchSize = 32
	}
	if Config.LearningRate == 0 {
		Config.LearningRate = 0.001
	}
	if Config.CorruptionProb == 0 {
		Config.CorruptionProb = 0.5
	}
	if Config.ValidationFraction == 0 {
		Config.ValidationFraction = 0.1
	}
	if Config.NumWorkers == 0 {
		Config.NumWorkers = 4
	}
	return nil
}
