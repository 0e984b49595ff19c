package main

// imgqc - Go implementation of image corruption classifier service,
// it trains a binary clean/corrupted classifier and serves it behind
// a prediction endpoint
//
// Copyright (c) 2024 - Valentin Kuznetsov <vkuznet@gmail.com>
//

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"time"

	_ "expvar"         // to be used for monitoring, see https://github.com/divan/expvarmon
	_ "net/http/pprof" // profiler, see https://golang.org/pkg/net/http/pprof/
)

// version of the code
var version string

// helper function to return version string of the server
func info() string {
	goVersion := runtime.Version()
	tstamp := time.Now().Format("2006-02-01")
	return fmt.Sprintf("imgqc git=%s go=%s date=%s", version, goVersion, tstamp)
}

func main() {
	var config string
	flag.StringVar(&config, "config", "", "configuration file")
	var train bool
	flag.BoolVar(&train, "train", false, "run training job instead of the server")
	var version bool
	flag.BoolVar(&version, "version", false, "print version information about the server")
	flag.Parse()
	if version {
		fmt.Println(info())
		os.Exit(0)
	}
	err := parseConfig(config)
	if err != nil {
		log.Fatalf("unable to parse config %s, error %v\n", config, err)
	}

	// configure logger with log time, filename, and line number
	setupLogger()

	if Config.Verbose > 0 {
		log.Printf("%+v\n", Config)
	}

	if train {
		report, err := Train()
		if err != nil {
			log.Fatalf("training run failed, error %v\n", err)
		}
		log.Printf("training done, best epoch %d accuracy %.4f checkpoint %s",
			report.BestEpoch, report.BestAccuracy, report.CheckpointPath)
		return
	}

	// start imgqc server
	Server()
}
