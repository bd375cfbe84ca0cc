/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/facebook/flight/sim"

	_ "net/http/pprof"
)

func doWork(cfg *sim.Config) error {
	runner, err := sim.NewRunner(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigStop := make(chan os.Signal, 1)
	signal.Notify(sigStop, syscall.SIGINT)
	signal.Notify(sigStop, syscall.SIGTERM)
	go func() {
		<-sigStop
		log.Warning("Graceful shutdown")
		cancel()
	}()

	err = runner.Run(ctx)
	if errors.Is(err, context.Canceled) {
		// an interrupt is the normal way to end an endless run
		err = nil
	}
	if closeErr := runner.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

func main() {
	var (
		verboseFlag        bool
		configFlag         string
		csvFlag            string
		durationFlag       float64
		monitoringPortFlag int
		pprofFlag          string
	)
	defaults := sim.DefaultConfig()

	flag.BoolVar(&verboseFlag, "verbose", false, "verbose output")
	flag.StringVar(&configFlag, "config", "", "path to the simulation config")
	flag.StringVar(&csvFlag, "csv", defaults.CSV, "path to write per-cycle outputs as CSV, disabled if empty")
	flag.Float64Var(&durationFlag, "duration", defaults.Duration, "simulated seconds to run, 0 means run until interrupted")
	flag.IntVar(&monitoringPortFlag, "monitoringport", defaults.MonitoringPort, "port to start monitoring http server on")
	flag.StringVar(&pprofFlag, "pprof", "", "Address to have the profiler listen on, disabled if empty.")

	flag.Parse()
	setFlags := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	log.SetLevel(log.InfoLevel)
	if verboseFlag {
		log.SetLevel(log.DebugLevel)
	}

	cfg := defaults
	if configFlag != "" {
		var err error
		if cfg, err = sim.ReadConfig(configFlag); err != nil {
			log.Fatal(err)
		}
	}
	// command line beats the config file
	if setFlags["csv"] {
		cfg.CSV = csvFlag
	}
	if setFlags["duration"] {
		cfg.Duration = durationFlag
	}
	if setFlags["monitoringport"] {
		cfg.MonitoringPort = monitoringPortFlag
	}

	if pprofFlag != "" {
		go func() {
			if err := http.ListenAndServe(pprofFlag, nil); err != nil {
				log.Errorf("Failed to start pprof. Err: %v", err)
			}
		}()
	}
	if err := doWork(cfg); err != nil {
		log.Fatal(err)
	}
}
