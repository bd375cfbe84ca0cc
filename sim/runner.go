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

package sim

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/facebook/flight/mixer"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Runner owns one simulation: profile in, mixer outputs and statistics out,
// at a fixed rate.
type Runner struct {
	cfg     *Config
	profile *Profile
	mix     mixer.Mixer
	stats   *Stats

	outputs []float64
	csvFile *os.File
	csvW    *csv.Writer
}

// NewRunner builds the profile, mixer and stats the config describes.
func NewRunner(cfg *Config) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	profile, err := ParseProfile(cfg.Profile)
	if err != nil {
		return nil, fmt.Errorf("parsing profile: %w", err)
	}
	mix, err := cfg.BuildMixer(profile)
	if err != nil {
		return nil, err
	}
	r := &Runner{
		cfg:     cfg,
		profile: profile,
		mix:     mix,
		stats:   NewStats(mix.Count()),
		outputs: make([]float64, mix.Count()),
	}
	if cfg.CSV != "" {
		f, err := os.Create(cfg.CSV)
		if err != nil {
			return nil, err
		}
		r.csvFile = f
		r.csvW = csv.NewWriter(f)
		header := []string{"t"}
		for i := 0; i < mix.Count(); i++ {
			header = append(header, fmt.Sprintf("ch%d", i))
		}
		header = append(header, "saturation")
		if err := r.csvW.Write(header); err != nil {
			f.Close()
			return nil, err
		}
	}
	return r, nil
}

// Mixer returns the mixer under simulation.
func (r *Runner) Mixer() mixer.Mixer {
	return r.mix
}

// Stats returns the statistics collected so far.
func (r *Runner) Stats() *Stats {
	return r.stats
}

// Close flushes and releases the CSV output, if one was configured.
func (r *Runner) Close() error {
	if r.csvFile == nil {
		return nil
	}
	r.csvW.Flush()
	if err := r.csvW.Error(); err != nil {
		r.csvFile.Close()
		return err
	}
	return r.csvFile.Close()
}

// Run executes the simulation until the configured duration elapses or the
// context is cancelled. The monitoring HTTP server, when enabled, lives
// exactly as long as the run.
func (r *Runner) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	eg, ctx := errgroup.WithContext(ctx)

	if r.cfg.MonitoringPort > 0 {
		eg.Go(func() error {
			return r.serveMonitoring(ctx)
		})
		eg.Go(func() error {
			return r.collectSysStats(ctx)
		})
	}
	eg.Go(func() error {
		// Completing the run shuts the monitoring goroutines down too.
		defer cancel()
		return r.loop(ctx)
	})
	return eg.Wait()
}

func (r *Runner) loop(ctx context.Context) error {
	interval := r.cfg.Interval()
	budget := r.cfg.SlewRate * interval.Seconds()
	limit := 0
	if r.cfg.Duration > 0 {
		limit = int(math.Round(r.cfg.Duration * r.cfg.Rate))
	}
	log.Debugf("running %d cycles at %v", limit, interval)

	cycle := 0
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Debug("cancelled mixing loop")
			return ctx.Err()
		case <-timer.C:
			if limit > 0 && cycle >= limit {
				return nil
			}
			timer.Reset(interval)
			r.step(float64(cycle)*interval.Seconds(), budget)
			cycle++
		}
	}
}

// step runs one mixing cycle at simulation time t.
func (r *Runner) step(t, slewBudget float64) {
	r.profile.SetTime(t)
	if slewBudget > 0 {
		r.mix.SetSlewRateLimit(slewBudget)
	}
	n := r.mix.Mix(r.outputs)

	r.stats.UpdateCounterBy("cycles", 1)
	sat := r.mix.SaturationStatus()
	if sat.Saturated() {
		r.stats.UpdateCounterBy("cycles.saturated", 1)
		log.Debugf("cycle at t=%.3fs saturated: %s", t, sat.String())
	}
	if sat.MotorPos {
		r.stats.UpdateCounterBy("saturation.motor.pos", 1)
	}
	if sat.MotorNeg {
		r.stats.UpdateCounterBy("saturation.motor.neg", 1)
	}
	if sat.RollPos {
		r.stats.UpdateCounterBy("saturation.roll.pos", 1)
	}
	if sat.RollNeg {
		r.stats.UpdateCounterBy("saturation.roll.neg", 1)
	}
	if sat.PitchPos {
		r.stats.UpdateCounterBy("saturation.pitch.pos", 1)
	}
	if sat.PitchNeg {
		r.stats.UpdateCounterBy("saturation.pitch.neg", 1)
	}
	if sat.YawPos {
		r.stats.UpdateCounterBy("saturation.yaw.pos", 1)
	}
	if sat.YawNeg {
		r.stats.UpdateCounterBy("saturation.yaw.neg", 1)
	}
	if sat.ThrustPos {
		r.stats.UpdateCounterBy("saturation.thrust.pos", 1)
	}
	if sat.ThrustNeg {
		r.stats.UpdateCounterBy("saturation.thrust.neg", 1)
	}
	r.stats.ObserveOutputs(r.outputs[:n])

	if r.csvW != nil {
		row := make([]string, 0, n+2)
		row = append(row, strconv.FormatFloat(t, 'g', -1, 64))
		for _, v := range r.outputs[:n] {
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		row = append(row, sat.String())
		if err := r.csvW.Write(row); err != nil {
			log.Errorf("writing csv row: %v", err)
		}
	}
}

func (r *Runner) serveMonitoring(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", r.stats.handleReport)
	mux.HandleFunc("/counters", r.stats.handleCounters)
	mux.Handle("/metrics", newPromExporter(r.stats).handler())

	addr := fmt.Sprintf(":%d", r.cfg.MonitoringPort)
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Errorf("shutting down monitoring server: %v", err)
		}
	}()
	log.Infof("Starting http monitoring server on %s", addr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (r *Runner) collectSysStats(ctx context.Context) error {
	sys := &SysStats{}
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			counters, err := sys.Collect()
			if err != nil {
				log.Errorf("collecting system stats: %v", err)
				continue
			}
			for k, v := range counters {
				r.stats.SetCounter(k, v)
			}
		}
	}
}
