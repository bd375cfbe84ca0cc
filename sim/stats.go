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
	"encoding/json"
	"math"
	"net/http"
	"sync"

	"github.com/eclesh/welford"
	log "github.com/sirupsen/logrus"
)

// StatsServer is the interface the runner feeds cycle results into.
type StatsServer interface {
	// Reset atomically sets all the counters to 0
	Reset()
	SetCounter(key string, val int64)
	UpdateCounterBy(key string, count int64)
	ObserveOutputs(outputs []float64)
}

// ChannelReport aggregates one output channel over a run.
type ChannelReport struct {
	Mean   float64 `json:"mean"`
	Stddev float64 `json:"stddev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Report is the full monitoring payload.
type Report struct {
	Counters map[string]int64 `json:"counters"`
	Channels []ChannelReport  `json:"channels"`
}

// Stats implements StatsServer around mutexed maps and per-channel
// streaming aggregates.
type Stats struct {
	mux      sync.Mutex
	counters map[string]int64
	channels []*welford.Stats
	min, max []float64
}

// NewStats creates a Stats for the given number of output channels.
func NewStats(channels int) *Stats {
	s := &Stats{counters: map[string]int64{}}
	s.grow(channels)
	return s
}

func (s *Stats) grow(channels int) {
	s.channels = make([]*welford.Stats, channels)
	s.min = make([]float64, channels)
	s.max = make([]float64, channels)
	for i := range s.channels {
		s.channels[i] = welford.New()
		s.min[i] = math.Inf(1)
		s.max[i] = math.Inf(-1)
	}
}

// UpdateCounterBy will increment counter
func (s *Stats) UpdateCounterBy(key string, count int64) {
	s.mux.Lock()
	s.counters[key] += count
	s.mux.Unlock()
}

// SetCounter will set a counter to the provided value.
func (s *Stats) SetCounter(key string, val int64) {
	s.mux.Lock()
	s.counters[key] = val
	s.mux.Unlock()
}

// ObserveOutputs feeds one cycle of mixer outputs into the per-channel
// aggregates.
func (s *Stats) ObserveOutputs(outputs []float64) {
	s.mux.Lock()
	for i, v := range outputs {
		if i >= len(s.channels) {
			break
		}
		s.channels[i].Add(v)
		if v < s.min[i] {
			s.min[i] = v
		}
		if v > s.max[i] {
			s.max[i] = v
		}
	}
	s.mux.Unlock()
}

// Get returns a map of counters
func (s *Stats) Get() map[string]int64 {
	ret := make(map[string]int64)
	s.mux.Lock()
	for key, val := range s.counters {
		ret[key] = val
	}
	s.mux.Unlock()
	return ret
}

// Report returns a copy of everything collected so far.
func (s *Stats) Report() *Report {
	s.mux.Lock()
	defer s.mux.Unlock()
	r := &Report{
		Counters: make(map[string]int64, len(s.counters)),
		Channels: make([]ChannelReport, len(s.channels)),
	}
	for key, val := range s.counters {
		r.Counters[key] = val
	}
	for i, w := range s.channels {
		cr := ChannelReport{
			Mean:   w.Mean(),
			Stddev: w.Stddev(),
			Min:    s.min[i],
			Max:    s.max[i],
		}
		// No samples yet: the infinities would not survive json.Marshal.
		if math.IsInf(cr.Min, 1) {
			cr.Min, cr.Max = 0, 0
		}
		r.Channels[i] = cr
	}
	return r
}

// Reset all the values of counters and the channel aggregates
func (s *Stats) Reset() {
	s.mux.Lock()
	for k := range s.counters {
		s.counters[k] = 0
	}
	s.grow(len(s.channels))
	s.mux.Unlock()
}

// handleReport serves the full report on the monitoring root.
func (s *Stats) handleReport(w http.ResponseWriter, _ *http.Request) {
	js, err := json.Marshal(s.Report())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err = w.Write(js); err != nil {
		log.Errorf("Failed to reply: %v", err)
	}
}

// handleCounters serves the counters alone.
func (s *Stats) handleCounters(w http.ResponseWriter, _ *http.Request) {
	js, err := json.Marshal(s.Get())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err = w.Write(js); err != nil {
		log.Errorf("Failed to reply: %v", err)
	}
}
