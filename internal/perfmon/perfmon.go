// Package perfmon implements a single-session performance monitor for one
// sampling pass: counters and timers guarded by a mutex, with an atomic
// active flag so GetMetrics can take a live snapshot without blocking a
// concurrent sampling session.
package perfmon

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// SamplingMetrics is a snapshot of one sampling session's counters and
// derived rates.
type SamplingMetrics struct {
	RequestedSamples     int     `json:"requested_samples"`
	ActualSamples        int     `json:"actual_samples"`
	NeuralNetEvaluations int     `json:"neural_net_evaluations"`
	CachedEvaluations    int     `json:"cached_evaluations"`
	HeuristicEvaluations int     `json:"heuristic_evaluations"`
	TotalTimeMs          float64 `json:"total_time_ms"`
	AvgTimePerSampleMs   float64 `json:"avg_time_per_sample_ms"`
	NeuralNetTimeMs      float64 `json:"neural_net_time_ms"`
	SamplesPerSecond     float64 `json:"samples_per_second"`
}

func (m *SamplingMetrics) reset() {
	*m = SamplingMetrics{}
}

func (m *SamplingMetrics) calculateDerived() {
	if m.ActualSamples > 0 {
		m.AvgTimePerSampleMs = m.TotalTimeMs / float64(m.ActualSamples)
	} else {
		m.AvgTimePerSampleMs = 0.0
	}
	if m.TotalTimeMs > 0.0 {
		m.SamplesPerSecond = float64(m.ActualSamples) * 1000.0 / m.TotalTimeMs
	} else {
		m.SamplesPerSecond = 0.0
	}
}

// WarnFunc receives a warning produced internally by the monitor (e.g. an
// unrecognized evaluation-method token). The Controller wires this to its
// logger.
type WarnFunc func(message string)

// Monitor tracks counters and timers for one sampling session at a time. It
// is not designed for multi-producer sampling: the mutex serializes all
// mutation, and the active flag is atomic purely so GetMetrics can return a
// live snapshot without deadlocking against an ongoing session.
type Monitor struct {
	mu      sync.Mutex
	metrics SamplingMetrics
	start   time.Time
	enabled atomic.Bool
	active  atomic.Bool

	OnWarning WarnFunc
}

// New returns an enabled Monitor.
func New() *Monitor {
	m := &Monitor{}
	m.enabled.Store(true)
	return m
}

func (m *Monitor) SetEnabled(enabled bool) { m.enabled.Store(enabled) }
func (m *Monitor) IsEnabled() bool         { return m.enabled.Load() }

// StartSampling resets all counters and transitions the monitor to active.
func (m *Monitor) StartSampling(requestedSamples int) {
	if !m.enabled.Load() {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.metrics.reset()
	m.metrics.RequestedSamples = requestedSamples
	m.start = time.Now()
	m.active.Store(true)
}

// RecordSample increments the counter bucket for the named evaluation
// method. Unknown method tokens are bucketed as neural_network and surface
// a warning.
func (m *Monitor) RecordSample(method string, elapsedMs float64) {
	if !m.enabled.Load() || !m.active.Load() {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.metrics.ActualSamples++

	switch method {
	case "neural_network", "neural_net":
		m.metrics.NeuralNetEvaluations++
		m.metrics.NeuralNetTimeMs += elapsedMs
	case "cached", "cache":
		m.metrics.CachedEvaluations++
	case "heuristic":
		m.metrics.HeuristicEvaluations++
	default:
		m.metrics.NeuralNetEvaluations++
		m.metrics.NeuralNetTimeMs += elapsedMs
		if m.OnWarning != nil {
			m.OnWarning(fmt.Sprintf("unknown evaluation method %q, categorizing as neural_network", method))
		}
	}
}

// RecordNeuralNetEvaluation is a direct helper for callers that already
// know the bucket.
func (m *Monitor) RecordNeuralNetEvaluation(elapsedMs float64) {
	if !m.enabled.Load() || !m.active.Load() {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metrics.NeuralNetEvaluations++
	m.metrics.NeuralNetTimeMs += elapsedMs
}

func (m *Monitor) RecordCachedEvaluation() {
	if !m.enabled.Load() || !m.active.Load() {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metrics.CachedEvaluations++
}

func (m *Monitor) RecordHeuristicEvaluation() {
	if !m.enabled.Load() || !m.active.Load() {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metrics.HeuristicEvaluations++
}

// EndSampling finalizes total_time_ms and the derived fields, and
// transitions the monitor back to idle.
func (m *Monitor) EndSampling() {
	if !m.enabled.Load() || !m.active.Load() {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.metrics.TotalTimeMs = float64(time.Since(m.start).Microseconds()) / 1000.0
	m.metrics.calculateDerived()
	m.active.Store(false)
}

// GetMetrics returns a snapshot. If called while active, the snapshot's
// timing fields reflect elapsed time so far, without mutating the
// monitor's own state.
func (m *Monitor) GetMetrics() SamplingMetrics {
	if !m.enabled.Load() {
		return SamplingMetrics{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	metrics := m.metrics
	if m.active.Load() {
		metrics.TotalTimeMs = float64(time.Since(m.start).Microseconds()) / 1000.0
		metrics.calculateDerived()
	}
	return metrics
}

// ExportMetrics appends one line to filename: a JSON object holding a
// timestamp (Unix milliseconds, as a string) and the metrics snapshot
// nested under "metrics".
func (m *Monitor) ExportMetrics(filename string) error {
	if !m.enabled.Load() {
		return nil
	}
	m.mu.Lock()
	metrics := m.metrics
	m.mu.Unlock()

	f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening metrics file: %w", err)
	}
	defer f.Close()

	payload := struct {
		Timestamp string           `json:"timestamp"`
		Metrics   SamplingMetrics  `json:"metrics"`
	}{
		Timestamp: fmt.Sprintf("%d", time.Now().UnixMilli()),
		Metrics:   metrics,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	var sb strings.Builder
	sb.Write(data)
	sb.WriteByte('\n')
	_, err = f.WriteString(sb.String())
	return err
}
