// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package metrics records batch statistics as Prometheus metrics and writes them
// in the node_exporter textfile collector format.
package metrics

import (
	"context"
	"fmt"

	"github.com/matt-FFFFFF/fanout/internal/batch"
	"github.com/matt-FFFFFF/fanout/internal/ctxlog"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "fanout"

// Status label values for fanout_jobs_total.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusAbandoned = "abandoned"
)

// Recorder holds the batch metrics in a private registry.
type Recorder struct {
	registry      *prometheus.Registry
	jobs          *prometheus.CounterVec
	jobDuration   prometheus.Histogram
	batchDuration prometheus.Gauge
	batchJobs     prometheus.Gauge
}

// NewRecorder creates a Recorder with all metrics registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_total",
			Help:      "Jobs that reached a terminal state, by outcome.",
		}, []string{"status"}),
		jobDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Wall-clock duration of jobs that ran to completion.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 14),
		}),
		batchDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Time from the first job start to the last job end.",
		}),
		batchJobs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "batch_jobs",
			Help:      "Number of jobs in the batch.",
		}),
	}

	r.registry.MustRegister(r.jobs, r.jobDuration, r.batchDuration, r.batchJobs)

	for _, s := range []string{StatusSucceeded, StatusFailed, StatusAbandoned} {
		r.jobs.WithLabelValues(s)
	}

	return r
}

// Registry returns the registry the metrics are registered with.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Observe records a finished batch.
func (r *Recorder) Observe(s *batch.Summary) {
	r.batchJobs.Set(float64(s.NumJobs))
	r.batchDuration.Set(s.TotalDuration.Seconds())

	for _, res := range s.Results {
		switch {
		case res.Successful():
			r.jobs.WithLabelValues(StatusSucceeded).Inc()
		case res.Abandoned():
			r.jobs.WithLabelValues(StatusAbandoned).Inc()
		default:
			r.jobs.WithLabelValues(StatusFailed).Inc()
		}

		if d, ok := res.Duration(); ok {
			r.jobDuration.Observe(d.Seconds())
		}
	}
}

// WriteTextfile writes the metrics to path atomically.
func (r *Recorder) WriteTextfile(ctx context.Context, path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}

	ctxlog.Debug(ctx, "metrics written", "component", "metrics", "path", path)

	return nil
}
