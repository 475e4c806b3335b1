// Package metrics collects Prometheus metrics about scoring calls.
package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/spigell/resume-scorer/internal/model"
)

const namespace = "resume_scorer"

// Recorder owns a private registry so that tests and batch runs never collide with the
// default one. It is safe for concurrent use.
type Recorder struct {
	registry *prometheus.Registry

	scorings *prometheus.CounterVec
	failures *prometheus.CounterVec
	warnings *prometheus.CounterVec
	reviews  *prometheus.CounterVec
	risks    *prometheus.CounterVec
	duration prometheus.Histogram
	totals   prometheus.Histogram
}

// New registers every collector on a fresh registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		scorings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "scorings_total",
				Help:      "Completed scorings by job family and match band",
			},
			[]string{"job_family", "match_band"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "scoring_failures_total",
				Help:      "Scoring calls that returned an error",
			},
			[]string{"reason"},
		),
		warnings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "warnings_total",
				Help:      "Data quality warnings attached to results",
			},
			[]string{"code"},
		),
		reviews: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ai_reviews_total",
				Help:      "ai_review artifacts by source and fallback reason",
			},
			[]string{"source", "fallback_reason"},
		),
		risks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "risks_total",
				Help:      "Risk items reported by kind and severity",
			},
			[]string{"kind", "severity"},
		),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scoring_duration_seconds",
			Help:      "Wall time of one scoring call",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30, 60},
		}),
		totals: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "score_total",
			Help:      "Distribution of total scores (0-100)",
			Buckets:   prometheus.LinearBuckets(10, 10, 9),
		}),
	}

	r.registry.MustRegister(r.scorings, r.failures, r.warnings, r.reviews, r.risks, r.duration, r.totals)
	return r
}

// Registry exposes the registry, e.g. for an HTTP handler or a textfile dump.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveScore records one completed scoring. fallback is empty when ai_review came from the
// chat backend.
func (r *Recorder) ObserveScore(res *model.ScoringResult, fallback string, elapsed time.Duration) {
	if r == nil || res == nil {
		return
	}
	r.scorings.WithLabelValues(string(res.JobFamily), string(res.MatchBand)).Inc()
	for _, w := range res.Warnings {
		r.warnings.WithLabelValues(string(w.Code)).Inc()
	}
	for _, risk := range res.Risks {
		r.risks.WithLabelValues(string(risk.Kind), string(risk.Severity)).Inc()
	}
	if fallback == "" {
		fallback = "none"
	}
	r.reviews.WithLabelValues(string(res.AIReviewSource), fallback).Inc()
	r.duration.Observe(elapsed.Seconds())
	r.totals.Observe(res.Total)
}

// ObserveFailure records a scoring call that returned err.
func (r *Recorder) ObserveFailure(err error) {
	if r == nil || err == nil {
		return
	}
	reason := "internal"
	if errors.Is(err, model.ErrEmptyContent) {
		reason = model.ErrEmptyContent.Error()
	}
	r.failures.WithLabelValues(reason).Inc()
}

// WriteTextfile dumps every metric in the node_exporter textfile format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	return nil
}
