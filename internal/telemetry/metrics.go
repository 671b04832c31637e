// Package telemetry records deployment metrics and traces.
package telemetry

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/vango-dev/booster/internal/minify"
	"github.com/vango-dev/booster/internal/publish"
)

// Namespace prefixes every metric name.
const Namespace = "booster"

// PushJob is the Pushgateway job name.
const PushJob = "booster_deploy"

// Metrics holds the collectors of one deployment run. Each run gets its
// own registry, so the exported values describe that run only.
type Metrics struct {
	Registry *prometheus.Registry

	artifacts     *prometheus.CounterVec
	bytes         *prometheus.CounterVec
	minifySeconds *prometheus.HistogramVec
	skipped       *prometheus.CounterVec
	version       prometheus.Gauge
	lastSuccess   prometheus.Gauge
}

// NewMetrics creates the collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		artifacts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "artifacts_published_total",
			Help:      "Artifacts uploaded, by kind and variant.",
		}, []string{"kind", "variant"}),
		bytes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "published_bytes_total",
			Help:      "Bytes uploaded, by variant.",
		}, []string{"variant"}),
		minifySeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "minify_duration_seconds",
			Help:      "Time spent minifying, by kind and engine.",
			Buckets:   []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"kind", "engine"}),
		skipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "bundles_skipped_total",
			Help:      "Bundles dropped because none of their files exist.",
		}, []string{"kind"}),
		version: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "deploy_version",
			Help:      "Asset version of the last run.",
		}),
		lastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
	}
}

// Published implements publish.Recorder.
func (m *Metrics) Published(kind string, v publish.Variant, bytes int) {
	m.artifacts.WithLabelValues(kind, v.String()).Inc()
	m.bytes.WithLabelValues(v.String()).Add(float64(bytes))
}

// BundleSkipped counts a dropped bundle.
func (m *Metrics) BundleSkipped(kind minify.Kind, _ string) {
	m.skipped.WithLabelValues(kind.String()).Inc()
}

// SetVersion records the run's version.
func (m *Metrics) SetVersion(v int) {
	m.version.Set(float64(v))
}

// Succeeded stamps the success time.
func (m *Metrics) Succeeded(at time.Time) {
	m.lastSuccess.Set(float64(at.Unix()))
}

// ObserveMinify records one minification.
func (m *Metrics) ObserveMinify(kind minify.Kind, engine string, d time.Duration) {
	m.minifySeconds.WithLabelValues(kind.String(), engine).Observe(d.Seconds())
}

// WriteTextfile writes the registry in the text format node_exporter's
// textfile collector reads.
func (m *Metrics) WriteTextfile(path string) error {
	return errors.Wrap(prometheus.WriteToTextfile(path, m.Registry), "write metrics textfile")
}

// Push sends the registry to a Pushgateway, replacing the job's previous
// metrics.
func (m *Metrics) Push(ctx context.Context, url string) error {
	err := push.New(url, PushJob).Gatherer(m.Registry).PushContext(ctx)
	return errors.Wrap(err, "push metrics")
}

// engineNamer is implemented by *minify.Dispatch.
type engineNamer interface {
	EngineFor(kind minify.Kind) string
}

// InstrumentMinifier returns a Minifier that times every call of inner.
func (m *Metrics) InstrumentMinifier(inner minify.Minifier) minify.Minifier {
	return &timedMinifier{inner: inner, metrics: m}
}

type timedMinifier struct {
	inner   minify.Minifier
	metrics *Metrics
}

func (t *timedMinifier) Minify(ctx context.Context, kind minify.Kind, src string) (string, error) {
	start := time.Now()
	out, err := t.inner.Minify(ctx, kind, src)
	if err == nil {
		engine := "custom"
		if n, ok := t.inner.(engineNamer); ok {
			engine = n.EngineFor(kind)
		}
		t.metrics.ObserveMinify(kind, engine, time.Since(start))
	}
	return out, err
}
