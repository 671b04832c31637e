package telemetry

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/vango-dev/booster/internal/minify"
	"github.com/vango-dev/booster/internal/publish"
)

func TestMetricsPublished(t *testing.T) {
	m := NewMetrics()
	m.Published("css", publish.Minified, 10)
	m.Published("css", publish.Gzip, 4)
	m.Published("js", publish.Gzip, 6)
	m.BundleSkipped(minify.JS, "empty.js")
	m.SetVersion(6)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.artifacts.WithLabelValues("css", "min")))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.bytes.WithLabelValues("min")))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.bytes.WithLabelValues("gzip")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.skipped.WithLabelValues("js")))
	assert.Equal(t, 6.0, testutil.ToFloat64(m.version))
}

func TestWriteTextfile(t *testing.T) {
	m := NewMetrics()
	m.SetVersion(3)
	m.Succeeded(time.Unix(1700000000, 0))

	path := filepath.Join(t.TempDir(), "booster.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "booster_deploy_version 3")
	assert.Contains(t, text, "booster_last_success_timestamp_seconds 1.7e+09")
}

type stubMinifier struct{ err error }

func (s stubMinifier) Minify(_ context.Context, _ minify.Kind, src string) (string, error) {
	return strings.TrimSpace(src), s.err
}

func TestInstrumentMinifier(t *testing.T) {
	m := NewMetrics()

	d, err := minify.New(minify.Config{Engine: minify.EngineTdewolff})
	require.NoError(t, err)
	out, err := m.InstrumentMinifier(d).Minify(context.Background(), minify.CSS, "a { color: red; }")
	require.NoError(t, err)
	assert.Equal(t, "a{color:red}", out)
	assert.Equal(t, 1, testutil.CollectAndCount(m.minifySeconds, "booster_minify_duration_seconds"))

	_, err = m.InstrumentMinifier(stubMinifier{}).Minify(context.Background(), minify.JS, " x ")
	require.NoError(t, err)
	assert.Equal(t, 2, testutil.CollectAndCount(m.minifySeconds))

	_, err = m.InstrumentMinifier(stubMinifier{err: errors.New("bad")}).Minify(context.Background(), minify.JS, "y")
	assert.Error(t, err)
	assert.Equal(t, 2, testutil.CollectAndCount(m.minifySeconds), "failures are not observed")
}

func TestTracerWithoutEndpoint(t *testing.T) {
	tr, err := NewTracer(context.Background(), TracerConfig{}, zerolog.Nop())
	require.NoError(t, err)

	ctx, span := tr.Start(context.Background(), "deploy")
	assert.NotNil(t, ctx)
	End(span, nil)
	assert.NoError(t, tr.Shutdown(context.Background()))
}

func TestTracerRecordsSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	tr := NewTracerFromProvider(tp)

	ctx, parent := tr.Start(context.Background(), "deploy", attribute.Int("version", 6))
	_, child := tr.Start(ctx, "bundle", attribute.String("bundle", "main.js"))
	End(child, errors.New("minify failed"))
	End(parent, nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "bundle", spans[0].Name)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, spans[1].SpanContext.TraceID(), spans[0].SpanContext.TraceID())
	assert.Equal(t, "deploy", spans[1].Name)
}

func TestNilTracer(t *testing.T) {
	var tr *Tracer
	ctx, span := tr.Start(context.Background(), "x")
	assert.NotNil(t, ctx)
	End(span, nil)
	assert.NoError(t, tr.Shutdown(context.Background()))
}
