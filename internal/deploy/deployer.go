package deploy

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/vango-dev/booster/internal/bundle"
	"github.com/vango-dev/booster/internal/config"
	"github.com/vango-dev/booster/internal/errors"
	"github.com/vango-dev/booster/internal/minify"
	"github.com/vango-dev/booster/internal/publish"
	"github.com/vango-dev/booster/internal/scan"
	"github.com/vango-dev/booster/internal/telemetry"
	"github.com/vango-dev/booster/internal/version"
)

// Result contains the deployment output.
type Result struct {
	// Version is the version folder every artifact was published under.
	Version int

	// Duration is how long the deployment took.
	Duration time.Duration

	// Bundles is the number of CSS and JS bundles processed, individual
	// files included.
	Bundles int

	// Binaries is the number of binary assets found.
	Binaries int

	// Artifacts is the number of artifacts produced, uploaded or not.
	Artifacts int

	// Bytes is the number of bytes uploaded.
	Bytes int64

	// Keys are the uploaded object keys in upload order.
	Keys []string

	// Overwritten lists keys produced twice, e.g. by an individual file
	// and a manifest bundle of the same name.
	Overwritten []string

	// Uploaded reports whether a store was configured.
	Uploaded bool
}

// Options configures the deployer.
type Options struct {
	// AppPath is the application root. Required.
	AppPath string

	// ManifestPath overrides the manifest looked up in AppPath.
	ManifestPath string

	// Store receives the uploads. Nil runs everything except the uploads.
	Store publish.Store

	// BinaryPatterns are the globs of binary assets.
	// Default: scan.DefaultBinaryPatterns
	BinaryPatterns []string

	// Ignore lists directories, relative to AppPath, that are not scanned.
	// Default: scan.DefaultIgnore
	Ignore []string

	// Version, when set, is used instead of incrementing the manifest's.
	Version *int

	// EachCSS publishes every .css file found as its own bundle.
	EachCSS bool

	// EachJS publishes every .js file found as its own bundle.
	EachJS bool

	// Minify configures the minifiers. Ignored when Minifier is set.
	Minify minify.Config

	// Minifier replaces the configured minifiers.
	Minifier minify.Minifier

	// DeferVersionWrite persists an incremented version only after every
	// upload succeeded.
	DeferVersionWrite bool

	// Metrics and Tracer are optional.
	Metrics *telemetry.Metrics
	Tracer  *telemetry.Tracer

	// MetricsTextfile and MetricsPushURL export Metrics after the run.
	MetricsTextfile string
	MetricsPushURL  string

	Logger zerolog.Logger

	// OnProgress is called with progress updates.
	OnProgress func(step string)
}

// Deployer runs one deployment.
type Deployer struct {
	options Options
}

// New creates a new deployer.
func New(options Options) *Deployer {
	if len(options.BinaryPatterns) == 0 {
		options.BinaryPatterns = scan.DefaultBinaryPatterns
	}
	if options.Ignore == nil {
		options.Ignore = scan.DefaultIgnore
	}
	return &Deployer{options: options}
}

// run carries the state of one Deploy call.
type run struct {
	*Deployer
	manifest  *config.Manifest
	scanner   *scan.Scanner
	publisher *publish.Publisher
	js        *bundle.JSAssembler
	css       *bundle.CSSAssembler
	resolver  *bundle.Resolver
	result    *Result
}

// Deploy performs the deployment.
func (d *Deployer) Deploy(ctx context.Context) (res *Result, err error) {
	start := time.Now()
	log := d.options.Logger

	ctx, span := d.options.Tracer.Start(ctx, "deploy", attribute.String("app_path", d.options.AppPath))
	defer func() { telemetry.End(span, err) }()
	defer d.flushMetrics(ctx)

	if err := checkRoot(d.options.AppPath); err != nil {
		return nil, err
	}

	d.progress("Loading manifest...")
	manifest, err := d.loadManifest()
	if err != nil {
		return nil, err
	}

	minifier, err := d.minifier()
	if err != nil {
		return nil, err
	}

	d.progress("Resolving version...")
	mgr := &version.Manager{
		Store:    manifest,
		Explicit: d.options.Version,
		Deferred: d.options.DeferVersionWrite,
	}
	v, err := d.resolveVersion(ctx, mgr)
	if err != nil {
		return nil, err
	}
	log.Info().Int("version", v).Str("manifest", manifest.Path()).Msg("version resolved")
	span.SetAttributes(attribute.Int("version", v))
	if d.options.Metrics != nil {
		d.options.Metrics.SetVersion(v)
	}

	r := &run{
		Deployer: d,
		manifest: manifest,
		publisher: &publish.Publisher{
			Store:   d.options.Store,
			Subdir:  manifest.CdnSubDirectory,
			Version: v,
			Logger:  log,
		},
		js:     &bundle.JSAssembler{Minifier: minifier, Logger: log},
		css:    &bundle.CSSAssembler{Minifier: minifier, Logger: log},
		result: &Result{Version: v, Uploaded: d.options.Store != nil},
	}
	r.resolver = &bundle.Resolver{Root: d.options.AppPath, Manifest: manifest, Logger: log}
	if d.options.Metrics != nil {
		r.publisher.Metrics = d.options.Metrics
		r.resolver.OnDrop = d.options.Metrics.BundleSkipped
	}
	if !r.publisher.Enabled() {
		log.Warn().Msg("no bucket configured, artifacts are built but not uploaded")
	}

	d.progress("Scanning directories...")
	r.scanner, err = scan.New(d.options.AppPath, d.options.Ignore)
	if err != nil {
		return nil, errors.New("E205").Wrap(err)
	}

	d.progress("Publishing binary assets...")
	if err := r.publishBinaries(ctx); err != nil {
		return nil, err
	}

	d.progress("Publishing CSS...")
	if err := r.publishKind(ctx, bundle.CSS); err != nil {
		return nil, err
	}

	d.progress("Publishing JavaScript...")
	if err := r.publishKind(ctx, bundle.JS); err != nil {
		return nil, err
	}

	if err := mgr.Commit(); err != nil {
		return nil, errors.New("E105").Wrap(err)
	}

	r.result.Keys = r.publisher.Keys()
	r.result.Overwritten = r.publisher.Overwritten()
	r.result.Bytes = r.publisher.Bytes()
	r.result.Duration = time.Since(start)
	if d.options.Metrics != nil {
		d.options.Metrics.Succeeded(time.Now())
	}
	return r.result, nil
}

func (d *Deployer) loadManifest() (*config.Manifest, error) {
	if d.options.ManifestPath != "" {
		return config.LoadFile(d.options.ManifestPath)
	}
	return config.Load(d.options.AppPath)
}

func (d *Deployer) minifier() (minify.Minifier, error) {
	m := d.options.Minifier
	if m == nil {
		cfg := d.options.Minify
		cfg.Logger = d.options.Logger
		dispatch, err := minify.New(cfg)
		if err != nil {
			if errors.Is(err, minify.ErrCommandNotFound) {
				return nil, errors.New("E106").WithDetail(cfg.Command).Wrap(err)
			}
			return nil, errors.New("E104").Wrap(err)
		}
		d.options.Logger.Debug().Stringer("minifier", dispatch).Msg("minifiers configured")
		m = dispatch
	}
	if d.options.Metrics != nil {
		m = d.options.Metrics.InstrumentMinifier(m)
	}
	return m, nil
}

func (d *Deployer) resolveVersion(ctx context.Context, mgr *version.Manager) (v int, err error) {
	_, span := d.options.Tracer.Start(ctx, "resolve_version")
	defer func() { telemetry.End(span, err) }()

	v, err = mgr.Resolve()
	if err != nil {
		if errors.Is(err, version.ErrNegative) {
			return 0, errors.New("E104").WithDetail("asset version must be zero or greater").Wrap(err)
		}
		return 0, errors.New("E105").Wrap(err)
	}
	return v, nil
}

// flushMetrics exports the run's metrics. Failures are logged only.
func (d *Deployer) flushMetrics(ctx context.Context) {
	m := d.options.Metrics
	if m == nil {
		return
	}
	log := d.options.Logger
	if path := d.options.MetricsTextfile; path != "" {
		if err := m.WriteTextfile(path); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("could not write metrics")
		}
	}
	if url := d.options.MetricsPushURL; url != "" {
		if err := m.Push(ctx, url); err != nil {
			log.Warn().Err(err).Str("url", url).Msg("could not push metrics")
		}
	}
}

// progress reports progress if a callback is set.
func (d *Deployer) progress(step string) {
	if d.options.OnProgress != nil {
		d.options.OnProgress(step)
	}
}

func checkRoot(path string) error {
	if path == "" {
		return errors.New("E101").WithDetail("no application path given")
	}
	info, err := os.Stat(path)
	if err != nil {
		return errors.New("E101").WithDetail(path).Wrap(err)
	}
	if !info.IsDir() {
		return errors.New("E101").WithDetailf("%s is not a directory", path)
	}
	return nil
}

// isMinifiedTwin reports whether path is x.min.js and x.js is in files.
func isMinifiedTwin(path string, files map[string]bool) bool {
	lower := strings.ToLower(path)
	if !strings.HasSuffix(lower, ".min.js") {
		return false
	}
	return files[path[:len(path)-len(".min.js")]+".js"]
}
