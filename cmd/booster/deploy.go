package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vango-dev/booster/internal/deploy"
	"github.com/vango-dev/booster/internal/errors"
	"github.com/vango-dev/booster/internal/minify"
	"github.com/vango-dev/booster/internal/publish"
	"github.com/vango-dev/booster/internal/scan"
	"github.com/vango-dev/booster/internal/telemetry"
)

// envPrefix prefixes the environment variable of every deploy flag:
// --aws-secret is also read from BOOSTER_AWS_SECRET.
const envPrefix = "BOOSTER"

// deploySettings are the operator inputs of a deployment.
type deploySettings struct {
	AppPath           string
	Manifest          string
	Bucket            string
	AWSKey            string
	AWSSecret         string
	Region            string
	Store             string
	Endpoint          string
	BinaryPatterns    []string
	Ignore            []string
	Version           *int
	EachCSS           bool
	EachJS            bool
	Minifier          string
	MinifierCmd       string
	MinifierArgs      []string
	ClosureJar        string
	DeferVersionWrite bool
	MetricsTextfile   string
	MetricsPushURL    string
	OTLPEndpoint      string
	Debug             bool
	DryRun            bool
}

func deployCmd() *cobra.Command {
	cmd, _ := newDeployCommand()
	return cmd
}

// newDeployCommand returns the deploy command and the viper instance its
// flags and BOOSTER_* variables are bound to.
func newDeployCommand() (*cobra.Command, *viper.Viper) {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Publish assets under a new version",
		Long: `Publish the application's assets to the CDN bucket.

This command:
  • Increments the version in booster.json (unless --asset-version is given)
  • Uploads binary assets (images, icons, flash) unmodified
  • Builds every CSS and JS bundle declared in booster.json
  • Uploads .min, .gzip and, with a debug key, debug variants

Every flag can also be set through the environment, e.g. BOOSTER_BUCKET,
or a .env file in the working directory or the application root.

Examples:
  booster deploy -a ./web -b my-cdn-bucket
  booster deploy -a ./web --dry-run --debug
  booster deploy -a ./web --store minio --endpoint http://localhost:9000 -b assets
  booster deploy -a ./web --minifier-cmd java --closure-jar googleclosure.jar`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadDeploySettings(v)
			if err != nil {
				return err
			}
			return runDeploy(cmd.Context(), s)
		},
	}

	f := cmd.Flags()
	f.StringP("app-path", "a", "", "Application root directory (required)")
	f.String("manifest", "", "Manifest file (default: booster.json in the app path)")
	f.StringP("bucket", "b", "", "Destination bucket; uploads also need --aws-key and --aws-secret")
	f.StringP("aws-key", "k", "", "Access key")
	f.StringP("aws-secret", "s", "", "Secret key")
	f.String("region", publish.DefaultRegion, "Bucket region")
	f.String("store", "s3", "Store implementation: s3 or minio")
	f.String("endpoint", "", "Custom S3-compatible endpoint")
	f.StringP("binary-patterns", "p", strings.Join(scan.DefaultBinaryPatterns, ","), "Comma-separated globs of binary assets")
	f.StringP("ignore", "i", strings.Join(scan.DefaultIgnore, "|"), "Pipe-separated directories to skip, relative to the app path")
	f.StringP("asset-version", "v", "", "Publish under this version instead of incrementing")
	f.Bool("each-css", false, "Also publish every .css file on its own")
	f.Bool("each-js", false, "Also publish every .js file on its own")
	f.String("minifier", string(minify.EngineEsbuild), "In-process minifier: esbuild or tdewolff")
	f.String("minifier-cmd", "", "External JavaScript minifier executable, e.g. java")
	f.String("minifier-args", "", "External minifier arguments; {in} and {out} name the temp files")
	f.String("closure-jar", "", "Google Closure Compiler jar, run with --minifier-cmd")
	f.Bool("defer-version-write", false, "Save the incremented version only after every upload succeeded")
	f.String("metrics-textfile", "", "Write metrics to this node_exporter textfile")
	f.String("metrics-pushgateway", "", "Push metrics to this Pushgateway URL")
	f.String("otlp-endpoint", "", "Export traces to this OTLP gRPC collector")
	f.Bool("debug", false, "Verbose logging")
	f.Bool("dry-run", false, "Build everything but upload nothing")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindPFlags(f)

	return cmd, v
}

// loadDeploySettings reads the flags, the environment and .env files.
// Variables already set in the environment win over .env files.
func loadDeploySettings(v *viper.Viper) (*deploySettings, error) {
	loadDotEnv(".env")

	appPath := v.GetString("app-path")
	if appPath == "" {
		return nil, errors.New("E104").
			WithDetail("--app-path is required").
			WithSuggestion("Pass the web application's root directory with -a, or set BOOSTER_APP_PATH")
	}
	abs, err := filepath.Abs(appPath)
	if err != nil {
		return nil, errors.New("E101").Wrap(err)
	}
	loadDotEnv(filepath.Join(abs, ".env"))

	s := &deploySettings{
		AppPath:           abs,
		Manifest:          v.GetString("manifest"),
		Bucket:            v.GetString("bucket"),
		AWSKey:            v.GetString("aws-key"),
		AWSSecret:         v.GetString("aws-secret"),
		Region:            v.GetString("region"),
		Store:             strings.ToLower(v.GetString("store")),
		Endpoint:          v.GetString("endpoint"),
		BinaryPatterns:    scan.SplitList(v.GetString("binary-patterns"), ","),
		Ignore:            scan.SplitList(v.GetString("ignore"), "|"),
		EachCSS:           v.GetBool("each-css"),
		EachJS:            v.GetBool("each-js"),
		Minifier:          strings.ToLower(v.GetString("minifier")),
		MinifierCmd:       v.GetString("minifier-cmd"),
		MinifierArgs:      strings.Fields(v.GetString("minifier-args")),
		ClosureJar:        v.GetString("closure-jar"),
		DeferVersionWrite: v.GetBool("defer-version-write"),
		MetricsTextfile:   v.GetString("metrics-textfile"),
		MetricsPushURL:    v.GetString("metrics-pushgateway"),
		OTLPEndpoint:      v.GetString("otlp-endpoint"),
		Debug:             v.GetBool("debug"),
		DryRun:            v.GetBool("dry-run"),
	}

	if raw := strings.TrimSpace(v.GetString("asset-version")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return nil, errors.New("E104").
				WithDetailf("--asset-version %q is not a non-negative integer", raw)
		}
		s.Version = &n
	}

	switch s.Store {
	case "s3", "minio":
	default:
		return nil, errors.New("E104").WithDetailf("unknown store %q (want s3 or minio)", s.Store)
	}
	if s.Store == "minio" && s.Endpoint == "" {
		return nil, errors.New("E104").WithDetail("--store minio needs --endpoint")
	}
	if s.ClosureJar != "" {
		if s.ClosureJar, err = filepath.Abs(s.ClosureJar); err != nil {
			return nil, errors.New("E104").Wrap(err)
		}
		if s.MinifierCmd == "" {
			s.MinifierCmd = "java"
		}
	}
	return s, nil
}

// loadDotEnv loads a .env file if there is one.
func loadDotEnv(path string) {
	if _, err := os.Stat(path); err == nil {
		_ = godotenv.Load(path)
	}
}

// minifyConfig translates the minifier flags.
func (s *deploySettings) minifyConfig(logger zerolog.Logger) minify.Config {
	cfg := minify.Config{
		Engine:  minify.Engine(s.Minifier),
		Command: s.MinifierCmd,
		Args:    s.MinifierArgs,
		Logger:  logger,
	}
	switch {
	case s.ClosureJar != "":
		cfg.Args = minify.ClosureArgs(s.ClosureJar)
	case cfg.Command != "" && len(cfg.Args) == 0:
		cfg.Args = []string{"{in}", "{out}"}
	}
	return cfg
}

// uploads reports whether the settings name a bucket and both keys.
func (s *deploySettings) uploads() bool {
	return !s.DryRun && s.Bucket != "" && s.AWSKey != "" && s.AWSSecret != ""
}

// store builds the upload destination, or nil when nothing is uploaded.
func (s *deploySettings) store() (publish.Store, error) {
	if !s.uploads() {
		return nil, nil
	}

	cfg := publish.S3Config{
		Bucket:    s.Bucket,
		Region:    s.Region,
		AccessKey: s.AWSKey,
		SecretKey: s.AWSSecret,
		Endpoint:  s.Endpoint,
	}

	var (
		st  publish.Store
		err error
	)
	if s.Store == "minio" {
		st, err = publish.NewMinioStore(cfg)
	} else {
		st, err = publish.NewS3Store(cfg)
	}
	if err != nil {
		return nil, errors.New("E104").Wrap(err)
	}
	return st, nil
}

// newLogger writes human-readable events to stderr.
func newLogger(debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()
}

func runDeploy(parent context.Context, s *deploySettings) error {
	if parent == nil {
		parent = context.Background()
	}
	logger := newLogger(s.Debug)

	// Handle signals
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	store, err := s.store()
	if err != nil {
		return err
	}

	tracer, err := telemetry.NewTracer(ctx, telemetry.TracerConfig{
		Endpoint:       s.OTLPEndpoint,
		Insecure:       true,
		ServiceVersion: version,
	}, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("tracing disabled")
	}
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		if err := tracer.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("could not flush traces")
		}
	}()

	fmt.Println("  Deploying assets...")
	fmt.Println()
	switch {
	case s.DryRun:
		warn("Dry run: artifacts are built but not uploaded")
	case store == nil:
		warn("No bucket or credentials configured: artifacts are built but not uploaded")
		logger.Warn().
			Bool("bucket", s.Bucket != "").
			Bool("aws_key", s.AWSKey != "").
			Bool("aws_secret", s.AWSSecret != "").
			Msg("uploads need a bucket, an access key and a secret key")
	}

	deployer := deploy.New(deploy.Options{
		AppPath:           s.AppPath,
		ManifestPath:      s.Manifest,
		Store:             store,
		BinaryPatterns:    s.BinaryPatterns,
		Ignore:            s.Ignore,
		Version:           s.Version,
		EachCSS:           s.EachCSS,
		EachJS:            s.EachJS,
		Minify:            s.minifyConfig(logger),
		DeferVersionWrite: s.DeferVersionWrite,
		Metrics:           telemetry.NewMetrics(),
		Tracer:            tracer,
		MetricsTextfile:   s.MetricsTextfile,
		MetricsPushURL:    s.MetricsPushURL,
		Logger:            logger,
		OnProgress: func(step string) {
			info("%s", step)
		},
	})

	result, err := deployer.Deploy(ctx)
	if err != nil {
		return err
	}

	fmt.Println()
	success("Deployed version %d in %s", result.Version, result.Duration.Round(time.Millisecond))
	fmt.Println()
	info("Bundles:    %d", result.Bundles)
	info("Binaries:   %d", result.Binaries)
	info("Artifacts:  %d", result.Artifacts)
	if n := len(result.Overwritten); n > 0 {
		warn("%d keys were written twice; see the log for which", n)
	}
	if result.Uploaded {
		info("Uploaded:   %d objects, %s", len(result.Keys), humanize.Bytes(uint64(result.Bytes)))
	}
	fmt.Println()
	return nil
}
