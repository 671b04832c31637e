package deploy

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/booster/internal/compress"
	"github.com/vango-dev/booster/internal/config"
	"github.com/vango-dev/booster/internal/errors"
	"github.com/vango-dev/booster/internal/minify"
	"github.com/vango-dev/booster/internal/publish"
	"github.com/vango-dev/booster/internal/telemetry"
)

// recordingStore keeps every object and, on each Put, the manifest
// version on disk at that moment.
type recordingStore struct {
	manifestPath string
	objects      []publish.Object
	versions     []string
	failOn       string
}

func (s *recordingStore) Put(_ context.Context, obj publish.Object) error {
	if s.failOn != "" && strings.HasSuffix(obj.Key, s.failOn) {
		return errors.Newf(errors.CategoryProcessing, "access denied")
	}
	if s.manifestPath != "" {
		m, err := config.LoadFile(s.manifestPath)
		if err != nil {
			return err
		}
		s.versions = append(s.versions, m.Version)
	}
	s.objects = append(s.objects, obj)
	return nil
}

func (s *recordingStore) keys() []string {
	keys := make([]string, len(s.objects))
	for i, o := range s.objects {
		keys[i] = o.Key
	}
	return keys
}

func (s *recordingStore) object(key string) (publish.Object, bool) {
	for _, o := range s.objects {
		if o.Key == key {
			return o, true
		}
	}
	return publish.Object{}, false
}

// countingMinifier tags its output so tests can tell minified text apart.
type countingMinifier struct {
	calls map[minify.Kind]int
}

func (c *countingMinifier) Minify(_ context.Context, kind minify.Kind, src string) (string, error) {
	if c.calls == nil {
		c.calls = make(map[minify.Kind]int)
	}
	c.calls[kind]++
	return "min[" + strings.Join(strings.Fields(src), " ") + "]", nil
}

func writeApp(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

const manifestJSON = `{
  "version": "5",
  "cdnSubDirectory": "myapp",
  "cdnUrlPrefix": "https://cdn.example.com/",
  "libraries": [
    {"name": "site.css", "files": [{"path": "/styles/reset.css"}, {"path": "/styles/site.css"}]},
    {"name": "main.js", "files": [{"path": "/scripts/a.js"}, {"path": "/scripts/b.js"}]},
    {"name": "dev.js", "includeIn": "local", "files": [{"path": "/scripts/a.js"}]},
    {"name": "gone.js", "files": [{"path": "/scripts/missing.js"}]}
  ]
}`

func sampleApp(t *testing.T) string {
	return writeApp(t, map[string]string{
		"booster.json":       manifestJSON,
		"styles/reset.css":   "body { margin: 0; }",
		"styles/site.css":    ".a { color: red; }",
		"scripts/a.js":       "var a = 1;",
		"scripts/b.js":       "var b = 2;",
		"scripts/b.min.js":   "var b=2;",
		"images/logo.png":    "\x89PNG",
		"images/icons/x.gif": "GIF89a",
		"bin/skip.png":       "bin",
		"bin2/keep.png":      "bin2",
	})
}

func TestDeployPersistsVersionBeforePublishing(t *testing.T) {
	root := sampleApp(t)
	store := &recordingStore{manifestPath: filepath.Join(root, "booster.json")}
	minifier := &countingMinifier{}

	result, err := New(Options{
		AppPath:  root,
		Store:    store,
		Minifier: minifier,
		Logger:   zerolog.Nop(),
	}).Deploy(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 6, result.Version)
	require.NotEmpty(t, store.versions)
	for _, v := range store.versions {
		assert.Equal(t, "6", v, "manifest holds the new version before the first upload")
	}
	for _, key := range store.keys() {
		assert.True(t, strings.HasPrefix(key, "myapp/6/"), key)
	}

	m, err := config.Load(root)
	require.NoError(t, err)
	assert.Equal(t, "6", m.Version)

	assert.Equal(t, []string{
		"myapp/6/bin2/keep.png",
		"myapp/6/images/logo.png",
		"myapp/6/images/icons/x.gif",
		"myapp/6/site.min.css",
		"myapp/6/site.gzip.css",
		"myapp/6/main.min.js",
		"myapp/6/main.gzip.js",
	}, store.keys())
	assert.Equal(t, store.keys(), result.Keys)
	assert.Equal(t, 2, result.Bundles)
	assert.Equal(t, 3, result.Binaries)
	assert.Equal(t, 7, result.Artifacts)
	assert.True(t, result.Uploaded)

	js, ok := store.object("myapp/6/main.min.js")
	require.True(t, ok)
	assert.Equal(t, "min[var a = 1;]\nvar b=2;", string(js.Body))
	assert.Equal(t, "application/x-javascript", js.ContentType)
	assert.Empty(t, js.ContentEncoding)
	assert.Equal(t, publish.CacheControl, js.CacheControl)

	gz, ok := store.object("myapp/6/main.gzip.js")
	require.True(t, ok)
	assert.Equal(t, "gzip", gz.ContentEncoding)
	plain, err := compress.Gunzip(gz.Body)
	require.NoError(t, err)
	assert.Equal(t, js.Body, plain)

	css, ok := store.object("myapp/6/site.min.css")
	require.True(t, ok)
	assert.Equal(t, "min[body { margin: 0; } .a { color: red; }]", string(css.Body))
	assert.Equal(t, "text/css", css.ContentType)

	png, ok := store.object("myapp/6/images/logo.png")
	require.True(t, ok)
	assert.Equal(t, "\x89PNG", string(png.Body))
	assert.Equal(t, "image/png", png.ContentType)
}

func TestDeployWithoutStore(t *testing.T) {
	root := sampleApp(t)
	minifier := &countingMinifier{}

	result, err := New(Options{AppPath: root, Minifier: minifier, Logger: zerolog.Nop()}).Deploy(context.Background())
	require.NoError(t, err)

	assert.False(t, result.Uploaded)
	assert.Empty(t, result.Keys)
	assert.Zero(t, result.Bytes)
	assert.Equal(t, 7, result.Artifacts)
	assert.Equal(t, 1, minifier.calls[minify.CSS])
	assert.Equal(t, 1, minifier.calls[minify.JS])
}

func TestDeployWithRealMinifier(t *testing.T) {
	root := sampleApp(t)
	store := &recordingStore{}

	_, err := New(Options{
		AppPath: root,
		Store:   store,
		Minify:  minify.Config{Engine: minify.EngineEsbuild},
		Metrics: telemetry.NewMetrics(),
		Logger:  zerolog.Nop(),
	}).Deploy(context.Background())
	require.NoError(t, err)

	css, ok := store.object("myapp/6/site.min.css")
	require.True(t, ok)
	assert.Equal(t, "body{margin:0}.a{color:red}", string(css.Body))
}

func TestDeployExplicitVersion(t *testing.T) {
	root := sampleApp(t)
	store := &recordingStore{}
	v := 42

	result, err := New(Options{
		AppPath:  root,
		Store:    store,
		Version:  &v,
		Minifier: &countingMinifier{},
		Logger:   zerolog.Nop(),
	}).Deploy(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, result.Version)
	assert.Contains(t, store.keys(), "myapp/42/main.min.js")

	m, err := config.Load(root)
	require.NoError(t, err)
	assert.Equal(t, "5", m.Version, "explicit versions are not persisted")
}

func TestDeployDeferredVersionWrite(t *testing.T) {
	root := sampleApp(t)
	store := &recordingStore{manifestPath: filepath.Join(root, "booster.json")}

	_, err := New(Options{
		AppPath:           root,
		Store:             store,
		DeferVersionWrite: true,
		Minifier:          &countingMinifier{},
		Logger:            zerolog.Nop(),
	}).Deploy(context.Background())
	require.NoError(t, err)

	for _, v := range store.versions {
		assert.Equal(t, "5", v)
	}
	m, err := config.Load(root)
	require.NoError(t, err)
	assert.Equal(t, "6", m.Version)
}

func TestDeployDeferredVersionWriteOnFailure(t *testing.T) {
	root := sampleApp(t)
	store := &recordingStore{failOn: "main.gzip.js"}

	_, err := New(Options{
		AppPath:           root,
		Store:             store,
		DeferVersionWrite: true,
		Minifier:          &countingMinifier{},
		Logger:            zerolog.Nop(),
	}).Deploy(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.ExitProcessingError, errors.ExitCode(err))

	m, err := config.Load(root)
	require.NoError(t, err)
	assert.Equal(t, "5", m.Version)
}

func TestDeployPublishFailureIsFatal(t *testing.T) {
	root := sampleApp(t)
	store := &recordingStore{failOn: "site.min.css"}

	_, err := New(Options{AppPath: root, Store: store, Minifier: &countingMinifier{}, Logger: zerolog.Nop()}).Deploy(context.Background())
	require.Error(t, err)

	var be *errors.BoosterError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, "E204", be.Code)
	for _, key := range store.keys() {
		assert.NotContains(t, key, ".js", "nothing is published after a failure")
	}
}

func TestDeployDebugVariants(t *testing.T) {
	root := writeApp(t, map[string]string{
		"booster.json": `{"version": "1", "debugKey": "dbg", "cdnUrlPrefix": "https://cdn/",
			"libraries": [
				{"name": "main.js", "files": [{"path": "/a.js"}, {"path": "/b.js"}]},
				{"name": "site.css", "files": [{"path": "/s.css"}]}
			]}`,
		"a.js":     "var a = 1;",
		"b.js":     "var b = 2;",
		"b.min.js": "var b=2;",
		"s.css":    "p { x: y; }",
	})
	store := &recordingStore{}

	_, err := New(Options{AppPath: root, Store: store, Minifier: &countingMinifier{}, Logger: zerolog.Nop()}).Deploy(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"2/site.dbg.css", "2/site.min.css", "2/site.gzip.css",
		"2/main.dbg.js", "2/main.min.js", "2/main.gzip.js",
	}, store.keys())

	debug, _ := store.object("2/main.dbg.js")
	assert.Equal(t, "var a = 1;\nvar b = 2;", string(debug.Body))
	cssDebug, _ := store.object("2/site.dbg.css")
	assert.Equal(t, "p { x: y; }", string(cssDebug.Body))
}

func TestDeployIndividualFiles(t *testing.T) {
	root := writeApp(t, map[string]string{
		"booster.json":        `{"version": "0", "cdnUrlPrefix": "https://cdn/"}`,
		"css/site.css":        "a { b: c; }",
		"js/app.js":           "var app;",
		"js/lib.js":           "var lib;",
		"js/lib.min.js":       "var l;",
		"js/vendor.min.js":    "var v;",
		"obj/generated.js":    "var g;",
		"bin/Debug/output.js": "var o;",
	})
	store := &recordingStore{}

	result, err := New(Options{
		AppPath:  root,
		Store:    store,
		EachCSS:  true,
		EachJS:   true,
		Minifier: &countingMinifier{},
		Logger:   zerolog.Nop(),
	}).Deploy(context.Background())
	require.NoError(t, err)

	keys := store.keys()
	sort.Strings(keys)
	assert.Equal(t, []string{
		"1/css/site.gzip.css",
		"1/css/site.min.css",
		"1/js/app.gzip.js",
		"1/js/app.min.js",
		"1/js/lib.gzip.js",
		"1/js/lib.min.js",
		"1/js/vendor.min.gzip.js",
		"1/js/vendor.min.min.js",
	}, keys)
	assert.Equal(t, 4, result.Bundles)
	assert.Empty(t, result.Overwritten)

	lib, _ := store.object("1/js/lib.min.js")
	assert.Equal(t, "var l;", string(lib.Body), "individual files honor pre-minified siblings")
}

func TestDeployReportsKeyCollisions(t *testing.T) {
	root := writeApp(t, map[string]string{
		"booster.json": `{"version": "0", "cdnUrlPrefix": "https://cdn/",
			"libraries": [{"name": "main.js", "files": [{"path": "/lib/a.js"}]}]}`,
		"main.js":  "var main;",
		"lib/a.js": "var a;",
	})
	store := &recordingStore{}

	result, err := New(Options{
		AppPath:  root,
		Store:    store,
		EachJS:   true,
		Minifier: &countingMinifier{},
		Logger:   zerolog.Nop(),
	}).Deploy(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"1/main.min.js", "1/main.gzip.js"}, result.Overwritten)
	obj, ok := store.object("1/main.min.js")
	require.True(t, ok)
	assert.Equal(t, "min[var main;]", string(obj.Body))
}

func TestDeployInputErrors(t *testing.T) {
	tests := []struct {
		name string
		opts func(root string) Options
		code string
	}{
		{
			name: "missing root",
			opts: func(root string) Options { return Options{AppPath: filepath.Join(root, "nope")} },
			code: "E101",
		},
		{
			name: "missing manifest",
			opts: func(root string) Options { return Options{AppPath: root, ManifestPath: filepath.Join(root, "x.json")} },
			code: "E102",
		},
		{
			name: "negative version",
			opts: func(root string) Options {
				v := -1
				return Options{AppPath: root, Version: &v}
			},
			code: "E104",
		},
		{
			name: "unknown minifier command",
			opts: func(root string) Options {
				return Options{AppPath: root, Minify: minify.Config{Command: "booster-missing-minifier"}}
			},
			code: "E106",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := sampleApp(t)
			opts := tt.opts(root)
			opts.Logger = zerolog.Nop()

			_, err := New(opts).Deploy(context.Background())
			require.Error(t, err)

			var be *errors.BoosterError
			require.True(t, errors.As(err, &be))
			assert.Equal(t, tt.code, be.Code)
			assert.Equal(t, errors.ExitInputError, errors.ExitCode(err))

			m, err := config.Load(root)
			require.NoError(t, err)
			assert.Equal(t, "5", m.Version, "input errors abort before the version is written")
		})
	}
}

func TestDeployProgress(t *testing.T) {
	root := sampleApp(t)
	var steps []string

	_, err := New(Options{
		AppPath:    root,
		Minifier:   &countingMinifier{},
		Logger:     zerolog.Nop(),
		OnProgress: func(step string) { steps = append(steps, step) },
	}).Deploy(context.Background())
	require.NoError(t, err)

	require.NotEmpty(t, steps)
	assert.Equal(t, "Loading manifest...", steps[0])
	assert.Equal(t, "Publishing JavaScript...", steps[len(steps)-1])
}

func TestDeployWritesMetricsTextfile(t *testing.T) {
	root := sampleApp(t)
	path := filepath.Join(t.TempDir(), "booster.prom")

	_, err := New(Options{
		AppPath:         root,
		Store:           &recordingStore{},
		Minifier:        &countingMinifier{},
		Metrics:         telemetry.NewMetrics(),
		MetricsTextfile: path,
		Logger:          zerolog.Nop(),
	}).Deploy(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "booster_deploy_version 6")
	assert.Contains(t, string(data), `booster_artifacts_published_total{kind="js",variant="gzip"} 1`)
	assert.Contains(t, string(data), `booster_bundles_skipped_total{kind="js"} 1`)
}
