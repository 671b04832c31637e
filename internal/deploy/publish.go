package deploy

import (
	"context"
	"os"

	"go.opentelemetry.io/otel/attribute"

	"github.com/vango-dev/booster/internal/bundle"
	"github.com/vango-dev/booster/internal/compress"
	"github.com/vango-dev/booster/internal/errors"
	"github.com/vango-dev/booster/internal/publish"
	"github.com/vango-dev/booster/internal/telemetry"
)

// publishBinaries uploads every file matching the binary patterns as is.
func (r *run) publishBinaries(ctx context.Context) (err error) {
	ctx, span := r.options.Tracer.Start(ctx, "publish_binary")
	defer func() { telemetry.End(span, err) }()

	files, err := r.scanner.Files(r.options.BinaryPatterns...)
	if err != nil {
		return errors.New("E205").Wrap(err)
	}

	for _, file := range files {
		rel, err := r.scanner.Rel(file)
		if err != nil {
			return errors.New("E205").Wrap(err)
		}
		data, err := os.ReadFile(file)
		if err != nil {
			return errors.New("E201").WithDetail(file).Wrap(err)
		}
		if err := r.publisher.PublishBinary(ctx, rel, data); err != nil {
			return errors.New("E204").Wrap(err)
		}
		r.result.Binaries++
		r.result.Artifacts++
	}
	return nil
}

// publishKind publishes the individual files of kind when enabled, then
// the manifest bundles of kind.
func (r *run) publishKind(ctx context.Context, kind bundle.Kind) (err error) {
	ctx, span := r.options.Tracer.Start(ctx, "publish_"+kind.String())
	defer func() { telemetry.End(span, err) }()

	each := r.options.EachCSS
	if kind == bundle.JS {
		each = r.options.EachJS
	}
	if each {
		singles, err := r.individualBundles(kind)
		if err != nil {
			return err
		}
		for _, b := range singles {
			if err := r.publishBundle(ctx, b); err != nil {
				return err
			}
		}
	}

	for _, b := range r.resolver.Resolve(kind) {
		if err := r.publishBundle(ctx, b); err != nil {
			return err
		}
	}
	return nil
}

// individualBundles returns a one-file bundle for every file of kind in
// the scanned directories, named by its path relative to the root. For
// JavaScript, x.min.js is skipped when x.js exists since x.js already
// resolves to it.
func (r *run) individualBundles(kind bundle.Kind) ([]bundle.Bundle, error) {
	files, err := r.scanner.Files("*" + kind.Ext())
	if err != nil {
		return nil, errors.New("E205").Wrap(err)
	}

	present := make(map[string]bool, len(files))
	for _, f := range files {
		present[f] = true
	}

	bundles := make([]bundle.Bundle, 0, len(files))
	for _, f := range files {
		if kind == bundle.JS && isMinifiedTwin(f, present) {
			continue
		}
		rel, err := r.scanner.Rel(f)
		if err != nil {
			return nil, errors.New("E205").Wrap(err)
		}
		bundles = append(bundles, bundle.Bundle{
			Name:  rel,
			Kind:  kind,
			Files: []bundle.SourceFile{{Path: f}},
		})
	}
	return bundles, nil
}

// publishBundle assembles b and uploads its variants: debug when a debug
// key is configured, then minified, then gzip.
func (r *run) publishBundle(ctx context.Context, b bundle.Bundle) (err error) {
	ctx, span := r.options.Tracer.Start(ctx, "bundle",
		attribute.String("bundle", b.Name),
		attribute.String("kind", b.Kind.String()),
		attribute.Int("files", len(b.Files)),
	)
	defer func() { telemetry.End(span, err) }()

	withDebug := r.manifest.HasDebugKey()

	var art *bundle.Artifacts
	if b.Kind == bundle.JS {
		art, err = r.js.Assemble(ctx, b.Files, withDebug)
	} else {
		art, err = r.css.Assemble(ctx, b.Files, withDebug)
	}
	if err != nil {
		return classify(err, b.Name)
	}
	r.result.Bundles++

	base, ext := b.Base(), b.Kind.Ext()
	name := func(v publish.Variant) string {
		return publish.VariantName(base, ext, v, r.manifest.DebugKey)
	}

	if withDebug {
		if err := r.publisher.PublishText(ctx, name(publish.Debug), publish.Debug, art.Debug); err != nil {
			return errors.New("E204").Wrap(err)
		}
		r.result.Artifacts++
	}

	if err := r.publisher.PublishText(ctx, name(publish.Minified), publish.Minified, art.Minified); err != nil {
		return errors.New("E204").Wrap(err)
	}
	r.result.Artifacts++

	gz, err := compress.GzipString(art.Minified)
	if err != nil {
		return errors.New("E203").WithDetail(b.Name).Wrap(err)
	}
	if err := r.publisher.PublishGzip(ctx, name(publish.Gzip), gz); err != nil {
		return errors.New("E204").Wrap(err)
	}
	r.result.Artifacts++

	r.options.Logger.Debug().
		Str("bundle", b.Name).
		Int("raw", len(art.Debug)).
		Int("minified", len(art.Minified)).
		Int("gzip", len(gz)).
		Msg("bundle published")
	return nil
}

// classify maps an assembly failure to its error code.
func classify(err error, bundleName string) error {
	var be *bundle.Error
	if errors.As(err, &be) {
		switch be.Op {
		case bundle.OpRead:
			return errors.New("E201").WithDetailf("%s in bundle %s", be.Path, bundleName).Wrap(be.Err)
		case bundle.OpMinify:
			return errors.New("E202").WithDetail(bundleName).Wrap(be.Err)
		}
	}
	return errors.New("E202").WithDetail(bundleName).Wrap(err)
}
