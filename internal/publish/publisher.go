package publish

import (
	"context"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Recorder observes successful uploads.
type Recorder interface {
	Published(kind string, v Variant, bytes int)
}

// Publisher uploads the artifacts of one run under its version folder.
type Publisher struct {
	Store   Store
	Subdir  string
	Version int

	// Metrics is optional.
	Metrics Recorder
	Logger  zerolog.Logger

	keys        []string
	bytes       int64
	seen        map[string]bool
	overwritten []string
}

// Enabled reports whether uploads reach a store.
func (p *Publisher) Enabled() bool {
	return p.Store != nil
}

// PublishText uploads a text variant.
func (p *Publisher) PublishText(ctx context.Context, rel string, v Variant, text string) error {
	return p.put(ctx, rel, v, "", []byte(text))
}

// PublishGzip uploads gzip-encoded bytes with Content-Encoding: gzip.
func (p *Publisher) PublishGzip(ctx context.Context, rel string, gz []byte) error {
	return p.put(ctx, rel, Gzip, "gzip", gz)
}

// PublishBinary uploads a file unmodified.
func (p *Publisher) PublishBinary(ctx context.Context, rel string, data []byte) error {
	return p.put(ctx, rel, Binary, "", data)
}

// Keys returns the keys uploaded so far, in order.
func (p *Publisher) Keys() []string {
	return p.keys
}

// Overwritten returns the keys written more than once in this run, in the
// order the repeat happened. A repeat replaces the earlier object.
func (p *Publisher) Overwritten() []string {
	return p.overwritten
}

// Bytes returns the number of bytes uploaded so far.
func (p *Publisher) Bytes() int64 {
	return p.bytes
}

func (p *Publisher) put(ctx context.Context, rel string, v Variant, encoding string, body []byte) error {
	obj := Object{
		Key:             Key(p.Subdir, p.Version, rel),
		ContentType:     MimeType(rel),
		CacheControl:    CacheControl,
		ContentEncoding: encoding,
		Body:            body,
	}

	if p.seen == nil {
		p.seen = make(map[string]bool)
	}
	if p.seen[obj.Key] {
		p.overwritten = append(p.overwritten, obj.Key)
		p.Logger.Warn().
			Str("key", obj.Key).
			Msg("key already written in this run, the earlier artifact is replaced; rename the bundle or the file")
	}
	p.seen[obj.Key] = true

	if !p.Enabled() {
		p.Logger.Debug().Str("key", obj.Key).Msg("no store configured, skipping upload")
		return nil
	}

	p.Logger.Info().
		Str("key", obj.Key).
		Str("content_type", obj.ContentType).
		Int("bytes", len(body)).
		Msgf("uploading %s (%s)", obj.Key, humanize.Bytes(uint64(len(body))))

	if err := p.Store.Put(ctx, obj); err != nil {
		return errors.Wrapf(err, "upload %s", obj.Key)
	}

	p.keys = append(p.keys, obj.Key)
	p.bytes += int64(len(body))
	if p.Metrics != nil {
		p.Metrics.Published(kindOf(rel, v), v, len(body))
	}
	return nil
}

func kindOf(rel string, v Variant) string {
	if v == Binary {
		return "binary"
	}
	switch MimeType(rel) {
	case "text/css":
		return "css"
	default:
		return "js"
	}
}
