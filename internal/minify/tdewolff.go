package minify

import (
	"context"

	tdminify "github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/js"

	"github.com/pkg/errors"
)

const (
	mediaJS  = "application/javascript"
	mediaCSS = "text/css"
)

// Tdewolff minifies in-process with github.com/tdewolff/minify.
type Tdewolff struct {
	m *tdminify.M
}

// NewTdewolff creates a Tdewolff minifier with the JS and CSS minifiers
// registered.
func NewTdewolff() *Tdewolff {
	m := tdminify.New()
	m.AddFunc(mediaCSS, css.Minify)
	m.AddFunc(mediaJS, js.Minify)
	return &Tdewolff{m: m}
}

// Minify implements Minifier.
func (t *Tdewolff) Minify(_ context.Context, kind Kind, src string) (string, error) {
	media := mediaJS
	if kind == CSS {
		media = mediaCSS
	}
	out, err := t.m.String(media, src)
	if err != nil {
		return "", errors.Wrapf(err, "tdewolff %s", kind)
	}
	return out, nil
}
