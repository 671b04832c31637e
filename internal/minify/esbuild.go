package minify

import (
	"context"
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/pkg/errors"
)

// Esbuild minifies in-process with esbuild's transform API. Top-level
// names are kept, so concatenated scripts still share their globals.
type Esbuild struct{}

// Minify implements Minifier.
func (Esbuild) Minify(_ context.Context, kind Kind, src string) (string, error) {
	loader := api.LoaderJS
	if kind == CSS {
		loader = api.LoaderCSS
	}

	result := api.Transform(src, api.TransformOptions{
		Loader:            loader,
		MinifyWhitespace:  true,
		MinifyIdentifiers: true,
		MinifySyntax:      true,
		LegalComments:     api.LegalCommentsNone,
		Charset:           api.CharsetUTF8,
	})

	if len(result.Errors) > 0 {
		msgs := make([]string, 0, len(result.Errors))
		for _, m := range result.Errors {
			loc := ""
			if m.Location != nil {
				loc = fmt.Sprintf(" (%d:%d)", m.Location.Line, m.Location.Column)
			}
			msgs = append(msgs, m.Text+loc)
		}
		return "", errors.Errorf("esbuild %s: %s", kind, strings.Join(msgs, "; "))
	}

	return strings.TrimSuffix(string(result.Code), "\n"), nil
}
