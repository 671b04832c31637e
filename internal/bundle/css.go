package bundle

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/vango-dev/booster/internal/minify"
)

// CSSAssembler builds stylesheet bundles: the files are concatenated and
// the whole text is minified at once.
type CSSAssembler struct {
	Minifier minify.Minifier
	Logger   zerolog.Logger

	// Read defaults to os.ReadFile.
	Read func(path string) ([]byte, error)
}

// Assemble builds the minified text of files and, when withDebug is set,
// the debug text.
func (a *CSSAssembler) Assemble(ctx context.Context, files []SourceFile, withDebug bool) (*Artifacts, error) {
	if len(files) == 0 {
		return nil, errors.New("bundle has no files")
	}

	text, err := concat(a.Read, sourcePaths(files))
	if err != nil {
		return nil, err
	}
	return a.AssembleText(ctx, text, withDebug)
}

// AssembleText builds the variants of already concatenated CSS. Empty text
// minifies to empty text without calling the minifier.
func (a *CSSAssembler) AssembleText(ctx context.Context, text string, withDebug bool) (*Artifacts, error) {
	art := &Artifacts{}
	if withDebug {
		art.Debug = text
	}
	if text == "" {
		return art, nil
	}

	out, err := a.Minifier.Minify(ctx, minify.CSS, text)
	if err != nil {
		return nil, &Error{Op: OpMinify, Path: "css", Err: err}
	}
	art.Minified = out
	a.Logger.Debug().Int("raw", len(text)).Int("minified", len(out)).Msg("minified stylesheet")
	return art, nil
}
