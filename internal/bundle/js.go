package bundle

import (
	"context"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/vango-dev/booster/internal/minify"
)

const (
	jsExt    = ".js"
	jsMinExt = ".min.js"
)

// Segment is a maximal run of consecutive bundle files sharing the same
// pre-minified status. For a pre-minified segment, Paths holds the
// sibling .min.js paths.
type Segment struct {
	PreMinified bool
	Paths       []string
}

// Artifacts holds the text variants of one bundle.
type Artifacts struct {
	// Debug is the raw concatenation of the files. Empty unless requested.
	Debug string

	// Minified is the minified text the .min and .gzip variants carry.
	Minified string

	// Segments is the partition used to build Minified. JS only.
	Segments []Segment
}

// MinifiedSibling returns the pre-minified sibling path of a .js file:
// "a.js" becomes "a.min.js". Paths not ending in .js are returned unchanged.
func MinifiedSibling(path string) string {
	if !strings.HasSuffix(path, jsExt) {
		return path
	}
	return strings.TrimSuffix(path, jsExt) + jsMinExt
}

// JSAssembler builds JavaScript bundles. A file x.js with a sibling
// x.min.js on disk is taken from the sibling verbatim; all other files are
// minified. Runs of each kind are resolved separately and joined in the
// original order.
type JSAssembler struct {
	Minifier minify.Minifier
	Logger   zerolog.Logger

	// Read and Exists default to the local filesystem.
	Read   func(path string) ([]byte, error)
	Exists func(path string) bool
}

// Segments partitions files into ordered segments in a single walk. A new
// segment starts whenever the pre-minified status changes.
func (a *JSAssembler) Segments(files []SourceFile) []Segment {
	exists := a.Exists
	if exists == nil {
		exists = FileExists
	}

	var segs []Segment
	for i, f := range files {
		path := f.Path
		sibling := MinifiedSibling(path)
		pre := sibling != path && exists(sibling)
		if pre {
			a.Logger.Debug().Str("path", sibling).Msg("using pre-minified file")
			path = sibling
		}

		if i == 0 || segs[len(segs)-1].PreMinified != pre {
			segs = append(segs, Segment{PreMinified: pre})
		}
		last := &segs[len(segs)-1]
		last.Paths = append(last.Paths, path)
	}
	return segs
}

// Assemble builds the minified text of files and, when withDebug is set,
// the debug text. A one-file list is valid; an empty one is an error.
func (a *JSAssembler) Assemble(ctx context.Context, files []SourceFile, withDebug bool) (*Artifacts, error) {
	if len(files) == 0 {
		return nil, errors.New("bundle has no files")
	}

	art := &Artifacts{}
	if withDebug {
		debug, err := concat(a.Read, sourcePaths(files))
		if err != nil {
			return nil, err
		}
		art.Debug = debug
	}

	art.Segments = a.Segments(files)
	parts := make([]string, 0, len(art.Segments))
	for _, seg := range art.Segments {
		text, err := a.resolve(ctx, seg)
		if err != nil {
			return nil, err
		}
		parts = append(parts, text)
	}
	art.Minified = strings.Join(parts, "\n")
	return art, nil
}

func (a *JSAssembler) resolve(ctx context.Context, seg Segment) (string, error) {
	text, err := concat(a.Read, seg.Paths)
	if err != nil {
		return "", err
	}
	if seg.PreMinified {
		return text, nil
	}

	out, err := a.Minifier.Minify(ctx, minify.JS, text)
	if err != nil {
		return "", &Error{Op: OpMinify, Path: strings.Join(seg.Paths, ", "), Err: err}
	}
	return out, nil
}

func sourcePaths(files []SourceFile) []string {
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	return paths
}

// concat reads every path and joins the contents with line breaks.
func concat(read func(string) ([]byte, error), paths []string) (string, error) {
	if read == nil {
		read = os.ReadFile
	}

	var b strings.Builder
	for i, p := range paths {
		data, err := read(p)
		if err != nil {
			return "", &Error{Op: OpRead, Path: p, Err: err}
		}
		if i > 0 {
			b.WriteByte('\n')
		}
		b.Write(data)
	}
	return b.String(), nil
}
