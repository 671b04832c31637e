// Package minify turns JavaScript and CSS source into minified text.
//
// Two capabilities exist: an external process (for example Google Closure
// Compiler run through java) and in-process engines (esbuild or tdewolff).
// Configuration picks one explicitly; New never guesses from the values it
// is given.
//
//	m, err := minify.New(minify.Config{
//	    Command: "/usr/bin/java",
//	    Args:    minify.ClosureArgs("googleclosure.jar"),
//	})
//	out, err := m.Minify(ctx, minify.JS, src)
//
// JavaScript goes to the external process when one is configured. CSS is
// always minified in-process.
package minify

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Kind is the language of a text asset.
type Kind int

const (
	JS Kind = iota
	CSS
)

// Ext returns the file extension of the kind, including the dot.
func (k Kind) Ext() string {
	if k == CSS {
		return ".css"
	}
	return ".js"
}

// String returns "js" or "css".
func (k Kind) String() string {
	if k == CSS {
		return "css"
	}
	return "js"
}

// Minifier turns raw source into minified source. Output is expected to be
// syntactically valid and, for well-formed input, no larger than the input.
// Identical input yields identical output.
type Minifier interface {
	Minify(ctx context.Context, kind Kind, src string) (string, error)
}

// Engine names an in-process minifier.
type Engine string

const (
	EngineEsbuild  Engine = "esbuild"
	EngineTdewolff Engine = "tdewolff"
)

// DefaultRetryDelay is how long External waits before re-reading an output
// file that could not be read the first time.
const DefaultRetryDelay = time.Second

// Config selects and configures the minifiers.
type Config struct {
	// Engine is the in-process minifier. Default: esbuild.
	Engine Engine

	// Command is the external minifier executable. Empty disables the
	// external minifier.
	Command string

	// Args are the external minifier arguments. "{in}" and "{out}" are
	// replaced by the input and output file paths.
	Args []string

	// Dir is the working directory of the external minifier.
	Dir string

	// RetryDelay overrides DefaultRetryDelay.
	RetryDelay time.Duration

	Logger zerolog.Logger
}

// ClosureArgs returns the arguments that run Google Closure Compiler from
// jar through java.
func ClosureArgs(jar string) []string {
	return []string{"-jar", jar, "--js", "{in}", "--js_output_file", "{out}"}
}

// ErrCommandNotFound is returned by New when the external minifier cannot
// be located.
var ErrCommandNotFound = errors.New("external minifier not found")

// Dispatch routes each kind to the minifier configured for it.
type Dispatch struct {
	external Minifier
	inproc   Minifier
	engine   Engine
}

// New builds the minifier described by cfg.
func New(cfg Config) (*Dispatch, error) {
	if cfg.Engine == "" {
		cfg.Engine = EngineEsbuild
	}

	d := &Dispatch{engine: cfg.Engine}
	switch cfg.Engine {
	case EngineEsbuild:
		d.inproc = Esbuild{}
	case EngineTdewolff:
		d.inproc = NewTdewolff()
	default:
		return nil, errors.Errorf("unknown minifier engine %q (want esbuild or tdewolff)", cfg.Engine)
	}

	if cfg.Command != "" {
		path, err := exec.LookPath(cfg.Command)
		if err != nil {
			return nil, errors.Wrap(ErrCommandNotFound, err.Error())
		}
		d.external = &External{
			Command:    path,
			Args:       cfg.Args,
			Dir:        cfg.Dir,
			RetryDelay: cfg.RetryDelay,
			Logger:     cfg.Logger,
		}
	}
	return d, nil
}

// Minify implements Minifier.
func (d *Dispatch) Minify(ctx context.Context, kind Kind, src string) (string, error) {
	if kind == JS && d.external != nil {
		return d.external.Minify(ctx, kind, src)
	}
	return d.inproc.Minify(ctx, kind, src)
}

// EngineFor names the minifier used for kind, for logs and metrics.
func (d *Dispatch) EngineFor(kind Kind) string {
	if kind == JS && d.external != nil {
		return "external"
	}
	return string(d.engine)
}

// String describes the configuration.
func (d *Dispatch) String() string {
	return fmt.Sprintf("js=%s css=%s", d.EngineFor(JS), d.EngineFor(CSS))
}
