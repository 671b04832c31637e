// Package bundle resolves manifest libraries into ordered file lists and
// assembles them into the text variants that get published.
package bundle

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vango-dev/booster/internal/config"
	"github.com/vango-dev/booster/internal/minify"
)

// Kind is the language of a bundle.
type Kind = minify.Kind

const (
	JS  = minify.JS
	CSS = minify.CSS
)

// SourceFile is one member of a bundle.
type SourceFile struct {
	// Path is absolute.
	Path      string
	IncludeIn config.Environment
}

// Bundle is a named, ordered group of files of one kind.
type Bundle struct {
	Name  string
	Kind  Kind
	Files []SourceFile
}

// Base returns the bundle name without surrounding slashes and without the
// kind's extension. Variant keys are formed by appending to it.
func (b Bundle) Base() string {
	return Base(b.Name, b.Kind)
}

// Base trims surrounding slashes and the extension of kind from name.
func Base(name string, kind Kind) string {
	name = strings.Trim(name, "/")
	ext := kind.Ext()
	if len(name) >= len(ext) && strings.EqualFold(name[len(name)-len(ext):], ext) {
		name = name[:len(name)-len(ext)]
	}
	return name
}

// Paths returns the absolute paths of the bundle's files.
func (b Bundle) Paths() []string {
	paths := make([]string, len(b.Files))
	for i, f := range b.Files {
		paths[i] = f.Path
	}
	return paths
}

// Resolver turns manifest libraries into bundles rooted at Root.
type Resolver struct {
	Root     string
	Manifest *config.Manifest
	Logger   zerolog.Logger

	// OnDrop, when set, is called for every library dropped because none of
	// its files could be resolved.
	OnDrop func(kind Kind, name string)

	// Exists defaults to a regular-file check on the local filesystem.
	Exists func(path string) bool
}

// Resolve returns the bundles of kind in manifest declaration order.
// Libraries and files scoped to local mode are skipped. A missing member
// file is logged and dropped; a library left with no files is logged and
// dropped.
func (r *Resolver) Resolve(kind Kind) []Bundle {
	exists := r.Exists
	if exists == nil {
		exists = FileExists
	}

	var bundles []Bundle
	for _, lib := range r.Manifest.Libraries {
		if lib.IncludeIn == config.Local {
			continue
		}
		if lib.Name == "" || !strings.HasSuffix(lib.Name, kind.Ext()) {
			continue
		}

		b := Bundle{Name: lib.Name, Kind: kind}
		for _, f := range lib.Files {
			if f.IncludeIn == config.Local {
				continue
			}
			path := r.Join(f.Path)
			if !exists(path) {
				r.Logger.Warn().
					Str("bundle", lib.Name).
					Str("path", f.Path).
					Msg("asset file not found, skipping it; fix the path in the manifest")
				continue
			}
			b.Files = append(b.Files, SourceFile{Path: path, IncludeIn: f.IncludeIn})
		}

		if len(b.Files) == 0 {
			r.Logger.Warn().Str("bundle", lib.Name).Msg("bundle has no asset files and will be ignored")
			if r.OnDrop != nil {
				r.OnDrop(kind, lib.Name)
			}
			continue
		}
		bundles = append(bundles, b)
	}
	return bundles
}

// Join resolves a manifest path ("/scripts/a.js") against Root.
func (r *Resolver) Join(rel string) string {
	rel = strings.TrimLeft(rel, "/")
	return filepath.Join(r.Root, filepath.FromSlash(rel))
}

// FileExists reports whether path names an existing regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
