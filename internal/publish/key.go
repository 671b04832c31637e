package publish

import (
	"strconv"
	"strings"
)

// Variant is one encoding of a published artifact.
type Variant int

const (
	Minified Variant = iota
	Gzip
	Debug
	Binary
)

// String returns the metrics label of v.
func (v Variant) String() string {
	switch v {
	case Gzip:
		return "gzip"
	case Debug:
		return "debug"
	case Binary:
		return "binary"
	default:
		return "min"
	}
}

// Key composes the object key of rel inside the version folder. Slashes
// surrounding subdir are ignored, backslashes in rel become forward
// slashes and a leading slash on rel is dropped.
func Key(subdir string, version int, rel string) string {
	rel = strings.TrimLeft(strings.ReplaceAll(rel, "\\", "/"), "/")
	folder := strconv.Itoa(version)
	if subdir = strings.Trim(subdir, "/"); subdir != "" {
		folder = subdir + "/" + folder
	}
	return folder + "/" + rel
}

// VariantName returns the relative name of variant v of the bundle base
// with extension ext (".js" or ".css"):
//
//	Minified: base.min.ext
//	Gzip:     base.gzip.ext
//	Debug:    base.debugKey.ext
func VariantName(base, ext string, v Variant, debugKey string) string {
	switch v {
	case Gzip:
		return base + ".gzip" + ext
	case Debug:
		return base + "." + debugKey + ext
	default:
		return base + ".min" + ext
	}
}
