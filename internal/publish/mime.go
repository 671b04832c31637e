package publish

import (
	"path"
	"strings"
)

// DefaultMimeType is used for unknown or missing extensions.
const DefaultMimeType = "application/octet-stream"

var mimeTypes = buildMimeTypes(mimePairs[:])

func buildMimeTypes(pairs [][2]string) map[string]string {
	types := make(map[string]string, len(pairs))
	for _, p := range pairs {
		ext := strings.ToLower(p[0])
		if _, dup := types[ext]; dup {
			panic("publish: duplicate mime extension " + ext)
		}
		types[ext] = p[1]
	}
	return types
}

// MimeType returns the media type for a file name, path or bare extension
// ("app.css", ".css" or "css"). Lookup ignores case.
func MimeType(nameOrExt string) string {
	ext := path.Ext(strings.ReplaceAll(nameOrExt, "\\", "/"))
	if ext == "" {
		ext = nameOrExt
	}
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if ext == "" {
		return DefaultMimeType
	}
	if t, ok := mimeTypes[ext]; ok {
		return t
	}
	return DefaultMimeType
}
