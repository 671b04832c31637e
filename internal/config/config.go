package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/booster/internal/errors"
)

const (
	// FileName is the default name of the manifest file.
	FileName = "booster.json"
)

// fileNames lists the manifest names Load looks for, in order.
var fileNames = []string{"booster.json", "booster.yaml", "booster.yml", "booster.toml"}

// Format is the on-disk encoding of a manifest.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatOf returns the manifest format implied by the file extension.
// Unknown extensions are treated as JSON.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	default:
		return FormatJSON
	}
}

// Manifest is the parsed asset manifest. It is read once at startup; the
// only field a deployment changes is Version.
type Manifest struct {
	// Version is the asset version last deployed, as a decimal string.
	Version string `json:"version,omitempty" yaml:"version,omitempty" toml:"version,omitempty"`

	// CdnSubDirectory nests every version folder under this path. Useful
	// when one bucket serves several applications.
	CdnSubDirectory string `json:"cdnSubDirectory,omitempty" yaml:"cdnSubDirectory,omitempty" toml:"cdnSubDirectory,omitempty"`

	// DebugKey, when set, publishes an unminified variant of every bundle
	// with this suffix.
	DebugKey string `json:"debugKey,omitempty" yaml:"debugKey,omitempty" toml:"debugKey,omitempty"`

	// Local makes the application serve local files instead of CDN URLs.
	// Only read by the application's URL helpers.
	Local bool `json:"local" yaml:"local" toml:"local"`

	// CdnURLPrefix is the http prefix of the CDN distribution.
	CdnURLPrefix string `json:"cdnUrlPrefix" yaml:"cdnUrlPrefix" toml:"cdnUrlPrefix"`

	// CdnHTTPSURLPrefix is the https prefix of the CDN distribution.
	CdnHTTPSURLPrefix string `json:"cdnHttpsUrlPrefix,omitempty" yaml:"cdnHttpsUrlPrefix,omitempty" toml:"cdnHttpsUrlPrefix,omitempty"`

	// Libraries are the declared bundles, in declaration order.
	Libraries []Library `json:"libraries" yaml:"libraries" toml:"libraries"`

	path   string
	format Format
}

// Library is a named bundle of JavaScript or CSS files. The extension of
// Name decides the kind.
type Library struct {
	Name      string      `json:"name" yaml:"name" toml:"name"`
	IncludeIn Environment `json:"includeIn,omitempty" yaml:"includeIn,omitempty" toml:"includeIn,omitempty"`
	Files     []File      `json:"files" yaml:"files" toml:"files"`
}

// File is a single member of a library.
type File struct {
	// Path is relative to the application root, e.g. "/scripts/app.js".
	Path string `json:"path" yaml:"path" toml:"path"`

	// CustomLocalPath points local mode at a different file, such as the
	// .less source of a compiled .css file.
	CustomLocalPath string `json:"customLocalPath,omitempty" yaml:"customLocalPath,omitempty" toml:"customLocalPath,omitempty"`

	IncludeIn Environment `json:"includeIn,omitempty" yaml:"includeIn,omitempty" toml:"includeIn,omitempty"`
}

// New creates a Manifest with default values.
func New() *Manifest {
	return &Manifest{
		Version: "0",
		Local:   true,
		format:  FormatJSON,
	}
}

// Load reads the manifest from the specified directory, trying each
// supported file name in turn.
func Load(dir string) (*Manifest, error) {
	for _, name := range fileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, errors.New("E102").
		WithDetail("No booster.json found in " + dir).
		WithSuggestion("Run 'booster init' or pass --manifest")
}

// LoadFile reads the manifest from the specified file path.
func LoadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E102").
				WithDetail("No manifest found at " + path).
				WithSuggestion("Run 'booster init' or pass --manifest")
		}
		return nil, errors.New("E103").Wrap(err)
	}

	m, err := Parse(data, FormatOf(path))
	if err != nil {
		return nil, err
	}
	m.path = path
	return m, nil
}

// Parse decodes a manifest and validates it.
func Parse(data []byte, format Format) (*Manifest, error) {
	m := New()
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, m)
	case FormatTOML:
		err = toml.Unmarshal(data, m)
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		err = dec.Decode(m)
	}
	if err != nil {
		return nil, errors.New("E103").
			WithDetail("Failed to parse manifest: " + err.Error()).
			WithSuggestion("Check that the manifest is valid " + string(format))
	}
	m.format = format
	m.applyDefaults()

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Encode serializes the manifest in its format.
func (m *Manifest) Encode() ([]byte, error) {
	switch m.format {
	case FormatYAML:
		return yaml.Marshal(m)
	case FormatTOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(m); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		data, err := json.MarshalIndent(m, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	}
}

// Save writes the manifest to the file it was loaded from.
func (m *Manifest) Save() error {
	if m.path == "" {
		return errors.Newf(errors.CategoryInput, "no manifest path set")
	}
	return m.SaveTo(m.path)
}

// SaveTo writes the manifest to the specified path. The format follows
// the path's extension.
func (m *Manifest) SaveTo(path string) error {
	m.format = FormatOf(path)
	data, err := m.Encode()
	if err != nil {
		return errors.New("E103").Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E103").Wrap(err)
	}

	m.path = path
	return nil
}

// Path returns the path where the manifest was loaded from.
func (m *Manifest) Path() string {
	return m.path
}

// Dir returns the directory containing the manifest file.
func (m *Manifest) Dir() string {
	if m.path == "" {
		return ""
	}
	return filepath.Dir(m.path)
}

// HasDebugKey reports whether debug variants are published.
func (m *Manifest) HasDebugKey() bool {
	return m.DebugKey != ""
}

// applyDefaults fills in default values for empty fields.
func (m *Manifest) applyDefaults() {
	m.CdnSubDirectory = strings.Trim(m.CdnSubDirectory, "/")
	m.DebugKey = strings.TrimSpace(m.DebugKey)
	if m.CdnHTTPSURLPrefix == "" && strings.HasPrefix(m.CdnURLPrefix, "http://") {
		m.CdnHTTPSURLPrefix = "https://" + strings.TrimPrefix(m.CdnURLPrefix, "http://")
	}
}

// Validate checks if the manifest is valid.
func (m *Manifest) Validate() error {
	if m.CdnURLPrefix == "" {
		return errors.New("E103").
			WithDetail("cdnUrlPrefix is required").
			WithSuggestion("Set cdnUrlPrefix to your CDN distribution URL, e.g. https://d195o39hmhpr24.cloudfront.net/")
	}

	seen := make(map[string]bool, len(m.Libraries))
	for i, lib := range m.Libraries {
		if lib.Name == "" {
			return errors.New("E103").WithDetailf("library #%d has no name", i+1)
		}
		if seen[lib.Name] {
			return errors.New("E103").WithDetailf("library %q is declared twice", lib.Name)
		}
		seen[lib.Name] = true

		for j, f := range lib.Files {
			if f.Path == "" {
				return errors.New("E103").WithDetailf("file #%d of library %q has no path", j+1, lib.Name)
			}
		}
	}
	return nil
}

// Exists checks if a manifest file exists in the given directory.
func Exists(dir string) bool {
	for _, name := range fileNames {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// FindRoot walks up directories to find the application root.
// Returns the directory containing a manifest, or an error if not found.
func FindRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("E102").
				WithDetail("No booster.json found in " + startDir + " or any parent directory").
				WithSuggestion("Run 'booster init' to create one")
		}
		dir = parent
	}
}
