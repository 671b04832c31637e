package config

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/booster/internal/errors"
)

// versionKey is the manifest field rewritten by SetVersion.
const versionKey = "version"

// CurrentVersion returns the persisted version string.
func (m *Manifest) CurrentVersion() string {
	return m.Version
}

// SetVersion stores v and writes it to the manifest file immediately.
// Only the version value changes on disk: other keys, ordering and
// comments are kept as the operator wrote them.
func (m *Manifest) SetVersion(v int) error {
	m.Version = strconv.Itoa(v)
	if m.path == "" {
		return m.Save()
	}

	data, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		return m.SaveTo(m.path)
	}
	if err != nil {
		return errors.New("E103").Wrap(err)
	}

	patched, err := patchVersion(data, FormatOf(m.path), m.Version)
	if err != nil {
		return errors.New("E103").WithDetail("Failed to update version in " + m.path).Wrap(err)
	}

	check, err := Parse(patched, FormatOf(m.path))
	if err != nil {
		return err
	}
	if check.Version != m.Version {
		return errors.New("E103").WithDetailf("version in %s reads back as %q, want %q", m.path, check.Version, m.Version)
	}

	if err := os.WriteFile(m.path, patched, 0644); err != nil {
		return errors.New("E103").Wrap(err)
	}
	return nil
}

// patchVersion returns data with the top-level version set to v.
func patchVersion(data []byte, format Format, v string) ([]byte, error) {
	switch format {
	case FormatYAML:
		return patchYAMLVersion(data, v)
	case FormatTOML:
		return patchTOMLVersion(data, v), nil
	default:
		return patchJSONVersion(data, v)
	}
}

// patchJSONVersion replaces the bytes of the top-level version value.
// A manifest without one gets it as its first key.
func patchJSONVersion(data []byte, v string) ([]byte, error) {
	quoted, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.Newf(errors.CategoryInput, "manifest is not a JSON object")
	}
	open := dec.InputOffset()

	keys := 0
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := tok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}
		keys++
		if key != versionKey {
			continue
		}

		end := int(dec.InputOffset())
		start := end - len(raw)
		out := make([]byte, 0, len(data)+len(quoted))
		out = append(out, data[:start]...)
		out = append(out, quoted...)
		return append(out, data[end:]...), nil
	}

	entry := "\"" + versionKey + "\": " + string(quoted)
	if keys > 0 {
		entry += ","
	}
	out := make([]byte, 0, len(data)+len(entry)+4)
	out = append(out, data[:open]...)
	out = append(out, "\n  "+entry...)
	if keys == 0 {
		out = append(out, '\n')
	}
	return append(out, data[open:]...), nil
}

// patchYAMLVersion edits the version node of the document tree, which
// keeps comments and key order.
func patchYAMLVersion(data []byte, v string) ([]byte, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, errors.Newf(errors.CategoryInput, "manifest is not a YAML mapping")
	}
	root := doc.Content[0]

	value := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Style: yaml.DoubleQuotedStyle, Value: v}
	found := false
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value == versionKey {
			old := root.Content[i+1]
			value.LineComment = old.LineComment
			value.HeadComment = old.HeadComment
			value.FootComment = old.FootComment
			root.Content[i+1] = value
			found = true
			break
		}
	}
	if !found {
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: versionKey}
		root.Content = append([]*yaml.Node{key, value}, root.Content...)
	}

	var buf bytes.Buffer
	if err := encodeYAML(&buf, &doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeYAML(w io.Writer, doc *yaml.Node) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

// tomlVersion matches a top-level version assignment and captures the
// text before the value and anything after it on the line.
var tomlVersion = regexp.MustCompile(`^(\s*version\s*=\s*)("[^"]*"|'[^']*'|[+-]?[0-9_]+)(.*)$`)

// patchTOMLVersion rewrites the version line of the root table. Lines
// inside [tables] are left alone.
func patchTOMLVersion(data []byte, v string) []byte {
	lines := bytes.SplitAfter(data, []byte("\n"))
	for i, line := range lines {
		trimmed := bytes.TrimSpace(line)
		if bytes.HasPrefix(trimmed, []byte("[")) {
			break
		}
		body := bytes.TrimRight(line, "\r\n")
		m := tomlVersion.FindSubmatch(body)
		if m == nil {
			continue
		}
		var b bytes.Buffer
		b.Write(m[1])
		b.WriteString(strconv.Quote(v))
		b.Write(m[3])
		b.Write(line[len(body):])
		lines[i] = b.Bytes()
		return bytes.Join(lines, nil)
	}
	return append([]byte(versionKey+" = "+strconv.Quote(v)+"\n"), data...)
}
