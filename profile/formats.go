package profile

import (
	"fmt"
	"strings"

	toml "github.com/pelletier/go-toml"
	yaml "gopkg.in/yaml.v3"
)

// Format is a profile file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// ParseFormat normalizes a format name or file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("unsupported format: %s", s)
	}
}

// Export renders p in the given format using the interchange keys.
func Export(p Profile, format Format) ([]byte, error) {
	doc := buildDocument(&p, schema)
	switch format {
	case FormatJSON:
		return Generate(p), nil
	case FormatYAML:
		return yaml.Marshal(doc)
	case FormatTOML:
		return toml.Marshal(doc.toMap())
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// Import reads a profile written by Export or by hand. It follows the same
// rules as Parse.
func Import(data []byte, format Format) (Profile, []ParseWarning, error) {
	var raw map[string]any
	switch format {
	case FormatJSON:
		return Parse(data)
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Profile{}, nil, &ParseError{Err: err}
		}
	case FormatTOML:
		tree, err := toml.LoadBytes(data)
		if err != nil {
			return Profile{}, nil, &ParseError{Err: err}
		}
		raw = tree.ToMap()
	default:
		return Profile{}, nil, fmt.Errorf("unsupported format: %s", format)
	}
	if raw == nil {
		return Profile{}, nil, &ParseError{Err: fmt.Errorf("empty %s document", format)}
	}
	p, warnings := fromMap(raw)
	return p, warnings, nil
}
