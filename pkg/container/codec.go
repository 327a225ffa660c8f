package container

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jwebster45206/cutscene-engine/pkg/graph"
)

// Format is an on-disk encoding of a container
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat maps a config value or file extension to a Format
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported container format: %s", s)
	}
}

// Ext returns the file extension for the format, including the dot
func (f Format) Ext() string {
	if f == FormatYAML {
		return ".yaml"
	}
	return ".json"
}

// Encode serializes a container
func Encode(c *Container, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		data, err := yaml.Marshal(c)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal container yaml: %w", err)
		}
		return data, nil
	case FormatJSON, "":
		data, err := json.MarshalIndent(c, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal container json: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported container format: %s", format)
	}
}

// Decode parses a container and migrates legacy shapes to the current
// version
func Decode(data []byte, format Format) (*Container, error) {
	c, _, err := DecodeWithNotes(data, format, false)
	return c, err
}

// DecodeStrict is Decode that rejects unknown top-level fields
func DecodeStrict(data []byte, format Format) (*Container, error) {
	c, _, err := DecodeWithNotes(data, format, true)
	return c, err
}

// DecodeWithNotes decodes and also returns the notes of any migration
// applied
func DecodeWithNotes(data []byte, format Format, strict bool) (*Container, []string, error) {
	var c Container
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(strict)
		if err := dec.Decode(&c); err != nil {
			return nil, nil, fmt.Errorf("failed to unmarshal container yaml: %w", err)
		}
	case FormatJSON, "":
		dec := json.NewDecoder(bytes.NewReader(data))
		if strict {
			dec.DisallowUnknownFields()
		}
		if err := dec.Decode(&c); err != nil {
			return nil, nil, fmt.Errorf("failed to unmarshal container json: %w", err)
		}
	default:
		return nil, nil, fmt.Errorf("unsupported container format: %s", format)
	}
	notes := Migrate(&c)
	return &c, notes, nil
}

// UnmarshalJSON accepts the node kind either as a name or, in legacy
// containers, as the ordinal of graph.Kinds.
func (r *NodeRecord) UnmarshalJSON(data []byte) error {
	type nodeRecordAlias NodeRecord
	aux := struct {
		Kind json.RawMessage `json:"type"`
		*nodeRecordAlias
	}{nodeRecordAlias: (*nodeRecordAlias)(r)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	raw := bytes.TrimSpace(aux.Kind)
	switch {
	case len(raw) == 0 || string(raw) == "null":
		r.Kind = ""
	case raw[0] == '"':
		var name string
		if err := json.Unmarshal(raw, &name); err != nil {
			return fmt.Errorf("invalid node type: %w", err)
		}
		r.Kind = graph.Kind(name)
	default:
		var ordinal int
		if err := json.Unmarshal(raw, &ordinal); err != nil {
			return fmt.Errorf("invalid node type %s: %w", raw, err)
		}
		if ordinal >= 0 && ordinal < len(graph.Kinds) {
			r.Kind = graph.Kinds[ordinal]
		} else {
			r.Kind = graph.Kind(fmt.Sprintf("%d", ordinal))
		}
	}
	return nil
}
