// Package scene loads the live objects of a headless host from a YAML
// manifest. Object IDs assigned while the host runs are written back so
// they persist with the object, the same way they would in an authored
// scene file.
package scene

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/jwebster45206/cutscene-engine/pkg/identity"
)

// ObjectSpec is one manifest entry
type ObjectSpec struct {
	ID   string        `yaml:"id,omitempty"`
	Name string        `yaml:"name"`
	Kind identity.Kind `yaml:"kind,omitempty"`
}

// Manifest lists a scene's objects and an optional Lua script defining
// their callable methods
type Manifest struct {
	Objects []ObjectSpec `yaml:"objects"`
	Script  string       `yaml:"script,omitempty"`

	path    string
	objects []*identity.Object
}

// Load reads a manifest file
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse scene manifest %s: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scene manifest %s: %w", path, err)
	}
	m.path = path
	return &m, nil
}

// Validate checks names and kinds
func (m *Manifest) Validate() error {
	for i, o := range m.Objects {
		if o.Name == "" {
			return fmt.Errorf("object %d has no name", i)
		}
		switch o.Kind {
		case "", identity.KindObject, identity.KindCamera:
		default:
			return fmt.Errorf("object %q has unknown kind %q", o.Name, o.Kind)
		}
	}
	return nil
}

// ScriptPath returns the script location resolved against the manifest's
// directory, or "" when the manifest has no script
func (m *Manifest) ScriptPath() string {
	if m.Script == "" {
		return ""
	}
	if filepath.IsAbs(m.Script) || m.path == "" {
		return m.Script
	}
	return filepath.Join(filepath.Dir(m.path), m.Script)
}

// Scene builds the live objects. Entries without an ID receive one when
// the scene registers them.
func (m *Manifest) Scene(logger *slog.Logger) *identity.Scene {
	s := identity.NewScene(logger)
	m.objects = make([]*identity.Object, len(m.Objects))
	for i, o := range m.Objects {
		if o.ID != "" {
			m.objects[i] = identity.NewObjectWithID(o.ID, o.Name, o.Kind)
		} else {
			m.objects[i] = identity.NewObject(o.Name, o.Kind)
		}
		s.Add(m.objects[i])
	}
	return s
}

// Sync copies IDs from the live objects back into the manifest and
// reports whether anything changed
func (m *Manifest) Sync() bool {
	changed := false
	for i, obj := range m.objects {
		if i >= len(m.Objects) {
			break
		}
		if id := obj.ID(); id != "" && m.Objects[i].ID != id {
			m.Objects[i].ID = id
			changed = true
		}
	}
	return changed
}

// Save writes the manifest back to the file it was loaded from
func (m *Manifest) Save() error {
	if m.path == "" {
		return fmt.Errorf("scene manifest has no path")
	}
	return m.SaveAs(m.path)
}

// SaveAs writes the manifest to path
func (m *Manifest) SaveAs(path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal scene manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write scene manifest: %w", err)
	}
	m.path = path
	return nil
}

// LoadScene loads a manifest, builds its scene and persists any IDs that
// were assigned on the way
func LoadScene(path string, logger *slog.Logger) (*Manifest, *identity.Scene, error) {
	m, err := Load(path)
	if err != nil {
		return nil, nil, err
	}
	s := m.Scene(logger)
	if m.Sync() {
		if err := m.Save(); err != nil {
			return nil, nil, err
		}
		logger.Info("Assigned object IDs written to scene manifest", "path", path)
	}
	return m, s, nil
}
