package graph

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrDuplicateProperty = errors.New("an exposed property with this name already exists")
	ErrBlankProperty     = errors.New("an exposed property name cannot be blank")
)

const (
	DefaultPropertyName  = "New Property"
	DefaultPropertyValue = "New Value"
)

// ExposedProperty is a named string substituted into dialogue as [Name]
type ExposedProperty struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// AddExposedProperty appends a property and returns the name it was stored
// under. Colliding names get "(1)" appended until unique.
func (g *Graph) AddExposedProperty(name, value string) string {
	if name == "" {
		name = DefaultPropertyName
		if value == "" {
			value = DefaultPropertyValue
		}
	}
	for g.hasProperty(name) {
		name += "(1)"
	}
	g.properties = append(g.properties, ExposedProperty{Name: name, Value: value})
	return name
}

// ExposedProperties returns a copy of the property list
func (g *Graph) ExposedProperties() []ExposedProperty {
	out := make([]ExposedProperty, len(g.properties))
	copy(out, g.properties)
	return out
}

// ExposedProperty returns the property with the given name
func (g *Graph) ExposedProperty(name string) (ExposedProperty, bool) {
	i := g.propertyIndex(name)
	if i < 0 {
		return ExposedProperty{}, false
	}
	return g.properties[i], true
}

// SetExposedPropertyValue updates a property's value
func (g *Graph) SetExposedPropertyValue(name, value string) {
	i := g.propertyIndex(name)
	if i < 0 {
		panic(fmt.Sprintf("graph: exposed property %q does not exist", name))
	}
	g.properties[i].Value = value
}

// RenameExposedProperty renames a property. Unlike adding, renaming onto an
// existing or blank name is rejected.
func (g *Graph) RenameExposedProperty(oldName, newName string) error {
	i := g.propertyIndex(oldName)
	if i < 0 {
		panic(fmt.Sprintf("graph: exposed property %q does not exist", oldName))
	}
	if oldName == newName {
		return nil
	}
	if strings.TrimSpace(newName) == "" {
		return ErrBlankProperty
	}
	if g.hasProperty(newName) {
		return fmt.Errorf("%w: %s", ErrDuplicateProperty, newName)
	}
	g.properties[i].Name = newName
	return nil
}

// RemoveExposedProperty deletes a property; unknown names are ignored
func (g *Graph) RemoveExposedProperty(name string) {
	if i := g.propertyIndex(name); i >= 0 {
		g.properties = append(g.properties[:i], g.properties[i+1:]...)
	}
}

// ClearExposedProperties removes every property
func (g *Graph) ClearExposedProperties() {
	g.properties = nil
}

func (g *Graph) hasProperty(name string) bool {
	return g.propertyIndex(name) >= 0
}

func (g *Graph) propertyIndex(name string) int {
	for i, p := range g.properties {
		if p.Name == name {
			return i
		}
	}
	return -1
}
