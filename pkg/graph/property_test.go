package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddExposedProperty_UniqueNames(t *testing.T) {
	g := New()

	assert.Equal(t, "Score", g.AddExposedProperty("Score", "0"))
	assert.Equal(t, "Score(1)", g.AddExposedProperty("Score", "1"))
	assert.Equal(t, "Score(1)(1)", g.AddExposedProperty("Score", "2"))

	props := g.ExposedProperties()
	require.Len(t, props, 3)
	assert.Equal(t, ExposedProperty{Name: "Score(1)(1)", Value: "2"}, props[2])
}

func TestAddExposedProperty_Defaults(t *testing.T) {
	g := New()
	name := g.AddExposedProperty("", "")
	assert.Equal(t, DefaultPropertyName, name)

	p, ok := g.ExposedProperty(name)
	require.True(t, ok)
	assert.Equal(t, DefaultPropertyValue, p.Value)

	assert.Equal(t, DefaultPropertyName+"(1)", g.AddExposedProperty("", ""))
}

func TestRenameExposedProperty(t *testing.T) {
	g := New()
	g.AddExposedProperty("Player", "Alex")
	g.AddExposedProperty("Town", "Brill")

	assert.ErrorIs(t, g.RenameExposedProperty("Town", "Player"), ErrDuplicateProperty)
	require.NoError(t, g.RenameExposedProperty("Town", "City"))
	require.NoError(t, g.RenameExposedProperty("City", "City"))

	_, ok := g.ExposedProperty("Town")
	assert.False(t, ok)
	p, ok := g.ExposedProperty("City")
	require.True(t, ok)
	assert.Equal(t, "Brill", p.Value)

	assert.Panics(t, func() { _ = g.RenameExposedProperty("Nope", "Other") })
}

func TestRenameExposedProperty_RejectsBlank(t *testing.T) {
	g := New()
	g.AddExposedProperty("Player", "")

	assert.ErrorIs(t, g.RenameExposedProperty("Player", ""), ErrBlankProperty)
	assert.ErrorIs(t, g.RenameExposedProperty("Player", "  "), ErrBlankProperty)
	assert.Equal(t, []ExposedProperty{{Name: "Player", Value: ""}}, g.ExposedProperties())
}

func TestSetAndRemoveExposedProperty(t *testing.T) {
	g := New()
	g.AddExposedProperty("Mood", "calm")
	g.SetExposedPropertyValue("Mood", "angry")

	p, _ := g.ExposedProperty("Mood")
	assert.Equal(t, "angry", p.Value)

	g.RemoveExposedProperty("Mood")
	g.RemoveExposedProperty("Mood")
	assert.Empty(t, g.ExposedProperties())

	assert.Panics(t, func() { g.SetExposedPropertyValue("Mood", "x") })
}

func TestClearExposedProperties(t *testing.T) {
	g := New()
	g.AddExposedProperty("A", "1")
	g.AddExposedProperty("B", "2")
	g.ClearExposedProperties()
	assert.Empty(t, g.ExposedProperties())
}
