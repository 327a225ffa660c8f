package action

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/cutscene-engine/pkg/identity"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAction_InvokeCallsEveryListener(t *testing.T) {
	door := identity.NewObject("Door", identity.KindObject)
	table := NewMethodTable()

	var calls []string
	table.Register(door, "Open", ShapeNone, func(arg any) error {
		calls = append(calls, "open")
		assert.Nil(t, arg)
		return nil
	})
	table.Register(door, "SetSpeed", ShapeFloat, func(arg any) error {
		calls = append(calls, "speed")
		assert.Equal(t, 2.5, arg)
		return nil
	})

	a := New()
	require.NoError(t, a.AddListener(table, door, "Open", ShapeNone, ""))
	require.NoError(t, a.AddListener(table, door, "SetSpeed", ShapeFloat, "2.5"))
	require.Equal(t, 2, a.Len())

	require.NoError(t, a.Invoke())
	assert.Equal(t, []string{"open", "speed"}, calls)
}

func TestAction_InvokeContinuesAfterFailure(t *testing.T) {
	obj := identity.NewObject("Alarm", identity.KindObject)
	table := NewMethodTable()
	boom := errors.New("boom")
	ran := false
	table.Register(obj, "Fail", ShapeNone, func(any) error { return boom })
	table.Register(obj, "Ring", ShapeNone, func(any) error { ran = true; return nil })

	a := New()
	require.NoError(t, a.AddListener(table, obj, "Fail", ShapeNone, ""))
	require.NoError(t, a.AddListener(table, obj, "Ring", ShapeNone, ""))

	err := a.Invoke()
	assert.ErrorIs(t, err, boom)
	assert.True(t, ran)
}

func TestAction_AddListenerErrors(t *testing.T) {
	obj := identity.NewObject("Light", identity.KindObject)
	table := NewMethodTable()
	table.Register(obj, "Dim", ShapeInt, func(any) error { return nil })

	a := New()
	assert.ErrorIs(t, a.AddListener(table, nil, "Dim", ShapeInt, "1"), ErrNoTarget)
	assert.ErrorIs(t, a.AddListener(table, obj, "Brighten", ShapeNone, ""), ErrMethodNotFound)
	assert.ErrorIs(t, a.AddListener(table, obj, "Dim", ShapeString, "x"), ErrSignatureMismatch)
	assert.ErrorIs(t, a.AddListener(table, obj, "Dim", ShapeInt, "not-a-number"), ErrSignatureMismatch)
	assert.ErrorIs(t, a.AddListener(nil, obj, "Dim", ShapeInt, "1"), ErrMethodNotFound)
	assert.Zero(t, a.Len())
}

func TestAction_ExtractAndRebuild(t *testing.T) {
	scene := identity.NewScene(quietLogger())
	door := identity.NewObject("Door", identity.KindObject)
	lamp := identity.NewObject("Lamp", identity.KindObject)
	scene.Add(door, lamp)

	table := NewMethodTable()
	opened, lit := 0, ""
	table.Register(door, "Open", ShapeNone, func(any) error { opened++; return nil })
	table.Register(lamp, "SetColor", ShapeString, func(arg any) error { lit = arg.(string); return nil })

	a := New()
	require.NoError(t, a.AddListener(table, door, "Open", ShapeNone, ""))
	require.NoError(t, a.AddListener(table, lamp, "SetColor", ShapeString, "red"))

	records := a.Extract(scene, quietLogger())
	require.Len(t, records, 2)
	assert.Equal(t, Listener{TargetID: door.ID(), Method: "Open"}, records[0])
	assert.Equal(t, Listener{TargetID: lamp.ID(), Method: "SetColor", Shape: ShapeString, Argument: "red"}, records[1])

	rebuilt := Rebuild(records, scene, table, quietLogger())
	require.Equal(t, 2, rebuilt.Len())
	assert.Empty(t, rebuilt.Dangling())
	require.NoError(t, rebuilt.Invoke())
	assert.Equal(t, 1, opened)
	assert.Equal(t, "red", lit)
}

func TestAction_ExtractUnresolvedTarget(t *testing.T) {
	scene := identity.NewScene(quietLogger())
	stray := identity.NewObject("Stray", identity.KindObject)
	table := NewMethodTable()
	table.Register(stray, "Poke", ShapeNone, func(any) error { return nil })

	a := New()
	require.NoError(t, a.AddListener(table, stray, "Poke", ShapeNone, ""))

	records := a.Extract(scene, quietLogger())
	require.Len(t, records, 1)
	assert.Empty(t, records[0].TargetID)
	assert.Equal(t, "Poke", records[0].Method)
}

func TestRebuild_SkipsOnlyBrokenListeners(t *testing.T) {
	scene := identity.NewScene(quietLogger())
	good := identity.NewObject("Good", identity.KindObject)
	scene.Add(good)
	table := NewMethodTable()
	called := false
	table.Register(good, "Go", ShapeNone, func(any) error { called = true; return nil })

	records := []Listener{
		{TargetID: "gone", Method: "Go"},
		{TargetID: good.ID(), Method: "Missing"},
		{TargetID: good.ID(), Method: "Go", Shape: ShapeBool, Argument: "true"},
		{TargetID: good.ID(), Method: "Go"},
	}

	a := Rebuild(records, scene, table, quietLogger())
	assert.Equal(t, 1, a.Len())
	assert.Equal(t, records[:3], a.Dangling())

	require.NoError(t, a.Invoke())
	assert.True(t, called)

	// dangling listeners survive the next extraction
	again := a.Extract(scene, quietLogger())
	assert.Equal(t, records, again)
}

func TestRebuild_DanglingKeepsListenerOrder(t *testing.T) {
	scene := identity.NewScene(quietLogger())
	door := identity.NewObject("Door", identity.KindObject)
	lamp := identity.NewObject("Lamp", identity.KindObject)
	scene.Add(door, lamp)

	var calls []string
	table := NewMethodTable()
	table.Register(door, "Open", ShapeNone, func(any) error { calls = append(calls, "Open"); return nil })
	table.Register(lamp, "SetBrightness", ShapeFloat, func(any) error { calls = append(calls, "SetBrightness"); return nil })

	a := New()
	require.NoError(t, a.AddListener(table, door, "Open", ShapeNone, ""))
	require.NoError(t, a.AddListener(table, lamp, "SetBrightness", ShapeFloat, "0.5"))
	saved := a.Extract(scene, quietLogger())

	door.Regenerate()
	first := Rebuild(saved, scene, table, quietLogger())
	require.Equal(t, 1, first.Len())
	resaved := first.Extract(scene, quietLogger())
	assert.Equal(t, saved, resaved)

	// the door comes back under its recorded id
	restored := identity.NewObjectWithID(saved[0].TargetID, "Door", identity.KindObject)
	scene.Add(restored)
	table.Register(restored, "Open", ShapeNone, func(any) error { calls = append(calls, "Open"); return nil })

	second := Rebuild(resaved, scene, table, quietLogger())
	require.Equal(t, 2, second.Len())
	require.NoError(t, second.Invoke())
	assert.Equal(t, []string{"Open", "SetBrightness"}, calls)
}

func TestAction_RemoveListenerSkipsDangling(t *testing.T) {
	scene := identity.NewScene(quietLogger())
	fan := identity.NewObject("Fan", identity.KindObject)
	scene.Add(fan)
	table := NewMethodTable()
	table.Register(fan, "Spin", ShapeNone, func(any) error { return nil })
	table.Register(fan, "Stop", ShapeNone, func(any) error { return nil })

	a := Rebuild([]Listener{
		{TargetID: "gone", Method: "Spin"},
		{TargetID: fan.ID(), Method: "Spin"},
		{TargetID: fan.ID(), Method: "Stop"},
	}, scene, table, quietLogger())

	a.RemoveListener(0)
	bindings := a.Bindings()
	require.Len(t, bindings, 1)
	assert.Equal(t, "Stop", bindings[0].Method)
	assert.Len(t, a.Dangling(), 1)
}

func TestAction_RemoveListener(t *testing.T) {
	obj := identity.NewObject("Fan", identity.KindObject)
	table := NewMethodTable()
	table.Register(obj, "Spin", ShapeNone, func(any) error { return nil })

	a := New()
	require.NoError(t, a.AddListener(table, obj, "Spin", ShapeNone, ""))
	a.RemoveListener(0)
	assert.Zero(t, a.Len())
	assert.Panics(t, func() { a.RemoveListener(0) })
}

func TestAction_NilIsNoop(t *testing.T) {
	var a *Action
	assert.NoError(t, a.Invoke())
	assert.Zero(t, a.Len())
	assert.Nil(t, a.Extract(nil, nil))
}
