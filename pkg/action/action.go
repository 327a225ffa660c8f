// Package action implements the multicast action fired by UnityEvent nodes.
//
// An Action is a list of bindings, each a callable produced by a Binder for
// a (target, method, shape) triple. Actions are never persisted directly:
// Extract flattens them to Listener records keyed by stable object IDs, and
// Rebuild binds those records again against a live scene.
package action

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jwebster45206/cutscene-engine/pkg/identity"
)

var (
	ErrNoTarget          = errors.New("listener target not found")
	ErrMethodNotFound    = errors.New("method not found on target")
	ErrSignatureMismatch = errors.New("method signature mismatch")
)

// Shape is the parameter shape of a bound method
type Shape string

const (
	ShapeNone   Shape = ""
	ShapeString Shape = "string"
	ShapeInt    Shape = "int"
	ShapeFloat  Shape = "float"
	ShapeBool   Shape = "bool"
)

// Valid reports whether s is a known parameter shape
func (s Shape) Valid() bool {
	switch s {
	case ShapeNone, ShapeString, ShapeInt, ShapeFloat, ShapeBool:
		return true
	}
	return false
}

// Func is a bound callable. arg is nil for ShapeNone, otherwise a string,
// int, float64 or bool matching the bound shape.
type Func func(arg any) error

// Binder is the host capability table: given a live target and a method
// name, it produces a callable or fails.
type Binder interface {
	Bind(target *identity.Object, method string, shape Shape) (Func, error)
}

// Listener is the persisted form of one binding
type Listener struct {
	TargetID string `json:"target_id" yaml:"target_id"`
	Method   string `json:"method" yaml:"method"`
	Shape    Shape  `json:"parameter_shape,omitempty" yaml:"parameter_shape,omitempty"`
	Argument string `json:"argument,omitempty" yaml:"argument,omitempty"`
}

// Binding is one live listener of an Action
type Binding struct {
	Target   *identity.Object
	Method   string
	Shape    Shape
	Argument string

	fn  Func
	arg any
}

// Action is a multicast list of bindings. Listeners that failed to bind
// keep their slot so the recorded order survives a rebuild.
type Action struct {
	slots []slot
}

// slot holds either a live binding or the dangling record it came from
type slot struct {
	binding  *Binding
	dangling Listener
}

// New returns an empty action
func New() *Action {
	return &Action{}
}

// AddListener binds method on target through the binder and appends it
func (a *Action) AddListener(b Binder, target *identity.Object, method string, shape Shape, argument string) error {
	if target == nil {
		return ErrNoTarget
	}
	if b == nil {
		return fmt.Errorf("%w: no binder for %s.%s", ErrMethodNotFound, target.Name, method)
	}
	arg, err := parseArgument(shape, argument)
	if err != nil {
		return err
	}
	fn, err := b.Bind(target, method, shape)
	if err != nil {
		return err
	}
	a.slots = append(a.slots, slot{binding: &Binding{
		Target:   target,
		Method:   method,
		Shape:    shape,
		Argument: argument,
		fn:       fn,
		arg:      arg,
	}})
	return nil
}

// RemoveListener removes the i-th live binding
func (a *Action) RemoveListener(i int) {
	live := -1
	for j, sl := range a.slots {
		if sl.binding == nil {
			continue
		}
		live++
		if live == i {
			a.slots = append(a.slots[:j], a.slots[j+1:]...)
			return
		}
	}
	panic(fmt.Sprintf("action: listener index %d out of range", i))
}

// Bindings returns a copy of the live bindings
func (a *Action) Bindings() []Binding {
	var out []Binding
	for _, sl := range a.slots {
		if sl.binding != nil {
			out = append(out, *sl.binding)
		}
	}
	return out
}

// Dangling returns listeners that could not be bound on the last rebuild.
// They are kept so that saving does not lose them.
func (a *Action) Dangling() []Listener {
	var out []Listener
	for _, sl := range a.slots {
		if sl.binding == nil {
			out = append(out, sl.dangling)
		}
	}
	return out
}

// Len returns the number of live bindings
func (a *Action) Len() int {
	if a == nil {
		return 0
	}
	n := 0
	for _, sl := range a.slots {
		if sl.binding != nil {
			n++
		}
	}
	return n
}

// Invoke calls every binding in order. A failing listener does not stop the
// others; all failures are returned joined.
func (a *Action) Invoke() error {
	if a == nil {
		return nil
	}
	var errs []error
	for _, sl := range a.slots {
		b := sl.binding
		if b == nil {
			continue
		}
		if err := b.fn(b.arg); err != nil {
			name := ""
			if b.Target != nil {
				name = b.Target.Name
			}
			errs = append(errs, fmt.Errorf("listener %s.%s failed: %w", name, b.Method, err))
		}
	}
	return errors.Join(errs...)
}

// Extract flattens the action into listener records in slot order.
// Targets without a resolvable ID are recorded with an empty TargetID and a
// warning.
func (a *Action) Extract(r identity.Resolver, logger *slog.Logger) []Listener {
	if a == nil {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	var out []Listener
	for _, sl := range a.slots {
		b := sl.binding
		if b == nil {
			out = append(out, sl.dangling)
			continue
		}
		id, ok := "", false
		if r != nil {
			id, ok = r.IDOf(b.Target)
		}
		if !ok {
			name := ""
			if b.Target != nil {
				name = b.Target.Name
			}
			logger.Warn("Listener target has no stable ID, recording as unresolved", "target", name, "method", b.Method)
		}
		out = append(out, Listener{
			TargetID: id,
			Method:   b.Method,
			Shape:    b.Shape,
			Argument: b.Argument,
		})
	}
	return out
}

// Rebuild binds listener records against live objects. A record that fails
// to bind is skipped with a warning and kept as dangling.
func Rebuild(listeners []Listener, r identity.Resolver, b Binder, logger *slog.Logger) *Action {
	if logger == nil {
		logger = slog.Default()
	}
	a := New()
	for _, l := range listeners {
		var target *identity.Object
		if r != nil {
			target, _ = r.Resolve(l.TargetID)
		}
		if err := a.AddListener(b, target, l.Method, l.Shape, l.Argument); err != nil {
			logger.Warn("Failed to rebind listener",
				"target_id", l.TargetID,
				"method", l.Method,
				"error", err)
			a.slots = append(a.slots, slot{dangling: l})
		}
	}
	return a
}

func parseArgument(shape Shape, raw string) (any, error) {
	switch shape {
	case ShapeNone:
		return nil, nil
	case ShapeString:
		return raw, nil
	case ShapeInt:
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: argument %q is not an int", ErrSignatureMismatch, raw)
		}
		return v, nil
	case ShapeFloat:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: argument %q is not a float", ErrSignatureMismatch, raw)
		}
		return v, nil
	case ShapeBool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: argument %q is not a bool", ErrSignatureMismatch, raw)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("%w: unknown parameter shape %q", ErrSignatureMismatch, shape)
	}
}
