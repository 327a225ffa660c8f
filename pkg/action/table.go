package action

import (
	"fmt"

	"github.com/jwebster45206/cutscene-engine/pkg/identity"
)

type method struct {
	shape Shape
	fn    Func
}

// MethodTable is an in-memory Binder keyed by live object
type MethodTable struct {
	methods map[*identity.Object]map[string]method
}

// Ensure MethodTable implements Binder
var _ Binder = (*MethodTable)(nil)

func NewMethodTable() *MethodTable {
	return &MethodTable{
		methods: make(map[*identity.Object]map[string]method),
	}
}

// Register exposes fn as target.name with the given parameter shape
func (t *MethodTable) Register(target *identity.Object, name string, shape Shape, fn Func) {
	if target == nil || fn == nil {
		panic("action: Register requires a target and a func")
	}
	if t.methods[target] == nil {
		t.methods[target] = make(map[string]method)
	}
	t.methods[target][name] = method{shape: shape, fn: fn}
}

func (t *MethodTable) Bind(target *identity.Object, name string, shape Shape) (Func, error) {
	if target == nil {
		return nil, ErrNoTarget
	}
	m, ok := t.methods[target][name]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrMethodNotFound, target.Name, name)
	}
	if m.shape != shape {
		return nil, fmt.Errorf("%w: %s.%s takes %q, listener passes %q", ErrSignatureMismatch, target.Name, name, m.shape, shape)
	}
	return m.fn, nil
}
