package scripting

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	lua "github.com/yuin/gopher-lua"

	"github.com/jwebster45206/cutscene-engine/pkg/action"
	"github.com/jwebster45206/cutscene-engine/pkg/identity"
)

// TargetsGlobal is the global table scripts define their targets in
const TargetsGlobal = "targets"

// Binder resolves listener methods against a loaded script. It owns one
// Lua state and is not safe for concurrent use.
type Binder struct {
	L      *lua.LState
	logger *slog.Logger
}

// Ensure Binder implements action.Binder
var _ action.Binder = (*Binder)(nil)

// NewBinder runs code in a fresh sandboxed state
func NewBinder(ctx context.Context, code string, logger *slog.Logger) (*Binder, error) {
	if logger == nil {
		logger = slog.Default()
	}
	L, err := newState(ctx)
	if err != nil {
		return nil, err
	}

	b := &Binder{L: L, logger: logger}
	L.SetGlobal("log", L.NewFunction(b.luaLog))

	if err := L.DoString(code); err != nil {
		L.Close()
		return nil, fmt.Errorf("failed to run targets script: %w", err)
	}
	if _, ok := L.GetGlobal(TargetsGlobal).(*lua.LTable); !ok {
		logger.Warn("Script defines no targets table, every listener will fail to bind")
	}
	return b, nil
}

// LoadFile reads and runs a script file
func LoadFile(ctx context.Context, path string, logger *slog.Logger) (*Binder, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read targets script: %w", err)
	}
	return NewBinder(ctx, string(code), logger)
}

// Close releases the Lua state
func (b *Binder) Close() {
	b.L.Close()
}

func (b *Binder) luaLog(L *lua.LState) int {
	msg := L.CheckString(1)
	b.logger.Info("Script log", "message", msg)
	return 0
}

// Bind looks up targets[target.Name][method] and checks its declared shape
func (b *Binder) Bind(target *identity.Object, method string, shape action.Shape) (action.Func, error) {
	if target == nil {
		return nil, action.ErrNoTarget
	}

	targets, ok := b.L.GetGlobal(TargetsGlobal).(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("%w: no %s table", action.ErrMethodNotFound, TargetsGlobal)
	}
	methods, ok := targets.RawGetString(target.Name).(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("%w: no script target %q", action.ErrMethodNotFound, target.Name)
	}

	fn, declared, err := lookupMethod(methods.RawGetString(method))
	if err != nil {
		return nil, fmt.Errorf("%w: %s.%s: %v", action.ErrMethodNotFound, target.Name, method, err)
	}
	if declared != shape {
		return nil, fmt.Errorf("%w: %s.%s takes %q, listener passes %q", action.ErrSignatureMismatch, target.Name, method, declared, shape)
	}

	name := target.Name + "." + method
	return func(arg any) error {
		args := []lua.LValue{}
		if shape != action.ShapeNone {
			args = append(args, toLua(arg))
		}
		if err := b.L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, args...); err != nil {
			return fmt.Errorf("script method %s failed: %w", name, err)
		}
		return nil
	}, nil
}

// lookupMethod unpacks a method entry, either a bare function or
// { shape = ..., fn = ... }
func lookupMethod(v lua.LValue) (*lua.LFunction, action.Shape, error) {
	switch entry := v.(type) {
	case *lua.LFunction:
		return entry, action.ShapeNone, nil
	case *lua.LTable:
		fn, ok := entry.RawGetString("fn").(*lua.LFunction)
		if !ok {
			return nil, "", fmt.Errorf("method table has no fn")
		}
		shape := action.Shape(lua.LVAsString(entry.RawGetString("shape")))
		if !shape.Valid() {
			return nil, "", fmt.Errorf("unknown shape %q", shape)
		}
		return fn, shape, nil
	default:
		return nil, "", fmt.Errorf("not defined")
	}
}

func toLua(arg any) lua.LValue {
	switch v := arg.(type) {
	case nil:
		return lua.LNil
	case string:
		return lua.LString(v)
	case int:
		return lua.LNumber(v)
	case float64:
		return lua.LNumber(v)
	case bool:
		return lua.LBool(v)
	default:
		return lua.LString(fmt.Sprint(v))
	}
}
