// Package scripting binds cutscene event listeners to methods written in
// Lua. A script declares a global table of targets keyed by object name:
//
//	targets = {
//	  Door = {
//	    Open = function() log("door opens") end,
//	    SetSpeed = { shape = "float", fn = function(v) end },
//	  },
//	}
//
// A bare function takes no argument. The table form declares the parameter
// shape the listener must match.
package scripting

import (
	"context"
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// safeLibrary is a Lua library that may be loaded into a sandboxed state
type safeLibrary struct {
	name string
	fn   lua.LGFunction
}

// Safe: base, table, string, math. Blocked: os, io, debug, package.
var safeLibraries = []safeLibrary{
	{lua.BaseLibName, lua.OpenBase},
	{lua.TabLibName, lua.OpenTable},
	{lua.StringLibName, lua.OpenString},
	{lua.MathLibName, lua.OpenMath},
}

// Base functions with filesystem or code-loading access
var unsafeBaseFunctions = []string{"dofile", "loadfile", "loadstring", "load"}

// newState creates a Lua state with only the safe libraries loaded
func newState(ctx context.Context) (*lua.LState, error) {
	L := lua.NewState(lua.Options{
		SkipOpenLibs: true,
	})

	for _, lib := range safeLibraries {
		if err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(lib.fn),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name)); err != nil {
			L.Close()
			return nil, fmt.Errorf("failed to open library %s: %w", lib.name, err)
		}
	}

	for _, fn := range unsafeBaseFunctions {
		L.SetGlobal(fn, lua.LNil)
	}

	if ctx != nil {
		L.SetContext(ctx)
	}
	return L, nil
}
