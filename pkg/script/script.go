// Package script runs Lua scene scripts that animate sprites.
//
// A script reaches sprites through the global table "sprites", keyed by
// name, and may define
//
//	function frame(t, px, py, down) end
//
// which runs once per frame with the elapsed seconds and the pointer.
package script

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/taigrr/voxsprite/pkg/render"
	"github.com/taigrr/voxsprite/pkg/sprite"
	"github.com/taigrr/voxsprite/pkg/viewport"
	lua "github.com/yuin/gopher-lua"
)

var logger atomic.Pointer[slog.Logger]

func init() {
	logger.Store(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// SetLogger sets the logger used for script print output.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	logger.Store(l)
}

func slogger() *slog.Logger {
	return logger.Load()
}

const spriteType = "sprite"

// Script is a Lua state with the sprite bindings installed. It is not
// safe for concurrent use.
type Script struct {
	L       *lua.LState
	sprites *lua.LTable
}

// New creates a script state with the base, table, string and math
// libraries.
func New() *Script {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.fn))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
	L.SetGlobal("print", L.NewFunction(luaPrint))

	mt := L.NewTypeMetatable(spriteType)
	L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), spriteMethods))

	s := &Script{L: L, sprites: L.NewTable()}
	L.SetGlobal("sprites", s.sprites)
	return s
}

// Bind exposes t to the script as sprites[name].
func (s *Script) Bind(name string, t *sprite.Transform) {
	ud := s.L.NewUserData()
	ud.Value = t
	s.L.SetMetatable(ud, s.L.GetTypeMetatable(spriteType))
	s.L.SetField(s.sprites, name, ud)
}

// LoadFile runs a script file once, defining its functions.
func (s *Script) LoadFile(path string) error {
	if err := s.L.DoFile(path); err != nil {
		return fmt.Errorf("%w: script %s: %w", render.ErrResourceCreation, path, err)
	}
	return nil
}

// LoadString runs script source once.
func (s *Script) LoadString(src string) error {
	if err := s.L.DoString(src); err != nil {
		return fmt.Errorf("%w: script: %w", render.ErrResourceCreation, err)
	}
	return nil
}

// HasFrame reports whether the script defines a frame function.
func (s *Script) HasFrame() bool {
	_, ok := s.L.GetGlobal("frame").(*lua.LFunction)
	return ok
}

// Frame calls the script's frame function, if any. ctx bounds the call.
func (s *Script) Frame(ctx context.Context, t float64, p viewport.Pointer) error {
	fn, ok := s.L.GetGlobal("frame").(*lua.LFunction)
	if !ok {
		return nil
	}
	s.L.SetContext(ctx)
	defer s.L.RemoveContext()

	err := s.L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true},
		lua.LNumber(t), lua.LNumber(p.X), lua.LNumber(p.Y), lua.LBool(p.Down))
	if err != nil {
		return fmt.Errorf("script frame: %w", err)
	}
	return nil
}

// Close releases the Lua state.
func (s *Script) Close() {
	s.L.Close()
}

func luaPrint(L *lua.LState) int {
	args := make([]any, 0, L.GetTop())
	for i := 1; i <= L.GetTop(); i++ {
		args = append(args, L.ToStringMeta(L.Get(i)).String())
	}
	slogger().Info("script: print", "msg", fmt.Sprint(args...))
	return 0
}

var spriteMethods = map[string]lua.LGFunction{
	"translate": func(L *lua.LState) int {
		t := checkSprite(L)
		t.Translate(float64(L.CheckNumber(2)), float64(L.CheckNumber(3)), float64(L.CheckNumber(4)))
		return 0
	},
	"rotateX": func(L *lua.LState) int {
		checkSprite(L).RotateX(float64(L.CheckNumber(2)))
		return 0
	},
	"rotateY": func(L *lua.LState) int {
		checkSprite(L).RotateY(float64(L.CheckNumber(2)))
		return 0
	},
	"rotateZ": func(L *lua.LState) int {
		checkSprite(L).RotateZ(float64(L.CheckNumber(2)))
		return 0
	},
	"scale": func(L *lua.LState) int {
		t := checkSprite(L)
		d := L.OptNumber(4, lua.LNumber(t.Extents().Z))
		t.Scale(float64(L.CheckNumber(2)), float64(L.CheckNumber(3)), float64(d))
		return 0
	},
	"setSize": func(L *lua.LState) int {
		checkSprite(L).SetSize(float64(L.CheckNumber(2)))
		return 0
	},
	"position": func(L *lua.LState) int {
		p := checkSprite(L).Position()
		L.Push(lua.LNumber(p.X))
		L.Push(lua.LNumber(p.Y))
		L.Push(lua.LNumber(p.Z))
		return 3
	},
	"rotation": func(L *lua.LState) int {
		r := checkSprite(L).Rotation()
		L.Push(lua.LNumber(r.X))
		L.Push(lua.LNumber(r.Y))
		L.Push(lua.LNumber(r.Z))
		return 3
	},
}

func checkSprite(L *lua.LState) *sprite.Transform {
	ud := L.CheckUserData(1)
	if t, ok := ud.Value.(*sprite.Transform); ok {
		return t
	}
	L.ArgError(1, "sprite expected")
	return nil
}
