// Package script drives a session from a Lua script, for unattended runs and
// reproducible input sequences.
//
// A script runs once at load time and may define a global on_frame(n), which
// is called after every emulated frame. Available functions:
//
//	press(name)    hold a button ("up", "down", "left", "right", "a", "b")
//	release(name)  let go of a button
//	led(name)      brightness 0..255 of "red", "green", "blue", "rx" or "tx"
//	frame()        frames emulated so far
//	pixel(x, y)    gray level 0..255 of a display pixel
//	stop()         end the run after the current frame
package script

import (
	"fmt"

	"github.com/spf13/afero"
	lua "github.com/yuin/gopher-lua"

	"github.com/FabianRolfMatthiasNoll/arduboyemu/internal/display"
	"github.com/FabianRolfMatthiasNoll/arduboyemu/internal/emu"
)

// Host is the emulator surface a script can reach.
type Host interface {
	SetButton(b emu.Button, pressed bool) error
	LEDs() (emu.LEDs, error)
	Framebuffer() []uint32
	Frames() uint64
}

var _ Host = (*emu.Session)(nil)

type Runner struct {
	L       *lua.LState
	host    Host
	held    emu.Buttons
	stopped bool
}

func New(host Host) *Runner {
	r := &Runner{L: lua.NewState(), host: host}
	for name, fn := range map[string]lua.LGFunction{
		"press":   r.button(true),
		"release": r.button(false),
		"led":     r.led,
		"frame":   r.frame,
		"pixel":   r.pixel,
		"stop":    r.stop,
	} {
		r.L.SetGlobal(name, r.L.NewFunction(fn))
	}
	return r
}

// Load runs a script file read from fs.
func (r *Runner) Load(fs afero.Fs, path string) error {
	src, err := afero.ReadFile(fs, path)
	if err != nil {
		return err
	}
	if err := r.L.DoString(string(src)); err != nil {
		return fmt.Errorf("script %s: %w", path, err)
	}
	return nil
}

// LoadString runs script source.
func (r *Runner) LoadString(src string) error {
	return r.L.DoString(src)
}

// Frame calls on_frame with the current frame number, if the script defines it.
func (r *Runner) Frame() error {
	fn, ok := r.L.GetGlobal("on_frame").(*lua.LFunction)
	if !ok {
		return nil
	}
	return r.L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, lua.LNumber(r.host.Frames()))
}

// Held returns the buttons the script currently holds down. Frontends that
// also poll a keyboard merge it into their own state so the two don't fight
// over the pins.
func (r *Runner) Held() emu.Buttons { return r.held }

// Stopped reports whether the script called stop().
func (r *Runner) Stopped() bool { return r.stopped }

func (r *Runner) Close() { r.L.Close() }

func (r *Runner) button(pressed bool) lua.LGFunction {
	return func(L *lua.LState) int {
		b, err := emu.ParseButton(L.CheckString(1))
		if err != nil {
			L.ArgError(1, err.Error())
			return 0
		}
		if err := r.host.SetButton(b, pressed); err != nil {
			L.RaiseError("%v", err)
			return 0
		}
		r.held.Set(b, pressed)
		return 0
	}
}

func (r *Runner) led(L *lua.LState) int {
	l, err := emu.ParseLED(L.CheckString(1))
	if err != nil {
		L.ArgError(1, err.Error())
		return 0
	}
	v, err := r.host.LEDs()
	if err != nil {
		L.RaiseError("%v", err)
		return 0
	}
	L.Push(lua.LNumber(v.Get(l)))
	return 1
}

func (r *Runner) frame(L *lua.LState) int {
	L.Push(lua.LNumber(r.host.Frames()))
	return 1
}

func (r *Runner) pixel(L *lua.LState) int {
	x, y := L.CheckInt(1), L.CheckInt(2)
	if x < 0 || x >= display.Width || y < 0 || y >= display.Height {
		L.ArgError(1, fmt.Sprintf("pixel (%d,%d) off screen", x, y))
		return 0
	}
	fb := r.host.Framebuffer()
	L.Push(lua.LNumber(byte(fb[y*display.Width+x] >> 16)))
	return 1
}

func (r *Runner) stop(L *lua.LState) int {
	r.stopped = true
	return 0
}
