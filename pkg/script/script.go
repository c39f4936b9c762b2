// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package script

import (
	"fmt"
	"log"
	"os"

	lua "github.com/yuin/gopher-lua"

	"github.com/lassandro/gochip8/pkg/machine"
)

type Options struct {
	// Destination of log(), discarded when nil
	Logger *log.Logger
}

type api struct {
	mc   *machine.Machine
	opts Options
}

// Run executes a Lua chunk against mc. Faults raised by step() abort the
// script and are returned.
func Run(mc *machine.Machine, source string, opts Options) error {
	L := newState(mc, opts)
	defer L.Close()

	if err := L.DoString(source); err != nil {
		return fmt.Errorf("script: %w", err)
	}

	return nil
}

func RunFile(mc *machine.Machine, path string, opts Options) error {
	source, err := os.ReadFile(path)

	if err != nil {
		return err
	}

	return Run(mc, string(source), opts)
}

func newState(mc *machine.Machine, opts Options) *lua.LState {
	L := lua.NewState()
	a := &api{mc: mc, opts: opts}

	for name, fn := range map[string]lua.LGFunction{
		"step":     a.step,
		"reg":      a.reg,
		"setreg":   a.setreg,
		"pc":       a.pc,
		"setpc":    a.setpc,
		"index":    a.index,
		"peek":     a.peek,
		"poke":     a.poke,
		"press":    a.press,
		"release":  a.release,
		"pixel":    a.pixel,
		"delay":    a.delay,
		"sound":    a.sound,
		"awaiting": a.awaiting,
		"digest":   a.digest,
		"screen":   a.screen,
		"log":      a.log,
	} {
		L.SetGlobal(name, L.NewFunction(fn))
	}

	return L
}

func checkRange(L *lua.LState, n, limit int) int {
	value := L.CheckInt(n)

	if value < 0 || value >= limit {
		L.ArgError(n, fmt.Sprintf("%d out of range [0, %d)", value, limit))
	}

	return value
}

// step([count]) returns the number of steps run.
func (a *api) step(L *lua.LState) int {
	count := L.OptInt(1, 1)

	for i := 0; i < count; i++ {
		if err := a.mc.Step(); err != nil {
			L.RaiseError("%s", err.Error())
			return 0
		}
	}

	L.Push(lua.LNumber(count))
	return 1
}

func (a *api) reg(L *lua.LState) int {
	i := checkRange(L, 1, machine.REGISTER_SIZE)
	L.Push(lua.LNumber(a.mc.State.Registers[i]))
	return 1
}

func (a *api) setreg(L *lua.LState) int {
	i := checkRange(L, 1, machine.REGISTER_SIZE)
	a.mc.State.Registers[i] = uint8(L.CheckInt(2))
	return 0
}

func (a *api) pc(L *lua.LState) int {
	L.Push(lua.LNumber(a.mc.State.Program))
	return 1
}

func (a *api) setpc(L *lua.LState) int {
	a.mc.State.Program = uint16(checkRange(L, 1, machine.MEMORY_SIZE))
	return 0
}

func (a *api) index(L *lua.LState) int {
	L.Push(lua.LNumber(a.mc.State.Index))
	return 1
}

func (a *api) peek(L *lua.LState) int {
	addr := checkRange(L, 1, machine.MEMORY_SIZE)
	L.Push(lua.LNumber(a.mc.State.Memory[addr]))
	return 1
}

func (a *api) poke(L *lua.LState) int {
	addr := checkRange(L, 1, machine.MEMORY_SIZE)
	a.mc.State.Memory[addr] = byte(L.CheckInt(2))
	return 0
}

func (a *api) press(L *lua.LState) int {
	a.mc.SetKey(checkRange(L, 1, machine.KEYPAD_SIZE), true)
	return 0
}

func (a *api) release(L *lua.LState) int {
	a.mc.SetKey(checkRange(L, 1, machine.KEYPAD_SIZE), false)
	return 0
}

func (a *api) pixel(L *lua.LState) int {
	x := checkRange(L, 1, machine.DISPLAY_WIDTH)
	y := checkRange(L, 2, machine.DISPLAY_HEIGHT)
	L.Push(lua.LBool(a.mc.State.Display.Pixel(x, y)))
	return 1
}

func (a *api) delay(L *lua.LState) int {
	L.Push(lua.LNumber(a.mc.State.Delay))
	return 1
}

func (a *api) sound(L *lua.LState) int {
	L.Push(lua.LNumber(a.mc.State.Sound))
	return 1
}

func (a *api) awaiting(L *lua.LState) int {
	L.Push(lua.LBool(a.mc.AwaitingKey()))
	return 1
}

func (a *api) digest(L *lua.LState) int {
	L.Push(lua.LString(a.mc.State.Display.Digest()))
	return 1
}

func (a *api) screen(L *lua.LState) int {
	L.Push(lua.LString(a.mc.State.Display.String()))
	return 1
}

func (a *api) log(L *lua.LState) int {
	if a.opts.Logger != nil {
		a.opts.Logger.Print(L.CheckString(1))
	}

	return 0
}
