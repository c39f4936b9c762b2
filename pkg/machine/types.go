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

package machine

import (
	"math/rand"
)

// Architectural state. Registers[REGISTER_FLAG] is written as a side effect
// of arithmetic, shift and draw instructions; programs must not expect it to
// survive any of them.
type MachineState struct {
	Registers [REGISTER_SIZE]uint8
	Index     uint16
	Program   uint16
	Stack     [STACK_SIZE]uint16
	Pointer   uint8
	Delay     uint8
	Sound     uint8
	Keypad    [KEYPAD_SIZE]bool
	Display   Frame
	Memory    [MEMORY_SIZE]byte

	// Raised by CLS and DRW, cleared by the host after consuming Display
	Redraw bool

	// Raised for a single step when the sound timer reaches zero
	Beep bool
}

type Quirks struct {
	// Sprites wrap around the screen edges instead of being clipped
	WrapSprites bool
}

type Config struct {
	// Instructions executed per second by the host loop
	CPUHz int

	// Rate of the delay and sound timers
	TimerHz int

	Quirks Quirks

	// Seed for CXNN, zero picks one from the clock
	Seed int64
}

type MachineDebugger interface {
	Step(mc *Machine)
	Read(addr uint16, mc *Machine)
	Write(addr uint16, mc *Machine)
}

type Machine struct {
	State    MachineState
	Debugger MachineDebugger
	Config   Config

	rom      []byte
	random   *rand.Rand
	timerAcc int
	cycles   uint64
	waiting  bool
	fault    error
}
