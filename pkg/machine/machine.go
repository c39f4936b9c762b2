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
	"fmt"
	"io"
	"math/rand"
	"strings"
	"time"
)

func New(config Config) *Machine {
	if config.CPUHz <= 0 {
		config.CPUHz = DEFAULT_CPU_HZ
	}

	if config.TimerHz <= 0 {
		config.TimerHz = DEFAULT_TIMER_HZ
	}

	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	mc := &Machine{
		Config: config,
		random: rand.New(rand.NewSource(seed)),
	}

	mc.Reset()
	return mc
}

// Reset returns the machine to its constructed state and copies the last
// loaded ROM image back into program memory.
func (mc *Machine) Reset() {
	mc.State = MachineState{}

	copy(mc.State.Memory[MEMSPACE_FONT:], FONTSET[:])
	copy(mc.State.Memory[MEMSPACE_PROGRAM:], mc.rom)

	// Program begins at the start of the loadable region
	mc.State.Program = MEMSPACE_PROGRAM

	// The host paints the blank screen once before anything is drawn
	mc.State.Redraw = true

	mc.timerAcc = 0
	mc.cycles = 0
	mc.waiting = false
	mc.fault = nil
}

// Load copies rom into memory at the start of the program region. No other
// state is touched.
func (mc *Machine) Load(rom []byte) error {
	if len(rom) > PROGRAM_SIZE {
		return &CapacityExceededError{Size: len(rom), Limit: PROGRAM_SIZE}
	}

	mc.rom = append(mc.rom[:0], rom...)
	copy(mc.State.Memory[MEMSPACE_PROGRAM:], rom)
	return nil
}

// LoadBin reads a whole ROM image from reader into a freshly reset machine.
func (mc *Machine) LoadBin(reader io.Reader) error {
	rom, err := io.ReadAll(io.LimitReader(reader, int64(PROGRAM_SIZE+1)))

	if err != nil {
		return err
	}

	if len(rom) > PROGRAM_SIZE {
		return &CapacityExceededError{Size: len(rom), Limit: PROGRAM_SIZE}
	}

	mc.rom = nil
	mc.Reset()
	return mc.Load(rom)
}

func (mc *Machine) SetKey(index int, pressed bool) {
	if index < 0 || index >= KEYPAD_SIZE {
		panic("Invalid keypad index")
	}

	mc.State.Keypad[index] = pressed
}

func (mc *Machine) SetKeys(keys [KEYPAD_SIZE]bool) {
	mc.State.Keypad = keys
}

// ConsumeFrame returns a copy of the display and clears the redraw flag. The
// boolean reports whether a redraw was pending.
func (mc *Machine) ConsumeFrame() (Frame, bool) {
	pending := mc.State.Redraw
	mc.State.Redraw = false
	return mc.State.Display, pending
}

func (mc *Machine) Snapshot() Frame {
	return mc.State.Display
}

func (mc *Machine) SoundRequested() bool {
	return mc.State.Beep
}

// AwaitingKey reports whether the last step stalled on FX0A.
func (mc *Machine) AwaitingKey() bool {
	return mc.waiting
}

// Fault returns the error that halted the machine, if any.
func (mc *Machine) Fault() error {
	return mc.fault
}

func (mc *Machine) Cycles() uint64 {
	return mc.cycles
}

func (mc *Machine) checkRange(addr uint16, size int) error {
	if int(addr)+size > MEMORY_SIZE {
		return &MemoryBoundsError{
			Program: mc.State.Program,
			Address: addr,
			Size:    size,
		}
	}

	return nil
}

func (mc *Machine) read(addr uint16) byte {
	if mc.Debugger != nil {
		mc.Debugger.Read(addr, mc)
	}

	return mc.State.Memory[addr]
}

func (mc *Machine) write(addr uint16, value byte) error {
	if err := mc.checkRange(addr, 1); err != nil {
		return err
	}

	if addr < MEMSPACE_FONT+FONT_SIZE {
		return &ProtectedMemoryError{Program: mc.State.Program, Address: addr}
	}

	mc.State.Memory[addr] = value

	if mc.Debugger != nil {
		mc.Debugger.Write(addr, mc)
	}

	return nil
}

func (mc *Machine) push(value uint16) error {
	if mc.State.Pointer >= STACK_SIZE {
		return &StackOverflowError{Program: mc.State.Program}
	}

	mc.State.Stack[mc.State.Pointer] = value
	mc.State.Pointer++
	return nil
}

func (mc *Machine) pop() (uint16, error) {
	if mc.State.Pointer == 0 {
		return 0, &StackUnderflowError{Program: mc.State.Program}
	}

	mc.State.Pointer--
	return mc.State.Stack[mc.State.Pointer], nil
}

func (mc *Machine) fetch() (Opcode, error) {
	if err := mc.checkRange(mc.State.Program, 2); err != nil {
		return 0, err
	}

	return Opcode(
		uint16(mc.State.Memory[mc.State.Program])<<8 |
			uint16(mc.State.Memory[mc.State.Program+1]),
	), nil
}

// Step runs one fetch-decode-execute cycle followed by the timer update. A
// fault halts the machine; every later call returns the same fault.
func (mc *Machine) Step() error {
	if mc.fault != nil {
		return mc.fault
	}

	mc.State.Beep = false

	if mc.Debugger != nil {
		mc.Debugger.Step(mc)
	}

	opcode, err := mc.fetch()

	if err == nil {
		err = mc.execute(opcode)
	}

	if err != nil {
		mc.fault = err
		return err
	}

	mc.cycles++
	mc.advanceTimers()
	return nil
}

// Tick applies one 60 Hz timer period.
func (mc *Machine) Tick() {
	if mc.State.Delay > 0 {
		mc.State.Delay--
	}

	if mc.State.Sound > 0 {
		if mc.State.Sound == 1 {
			mc.State.Beep = true
		}

		mc.State.Sound--
	}
}

func (mc *Machine) advanceTimers() {
	cpuHz := mc.Config.CPUHz
	if cpuHz <= 0 {
		cpuHz = DEFAULT_CPU_HZ
	}

	timerHz := mc.Config.TimerHz
	if timerHz <= 0 {
		timerHz = DEFAULT_TIMER_HZ
	}

	mc.timerAcc += timerHz

	for mc.timerAcc >= cpuHz {
		mc.timerAcc -= cpuHz
		mc.Tick()
	}
}

func (ms *MachineState) String() string {
	var builder strings.Builder

	fmt.Fprintf(
		&builder,
		"PC:%#04x I:%#04x SP:%d DT:%#02x ST:%#02x redraw:%t\n",
		ms.Program,
		ms.Index,
		ms.Pointer,
		ms.Delay,
		ms.Sound,
		ms.Redraw,
	)

	for i, register := range ms.Registers {
		fmt.Fprintf(&builder, "V%X:%#02x", i, register)
		if i%4 == 3 {
			builder.WriteByte('\n')
		} else {
			builder.WriteByte(' ')
		}
	}

	fmt.Fprintf(&builder, "stack:%#04x\n", ms.Stack[:ms.Pointer])
	builder.WriteString(ms.Display.String())
	return builder.String()
}
