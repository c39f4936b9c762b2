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

package machine_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/lassandro/gochip8/pkg/machine"
)

type faultCase struct {
	Name    string
	Rom     []byte
	Setup   func(mc *machine.Machine)
	Program uint16
	Check   func(err error) bool
}

func isIllegal(err error) bool {
	var target *machine.IllegalOpcodeError
	return errors.As(err, &target)
}

func isOverflow(err error) bool {
	var target *machine.StackOverflowError
	return errors.As(err, &target)
}

func isUnderflow(err error) bool {
	var target *machine.StackUnderflowError
	return errors.As(err, &target)
}

func isBounds(err error) bool {
	var target *machine.MemoryBoundsError
	return errors.As(err, &target)
}

func isProtected(err error) bool {
	var target *machine.ProtectedMemoryError
	return errors.As(err, &target)
}

func TestFaults(t *testing.T) {
	tests := []faultCase{
		{Name: "SYS", Rom: []byte{0x01, 0x23}, Check: isIllegal},
		{Name: "SE Register Suffix", Rom: []byte{0x51, 0x21}, Check: isIllegal},
		{Name: "SNE Register Suffix", Rom: []byte{0x91, 0x2F}, Check: isIllegal},
		{Name: "ALU Undefined", Rom: []byte{0x81, 0x28}, Check: isIllegal},
		{Name: "Key Undefined", Rom: []byte{0xE1, 0x9F}, Check: isIllegal},
		{Name: "Misc Undefined", Rom: []byte{0xF1, 0xFF}, Check: isIllegal},
		{Name: "Empty Memory", Rom: []byte{}, Check: isIllegal},
		{
			Name: "Stack Overflow",
			Rom:  []byte{0x22, 0x00},
			Setup: func(mc *machine.Machine) {
				mc.State.Pointer = machine.STACK_SIZE
			},
			Check: isOverflow,
		},
		{Name: "Stack Underflow", Rom: []byte{0x00, 0xEE}, Check: isUnderflow},
		{
			Name: "Fetch Past End",
			Setup: func(mc *machine.Machine) {
				mc.State.Program = 0xFFF
			},
			Program: 0xFFF,
			Check:   isBounds,
		},
		{
			Name: "Jump Past End",
			Rom:  []byte{0xBF, 0xFF},
			Setup: func(mc *machine.Machine) {
				mc.State.Registers[0] = 0x10
			},
			Program: 0x100F,
			Check:   isBounds,
		},
		{
			Name: "Draw Past End",
			Rom:  []byte{0xD0, 0x0F},
			Setup: func(mc *machine.Machine) {
				mc.State.Index = 0xFFA
			},
			Check: isBounds,
		},
		{
			Name: "Store Past End",
			Rom:  []byte{0xF3, 0x55},
			Setup: func(mc *machine.Machine) {
				mc.State.Index = 0xFFE
			},
			Check: isBounds,
		},
		{
			Name: "Restore Past End",
			Rom:  []byte{0xF3, 0x65},
			Setup: func(mc *machine.Machine) {
				mc.State.Index = 0xFFE
			},
			Check: isBounds,
		},
		{
			Name: "Decimal Past End",
			Rom:  []byte{0xF3, 0x33},
			Setup: func(mc *machine.Machine) {
				mc.State.Index = 0xFFF
			},
			Check: isBounds,
		},
		{
			Name: "Store Into Font",
			Rom:  []byte{0xF3, 0x55},
			Setup: func(mc *machine.Machine) {
				mc.State.Index = 0x04E
			},
			Check: isProtected,
		},
		{
			Name: "Decimal Into Font",
			Rom:  []byte{0xF3, 0x33},
			Check: isProtected,
		},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			mc := newTestMachine()

			if err := mc.Load(test.Rom); err != nil {
				t.Fatal(err)
			}

			if test.Setup != nil {
				test.Setup(mc)
			}

			program := test.Program
			if program == 0 {
				program = machine.MEMSPACE_PROGRAM
			}

			// Jumps only fault on the fetch that follows them
			if test.Program > machine.MEMSPACE_END {
				if err := mc.Step(); err != nil {
					t.Fatalf("Unexpected fault\nwant:nil\nhave:%v", err)
				}
			}

			err := mc.Step()

			if err == nil || !test.Check(err) {
				t.Fatalf("Fault type mismatch\nhave:%#v", err)
			}

			var fault machine.Fault
			if !errors.As(err, &fault) {
				t.Fatalf("Fault interface missing\nhave:%T", err)
			}

			if fault.GetProgram() != program {
				t.Errorf(
					"Fault location mismatch\nwant:%#04x\nhave:%#04x",
					program,
					fault.GetProgram(),
				)
			}

			if mc.Fault() != err {
				t.Errorf("Stored fault mismatch\nwant:%v\nhave:%v", err, mc.Fault())
			}

			before := mc.State
			cycles := mc.Cycles()

			if again := mc.Step(); again != err {
				t.Errorf("Halted machine stepped\nwant:%v\nhave:%v", err, again)
			}

			if mc.State != before || mc.Cycles() != cycles {
				t.Error("Halted machine changed state")
			}
		})
	}
}

func TestFaultsLeaveFontIntact(t *testing.T) {
	mc := newTestMachine()

	// LD B, V3 with I pointing at glyph 0
	if err := mc.Load([]byte{0xF3, 0x33}); err != nil {
		t.Fatal(err)
	}

	mc.State.Registers[3] = 255
	mc.Step()

	if !bytes.Equal(mc.State.Memory[:machine.FONT_SIZE], machine.FONTSET[:]) {
		t.Error("Font region modified")
	}
}

func TestLoad(t *testing.T) {
	t.Run("Exact Capacity", func(t *testing.T) {
		mc := newTestMachine()
		rom := bytes.Repeat([]byte{0xAB}, machine.PROGRAM_SIZE)

		if err := mc.Load(rom); err != nil {
			t.Fatalf("Unexpected error\nwant:nil\nhave:%v", err)
		}

		if mc.State.Memory[machine.MEMORY_SIZE-1] != 0xAB {
			t.Error("Last byte not loaded")
		}
	})

	t.Run("Capacity Exceeded", func(t *testing.T) {
		mc := newTestMachine()
		rom := make([]byte, machine.PROGRAM_SIZE+1)

		err := mc.Load(rom)

		var target *machine.CapacityExceededError
		if !errors.As(err, &target) {
			t.Fatalf("Error type mismatch\nwant:*CapacityExceededError\nhave:%T", err)
		}

		if target.Size != machine.PROGRAM_SIZE+1 || target.Limit != 3584 {
			t.Errorf(
				"Capacity mismatch\nwant:%d/%d\nhave:%d/%d",
				machine.PROGRAM_SIZE+1,
				3584,
				target.Size,
				target.Limit,
			)
		}
	})

	t.Run("Leaves State", func(t *testing.T) {
		mc := newTestMachine()
		mc.State.Registers[4] = 0x44
		mc.State.Program = 0x300

		if err := mc.Load([]byte{0x12, 0x34}); err != nil {
			t.Fatal(err)
		}

		if mc.State.Registers[4] != 0x44 || mc.State.Program != 0x300 {
			t.Error("Load modified machine state")
		}
	})

	t.Run("LoadBin", func(t *testing.T) {
		mc := newTestMachine()
		mc.State.Registers[4] = 0x44

		if err := mc.LoadBin(bytes.NewReader([]byte{0x6A, 0x02})); err != nil {
			t.Fatal(err)
		}

		if mc.State.Registers[4] != 0 {
			t.Error("LoadBin did not reset registers")
		}

		if mc.State.Memory[0x200] != 0x6A || mc.State.Memory[0x201] != 0x02 {
			t.Error("LoadBin did not copy the image")
		}
	})

	t.Run("LoadBin Oversized", func(t *testing.T) {
		mc := newTestMachine()
		rom := make([]byte, machine.MEMORY_SIZE)

		err := mc.LoadBin(bytes.NewReader(rom))

		var target *machine.CapacityExceededError
		if !errors.As(err, &target) {
			t.Fatalf("Error type mismatch\nwant:*CapacityExceededError\nhave:%T", err)
		}
	})

	t.Run("Reset Reloads", func(t *testing.T) {
		mc := newTestMachine()

		// LD V0, $01 ; LD I, $300 ; LD [I], V0
		rom := []byte{0x60, 0x01, 0xA3, 0x00, 0xF0, 0x55}

		if err := mc.Load(rom); err != nil {
			t.Fatal(err)
		}

		for i := 0; i < 3; i++ {
			if err := mc.Step(); err != nil {
				t.Fatal(err)
			}
		}

		mc.State.Memory[0x200] = 0xFF

		mc.Reset()

		if mc.State.Memory[0x200] != 0x60 {
			t.Error("Reset did not restore the image")
		}

		if mc.State.Memory[0x300] != 0 {
			t.Error("Reset kept program writes")
		}

		if mc.State.Program != machine.MEMSPACE_PROGRAM || !mc.State.Redraw {
			t.Error("Reset did not restore the constructed state")
		}

		if mc.Fault() != nil || mc.Cycles() != 0 {
			t.Error("Reset kept run state")
		}
	})
}

type countingDebugger struct {
	Steps  int
	Reads  []uint16
	Writes []uint16
}

func (d *countingDebugger) Step(mc *machine.Machine) {
	d.Steps++
}

func (d *countingDebugger) Read(addr uint16, mc *machine.Machine) {
	d.Reads = append(d.Reads, addr)
}

func (d *countingDebugger) Write(addr uint16, mc *machine.Machine) {
	d.Writes = append(d.Writes, addr)
}

func TestDebuggerHooks(t *testing.T) {
	mc := newTestMachine()
	dbg := &countingDebugger{}
	mc.Debugger = dbg

	// LD I, $300 ; LD [I], V1 ; LD V1, [I]
	if err := mc.Load([]byte{0xA3, 0x00, 0xF1, 0x55, 0xF1, 0x65}); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		if err := mc.Step(); err != nil {
			t.Fatal(err)
		}
	}

	if dbg.Steps != 3 {
		t.Errorf("Step hook mismatch\nwant:3\nhave:%d", dbg.Steps)
	}

	want := []uint16{0x300, 0x301}

	if len(dbg.Writes) != 2 || dbg.Writes[0] != want[0] || dbg.Writes[1] != want[1] {
		t.Errorf("Write hook mismatch\nwant:%#04x\nhave:%#04x", want, dbg.Writes)
	}

	if len(dbg.Reads) != 2 || dbg.Reads[0] != want[0] || dbg.Reads[1] != want[1] {
		t.Errorf("Read hook mismatch\nwant:%#04x\nhave:%#04x", want, dbg.Reads)
	}
}
