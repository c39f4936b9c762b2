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

package debugger_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/lassandro/gochip8/pkg/assembler"
	"github.com/lassandro/gochip8/pkg/debugger"
	"github.com/lassandro/gochip8/pkg/machine"
)

const source = `start:
	LD I, $300
	LD [I], V1
loop:
	LD V1, [I]
	JP loop
`

func newSession(t *testing.T) (*machine.Machine, *debugger.Debugger, *bytes.Buffer) {
	symtable := assembler.NewSymTable("")
	rom, errs := assembler.Assemble(strings.NewReader(source), symtable)

	if len(errs) > 0 {
		t.Fatal(errs[0])
	}

	mc := machine.New(machine.Config{CPUHz: 60, TimerHz: 60, Seed: 1})

	if err := mc.Load(rom); err != nil {
		t.Fatal(err)
	}

	var output bytes.Buffer

	dbg := &debugger.Debugger{
		Source:   strings.NewReader(source),
		SymTable: symtable,
		Output:   &output,
	}

	mc.Debugger = dbg
	return mc, dbg, &output
}

func TestBreakpoint(t *testing.T) {
	mc, dbg, _ := newSession(t)

	var hits []uint16

	dbg.HandleBreak = func(dbg *debugger.Debugger, mc *machine.Machine) {
		hits = append(hits, mc.State.Program)
	}

	if !dbg.AddBreakpoint(0x204) {
		t.Fatal("Breakpoint not added")
	}

	if dbg.AddBreakpoint(0x204) {
		t.Error("Duplicate breakpoint added")
	}

	for i := 0; i < 6; i++ {
		if err := mc.Step(); err != nil {
			t.Fatal(err)
		}
	}

	// 0x200 0x202 0x204 0x206 0x204 0x206
	if len(hits) != 2 || hits[0] != 0x204 || hits[1] != 0x204 {
		t.Errorf("Breakpoint hits mismatch\nwant:[0x204 0x204]\nhave:%#04x", hits)
	}

	if !dbg.RemoveBreakpoint(0x204) || len(dbg.Breakpoints) != 0 {
		t.Error("Breakpoint not removed")
	}
}

func TestBreakFlag(t *testing.T) {
	mc, dbg, _ := newSession(t)

	count := 0
	dbg.Break = true
	dbg.HandleBreak = func(dbg *debugger.Debugger, mc *machine.Machine) {
		count++

		if count == 2 {
			dbg.Break = false
		}
	}

	for i := 0; i < 4; i++ {
		mc.Step()
	}

	if count != 2 {
		t.Errorf("Break count mismatch\nwant:2\nhave:%d", count)
	}
}

func TestWatchpoint(t *testing.T) {
	tests := []struct {
		Name   string
		Type   debugger.WatchpointType
		Reads  int
		Writes int
	}{
		{"Read", debugger.ReadWatch, 2, 0},
		{"Write", debugger.WriteWatch, 0, 1},
		{"ReadWrite", debugger.ReadWriteWatch, 2, 1},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			mc, dbg, _ := newSession(t)

			reads, writes := 0, 0

			dbg.HandleRead = func(addr uint16, dbg *debugger.Debugger, mc *machine.Machine) {
				reads++
			}

			dbg.HandleWrite = func(addr uint16, dbg *debugger.Debugger, mc *machine.Machine) {
				writes++
			}

			dbg.AddWatchpoint(0x300, test.Type)

			// LD I, LD [I], LD V1, JP, LD V1, JP
			for i := 0; i < 6; i++ {
				if err := mc.Step(); err != nil {
					t.Fatal(err)
				}
			}

			if reads != test.Reads || writes != test.Writes {
				t.Errorf(
					"Watch count mismatch\nwant:r=%d w=%d\nhave:r=%d w=%d",
					test.Reads,
					test.Writes,
					reads,
					writes,
				)
			}
		})
	}
}

func TestWatchpointReplace(t *testing.T) {
	var dbg debugger.Debugger

	dbg.AddWatchpoint(0x300, debugger.ReadWatch)
	dbg.AddWatchpoint(0x300, debugger.WriteWatch)

	if len(dbg.Watchpoints) != 1 || dbg.Watchpoints[0].Type != debugger.WriteWatch {
		t.Errorf("Watchpoint mismatch\nwant:[{0x300 w}]\nhave:%v", dbg.Watchpoints)
	}

	if !dbg.RemoveWatchpoint(0x300) || dbg.RemoveWatchpoint(0x300) {
		t.Error("Watchpoint removal mismatch")
	}
}

func TestPrintSource(t *testing.T) {
	_, dbg, output := newSession(t)

	dbg.PrintSource(0x204, 2)

	have := output.String()

	for _, want := range []string{"[0x0204]", "LD V1, [I]", "JP loop"} {
		if !strings.Contains(have, want) {
			t.Errorf("Source listing missing %q\nhave:%s", want, have)
		}
	}

	output.Reset()
	dbg.PrintSource(0x201, 1)

	if !strings.Contains(output.String(), "No instruction found") {
		t.Errorf("Missing lookup failure\nhave:%s", output.String())
	}
}

func TestPrintDisasm(t *testing.T) {
	mc, dbg, output := newSession(t)

	dbg.PrintDisasm(&mc.State, 0x200, 4)

	have := output.String()

	for _, want := range []string{
		"start:", "=> ", "LD I, $300", "loop:", "LD V1, [I]", "JP $204",
	} {
		if !strings.Contains(have, want) {
			t.Errorf("Disassembly missing %q\nhave:%s", want, have)
		}
	}
}

func TestPrintMem(t *testing.T) {
	mc, dbg, output := newSession(t)

	dbg.PrintMem(&mc.State, machine.MEMORY_SIZE-4, 16)

	if !strings.Contains(output.String(), "[0x0ffc]") {
		t.Errorf("Memory dump mismatch\nhave:%s", output.String())
	}
}
