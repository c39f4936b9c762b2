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

package debugger

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/lassandro/gochip8/pkg/disassembler"
	"github.com/lassandro/gochip8/pkg/machine"
)

func (dbg *Debugger) out() io.Writer {
	if dbg.Output == nil {
		return os.Stdout
	}

	return dbg.Output
}

func (dbg *Debugger) Step(mc *machine.Machine) {
	if dbg.HandleBreak == nil {
		return
	}

	if dbg.Break {
		dbg.HandleBreak(dbg, mc)
		return
	}

	for _, breakpoint := range dbg.Breakpoints {
		if mc.State.Program == breakpoint.Addr {
			dbg.HandleBreak(dbg, mc)
			break
		}
	}
}

func (dbg *Debugger) Read(addr uint16, mc *machine.Machine) {
	if dbg.HandleRead == nil {
		return
	}

	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Type == WriteWatch {
			continue
		}

		if addr == watchpoint.Addr {
			dbg.HandleRead(addr, dbg, mc)
			break
		}
	}
}

func (dbg *Debugger) Write(addr uint16, mc *machine.Machine) {
	if dbg.HandleWrite == nil {
		return
	}

	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Type == ReadWatch {
			continue
		}

		if addr == watchpoint.Addr {
			dbg.HandleWrite(addr, dbg, mc)
			break
		}
	}
}

// AddBreakpoint reports whether addr was not already a breakpoint.
func (dbg *Debugger) AddBreakpoint(addr uint16) bool {
	for _, breakpoint := range dbg.Breakpoints {
		if breakpoint.Addr == addr {
			return false
		}
	}

	dbg.Breakpoints = append(dbg.Breakpoints, Breakpoint{addr})
	return true
}

func (dbg *Debugger) RemoveBreakpoint(addr uint16) bool {
	for i, breakpoint := range dbg.Breakpoints {
		if breakpoint.Addr == addr {
			dbg.Breakpoints = append(
				dbg.Breakpoints[:i], dbg.Breakpoints[i+1:]...,
			)
			return true
		}
	}

	return false
}

// AddWatchpoint replaces the type of an existing watchpoint on addr.
func (dbg *Debugger) AddWatchpoint(addr uint16, wtype WatchpointType) {
	for i := range dbg.Watchpoints {
		if dbg.Watchpoints[i].Addr == addr {
			dbg.Watchpoints[i].Type = wtype
			return
		}
	}

	dbg.Watchpoints = append(dbg.Watchpoints, Watchpoint{addr, wtype})
}

func (dbg *Debugger) RemoveWatchpoint(addr uint16) bool {
	for i, watchpoint := range dbg.Watchpoints {
		if watchpoint.Addr == addr {
			dbg.Watchpoints = append(
				dbg.Watchpoints[:i], dbg.Watchpoints[i+1:]...,
			)
			return true
		}
	}

	return false
}

func (dbg *Debugger) PrintSource(addr uint16, count uint16) {
	w := dbg.out()

	if dbg.Source == nil {
		fmt.Fprintln(w, "No source file loaded")
		return
	}

	if dbg.SymTable == nil {
		fmt.Fprintln(w, "No symbol table loaded")
		return
	}

	offset, exists := dbg.SymTable.Symbols[addr]

	if !exists {
		fmt.Fprintf(w, "No instruction found at %#04x\n", addr)
		return
	}

	if _, err := dbg.Source.Seek(offset, io.SeekStart); err != nil {
		fmt.Fprintln(w, err)
		return
	}

	lines := make(map[int64]uint16, len(dbg.SymTable.Symbols))
	for lineaddr, linebyte := range dbg.SymTable.Symbols {
		lines[linebyte] = lineaddr
	}

	scanner := bufio.NewScanner(dbg.Source)

	for i := uint16(0); i < count; i++ {
		if !scanner.Scan() {
			break
		}

		line := scanner.Text()

		if lineaddr, found := lines[offset]; found {
			fmt.Fprintf(w, "\033[1m[%#04x]\033[0m ", lineaddr)
		} else {
			fmt.Fprint(w, "\033[1;30m~~~~~~~\033[0m ")
		}

		fmt.Fprintln(w, line)

		offset += int64(len(line) + 1)
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintln(w, err)
	}
}

// PrintDisasm lists count instructions from addr, marking the program
// counter and any label from the symbol table.
func (dbg *Debugger) PrintDisasm(mc *machine.MachineState, addr, count uint16) {
	w := dbg.out()

	for _, in := range disassembler.Range(mc.Memory[:], addr, int(count)) {
		if dbg.SymTable != nil {
			if label, ok := dbg.SymTable.Labels[in.Address]; ok {
				fmt.Fprintf(w, "%s:\n", label)
			}
		}

		marker := "  "
		if in.Address == mc.Program {
			marker = "=>"
		}

		fmt.Fprintf(
			w,
			"%s \033[1m[%#04x]\033[0m %04X  %s\n",
			marker,
			in.Address,
			in.Opcode,
			in,
		)
	}
}

func (dbg *Debugger) PrintMem(mc *machine.MachineState, addr, count uint16) {
	w := dbg.out()
	end := int(addr) + int(count)

	if end > machine.MEMORY_SIZE {
		end = machine.MEMORY_SIZE
	}

	for i := int(addr); i < end; i++ {
		if i == int(addr) {
			fmt.Fprintf(w, "\033[1m[%#04x]\033[0m ", i)
		} else if (i-int(addr))%8 == 0 {
			fmt.Fprintln(w)
			fmt.Fprintf(w, "\033[1m[%#04x]\033[0m ", i)
		}

		result := mc.Memory[i]

		if result == 0 {
			fmt.Fprintf(w, "\033[1;30m%02x\033[0m ", result)
		} else {
			fmt.Fprintf(w, "%02x ", result)
		}
	}

	fmt.Fprintln(w)
}
