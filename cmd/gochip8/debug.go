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

package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/lassandro/gochip8/pkg/debugger"
	"github.com/lassandro/gochip8/pkg/encoding"
	"github.com/lassandro/gochip8/pkg/keypad"
	"github.com/lassandro/gochip8/pkg/machine"
	"github.com/lassandro/gochip8/pkg/runner"
)

var lastcmd []string
var stopRun context.CancelFunc
var heldKeys *runner.HeldKeys
var stdin = bufio.NewScanner(os.Stdin)

// parseAddr accepts a label from the symbol table or a numeric literal.
func parseAddr(dbg *debugger.Debugger, arg string) (uint16, error) {
	if dbg.SymTable != nil {
		if addr, ok := dbg.SymTable.Lookup(arg); ok {
			return addr, nil
		}
	}

	addr, err := encoding.DecodeLiteral(arg)

	if err != nil {
		return 0, fmt.Errorf("'%s' is not an address or label", arg)
	}

	if addr >= machine.MEMSPACE_END {
		return 0, fmt.Errorf("%#04x is outside of memory", addr)
	}

	return addr, nil
}

func parseCount(arg string) (uint16, error) {
	value, err := strconv.ParseUint(arg, 10, 16)
	return uint16(value), err
}

func indexFormat(count int, suffix string) string {
	digits := math.Floor(math.Log10(float64(count + 1)))
	return fmt.Sprintf("#%%0%dd: %%#04x%s\n", int64(digits)+1, suffix)
}

func debugBreak(dbg *debugger.Debugger, args []string) {
	const usage = "break [add|list|remove|clear]"

	if len(args) == 0 {
		args = append(args, "l")
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "a", "add":
		const usage = "break add [0x####|label]"

		if len(args) != 1 {
			log.Println(usage)
			return
		}

		addr, err := parseAddr(dbg, args[0])

		if err != nil {
			log.Println(err)
			return
		}

		if dbg.AddBreakpoint(addr) {
			fmt.Printf("Breakpoint added [%#04x]\n", addr)
		}

	case "l", "ls", "list":
		fmtstring := indexFormat(len(dbg.Breakpoints), "")

		for i, breakpoint := range dbg.Breakpoints {
			fmt.Printf(fmtstring, i, breakpoint.Addr)
		}

	case "r", "rm", "remove":
		const usage = "break remove [#]"

		if len(args) != 1 {
			log.Println(usage)
			return
		}

		i, err := strconv.Atoi(args[0])

		if err != nil {
			log.Println(err)
			return
		}

		if i < 0 || i >= len(dbg.Breakpoints) {
			log.Println("Invalid breakpoint number")
			return
		}

		dbg.RemoveBreakpoint(dbg.Breakpoints[i].Addr)
		fmt.Printf("Breakpoint removed [%d]\n", i)

	case "clear":
		dbg.Breakpoints = nil
		fmt.Println("Breakpoints reset")

	default:
		log.Printf("break: '%s' is not a valid command\n", cmd)
		log.Println(usage)
	}
}

func debugWatch(dbg *debugger.Debugger, args []string) {
	const usage = "watch [add|list|remove|clear]"

	if len(args) == 0 {
		args = append(args, "l")
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "a", "add":
		const usage = "watch add [0x####|label] [read|write|readwrite]"

		if len(args) != 2 {
			log.Println(usage)
			return
		}

		addr, err := parseAddr(dbg, args[0])

		if err != nil {
			log.Println(err)
			return
		}

		var wtype debugger.WatchpointType

		switch args[1] {
		case "r", "read":
			wtype = debugger.ReadWatch
		case "w", "write":
			wtype = debugger.WriteWatch
		case "rw", "readwrite":
			wtype = debugger.ReadWriteWatch
		default:
			log.Println(usage)
			return
		}

		dbg.AddWatchpoint(addr, wtype)
		fmt.Printf("Watchpoint added [%#04x] (%s)\n", addr, wtype)

	case "l", "ls", "list":
		fmtstring := indexFormat(len(dbg.Watchpoints), " %s")

		for i, watchpoint := range dbg.Watchpoints {
			fmt.Printf(fmtstring, i, watchpoint.Addr, watchpoint.Type)
		}

	case "r", "rm", "remove":
		const usage = "watch remove [#]"

		if len(args) != 1 {
			log.Println(usage)
			return
		}

		i, err := strconv.Atoi(args[0])

		if err != nil {
			log.Println(err)
			return
		}

		if i < 0 || i >= len(dbg.Watchpoints) {
			log.Println("Invalid watchpoint number")
			return
		}

		dbg.RemoveWatchpoint(dbg.Watchpoints[i].Addr)
		fmt.Printf("Watchpoint removed [%d]\n", i)

	case "clear":
		dbg.Watchpoints = nil
		fmt.Println("Watchpoints reset")

	default:
		log.Printf("watch: '%s' is not a valid command\n", cmd)
		log.Println(usage)
	}
}

func printRegisters(mc *machine.MachineState) {
	for i, register := range mc.Registers {
		fmt.Printf("\033[1mV%X:\033[0m %#02x\t", i, register)
		if i%4 == 3 {
			fmt.Println()
		}
	}

	fmt.Printf(
		"\033[1mI:\033[0m %#04x\t\033[1mPC:\033[0m %#04x\t"+
			"\033[1mSP:\033[0m %d\t\033[1mDT:\033[0m %#02x\t"+
			"\033[1mST:\033[0m %#02x\n",
		mc.Index,
		mc.Program,
		mc.Pointer,
		mc.Delay,
		mc.Sound,
	)
}

func debugReg(mc *machine.MachineState, args []string) {
	const usage = "register [V#|I|PC|SP|DT|ST] [value]"

	if len(args) == 0 {
		printRegisters(mc)
		return
	}

	if len(args) != 2 {
		log.Println(usage)
		return
	}

	value, err := encoding.DecodeLiteral(args[1])

	if err != nil {
		log.Println(err)
		return
	}

	name := strings.ToUpper(args[0])

	fits := func(bits uint16) bool {
		if !encoding.FitsBits(value, bits) {
			log.Printf("%#x does not fit in %s\n", value, name)
			return false
		}

		return true
	}

	switch name {
	case "I":
		mc.Index = value
	case "PC":
		mc.Program = value
	case "SP":
		if value > machine.STACK_SIZE {
			log.Println("Invalid stack pointer")
			return
		}
		mc.Pointer = uint8(value)
	case "DT":
		if !fits(8) {
			return
		}
		mc.Delay = uint8(value)
	case "ST":
		if !fits(8) {
			return
		}
		mc.Sound = uint8(value)
	default:
		index, err := strconv.ParseUint(strings.TrimPrefix(name, "V"), 16, 4)

		if !strings.HasPrefix(name, "V") || len(name) != 2 || err != nil {
			log.Println("Invalid register")
			return
		}

		if !fits(8) {
			return
		}

		mc.Registers[index] = uint8(value)
	}

	fmt.Printf("\033[1m%s:\033[0m %#04x\n", name, value)
}

func debugDisasm(dbg *debugger.Debugger, mc *machine.MachineState, args []string) {
	const usage = "disasm [0x####|label] [#]"

	if len(args) > 2 {
		log.Println(usage)
		return
	}

	var addr uint16 = mc.Program
	var count uint16 = 8
	var err error

	if len(args) > 0 {
		if addr, err = parseAddr(dbg, args[0]); err != nil {
			log.Println(err)
			return
		}
	}

	if len(args) > 1 {
		if count, err = parseCount(args[1]); err != nil {
			log.Println(err)
			return
		}
	}

	dbg.PrintDisasm(mc, addr, count)
}

func debugSource(dbg *debugger.Debugger, mc *machine.MachineState, args []string) {
	const usage = "source [0x####|label] [#]"

	if len(args) > 2 {
		log.Println(usage)
		return
	}

	var addr uint16 = mc.Program
	var count uint16 = 3
	var err error

	if len(args) > 0 {
		if addr, err = parseAddr(dbg, args[0]); err != nil {
			log.Println(err)
			return
		}
	}

	if len(args) > 1 {
		if count, err = parseCount(args[1]); err != nil {
			log.Println(err)
			return
		}
	}

	dbg.PrintSource(addr, count)
}

func debugLabels(dbg *debugger.Debugger, args []string) {
	const usage = "labels"

	if len(args) > 0 {
		log.Println(usage)
		return
	}

	if dbg.SymTable == nil {
		fmt.Println("No symbol table loaded")
		return
	}

	keys := make([]uint16, 0, len(dbg.SymTable.Labels))
	for addr := range dbg.SymTable.Labels {
		keys = append(keys, addr)
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	for _, addr := range keys {
		fmt.Printf(
			"\033[1m[%#04x]\033[0m %s\n", addr, dbg.SymTable.Labels[addr],
		)
	}
}

func debugJump(dbg *debugger.Debugger, mc *machine.MachineState, args []string) {
	const usage = "jump [0x####|label]"

	if len(args) != 1 {
		log.Println(usage)
		return
	}

	addr, err := parseAddr(dbg, args[0])

	if err != nil {
		log.Println(err)
		return
	}

	mc.Program = addr
	fmt.Printf("\033[1mPC:\033[0m %#04x\n", addr)
}

func debugMemory(dbg *debugger.Debugger, mc *machine.MachineState, args []string) {
	const usage = "memory [0x####|label] [#]"

	if len(args) > 2 {
		log.Println(usage)
		return
	}

	var addr uint16 = mc.Index
	var count uint16 = 16
	var err error

	if len(args) > 0 {
		if addr, err = parseAddr(dbg, args[0]); err != nil {
			log.Println(err)
			return
		}
	}

	if len(args) > 1 {
		if count, err = parseCount(args[1]); err != nil {
			log.Println(err)
			return
		}
	}

	dbg.PrintMem(mc, addr, count)
}

func debugSet(dbg *debugger.Debugger, mc *machine.MachineState, args []string) {
	const usage = "set [0x####|label] [value]"

	if len(args) != 2 {
		log.Println(usage)
		return
	}

	addr, err := parseAddr(dbg, args[0])

	if err != nil {
		log.Println(err)
		return
	}

	value, err := encoding.DecodeLiteral(args[1])

	if err != nil {
		log.Println(err)
		return
	}

	if !encoding.FitsBits(value, 8) {
		log.Printf("%#x does not fit in a byte\n", value)
		return
	}

	mc.Memory[addr] = byte(value)
	dbg.PrintMem(mc, addr, 1)
}

// Keys set here stay pressed until released with "key # up".
func debugKey(mc *machine.Machine, args []string) {
	const usage = "key [0-F|keyboard key] [down|up]"

	if len(args) == 0 {
		for i, pressed := range mc.State.Keypad {
			if pressed {
				fmt.Printf("%X ", i)
			}
		}

		fmt.Println()
		return
	}

	if len(args) > 2 {
		log.Println(usage)
		return
	}

	key, ok := keypad.Parse(args[0])

	if !ok {
		log.Println(usage)
		return
	}

	pressed := true

	if len(args) > 1 {
		switch args[1] {
		case "d", "down":
		case "u", "up":
			pressed = false
		default:
			log.Println(usage)
			return
		}
	}

	if heldKeys != nil {
		heldKeys.Set(key, pressed)
	}

	mc.SetKey(key, pressed)
	fmt.Printf("\033[1mK%X:\033[0m %t\n", key, pressed)
}

func quit(dbg *debugger.Debugger) {
	dbg.Break = false
	dbg.HandleBreak = nil
	dbg.HandleRead = nil
	dbg.HandleWrite = nil

	if stopRun != nil {
		stopRun()
	}
}

func debugREPL(dbg *debugger.Debugger, mc *machine.Machine) {
	for {
		fmt.Print("\033[1;30m(dbg)\033[0m ")

		if !stdin.Scan() {
			fmt.Println()
			quit(dbg)
			return
		}

		args := strings.Fields(stdin.Text())

		if len(args) == 0 {
			if len(lastcmd) == 0 {
				continue
			}
			args = lastcmd
		} else {
			lastcmd = make([]string, len(args))
			copy(lastcmd, args)
		}

		cmd := args[0]
		args = args[1:]

		switch cmd {
		case "b", "bp", "break", "breakpoint":
			debugBreak(dbg, args)

		case "w", "wp", "watch", "watchpoint":
			debugWatch(dbg, args)

		case "r", "reg", "register", "registers":
			debugReg(&mc.State, args)

		case "d", "dis", "disasm":
			debugDisasm(dbg, &mc.State, args)

		case "s", "src", "source":
			debugSource(dbg, &mc.State, args)

		case "l", "label", "labels":
			debugLabels(dbg, args)

		case "j", "jmp", "jump":
			debugJump(dbg, &mc.State, args)

		case "m", "mem", "memory":
			debugMemory(dbg, &mc.State, args)

		case "set":
			debugSet(dbg, &mc.State, args)

		case "k", "key":
			debugKey(mc, args)

		case "screen":
			fmt.Print(mc.State.Display.String())

		case "c", "continue":
			dbg.Break = false
			return

		case "n", "next":
			dbg.Break = true
			return

		case "q", "quit", "exit":
			quit(dbg)
			return

		case "clear":
			fmt.Print("\033[H\033[2J")

		case "reset":
			mc.Reset()
			fmt.Printf("\033[1mPC:\033[0m %#04x\n", mc.State.Program)

		default:
			fmt.Printf("error: '%s' is not a valid command\n", cmd)
		}
	}
}

func printStop(dbg *debugger.Debugger, mc *machine.Machine) {
	fmt.Println()
	fmt.Println("Program stopped")

	if dbg.Source != nil {
		dbg.PrintSource(mc.State.Program, 8)
	} else {
		dbg.PrintDisasm(&mc.State, mc.State.Program, 8)
	}
}

func handleBreak(dbg *debugger.Debugger, mc *machine.Machine) {
	if !dbg.Break {
		printStop(dbg, mc)
	} else {
		dbg.PrintDisasm(&mc.State, mc.State.Program, 1)
	}

	debugREPL(dbg, mc)
}

func handleRead(addr uint16, dbg *debugger.Debugger, mc *machine.Machine) {
	printStop(dbg, mc)
	dbg.PrintMem(&mc.State, addr, 1)
	debugREPL(dbg, mc)
}

func handleWrite(addr uint16, dbg *debugger.Debugger, mc *machine.Machine) {
	printStop(dbg, mc)
	dbg.PrintMem(&mc.State, addr, 1)
	debugREPL(dbg, mc)
}
