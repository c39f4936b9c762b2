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

package script_test

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lassandro/gochip8/pkg/machine"
	"github.com/lassandro/gochip8/pkg/script"
)

func newMachine(t *testing.T, rom ...byte) *machine.Machine {
	mc := machine.New(machine.Config{CPUHz: 60, TimerHz: 60, Seed: 1})

	if err := mc.Load(rom); err != nil {
		t.Fatal(err)
	}

	return mc
}

func TestRun(t *testing.T) {
	type testCase struct {
		Name   string
		Rom    []byte
		Source string
	}

	tests := []testCase{
		{
			Name: "Registers",
			Rom:  []byte{0x60, 0x05, 0x70, 0x03, 0x12, 0x04},
			Source: `
				assert(step(2) == 2)
				assert(reg(0) == 8)
				assert(pc() == 0x204)
				setreg(0, 0x1FF)
				assert(reg(0) == 0xFF)
			`,
		},
		{
			Name: "Memory",
			Rom:  []byte{0xA3, 0x00},
			Source: `
				step()
				assert(index() == 0x300)
				poke(0x300, 0x42)
				assert(peek(0x300) == 0x42)
				assert(peek(0) == 0xF0)
				setpc(0x300)
				assert(pc() == 0x300)
			`,
		},
		{
			Name: "Key Wait",
			Rom:  []byte{0xF3, 0x0A},
			Source: `
				step(3)
				assert(awaiting())
				assert(pc() == 0x200)
				press(7)
				step()
				release(7)
				assert(not awaiting())
				assert(reg(3) == 7)
			`,
		},
		{
			Name: "Timers",
			Rom:  []byte{0x60, 0x09, 0xF0, 0x15, 0xF0, 0x18},
			Source: `
				step(3)
				assert(delay() == 7)
				assert(sound() == 8)
			`,
		},
		{
			Name: "Display",
			Rom:  []byte{0xA0, 0x00, 0xD0, 0x05},
			Source: `
				local blank = digest()
				step(2)
				assert(pixel(0, 0))
				assert(not pixel(4, 0))
				assert(digest() ~= blank)
				assert(screen():find("####"))
			`,
		},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			mc := newMachine(t, test.Rom...)

			if err := script.Run(mc, test.Source, script.Options{}); err != nil {
				t.Fatal(err)
			}
		})
	}
}

func TestRunErrors(t *testing.T) {
	type testCase struct {
		Name   string
		Rom    []byte
		Source string
		Want   string
	}

	tests := []testCase{
		{"Fault", []byte{0xFF, 0xFF}, "step()", "0xffff"},
		{"Register Range", nil, "reg(16)", "out of range"},
		{"Key Range", nil, "press(-1)", "out of range"},
		{"Syntax", nil, "step(", "script:"},
	}

	for _, test := range tests {
		mc := newMachine(t, test.Rom...)
		err := script.Run(mc, test.Source, script.Options{})

		if err == nil || !strings.Contains(err.Error(), test.Want) {
			t.Errorf("%s mismatch\nwant:%q\nhave:%v", test.Name, test.Want, err)
		}
	}
}

func TestLog(t *testing.T) {
	var output bytes.Buffer

	mc := newMachine(t)
	opts := script.Options{Logger: log.New(&output, "", 0)}

	if err := script.Run(mc, `log("pc=" .. pc())`, opts); err != nil {
		t.Fatal(err)
	}

	if output.String() != "pc=512\n" {
		t.Errorf("Log mismatch\nwant:%q\nhave:%q", "pc=512\n", output.String())
	}

	if err := script.Run(mc, `log("dropped")`, script.Options{}); err != nil {
		t.Fatal(err)
	}
}

func TestRunFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.lua")

	if err := os.WriteFile(path, []byte("step()\nassert(reg(1) == 0x2A)\n"), 0644); err != nil {
		t.Fatal(err)
	}

	mc := newMachine(t, 0x61, 0x2A)

	if err := script.RunFile(mc, path, script.Options{}); err != nil {
		t.Fatal(err)
	}

	if err := script.RunFile(mc, filepath.Join(t.TempDir(), "missing.lua"), script.Options{}); err == nil {
		t.Error("Missing file did not fail")
	}
}
