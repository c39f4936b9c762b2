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

package keypad_test

import (
	"testing"

	"github.com/lassandro/gochip8/pkg/keypad"
)

func TestLookup(t *testing.T) {
	type testCase struct {
		Rune  rune
		Key   int
		Found bool
	}

	tests := []testCase{
		{'1', 0x1, true},
		{'4', 0xC, true},
		{'q', 0x4, true},
		{'Q', 0x4, true},
		{'r', 0xD, true},
		{'x', 0x0, true},
		{'V', 0xF, true},
		{'5', 0, false},
		{'p', 0, false},
	}

	for _, test := range tests {
		key, found := keypad.Lookup(test.Rune)

		if key != test.Key || found != test.Found {
			t.Errorf(
				"Lookup(%q) mismatch\nwant:%X %v\nhave:%X %v",
				test.Rune,
				test.Key,
				test.Found,
				key,
				found,
			)
		}
	}
}

func TestLayoutCoversKeypad(t *testing.T) {
	var seen [16]bool

	for _, binding := range keypad.Layout {
		if seen[binding.Key] {
			t.Errorf("Key %X bound twice", binding.Key)
		}

		seen[binding.Key] = true

		r, ok := keypad.Rune(binding.Key)

		if !ok || r != binding.Rune {
			t.Errorf("Rune(%X) mismatch\nwant:%q\nhave:%q", binding.Key, binding.Rune, r)
		}
	}
}

func TestParse(t *testing.T) {
	type testCase struct {
		Input string
		Key   int
		Found bool
	}

	tests := []testCase{
		{"0", 0x0, true},
		{"9", 0x9, true},
		{"a", 0xA, true},
		{"F", 0xF, true},
		{"c", 0xC, true},
		{"q", 0x4, true},
		{"z", 0xA, true},
		{"v", 0xF, true},
		{"", 0, false},
		{"10", 0, false},
		{"p", 0, false},
	}

	for _, test := range tests {
		key, found := keypad.Parse(test.Input)

		if key != test.Key || found != test.Found {
			t.Errorf(
				"Parse(%q) mismatch\nwant:%X %v\nhave:%X %v",
				test.Input,
				test.Key,
				test.Found,
				key,
				found,
			)
		}
	}
}
