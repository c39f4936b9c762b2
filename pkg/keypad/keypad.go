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

package keypad

import (
	"unicode"
)

// Binding ties a key on a QWERTY keyboard to a hex keypad key.
type Binding struct {
	Rune rune
	Key  int
}

// The left hand block of a QWERTY keyboard, laid over the hex keypad
//
//	1 2 3 4      1 2 3 C
//	Q W E R  ->  4 5 6 D
//	A S D F      7 8 9 E
//	Z X C V      A 0 B F
var Layout = [16]Binding{
	{'1', 0x1}, {'2', 0x2}, {'3', 0x3}, {'4', 0xC},
	{'q', 0x4}, {'w', 0x5}, {'e', 0x6}, {'r', 0xD},
	{'a', 0x7}, {'s', 0x8}, {'d', 0x9}, {'f', 0xE},
	{'z', 0xA}, {'x', 0x0}, {'c', 0xB}, {'v', 0xF},
}

// Lookup returns the keypad key bound to r, ignoring case.
func Lookup(r rune) (int, bool) {
	r = unicode.ToLower(r)

	for _, binding := range Layout {
		if binding.Rune == r {
			return binding.Key, true
		}
	}

	return 0, false
}

// Rune returns the keyboard key bound to a keypad key.
func Rune(key int) (rune, bool) {
	for _, binding := range Layout {
		if binding.Key == key {
			return binding.Rune, true
		}
	}

	return 0, false
}

// Parse reads a keypad key by its hex digit, falling back to the layout for
// the remaining letters ("q" is 0x4, "c" is 0xC).
func Parse(s string) (int, bool) {
	if len(s) != 1 {
		return 0, false
	}

	c := unicode.ToUpper(rune(s[0]))

	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), true
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10, true
	}

	return Lookup(rune(s[0]))
}
