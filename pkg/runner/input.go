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

package runner

import (
	"github.com/lassandro/gochip8/pkg/machine"
)

// HeldKeys presses keys on top of another input until they are released.
// The wrapped Input may be nil.
type HeldKeys struct {
	Input Input

	held [machine.KEYPAD_SIZE]bool
}

func (h *HeldKeys) Set(key int, pressed bool) {
	if key < 0 || key >= machine.KEYPAD_SIZE {
		panic("Invalid keypad index")
	}

	h.held[key] = pressed
}

func (h *HeldKeys) Held() [machine.KEYPAD_SIZE]bool {
	return h.held
}

func (h *HeldKeys) Keys() [machine.KEYPAD_SIZE]bool {
	var keys [machine.KEYPAD_SIZE]bool

	if h.Input != nil {
		keys = h.Input.Keys()
	}

	for i, held := range h.held {
		keys[i] = keys[i] || held
	}

	return keys
}
