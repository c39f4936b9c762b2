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

package terminal

import (
	"strings"
	"time"

	"github.com/lassandro/gochip8/pkg/keypad"
	"github.com/lassandro/gochip8/pkg/machine"
)

const (
	DEFAULT_HOLD = 150 * time.Millisecond

	keyEscape    = 0x1B
	keyInterrupt = 0x03
)

// Latch keeps a key pressed for Hold after its last keystroke. Terminals
// only report key repeats, never releases.
type Latch struct {
	Hold time.Duration

	pressed [machine.KEYPAD_SIZE]time.Time
}

func (latch *Latch) Press(key int, now time.Time) {
	latch.pressed[key] = now
}

func (latch *Latch) Keys(now time.Time) [machine.KEYPAD_SIZE]bool {
	var keys [machine.KEYPAD_SIZE]bool

	for i, at := range latch.pressed {
		keys[i] = !at.IsZero() && now.Sub(at) < latch.Hold
	}

	return keys
}

// Decode maps one read from a raw terminal to keypad keys. A lone Escape or
// a Ctrl-C asks to quit; other escape sequences are ignored.
func Decode(chunk []byte) (keys []int, quit bool) {
	if len(chunk) == 1 && chunk[0] == keyEscape {
		return nil, true
	}

	for i := 0; i < len(chunk); i++ {
		switch chunk[i] {
		case keyInterrupt:
			return keys, true
		case keyEscape:
			return keys, false
		}

		if key, ok := keypad.Lookup(rune(chunk[i])); ok {
			keys = append(keys, key)
		}
	}

	return keys, false
}

// Render draws two pixel rows per text line with half block characters.
func Render(frame *machine.Frame) string {
	var builder strings.Builder

	for y := 0; y < machine.DISPLAY_HEIGHT; y += 2 {
		for x := 0; x < machine.DISPLAY_WIDTH; x++ {
			top := frame.Pixel(x, y)
			bottom := frame.Pixel(x, y+1)

			switch {
			case top && bottom:
				builder.WriteRune('█')
			case top:
				builder.WriteRune('▀')
			case bottom:
				builder.WriteRune('▄')
			default:
				builder.WriteByte(' ')
			}
		}

		builder.WriteString("\r\n")
	}

	return builder.String()
}
