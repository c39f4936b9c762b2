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
	"crypto/sha1"
	"fmt"
	"strings"
)

// Frame is a row-major 64x32 monochrome pixel grid. It is a value type, so a
// copy handed to a renderer never aliases the machine's display.
type Frame [DISPLAY_PIXELS]bool

func (f *Frame) Pixel(x, y int) bool {
	if x < 0 || x >= DISPLAY_WIDTH || y < 0 || y >= DISPLAY_HEIGHT {
		return false
	}

	return f[y*DISPLAY_WIDTH+x]
}

func (f *Frame) Clear() {
	for i := range f {
		f[i] = false
	}
}

// Lit returns the number of lit pixels.
func (f *Frame) Lit() int {
	count := 0

	for _, pixel := range f {
		if pixel {
			count++
		}
	}

	return count
}

func (f Frame) String() string {
	var builder strings.Builder
	border := "+" + strings.Repeat("-", DISPLAY_WIDTH) + "+\n"

	builder.Grow((DISPLAY_WIDTH + 3) * (DISPLAY_HEIGHT + 2))
	builder.WriteString(border)

	for y := 0; y < DISPLAY_HEIGHT; y++ {
		builder.WriteByte('|')
		for x := 0; x < DISPLAY_WIDTH; x++ {
			if f[y*DISPLAY_WIDTH+x] {
				builder.WriteByte('#')
			} else {
				builder.WriteByte(' ')
			}
		}
		builder.WriteString("|\n")
	}

	builder.WriteString(border)
	return builder.String()
}

// Digest fingerprints the frame, packed eight pixels per byte.
func (f *Frame) Digest() string {
	var packed [DISPLAY_PIXELS / 8]byte

	for i, pixel := range f {
		if pixel {
			packed[i/8] |= 0x80 >> (i % 8)
		}
	}

	return fmt.Sprintf("%x", sha1.Sum(packed[:]))
}
