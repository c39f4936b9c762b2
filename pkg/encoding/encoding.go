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

package encoding

import (
	"errors"
	"strconv"
	"strings"
)

var ErrNotLiteral = errors.New("Not a literal")

// Decodes a hexidecimal string in the formats: $FFF, 0xFFF, xFFF
func DecodeHex(s string) (uint16, error) {
	switch {
	case strings.HasPrefix(s, "$"):
		s = s[1:]
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		s = s[2:]
	case strings.HasPrefix(s, "x"), strings.HasPrefix(s, "X"):
		s = s[1:]
	default:
		return 0, errors.New("Invalid hex string")
	}

	result, err := strconv.ParseUint(s, 16, 16)

	if err != nil {
		return 0, err
	}

	return uint16(result), nil
}

// Decodes a base-10 string in the formats: #123, 123
func DecodeInt(s string) (uint16, error) {
	s = strings.TrimPrefix(s, "#")

	result, err := strconv.ParseUint(s, 10, 16)

	if err != nil {
		return 0, err
	}

	return uint16(result), nil
}

// Decodes a base-2 string in the formats: %1010, 0b1010. Dots are read as
// zeroes so sprite rows can be drawn as %#..#....
func DecodeBinary(s string) (uint16, error) {
	switch {
	case strings.HasPrefix(s, "%"):
		s = s[1:]
	case strings.HasPrefix(s, "0b"), strings.HasPrefix(s, "0B"):
		s = s[2:]
	default:
		return 0, errors.New("Invalid binary string")
	}

	s = strings.NewReplacer(".", "0", "#", "1").Replace(s)

	result, err := strconv.ParseUint(s, 2, 16)

	if err != nil {
		return 0, err
	}

	return uint16(result), nil
}

// DecodeLiteral picks the base from the prefix. ErrNotLiteral is returned
// when s does not look like a number at all.
func DecodeLiteral(s string) (uint16, error) {
	if len(s) == 0 {
		return 0, ErrNotLiteral
	}

	switch c := s[0]; {
	case c == '$':
		return DecodeHex(s)
	case c == '%':
		return DecodeBinary(s)
	case c == '#':
		return DecodeInt(s)
	case c == '0' && len(s) > 1 && (s[1] == 'x' || s[1] == 'X'):
		return DecodeHex(s)
	case c == '0' && len(s) > 1 && (s[1] == 'b' || s[1] == 'B'):
		return DecodeBinary(s)
	case c >= '0' && c <= '9':
		return DecodeInt(s)
	}

	return 0, ErrNotLiteral
}

// Word joins a big-endian byte pair.
func Word(hi, lo byte) uint16 {
	return uint16(hi)<<8 | uint16(lo)
}

// SplitWord returns the big-endian byte pair of value.
func SplitWord(value uint16) (byte, byte) {
	return byte(value >> 8), byte(value)
}

// FitsBits reports whether value can be encoded in an unsigned field of
// bitcount bits.
func FitsBits(value uint16, bitcount uint16) bool {
	return bitcount >= 16 || value>>bitcount == 0
}
