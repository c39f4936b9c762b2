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

package disassembler_test

import (
	"testing"

	"github.com/lassandro/gochip8/pkg/disassembler"
)

type testCase struct {
	Opcode uint16
	Want   string
}

func TestDisassemble(t *testing.T) {
	tests := []testCase{
		{0x00E0, "CLS"},
		{0x00EE, "RET"},
		{0x0123, "DW $0123"},
		{0x1666, "JP $666"},
		{0x2ABC, "CALL $ABC"},
		{0x312F, "SE V1, $2F"},
		{0x4AFF, "SNE VA, $FF"},
		{0x5120, "SE V1, V2"},
		{0x5121, "DW $5121"},
		{0x612F, "LD V1, $2F"},
		{0x7E01, "ADD VE, $01"},
		{0x8120, "LD V1, V2"},
		{0x8121, "OR V1, V2"},
		{0x8122, "AND V1, V2"},
		{0x8123, "XOR V1, V2"},
		{0x8124, "ADD V1, V2"},
		{0x8125, "SUB V1, V2"},
		{0x8106, "SHR V1"},
		{0x8126, "SHR V1, V2"},
		{0x8127, "SUBN V1, V2"},
		{0x810E, "SHL V1"},
		{0x8128, "DW $8128"},
		{0x9AB0, "SNE VA, VB"},
		{0x9AB1, "DW $9AB1"},
		{0xA123, "LD I, $123"},
		{0xB300, "JP V0, $300"},
		{0xC70F, "RND V7, $0F"},
		{0xD125, "DRW V1, V2, $5"},
		{0xE39E, "SKP V3"},
		{0xE3A1, "SKNP V3"},
		{0xE3A2, "DW $E3A2"},
		{0xF407, "LD V4, DT"},
		{0xF40A, "LD V4, K"},
		{0xF415, "LD DT, V4"},
		{0xF418, "LD ST, V4"},
		{0xF41E, "ADD I, V4"},
		{0xF429, "LD F, V4"},
		{0xF433, "LD B, V4"},
		{0xF455, "LD [I], V4"},
		{0xF465, "LD V4, [I]"},
		{0xF4FF, "DW $F4FF"},
	}

	for _, test := range tests {
		if have := disassembler.Disassemble(test.Opcode).String(); have != test.Want {
			t.Errorf(
				"Disassembly mismatch for %#04x\nwant:%s\nhave:%s",
				test.Opcode,
				test.Want,
				have,
			)
		}
	}
}

func TestClassify(t *testing.T) {
	if !disassembler.Disassemble(0x2300).IsCall() {
		t.Error("CALL not classified as call")
	}

	if !disassembler.Disassemble(0xE19E).IsSkip() {
		t.Error("SKP not classified as skip")
	}

	if !disassembler.Disassemble(0xFFFF).IsData() {
		t.Error("Undefined word not classified as data")
	}
}

func TestRange(t *testing.T) {
	memory := make([]byte, 0x206)
	copy(memory[0x200:], []byte{0x60, 0x01, 0x12, 0x00, 0x00})

	listing := disassembler.Range(memory, 0x200, 8)

	if len(listing) != 3 {
		t.Fatalf("Listing length mismatch\nwant:3\nhave:%d", len(listing))
	}

	want := []string{"LD V0, $01", "JP $200", "DW $0000"}

	for i, in := range listing {
		if in.Address != 0x200+uint16(2*i) {
			t.Errorf(
				"Address mismatch\nwant:%#04x\nhave:%#04x",
				0x200+2*i,
				in.Address,
			)
		}

		if in.String() != want[i] {
			t.Errorf("Listing mismatch\nwant:%s\nhave:%s", want[i], in.String())
		}
	}

	odd := disassembler.Range([]byte{0x00, 0xE0, 0x12}, 0, 4)

	if len(odd) != 1 || odd[0].Mnemonic != "CLS" {
		t.Errorf("Odd tail mismatch\nwant:[CLS]\nhave:%v", odd)
	}
}
