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

package disassembler

import (
	"fmt"
	"strings"

	"github.com/lassandro/gochip8/pkg/encoding"
	"github.com/lassandro/gochip8/pkg/machine"
)

// Mnemonic given to words that do not decode to an instruction
const DATA_WORD = "DW"

type Instruction struct {
	Address  uint16
	Opcode   uint16
	Mnemonic string
	Operands []string
}

func (in Instruction) String() string {
	if len(in.Operands) == 0 {
		return in.Mnemonic
	}

	return in.Mnemonic + " " + strings.Join(in.Operands, ", ")
}

func (in Instruction) IsCall() bool {
	return in.Mnemonic == "CALL"
}

func (in Instruction) IsSkip() bool {
	switch in.Mnemonic {
	case "SE", "SNE", "SKP", "SKNP":
		return true
	}

	return false
}

func (in Instruction) IsData() bool {
	return in.Mnemonic == DATA_WORD
}

func reg(index uint8) string {
	return fmt.Sprintf("V%X", index)
}

func addr(value uint16) string {
	return fmt.Sprintf("$%03X", value)
}

func imm(value uint8) string {
	return fmt.Sprintf("$%02X", value)
}

func nibble(value uint8) string {
	return fmt.Sprintf("$%X", value)
}

var aluMnemonics = [16]string{
	0x0: "LD",
	0x1: "OR",
	0x2: "AND",
	0x3: "XOR",
	0x4: "ADD",
	0x5: "SUB",
	0x6: "SHR",
	0x7: "SUBN",
	0xE: "SHL",
}

// Disassemble decodes a single instruction word. Words the machine would
// reject come back as DW with the raw value as operand.
func Disassemble(word uint16) Instruction {
	op := machine.Opcode(word)
	in := Instruction{Opcode: word}

	set := func(mnemonic string, operands ...string) Instruction {
		in.Mnemonic = mnemonic
		in.Operands = operands
		return in
	}

	x, y := op.X(), op.Y()

	switch op.Family() {
	case machine.OP_SYS:
		switch word {
		case 0x00E0:
			return set("CLS")
		case 0x00EE:
			return set("RET")
		}
	case machine.OP_JP:
		return set("JP", addr(op.NNN()))
	case machine.OP_CALL:
		return set("CALL", addr(op.NNN()))
	case machine.OP_SEB:
		return set("SE", reg(x), imm(op.NN()))
	case machine.OP_SNEB:
		return set("SNE", reg(x), imm(op.NN()))
	case machine.OP_SER:
		if op.N() == 0 {
			return set("SE", reg(x), reg(y))
		}
	case machine.OP_LDB:
		return set("LD", reg(x), imm(op.NN()))
	case machine.OP_ADDB:
		return set("ADD", reg(x), imm(op.NN()))
	case machine.OP_ALU:
		mnemonic := aluMnemonics[op.N()]

		if mnemonic == "" {
			break
		}

		// Shifts ignore VY, it is only printed when set so that the word
		// assembles back unchanged
		if (mnemonic == "SHR" || mnemonic == "SHL") && y == 0 {
			return set(mnemonic, reg(x))
		}

		return set(mnemonic, reg(x), reg(y))
	case machine.OP_SNER:
		if op.N() == 0 {
			return set("SNE", reg(x), reg(y))
		}
	case machine.OP_LDI:
		return set("LD", "I", addr(op.NNN()))
	case machine.OP_JPV0:
		return set("JP", "V0", addr(op.NNN()))
	case machine.OP_RND:
		return set("RND", reg(x), imm(op.NN()))
	case machine.OP_DRW:
		return set("DRW", reg(x), reg(y), nibble(op.N()))
	case machine.OP_KEY:
		switch op.NN() {
		case 0x9E:
			return set("SKP", reg(x))
		case 0xA1:
			return set("SKNP", reg(x))
		}
	case machine.OP_MISC:
		switch op.NN() {
		case 0x07:
			return set("LD", reg(x), "DT")
		case 0x0A:
			return set("LD", reg(x), "K")
		case 0x15:
			return set("LD", "DT", reg(x))
		case 0x18:
			return set("LD", "ST", reg(x))
		case 0x1E:
			return set("ADD", "I", reg(x))
		case 0x29:
			return set("LD", "F", reg(x))
		case 0x33:
			return set("LD", "B", reg(x))
		case 0x55:
			return set("LD", "[I]", reg(x))
		case 0x65:
			return set("LD", reg(x), "[I]")
		}
	}

	return set(DATA_WORD, fmt.Sprintf("$%04X", word))
}

// Range decodes count consecutive words of memory starting at start. The
// listing stops early at the end of memory; a trailing odd byte is dropped.
func Range(memory []byte, start uint16, count int) []Instruction {
	listing := make([]Instruction, 0, count)

	for i := 0; i < count; i++ {
		address := int(start) + 2*i

		if address+1 >= len(memory) {
			break
		}

		in := Disassemble(encoding.Word(memory[address], memory[address+1]))
		in.Address = uint16(address)
		listing = append(listing, in)
	}

	return listing
}
