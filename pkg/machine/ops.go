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

// Every handler owns the program counter update for its instruction.
type handler func(mc *Machine, op Opcode) error

var families = [16]handler{
	OP_SYS:  execSystem,
	OP_JP:   opJump,
	OP_CALL: opCall,
	OP_SEB:  opSkipEqualByte,
	OP_SNEB: opSkipNotEqualByte,
	OP_SER:  opSkipEqualRegister,
	OP_LDB:  opLoadByte,
	OP_ADDB: opAddByte,
	OP_ALU:  execALU,
	OP_SNER: opSkipNotEqualRegister,
	OP_LDI:  opLoadIndex,
	OP_JPV0: opJumpOffset,
	OP_RND:  opRandom,
	OP_DRW:  opDraw,
	OP_KEY:  execKey,
	OP_MISC: execMisc,
}

var systemOps = map[uint16]handler{
	0x00E0: opClear,
	0x00EE: opReturn,
}

var aluOps = [16]handler{
	0x0: opMove,
	0x1: opOr,
	0x2: opAnd,
	0x3: opXor,
	0x4: opAdd,
	0x5: opSub,
	0x6: opShiftRight,
	0x7: opSubReverse,
	0xE: opShiftLeft,
}

var keyOps = map[uint8]handler{
	0x9E: opSkipPressed,
	0xA1: opSkipNotPressed,
}

var miscOps = map[uint8]handler{
	0x07: opReadDelay,
	0x0A: opWaitKey,
	0x15: opSetDelay,
	0x18: opSetSound,
	0x1E: opAddIndex,
	0x29: opGlyph,
	0x33: opDecimal,
	0x55: opStore,
	0x65: opRestore,
}

func (mc *Machine) execute(op Opcode) error {
	return families[op.Family()](mc, op)
}

func (mc *Machine) illegal(op Opcode) error {
	return &IllegalOpcodeError{Opcode: uint16(op), Program: mc.State.Program}
}

func (mc *Machine) next() {
	mc.State.Program += 2
}

func (mc *Machine) skipIf(condition bool) {
	if condition {
		mc.State.Program += 2
	}

	mc.State.Program += 2
}

func execSystem(mc *Machine, op Opcode) error {
	if fn, ok := systemOps[uint16(op)]; ok {
		return fn(mc, op)
	}

	return mc.illegal(op)
}

func execALU(mc *Machine, op Opcode) error {
	if fn := aluOps[op.N()]; fn != nil {
		return fn(mc, op)
	}

	return mc.illegal(op)
}

func execKey(mc *Machine, op Opcode) error {
	if fn, ok := keyOps[op.NN()]; ok {
		return fn(mc, op)
	}

	return mc.illegal(op)
}

func execMisc(mc *Machine, op Opcode) error {
	if fn, ok := miscOps[op.NN()]; ok {
		return fn(mc, op)
	}

	return mc.illegal(op)
}

// CLS  |0000    |0000    |1110    |0000    | Clear display
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func opClear(mc *Machine, op Opcode) error {
	mc.State.Display.Clear()
	mc.State.Redraw = true
	mc.next()
	return nil
}

// RET  |0000    |0000    |1110    |1110    | Return from subroutine
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func opReturn(mc *Machine, op Opcode) error {
	addr, err := mc.pop()

	if err != nil {
		return err
	}

	// The stack holds the address of the CALL itself
	mc.State.Program = addr
	mc.next()
	return nil
}

// JP   |0001    |NNN                      | Jump
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func opJump(mc *Machine, op Opcode) error {
	mc.State.Program = op.NNN()
	return nil
}

// CALL |0010    |NNN                      | Call subroutine
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func opCall(mc *Machine, op Opcode) error {
	if err := mc.push(mc.State.Program); err != nil {
		return err
	}

	mc.State.Program = op.NNN()
	return nil
}

// SE   |0011    |X       |NN              | Skip if VX == NN
// SNE  |0100    |X       |NN              | Skip if VX != NN
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func opSkipEqualByte(mc *Machine, op Opcode) error {
	mc.skipIf(mc.State.Registers[op.X()] == op.NN())
	return nil
}

func opSkipNotEqualByte(mc *Machine, op Opcode) error {
	mc.skipIf(mc.State.Registers[op.X()] != op.NN())
	return nil
}

// SE   |0101    |X       |Y       |0000    | Skip if VX == VY
// SNE  |1001    |X       |Y       |0000    | Skip if VX != VY
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func opSkipEqualRegister(mc *Machine, op Opcode) error {
	if op.N() != 0 {
		return mc.illegal(op)
	}

	mc.skipIf(mc.State.Registers[op.X()] == mc.State.Registers[op.Y()])
	return nil
}

func opSkipNotEqualRegister(mc *Machine, op Opcode) error {
	if op.N() != 0 {
		return mc.illegal(op)
	}

	mc.skipIf(mc.State.Registers[op.X()] != mc.State.Registers[op.Y()])
	return nil
}

// LD   |0110    |X       |NN              | VX = NN
// ADD  |0111    |X       |NN              | VX += NN, no carry
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func opLoadByte(mc *Machine, op Opcode) error {
	mc.State.Registers[op.X()] = op.NN()
	mc.next()
	return nil
}

func opAddByte(mc *Machine, op Opcode) error {
	mc.State.Registers[op.X()] += op.NN()
	mc.next()
	return nil
}

// LD   |1000    |X       |Y       |0000    | VX = VY
// OR   |1000    |X       |Y       |0001    | VX |= VY
// AND  |1000    |X       |Y       |0010    | VX &= VY
// XOR  |1000    |X       |Y       |0011    | VX ^= VY
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func opMove(mc *Machine, op Opcode) error {
	mc.State.Registers[op.X()] = mc.State.Registers[op.Y()]
	mc.next()
	return nil
}

func opOr(mc *Machine, op Opcode) error {
	mc.State.Registers[op.X()] |= mc.State.Registers[op.Y()]
	mc.next()
	return nil
}

func opAnd(mc *Machine, op Opcode) error {
	mc.State.Registers[op.X()] &= mc.State.Registers[op.Y()]
	mc.next()
	return nil
}

func opXor(mc *Machine, op Opcode) error {
	mc.State.Registers[op.X()] ^= mc.State.Registers[op.Y()]
	mc.next()
	return nil
}

// The flag is written before the result, so with X == F the result wins.

// ADD  |1000    |X       |Y       |0100    | VX += VY, VF = carry
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func opAdd(mc *Machine, op Opcode) error {
	vx := mc.State.Registers[op.X()]
	vy := mc.State.Registers[op.Y()]

	if uint16(vx)+uint16(vy) > 0xFF {
		mc.State.Registers[REGISTER_FLAG] = 1
	} else {
		mc.State.Registers[REGISTER_FLAG] = 0
	}

	mc.State.Registers[op.X()] = vx + vy
	mc.next()
	return nil
}

// SUB  |1000    |X       |Y       |0101    | VX -= VY, VF = !borrow
// SUBN |1000    |X       |Y       |0111    | VX = VY - VX, VF = !borrow
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func opSub(mc *Machine, op Opcode) error {
	vx := mc.State.Registers[op.X()]
	vy := mc.State.Registers[op.Y()]

	if vy > vx {
		mc.State.Registers[REGISTER_FLAG] = 0
	} else {
		mc.State.Registers[REGISTER_FLAG] = 1
	}

	mc.State.Registers[op.X()] = vx - vy
	mc.next()
	return nil
}

func opSubReverse(mc *Machine, op Opcode) error {
	vx := mc.State.Registers[op.X()]
	vy := mc.State.Registers[op.Y()]

	if vx > vy {
		mc.State.Registers[REGISTER_FLAG] = 0
	} else {
		mc.State.Registers[REGISTER_FLAG] = 1
	}

	mc.State.Registers[op.X()] = vy - vx
	mc.next()
	return nil
}

// SHR  |1000    |X       |Y       |0110    | VF = VX & 1, VX >>= 1
// SHL  |1000    |X       |Y       |1110    | VF = VX >> 7, VX <<= 1
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func opShiftRight(mc *Machine, op Opcode) error {
	vx := mc.State.Registers[op.X()]

	mc.State.Registers[REGISTER_FLAG] = vx & 0x1
	mc.State.Registers[op.X()] = vx >> 1
	mc.next()
	return nil
}

func opShiftLeft(mc *Machine, op Opcode) error {
	vx := mc.State.Registers[op.X()]

	mc.State.Registers[REGISTER_FLAG] = vx >> 7
	mc.State.Registers[op.X()] = vx << 1
	mc.next()
	return nil
}

// LD   |1010    |NNN                      | I = NNN
// JP   |1011    |NNN                      | PC = NNN + V0
// RND  |1100    |X       |NN              | VX = rand & NN
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func opLoadIndex(mc *Machine, op Opcode) error {
	mc.State.Index = op.NNN()
	mc.next()
	return nil
}

func opJumpOffset(mc *Machine, op Opcode) error {
	mc.State.Program = op.NNN() + uint16(mc.State.Registers[0])
	return nil
}

func opRandom(mc *Machine, op Opcode) error {
	mc.State.Registers[op.X()] = uint8(mc.random.Intn(256)) & op.NN()
	mc.next()
	return nil
}

// DRW  |1101    |X       |Y       |N       | XOR sprite I[0:N] at VX,VY
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func opDraw(mc *Machine, op Opcode) error {
	x0 := int(mc.State.Registers[op.X()])
	y0 := int(mc.State.Registers[op.Y()])
	rows := int(op.N())

	if err := mc.checkRange(mc.State.Index, rows); err != nil {
		return err
	}

	collision := false

	for row := 0; row < rows; row++ {
		sprite := mc.read(mc.State.Index + uint16(row))

		for bit := 0; bit < 8; bit++ {
			if sprite&(0x80>>bit) == 0 {
				continue
			}

			x, y := x0+bit, y0+row

			if mc.Config.Quirks.WrapSprites {
				x %= DISPLAY_WIDTH
				y %= DISPLAY_HEIGHT
			} else if x >= DISPLAY_WIDTH || y >= DISPLAY_HEIGHT {
				continue
			}

			pixel := &mc.State.Display[y*DISPLAY_WIDTH+x]

			if *pixel {
				collision = true
			}

			*pixel = !*pixel
		}
	}

	if collision {
		mc.State.Registers[REGISTER_FLAG] = 1
	} else {
		mc.State.Registers[REGISTER_FLAG] = 0
	}

	mc.State.Redraw = true
	mc.next()
	return nil
}

// Key indices come from the low nibble of VX.

// SKP  |1110    |X       |1001    |1110    | Skip if key VX pressed
// SKNP |1110    |X       |1010    |0001    | Skip if key VX not pressed
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func opSkipPressed(mc *Machine, op Opcode) error {
	key := mc.State.Registers[op.X()] & 0xF
	mc.skipIf(mc.State.Keypad[key])
	return nil
}

func opSkipNotPressed(mc *Machine, op Opcode) error {
	key := mc.State.Registers[op.X()] & 0xF
	mc.skipIf(!mc.State.Keypad[key])
	return nil
}

// LD   |1111    |X       |0000    |0111    | VX = DT
// LD   |1111    |X       |0000    |1010    | VX = next key press
// LD   |1111    |X       |0001    |0101    | DT = VX
// LD   |1111    |X       |0001    |1000    | ST = VX
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func opReadDelay(mc *Machine, op Opcode) error {
	mc.State.Registers[op.X()] = mc.State.Delay
	mc.next()
	return nil
}

// Leaves PC in place while no key is down, so the same instruction is
// decoded again on the next step.
func opWaitKey(mc *Machine, op Opcode) error {
	for key, pressed := range mc.State.Keypad {
		if pressed {
			mc.State.Registers[op.X()] = uint8(key)
			mc.waiting = false
			mc.next()
			return nil
		}
	}

	mc.waiting = true
	return nil
}

func opSetDelay(mc *Machine, op Opcode) error {
	mc.State.Delay = mc.State.Registers[op.X()]
	mc.next()
	return nil
}

func opSetSound(mc *Machine, op Opcode) error {
	mc.State.Sound = mc.State.Registers[op.X()]
	mc.next()
	return nil
}

// ADD  |1111    |X       |0001    |1110    | I += VX
// LD   |1111    |X       |0010    |1001    | I = glyph(VX)
// LD   |1111    |X       |0011    |0011    | I[0:3] = BCD(VX)
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func opAddIndex(mc *Machine, op Opcode) error {
	mc.State.Index += uint16(mc.State.Registers[op.X()])
	mc.next()
	return nil
}

func opGlyph(mc *Machine, op Opcode) error {
	digit := uint16(mc.State.Registers[op.X()])
	mc.State.Index = MEMSPACE_FONT + FONT_GLYPH_SIZE*digit
	mc.next()
	return nil
}

func opDecimal(mc *Machine, op Opcode) error {
	if err := mc.checkRange(mc.State.Index, 3); err != nil {
		return err
	}

	vx := mc.State.Registers[op.X()]
	digits := [3]byte{vx / 100, (vx / 10) % 10, vx % 10}

	for i, digit := range digits {
		if err := mc.write(mc.State.Index+uint16(i), digit); err != nil {
			return err
		}
	}

	mc.next()
	return nil
}

// LD   |1111    |X       |0101    |0101    | I[0:X+1] = V0..VX
// LD   |1111    |X       |0110    |0101    | V0..VX = I[0:X+1]
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func opStore(mc *Machine, op Opcode) error {
	count := int(op.X()) + 1

	if err := mc.checkRange(mc.State.Index, count); err != nil {
		return err
	}

	for i := 0; i < count; i++ {
		err := mc.write(mc.State.Index+uint16(i), mc.State.Registers[i])

		if err != nil {
			return err
		}
	}

	mc.next()
	return nil
}

func opRestore(mc *Machine, op Opcode) error {
	count := int(op.X()) + 1

	if err := mc.checkRange(mc.State.Index, count); err != nil {
		return err
	}

	for i := 0; i < count; i++ {
		mc.State.Registers[i] = mc.read(mc.State.Index + uint16(i))
	}

	mc.next()
	return nil
}
