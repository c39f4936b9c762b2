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
	"fmt"
)

// Fault is implemented by every error that halts a running machine.
type Fault interface {
	error
	GetProgram() uint16
}

type CapacityExceededError struct {
	Size  int
	Limit int
}

func (err *CapacityExceededError) Error() string {
	return fmt.Sprintf(
		"ROM exceeds loadable region\n\twant:<=%d bytes\n\thave:%d bytes",
		err.Limit,
		err.Size,
	)
}

type IllegalOpcodeError struct {
	Opcode  uint16
	Program uint16
}

func (err *IllegalOpcodeError) GetProgram() uint16 {
	return err.Program
}

func (err *IllegalOpcodeError) Error() string {
	return fmt.Sprintf(
		"[%#04x] Illegal opcode %#04x", err.Program, err.Opcode,
	)
}

type StackOverflowError struct {
	Program uint16
}

func (err *StackOverflowError) GetProgram() uint16 {
	return err.Program
}

func (err *StackOverflowError) Error() string {
	return fmt.Sprintf(
		"[%#04x] Stack overflow, more than %d nested calls",
		err.Program,
		STACK_SIZE,
	)
}

type StackUnderflowError struct {
	Program uint16
}

func (err *StackUnderflowError) GetProgram() uint16 {
	return err.Program
}

func (err *StackUnderflowError) Error() string {
	return fmt.Sprintf(
		"[%#04x] Stack underflow, return with empty stack", err.Program,
	)
}

type MemoryBoundsError struct {
	Program uint16
	Address uint16
	Size    int
}

func (err *MemoryBoundsError) GetProgram() uint16 {
	return err.Program
}

func (err *MemoryBoundsError) Error() string {
	return fmt.Sprintf(
		"[%#04x] Memory access out of bounds\n\twant:[%#04x, %#04x)\n\thave:[%#04x, %#04x)",
		err.Program,
		0,
		MEMORY_SIZE,
		err.Address,
		int(err.Address)+err.Size,
	)
}

type ProtectedMemoryError struct {
	Program uint16
	Address uint16
}

func (err *ProtectedMemoryError) GetProgram() uint16 {
	return err.Program
}

func (err *ProtectedMemoryError) Error() string {
	return fmt.Sprintf(
		"[%#04x] Write to font memory at %#04x", err.Program, err.Address,
	)
}
