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

package assembler

const (
	TOKEN_NONE TokenType = iota
	TOKEN_IDENT
	TOKEN_DIRECTIVE
	TOKEN_STRING
	TOKEN_LITERAL
)

const (
	OPERAND_NONE OperandType = iota
	OPERAND_REGISTER
	OPERAND_V0
	OPERAND_VALUE
	OPERAND_INDEX
	OPERAND_INDIRECT
	OPERAND_DELAY
	OPERAND_SOUND
	OPERAND_KEY
	OPERAND_FONT
	OPERAND_BCD
	OPERAND_STRING
)

const (
	LITERAL_NIBBLE  LiteralType = 4
	LITERAL_BYTE                = 8
	LITERAL_ADDRESS             = 12
	LITERAL_WORD                = 16
)

const (
	DIRECTIVE_INVALID DirectiveType = iota
	DIRECTIVE_DB
	DIRECTIVE_DW
	DIRECTIVE_TEXT
	DIRECTIVE_END
)

// Extension of the gob encoded symbol table written next to a ROM
const SYMTABLE_EXT = ".c8db"
