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

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/lassandro/gochip8/pkg/encoding"
	"github.com/lassandro/gochip8/pkg/machine"
)

type operand struct {
	Type     OperandType
	Register uint8
	Value    uint16
	Label    string
	Token    *Token
}

// Where an operand lands in the instruction word. Keyword operands such as
// I or DT carry no bits and use a zero Size.
type slot struct {
	Shift uint16
	Size  LiteralType
}

type form struct {
	Operands []OperandType
	Slots    []slot
	Base     uint16
}

var (
	slotFixed   = slot{}
	slotX       = slot{8, LITERAL_NIBBLE}
	slotY       = slot{4, LITERAL_NIBBLE}
	slotNibble  = slot{0, LITERAL_NIBBLE}
	slotByte    = slot{0, LITERAL_BYTE}
	slotAddress = slot{0, LITERAL_ADDRESS}
)

func registerPair(base uint16) []form {
	return []form{{
		[]OperandType{OPERAND_REGISTER, OPERAND_REGISTER},
		[]slot{slotX, slotY},
		base,
	}}
}

func shift(base uint16) []form {
	return []form{
		{[]OperandType{OPERAND_REGISTER}, []slot{slotX}, base},
		{
			[]OperandType{OPERAND_REGISTER, OPERAND_REGISTER},
			[]slot{slotX, slotY},
			base,
		},
	}
}

var instructions = map[string][]form{
	"CLS": {{Base: 0x00E0}},
	"RET": {{Base: 0x00EE}},
	"JP": {
		{[]OperandType{OPERAND_VALUE}, []slot{slotAddress}, 0x1000},
		{
			[]OperandType{OPERAND_V0, OPERAND_VALUE},
			[]slot{slotFixed, slotAddress},
			0xB000,
		},
	},
	"CALL": {
		{[]OperandType{OPERAND_VALUE}, []slot{slotAddress}, 0x2000},
	},
	"SE": {
		{
			[]OperandType{OPERAND_REGISTER, OPERAND_VALUE},
			[]slot{slotX, slotByte},
			0x3000,
		},
		{
			[]OperandType{OPERAND_REGISTER, OPERAND_REGISTER},
			[]slot{slotX, slotY},
			0x5000,
		},
	},
	"SNE": {
		{
			[]OperandType{OPERAND_REGISTER, OPERAND_VALUE},
			[]slot{slotX, slotByte},
			0x4000,
		},
		{
			[]OperandType{OPERAND_REGISTER, OPERAND_REGISTER},
			[]slot{slotX, slotY},
			0x9000,
		},
	},
	"LD": {
		{
			[]OperandType{OPERAND_REGISTER, OPERAND_VALUE},
			[]slot{slotX, slotByte},
			0x6000,
		},
		{
			[]OperandType{OPERAND_REGISTER, OPERAND_REGISTER},
			[]slot{slotX, slotY},
			0x8000,
		},
		{
			[]OperandType{OPERAND_INDEX, OPERAND_VALUE},
			[]slot{slotFixed, slotAddress},
			0xA000,
		},
		{
			[]OperandType{OPERAND_REGISTER, OPERAND_DELAY},
			[]slot{slotX, slotFixed},
			0xF007,
		},
		{
			[]OperandType{OPERAND_REGISTER, OPERAND_KEY},
			[]slot{slotX, slotFixed},
			0xF00A,
		},
		{
			[]OperandType{OPERAND_DELAY, OPERAND_REGISTER},
			[]slot{slotFixed, slotX},
			0xF015,
		},
		{
			[]OperandType{OPERAND_SOUND, OPERAND_REGISTER},
			[]slot{slotFixed, slotX},
			0xF018,
		},
		{
			[]OperandType{OPERAND_FONT, OPERAND_REGISTER},
			[]slot{slotFixed, slotX},
			0xF029,
		},
		{
			[]OperandType{OPERAND_BCD, OPERAND_REGISTER},
			[]slot{slotFixed, slotX},
			0xF033,
		},
		{
			[]OperandType{OPERAND_INDIRECT, OPERAND_REGISTER},
			[]slot{slotFixed, slotX},
			0xF055,
		},
		{
			[]OperandType{OPERAND_REGISTER, OPERAND_INDIRECT},
			[]slot{slotX, slotFixed},
			0xF065,
		},
	},
	"ADD": {
		{
			[]OperandType{OPERAND_REGISTER, OPERAND_VALUE},
			[]slot{slotX, slotByte},
			0x7000,
		},
		{
			[]OperandType{OPERAND_REGISTER, OPERAND_REGISTER},
			[]slot{slotX, slotY},
			0x8004,
		},
		{
			[]OperandType{OPERAND_INDEX, OPERAND_REGISTER},
			[]slot{slotFixed, slotX},
			0xF01E,
		},
	},
	"OR":   registerPair(0x8001),
	"AND":  registerPair(0x8002),
	"XOR":  registerPair(0x8003),
	"SUB":  registerPair(0x8005),
	"SHR":  shift(0x8006),
	"SUBN": registerPair(0x8007),
	"SHL":  shift(0x800E),
	"RND": {
		{
			[]OperandType{OPERAND_REGISTER, OPERAND_VALUE},
			[]slot{slotX, slotByte},
			0xC000,
		},
	},
	"DRW": {
		{
			[]OperandType{OPERAND_REGISTER, OPERAND_REGISTER, OPERAND_VALUE},
			[]slot{slotX, slotY, slotNibble},
			0xD000,
		},
	},
	"SKP": {
		{[]OperandType{OPERAND_REGISTER}, []slot{slotX}, 0xE09E},
	},
	"SKNP": {
		{[]OperandType{OPERAND_REGISTER}, []slot{slotX}, 0xE0A1},
	},
}

var keywords = map[string]OperandType{
	"I":   OPERAND_INDEX,
	"[I]": OPERAND_INDIRECT,
	"DT":  OPERAND_DELAY,
	"ST":  OPERAND_SOUND,
	"K":   OPERAND_KEY,
	"F":   OPERAND_FONT,
	"B":   OPERAND_BCD,
}

func parseDirective(ident string) DirectiveType {
	// The bare forms match what the disassembler prints for data
	switch strings.ToUpper(ident) {
	case ".DB", "DB":
		return DIRECTIVE_DB
	case ".DW", "DW":
		return DIRECTIVE_DW
	case ".TEXT":
		return DIRECTIVE_TEXT
	case ".END":
		return DIRECTIVE_END
	}

	return DIRECTIVE_INVALID
}

func parseInstruction(ident string) ([]form, bool) {
	forms, ok := instructions[strings.ToUpper(ident)]
	return forms, ok
}

func parseLiteral(token *Token, bits LiteralType) (uint16, error) {
	result, err := encoding.DecodeLiteral(token.Value)

	if err != nil {
		return 0, &InvalidLiteralError{token.Position}
	}

	if !encoding.FitsBits(result, uint16(bits)) {
		limit := uint16(1<<bits - 1)
		return 0, &OversizedLiteralError{token.Position, limit, result}
	}

	return result, nil
}

// Registers are V followed by a single hex digit. Anything else that starts
// with V and a digit is a malformed register rather than a label.
func parseRegister(token *Token) (uint8, bool, error) {
	ident := token.Value

	if len(ident) < 2 || (ident[0] != 'V' && ident[0] != 'v') {
		return 0, false, nil
	}

	if len(ident) == 2 {
		if value, err := strconv.ParseUint(ident[1:], 16, 4); err == nil {
			return uint8(value), true, nil
		}
	}

	if unicode.IsDigit(rune(ident[1])) {
		return 0, false, &InvalidRegisterError{token.Position}
	}

	return 0, false, nil
}

func parseOperand(token *Token) (operand, error) {
	op := operand{Token: token}

	switch token.Type {
	case TOKEN_LITERAL:
		value, err := encoding.DecodeLiteral(token.Value)

		if err != nil {
			return op, &InvalidLiteralError{token.Position}
		}

		op.Type = OPERAND_VALUE
		op.Value = value

	case TOKEN_STRING:
		op.Type = OPERAND_STRING

	case TOKEN_IDENT:
		if keyword, ok := keywords[strings.ToUpper(token.Value)]; ok {
			op.Type = keyword
			break
		}

		register, ok, err := parseRegister(token)

		if err != nil {
			return op, err
		}

		if ok {
			op.Type = OPERAND_REGISTER
			op.Register = register
			break
		}

		op.Type = OPERAND_VALUE
		op.Label = token.Value

	default:
		return op, &UnexpectedCharacterError{
			token.Position, rune(token.Value[0]),
		}
	}

	return op, nil
}

func matches(want OperandType, have *operand) bool {
	if want == OPERAND_V0 {
		return have.Type == OPERAND_REGISTER && have.Register == 0
	}

	return want == have.Type
}

// selectForm picks the encoding whose operand types match. The error names
// the first operand no form accepts.
func selectForm(keyword *Token, forms []form, operands []operand) (*form, error) {
	var candidates []*form

	for i := range forms {
		if len(forms[i].Operands) == len(operands) {
			candidates = append(candidates, &forms[i])
		}
	}

	if len(candidates) == 0 {
		return nil, &InvalidNumArgumentsError{
			keyword.Position, len(forms[0].Operands), len(operands),
		}
	}

	for position := range operands {
		var required []OperandType
		var remaining []*form

		for _, candidate := range candidates {
			want := candidate.Operands[position]

			if matches(want, &operands[position]) {
				remaining = append(remaining, candidate)
			} else {
				required = append(required, want)
			}
		}

		if len(remaining) == 0 {
			return nil, &InvalidOperandError{
				operands[position].Token.Position,
				required,
				operands[position].Type,
			}
		}

		candidates = remaining
	}

	return candidates[0], nil
}

func tokenize(line string, cursor Cursor) ([]Token, []error) {
	var tokens []Token
	var errs []error
	var builder strings.Builder
	var tokenType = TOKEN_NONE
	var tokenStart int

	flush := func() {
		if builder.Len() > 0 {
			tokens = append(tokens, Token{
				Type:  tokenType,
				Value: builder.String(),
				Position: Cursor{
					Line:     cursor.Line,
					Column:   tokenStart,
					Byte:     cursor.LineByte + int64(tokenStart-1),
					Size:     int64(builder.Len()),
					LineByte: cursor.LineByte,
				},
			})
			builder.Reset()
		}

		tokenType = TOKEN_NONE
	}

scan:
	for column, char := range line {
		cursor.Column = column + 1

		if tokenType == TOKEN_STRING {
			builder.WriteRune(char)

			if char == '"' && !strings.HasSuffix(builder.String(), `\"`) {
				flush()
			}

			continue
		}

		if tokenType == TOKEN_NONE {
			tokenStart = cursor.Column
		}

		switch {
		// Whitespace and operand separators
		case unicode.IsSpace(char), char == ',':
			flush()
			continue

		// Comments
		case char == ';':
			break scan

		// String Literal
		case char == '"':
			if tokenType != TOKEN_NONE {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
			}

			tokenType = TOKEN_STRING

		case char > unicode.MaxASCII:
			errs = append(errs, &OversizedCharacterError{cursor})

		// Assembler Directives, or zero pixels inside a binary literal
		case char == '.':
			if tokenType == TOKEN_NONE {
				tokenType = TOKEN_DIRECTIVE
			} else if tokenType != TOKEN_LITERAL {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
			}

		// Hex and binary literals (i.e. $2A, %0110)
		case char == '$' || char == '%':
			if tokenType == TOKEN_NONE {
				tokenType = TOKEN_LITERAL
			} else {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
			}

		// Base 10 literal (i.e. #42), or set pixels inside a binary literal
		case char == '#':
			if tokenType == TOKEN_NONE {
				tokenType = TOKEN_LITERAL
			} else if tokenType != TOKEN_LITERAL {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
			}

		// Numeric Literal
		case unicode.IsDigit(char):
			if tokenType == TOKEN_NONE {
				tokenType = TOKEN_LITERAL
			}

		// Label declaration
		case char == ':':
			if tokenType != TOKEN_IDENT {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
			}

			builder.WriteRune(char)
			flush()
			continue

		// Identifier, including [I]
		case unicode.IsLetter(char), char == '_', char == '[', char == ']':
			if tokenType == TOKEN_NONE {
				tokenType = TOKEN_IDENT
			} else if tokenType == TOKEN_LITERAL && !unicode.IsLetter(char) {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
			}

		default:
			errs = append(errs, &UnexpectedCharacterError{cursor, char})
		}

		builder.WriteRune(char)
	}

	if tokenType == TOKEN_STRING {
		errs = append(errs, &InvalidStringError{cursor})
	}

	flush()
	return tokens, errs
}

// Assemble translates CHIP-8 assembly into a ROM image that loads at the
// start of program memory. When symtable is non-nil its maps receive the
// source offset of every emitting line and the address of every label.
func Assemble(input io.ReadSeeker, symtable *SymTable) (result []byte, errs []error) {
	type LabelRef struct {
		Label    string
		Addr     uint16
		Slot     slot
		Word     bool
		Position Cursor
	}

	var labels = make(map[string]uint16)
	var labelRefs []LabelRef

	var memory [machine.MEMORY_SIZE]byte
	var program = int(machine.MEMSPACE_PROGRAM)
	var end = program

	var scanner = bufio.NewScanner(input)
	var cursor = Cursor{Line: 1}

	errs = make([]error, 0)

	oversized := func() []byte {
		errs = append(errs, &OversizedBinaryError{machine.PROGRAM_SIZE})
		return nil
	}

	emit := func(value byte) bool {
		if program >= machine.MEMORY_SIZE {
			return false
		}

		memory[program] = value
		program++

		if program > end {
			end = program
		}

		return true
	}

	emitWord := func(value uint16) bool {
		hi, lo := encoding.SplitWord(value)
		return emit(hi) && emit(lo)
	}

	advance := func(line string) {
		cursor.Line++
		cursor.Byte += int64(len(line) + 1)
		cursor.LineByte += int64(len(line) + 1)
	}

	for scanner.Scan() {
		line := scanner.Text()
		cursor.Size = int64(len(line))

		tokens, lineErrs := tokenize(line, cursor)

		// Pass any potential assembler errors if we already had parser errors
		if len(lineErrs) > 0 {
			errs = append(errs, lineErrs...)
			advance(line)
			continue
		}

		if len(tokens) == 0 {
			advance(line)
			continue
		}

		// A line is [label[:]] [keyword operands...]
		var label *Token = nil
		var keyword *Token = nil
		var operands []Token
		var forms []form
		var directive DirectiveType

		for i := 0; i < len(tokens) && i < 2 && keyword == nil; i++ {
			var ok bool

			if forms, ok = parseInstruction(tokens[i].Value); ok {
				keyword = &tokens[i]
			} else if directive = parseDirective(tokens[i].Value); directive != DIRECTIVE_INVALID {
				keyword = &tokens[i]
			} else if i == 0 && tokens[0].Type == TOKEN_IDENT {
				label = &tokens[0]
			} else {
				break
			}

			operands = tokens[i+1:]
		}

		if label != nil {
			name := strings.TrimSuffix(label.Value, ":")

			if _, exists := labels[name]; !exists {
				labels[name] = uint16(program)
			} else {
				errs = append(
					errs, &RedeclaredLabelError{label.Position, name},
				)
			}

			// No need to assemble label-only statements
			if len(tokens) == 1 {
				advance(line)
				continue
			}
		}

		if keyword == nil {
			unknown := &tokens[0]

			if label != nil {
				unknown = &tokens[1]
			}

			errs = append(
				errs, &UnknownIdentifierError{unknown.Position, unknown.Value},
			)

			advance(line)
			continue
		}

		if directive == DIRECTIVE_END {
			if count := len(operands); count != 0 {
				errs = append(
					errs, &InvalidNumArgumentsError{keyword.Position, 0, count},
				)
			}

			break
		}

		start := program
		ok := true

		switch directive {
		// .DB $FF, %#..#...., "text"
		case DIRECTIVE_DB:
			if len(operands) == 0 {
				errs = append(
					errs, &InvalidNumArgumentsError{keyword.Position, 1, 0},
				)

				break
			}

			for i := range operands {
				token := &operands[i]

				switch token.Type {
				case TOKEN_LITERAL:
					value, err := parseLiteral(token, LITERAL_BYTE)

					if err != nil {
						errs = append(errs, err)
					}

					ok = ok && emit(byte(value))

				case TOKEN_STRING:
					s, err := strconv.Unquote(token.Value)

					if err != nil {
						errs = append(errs, &InvalidStringError{token.Position})
					}

					for j := 0; j < len(s); j++ {
						ok = ok && emit(s[j])
					}

				case TOKEN_IDENT:
					labelRefs = append(labelRefs, LabelRef{
						token.Value, uint16(program), slotByte, false,
						token.Position,
					})

					ok = ok && emit(0)

				default:
					errs = append(
						errs,
						&InvalidOperandError{
							token.Position,
							[]OperandType{OPERAND_VALUE, OPERAND_STRING},
							OPERAND_NONE,
						},
					)
				}
			}

		// .DW $1234, label
		case DIRECTIVE_DW:
			if len(operands) == 0 {
				errs = append(
					errs, &InvalidNumArgumentsError{keyword.Position, 1, 0},
				)

				break
			}

			for i := range operands {
				token := &operands[i]

				switch token.Type {
				case TOKEN_LITERAL:
					value, err := parseLiteral(token, LITERAL_WORD)

					if err != nil {
						errs = append(errs, err)
					}

					ok = ok && emitWord(value)

				case TOKEN_IDENT:
					labelRefs = append(labelRefs, LabelRef{
						token.Value, uint16(program),
						slot{0, LITERAL_WORD}, true,
						token.Position,
					})

					ok = ok && emitWord(0)

				default:
					errs = append(
						errs,
						&InvalidOperandError{
							token.Position,
							[]OperandType{OPERAND_VALUE},
							OPERAND_STRING,
						},
					)
				}
			}

		// .TEXT "..."
		case DIRECTIVE_TEXT:
			if count := len(operands); count != 1 {
				errs = append(
					errs, &InvalidNumArgumentsError{keyword.Position, 1, count},
				)

				break
			}

			if operands[0].Type != TOKEN_STRING {
				errs = append(
					errs,
					&InvalidOperandError{
						operands[0].Position,
						[]OperandType{OPERAND_STRING},
						OPERAND_VALUE,
					},
				)

				break
			}

			s, err := strconv.Unquote(operands[0].Value)

			if err != nil {
				errs = append(errs, &InvalidStringError{operands[0].Position})
			}

			for j := 0; j < len(s); j++ {
				ok = ok && emit(s[j])
			}
		}

		if forms != nil {
			parsed := make([]operand, 0, len(operands))
			valid := true

			for i := range operands {
				op, err := parseOperand(&operands[i])

				if err != nil {
					errs = append(errs, err)
					valid = false
				}

				parsed = append(parsed, op)
			}

			var selected *form

			if valid {
				var err error

				if selected, err = selectForm(keyword, forms, parsed); err != nil {
					errs = append(errs, err)
				}
			}

			scratch := uint16(0)

			if selected != nil {
				scratch = selected.Base

				for i, op := range parsed {
					field := selected.Slots[i]

					if field.Size == 0 {
						continue
					}

					var value uint16

					switch {
					case op.Type == OPERAND_REGISTER:
						value = uint16(op.Register)
					case op.Label != "":
						labelRefs = append(labelRefs, LabelRef{
							op.Label, uint16(program), field, true,
							op.Token.Position,
						})
					default:
						var err error
						if value, err = parseLiteral(op.Token, field.Size); err != nil {
							errs = append(errs, err)
						}
					}

					scratch |= value << field.Shift
				}
			}

			ok = emitWord(scratch)
		}

		if !ok {
			return oversized(), errs
		}

		if symtable != nil && program > start {
			symtable.Symbols[uint16(start)] = cursor.LineByte
		}

		advance(line)
	}

	// Label
	// - Validate and resolve label references
	// - Add labels to symbol table
	for _, ref := range labelRefs {
		addr, exists := labels[ref.Label]

		if !exists {
			errs = append(errs, &UnknownLabelError{ref.Position, ref.Label})
			continue
		}

		if !encoding.FitsBits(addr, uint16(ref.Slot.Size)) {
			limit := uint16(1<<ref.Slot.Size - 1)
			errs = append(errs, &OversizedLabelError{ref.Position, limit, addr})
			continue
		}

		if !ref.Word {
			memory[ref.Addr] = byte(addr)
			continue
		}

		scratch := encoding.Word(memory[ref.Addr], memory[ref.Addr+1])
		scratch |= addr << ref.Slot.Shift
		memory[ref.Addr], memory[ref.Addr+1] = encoding.SplitWord(scratch)
	}

	if symtable != nil {
		for label, addr := range labels {
			symtable.Labels[addr] = label
		}
	}

	result = make([]byte, end-int(machine.MEMSPACE_PROGRAM))
	copy(result, memory[machine.MEMSPACE_PROGRAM:end])
	return
}
