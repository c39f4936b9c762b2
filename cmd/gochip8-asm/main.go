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

package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/lassandro/gochip8/pkg/assembler"
)

var helpvar bool
var debugvar bool
var outvar string

const usage = "gochip8-asm [-debug] [-out outfile] filename"

func init() {
	log.SetFlags(0)
	log.SetOutput(os.Stderr)
}

func init() {
	flag.BoolVar(&helpvar, "help", false, "Displays command usage")
	flag.BoolVar(
		&debugvar, "debug", false,
		"Specifies whether to generate debugging information as a symbol "+
			"table. The table will use the output filename with extension "+
			"'"+assembler.SYMTABLE_EXT+"'",
	)
	flag.StringVar(
		&outvar, "out", "",
		"Specifies a precise name for the output file, "+
			"overriding the default means of determining it",
	)
	flag.Parse()
}

// underline prints the source line of a token error with the token marked.
func underline(input io.ReadSeeker, err error) {
	var tokenErr assembler.TokenError

	if !errors.As(err, &tokenErr) {
		log.Println(err)
		return
	}

	cursor := tokenErr.GetPosition()

	if _, seekErr := input.Seek(cursor.LineByte, io.SeekStart); seekErr != nil {
		log.Println(err)
		return
	}

	line, _ := bufio.NewReader(input).ReadString('\n')
	line = strings.TrimRight(line, "\r\n")

	size := int(cursor.Size)
	if size < 1 {
		size = 1
	}

	marker := strings.Repeat(" ", int(cursor.Byte-cursor.LineByte)) +
		"^" + strings.Repeat("~", size-1)

	log.Printf("%s\n%s\n\033[31m%s\033[0m", err, line, marker)
}

func gochip8_asm() int {
	if helpvar {
		fmt.Println(usage)
		flag.PrintDefaults()
		return 0
	}

	args := flag.Args()

	var infile string
	var input io.ReadSeeker

	if stat, _ := os.Stdin.Stat(); len(args) == 0 && stat.Mode()&os.ModeCharDevice == 0 {
		input = os.Stdin
		log.SetPrefix("\033[1m<stdin>:\033[0m ")

		if outvar == "" {
			outvar = "out.ch8"
		}
	} else {
		if len(args) != 1 {
			log.Println(usage)
			return 1
		}

		file, err := os.Open(args[0])

		if err != nil {
			log.Println(err)
			return 1
		}

		defer file.Close()

		filename := filepath.Base(file.Name())

		if stat, err := file.Stat(); err != nil {
			log.Println(err)
			return 1
		} else if stat.IsDir() {
			log.Printf("%s is not a valid CHIP-8 assembly file", filename)
			return 1
		}

		input = file
		infile = file.Name()
		log.SetPrefix(fmt.Sprintf("\033[1m%s:\033[0m ", filename))

		if outvar == "" {
			outvar = strings.TrimSuffix(infile, filepath.Ext(infile)) + ".ch8"
		}
	}

	var symtable *assembler.SymTable

	if debugvar {
		source := ""

		if infile != "" {
			var err error
			if source, err = filepath.Abs(infile); err != nil {
				log.Println(err)
				source = ""
			}
		}

		symtable = assembler.NewSymTable(source)
	}

	result, errs := assembler.Assemble(input, symtable)

	if len(errs) > 0 {
		for _, err := range errs {
			if input == os.Stdin {
				log.Println(err)
			} else {
				underline(input, err)
			}
		}

		return 1
	}

	if err := os.WriteFile(outvar, result, 0666); err != nil {
		log.Println("Error writing output file")
		log.Println(err)
		return 1
	}

	if debugvar {
		file, err := os.Create(assembler.SymTablePath(outvar))

		if err != nil {
			log.Println("Error writing symbol table")
			log.Println(err)
			return 1
		}

		defer file.Close()

		if err := symtable.Encode(file); err != nil {
			log.Println("Error writing symbol table")
			log.Println(err)
			return 1
		}
	}

	return 0
}

func main() {
	os.Exit(gochip8_asm())
}
