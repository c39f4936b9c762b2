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
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/lassandro/gochip8/pkg/assembler"
	"github.com/lassandro/gochip8/pkg/beeper"
	"github.com/lassandro/gochip8/pkg/debugger"
	"github.com/lassandro/gochip8/pkg/machine"
	"github.com/lassandro/gochip8/pkg/runner"
	"github.com/lassandro/gochip8/pkg/script"
	"github.com/lassandro/gochip8/pkg/terminal"
	"github.com/lassandro/gochip8/pkg/window"
)

var helpvar bool
var debugvar bool
var verbosevar bool
var termvar bool
var headlessvar bool
var wrapvar bool
var hzvar int
var stepsvar int
var scalevar int
var seedvar int64
var holdvar time.Duration
var wavvar string
var scriptvar string

const usage = "gochip8 [flags] filename"

func init() {
	exe, _ := os.Executable()
	log.SetFlags(0)
	log.SetPrefix(fmt.Sprintf("%s: ", filepath.Base(exe)))
	log.SetOutput(os.Stderr)
}

func init() {
	flag.BoolVar(&helpvar, "help", false, "Displays command usage")
	flag.BoolVar(&debugvar, "debug", false, "Runs the machine in a debug CLI")
	flag.BoolVar(&verbosevar, "verbose", false, "Logs the machine state on every redraw")
	flag.BoolVar(&termvar, "term", false, "Renders to the terminal instead of a window")
	flag.BoolVar(&headlessvar, "headless", false, "Runs without display or audio and prints the final screen")
	flag.BoolVar(&wrapvar, "wrap", false, "Wraps sprites around the screen edges instead of clipping")
	flag.IntVar(&hzvar, "hz", machine.DEFAULT_CPU_HZ, "Instructions executed per second")
	flag.IntVar(&stepsvar, "steps", 0, "Instructions to run when headless, 0 runs until interrupted")
	flag.IntVar(&scalevar, "scale", window.DEFAULT_SCALE, "Window pixels per display pixel")
	flag.Int64Var(&seedvar, "seed", 0, "Random seed, 0 picks one from the clock")
	flag.DurationVar(&holdvar, "hold", terminal.DEFAULT_HOLD, "How long a terminal keystroke stays pressed")
	flag.StringVar(&wavvar, "wav", "", "Records the tone to a wav file")
	flag.StringVar(&scriptvar, "script", "", "Drives the machine with a Lua script instead of a frontend")
	flag.Parse()
}

func loadDebugger(rom string) *debugger.Debugger {
	dbg := &debugger.Debugger{
		Break:       true,
		HandleBreak: handleBreak,
		HandleRead:  handleRead,
		HandleWrite: handleWrite,
	}

	file, err := os.Open(assembler.SymTablePath(rom))

	if err != nil {
		log.Println("Error loading symbol file")
		log.Println(err)
		return dbg
	}

	defer file.Close()

	if dbg.SymTable, err = assembler.DecodeSymTable(file); err != nil {
		log.Println("Error loading symbol file")
		log.Println(err)
		return dbg
	}

	if dbg.SymTable.Source != "" {
		if source, err := os.Open(dbg.SymTable.Source); err == nil {
			dbg.Source = source
		} else {
			log.Println("Error loading source file")
			log.Println(err)
		}
	}

	return dbg
}

// loadAudio returns nil when there is nothing to play or record.
func loadAudio() (*beeper.Beeper, func(), error) {
	var sinks []beeper.Sink
	var closers []func()

	if !headlessvar {
		if output, err := beeper.NewOutput(beeper.DEFAULT_SAMPLE_RATE); err == nil {
			sinks = append(sinks, output)
		} else {
			log.Println("Audio unavailable")
			log.Println(err)
		}
	}

	if wavvar != "" {
		file, err := os.Create(wavvar)

		if err != nil {
			return nil, nil, err
		}

		sinks = append(sinks, beeper.NewRecorder(file, beeper.DEFAULT_SAMPLE_RATE))
		closers = append(closers, func() { file.Close() })
	}

	if len(sinks) == 0 {
		return nil, func() {}, nil
	}

	bp := beeper.New(beeper.DEFAULT_HOLD, sinks...)

	return bp, func() {
		if err := bp.Close(); err != nil {
			log.Println(err)
		}

		for _, closer := range closers {
			closer()
		}
	}, nil
}

func gochip8() int {
	if helpvar {
		fmt.Println(usage)
		flag.PrintDefaults()
		return 0
	}

	args := flag.Args()

	if len(args) != 1 {
		log.Println(usage)
		return 1
	}

	if debugvar && termvar {
		log.Println("-debug and -term both need the terminal")
		return 1
	}

	file, err := os.Open(args[0])

	if err != nil {
		log.Println(err)
		return 1
	}

	defer file.Close()

	mc := machine.New(machine.Config{
		CPUHz:  hzvar,
		Seed:   seedvar,
		Quirks: machine.Quirks{WrapSprites: wrapvar},
	})

	if err := mc.LoadBin(file); err != nil {
		log.Println(err)
		return 1
	}

	if scriptvar != "" {
		if err := script.RunFile(mc, scriptvar, script.Options{Logger: log.Default()}); err != nil {
			log.Println(err)
			return 1
		}

		return 0
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := &runner.Runner{
		Machine: mc,
		Hz:      hzvar,
		Logger:  log.Default(),
		Verbose: verbosevar,
	}

	// Keys pressed from the debugger stay down on top of the frontend's
	withHeld := func(input runner.Input) runner.Input {
		return input
	}

	if debugvar {
		dbg := loadDebugger(args[0])
		mc.Debugger = dbg
		stopRun = cancel

		withHeld = func(input runner.Input) runner.Input {
			heldKeys = &runner.HeldKeys{Input: input}
			return heldKeys
		}

		if closer, ok := dbg.Source.(*os.File); ok {
			defer closer.Close()
		}

		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt)
		defer signal.Stop(c)

		go func() {
			for range c {
				fmt.Println()
				dbg.Break = true
			}
		}()
	} else {
		ctx, cancel = signal.NotifyContext(ctx, os.Interrupt)
		defer cancel()
	}

	bp, closeAudio, err := loadAudio()

	if err != nil {
		log.Println(err)
		return 1
	}

	defer closeAudio()

	if bp != nil {
		r.Audio = bp
	}

	switch {
	case headlessvar:
		r.Input = withHeld(nil)
		err = r.RunSteps(ctx, stepsvar)

		frame := mc.Snapshot()
		fmt.Print(frame.String())
		fmt.Printf("digest: %s cycles: %d\n", frame.Digest(), mc.Cycles())

	case termvar:
		var term *terminal.Terminal

		if term, err = terminal.Open(os.Stdin, os.Stdout, holdvar, cancel); err != nil {
			log.Println(err)
			return 1
		}

		r.Input = withHeld(term)
		r.Display = term
		err = r.Run(ctx)

		if closeErr := term.Close(); closeErr != nil {
			log.Println(closeErr)
		}

	default:
		win := window.New(ctx, cancel)
		win.Scale = scalevar
		win.Title = filepath.Base(args[0])

		r.Input = withHeld(win)
		r.Display = win

		result := make(chan error, 1)

		go func() {
			result <- r.Run(ctx)
			cancel()
		}()

		if winErr := win.Run(); winErr != nil {
			log.Println(winErr)
		}

		cancel()
		err = <-result
	}

	if err != nil {
		var fault machine.Fault

		if errors.As(err, &fault) && verbosevar {
			log.Print(mc.State.String())
		}

		log.Println(err)
		return 1
	}

	return 0
}

func main() {
	os.Exit(gochip8())
}
