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

package runner

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/lassandro/gochip8/pkg/machine"
)

const FRAME_RATE = 60

type Input interface {
	Keys() [machine.KEYPAD_SIZE]bool
}

type Display interface {
	Draw(frame machine.Frame)
}

type Audio interface {
	SetBeep(enable bool)
}

// Audio outputs that render by emulated time, such as a wav recorder, also
// implement Advance and are handed the frame duration after each frame.
type advancer interface {
	Advance(d time.Duration) error
}

// Runner is the host loop around a machine. The machine is only touched
// from the goroutine calling Run or RunSteps; collaborators exchange key
// arrays and frame values. Nil collaborators are skipped.
type Runner struct {
	Machine *machine.Machine

	Input   Input
	Display Display
	Audio   Audio

	// Steps per second, defaults to Machine.Config.CPUHz
	Hz int

	Logger  *log.Logger
	Verbose bool
}

func (r *Runner) hz() int {
	if r.Hz > 0 {
		return r.Hz
	}

	if r.Machine.Config.CPUHz > 0 {
		return r.Machine.Config.CPUHz
	}

	return machine.DEFAULT_CPU_HZ
}

func (r *Runner) step() error {
	mc := r.Machine

	if r.Input != nil {
		mc.SetKeys(r.Input.Keys())
	}

	if err := mc.Step(); err != nil {
		return fmt.Errorf("cycle %d: %w", mc.Cycles(), err)
	}

	if frame, redraw := mc.ConsumeFrame(); redraw {
		if r.Display != nil {
			r.Display.Draw(frame)
		}

		if r.Verbose && r.Logger != nil {
			r.Logger.Print(mc.State.String())
		}
	}

	if r.Audio != nil {
		r.Audio.SetBeep(mc.SoundRequested())
	}

	return nil
}

// Run steps the machine in 60 Hz frames until ctx is done or the machine
// faults. Cancellation is not an error.
func (r *Runner) Run(ctx context.Context) error {
	period := time.Second / FRAME_RATE

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	hz := r.hz()
	carry := 0

	if r.Logger != nil {
		r.Logger.Printf("running at %d Hz", hz)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		total := hz + carry
		steps := total / FRAME_RATE
		carry = total % FRAME_RATE

		for i := 0; i < steps; i++ {
			if err := r.step(); err != nil {
				return err
			}
		}

		if adv, ok := r.Audio.(advancer); ok {
			if err := adv.Advance(period); err != nil {
				return err
			}
		}
	}
}

// RunSteps executes count steps as fast as possible. A count of zero or less
// runs until ctx is done or the machine faults.
func (r *Runner) RunSteps(ctx context.Context, count int) error {
	hz := r.hz()
	adv, _ := r.Audio.(advancer)

	for i := 0; count <= 0 || i < count; i++ {
		if err := ctx.Err(); err != nil {
			return nil
		}

		if err := r.step(); err != nil {
			return err
		}

		if adv != nil {
			if err := adv.Advance(time.Second / time.Duration(hz)); err != nil {
				return err
			}
		}
	}

	return nil
}
