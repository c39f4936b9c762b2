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

package beeper

import (
	"errors"
	"io"
	"time"
)

const DEFAULT_HOLD = 250 * time.Millisecond

// Sink is a tone output that can be switched on and off.
type Sink interface {
	Resume()
	Pause()
}

// Renderer is a sink that produces its samples as emulated time passes
// rather than from a device clock.
type Renderer interface {
	Advance(d time.Duration) error
}

// Beeper turns the machine's edge-triggered sound request into an audible
// tone lasting at least Hold. Time is emulated time, as reported by Advance.
type Beeper struct {
	Hold time.Duration

	sinks   []Sink
	playing bool
	elapsed time.Duration
	start   time.Duration
}

func New(hold time.Duration, sinks ...Sink) *Beeper {
	return &Beeper{Hold: hold, sinks: sinks}
}

// SetBeep restarts the hold window when enable is set. Otherwise the sinks
// are paused once the window has elapsed.
func (b *Beeper) SetBeep(enable bool) {
	if enable {
		b.start = b.elapsed

		if !b.playing {
			for _, sink := range b.sinks {
				sink.Resume()
			}

			b.playing = true
		}

		return
	}

	if b.playing && b.elapsed-b.start >= b.Hold {
		for _, sink := range b.sinks {
			sink.Pause()
		}

		b.playing = false
	}
}

func (b *Beeper) Playing() bool {
	return b.playing
}

// Advance moves emulated time forward and hands d to every Renderer.
func (b *Beeper) Advance(d time.Duration) error {
	var errs []error

	b.elapsed += d

	for _, sink := range b.sinks {
		if renderer, ok := sink.(Renderer); ok {
			if err := renderer.Advance(d); err != nil {
				errs = append(errs, err)
			}
		}
	}

	return errors.Join(errs...)
}

// Close pauses and closes every sink that supports it.
func (b *Beeper) Close() error {
	var errs []error

	for _, sink := range b.sinks {
		sink.Pause()

		if closer, ok := sink.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}

	b.playing = false
	return errors.Join(errs...)
}
