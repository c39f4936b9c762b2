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

package terminal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"github.com/lassandro/gochip8/pkg/machine"
)

const pollTimeout = 50 // ms

// Terminal is an ANSI frontend on a raw mode tty. It implements the runner
// Display and Input interfaces.
type Terminal struct {
	fd     int
	out    io.Writer
	cancel context.CancelFunc
	state  *term.State

	mutex sync.Mutex
	latch Latch

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// Open puts in into raw mode and starts reading keys from it. A quit key
// calls cancel. Close must be called to restore the terminal.
func Open(in *os.File, out io.Writer, hold time.Duration, cancel context.CancelFunc) (*Terminal, error) {
	fd := int(in.Fd())

	if !term.IsTerminal(fd) {
		return nil, errors.New("stdin is not a terminal")
	}

	width, height, err := term.GetSize(fd)

	if err != nil {
		return nil, err
	}

	if width < machine.DISPLAY_WIDTH || height < machine.DISPLAY_HEIGHT/2 {
		return nil, fmt.Errorf(
			"terminal is %dx%d, need at least %dx%d",
			width,
			height,
			machine.DISPLAY_WIDTH,
			machine.DISPLAY_HEIGHT/2,
		)
	}

	state, err := term.MakeRaw(fd)

	if err != nil {
		return nil, err
	}

	t := newTerminal(fd, out, hold, cancel)
	t.state = state

	// Clear and hide the cursor
	fmt.Fprint(out, "\033[2J\033[?25l")

	go t.read()
	return t, nil
}

func newTerminal(fd int, out io.Writer, hold time.Duration, cancel context.CancelFunc) *Terminal {
	return &Terminal{
		fd:     fd,
		out:    out,
		cancel: cancel,
		latch:  Latch{Hold: hold},
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func (t *Terminal) read() {
	defer close(t.done)

	buf := make([]byte, 32)
	fds := []unix.PollFd{{Fd: int32(t.fd), Events: unix.POLLIN}}

	for {
		select {
		case <-t.stop:
			return
		default:
		}

		n, err := unix.Poll(fds, pollTimeout)

		if err == unix.EINTR || n == 0 {
			continue
		}

		if err != nil {
			t.cancel()
			return
		}

		count, err := unix.Read(t.fd, buf)

		if err == unix.EINTR {
			continue
		}

		// Hangup or end of input
		if err != nil || count == 0 {
			t.cancel()
			return
		}

		keys, quit := Decode(buf[:count])

		if quit {
			t.cancel()
			continue
		}

		now := time.Now()

		t.mutex.Lock()
		for _, key := range keys {
			t.latch.Press(key, now)
		}
		t.mutex.Unlock()
	}
}

func (t *Terminal) Keys() [machine.KEYPAD_SIZE]bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.latch.Keys(time.Now())
}

func (t *Terminal) Draw(frame machine.Frame) {
	fmt.Fprint(t.out, "\033[H", Render(&frame))
}

// Close stops the reader and restores the terminal state.
func (t *Terminal) Close() error {
	var err error

	t.once.Do(func() {
		close(t.stop)
		<-t.done

		fmt.Fprint(t.out, "\033[?25h\r\n")

		if t.state != nil {
			err = term.Restore(t.fd, t.state)
		}
	})

	return err
}
