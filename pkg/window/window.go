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

package window

import (
	"context"
	"image/color"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/lassandro/gochip8/pkg/keypad"
	"github.com/lassandro/gochip8/pkg/machine"
)

const DEFAULT_SCALE = 10

var (
	DEFAULT_LIT   = color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}
	DEFAULT_UNLIT = color.RGBA{0x00, 0x00, 0x00, 0xFF}
)

// Indexed like keypad.Layout
var layoutKeys = [len(keypad.Layout)]ebiten.Key{
	ebiten.Key1, ebiten.Key2, ebiten.Key3, ebiten.Key4,
	ebiten.KeyQ, ebiten.KeyW, ebiten.KeyE, ebiten.KeyR,
	ebiten.KeyA, ebiten.KeyS, ebiten.KeyD, ebiten.KeyF,
	ebiten.KeyZ, ebiten.KeyX, ebiten.KeyC, ebiten.KeyV,
}

// Window is an ebiten frontend. It implements the runner Display and Input
// interfaces; both are safe to call from the runner goroutine while Run
// owns the main thread.
type Window struct {
	Title string
	Scale int
	Lit   color.RGBA
	Unlit color.RGBA

	ctx    context.Context
	cancel context.CancelFunc

	mutex sync.Mutex
	frame machine.Frame
	keys  [machine.KEYPAD_SIZE]bool
}

// New returns a window whose Run ends when ctx is done. Closing the window
// or pressing Escape calls cancel.
func New(ctx context.Context, cancel context.CancelFunc) *Window {
	return &Window{
		Title:  "gochip8",
		Scale:  DEFAULT_SCALE,
		Lit:    DEFAULT_LIT,
		Unlit:  DEFAULT_UNLIT,
		ctx:    ctx,
		cancel: cancel,
	}
}

func (w *Window) Draw(frame machine.Frame) {
	w.mutex.Lock()
	w.frame = frame
	w.mutex.Unlock()
}

func (w *Window) Keys() [machine.KEYPAD_SIZE]bool {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.keys
}

// Run blocks on the ebiten event loop and must be called from the main
// goroutine.
func (w *Window) Run() error {
	ebiten.SetWindowSize(
		machine.DISPLAY_WIDTH*w.Scale,
		machine.DISPLAY_HEIGHT*w.Scale,
	)
	ebiten.SetWindowTitle(w.Title)
	ebiten.SetWindowClosingHandled(true)
	ebiten.SetRunnableOnUnfocused(true)

	return ebiten.RunGame(&game{
		window: w,
		pixels: make([]byte, machine.DISPLAY_PIXELS*4),
	})
}

// Render writes frame into pixels as RGBA.
func Render(frame *machine.Frame, pixels []byte, lit, unlit color.RGBA) {
	for i, on := range frame {
		c := unlit
		if on {
			c = lit
		}

		pixels[i*4+0] = c.R
		pixels[i*4+1] = c.G
		pixels[i*4+2] = c.B
		pixels[i*4+3] = c.A
	}
}

type game struct {
	window *Window
	image  *ebiten.Image
	pixels []byte
}

func (g *game) Update() error {
	w := g.window

	if w.ctx.Err() != nil {
		return ebiten.Termination
	}

	if ebiten.IsWindowBeingClosed() || ebiten.IsKeyPressed(ebiten.KeyEscape) {
		w.cancel()
		return ebiten.Termination
	}

	var keys [machine.KEYPAD_SIZE]bool

	for i, key := range layoutKeys {
		keys[keypad.Layout[i].Key] = ebiten.IsKeyPressed(key)
	}

	w.mutex.Lock()
	w.keys = keys
	w.mutex.Unlock()

	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	if g.image == nil {
		g.image = ebiten.NewImage(machine.DISPLAY_WIDTH, machine.DISPLAY_HEIGHT)
	}

	w := g.window

	w.mutex.Lock()
	Render(&w.frame, g.pixels, w.Lit, w.Unlit)
	w.mutex.Unlock()

	g.image.WritePixels(g.pixels)
	screen.DrawImage(g.image, nil)
}

func (g *game) Layout(_, _ int) (int, int) {
	return machine.DISPLAY_WIDTH, machine.DISPLAY_HEIGHT
}
