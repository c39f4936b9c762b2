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
	"encoding/binary"
	"math"
	"sync"
	"sync/atomic"

	"github.com/ebitengine/oto/v3"
)

// Output plays the tone on the default audio device. The player runs for
// the lifetime of the Output and is fed silence while paused.
type Output struct {
	ctx    *oto.Context
	player *oto.Player
	tone   *Tone

	enabled atomic.Bool
	samples []float32
	mutex   sync.Mutex
}

func NewOutput(sampleRate int) (*Output, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
	})

	if err != nil {
		return nil, err
	}

	<-ready

	output := &Output{
		ctx:  ctx,
		tone: NewTone(sampleRate),
	}

	output.player = ctx.NewPlayer(output)
	output.player.Play()

	return output, nil
}

// Read implements io.Reader for the oto player.
func (output *Output) Read(p []byte) (int, error) {
	output.mutex.Lock()
	defer output.mutex.Unlock()

	count := len(p) / 4

	if cap(output.samples) < count {
		output.samples = make([]float32, count)
	}

	samples := output.samples[:count]

	if output.enabled.Load() {
		output.tone.Fill(samples)
	} else {
		clear(samples)
	}

	for i, sample := range samples {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(sample))
	}

	return count * 4, nil
}

func (output *Output) Resume() {
	output.enabled.Store(true)
}

func (output *Output) Pause() {
	output.enabled.Store(false)
}

func (output *Output) Close() error {
	output.Pause()
	return output.player.Close()
}
