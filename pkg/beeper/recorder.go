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
	"fmt"
	"io"
	"math"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	RECORDER_BIT_DEPTH = 16
	wavFormatPCM       = 1
)

// Recorder writes the tone as 16-bit mono PCM, one block of samples per
// Advance. Paused time is recorded as silence.
type Recorder struct {
	encoder *wav.Encoder
	buffer  *audio.IntBuffer
	tone    *Tone

	rate   int
	carry  float64
	active bool
}

func NewRecorder(w io.WriteSeeker, sampleRate int) *Recorder {
	return &Recorder{
		encoder: wav.NewEncoder(w, sampleRate, RECORDER_BIT_DEPTH, 1, wavFormatPCM),
		buffer: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
			SourceBitDepth: RECORDER_BIT_DEPTH,
		},
		tone: NewTone(sampleRate),
		rate: sampleRate,
	}
}

func (rec *Recorder) Resume() {
	rec.active = true
}

func (rec *Recorder) Pause() {
	rec.active = false
}

func (rec *Recorder) Advance(d time.Duration) error {
	exact := d.Seconds()*float64(rec.rate) + rec.carry
	count := int(exact)
	rec.carry = exact - float64(count)

	if count == 0 {
		return nil
	}

	if cap(rec.buffer.Data) < count {
		rec.buffer.Data = make([]int, count)
	}

	rec.buffer.Data = rec.buffer.Data[:count]

	for i := range rec.buffer.Data {
		if rec.active {
			rec.buffer.Data[i] = int(rec.tone.Sample() * math.MaxInt16)
		} else {
			rec.buffer.Data[i] = 0
		}
	}

	if err := rec.encoder.Write(rec.buffer); err != nil {
		return fmt.Errorf("wav: %w", err)
	}

	return nil
}

// Close finalizes the wav header. The underlying writer is left open.
func (rec *Recorder) Close() error {
	if err := rec.encoder.Close(); err != nil {
		return fmt.Errorf("wav: %w", err)
	}

	return nil
}
