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

const (
	DEFAULT_SAMPLE_RATE = 44100
	DEFAULT_FREQUENCY   = 440
	DEFAULT_VOLUME      = 0.25
)

// Tone is a square wave generator. The zero value is silent.
type Tone struct {
	Volume float32

	phase float32
	delta float32
}

func NewTone(sampleRate int) *Tone {
	return &Tone{
		Volume: DEFAULT_VOLUME,
		delta:  float32(DEFAULT_FREQUENCY) / float32(sampleRate),
	}
}

// Sample returns the next sample in the range [-Volume, Volume].
func (t *Tone) Sample() float32 {
	value := -t.Volume

	if t.phase <= 0.5 {
		value = t.Volume
	}

	t.phase += t.delta

	for t.phase >= 1.0 {
		t.phase -= 1.0
	}

	return value
}

func (t *Tone) Fill(out []float32) {
	for i := range out {
		out[i] = t.Sample()
	}
}
