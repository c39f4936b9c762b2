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

package beeper_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/wav"

	"github.com/lassandro/gochip8/pkg/beeper"
)

type fakeSink struct {
	Resumes int
	Pauses  int
	Elapsed time.Duration
	Err     error
}

func (sink *fakeSink) Resume() { sink.Resumes++ }
func (sink *fakeSink) Pause()  { sink.Pauses++ }

type fakeRenderer struct {
	fakeSink
}

func (sink *fakeRenderer) Advance(d time.Duration) error {
	sink.Elapsed += d
	return sink.Err
}

func TestTone(t *testing.T) {
	tone := beeper.NewTone(1760)

	// A quarter period per sample.
	want := []float32{0.25, 0.25, 0.25, -0.25, 0.25, 0.25, 0.25, -0.25}
	have := make([]float32, len(want))
	tone.Fill(have)

	for i := range want {
		if want[i] != have[i] {
			t.Fatalf("Tone mismatch\nwant:%v\nhave:%v", want, have)
		}
	}

	var silent beeper.Tone

	if silent.Sample() != 0 {
		t.Error("Zero tone not silent")
	}
}

func TestHold(t *testing.T) {
	sink := &fakeSink{}
	bp := beeper.New(beeper.DEFAULT_HOLD, sink)

	type testCase struct {
		Name    string
		Elapsed time.Duration
		Enable  bool
		Playing bool
		Resumes int
		Pauses  int
	}

	tests := []testCase{
		{"Idle", 0, false, false, 0, 0},
		{"Start", 0, true, true, 1, 0},
		{"Retrigger", 10 * time.Millisecond, true, true, 1, 0},
		{"Held", 100 * time.Millisecond, false, true, 1, 0},
		{"Still Held", 149 * time.Millisecond, false, true, 1, 0},
		{"Released", time.Millisecond, false, false, 1, 1},
		{"Stays Released", time.Second, false, false, 1, 1},
		{"Restart", 0, true, true, 2, 1},
	}

	for _, test := range tests {
		if err := bp.Advance(test.Elapsed); err != nil {
			t.Fatal(err)
		}

		bp.SetBeep(test.Enable)

		if bp.Playing() != test.Playing ||
			sink.Resumes != test.Resumes ||
			sink.Pauses != test.Pauses {
			t.Errorf(
				"%s mismatch\nwant:playing=%v resumes=%d pauses=%d\nhave:playing=%v resumes=%d pauses=%d",
				test.Name,
				test.Playing,
				test.Resumes,
				test.Pauses,
				bp.Playing(),
				sink.Resumes,
				sink.Pauses,
			)
		}
	}
}

func TestAdvance(t *testing.T) {
	plain := &fakeSink{}
	renderer := &fakeRenderer{}
	failing := &fakeRenderer{fakeSink{Err: errors.New("device lost")}}

	bp := beeper.New(beeper.DEFAULT_HOLD, plain, renderer, failing)

	err := bp.Advance(time.Second / 60)

	if err == nil || err.Error() != "device lost" {
		t.Errorf("Advance error mismatch\nwant:device lost\nhave:%v", err)
	}

	if renderer.Elapsed != time.Second/60 {
		t.Errorf(
			"Advance mismatch\nwant:%v\nhave:%v",
			time.Second/60,
			renderer.Elapsed,
		)
	}

	if err := bp.Close(); err != nil {
		t.Error(err)
	}

	if plain.Pauses != 1 || renderer.Pauses != 1 {
		t.Error("Close did not pause sinks")
	}
}

func TestRecorder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "beep.wav")
	file, err := os.Create(path)

	if err != nil {
		t.Fatal(err)
	}

	rec := beeper.NewRecorder(file, 8000)

	if err := rec.Advance(100 * time.Millisecond); err != nil {
		t.Fatal(err)
	}

	rec.Resume()

	// 3 * 33.33ms carries the fractional sample over.
	for i := 0; i < 3; i++ {
		if err := rec.Advance(time.Second / 30); err != nil {
			t.Fatal(err)
		}
	}

	if err := rec.Close(); err != nil {
		t.Fatal(err)
	}

	file.Close()

	file, err = os.Open(path)

	if err != nil {
		t.Fatal(err)
	}

	defer file.Close()

	dec := wav.NewDecoder(file)
	buffer, err := dec.FullPCMBuffer()

	if err != nil {
		t.Fatal(err)
	}

	if dec.SampleRate != 8000 || dec.BitDepth != 16 || dec.NumChans != 1 {
		t.Errorf(
			"Format mismatch\nwant:8000 16 1\nhave:%d %d %d",
			dec.SampleRate,
			dec.BitDepth,
			dec.NumChans,
		)
	}

	if len(buffer.Data) < 1599 || len(buffer.Data) > 1600 {
		t.Fatalf("Sample count mismatch\nwant:1600\nhave:%d", len(buffer.Data))
	}

	for i := 0; i < 800; i++ {
		if buffer.Data[i] != 0 {
			t.Fatalf("Sample %d not silent\nhave:%d", i, buffer.Data[i])
		}
	}

	if buffer.Data[800] != 8191 {
		t.Errorf("Tone sample mismatch\nwant:8191\nhave:%d", buffer.Data[800])
	}
}
