package voice

import (
	"math"
	"testing"
)

func energy(e *Engine, frames int) (left, right float64) {
	for i := 0; i < frames; i++ {
		l, r := e.RenderFrame()
		left += math.Abs(float64(l))
		right += math.Abs(float64(r))
	}
	return left, right
}

func TestEngineGeneratesSignal(t *testing.T) {
	for program := ProgramSine; program < programCount; program++ {
		e := New(48000, DefaultParams())
		id := e.NoteOn(60, 0.8, 0, program)
		if id < 0 {
			t.Fatalf("invalid voice id")
		}
		if l, r := energy(e, 5000); l == 0 || r == 0 {
			t.Fatalf("program %d: expected non-zero output", program)
		}
	}
}

func TestEngineSupportsStereoPan(t *testing.T) {
	e := New(48000, DefaultParams())
	e.NoteOn(60, 1, 64, ProgramTriangle)
	left, right := energy(e, 4096)
	if right <= left {
		t.Fatalf("expected right-biased signal, left=%f right=%f", left, right)
	}
}

func TestNoteOffReleasesVoice(t *testing.T) {
	p := DefaultParams()
	p.AttackSec = 0.001
	p.DecaySec = 0.001
	p.ReleaseSec = 0.01
	e := New(48000, p)
	id := e.NoteOn(69, 1, 0, ProgramSine)
	energy(e, 480)
	if e.ActiveVoiceCount() != 1 {
		t.Fatalf("voices = %d, want 1", e.ActiveVoiceCount())
	}
	e.NoteOff(id)
	energy(e, 2000)
	if e.ActiveVoiceCount() != 0 {
		t.Fatalf("voices after release = %d, want 0", e.ActiveVoiceCount())
	}
}

func TestVoiceStealingKeepsPolyphonyBounded(t *testing.T) {
	p := DefaultParams()
	p.Voices = 4
	e := New(48000, p)
	for n := 0; n < 10; n++ {
		e.NoteOn(48+n, 0.5, 0, ProgramSine)
		e.RenderFrame()
	}
	if e.ActiveVoiceCount() != 4 {
		t.Fatalf("voices = %d, want 4", e.ActiveVoiceCount())
	}
}

func TestMasterGainZeroSilences(t *testing.T) {
	e := New(48000, DefaultParams())
	e.SetMasterGain(-1)
	if e.MasterGain() != 0 {
		t.Fatalf("gain = %v, want 0", e.MasterGain())
	}
	e.NoteOn(60, 1, 0, ProgramPulseA)
	if l, r := energy(e, 2000); l != 0 || r != 0 {
		t.Fatalf("expected silence, got %f %f", l, r)
	}
}

func TestWaveForProgramWraps(t *testing.T) {
	if waveForProgram(-1) != waveNoise || waveForProgram(programCount+1) != waveTriangle {
		t.Fatalf("program wrap mismatch")
	}
}
