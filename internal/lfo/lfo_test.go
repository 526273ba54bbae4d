package lfo

import (
	"math"
	"testing"
)

func TestLFOTriangleBasicShape(t *testing.T) {
	l := LFO{Depth: 1, RateHz: 1, Waveform: WaveTriangle}

	// At phase 0, triangle should be -1*depth = -1.0
	if v := l.At(0); math.Abs(v-(-1.0)) > 1e-9 {
		t.Errorf("triangle at phase 0: got %f, want -1.0", v)
	}
	// At phase 0.25, should be ~0
	if v := l.At(0.25); math.Abs(v) > 1e-9 {
		t.Errorf("triangle at phase 0.25: got %f, want ~0", v)
	}
	// At phase 0.5, should be 1.0
	if v := l.At(0.5); math.Abs(v-1.0) > 1e-9 {
		t.Errorf("triangle at phase 0.5: got %f, want 1.0", v)
	}
}

func TestLFOSquareShape(t *testing.T) {
	l := LFO{Depth: 2, RateHz: 1, Waveform: WaveSquare}
	if v := l.At(0.1); v != 2 {
		t.Errorf("square first half: got %f, want 2.0", v)
	}
	if v := l.At(0.6); v != -2 {
		t.Errorf("square second half: got %f, want -2.0", v)
	}
}

func TestLFOSawShape(t *testing.T) {
	l := LFO{Depth: 1, RateHz: 1, Waveform: WaveSaw}
	if v := l.At(0); math.Abs(v-1.0) > 1e-9 {
		t.Errorf("saw at phase 0: got %f, want 1.0", v)
	}
}

func TestLFOSinePeak(t *testing.T) {
	l := LFO{Depth: 0.5, RateHz: 2, Waveform: WaveSine}
	if v := l.At(0.125); math.Abs(v-0.5) > 1e-9 {
		t.Errorf("sine at quarter cycle: got %f, want 0.5", v)
	}
}

func TestLFOIsPureInTime(t *testing.T) {
	l := LFO{Depth: 1, RateHz: 0.3, Waveform: WaveTriangle, Phase: 0.2}
	a := l.At(12.34)
	l.At(1)
	l.At(99)
	if b := l.At(12.34); a != b {
		t.Errorf("At(12.34) changed between calls: %f vs %f", a, b)
	}
}

func TestLFOZeroDepthOrRateReturnsZero(t *testing.T) {
	if v := (LFO{Depth: 0, RateHz: 5}).At(1.3); v != 0 {
		t.Errorf("zero depth should return 0, got %f", v)
	}
	if v := (LFO{Depth: 1, RateHz: 0}).At(1.3); v != 0 {
		t.Errorf("zero rate should return 0, got %f", v)
	}
}

func TestLFOScaleClampsAtZero(t *testing.T) {
	l := LFO{Depth: 2, RateHz: 1, Waveform: WaveSquare}
	if v := l.Scale(0.75); v != 0 {
		t.Errorf("scale below zero: got %f, want 0", v)
	}
	if v := l.Scale(0.25); v != 3 {
		t.Errorf("scale high: got %f, want 3", v)
	}
}
