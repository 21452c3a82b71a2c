package timing

import (
	"errors"
	"testing"
	"time"
	"unicode/utf8"
)

func TestFromSamples(t *testing.T) {
	reads := []uint8{0, 0, 0, 1, 1, 0, 1, 1, 1, 1}
	got := FromSamples(reads, 10*time.Microsecond)

	want := Sequence{Low(30), High(20), Low(10), High(40)}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %v, want %v", i, got[i], want[i])
		}
	}
	if got.Total() != 100*time.Microsecond {
		t.Errorf("Total = %v, want 100us", got.Total())
	}
}

func TestFromSamplesEmpty(t *testing.T) {
	if got := FromSamples(nil, 10*time.Microsecond); got != nil {
		t.Errorf("FromSamples(nil) = %v", got)
	}
}

func TestValidate(t *testing.T) {
	if err := (Sequence{}).Validate(); !errors.Is(err, ErrEmptySequence) {
		t.Errorf("empty: %v", err)
	}
	if err := (Sequence{High(10), Low(0)}).Validate(); !errors.Is(err, ErrZeroDuration) {
		t.Errorf("zero duration: %v", err)
	}
	if err := (Sequence{{State: 2, DurationUS: 5}}).Validate(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("bad state: %v", err)
	}
	if err := (Sequence{High(10), Low(20)}).Validate(); err != nil {
		t.Errorf("valid sequence rejected: %v", err)
	}
}

func TestScaleTruncatesAndClamps(t *testing.T) {
	got := Sequence{High(1000), Low(1)}.Scale(0.95)
	if got[0].DurationUS != 950 {
		t.Errorf("scaled = %d, want 950", got[0].DurationUS)
	}
	if got[1].DurationUS != 1 {
		t.Errorf("clamped = %d, want 1", got[1].DurationUS)
	}
}

func TestWaveformWidth(t *testing.T) {
	seq := Sequence{High(500), Low(500), High(1500), Low(500)}
	w := seq.Waveform(30)
	if n := utf8.RuneCountInString(w); n != 30 {
		t.Errorf("width = %d, want 30", n)
	}
	if r, _ := utf8.DecodeRuneInString(w); string(r) != waveHigh {
		t.Errorf("waveform should start high: %q", w)
	}
	if got := (Sequence{}).Waveform(5); got != "▁▁▁▁▁" {
		t.Errorf("empty waveform = %q", got)
	}
}
