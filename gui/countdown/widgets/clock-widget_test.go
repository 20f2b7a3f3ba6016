package widgets

import (
	"image/color"
	"testing"

	countdown "github.com/d093w1z/countdown/api"
)

func TestStatusLabel(t *testing.T) {
	tests := []struct {
		snapshot countdown.Snapshot
		expected string
	}{
		{countdown.Snapshot{Remaining: 10, Total: 10, Running: true}, "RUNNING"},
		{countdown.Snapshot{Remaining: 4, Total: 10, Running: true}, "RUNNING"},
		{countdown.Snapshot{Remaining: 4, Total: 10}, "PAUSED"},
		{countdown.Snapshot{Remaining: 10, Total: 10}, "READY"},
		{countdown.Snapshot{}, "READY"},
	}

	for _, test := range tests {
		if got := StatusLabel(test.snapshot); got != test.expected {
			t.Errorf("StatusLabel(%+v) = %q, expected %q", test.snapshot, got, test.expected)
		}
	}
}

func TestLerpColor(t *testing.T) {
	black := color.NRGBA{A: 0xFF}
	white := color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}

	if got := lerpColor(black, white, 0); got != black {
		t.Errorf("lerpColor(t=0) = %v, expected %v", got, black)
	}
	if got := lerpColor(black, white, 1); got != white {
		t.Errorf("lerpColor(t=1) = %v, expected %v", got, white)
	}
	if got := lerpColor(black, white, 0.5); got.R != 127 || got.A != 0xFF {
		t.Errorf("lerpColor(t=0.5) = %v, expected mid grey", got)
	}
}

func TestRingSegments(t *testing.T) {
	tests := []struct {
		progress float32
		expected int
	}{
		{-0.5, 0},
		{0, 0},
		{0.5, 30},
		{0.999, 59},
		{1, 60},
		{1.5, 60},
	}

	for _, test := range tests {
		if got := ringSegments(test.progress, 60); got != test.expected {
			t.Errorf("ringSegments(%v) = %d, expected %d", test.progress, got, test.expected)
		}
	}
}
