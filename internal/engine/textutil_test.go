package engine

import "testing"

func TestNormalizeText(t *testing.T) {
	in := "Title\r\n\r\n\r\n\r\n  Must   have\tGo  \n\n\nDone"
	want := "Title\n\nMust have Go\n\nDone"
	if got := NormalizeText(in); got != want {
		t.Errorf("NormalizeText() = %q, want %q", got, want)
	}
}

func TestRound1(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{66.66666, 66.7},
		{85, 85},
		{0.04, 0},
	}
	for _, tt := range tests {
		if got := Round1(tt.in); got != tt.want {
			t.Errorf("Round1(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestClampPercent(t *testing.T) {
	if ClampPercent(-5) != 0 || ClampPercent(120) != 100 || ClampPercent(42.5) != 42.5 {
		t.Error("ClampPercent out of bounds")
	}
}

func TestCleanHTML(t *testing.T) {
	if got := CleanHTML("  <p>Hello <b>world</b></p> "); got != "Hello world" {
		t.Errorf("CleanHTML() = %q", got)
	}
}
