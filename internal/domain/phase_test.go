package domain

import "testing"

func TestPhases_Order(t *testing.T) {
	phases := Phases()
	want := []Phase{PhaseFast, PhaseMutating, PhaseSlow}
	if len(phases) != len(want) {
		t.Fatalf("Phases() len = %d, want %d", len(phases), len(want))
	}
	for i, p := range phases {
		if p != want[i] {
			t.Errorf("Phases()[%d] = %v, want %v", i, p, want[i])
		}
	}
}

func TestParsePhase(t *testing.T) {
	tests := []struct {
		in      string
		want    Phase
		wantErr bool
	}{
		{"fast", PhaseFast, false},
		{"mutating", PhaseMutating, false},
		{"slow", PhaseSlow, false},
		{"quick", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParsePhase(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePhase(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("ParsePhase(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPhase_Concurrency(t *testing.T) {
	tests := []struct {
		phase   Phase
		workers int
		want    int
	}{
		{PhaseFast, 4, 4},
		{PhaseSlow, 8, 8},
		{PhaseMutating, 8, 1},
		{PhaseFast, 0, 1},
	}
	for _, tt := range tests {
		if got := tt.phase.Concurrency(tt.workers); got != tt.want {
			t.Errorf("%v.Concurrency(%d) = %d, want %d", tt.phase, tt.workers, got, tt.want)
		}
	}
}
