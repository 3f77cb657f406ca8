package outcome

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in      string
		want    Outcome
		wantErr bool
	}{
		{"player", Player, false},
		{"banker", Banker, false},
		{"tie", Tie, false},
		{"P", Player, false},
		{"b", Banker, false},
		{"T", Tie, false},
		{" Player ", Player, false},
		{"BANKER", Banker, false},
		{"", "", true},
		{"x", "", true},
		{"players", "", true},
	}

	for _, tc := range cases {
		got, err := Parse(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("Parse(%q): expected error, got %v", tc.in, got)
			}
			var ie *InvalidError
			if !errors.As(err, &ie) {
				t.Errorf("Parse(%q): error is %T, want *InvalidError", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("Parse(%q): unexpected error %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Parse(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseSequenceLetters(t *testing.T) {
	seq, err := ParseSequence("PPB TB")
	if err != nil {
		t.Fatalf("ParseSequence: %v", err)
	}
	want := []Outcome{Player, Player, Banker, Tie, Banker}
	if len(seq) != len(want) {
		t.Fatalf("got %d outcomes, want %d", len(seq), len(want))
	}
	for i := range want {
		if seq[i] != want[i] {
			t.Errorf("seq[%d] = %v, want %v", i, seq[i], want[i])
		}
	}
}

func TestParseSequenceWords(t *testing.T) {
	seq, err := ParseSequence("player, banker , TIE")
	if err != nil {
		t.Fatalf("ParseSequence: %v", err)
	}
	want := []Outcome{Player, Banker, Tie}
	for i := range want {
		if seq[i] != want[i] {
			t.Errorf("seq[%d] = %v, want %v", i, seq[i], want[i])
		}
	}
}

func TestParseSequenceBadSymbolPosition(t *testing.T) {
	_, err := ParseSequence("PPXB")
	var ie *InvalidError
	if !errors.As(err, &ie) {
		t.Fatalf("error is %T, want *InvalidError", err)
	}
	if ie.Position != 2 || ie.Value != "X" {
		t.Errorf("got position %d value %q, want 2 %q", ie.Position, ie.Value, "X")
	}

	_, err = ParseSequence("player,oops,tie")
	if !errors.As(err, &ie) {
		t.Fatalf("error is %T, want *InvalidError", err)
	}
	if ie.Position != 1 || ie.Value != "oops" {
		t.Errorf("got position %d value %q, want 1 %q", ie.Position, ie.Value, "oops")
	}
}

func TestParseSequenceEmpty(t *testing.T) {
	seq, err := ParseSequence("   ")
	if err != nil {
		t.Fatalf("ParseSequence: %v", err)
	}
	if seq != nil {
		t.Errorf("got %v, want nil", seq)
	}
}

func TestValidate(t *testing.T) {
	if err := Validate([]Outcome{Player, Banker, Tie}); err != nil {
		t.Errorf("valid sequence rejected: %v", err)
	}

	err := Validate([]Outcome{Player, Outcome("dealer"), Tie})
	var ie *InvalidError
	if !errors.As(err, &ie) {
		t.Fatalf("error is %T, want *InvalidError", err)
	}
	if ie.Position != 1 || ie.Value != "dealer" {
		t.Errorf("got position %d value %q", ie.Position, ie.Value)
	}
}

func TestWithoutTies(t *testing.T) {
	in := []Outcome{Player, Tie, Banker, Tie, Tie, Player}
	got := WithoutTies(in)
	want := []Outcome{Player, Banker, Player}
	if len(got) != len(want) {
		t.Fatalf("got %d outcomes, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	// Input must survive untouched.
	if in[1] != Tie || len(in) != 6 {
		t.Error("WithoutTies modified its input")
	}
}

func TestCountsAndLetters(t *testing.T) {
	seq := []Outcome{Player, Player, Banker, Tie, Banker, Banker}
	p, b, ties := Counts(seq)
	if p != 2 || b != 3 || ties != 1 {
		t.Errorf("Counts = %d,%d,%d, want 2,3,1", p, b, ties)
	}
	if got := Letters(seq); got != "PPBTBB" {
		t.Errorf("Letters = %q, want %q", got, "PPBTBB")
	}
	if got := Letters(nil); got != "" {
		t.Errorf("Letters(nil) = %q, want empty", got)
	}
}
