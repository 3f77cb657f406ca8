// Package outcome defines the three-valued alphabet a baccarat table
// produces: player, banker, tie.
//
// Everything above this package (detectors, scorers, stores, transports)
// passes outcomes around as the typed constants defined here, never as raw
// characters. Parsing from the outside world happens at the boundary so a
// bad symbol is rejected with its position attached instead of leaking into
// the engine.
package outcome

import (
	"fmt"
	"strings"
)

// Outcome is one resolved round at the table.
type Outcome string

const (
	Player Outcome = "player"
	Banker Outcome = "banker"
	Tie    Outcome = "tie"
)

// Letter returns the compact single-letter form used in stored histories,
// logs, and the CLI: P, B, or T.
func (o Outcome) Letter() string {
	switch o {
	case Player:
		return "P"
	case Banker:
		return "B"
	case Tie:
		return "T"
	}
	return "?"
}

// Valid reports whether o is one of the three defined outcomes.
func (o Outcome) Valid() bool {
	switch o {
	case Player, Banker, Tie:
		return true
	}
	return false
}

// InvalidError reports a symbol outside the alphabet. Position is the
// zero-based index within the sequence being validated, or -1 when a single
// value was parsed on its own.
type InvalidError struct {
	Position int    `json:"position"`
	Value    string `json:"value"`
}

func (e *InvalidError) Error() string {
	if e.Position < 0 {
		return fmt.Sprintf("invalid outcome %q", e.Value)
	}
	return fmt.Sprintf("invalid outcome %q at position %d", e.Value, e.Position)
}

// Parse converts a wire value to an Outcome. It accepts the full words and
// the single-letter forms, case-insensitively.
func Parse(s string) (Outcome, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "player", "p":
		return Player, nil
	case "banker", "b":
		return Banker, nil
	case "tie", "t":
		return Tie, nil
	}
	return "", &InvalidError{Position: -1, Value: s}
}

// ParseSequence converts a history given either as a compact letter string
// ("PPBTB", spaces allowed) or as comma-separated words
// ("player,banker,tie").
func ParseSequence(s string) ([]Outcome, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	if strings.Contains(s, ",") {
		parts := strings.Split(s, ",")
		seq := make([]Outcome, 0, len(parts))
		for i, part := range parts {
			o, err := Parse(part)
			if err != nil {
				return nil, &InvalidError{Position: i, Value: strings.TrimSpace(part)}
			}
			seq = append(seq, o)
		}
		return seq, nil
	}

	letters := []rune(strings.ReplaceAll(s, " ", ""))
	seq := make([]Outcome, 0, len(letters))
	for i, r := range letters {
		o, err := Parse(string(r))
		if err != nil {
			return nil, &InvalidError{Position: i, Value: string(r)}
		}
		seq = append(seq, o)
	}
	return seq, nil
}

// Validate checks every element of a sequence and returns an InvalidError
// for the first value outside the alphabet.
func Validate(seq []Outcome) error {
	for i, o := range seq {
		if !o.Valid() {
			return &InvalidError{Position: i, Value: string(o)}
		}
	}
	return nil
}

// WithoutTies returns the non-tie subsequence in order. The input is never
// modified.
func WithoutTies(seq []Outcome) []Outcome {
	out := make([]Outcome, 0, len(seq))
	for _, o := range seq {
		if o != Tie {
			out = append(out, o)
		}
	}
	return out
}

// Counts tallies a sequence.
func Counts(seq []Outcome) (player, banker, tie int) {
	for _, o := range seq {
		switch o {
		case Player:
			player++
		case Banker:
			banker++
		case Tie:
			tie++
		}
	}
	return player, banker, tie
}

// Letters renders a sequence in compact letter form, e.g. "PPBTB".
func Letters(seq []Outcome) string {
	var b strings.Builder
	b.Grow(len(seq))
	for _, o := range seq {
		b.WriteString(o.Letter())
	}
	return b.String()
}
