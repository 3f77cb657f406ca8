package analysis

import (
	"encoding/json"
	"fmt"

	"github.com/mbd888/shoewatch/internal/outcome"
)

// Tier grades how alarming a finding is. Patterns and both assessments share
// the scale.
type Tier string

const (
	TierLow      Tier = "low"
	TierMedium   Tier = "medium"
	TierHigh     Tier = "high"
	TierCritical Tier = "critical"
)

// Kind discriminates the pattern sum type on the wire.
type Kind string

const (
	KindMicroDouble         Kind = "micro_double_pattern"
	KindMicroAlternation    Kind = "micro_alternation"
	KindHiddenCycle         Kind = "hidden_cycle"
	KindArtificialBalance   Kind = "artificial_balance"
	KindCompensationPending Kind = "compensation_pending"
	KindIntentionalBreak    Kind = "intentional_break"
	KindTieAfterSequence    Kind = "strategic_tie_after_sequence"
	KindTieBeforeReversal   Kind = "strategic_tie_before_reversal"
)

// Base carries the fields every pattern kind shares. Strength is 0.0-1.0,
// Predictability 0-100.
type Base struct {
	Strength         float64 `json:"strength"`
	Tier             Tier    `json:"tier"`
	Description      string  `json:"description"`
	ManipulationNote string  `json:"manipulationNote"`
	Predictability   int     `json:"predictability"`
}

func (b Base) base() Base { return b }

// Pattern is one detected anomaly. The concrete types in this file are the
// only implementations; Kind dispatches them on the wire.
type Pattern interface {
	Kind() Kind
	base() Base
}

// MicroDouble reports repeated 2x2 blocks in the last six outcomes.
type MicroDouble struct {
	Base
	PairCount int `json:"pairCount"`
}

func (MicroDouble) Kind() Kind { return KindMicroDouble }

// MicroAlternation reports near-perfect flip-flopping in the recent non-tie
// outcomes.
type MicroAlternation struct {
	Base
	FlipCount int `json:"flipCount"`
}

func (MicroAlternation) Kind() Kind { return KindMicroAlternation }

// HiddenCycle reports a fixed-length subsequence recurring through the
// non-tie history.
type HiddenCycle struct {
	Base
	CycleLength int               `json:"cycleLength"`
	Cycle       []outcome.Outcome `json:"cycle"`
	Repetitions int               `json:"repetitions"`
}

func (HiddenCycle) Kind() Kind { return KindHiddenCycle }

// ArtificialBalance reports a recent window balanced too evenly to look
// organic.
type ArtificialBalance struct {
	Base
	WindowSize  int `json:"windowSize"`
	PlayerCount int `json:"playerCount"`
	BankerCount int `json:"bankerCount"`
}

func (ArtificialBalance) Kind() Kind { return KindArtificialBalance }

// CompensationPending reports a heavy one-sided window where a statistical
// swing back toward the starved color is expected.
type CompensationPending struct {
	Base
	WindowSize  int             `json:"windowSize"`
	PlayerCount int             `json:"playerCount"`
	BankerCount int             `json:"bankerCount"`
	Imbalance   int             `json:"imbalance"`
	Favored     outcome.Outcome `json:"favored"`
}

func (CompensationPending) Kind() Kind { return KindCompensationPending }

// IntentionalBreak marks an abrupt cut of an established run. No detector
// emits it today; the kind stays in the vocabulary because the risk scorer
// prices it and stored results may carry it.
type IntentionalBreak struct {
	Base
	Position int `json:"position"`
}

func (IntentionalBreak) Kind() Kind { return KindIntentionalBreak }

// TieAfterSequence reports a tie dropped right after a same-color run.
type TieAfterSequence struct {
	Base
	Position  int             `json:"position"`
	RunColor  outcome.Outcome `json:"runColor"`
	RunLength int             `json:"runLength"`
}

func (TieAfterSequence) Kind() Kind { return KindTieAfterSequence }

// TieBeforeReversal reports a tie separating two different colors, masking a
// directed reversal.
type TieBeforeReversal struct {
	Base
	Position int             `json:"position"`
	From     outcome.Outcome `json:"from"`
	To       outcome.Outcome `json:"to"`
}

func (TieBeforeReversal) Kind() Kind { return KindTieBeforeReversal }

// ---------------------------------------------------------------------------
// JSON codec
//
// Every pattern serializes to a flat object with a leading "kind"
// discriminator. Decoding dispatches on "kind" back to the concrete type, so
// a result survives a store-and-reload round trip without losing payload
// fields.
// ---------------------------------------------------------------------------

func (p MicroDouble) MarshalJSON() ([]byte, error) {
	type alias MicroDouble
	return json.Marshal(struct {
		Kind Kind `json:"kind"`
		alias
	}{p.Kind(), alias(p)})
}

func (p MicroAlternation) MarshalJSON() ([]byte, error) {
	type alias MicroAlternation
	return json.Marshal(struct {
		Kind Kind `json:"kind"`
		alias
	}{p.Kind(), alias(p)})
}

func (p HiddenCycle) MarshalJSON() ([]byte, error) {
	type alias HiddenCycle
	return json.Marshal(struct {
		Kind Kind `json:"kind"`
		alias
	}{p.Kind(), alias(p)})
}

func (p ArtificialBalance) MarshalJSON() ([]byte, error) {
	type alias ArtificialBalance
	return json.Marshal(struct {
		Kind Kind `json:"kind"`
		alias
	}{p.Kind(), alias(p)})
}

func (p CompensationPending) MarshalJSON() ([]byte, error) {
	type alias CompensationPending
	return json.Marshal(struct {
		Kind Kind `json:"kind"`
		alias
	}{p.Kind(), alias(p)})
}

func (p IntentionalBreak) MarshalJSON() ([]byte, error) {
	type alias IntentionalBreak
	return json.Marshal(struct {
		Kind Kind `json:"kind"`
		alias
	}{p.Kind(), alias(p)})
}

func (p TieAfterSequence) MarshalJSON() ([]byte, error) {
	type alias TieAfterSequence
	return json.Marshal(struct {
		Kind Kind `json:"kind"`
		alias
	}{p.Kind(), alias(p)})
}

func (p TieBeforeReversal) MarshalJSON() ([]byte, error) {
	type alias TieBeforeReversal
	return json.Marshal(struct {
		Kind Kind `json:"kind"`
		alias
	}{p.Kind(), alias(p)})
}

// UnmarshalPattern decodes one pattern object, dispatching on its "kind"
// field.
func UnmarshalPattern(data []byte) (Pattern, error) {
	var probe struct {
		Kind Kind `json:"kind"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decode pattern: %w", err)
	}

	switch probe.Kind {
	case KindMicroDouble:
		var p MicroDouble
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return p, nil
	case KindMicroAlternation:
		var p MicroAlternation
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return p, nil
	case KindHiddenCycle:
		var p HiddenCycle
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return p, nil
	case KindArtificialBalance:
		var p ArtificialBalance
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return p, nil
	case KindCompensationPending:
		var p CompensationPending
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return p, nil
	case KindIntentionalBreak:
		var p IntentionalBreak
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return p, nil
	case KindTieAfterSequence:
		var p TieAfterSequence
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return p, nil
	case KindTieBeforeReversal:
		var p TieBeforeReversal
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return p, nil
	}
	return nil, fmt.Errorf("unknown pattern kind %q", probe.Kind)
}
