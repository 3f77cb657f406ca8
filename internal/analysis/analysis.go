// Package analysis is the pattern engine: it reads a snapshot of a shoe's
// outcome history and grades how programmed the stream looks.
//
// The pipeline is fixed: four detectors run over the same snapshot, their
// findings feed a risk scorer and a manipulation scorer independently, and a
// predictor turns the lot into an advisory call for the next round. Every
// stage is a pure function; the same history always produces the same
// result, byte for byte once encoded. That makes results safe to archive,
// replay, and diff.
//
// The engine never owns state. Mutable session history lives in the
// sessions package; whatever it passes in here is treated as immutable.
package analysis

import (
	"encoding/json"
	"fmt"

	"github.com/mbd888/shoewatch/internal/outcome"
)

// Strategy is the advisory label attached to a prediction. The labels are
// part of the API and render directly in clients.
type Strategy string

const (
	StrategyStop          Strategy = "STOP COMPLETELY"
	StrategyWaitNormalize Strategy = "WAIT FOR NORMALIZATION"
	StrategyCompensation  Strategy = "BET COMPENSATION"
	StrategyFollowCycle   Strategy = "FOLLOW CYCLE"
	StrategyDominant      Strategy = "BET ON DOMINANT COLOR"
	StrategyHold          Strategy = "WAIT FOR BETTER CONDITIONS"
)

// RiskAssessment grades how hostile current conditions look for a bettor.
type RiskAssessment struct {
	Level   Tier     `json:"level"`
	Score   int      `json:"score"`
	Factors []string `json:"factors"`
}

// ManipulationAssessment grades how artificial the outcome stream looks.
type ManipulationAssessment struct {
	Level Tier     `json:"level"`
	Score int      `json:"score"`
	Signs []string `json:"signs"`
}

// Prediction is the engine's call for the next round. Color is empty when
// the engine declines to call one.
type Prediction struct {
	Color      outcome.Outcome `json:"color,omitempty"`
	Confidence float64         `json:"confidence"`
	Reasoning  string          `json:"reasoning,omitempty"`
	Strategy   Strategy        `json:"strategy"`
}

// Result is one full engine pass over a history snapshot.
type Result struct {
	Patterns     []Pattern              `json:"patterns"`
	Risk         RiskAssessment         `json:"risk"`
	Manipulation ManipulationAssessment `json:"manipulation"`
	Prediction   Prediction             `json:"prediction"`
}

// UnmarshalJSON restores a stored result, dispatching each pattern on its
// kind.
func (r *Result) UnmarshalJSON(data []byte) error {
	var raw struct {
		Patterns     []json.RawMessage      `json:"patterns"`
		Risk         RiskAssessment         `json:"risk"`
		Manipulation ManipulationAssessment `json:"manipulation"`
		Prediction   Prediction             `json:"prediction"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	patterns := make([]Pattern, 0, len(raw.Patterns))
	for i, msg := range raw.Patterns {
		p, err := UnmarshalPattern(msg)
		if err != nil {
			return fmt.Errorf("pattern %d: %w", i, err)
		}
		patterns = append(patterns, p)
	}

	r.Patterns = patterns
	r.Risk = raw.Risk
	r.Manipulation = raw.Manipulation
	r.Prediction = raw.Prediction
	return nil
}

// Analyze runs the full pipeline over one history snapshot. The snapshot is
// never modified. An empty history is valid: no patterns, zero scores, the
// default hold prediction. The only error is a symbol outside the alphabet.
func Analyze(history []outcome.Outcome) (*Result, error) {
	if err := outcome.Validate(history); err != nil {
		return nil, err
	}

	patterns := []Pattern{}
	patterns = append(patterns, DetectMicroPatterns(history)...)
	patterns = append(patterns, DetectHiddenCycles(history)...)
	patterns = append(patterns, DetectCompensation(history)...)
	patterns = append(patterns, DetectStrategicTies(history)...)

	risk := ScoreRisk(patterns)
	manip := ScoreManipulation(patterns)

	return &Result{
		Patterns:     patterns,
		Risk:         risk,
		Manipulation: manip,
		Prediction:   Predict(history, patterns, risk, manip),
	}, nil
}
