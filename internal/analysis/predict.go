package analysis

import (
	"fmt"

	"github.com/mbd888/shoewatch/internal/outcome"
)

// Confidence bounds per predictor branch.
const (
	compensationConfBase = 55.0
	compensationConfMax  = 75.0
	cycleConfBase        = 50.0
	cycleConfMax         = 70.0
	fallbackConfMax      = 75.0
)

// Predict walks the decision ladder: stop on critical conditions, wait on
// high manipulation, then try compensation, then cycle continuation, then
// fall back to the dominant color. First matching branch wins.
func Predict(history []outcome.Outcome, patterns []Pattern, risk RiskAssessment, manip ManipulationAssessment) Prediction {
	pred := Prediction{Strategy: StrategyHold}

	if risk.Level == TierCritical || manip.Level == TierCritical {
		pred.Reasoning = "critical conditions, maximum manipulation detected"
		pred.Strategy = StrategyStop
		return pred
	}

	if manip.Level == TierHigh {
		pred.Reasoning = "high manipulation, avoid betting"
		pred.Strategy = StrategyWaitNormalize
		return pred
	}

	calm := risk.Level == TierLow && manip.Level == TierLow

	if comp, ok := firstCompensation(patterns); ok && calm {
		conf := compensationConfBase + comp.Strength*20
		if conf > compensationConfMax {
			conf = compensationConfMax
		}
		pred.Color = comp.Favored
		pred.Confidence = conf
		pred.Reasoning = "statistical compensation expected: " + comp.Description
		pred.Strategy = StrategyCompensation
		return pred
	}

	if cyc, ok := firstCycle(patterns); ok && calm {
		if next, ok := NextInCycle(history, cyc.Cycle); ok {
			conf := cycleConfBase + float64(cyc.Repetitions)*5
			if conf > cycleConfMax {
				conf = cycleConfMax
			}
			pred.Color = next
			pred.Confidence = conf
			pred.Reasoning = fmt.Sprintf("cycle detected: %q (%dx)", outcome.Letters(cyc.Cycle), cyc.Repetitions)
			pred.Strategy = StrategyFollowCycle
			return pred
		}
	}

	nonTie := outcome.WithoutTies(history)
	if len(nonTie) == 0 {
		return pred
	}
	dominant, count := dominantColor(nonTie)
	conf := float64(count) / float64(len(nonTie)) * 100
	if conf > fallbackConfMax {
		conf = fallbackConfMax
	}
	pred.Color = dominant
	pred.Confidence = conf
	pred.Reasoning = fmt.Sprintf("historical frequency of %s (%d/%d)", dominant, count, len(nonTie))
	pred.Strategy = StrategyDominant
	return pred
}

// NextInCycle projects the cycle forward as if it had been running unbroken
// from the start of recorded history: the next outcome sits at index
// len(non-tie history) mod cycle length. The projection is not validated
// against where the cycle was actually observed; stored results depend on
// this exact behavior.
func NextInCycle(history []outcome.Outcome, cycle []outcome.Outcome) (outcome.Outcome, bool) {
	nonTie := outcome.WithoutTies(history)
	if len(cycle) == 0 || len(nonTie) == 0 {
		return "", false
	}
	return cycle[len(nonTie)%len(cycle)], true
}

// firstCompensation returns the earliest compensation_pending pattern in
// detection order.
func firstCompensation(patterns []Pattern) (CompensationPending, bool) {
	for _, p := range patterns {
		if c, ok := p.(CompensationPending); ok {
			return c, true
		}
	}
	return CompensationPending{}, false
}

// firstCycle returns the earliest hidden_cycle with at least two
// repetitions. Detectors never emit fewer, but stored pattern lists are not
// under our control.
func firstCycle(patterns []Pattern) (HiddenCycle, bool) {
	for _, p := range patterns {
		if c, ok := p.(HiddenCycle); ok && c.Repetitions >= 2 {
			return c, true
		}
	}
	return HiddenCycle{}, false
}

// dominantColor picks the most frequent outcome; at equal counts the color
// seen first in the sequence wins.
func dominantColor(nonTie []outcome.Outcome) (outcome.Outcome, int) {
	counts := make(map[outcome.Outcome]int, 2)
	var order []outcome.Outcome
	for _, o := range nonTie {
		if counts[o] == 0 {
			order = append(order, o)
		}
		counts[o]++
	}
	best := order[0]
	for _, o := range order[1:] {
		if counts[o] > counts[best] {
			best = o
		}
	}
	return best, counts[best]
}
