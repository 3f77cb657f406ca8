package analysis

import "fmt"

// Points each finding adds to the risk score. Additive across the pattern
// list; the final score clamps at 100.
const (
	riskPointsMicroDouble  = 70
	riskPointsAlternation  = 65
	riskPointsCycle        = 60
	riskPointsBalance      = 55
	riskPointsBreak        = 50
	riskPointsStrategicTie = 40
)

// Strength a micro pattern needs before it counts against the risk score,
// and the repetition count a cycle needs.
const (
	riskMicroStrengthMin   = 0.8
	riskCycleRepetitionMin = 3
)

// Points per pattern the manipulation scorer adds, bucketed by
// predictability.
const (
	manipPointsHigh   = 80 // predictability >= 90
	manipPointsMedium = 60 // predictability >= 80
	manipPointsLow    = 40 // predictability >= 70
)

// levelCut maps a minimum score to a tier. Entries are scanned in order;
// anything below the last cut is low.
type levelCut struct {
	min  int
	tier Tier
}

var (
	riskLevels  = []levelCut{{80, TierCritical}, {55, TierHigh}, {30, TierMedium}}
	manipLevels = []levelCut{{80, TierCritical}, {60, TierHigh}, {35, TierMedium}}
)

func levelFor(score int, cuts []levelCut) Tier {
	for _, c := range cuts {
		if score >= c.min {
			return c.tier
		}
	}
	return TierLow
}

func clampScore(score int) int {
	if score > 100 {
		return 100
	}
	return score
}

// ScoreRisk walks the pattern list in order and applies at most one rule per
// pattern. Factors keep the pattern order so the report reads in detection
// order.
func ScoreRisk(patterns []Pattern) RiskAssessment {
	score := 0
	factors := []string{}

	for _, p := range patterns {
		switch q := p.(type) {
		case MicroDouble:
			if q.Strength >= riskMicroStrengthMin {
				score += riskPointsMicroDouble
				factors = append(factors, "critical 2x2 block pattern")
			}
		case MicroAlternation:
			if q.Strength >= riskMicroStrengthMin {
				score += riskPointsAlternation
				factors = append(factors, "artificial alternation at critical level")
			}
		case HiddenCycle:
			if q.Repetitions >= riskCycleRepetitionMin {
				score += riskPointsCycle
				factors = append(factors, fmt.Sprintf("programmed cycle active (%dx)", q.Repetitions))
			}
		case ArtificialBalance:
			score += riskPointsBalance
			factors = append(factors, "forced artificial balance")
		case IntentionalBreak:
			score += riskPointsBreak
			factors = append(factors, "intentional sequence break")
		case TieAfterSequence, TieBeforeReversal:
			score += riskPointsStrategicTie
			factors = append(factors, "strategic tie placement")
		}
	}

	return RiskAssessment{
		Level:   levelFor(score, riskLevels),
		Score:   clampScore(score),
		Factors: factors,
	}
}

// ScoreManipulation buckets each pattern by predictability. Patterns below
// 70 contribute nothing.
func ScoreManipulation(patterns []Pattern) ManipulationAssessment {
	score := 0
	signs := []string{}

	for _, p := range patterns {
		b := p.base()
		switch {
		case b.Predictability >= 90:
			score += manipPointsHigh
			signs = append(signs, "highly artificial pattern: "+b.Description)
		case b.Predictability >= 80:
			score += manipPointsMedium
			signs = append(signs, "programmed pattern: "+b.Description)
		case b.Predictability >= 70:
			score += manipPointsLow
			signs = append(signs, "suspicious pattern: "+b.Description)
		}
	}

	return ManipulationAssessment{
		Level: levelFor(score, manipLevels),
		Score: clampScore(score),
		Signs: signs,
	}
}
