package analysis

import (
	"fmt"

	"github.com/mbd888/shoewatch/internal/outcome"
)

// Minimum history each detector needs before it produces anything. Shorter
// histories are skipped silently, never an error.
const (
	minMicroHistory        = 6
	minAlternationNonTies  = 6
	alternationWindow      = 8
	minCycleNonTies        = 12
	cycleMinLength         = 3
	cycleMaxLength         = 6
	minCompensationNonTies = 20
	minTieHistory          = 8
)

// compensationWindows are the trailing non-tie window sizes the compensation
// detector inspects, ascending.
var compensationWindows = []int{12, 15, 18}

const (
	balancedRatioMax = 0.1
	skewedRatioMin   = 0.4
	minBalanceWindow = 15
)

// DetectMicroPatterns finds short-range forcing in the most recent rounds:
// repeated 2x2 blocks and near-perfect alternation.
func DetectMicroPatterns(seq []outcome.Outcome) []Pattern {
	if len(seq) < minMicroHistory {
		return nil
	}
	var patterns []Pattern

	// Three adjacent pairs across the last six rounds. Ties never pair.
	last6 := seq[len(seq)-6:]
	pairs := 0
	for i := 0; i+1 < 6; i += 2 {
		if last6[i] == last6[i+1] && last6[i] != outcome.Tie {
			pairs++
		}
	}
	if pairs >= 2 {
		tier := TierHigh
		note := "elevated block repetition"
		if pairs == 3 {
			tier = TierCritical
			note = "system forcing a block pattern"
		}
		patterns = append(patterns, MicroDouble{
			Base: Base{
				Strength:         float64(pairs) / 3,
				Tier:             tier,
				Description:      fmt.Sprintf("2x2 block pattern in the last 6 rounds (%d/3 pairs)", pairs),
				ManipulationNote: note,
				Predictability:   85,
			},
			PairCount: pairs,
		})
	}

	// Flip count over the six most recent non-tie rounds, looked at through
	// an eight-round window.
	nonTie := outcome.WithoutTies(seq)
	if len(nonTie) >= minAlternationNonTies {
		window := nonTie
		if len(window) > alternationWindow {
			window = window[len(window)-alternationWindow:]
		}
		tail := window[len(window)-6:]
		flips := 0
		for i := 1; i < len(tail); i++ {
			if tail[i] != tail[i-1] {
				flips++
			}
		}
		if flips >= 4 {
			tier := TierHigh
			if flips == 5 {
				tier = TierCritical
			}
			patterns = append(patterns, MicroAlternation{
				Base: Base{
					Strength:         float64(flips) / 5,
					Tier:             tier,
					Description:      fmt.Sprintf("forced alternation in recent rounds (%d/5 flips)", flips),
					ManipulationNote: "system inducing artificial alternation",
					Predictability:   90,
				},
				FlipCount: flips,
			})
		}
	}

	return patterns
}

// DetectHiddenCycles looks for fixed-length subsequences recurring through
// the non-tie history. One pattern may be emitted per candidate length,
// ascending.
func DetectHiddenCycles(seq []outcome.Outcome) []Pattern {
	nonTie := outcome.WithoutTies(seq)
	if len(nonTie) < minCycleNonTies {
		return nil
	}
	var patterns []Pattern

	for length := cycleMinLength; length <= cycleMaxLength; length++ {
		// Slide a window of the candidate length, counting each distinct
		// subsequence. Keys are the compact letter form, one byte per
		// outcome, so distinct windows never collide.
		counts := make(map[string]int)
		firstAt := make(map[string]int)
		var order []string
		for i := 0; i+length <= len(nonTie); i++ {
			k := outcome.Letters(nonTie[i : i+length])
			if counts[k] == 0 {
				firstAt[k] = i
				order = append(order, k)
			}
			counts[k]++
		}

		// Highest count wins; at equal counts the subsequence seen first
		// wins. Pinned by tests, stored results depend on it.
		bestKey := ""
		bestCount := 0
		for _, k := range order {
			if c := counts[k]; c >= 2 && c > bestCount {
				bestKey, bestCount = k, c
			}
		}
		if bestCount < 2 {
			continue
		}

		start := firstAt[bestKey]
		cycle := append([]outcome.Outcome(nil), nonTie[start:start+length]...)
		strength := float64(bestCount) / 3
		if strength > 1 {
			strength = 1
		}
		tier := TierMedium
		note := "possible induced cycle"
		if bestCount >= 3 {
			tier = TierHigh
			note = "system running a programmed cycle"
		}
		predictability := 70 + 5*bestCount
		if predictability > 100 {
			predictability = 100
		}
		patterns = append(patterns, HiddenCycle{
			Base: Base{
				Strength:         strength,
				Tier:             tier,
				Description:      fmt.Sprintf("cycle %s repeating through the shoe (%dx)", bestKey, bestCount),
				ManipulationNote: note,
				Predictability:   predictability,
			},
			CycleLength: length,
			Cycle:       cycle,
			Repetitions: bestCount,
		})
	}

	return patterns
}

// DetectCompensation measures player/banker balance over trailing windows of
// the non-tie history, flagging both suspiciously even splits and heavy
// one-sided stretches.
func DetectCompensation(seq []outcome.Outcome) []Pattern {
	nonTie := outcome.WithoutTies(seq)
	if len(nonTie) < minCompensationNonTies {
		return nil
	}
	var patterns []Pattern

	for _, w := range compensationWindows {
		if len(nonTie) < w {
			continue
		}
		window := nonTie[len(nonTie)-w:]
		players, bankers, _ := outcome.Counts(window)
		imbalance := players - bankers
		if imbalance < 0 {
			imbalance = -imbalance
		}
		ratio := float64(imbalance) / float64(w)

		switch {
		case ratio < balancedRatioMax && w >= minBalanceWindow:
			patterns = append(patterns, ArtificialBalance{
				Base: Base{
					Strength:         1 - ratio,
					Tier:             TierHigh,
					Description:      fmt.Sprintf("near-even split over the last %d rounds (%d player / %d banker)", w, players, bankers),
					ManipulationNote: "system forcing a 50/50 distribution",
					Predictability:   85,
				},
				WindowSize:  w,
				PlayerCount: players,
				BankerCount: bankers,
			})
		case ratio > skewedRatioMin:
			favored := outcome.Banker
			if players < bankers {
				favored = outcome.Player
			}
			patterns = append(patterns, CompensationPending{
				Base: Base{
					Strength:         ratio,
					Tier:             TierMedium,
					Description:      fmt.Sprintf("one-sided stretch over the last %d rounds (%d player / %d banker)", w, players, bankers),
					ManipulationNote: fmt.Sprintf("swing back toward %s expected", favored),
					Predictability:   int(60 + 20*ratio),
				},
				WindowSize:  w,
				PlayerCount: players,
				BankerCount: bankers,
				Imbalance:   imbalance,
				Favored:     favored,
			})
		}
	}

	return patterns
}

// DetectStrategicTies inspects every tie against its surrounding rounds. A
// single tie can emit both kinds.
func DetectStrategicTies(seq []outcome.Outcome) []Pattern {
	if len(seq) < minTieHistory {
		return nil
	}
	var patterns []Pattern

	for i, o := range seq {
		if o != outcome.Tie || i < 3 {
			continue
		}
		before := seq[i-3 : i]
		end := i + 4
		if end > len(seq) {
			end = len(seq)
		}
		after := seq[i+1 : end]

		// Tie dropped right after a same-color run.
		last := before[2]
		if last != outcome.Tie && before[1] == last {
			run := 1
			for j := 1; j >= 0 && before[j] == last; j-- {
				run++
			}
			patterns = append(patterns, TieAfterSequence{
				Base: Base{
					Strength:         0.7,
					Tier:             TierHigh,
					Description:      fmt.Sprintf("tie at position %d after a %dx %s run", i, run, last),
					ManipulationNote: "tie used to break momentum",
					Predictability:   75,
				},
				Position:  i,
				RunColor:  last,
				RunLength: run,
			})
		}

		// Tie separating two different colors.
		if len(after) >= 2 && last != outcome.Tie && after[0] != outcome.Tie && last != after[0] {
			patterns = append(patterns, TieBeforeReversal{
				Base: Base{
					Strength:         0.8,
					Tier:             TierHigh,
					Description:      fmt.Sprintf("tie at position %d before a %s to %s reversal", i, last, after[0]),
					ManipulationNote: "tie used to mask a directed reversal",
					Predictability:   80,
				},
				Position: i,
				From:     last,
				To:       after[0],
			})
		}
	}

	return patterns
}
