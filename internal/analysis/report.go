package analysis

import (
	"fmt"
	"strings"

	"github.com/mbd888/shoewatch/internal/outcome"
)

// RenderReport formats one result as plain text for the CLI and MCP tools.
// History renders newest-last in letter form, matching how operators read a
// bead road left to right.
func RenderReport(history []outcome.Outcome, r *Result) string {
	var b strings.Builder

	players, bankers, ties := outcome.Counts(history)
	fmt.Fprintf(&b, "shoe: %s\n", letterOrDash(history))
	fmt.Fprintf(&b, "rounds: %d (player %d / banker %d / tie %d)\n",
		len(history), players, bankers, ties)

	if len(r.Patterns) == 0 {
		b.WriteString("patterns: none\n")
	} else {
		fmt.Fprintf(&b, "patterns (%d):\n", len(r.Patterns))
		for _, p := range r.Patterns {
			base := p.base()
			fmt.Fprintf(&b, "  [%s] %s (strength %.2f, predictability %d)\n",
				base.Tier, base.Description, base.Strength, base.Predictability)
		}
	}

	fmt.Fprintf(&b, "risk: %s (%d/100)\n", r.Risk.Level, r.Risk.Score)
	for _, f := range r.Risk.Factors {
		fmt.Fprintf(&b, "  - %s\n", f)
	}
	fmt.Fprintf(&b, "manipulation: %s (%d/100)\n", r.Manipulation.Level, r.Manipulation.Score)
	for _, s := range r.Manipulation.Signs {
		fmt.Fprintf(&b, "  - %s\n", s)
	}

	fmt.Fprintf(&b, "strategy: %s\n", r.Prediction.Strategy)
	if r.Prediction.Color != "" {
		fmt.Fprintf(&b, "next call: %s (%.1f%% confidence)\n",
			r.Prediction.Color, r.Prediction.Confidence)
	}
	if r.Prediction.Reasoning != "" {
		fmt.Fprintf(&b, "reasoning: %s\n", r.Prediction.Reasoning)
	}

	return b.String()
}

func letterOrDash(history []outcome.Outcome) string {
	if len(history) == 0 {
		return "-"
	}
	return outcome.Letters(history)
}
