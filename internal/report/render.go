package report

import (
	"fmt"
	"strings"

	"github.com/penwyp/go-claude-spend/internal/util"
)

const (
	ruleWidth   = 60
	barMaxWidth = 30
)

// renderWidth caps rules at ruleWidth but shrinks on narrow terminals.
func renderWidth() int {
	if w := util.TerminalWidth(); w < ruleWidth {
		return w
	}
	return ruleWidth
}

func rule() string {
	return strings.Repeat("=", renderWidth())
}

func thinRule() string {
	return strings.Repeat("-", renderWidth())
}

// bar renders a proportional histogram bar scaled against the busiest
// bucket.
func bar(value, max int) string {
	if max <= 0 || value <= 0 {
		return ""
	}
	width := value * barMaxWidth / max
	if width == 0 {
		width = 1
	}
	return strings.Repeat("█", width)
}

// modelTally renders per-model call counts in fixed model order,
// e.g. "Opus-4 x2, Sonnet-4 x12".
func modelTally(calls map[string]int) string {
	names := make([]string, 0, len(calls))
	for name := range calls {
		names = append(names, name)
	}
	parts := make([]string, 0, len(names))
	for _, name := range util.SortModels(names) {
		parts = append(parts, fmt.Sprintf("%s x%d", util.SimplifyModelName(name), calls[name]))
	}
	return strings.Join(parts, ", ")
}

func percentOf(part, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return part / total
}
