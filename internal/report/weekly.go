package report

import (
	"fmt"
	"strings"

	"github.com/penwyp/go-claude-spend/internal/classify"
	"github.com/penwyp/go-claude-spend/internal/core/model"
	"github.com/penwyp/go-claude-spend/internal/util"
)

// Anomaly rule constants. The economy-equivalent fraction is a
// deliberate fixed approximation of what the same calls would cost on
// an economy model, not a token-accurate recomputation.
const (
	compactionCallThreshold = 10
	compactionRecoverable   = 0.30
	economyEquivalent       = 0.08
	costlyCallThreshold     = 0.50
)

// issue is one matched anomaly rule.
type issue struct {
	text    string
	savings float64
}

// Weekly renders the composite report: headline totals, ranked
// contexts, matched anomaly rules, and the summed savings estimate.
func (r *Reporter) Weekly() string {
	var sb strings.Builder
	sb.WriteString(rule() + "\n")
	sb.WriteString("Claude API Spend: Weekly Report\n")
	sb.WriteString(rule() + "\n\n")

	if r.Empty() {
		sb.WriteString("No calls recorded in this window\n")
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("Total: %d calls, %s\n\n",
		len(r.records), util.FormatCurrency(r.grouping.TotalCost)))

	for i, group := range r.grouping.TopByCost(5) {
		pct := percentOf(group.Cost, r.grouping.TotalCost)
		sb.WriteString(fmt.Sprintf("%2d. %s  %s (%s, %d calls, %s)\n",
			i+1, group.Name, util.FormatCurrency(group.Cost), util.FormatPercent(pct),
			group.CallCount(), modelTally(group.ModelCalls)))
	}
	sb.WriteString("\n")

	issues := r.runAnomalyRules()
	if len(issues) == 0 {
		sb.WriteString("Usage looks healthy, no issues found\n")
		return sb.String()
	}

	sb.WriteString("Issues:\n")
	var totalSavings float64
	for _, iss := range issues {
		sb.WriteString(fmt.Sprintf("  - %s\n", iss.text))
		totalSavings += iss.savings
	}
	sb.WriteString(fmt.Sprintf("\nEstimated savings: %s\n", util.FormatCurrency(totalSavings)))
	return sb.String()
}

// runAnomalyRules evaluates the fixed rule set over the grouped data.
func (r *Reporter) runAnomalyRules() []issue {
	var issues []issue

	// Compaction volume: heavy compaction traffic means context is
	// being refilled and re-summarized too often.
	if group := r.grouping.Get(classify.ContextCompaction); group != nil {
		if group.CallCount() > compactionCallThreshold {
			recoverable := group.Cost * compactionRecoverable
			issues = append(issues, issue{
				text: fmt.Sprintf("High compaction volume: %d calls costing %s; shorter sessions could recover ~%s",
					group.CallCount(), util.FormatCurrency(group.Cost), util.FormatCurrency(recoverable)),
				savings: recoverable,
			})
		}
	}

	// Model misuse: summarization-shaped tasks running on anything
	// outside the economy set.
	for _, group := range r.grouping.Groups {
		if !classify.IsSummarizationContext(group.Name) {
			continue
		}
		var misusedCalls int
		var misusedCost float64
		for _, rec := range group.Records {
			if !isEconomyModel(rec.Model) {
				misusedCalls++
				misusedCost += rec.Cost
			}
		}
		if misusedCalls == 0 {
			continue
		}
		savings := misusedCost - misusedCost*economyEquivalent
		issues = append(issues, issue{
			text: fmt.Sprintf("%s runs %d summarization calls on premium models (%s); an economy model would save ~%s",
				group.Name, misusedCalls, util.FormatCurrency(misusedCost), util.FormatCurrency(savings)),
			savings: savings,
		})
	}

	// Single costly calls.
	for _, rec := range r.records {
		if rec.Cost > costlyCallThreshold {
			issues = append(issues, issue{
				text: fmt.Sprintf("Costly call: %s on %s at %s (%s)",
					util.FormatCost(rec.Cost), util.SimplifyModelName(rec.Model),
					util.FormatTimestamp(rec.Timestamp), classify.Normalize(rec.Context)),
			})
		}
	}

	return issues
}

// isEconomyModel reports whether a model belongs to the cheap tier.
func isEconomyModel(modelName string) bool {
	if modelName == model.ModelHaiku35 {
		return true
	}
	return strings.Contains(strings.ToLower(modelName), "haiku")
}
