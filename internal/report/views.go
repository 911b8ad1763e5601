package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/penwyp/go-claude-spend/internal/core/model"
	"github.com/penwyp/go-claude-spend/internal/util"
)

// Reporter renders the query views over one loaded record window.
// It is read-only relative to the sink; running it concurrently with
// interception is safe.
type Reporter struct {
	records  []model.CallRecord
	grouping *Grouping
}

// NewReporter builds a reporter over a record window. Grouping is
// rebuilt here on every invocation.
func NewReporter(records []model.CallRecord) *Reporter {
	return &Reporter{
		records:  records,
		grouping: GroupByContext(records),
	}
}

// Empty reports whether the window holds no records.
func (r *Reporter) Empty() bool {
	return len(r.records) == 0
}

// Summary renders per-model totals: call count, cost, tokens, average
// cost per call.
func (r *Reporter) Summary() string {
	var sb strings.Builder
	sb.WriteString(rule() + "\n")
	sb.WriteString("Claude API Spend Summary\n")
	sb.WriteString(rule() + "\n\n")

	if r.Empty() {
		sb.WriteString("No calls recorded in this window\n")
		return sb.String()
	}

	type modelStat struct {
		name   string
		calls  int
		cost   float64
		input  int
		output int
		cache  int
	}
	stats := make(map[string]*modelStat)
	var names []string
	var totalCost float64

	for _, rec := range r.records {
		stat, ok := stats[rec.Model]
		if !ok {
			stat = &modelStat{name: rec.Model}
			stats[rec.Model] = stat
			names = append(names, rec.Model)
		}
		stat.calls++
		stat.cost += rec.Cost
		stat.input += rec.InputTokens
		stat.output += rec.OutputTokens
		stat.cache += rec.CacheReadTokens + rec.CacheWriteTokens
		totalCost += rec.Cost
	}

	for _, name := range util.SortModels(names) {
		stat := stats[name]
		sb.WriteString(fmt.Sprintf("%s\n", util.SimplifyModelName(name)))
		sb.WriteString(fmt.Sprintf("  Calls: %d\n", stat.calls))
		sb.WriteString(fmt.Sprintf("  Cost: %s (avg %s/call)\n",
			util.FormatCurrency(stat.cost), util.FormatCost(stat.cost/float64(stat.calls))))
		sb.WriteString(fmt.Sprintf("  Tokens: %s in / %s out / %s cache\n",
			util.FormatNumber(stat.input), util.FormatNumber(stat.output), util.FormatNumber(stat.cache)))
		sb.WriteString("\n")
	}

	sb.WriteString(thinRule() + "\n")
	sb.WriteString(fmt.Sprintf("Total: %d calls, %s\n", len(r.records), util.FormatCurrency(totalCost)))
	return sb.String()
}

// TopContexts renders the n most expensive canonical contexts with
// percentage-of-total and per-model call tallies.
func (r *Reporter) TopContexts(n int) string {
	var sb strings.Builder
	sb.WriteString(rule() + "\n")
	sb.WriteString(fmt.Sprintf("Top Contexts by Cost (top %d)\n", n))
	sb.WriteString(rule() + "\n\n")

	if r.Empty() {
		sb.WriteString("No calls recorded in this window\n")
		return sb.String()
	}

	for i, group := range r.grouping.TopByCost(n) {
		pct := percentOf(group.Cost, r.grouping.TotalCost)
		sb.WriteString(fmt.Sprintf("%2d. %s  %s (%s, %d calls)\n",
			i+1, group.Name, util.FormatCurrency(group.Cost), util.FormatPercent(pct), group.CallCount()))
		sb.WriteString(fmt.Sprintf("    Models: %s\n", modelTally(group.ModelCalls)))
	}
	return sb.String()
}

// Breakdown renders a single-context deep dive: totals plus the five
// most expensive calls. An unrecognized name is a user-visible "not
// found" message listing the available canonical contexts.
func (r *Reporter) Breakdown(name string) string {
	group := r.findGroup(name)
	if group == nil {
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("Context %q not found\n", name))
		if names := r.grouping.Names(); len(names) > 0 {
			sb.WriteString("Available contexts:\n")
			for _, n := range names {
				sb.WriteString(fmt.Sprintf("  - %s\n", n))
			}
		}
		return sb.String()
	}

	var sb strings.Builder
	sb.WriteString(rule() + "\n")
	sb.WriteString(fmt.Sprintf("Context Breakdown: %s\n", group.Name))
	sb.WriteString(rule() + "\n\n")

	pct := percentOf(group.Cost, r.grouping.TotalCost)
	sb.WriteString(fmt.Sprintf("Calls: %d\n", group.CallCount()))
	sb.WriteString(fmt.Sprintf("Cost: %s (%s of total)\n", util.FormatCurrency(group.Cost), util.FormatPercent(pct)))
	sb.WriteString(fmt.Sprintf("Tokens: %s in / %s out\n",
		util.FormatNumber(group.InputTokens), util.FormatNumber(group.OutputTokens)))
	sb.WriteString(fmt.Sprintf("Models: %s\n\n", modelTally(group.ModelCalls)))

	sb.WriteString("Most expensive calls:\n")
	top := make([]model.CallRecord, len(group.Records))
	copy(top, group.Records)
	sort.SliceStable(top, func(i, j int) bool { return top[i].Cost > top[j].Cost })
	if len(top) > 5 {
		top = top[:5]
	}
	for _, rec := range top {
		sb.WriteString(fmt.Sprintf("  %s  %s  %s  %s\n",
			util.FormatTimestamp(rec.Timestamp), util.FormatCost(rec.Cost),
			util.SimplifyModelName(rec.Model), util.TruncateText(rec.Preview, 40)))
	}
	return sb.String()
}

// findGroup resolves a context query by exact canonical name first,
// then case-insensitive substring.
func (r *Reporter) findGroup(name string) *ContextGroup {
	if group := r.grouping.Get(name); group != nil {
		return group
	}
	lower := strings.ToLower(name)
	for _, group := range r.grouping.Groups {
		if strings.Contains(strings.ToLower(group.Name), lower) {
			return group
		}
	}
	return nil
}

// Alerts renders all calls at or above the cost threshold, most
// expensive first.
func (r *Reporter) Alerts(threshold float64) string {
	var sb strings.Builder
	sb.WriteString(rule() + "\n")
	sb.WriteString(fmt.Sprintf("Calls at or above %s\n", util.FormatCost(threshold)))
	sb.WriteString(rule() + "\n\n")

	var matched []model.CallRecord
	for _, rec := range r.records {
		if rec.Cost >= threshold {
			matched = append(matched, rec)
		}
	}
	if len(matched) == 0 {
		sb.WriteString("No calls above threshold\n")
		return sb.String()
	}

	sort.SliceStable(matched, func(i, j int) bool { return matched[i].Cost > matched[j].Cost })
	for _, rec := range matched {
		sb.WriteString(fmt.Sprintf("%s  %s  %s  [%s] %s\n",
			util.FormatTimestamp(rec.Timestamp), util.FormatCost(rec.Cost),
			util.SimplifyModelName(rec.Model), rec.Context, util.TruncateText(rec.Preview, 40)))
	}
	return sb.String()
}

// Hourly renders call count and cost bucketed by hour of day, with a
// bar proportional to the busiest bucket.
func (r *Reporter) Hourly() string {
	var sb strings.Builder
	sb.WriteString(rule() + "\n")
	sb.WriteString("Hourly Activity\n")
	sb.WriteString(rule() + "\n\n")

	if r.Empty() {
		sb.WriteString("No calls recorded in this window\n")
		return sb.String()
	}

	var counts [24]int
	var costs [24]float64
	for _, rec := range r.records {
		hour := time.Unix(rec.Timestamp, 0).Hour()
		counts[hour]++
		costs[hour] += rec.Cost
	}

	busiest := 0
	for _, c := range counts {
		if c > busiest {
			busiest = c
		}
	}

	for hour := 0; hour < 24; hour++ {
		if counts[hour] == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("%02d:00  %s %d calls, %s\n",
			hour, util.PadRight(bar(counts[hour], busiest), barMaxWidth),
			counts[hour], util.FormatCost(costs[hour])))
	}
	return sb.String()
}

// Recent renders the last n calls in chronological order.
func (r *Reporter) Recent(n int) string {
	var sb strings.Builder
	sb.WriteString(rule() + "\n")
	sb.WriteString(fmt.Sprintf("Recent Calls (last %d)\n", n))
	sb.WriteString(rule() + "\n\n")

	if r.Empty() {
		sb.WriteString("No calls recorded in this window\n")
		return sb.String()
	}

	recs := make([]model.CallRecord, len(r.records))
	copy(recs, r.records)
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Timestamp < recs[j].Timestamp })
	if len(recs) > n {
		recs = recs[len(recs)-n:]
	}
	for _, rec := range recs {
		streamMark := ""
		if rec.Stream {
			streamMark = " ~"
		}
		sb.WriteString(fmt.Sprintf("%s  %s  %s  [%s]%s %s\n",
			util.FormatTimestamp(rec.Timestamp), util.FormatCost(rec.Cost),
			util.SimplifyModelName(rec.Model), rec.Context, streamMark,
			util.TruncateText(rec.Preview, 40)))
	}
	return sb.String()
}
