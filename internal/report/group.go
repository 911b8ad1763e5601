package report

import (
	"sort"

	"github.com/penwyp/go-claude-spend/internal/classify"
	"github.com/penwyp/go-claude-spend/internal/core/model"
)

// ContextGroup collects the records sharing one canonical context,
// plus derived totals. Rebuilt on every report run; it has no
// lifecycle beyond that.
type ContextGroup struct {
	Name             string
	Records          []model.CallRecord
	Cost             float64
	InputTokens      int
	OutputTokens     int
	CacheReadTokens  int
	CacheWriteTokens int
	ModelCalls       map[string]int
}

// CallCount returns the number of records in the group.
func (g *ContextGroup) CallCount() int {
	return len(g.Records)
}

// Grouping is the per-run aggregation of a record window, keyed by
// canonical context and ordered by first appearance.
type Grouping struct {
	Groups    []*ContextGroup
	TotalCost float64
	byName    map[string]*ContextGroup
}

// GroupByContext folds records into canonical context groups,
// preserving insertion order of first appearance.
func GroupByContext(records []model.CallRecord) *Grouping {
	grouping := &Grouping{byName: make(map[string]*ContextGroup)}

	for _, rec := range records {
		name := classify.Normalize(rec.Context)
		group, ok := grouping.byName[name]
		if !ok {
			group = &ContextGroup{Name: name, ModelCalls: make(map[string]int)}
			grouping.byName[name] = group
			grouping.Groups = append(grouping.Groups, group)
		}
		group.Records = append(group.Records, rec)
		group.Cost += rec.Cost
		group.InputTokens += rec.InputTokens
		group.OutputTokens += rec.OutputTokens
		group.CacheReadTokens += rec.CacheReadTokens
		group.CacheWriteTokens += rec.CacheWriteTokens
		group.ModelCalls[rec.Model]++
		grouping.TotalCost += rec.Cost
	}
	return grouping
}

// Get returns the group for an exact canonical name, or nil.
func (g *Grouping) Get(name string) *ContextGroup {
	return g.byName[name]
}

// Names returns the canonical context names in insertion order.
func (g *Grouping) Names() []string {
	names := make([]string, 0, len(g.Groups))
	for _, group := range g.Groups {
		names = append(names, group.Name)
	}
	return names
}

// TopByCost returns up to n groups sorted descending by cost. Ties
// keep insertion order (stable sort over the appearance ordering).
func (g *Grouping) TopByCost(n int) []*ContextGroup {
	sorted := make([]*ContextGroup, len(g.Groups))
	copy(sorted, g.Groups)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Cost > sorted[j].Cost
	})
	if n > 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
