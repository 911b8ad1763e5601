package util

import (
	"regexp"
	"sort"
	"strings"
)

var modelDateSuffix = regexp.MustCompile(`^claude-(.+?)-(\d{8})$`)

// SimplifyModelName transforms model names for display.
// Pattern: claude-{model-name}-{date} -> {Model-name} (first letter capitalized)
func SimplifyModelName(modelName string) string {
	matches := modelDateSuffix.FindStringSubmatch(modelName)
	if len(matches) == 3 {
		modelPart := matches[1]
		if len(modelPart) > 0 {
			return strings.ToUpper(string(modelPart[0])) + modelPart[1:]
		}
		return modelPart
	}
	return modelName
}

// GetModelOrder returns the sort order for a model (lower number = higher priority)
func GetModelOrder(modelName string) int {
	lower := strings.ToLower(SimplifyModelName(modelName))

	if strings.Contains(lower, "opus") {
		return 1
	}
	if strings.Contains(lower, "sonnet") {
		return 2
	}
	if strings.Contains(lower, "haiku") {
		return 3
	}
	return 100
}

// SortModels sorts a slice of model names by priority, then alphabetically.
func SortModels(models []string) []string {
	sorted := make([]string, len(models))
	copy(sorted, models)

	sort.Slice(sorted, func(i, j int) bool {
		orderI := GetModelOrder(sorted[i])
		orderJ := GetModelOrder(sorted[j])
		if orderI != orderJ {
			return orderI < orderJ
		}
		return sorted[i] < sorted[j]
	})

	return sorted
}
