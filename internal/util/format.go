package util

import (
	"fmt"
	"strings"
)

// FormatNumber renders token counts compactly (1.2K, 3.4M).
func FormatNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	} else if n < 1000000 {
		return fmt.Sprintf("%.1fK", float64(n)/1000)
	} else {
		return fmt.Sprintf("%.1fM", float64(n)/1000000)
	}
}

// FormatCurrency renders a dollar amount with comma separators and two
// decimal places.
func FormatCurrency(amount float64) string {
	str := fmt.Sprintf("%.2f", amount)

	parts := strings.Split(str, ".")
	intPart := parts[0]
	decPart := ""
	if len(parts) > 1 {
		decPart = parts[1]
	}

	// Add commas to integer part, right to left
	if len(intPart) > 3 {
		chars := []rune(intPart)
		result := []rune{}
		for i := len(chars) - 1; i >= 0; i-- {
			if len(result) > 0 && len(result)%4 == 3 {
				result = append([]rune{','}, result...)
			}
			result = append([]rune{chars[i]}, result...)
		}
		intPart = string(result)
	}

	if decPart != "" {
		return fmt.Sprintf("$%s.%s", intPart, decPart)
	}
	return fmt.Sprintf("$%s.00", intPart)
}

// FormatCost renders small per-call amounts with enough precision to
// keep sub-cent differences visible.
func FormatCost(amount float64) string {
	if amount >= 1 {
		return fmt.Sprintf("$%.2f", amount)
	}
	return fmt.Sprintf("$%.4f", amount)
}

// FormatPercent renders a ratio (0..1) as a percentage with one decimal.
func FormatPercent(ratio float64) string {
	return fmt.Sprintf("%.1f%%", ratio*100)
}

// TruncateText cuts s at max runes, appending an ellipsis when cut.
func TruncateText(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
