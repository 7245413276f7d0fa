package analysis

import (
	"fmt"
	"math"
	"sort"
)

// FormatElapsed renders seconds as MM:SS.sss, truncated to the millisecond.
// Minutes are not capped at 59. Negative values are floored, so -0.5 is "-1:59.500".
func FormatElapsed(seconds float64) string {
	// the epsilon keeps 10.002 from becoming 10.001 through float error
	ms := int64(math.Floor(seconds*1000 + 1e-6))

	minutes := ms / 60000
	if ms%60000 < 0 {
		minutes--
	}
	rest := ms - minutes*60000

	return fmt.Sprintf("%02d:%02d.%03d", minutes, rest/1000, rest%1000)
}

// Median of values, averaging the middle pair for an even count. NaN when empty.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// AmountRange is the smallest and largest unmitigated amount in a party profile.
func AmountRange(rows []ProfileRow) (min, max int64, ok bool) {
	if len(rows) == 0 {
		return 0, 0, false
	}

	min, max = rows[0].UnmitigatedAmount, rows[0].UnmitigatedAmount
	for _, row := range rows[1:] {
		if row.UnmitigatedAmount < min {
			min = row.UnmitigatedAmount
		}
		if row.UnmitigatedAmount > max {
			max = row.UnmitigatedAmount
		}
	}
	return min, max, true
}
