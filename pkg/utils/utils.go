package utils

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const day = 24 * time.Hour

// DaysBetweenCeil returns the whole days from start to end, rounded up.
// Returns 0 when end is not after start.
func DaysBetweenCeil(start, end time.Time) int {
	if !end.After(start) {
		return 0
	}
	return int(math.Ceil(float64(end.Sub(start)) / float64(day)))
}

// StartOfDay truncates t to midnight in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// MonthBounds parses YYYY-MM and returns the first day of that month and of the next one.
func MonthBounds(month string) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01", strings.TrimSpace(month))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid month %q, expected YYYY-MM: %w", month, err)
	}
	return start, start.AddDate(0, 1, 0), nil
}

// IsDateOverdue checks if dueDate is strictly before asOf
func IsDateOverdue(dueDate, asOf time.Time) bool {
	return dueDate.Before(asOf)
}

// FormatAmount renders an amount with dot thousand separators, the es-PY convention.
func FormatAmount(amount decimal.Decimal, places int32) string {
	s := amount.Abs().StringFixed(places)

	intPart, fracPart := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i+1:]
	}

	var b strings.Builder
	if amount.IsNegative() {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if fracPart != "" {
		b.WriteByte(',')
		b.WriteString(fracPart)
	}
	return b.String()
}
