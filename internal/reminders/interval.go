package reminders

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var monthCount = regexp.MustCompile(`(\d+)\s*month`)

// ExtractIntervalMonths turns a free-text program frequency into a month
// count. Matching is by substring and case-insensitive, checked in order:
// "month" (with a leading number), "year", "quarter", "week". A weekly
// cadence is approximated to one month. 0 means no periodic projection.
func ExtractIntervalMonths(frequency string) int {
	f := strings.ToLower(frequency)

	if strings.Contains(f, "month") {
		m := monthCount.FindStringSubmatch(f)
		if m == nil {
			return 0
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return 0
		}
		return n
	}
	if strings.Contains(f, "year") || f == "yearly" {
		return 12
	}
	if strings.Contains(f, "quarter") {
		return 3
	}
	if strings.Contains(f, "week") {
		return 1
	}
	return 0
}

var taskIntervals = []struct {
	keywords []string
	months   int
}{
	{[]string{"vidange", "oil"}, 6},
	{[]string{"filtre", "filter"}, 12},
	{[]string{"pneu", "tire"}, 12},
	{[]string{"frein", "brake"}, 24},
	{[]string{"batterie", "battery"}, 36},
	{[]string{"courroie", "belt"}, 60},
}

// DefaultTaskInterval applies when no keyword matches a task name.
const DefaultTaskInterval = 12

// DefaultIntervalForTask returns the recurrence of a service task from its
// name; the first matching keyword row wins.
func DefaultIntervalForTask(taskName string) int {
	name := strings.ToLower(taskName)
	for _, row := range taskIntervals {
		for _, kw := range row.keywords {
			if strings.Contains(name, kw) {
				return row.months
			}
		}
	}
	return DefaultTaskInterval
}

// AddMonths adds calendar months, normalising day overflow the way
// time.AddDate does (Jan 31 + 1 month = Mar 2 or 3).
func AddMonths(t time.Time, months int) time.Time {
	return t.AddDate(0, months, 0)
}

// DaysOverdue is the number of started days between due and now.
func DaysOverdue(now, due time.Time) int {
	return int(math.Ceil(now.Sub(due).Hours() / 24))
}
