// Package incentive derives live status and progress for promotional
// delivery targets.
package incentive

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/chrisdamba/partnerconsole/internal/models"
)

type Status struct {
	Incentive models.Incentive
	Progress  float64 // percent, 0..100
	Active    bool
	Completed bool
}

// IsActive reports whether now falls inside the incentive's daily window.
// Windows whose end is before their start wrap past midnight. A missing or
// malformed bound means the incentive runs all day.
func IsActive(inc models.Incentive, now time.Time) bool {
	start, okStart := parseClock(inc.StartTime)
	end, okEnd := parseClock(inc.EndTime)
	if !okStart || !okEnd {
		return true
	}
	current := now.Hour()*60 + now.Minute()
	if end < start {
		return current >= start || current <= end
	}
	return current >= start && current <= end
}

// Progress is the completion percentage against the target, capped at 100.
// A zero target counts as already met.
func Progress(inc models.Incentive, stats models.DeliveryStats) float64 {
	if inc.Target <= 0 {
		return 100
	}
	var count int
	switch inc.Type {
	case models.IncentiveTypeDaily:
		count = stats.TodayDeliveries
	case models.IncentiveTypeWeekly:
		count = stats.WeekDeliveries
	}
	return math.Min(100, 100*float64(count)/inc.Target)
}

func Evaluate(incentives []models.Incentive, stats models.DeliveryStats, now time.Time) []Status {
	out := make([]Status, 0, len(incentives))
	for _, inc := range incentives {
		p := Progress(inc, stats)
		out = append(out, Status{
			Incentive: inc,
			Progress:  p,
			Active:    IsActive(inc, now),
			Completed: p >= 100,
		})
	}
	return out
}

// parseClock turns "HH:MM" into minutes since midnight.
func parseClock(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	hh, mm, found := strings.Cut(s, ":")
	if !found {
		return 0, false
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}
