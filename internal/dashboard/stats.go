package dashboard

import (
	"sort"
	"time"

	"github.com/chrisdamba/partnerconsole/internal/models"
)

// ComputeStats derives the summary counters from completed deliveries. All
// windows end at now and include both bounds. Earnings are a flat rate per
// delivery; ActiveOrders counts every order on the board.
func ComputeStats(history, orders []models.Order, now time.Time, rate, avgRating float64) models.DeliveryStats {
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekStart := now.Add(-7 * 24 * time.Hour)
	monthStart := now.AddDate(0, -1, 0)

	var stats models.DeliveryStats
	for _, o := range history {
		t := o.UpdatedAt
		if inWindow(t, todayStart, now) {
			stats.TodayDeliveries++
		}
		if inWindow(t, weekStart, now) {
			stats.WeekDeliveries++
		}
		if inWindow(t, monthStart, now) {
			stats.MonthDeliveries++
		}
	}
	stats.TodayEarnings = float64(stats.TodayDeliveries) * rate
	stats.MonthEarnings = float64(stats.MonthDeliveries) * rate
	stats.AverageRating = avgRating
	stats.ActiveOrders = len(orders)
	stats.TotalDeliveries = len(history)
	return stats
}

func inWindow(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}

// recent returns up to limit history entries, newest first.
func recent(history []models.Order, limit int) []models.Order {
	sorted := make([]models.Order, len(history))
	copy(sorted, history)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].UpdatedAt.After(sorted[j].UpdatedAt)
	})
	if limit >= 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}
