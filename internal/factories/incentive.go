package factories

import (
	"github.com/lucsky/cuid"

	"github.com/chrisdamba/partnerconsole/internal/models"
)

type IncentiveFactory struct{}

// CreateIncentive returns an incentive of the given type running between
// start and end ("HH:MM", either may be empty).
func (inf *IncentiveFactory) CreateIncentive(kind string, target float64, start, end string) models.Incentive {
	return models.Incentive{
		ID:          cuid.New(),
		Type:        kind,
		Target:      target,
		Reward:      fake.Float64(0, 50, 500),
		StartTime:   start,
		EndTime:     end,
		Title:       fake.Lorem().Sentence(3),
		Description: fake.Lorem().Sentence(8),
		Color:       fake.Color().Hex(),
	}
}
