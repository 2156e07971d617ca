package repositories

import (
	"context"

	"github.com/chrisdamba/partnerconsole/internal/models"
)

type DeliveryHistoryRepository interface {
	EnsureSchema(ctx context.Context) error
	Upsert(ctx context.Context, record models.HistoryRecord) error
	BulkUpsert(ctx context.Context, records []models.HistoryRecord) error
	CountByPartner(ctx context.Context, partnerID string) (int, error)
	DeleteAll(ctx context.Context) error
}
