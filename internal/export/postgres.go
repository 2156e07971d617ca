package export

import (
	"context"

	"github.com/chrisdamba/partnerconsole/internal/models"
	"github.com/chrisdamba/partnerconsole/internal/repositories"
)

// PostgresDestination upserts each delivery by order id, so re-exporting
// the same history is idempotent.
type PostgresDestination struct {
	repo    repositories.DeliveryHistoryRepository
	release func()
}

func NewPostgresDestination(repo repositories.DeliveryHistoryRepository, release func()) *PostgresDestination {
	return &PostgresDestination{repo: repo, release: release}
}

func (p *PostgresDestination) Write(ctx context.Context, record models.HistoryRecord) error {
	return p.repo.Upsert(ctx, record)
}

func (p *PostgresDestination) Close() error {
	if p.release != nil {
		p.release()
	}
	return nil
}
