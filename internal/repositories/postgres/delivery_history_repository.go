package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/chrisdamba/partnerconsole/internal/models"
)

// DB is satisfied by *pgxpool.Pool.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

type DeliveryHistoryRepository struct {
	pool DB
}

func NewDeliveryHistoryRepository(pool DB) *DeliveryHistoryRepository {
	return &DeliveryHistoryRepository{pool: pool}
}

const createHistoryTable = `
    CREATE TABLE IF NOT EXISTS partner_delivery_history (
        order_id           TEXT PRIMARY KEY,
        partner_id         TEXT NOT NULL,
        restaurant         TEXT NOT NULL,
        restaurant_address TEXT,
        customer_id        TEXT,
        customer_name      TEXT,
        customer_address   TEXT,
        status             TEXT NOT NULL,
        total_amount       DOUBLE PRECISION,
        earnings           DOUBLE PRECISION,
        created_at         TIMESTAMPTZ,
        delivered_at       TIMESTAMPTZ
    )
`

const upsertHistory = `
    INSERT INTO partner_delivery_history (
        order_id, partner_id, restaurant, restaurant_address,
        customer_id, customer_name, customer_address, status,
        total_amount, earnings, created_at, delivered_at
    ) VALUES (
        $1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
        to_timestamp($11::double precision / 1000),
        to_timestamp($12::double precision / 1000)
    )
    ON CONFLICT (order_id) DO UPDATE SET
        status       = EXCLUDED.status,
        total_amount = EXCLUDED.total_amount,
        earnings     = EXCLUDED.earnings,
        delivered_at = EXCLUDED.delivered_at
`

func (r *DeliveryHistoryRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, createHistoryTable); err != nil {
		return fmt.Errorf("create partner_delivery_history: %w", err)
	}
	return nil
}

func (r *DeliveryHistoryRepository) Upsert(ctx context.Context, record models.HistoryRecord) error {
	_, err := r.pool.Exec(ctx, upsertHistory, upsertArgs(record)...)
	if err != nil {
		return fmt.Errorf("upsert delivery %s: %w", record.OrderID, err)
	}
	return nil
}

func (r *DeliveryHistoryRepository) BulkUpsert(ctx context.Context, records []models.HistoryRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(upsertHistory, upsertArgs(rec)...)
	}
	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for _, rec := range records {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("upsert delivery %s: %w", rec.OrderID, err)
		}
	}
	return nil
}

func (r *DeliveryHistoryRepository) CountByPartner(ctx context.Context, partnerID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM partner_delivery_history WHERE partner_id = $1", partnerID).Scan(&count)
	return count, err
}

func (r *DeliveryHistoryRepository) DeleteAll(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM partner_delivery_history")
	return err
}

func upsertArgs(rec models.HistoryRecord) []any {
	return []any{
		rec.OrderID,
		rec.PartnerID,
		rec.Restaurant,
		rec.RestaurantAddress,
		rec.CustomerID,
		rec.CustomerName,
		rec.CustomerAddress,
		rec.Status,
		rec.TotalAmount,
		rec.Earnings,
		rec.CreatedAt,
		rec.DeliveredAt,
	}
}
