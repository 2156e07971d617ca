// Package export writes delivery history to files, object storage, a
// database or a Kafka topic.
package export

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chrisdamba/partnerconsole/internal/cloudwriter"
	"github.com/chrisdamba/partnerconsole/internal/models"
	"github.com/chrisdamba/partnerconsole/internal/repositories/postgres"
)

type Destination interface {
	Write(ctx context.Context, record models.HistoryRecord) error
	Close() error
}

// New builds the destination selected by cfg.Format.
func New(ctx context.Context, cfg models.ExportConfig) (Destination, error) {
	switch cfg.Format {
	case "json":
		return NewJSONDestination(cfg.OutputPath, cfg.OutputFolder), nil
	case "csv":
		return NewCSVDestination(cfg.OutputPath, cfg.OutputFolder), nil
	case "parquet":
		if cfg.Bucket == "" {
			return NewParquetDestination(cfg.OutputPath, cfg.OutputFolder, nil, ""), nil
		}
		factory, err := cloudwriter.NewS3WriterFactory(ctx, cfg.Region)
		if err != nil {
			return nil, fmt.Errorf("failed to create cloud writer factory: %w", err)
		}
		return NewParquetDestination(cfg.OutputPath, cfg.OutputFolder, factory, cfg.Bucket), nil
	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("export.postgres_dsn is required for postgres export")
		}
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("error connecting to database: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("error pinging database: %w", err)
		}
		repo := postgres.NewDeliveryHistoryRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return NewPostgresDestination(repo, pool.Close), nil
	case "kafka":
		return NewKafkaDestination(cfg.KafkaBrokers, cfg.Topic)
	}
	return nil, fmt.Errorf("unsupported export format: %s", cfg.Format)
}

// partitionPath is the hive-style directory for a delivery day.
func partitionPath(r models.HistoryRecord) string {
	year, month, day := r.DeliveredTime().Date()
	return filepath.Join(fmt.Sprintf("year=%d", year), fmt.Sprintf("month=%02d", month), fmt.Sprintf("day=%02d", day))
}
