package export

import (
	"context"
	"fmt"

	"github.com/schollz/progressbar/v3"

	"github.com/chrisdamba/partnerconsole/internal/models"
)

// Run writes records to dest in order, advancing bar after each one. It
// stops at the first failure. bar may be nil.
func Run(ctx context.Context, records []models.HistoryRecord, dest Destination, bar *progressbar.ProgressBar) error {
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := dest.Write(ctx, rec); err != nil {
			return fmt.Errorf("export record %d (%s): %w", i+1, rec.OrderID, err)
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}
	return nil
}
