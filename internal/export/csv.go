package export

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	"github.com/chrisdamba/partnerconsole/internal/models"
)

var csvHeader = []string{
	"order_id", "partner_id", "restaurant", "restaurant_address",
	"customer_id", "customer_name", "customer_address", "status",
	"total_amount", "earnings", "created_at", "delivered_at",
}

type csvFile struct {
	file   *os.File
	writer *csv.Writer
}

// CSVDestination writes one CSV per delivery day with a fixed header.
type CSVDestination struct {
	basePath string
	folder   string
	files    map[string]*csvFile
}

func NewCSVDestination(basePath, folder string) *CSVDestination {
	return &CSVDestination{
		basePath: basePath,
		folder:   folder,
		files:    make(map[string]*csvFile),
	}
}

func (c *CSVDestination) Write(_ context.Context, record models.HistoryRecord) error {
	partition := partitionPath(record)
	f, ok := c.files[partition]
	if !ok {
		fullPath := filepath.Join(c.basePath, c.folder, partition)
		if err := os.MkdirAll(fullPath, os.ModePerm); err != nil {
			return err
		}
		file, err := os.Create(filepath.Join(fullPath, "data.csv"))
		if err != nil {
			return err
		}
		f = &csvFile{file: file, writer: csv.NewWriter(file)}
		c.files[partition] = f
		if err := f.writer.Write(csvHeader); err != nil {
			return err
		}
	}

	if err := f.writer.Write(csvRow(record)); err != nil {
		return err
	}
	f.writer.Flush()
	return f.writer.Error()
}

func csvRow(r models.HistoryRecord) []string {
	return []string{
		r.OrderID,
		r.PartnerID,
		r.Restaurant,
		r.RestaurantAddress,
		r.CustomerID,
		r.CustomerName,
		r.CustomerAddress,
		r.Status,
		strconv.FormatFloat(r.TotalAmount, 'f', 2, 64),
		strconv.FormatFloat(r.Earnings, 'f', 2, 64),
		strconv.FormatInt(r.CreatedAt, 10),
		strconv.FormatInt(r.DeliveredAt, 10),
	}
}

func (c *CSVDestination) Close() error {
	var firstErr error
	for _, f := range c.files {
		f.writer.Flush()
		if err := f.writer.Error(); err != nil && firstErr == nil {
			firstErr = err
		}
		if err := f.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
