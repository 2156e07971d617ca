package export

import (
	"context"
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/chrisdamba/partnerconsole/internal/cloudwriter"
	"github.com/chrisdamba/partnerconsole/internal/models"
)

type parquetPartition struct {
	file   source.ParquetFile
	writer *writer.ParquetWriter
}

// ParquetDestination writes one parquet file per delivery day, locally or to
// object storage when a cloud writer factory is set.
type ParquetDestination struct {
	basePath           string
	folder             string
	cloudWriterFactory cloudwriter.CloudWriterFactory
	cloudBucketName    string
	partitions         map[string]*parquetPartition
}

func NewParquetDestination(basePath, folder string, factory cloudwriter.CloudWriterFactory, bucket string) *ParquetDestination {
	return &ParquetDestination{
		basePath:           basePath,
		folder:             folder,
		cloudWriterFactory: factory,
		cloudBucketName:    bucket,
		partitions:         make(map[string]*parquetPartition),
	}
}

func (p *ParquetDestination) Write(ctx context.Context, record models.HistoryRecord) error {
	key := partitionPath(record)
	part, ok := p.partitions[key]
	if !ok {
		var err error
		part, err = p.createPartition(ctx, key)
		if err != nil {
			return fmt.Errorf("failed to create new writer: %w", err)
		}
		p.partitions[key] = part
	}
	if err := part.writer.Write(record); err != nil {
		return fmt.Errorf("failed to write delivery %s: %w", record.OrderID, err)
	}
	return nil
}

func (p *ParquetDestination) createPartition(ctx context.Context, key string) (*parquetPartition, error) {
	var fw source.ParquetFile
	if p.cloudWriterFactory != nil {
		objectPath := path.Join(p.folder, filepath.ToSlash(key), "data.parquet")
		cw, err := p.cloudWriterFactory.NewWriter(ctx, p.cloudBucketName, objectPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create cloud file writer: %w", err)
		}
		fw = cloudwriter.NewParquetFile(cw)
	} else {
		fullPath := filepath.Join(p.basePath, p.folder, key)
		if err := os.MkdirAll(fullPath, os.ModePerm); err != nil {
			return nil, err
		}
		var err error
		fw, err = local.NewLocalFileWriter(filepath.Join(fullPath, "data.parquet"))
		if err != nil {
			return nil, fmt.Errorf("failed to create local file writer: %w", err)
		}
	}

	pw, err := writer.NewParquetWriter(fw, new(models.HistoryRecord), 4)
	if err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("failed to create ParquetWriter: %w", err)
	}
	return &parquetPartition{file: fw, writer: pw}, nil
}

func (p *ParquetDestination) Close() error {
	var lastErr error
	for key, part := range p.partitions {
		if err := part.writer.WriteStop(); err != nil {
			lastErr = err
			log.Printf("Error closing writer for partition %s: %v", key, err)
		}
		if err := part.file.Close(); err != nil {
			lastErr = err
			log.Printf("Error closing file for partition %s: %v", key, err)
		}
	}
	p.partitions = make(map[string]*parquetPartition)
	return lastErr
}
