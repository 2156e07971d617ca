package export

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/chrisdamba/partnerconsole/internal/models"
)

// JSONDestination writes newline-delimited JSON, one file per delivery day.
type JSONDestination struct {
	basePath string
	folder   string
	files    map[string]*os.File
}

func NewJSONDestination(basePath, folder string) *JSONDestination {
	return &JSONDestination{
		basePath: basePath,
		folder:   folder,
		files:    make(map[string]*os.File),
	}
}

func (j *JSONDestination) Write(_ context.Context, record models.HistoryRecord) error {
	partition := partitionPath(record)
	file, ok := j.files[partition]
	if !ok {
		fullPath := filepath.Join(j.basePath, j.folder, partition)
		if err := os.MkdirAll(fullPath, os.ModePerm); err != nil {
			return err
		}
		var err error
		file, err = os.Create(filepath.Join(fullPath, "data.json"))
		if err != nil {
			return err
		}
		j.files[partition] = file
	}

	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = file.Write(data)
	return err
}

func (j *JSONDestination) Close() error {
	var firstErr error
	for _, file := range j.files {
		if err := file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
