package export

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/schollz/progressbar/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"

	"github.com/chrisdamba/partnerconsole/internal/factories"
	"github.com/chrisdamba/partnerconsole/internal/models"
)

var (
	day1 = time.Date(2024, time.March, 19, 18, 30, 0, 0, time.UTC)
	day2 = time.Date(2024, time.March, 20, 12, 0, 0, 0, time.UTC)
)

func testRecords(t *testing.T) []models.HistoryRecord {
	t.Helper()
	of := &factories.OrderFactory{}
	return []models.HistoryRecord{
		models.NewHistoryRecord(of.CreateDelivered("p1", day1), "p1", 50),
		models.NewHistoryRecord(of.CreateDelivered("p1", day2), "p1", 50),
		models.NewHistoryRecord(of.CreateDelivered("p1", day2.Add(time.Hour)), "p1", 50),
	}
}

func writeAll(t *testing.T, dest Destination, records []models.HistoryRecord) {
	t.Helper()
	require.NoError(t, Run(context.Background(), records, dest, nil))
	require.NoError(t, dest.Close())
}

func TestJSONDestination_PartitionsByDay(t *testing.T) {
	dir := t.TempDir()
	records := testRecords(t)
	writeAll(t, NewJSONDestination(dir, "history"), records)

	f, err := os.Open(filepath.Join(dir, "history", "year=2024", "month=03", "day=20", "data.json"))
	require.NoError(t, err)
	defer f.Close()

	var got []models.HistoryRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec models.HistoryRecord
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		got = append(got, rec)
	}
	assert.Equal(t, records[1:], got)
	assert.FileExists(t, filepath.Join(dir, "history", "year=2024", "month=03", "day=19", "data.json"))
}

func TestCSVDestination_WritesHeaderOnce(t *testing.T) {
	dir := t.TempDir()
	records := testRecords(t)
	writeAll(t, NewCSVDestination(dir, "history"), records)

	f, err := os.Open(filepath.Join(dir, "history", "year=2024", "month=03", "day=20", "data.csv"))
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, records[1].OrderID, rows[1][0])
	assert.Equal(t, "50.00", rows[1][9])
}

func TestParquetDestination_Local(t *testing.T) {
	dir := t.TempDir()
	writeAll(t, NewParquetDestination(dir, "history", nil, ""), testRecords(t))

	fr, err := local.NewLocalFileReader(filepath.Join(dir, "history", "year=2024", "month=03", "day=20", "data.parquet"))
	require.NoError(t, err)
	defer fr.Close()
	pr, err := reader.NewParquetReader(fr, new(models.HistoryRecord), 1)
	require.NoError(t, err)
	defer pr.ReadStop()
	assert.Equal(t, int64(2), pr.GetNumRows())
}

func TestKafkaDestination_KeysByOrder(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	records := testRecords(t)
	for _, rec := range records {
		want := rec
		producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
			key, err := msg.Key.Encode()
			if err != nil {
				return err
			}
			if string(key) != want.OrderID {
				return errors.New("unexpected key " + string(key))
			}
			return nil
		})
	}
	writeAll(t, NewKafkaDestinationWithProducer(producer, "partner_delivery_history"), records)
}

type failingDestination struct {
	writes int
	failOn int
}

func (f *failingDestination) Write(context.Context, models.HistoryRecord) error {
	f.writes++
	if f.writes == f.failOn {
		return errors.New("disk full")
	}
	return nil
}

func (f *failingDestination) Close() error { return nil }

func TestRun_StopsAtFirstError(t *testing.T) {
	records := testRecords(t)
	dest := &failingDestination{failOn: 2}
	bar := progressbar.NewOptions(len(records), progressbar.OptionSetWriter(io.Discard))

	err := Run(context.Background(), records, dest, bar)
	require.Error(t, err)
	assert.ErrorContains(t, err, records[1].OrderID)
	assert.Equal(t, 2, dest.writes)
}

func TestRun_HonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	dest := &failingDestination{}
	assert.ErrorIs(t, Run(ctx, testRecords(t), dest, nil), context.Canceled)
	assert.Zero(t, dest.writes)
}

func TestNew_RejectsUnknownFormat(t *testing.T) {
	_, err := New(context.Background(), models.ExportConfig{Format: "xml"})
	assert.Error(t, err)
	_, err = New(context.Background(), models.ExportConfig{Format: "postgres"})
	assert.Error(t, err)
}
