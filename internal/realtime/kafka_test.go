package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKafkaTransport_FiltersByRoom(t *testing.T) {
	cfg := newSaramaConfig()
	consumer := mocks.NewConsumer(t, cfg)
	consumer.SetTopicMetadata(map[string][]int32{"events": {0}})
	pc := consumer.ExpectConsumePartition("events", 0, sarama.OffsetNewest)
	producer := mocks.NewSyncProducer(t, cfg)

	tr := NewKafkaTransport(consumer, producer, "events", "locations")
	require.NoError(t, tr.Join(context.Background(), "partner.p1"))

	header := []*sarama.RecordHeader{{Key: []byte(eventHeader), Value: []byte("order-update")}}
	pc.YieldMessage(&sarama.ConsumerMessage{Key: []byte("partner.p2"), Value: []byte(`{}`), Headers: header})
	pc.YieldMessage(&sarama.ConsumerMessage{Key: []byte("partner.p1"), Value: []byte(`{"id":1}`), Headers: header})

	select {
	case m := <-tr.Messages():
		assert.Equal(t, "order-update", m.Event)
		assert.JSONEq(t, `{"id":1}`, string(m.Payload))
	case <-time.After(2 * time.Second):
		t.Fatal("no message delivered")
	}
}

func TestKafkaTransport_Emit(t *testing.T) {
	cfg := newSaramaConfig()
	consumer := mocks.NewConsumer(t, cfg)
	consumer.SetTopicMetadata(map[string][]int32{"events": {}})
	producer := mocks.NewSyncProducer(t, cfg)

	tr := NewKafkaTransport(consumer, producer, "events", "locations")
	assert.ErrorIs(t, tr.Emit(context.Background(), "update-location", nil), ErrNotConnected)

	require.NoError(t, tr.Join(context.Background(), "partner.p1"))
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		assert.JSONEq(t, `{"orderId":"o1"}`, string(val))
		return nil
	})
	require.NoError(t, tr.Emit(context.Background(), "update-location", []byte(`{"orderId":"o1"}`)))
}

func TestHeaderValue(t *testing.T) {
	headers := []*sarama.RecordHeader{nil, {Key: []byte("a"), Value: []byte("1")}}
	assert.Equal(t, "1", headerValue(headers, "a"))
	assert.Equal(t, "", headerValue(headers, "b"))
}
