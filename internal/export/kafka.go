package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/IBM/sarama"

	"github.com/chrisdamba/partnerconsole/internal/models"
)

// KafkaDestination publishes each delivery keyed by order id.
type KafkaDestination struct {
	producer sarama.SyncProducer
	topic    string
}

func NewKafkaDestination(brokers []string, topic string) (*KafkaDestination, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = 5
	saramaConfig.Producer.Retry.Backoff = 100 * time.Millisecond
	saramaConfig.Producer.Return.Successes = true // Must be true for SyncProducer
	saramaConfig.Net.DialTimeout = 30 * time.Second

	producer, err := sarama.NewSyncProducer(brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Sarama producer: %w", err)
	}
	log.Printf("Sarama producer created successfully with brokers %v", brokers)
	return NewKafkaDestinationWithProducer(producer, topic), nil
}

func NewKafkaDestinationWithProducer(producer sarama.SyncProducer, topic string) *KafkaDestination {
	return &KafkaDestination{producer: producer, topic: topic}
}

func (k *KafkaDestination) Write(_ context.Context, record models.HistoryRecord) error {
	if k.producer == nil {
		return fmt.Errorf("Sarama producer is not initialized")
	}
	msg, err := json.Marshal(record)
	if err != nil {
		return err
	}
	_, _, err = k.producer.SendMessage(&sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(record.OrderID),
		Value: sarama.ByteEncoder(msg),
	})
	if err != nil {
		log.Printf("Failed to send message to topic %s: %v", k.topic, err)
		return err
	}
	return nil
}

func (k *KafkaDestination) Close() error {
	if k.producer == nil {
		return nil
	}
	err := k.producer.Close()
	k.producer = nil
	return err
}
