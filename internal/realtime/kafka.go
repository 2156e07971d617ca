package realtime

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/IBM/sarama"
)

const eventHeader = "event"

// KafkaTransport reads partner events from a shared topic keyed by room and
// publishes location reports to a second topic keyed by the same room.
type KafkaTransport struct {
	consumer      sarama.Consumer
	producer      sarama.SyncProducer
	eventsTopic   string
	locationTopic string

	mu        sync.Mutex
	room      string
	parts     []sarama.PartitionConsumer
	msgs      chan Message
	quit      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func newSaramaConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.ClientID = "partnerconsole"
	cfg.Producer.RequiredAcks = sarama.WaitForLocal
	cfg.Producer.Return.Successes = true // required by SyncProducer
	cfg.Producer.Retry.Max = 0
	cfg.Consumer.Return.Errors = false
	cfg.Net.DialTimeout = 10 * time.Second
	return cfg
}

func NewKafkaDialer(brokers []string, eventsTopic, locationTopic string) Dialer {
	return func(ctx context.Context) (Transport, error) {
		cfg := newSaramaConfig()
		consumer, err := sarama.NewConsumer(brokers, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create Sarama consumer: %w", err)
		}
		producer, err := sarama.NewSyncProducer(brokers, cfg)
		if err != nil {
			_ = consumer.Close()
			return nil, fmt.Errorf("failed to create Sarama producer: %w", err)
		}
		return NewKafkaTransport(consumer, producer, eventsTopic, locationTopic), nil
	}
}

func NewKafkaTransport(consumer sarama.Consumer, producer sarama.SyncProducer, eventsTopic, locationTopic string) *KafkaTransport {
	return &KafkaTransport{
		consumer:      consumer,
		producer:      producer,
		eventsTopic:   eventsTopic,
		locationTopic: locationTopic,
		msgs:          make(chan Message, 16),
		quit:          make(chan struct{}),
	}
}

// Join starts consuming every partition of the events topic from the newest
// offset. Only messages keyed with room are delivered.
func (k *KafkaTransport) Join(ctx context.Context, room string) error {
	partitions, err := k.consumer.Partitions(k.eventsTopic)
	if err != nil {
		return fmt.Errorf("list partitions of %s: %w", k.eventsTopic, err)
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	k.room = room
	for _, p := range partitions {
		pc, err := k.consumer.ConsumePartition(k.eventsTopic, p, sarama.OffsetNewest)
		if err != nil {
			return fmt.Errorf("consume %s/%d: %w", k.eventsTopic, p, err)
		}
		k.parts = append(k.parts, pc)
		k.wg.Add(1)
		go k.pump(pc, room)
	}
	go func() {
		k.wg.Wait()
		close(k.msgs)
	}()
	return nil
}

func (k *KafkaTransport) pump(pc sarama.PartitionConsumer, room string) {
	defer k.wg.Done()
	for {
		select {
		case <-k.quit:
			return
		case m, ok := <-pc.Messages():
			if !ok {
				return
			}
			if string(m.Key) != room {
				continue
			}
			event := headerValue(m.Headers, eventHeader)
			if event == "" {
				continue
			}
			select {
			case k.msgs <- Message{Event: event, Payload: m.Value}:
			case <-k.quit:
				return
			}
		}
	}
}

func (k *KafkaTransport) Emit(_ context.Context, event string, payload []byte) error {
	k.mu.Lock()
	room := k.room
	k.mu.Unlock()
	if room == "" {
		return ErrNotConnected
	}
	_, _, err := k.producer.SendMessage(&sarama.ProducerMessage{
		Topic:   k.locationTopic,
		Key:     sarama.StringEncoder(room),
		Value:   sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{{Key: []byte(eventHeader), Value: []byte(event)}},
	})
	return err
}

func (k *KafkaTransport) Messages() <-chan Message {
	return k.msgs
}

func (k *KafkaTransport) Close() error {
	k.closeOnce.Do(func() { close(k.quit) })

	k.mu.Lock()
	parts := k.parts
	k.parts = nil
	k.mu.Unlock()

	for _, pc := range parts {
		pc.AsyncClose()
	}
	var firstErr error
	if err := k.consumer.Close(); err != nil {
		firstErr = err
	}
	if err := k.producer.Close(); err != nil {
		log.Printf("Failed to close Sarama producer: %v", err)
		if firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func headerValue(headers []*sarama.RecordHeader, key string) string {
	for _, h := range headers {
		if h != nil && string(h.Key) == key {
			return string(h.Value)
		}
	}
	return ""
}
