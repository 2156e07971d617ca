package realtime

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPTransport maps rooms onto a topic exchange: joining a room binds an
// exclusive queue to "<room>.#" and the event name travels in the message
// Type property.
type AMQPTransport struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string

	mu        sync.Mutex
	room      string
	msgs      chan Message
	quit      chan struct{}
	closeOnce sync.Once
}

// NewAMQPDialer returns a Dialer that connects to url and declares exchange.
func NewAMQPDialer(url, exchange string) Dialer {
	return func(ctx context.Context) (Transport, error) {
		conn, err := amqp.DialConfig(url, amqp.Config{Dial: amqp.DefaultDial(10 * time.Second)})
		if err != nil {
			return nil, fmt.Errorf("dial rabbitmq: %w", err)
		}
		ch, err := conn.Channel()
		if err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("open channel: %w", err)
		}
		err = ch.ExchangeDeclare(
			exchange,
			"topic",
			true,
			false,
			false,
			false,
			nil,
		)
		if err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
		}
		return &AMQPTransport{
			conn:     conn,
			channel:  ch,
			exchange: exchange,
			msgs:     make(chan Message, 16),
			quit:     make(chan struct{}),
		}, nil
	}
}

func (a *AMQPTransport) Join(ctx context.Context, room string) error {
	q, err := a.channel.QueueDeclare(
		"",
		false,
		true,
		true,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := a.channel.QueueBind(q.Name, bindingKey(room), a.exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	deliveries, err := a.channel.ConsumeWithContext(
		ctx,
		q.Name,
		"",
		true,
		true,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	a.mu.Lock()
	a.room = room
	a.mu.Unlock()

	go a.pump(deliveries)
	return nil
}

func (a *AMQPTransport) pump(deliveries <-chan amqp.Delivery) {
	defer close(a.msgs)
	for d := range deliveries {
		event := eventFromDelivery(d.Type, d.RoutingKey)
		if event == "" {
			continue
		}
		select {
		case a.msgs <- Message{Event: event, Payload: d.Body}:
		case <-a.quit:
			return
		}
	}
}

func (a *AMQPTransport) Emit(ctx context.Context, event string, payload []byte) error {
	a.mu.Lock()
	room := a.room
	a.mu.Unlock()
	if room == "" {
		return ErrNotConnected
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return a.channel.PublishWithContext(
		ctx,
		a.exchange,
		emitKey(room),
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Type:         event,
			DeliveryMode: amqp.Transient,
			Timestamp:    time.Now(),
			Body:         payload,
		},
	)
}

func (a *AMQPTransport) Messages() <-chan Message {
	return a.msgs
}

func (a *AMQPTransport) Close() error {
	var firstErr error
	a.closeOnce.Do(func() { close(a.quit) })
	if a.channel != nil {
		if err := a.channel.Close(); err != nil {
			firstErr = err
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func bindingKey(room string) string {
	return room + ".#"
}

// emitKey routes outbound location reports away from the partner's own
// binding so they are never echoed back.
func emitKey(room string) string {
	return "location." + strings.TrimPrefix(room, "partner.")
}

// eventFromDelivery prefers the Type property and falls back to the last
// routing key segment.
func eventFromDelivery(typ, routingKey string) string {
	if typ != "" {
		return typ
	}
	if i := strings.LastIndex(routingKey, "."); i >= 0 && i < len(routingKey)-1 {
		return routingKey[i+1:]
	}
	return ""
}
