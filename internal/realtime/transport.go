package realtime

import (
	"context"
	"fmt"
)

// Message is one inbound event delivered by a transport.
type Message struct {
	Event   string
	Payload []byte
}

// Transport is a connected bidirectional event pipe. Messages is closed
// when the transport shuts down.
type Transport interface {
	Join(ctx context.Context, room string) error
	Emit(ctx context.Context, event string, payload []byte) error
	Messages() <-chan Message
	Close() error
}

// Dialer opens a new transport for one session.
type Dialer func(ctx context.Context) (Transport, error)

// RoomFor is the partner-scoped notification room.
func RoomFor(partnerID string) string {
	return fmt.Sprintf("partner.%s", partnerID)
}
