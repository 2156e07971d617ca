// Package realtime keeps the partner's live connection to the platform:
// order notifications in, location reports out.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/chrisdamba/partnerconsole/internal/models"
)

type State int

const (
	Disconnected State = iota
	Connected
)

func (s State) String() string {
	if s == Connected {
		return "connected"
	}
	return "disconnected"
}

var ErrNotConnected = errors.New("realtime channel is not connected")

// Channel follows the session: it connects when a partner signs in and
// tears the connection down when the session is cleared.
type Channel struct {
	dial Dialer

	mu        sync.Mutex
	state     State
	partnerID string
	transport Transport
	done      chan struct{}
	handlers  []func(Message)
}

func NewChannel(dial Dialer) *Channel {
	return &Channel{dial: dial}
}

func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// OnEvent registers fn for every recognized inbound event. Handlers run on
// the channel's receive goroutine.
func (c *Channel) OnEvent(fn func(Message)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, fn)
}

// SetSession moves the channel to match profile: nil disconnects, a new
// partner connects and joins that partner's room.
func (c *Channel) SetSession(ctx context.Context, profile *models.PartnerProfile) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if profile == nil {
		c.disconnectLocked()
		return nil
	}
	if c.state == Connected && c.partnerID == profile.ID {
		return nil
	}
	c.disconnectLocked()

	t, err := c.dial(ctx)
	if err != nil {
		return fmt.Errorf("connect realtime transport: %w", err)
	}
	room := RoomFor(profile.ID)
	if err := t.Join(ctx, room); err != nil {
		_ = t.Close()
		return fmt.Errorf("join room %s: %w", room, err)
	}

	c.transport = t
	c.partnerID = profile.ID
	c.state = Connected
	c.done = make(chan struct{})
	go c.receive(t, c.done)
	log.Printf("Realtime channel joined %s", room)
	return nil
}

// FollowSession returns a session listener that keeps the channel in step
// with sign-in and sign-out. Accounts that are not delivery partners are
// treated as signed out.
func (c *Channel) FollowSession(ctx context.Context) func(*models.PartnerProfile) {
	return func(profile *models.PartnerProfile) {
		if !profile.IsPartner() {
			profile = nil
		}
		if err := c.SetSession(ctx, profile); err != nil {
			log.Printf("Realtime channel unavailable, falling back to manual refresh: %v", err)
		}
	}
}

// Close is equivalent to clearing the session.
func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnectLocked()
	return nil
}

// EmitLocation pushes a position report. Delivery is fire-and-forget: a
// failure is logged and never retried.
func (c *Channel) EmitLocation(ctx context.Context, update models.LocationUpdate) {
	c.mu.Lock()
	t := c.transport
	c.mu.Unlock()
	if t == nil {
		log.Printf("Dropping location update for order %s: %v", update.OrderID, ErrNotConnected)
		return
	}
	payload, err := json.Marshal(update)
	if err != nil {
		log.Printf("Failed to encode location update: %v", err)
		return
	}
	if err := t.Emit(ctx, models.EventUpdateLocation, payload); err != nil {
		log.Printf("Failed to emit location update for order %s: %v", update.OrderID, err)
	}
}

func (c *Channel) disconnectLocked() {
	if c.transport == nil {
		c.state = Disconnected
		return
	}
	if err := c.transport.Close(); err != nil {
		log.Printf("Error closing realtime transport: %v", err)
	}
	close(c.done)
	c.transport = nil
	c.partnerID = ""
	c.state = Disconnected
}

func (c *Channel) receive(t Transport, done <-chan struct{}) {
	msgs := t.Messages()
	for {
		select {
		case <-done:
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			switch msg.Event {
			case models.EventNewDeliveryRequest, models.EventOrderUpdate:
			default:
				log.Printf("Ignoring unknown realtime event %q", msg.Event)
				continue
			}
			c.mu.Lock()
			handlers := make([]func(Message), len(c.handlers))
			copy(handlers, c.handlers)
			c.mu.Unlock()
			for _, fn := range handlers {
				fn(msg)
			}
		}
	}
}
