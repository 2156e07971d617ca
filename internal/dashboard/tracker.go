package dashboard

import (
	"context"
	"log"
	"sync"

	"github.com/chrisdamba/partnerconsole/internal/location"
	"github.com/chrisdamba/partnerconsole/internal/models"
)

// Emitter pushes a position report over the realtime channel.
type Emitter interface {
	EmitLocation(ctx context.Context, update models.LocationUpdate)
}

// LocationReporter persists the partner's last known position.
type LocationReporter interface {
	UpdateLocation(ctx context.Context, loc models.Location) error
}

// Tracker samples positions only while the partner is online and carrying
// an order that is on the way. Update and Stop never wait on the source.
type Tracker struct {
	source   location.Source
	emitter  Emitter
	reporter LocationReporter

	mu      sync.Mutex
	orderID string
	cancel  context.CancelFunc
	gen     uint64
}

// NewTracker returns a tracker; a nil source disables sampling. emitter and
// reporter are optional.
func NewTracker(source location.Source, emitter Emitter, reporter LocationReporter) *Tracker {
	return &Tracker{source: source, emitter: emitter, reporter: reporter}
}

// Update starts, keeps or stops sampling to match the given state.
func (t *Tracker) Update(online bool, active *models.Order) {
	t.mu.Lock()
	defer t.mu.Unlock()

	want := online && active != nil && active.IsEnRoute()
	if want && t.cancel != nil && t.orderID == active.ID {
		return
	}
	t.stopLocked()
	if !want || t.source == nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.gen++
	t.orderID = active.ID
	t.cancel = cancel
	go t.run(ctx, t.gen, active.ID, active.Customer.ID)
}

// Active reports whether a sampling subscription is open.
func (t *Tracker) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancel != nil
}

func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

func (t *Tracker) stopLocked() {
	if t.cancel == nil {
		return
	}
	t.cancel()
	t.cancel = nil
	t.orderID = ""
}

// release drops the subscription if it is still the one identified by gen.
func (t *Tracker) release(gen uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.gen == gen {
		t.stopLocked()
	}
}

func (t *Tracker) run(ctx context.Context, gen uint64, orderID, customerID string) {
	samples, err := t.source.Watch(ctx)
	if err != nil {
		log.Printf("Failed to start location sampling for order %s: %v", orderID, err)
		t.release(gen)
		return
	}
	for {
		var loc models.Location
		select {
		case <-ctx.Done():
			return
		case l, ok := <-samples:
			if !ok {
				return
			}
			loc = l
		}
		if ctx.Err() != nil {
			return
		}
		if t.emitter != nil {
			t.emitter.EmitLocation(ctx, models.LocationUpdate{
				OrderID:    orderID,
				CustomerID: customerID,
				Location:   loc,
			})
		}
		if t.reporter != nil {
			if err := t.reporter.UpdateLocation(ctx, loc); err != nil && ctx.Err() == nil {
				log.Printf("Failed to report location for order %s: %v", orderID, err)
			}
		}
	}
}
