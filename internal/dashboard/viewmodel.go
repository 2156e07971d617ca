// Package dashboard is the order lifecycle view-model behind both the
// one-shot commands and the live console.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/chrisdamba/partnerconsole/internal/api"
	"github.com/chrisdamba/partnerconsole/internal/incentive"
	"github.com/chrisdamba/partnerconsole/internal/models"
)

var (
	ErrInvalidOrder      = errors.New("order id is required")
	ErrOrderNotAvailable = errors.New("order is no longer available")
)

// Backend is the delivery API used by the view-model.
type Backend interface {
	Orders(ctx context.Context) ([]models.Order, error)
	History(ctx context.Context) ([]models.Order, error)
	AcceptOrder(ctx context.Context, orderID string) error
	UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) error
	ToggleAvailability(ctx context.Context, partnerID string, available bool) error
	Incentives(ctx context.Context) ([]models.Incentive, error)
}

// Snapshot is one consistent view of the board. Slices are shared with
// other subscribers and must not be modified.
type Snapshot struct {
	Available   []models.Order
	Active      *models.Order
	Recent      []models.Order
	Stats       models.DeliveryStats
	Online      bool
	RefreshedAt time.Time
}

type Options struct {
	EarningsPerDelivery float64
	AverageRating       float64
	RecentLimit         int
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// Action is a status transition the partner may trigger.
type Action struct {
	Label string
	Next  models.OrderStatus
}

type ViewModel struct {
	backend   Backend
	notifier  Notifier
	tracker   *Tracker
	partnerID string
	opts      Options

	mu        sync.RWMutex
	snap      Snapshot
	listeners []func(Snapshot)
	closed    bool

	events    sync.WaitGroup
	eventsCtx context.Context
	stop      context.CancelFunc
}

// New builds a view-model for partner. tracker may be nil when location
// sampling is not configured.
func New(backend Backend, partner *models.PartnerProfile, notifier Notifier, tracker *Tracker, opts Options) *ViewModel {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.RecentLimit <= 0 {
		opts.RecentLimit = 5
	}
	ctx, cancel := context.WithCancel(context.Background())
	vm := &ViewModel{
		backend:   backend,
		notifier:  notifier,
		tracker:   tracker,
		opts:      opts,
		eventsCtx: ctx,
		stop:      cancel,
	}
	if partner != nil {
		vm.partnerID = partner.ID
		vm.snap.Online = partner.IsAvailable
	}
	return vm
}

func (vm *ViewModel) Snapshot() Snapshot {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.snap
}

// Subscribe registers fn to receive every published snapshot.
func (vm *ViewModel) Subscribe(fn func(Snapshot)) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.listeners = append(vm.listeners, fn)
}

// Refresh reloads orders and history together and publishes a new snapshot
// only when both succeed.
func (vm *ViewModel) Refresh(ctx context.Context) error {
	var orders, history []models.Order
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		o, err := vm.backend.Orders(gctx)
		if err != nil {
			return fmt.Errorf("fetch orders: %w", err)
		}
		orders = o
		return nil
	})
	g.Go(func() error {
		h, err := vm.backend.History(gctx)
		if err != nil {
			return fmt.Errorf("fetch history: %w", err)
		}
		history = h
		return nil
	})
	if err := g.Wait(); err != nil {
		if ctx.Err() == nil {
			vm.fail(err)
		}
		return err
	}

	now := vm.opts.Clock()
	available := make([]models.Order, 0, len(orders))
	var active *models.Order
	for i := range orders {
		if orders[i].IsAvailable() {
			available = append(available, orders[i])
			continue
		}
		// only one delivery is carried at a time
		if active == nil {
			o := orders[i]
			active = &o
		}
	}

	vm.mu.Lock()
	vm.snap = Snapshot{
		Available:   available,
		Active:      active,
		Recent:      recent(history, vm.opts.RecentLimit),
		Stats:       ComputeStats(history, orders, now, vm.opts.EarningsPerDelivery, vm.opts.AverageRating),
		Online:      vm.snap.Online,
		RefreshedAt: now,
	}
	vm.mu.Unlock()
	vm.publish()
	return nil
}

// AcceptOrder claims an order from the available list. The backend decides
// between partners racing for the same order.
func (vm *ViewModel) AcceptOrder(ctx context.Context, orderID string) error {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		vm.fail(ErrInvalidOrder)
		return ErrInvalidOrder
	}
	if !vm.isAvailable(orderID) {
		err := fmt.Errorf("%w: %s", ErrOrderNotAvailable, orderID)
		vm.fail(err)
		return err
	}
	if err := vm.backend.AcceptOrder(ctx, orderID); err != nil {
		vm.fail(err)
		return err
	}
	vm.notifier.Notify(Notice{Level: LevelInfo, Message: "Order accepted"})
	return vm.Refresh(ctx)
}

// AdvanceStatus moves an order to next. Transition rules are enforced by
// the backend.
func (vm *ViewModel) AdvanceStatus(ctx context.Context, orderID string, next models.OrderStatus) error {
	if err := vm.backend.UpdateOrderStatus(ctx, orderID, next); err != nil {
		vm.fail(err)
		return err
	}
	vm.notifier.Notify(Notice{Level: LevelInfo, Message: "Order marked " + strings.ToLower(next.Label())})
	return vm.Refresh(ctx)
}

// NextActions lists the transitions offered for an order in its current
// status.
func NextActions(o models.Order) []Action {
	switch o.OrderStatus {
	case models.OrderStatusReady:
		return []Action{{Label: "Mark as picked up", Next: models.OrderStatusPickedUp}}
	case models.OrderStatusPickedUp, models.OrderStatusOnTheWay:
		return []Action{{Label: "Mark as delivered", Next: models.OrderStatusDelivered}}
	}
	return nil
}

// ToggleAvailability sets the partner online or offline. The previous
// value is kept when the backend refuses.
func (vm *ViewModel) ToggleAvailability(ctx context.Context, online bool) error {
	if err := vm.backend.ToggleAvailability(ctx, vm.partnerID, online); err != nil {
		vm.fail(err)
		return err
	}
	vm.mu.Lock()
	vm.snap.Online = online
	vm.mu.Unlock()

	msg := "You are now offline"
	if online {
		msg = "You are now online"
	}
	vm.notifier.Notify(Notice{Level: LevelInfo, Message: msg})
	vm.publish()
	return nil
}

// HandleEvent reacts to a realtime notification with a full refresh.
// Refreshes are not coalesced; whichever finishes last is published.
func (vm *ViewModel) HandleEvent(event string) {
	// Close waits on events once closed is set, so Add must happen under
	// the same lock as the check.
	vm.mu.Lock()
	if vm.closed {
		vm.mu.Unlock()
		return
	}
	vm.events.Add(1)
	vm.mu.Unlock()

	log.Printf("Refreshing board after %s", event)
	go func() {
		defer vm.events.Done()
		// failures reach the partner through the notifier
		_ = vm.Refresh(vm.eventsCtx)
	}()
}

// Incentives fetches the partner's incentives and scores them against the
// current stats.
func (vm *ViewModel) Incentives(ctx context.Context) ([]incentive.Status, error) {
	list, err := vm.backend.Incentives(ctx)
	if err != nil {
		vm.fail(err)
		return nil, err
	}
	return incentive.Evaluate(list, vm.Snapshot().Stats, vm.opts.Clock()), nil
}

// Close stops in-flight event refreshes and location sampling.
func (vm *ViewModel) Close() {
	vm.mu.Lock()
	vm.closed = true
	vm.mu.Unlock()

	vm.stop()
	vm.events.Wait()
	if vm.tracker != nil {
		vm.tracker.Stop()
	}
}

func (vm *ViewModel) isAvailable(orderID string) bool {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	for _, o := range vm.snap.Available {
		if o.ID == orderID {
			return true
		}
	}
	return false
}

func (vm *ViewModel) publish() {
	vm.mu.RLock()
	snap := vm.snap
	closed := vm.closed
	listeners := make([]func(Snapshot), len(vm.listeners))
	copy(listeners, vm.listeners)
	vm.mu.RUnlock()

	for _, fn := range listeners {
		fn(snap)
	}
	if vm.tracker != nil && !closed {
		vm.tracker.Update(snap.Online, snap.Active)
	}
}

func (vm *ViewModel) fail(err error) {
	vm.notifier.Notify(Notice{Level: LevelError, Message: api.Message(err)})
}
