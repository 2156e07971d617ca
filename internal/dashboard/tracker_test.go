package dashboard

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrisdamba/partnerconsole/internal/factories"
	"github.com/chrisdamba/partnerconsole/internal/location"
	"github.com/chrisdamba/partnerconsole/internal/models"
)

// chanSource hands out one sample channel per Watch.
type chanSource struct {
	mu      sync.Mutex
	watches int
	feed    chan models.Location
}

func newChanSource() *chanSource {
	return &chanSource{feed: make(chan models.Location)}
}

func (s *chanSource) Watch(ctx context.Context) (<-chan models.Location, error) {
	s.mu.Lock()
	s.watches++
	s.mu.Unlock()
	out := make(chan models.Location)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case loc := <-s.feed:
				select {
				case out <- loc:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (s *chanSource) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watches
}

type recordingSink struct {
	mu      sync.Mutex
	emitted []models.LocationUpdate
	stored  []models.Location
	err     error
}

func (r *recordingSink) EmitLocation(_ context.Context, u models.LocationUpdate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emitted = append(r.emitted, u)
}

func (r *recordingSink) UpdateLocation(_ context.Context, loc models.Location) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stored = append(r.stored, loc)
	return r.err
}

func (r *recordingSink) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.emitted), len(r.stored)
}

func TestTracker_RequiresAllConditions(t *testing.T) {
	of := &factories.OrderFactory{}
	enRoute := of.CreateAssignedOrder(fixedNow, "p1", models.OrderStatusOnTheWay)
	pickedUp := of.CreateAssignedOrder(fixedNow, "p1", models.OrderStatusPickedUp)

	src := newChanSource()
	tr := NewTracker(src, nil, nil)
	defer tr.Stop()

	tr.Update(false, &enRoute)
	assert.False(t, tr.Active())
	tr.Update(true, nil)
	assert.False(t, tr.Active())
	tr.Update(true, &pickedUp)
	assert.False(t, tr.Active())
	assert.Equal(t, 0, src.count())

	tr.Update(true, &enRoute)
	assert.True(t, tr.Active())
	// unchanged state keeps the same subscription
	tr.Update(true, &enRoute)
	require.Eventually(t, func() bool { return src.count() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, src.count())

	tr.Update(false, &enRoute)
	assert.False(t, tr.Active())
}

func TestTracker_ReportsEachSampleTwice(t *testing.T) {
	of := &factories.OrderFactory{}
	order := of.CreateAssignedOrder(fixedNow, "p1", models.OrderStatusOnTheWay)
	src := newChanSource()
	sink := &recordingSink{err: errors.New("backend down")}
	tr := NewTracker(src, sink, sink)

	tr.Update(true, &order)
	src.feed <- models.Location{Lat: 1, Lng: 2}
	src.feed <- models.Location{Lat: 3, Lng: 4}

	require.Eventually(t, func() bool {
		e, s := sink.counts()
		return e == 2 && s == 2
	}, 2*time.Second, 10*time.Millisecond)
	tr.Stop()

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Equal(t, order.ID, sink.emitted[0].OrderID)
	assert.Equal(t, order.Customer.ID, sink.emitted[0].CustomerID)
	assert.Equal(t, models.Location{Lat: 3, Lng: 4}, sink.emitted[1].Location)
}

// within fails the test if fn has not returned after a second.
func within(t *testing.T, what string, fn func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("%s blocked", what)
	}
}

func TestTracker_StopsWhileFeedIsIdle(t *testing.T) {
	of := &factories.OrderFactory{}
	order := of.CreateAssignedOrder(fixedNow, "p1", models.OrderStatusOnTheWay)
	pr, pw := io.Pipe()
	defer pw.Close()
	sink := &recordingSink{}
	tr := NewTracker(location.NewStreamSource(pr), sink, sink)

	within(t, "starting", func() { tr.Update(true, &order) })
	require.True(t, tr.Active())
	within(t, "going offline", func() { tr.Update(false, &order) })
	assert.False(t, tr.Active())

	// the feed still works for the next subscription
	within(t, "restarting", func() { tr.Update(true, &order) })
	go func() {
		_, _ = io.WriteString(pw, `{"class":"TPV","mode":2,"lat":18.52,"lon":73.85}`+"\n")
	}()
	require.Eventually(t, func() bool {
		e, s := sink.counts()
		return e == 1 && s == 1
	}, 2*time.Second, 10*time.Millisecond)
	within(t, "stopping", tr.Stop)
	assert.False(t, tr.Active())
}

func TestViewModel_CloseWithIdleFeedDoesNotHang(t *testing.T) {
	of := &factories.OrderFactory{}
	backend := &fakeBackend{orders: []models.Order{
		of.CreateAssignedOrder(fixedNow, "p1", models.OrderStatusOnTheWay),
	}}
	pr, pw := io.Pipe()
	defer pw.Close()
	tracker := NewTracker(location.NewStreamSource(pr), nil, nil)
	vm, _ := newTestViewModel(t, backend, tracker)
	require.NoError(t, vm.Refresh(context.Background()))
	require.True(t, tracker.Active())

	within(t, "going offline", func() {
		assert.NoError(t, vm.ToggleAvailability(context.Background(), false))
	})
	assert.False(t, tracker.Active())
	within(t, "refreshing", func() {
		assert.NoError(t, vm.Refresh(context.Background()))
	})
	within(t, "closing", vm.Close)
}

func TestViewModel_OfflineWithEnRouteOrderHasNoSubscription(t *testing.T) {
	of := &factories.OrderFactory{}
	backend := &fakeBackend{orders: []models.Order{
		of.CreateAssignedOrder(fixedNow, "p1", models.OrderStatusOnTheWay),
	}}
	src := newChanSource()
	tracker := NewTracker(src, nil, nil)
	vm, _ := newTestViewModel(t, backend, tracker)

	require.NoError(t, vm.ToggleAvailability(context.Background(), false))
	require.NoError(t, vm.Refresh(context.Background()))
	assert.False(t, tracker.Active())
	assert.Equal(t, 0, src.count())

	require.NoError(t, vm.ToggleAvailability(context.Background(), true))
	assert.True(t, tracker.Active())

	require.NoError(t, vm.ToggleAvailability(context.Background(), false))
	assert.False(t, tracker.Active())
}

func TestViewModel_CloseStopsSampling(t *testing.T) {
	of := &factories.OrderFactory{}
	backend := &fakeBackend{orders: []models.Order{
		of.CreateAssignedOrder(fixedNow, "p1", models.OrderStatusOnTheWay),
	}}
	tracker := NewTracker(newChanSource(), nil, nil)
	vm, _ := newTestViewModel(t, backend, tracker)
	require.NoError(t, vm.Refresh(context.Background()))
	require.True(t, tracker.Active())

	vm.Close()
	assert.False(t, tracker.Active())
}
