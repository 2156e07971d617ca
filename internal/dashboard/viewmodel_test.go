package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrisdamba/partnerconsole/internal/api"
	"github.com/chrisdamba/partnerconsole/internal/factories"
	"github.com/chrisdamba/partnerconsole/internal/models"
)

var fixedNow = time.Date(2024, time.March, 20, 15, 0, 0, 0, time.UTC)

type fakeBackend struct {
	mu         sync.Mutex
	orders     []models.Order
	history    []models.Order
	incentives []models.Incentive
	ordersErr  error
	historyErr error
	acceptErr  error
	statusErr  error
	toggleErr  error

	accepted []string
	statuses map[string]models.OrderStatus
	toggles  []bool
}

func (f *fakeBackend) Orders(context.Context) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orders, f.ordersErr
}

func (f *fakeBackend) History(context.Context) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.history, f.historyErr
}

func (f *fakeBackend) AcceptOrder(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accepted = append(f.accepted, id)
	return f.acceptErr
}

func (f *fakeBackend) UpdateOrderStatus(_ context.Context, id string, s models.OrderStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statuses == nil {
		f.statuses = map[string]models.OrderStatus{}
	}
	f.statuses[id] = s
	return f.statusErr
}

func (f *fakeBackend) ToggleAvailability(_ context.Context, _ string, online bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.toggles = append(f.toggles, online)
	return f.toggleErr
}

func (f *fakeBackend) Incentives(context.Context) ([]models.Incentive, error) {
	return f.incentives, nil
}

type noticeLog struct {
	mu      sync.Mutex
	notices []Notice
}

func (n *noticeLog) Notify(notice Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
}

func (n *noticeLog) last(t *testing.T) Notice {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	require.NotEmpty(t, n.notices)
	return n.notices[len(n.notices)-1]
}

func newTestViewModel(t *testing.T, backend *fakeBackend, tracker *Tracker) (*ViewModel, *noticeLog) {
	t.Helper()
	partner := (&factories.DeliveryPartnerFactory{}).CreateDeliveryPartner()
	partner.ID = "p1"
	notices := &noticeLog{}
	vm := New(backend, partner, notices, tracker, Options{
		EarningsPerDelivery: 50,
		AverageRating:       4.8,
		RecentLimit:         5,
		Clock:               func() time.Time { return fixedNow },
	})
	t.Cleanup(vm.Close)
	return vm, notices
}

func TestRefresh_PartitionsOrders(t *testing.T) {
	of := &factories.OrderFactory{}
	free1 := of.CreateOrder(fixedNow)
	free2 := of.CreateOrder(fixedNow)
	mine := of.CreateAssignedOrder(fixedNow, "p1", models.OrderStatusPickedUp)
	second := of.CreateAssignedOrder(fixedNow, "p1", models.OrderStatusReady)

	backend := &fakeBackend{orders: []models.Order{free1, mine, free2, second}}
	vm, _ := newTestViewModel(t, backend, nil)
	require.NoError(t, vm.Refresh(context.Background()))

	snap := vm.Snapshot()
	require.Len(t, snap.Available, 2)
	require.NotNil(t, snap.Active)
	assert.Equal(t, mine.ID, snap.Active.ID)
	for _, o := range snap.Available {
		assert.True(t, o.IsAvailable())
		assert.NotEqual(t, snap.Active.ID, o.ID)
	}
	assert.Equal(t, 4, snap.Stats.ActiveOrders)
	assert.Equal(t, fixedNow, snap.RefreshedAt)
	assert.True(t, snap.Online)
}

func TestRefresh_BlankPartnerReferenceIsAvailable(t *testing.T) {
	of := &factories.OrderFactory{}
	blank := of.CreateOrder(fixedNow)
	blank.DeliveryPartner = &models.PartnerRef{}

	vm, _ := newTestViewModel(t, &fakeBackend{orders: []models.Order{blank}}, nil)
	require.NoError(t, vm.Refresh(context.Background()))

	snap := vm.Snapshot()
	require.Len(t, snap.Available, 1)
	assert.Equal(t, blank.ID, snap.Available[0].ID)
	assert.Nil(t, snap.Active)
}

func TestRefresh_FailurePublishesNothing(t *testing.T) {
	of := &factories.OrderFactory{}
	backend := &fakeBackend{orders: []models.Order{of.CreateOrder(fixedNow)}}
	vm, notices := newTestViewModel(t, backend, nil)
	require.NoError(t, vm.Refresh(context.Background()))
	before := vm.Snapshot()

	published := 0
	vm.Subscribe(func(Snapshot) { published++ })

	backend.mu.Lock()
	backend.orders = append(backend.orders, of.CreateOrder(fixedNow))
	backend.historyErr = &api.Error{StatusCode: 500, Message: "history unavailable"}
	backend.mu.Unlock()

	err := vm.Refresh(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, published)
	assert.Equal(t, before, vm.Snapshot())

	n := notices.last(t)
	assert.Equal(t, LevelError, n.Level)
	assert.Equal(t, "history unavailable", n.Message)
}

func TestRefresh_RecentIsNewestFirstAndLimited(t *testing.T) {
	of := &factories.OrderFactory{}
	var history []models.Order
	for i := 0; i < 7; i++ {
		history = append(history, of.CreateDelivered("p1", fixedNow.Add(-time.Duration(i+1)*time.Hour)))
	}
	// shuffle the newest to the end
	history = append(history[1:], history[0])

	vm, _ := newTestViewModel(t, &fakeBackend{history: history}, nil)
	require.NoError(t, vm.Refresh(context.Background()))

	got := vm.Snapshot().Recent
	require.Len(t, got, 5)
	assert.Equal(t, fixedNow.Add(-time.Hour), got[0].UpdatedAt)
	for i := 1; i < len(got); i++ {
		assert.True(t, got[i-1].UpdatedAt.After(got[i].UpdatedAt))
	}
}

func TestAcceptOrder_EmptyIDIsRejectedLocally(t *testing.T) {
	of := &factories.OrderFactory{}
	backend := &fakeBackend{orders: []models.Order{of.CreateOrder(fixedNow)}}
	vm, notices := newTestViewModel(t, backend, nil)
	require.NoError(t, vm.Refresh(context.Background()))
	before := vm.Snapshot().Available

	for _, id := range []string{"", "   "} {
		err := vm.AcceptOrder(context.Background(), id)
		assert.ErrorIs(t, err, ErrInvalidOrder)
	}
	assert.Empty(t, backend.accepted)
	assert.Equal(t, before, vm.Snapshot().Available)
	assert.Equal(t, LevelError, notices.last(t).Level)
}

func TestAcceptOrder_UnknownIDIsRejectedLocally(t *testing.T) {
	vm, _ := newTestViewModel(t, &fakeBackend{}, nil)
	err := vm.AcceptOrder(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrOrderNotAvailable)
}

func TestAcceptOrder_Success(t *testing.T) {
	of := &factories.OrderFactory{}
	order := of.CreateOrder(fixedNow)
	backend := &fakeBackend{orders: []models.Order{order}}
	vm, notices := newTestViewModel(t, backend, nil)
	require.NoError(t, vm.Refresh(context.Background()))

	// the backend now reports the order as ours
	backend.mu.Lock()
	assigned := order
	assigned.DeliveryPartner = &models.PartnerRef{ID: "p1"}
	backend.orders = []models.Order{assigned}
	backend.mu.Unlock()

	require.NoError(t, vm.AcceptOrder(context.Background(), order.ID))
	assert.Equal(t, []string{order.ID}, backend.accepted)
	snap := vm.Snapshot()
	assert.Empty(t, snap.Available)
	require.NotNil(t, snap.Active)
	assert.Equal(t, order.ID, snap.Active.ID)
	assert.Equal(t, LevelInfo, notices.last(t).Level)
}

func TestAcceptOrder_BackendMessageIsSurfaced(t *testing.T) {
	of := &factories.OrderFactory{}
	order := of.CreateOrder(fixedNow)
	backend := &fakeBackend{
		orders:    []models.Order{order},
		acceptErr: &api.Error{StatusCode: 409, Message: "Order already assigned to another partner"},
	}
	vm, notices := newTestViewModel(t, backend, nil)
	require.NoError(t, vm.Refresh(context.Background()))
	before := vm.Snapshot()

	err := vm.AcceptOrder(context.Background(), order.ID)
	require.Error(t, err)
	assert.Equal(t, "Order already assigned to another partner", notices.last(t).Message)
	assert.Equal(t, before, vm.Snapshot())
}

func TestAdvanceStatus(t *testing.T) {
	backend := &fakeBackend{}
	vm, _ := newTestViewModel(t, backend, nil)
	require.NoError(t, vm.AdvanceStatus(context.Background(), "o1", models.OrderStatusDelivered))
	assert.Equal(t, models.OrderStatusDelivered, backend.statuses["o1"])

	backend.statusErr = errors.New("boom")
	assert.Error(t, vm.AdvanceStatus(context.Background(), "o1", models.OrderStatusPickedUp))
}

func TestNextActions(t *testing.T) {
	cases := map[models.OrderStatus]models.OrderStatus{
		models.OrderStatusReady:    models.OrderStatusPickedUp,
		models.OrderStatusPickedUp: models.OrderStatusDelivered,
		models.OrderStatusOnTheWay: models.OrderStatusDelivered,
	}
	for from, to := range cases {
		actions := NextActions(models.Order{OrderStatus: from})
		require.Len(t, actions, 1, from)
		assert.Equal(t, to, actions[0].Next)
	}
	assert.Empty(t, NextActions(models.Order{OrderStatus: models.OrderStatusPreparing}))
	assert.Empty(t, NextActions(models.Order{OrderStatus: models.OrderStatusDelivered}))
}

func TestToggleAvailability(t *testing.T) {
	backend := &fakeBackend{}
	vm, notices := newTestViewModel(t, backend, nil)

	require.NoError(t, vm.ToggleAvailability(context.Background(), false))
	assert.False(t, vm.Snapshot().Online)

	backend.toggleErr = &api.Error{StatusCode: 500, Message: "try later"}
	require.Error(t, vm.ToggleAvailability(context.Background(), true))
	assert.False(t, vm.Snapshot().Online)
	assert.Equal(t, "try later", notices.last(t).Message)
	assert.Equal(t, []bool{false, true}, backend.toggles)
}

func TestHandleEvent_Refreshes(t *testing.T) {
	of := &factories.OrderFactory{}
	backend := &fakeBackend{orders: []models.Order{of.CreateOrder(fixedNow)}}
	vm, _ := newTestViewModel(t, backend, nil)

	got := make(chan Snapshot, 1)
	vm.Subscribe(func(s Snapshot) {
		select {
		case got <- s:
		default:
		}
	})
	vm.HandleEvent(models.EventNewDeliveryRequest)

	select {
	case s := <-got:
		assert.Len(t, s.Available, 1)
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot published")
	}
}

func TestHandleEvent_RacingCloseIsSafe(t *testing.T) {
	of := &factories.OrderFactory{}
	backend := &fakeBackend{orders: []models.Order{of.CreateOrder(fixedNow)}}
	vm, _ := newTestViewModel(t, backend, nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			vm.HandleEvent(models.EventOrderUpdate)
		}()
	}
	vm.Close()
	wg.Wait()

	var mu sync.Mutex
	published := 0
	vm.Subscribe(func(Snapshot) {
		mu.Lock()
		published++
		mu.Unlock()
	})
	vm.HandleEvent(models.EventOrderUpdate)
	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Zero(t, published)
}

func TestIncentives_ScoredAgainstStats(t *testing.T) {
	of := &factories.OrderFactory{}
	inf := &factories.IncentiveFactory{}
	backend := &fakeBackend{
		history: []models.Order{
			of.CreateDelivered("p1", fixedNow.Add(-time.Hour)),
			of.CreateDelivered("p1", fixedNow.Add(-2*time.Hour)),
		},
		incentives: []models.Incentive{inf.CreateIncentive(models.IncentiveTypeDaily, 4, "", "")},
	}
	vm, _ := newTestViewModel(t, backend, nil)
	require.NoError(t, vm.Refresh(context.Background()))

	statuses, err := vm.Incentives(context.Background())
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.InDelta(t, 50, statuses[0].Progress, 0.001)
	assert.True(t, statuses[0].Active)
}
