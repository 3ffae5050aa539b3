package usecase

import (
	"context"
	stderrors "errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rikoadmin/internal/domain/entity"
)

const waitTimeout = time.Second

type manualTicker struct {
	c       chan time.Time
	stopped atomic.Bool
}

func newManualTicker() *manualTicker {
	return &manualTicker{c: make(chan time.Time)}
}

func (m *manualTicker) C() <-chan time.Time { return m.c }
func (m *manualTicker) Stop()               { m.stopped.Store(true) }

func (m *manualTicker) factory(time.Duration) Ticker { return m }

// tick blocks until the poll loop has taken the tick.
func (m *manualTicker) tick(t *testing.T) {
	t.Helper()
	select {
	case m.c <- time.Now():
	case <-time.After(waitTimeout):
		t.Fatal("poll loop did not take the tick")
	}
}

type fetchCall struct {
	ctx   context.Context
	reply chan fetchResult
}

func (c fetchCall) respond(orders []*entity.Order, err error) {
	c.reply <- fetchResult{orders: orders, err: err}
}

// blockingFetcher hands every fetch to the test and waits for its answer.
type blockingFetcher struct {
	calls chan fetchCall
}

func newBlockingFetcher() *blockingFetcher {
	return &blockingFetcher{calls: make(chan fetchCall, 8)}
}

func (f *blockingFetcher) ListByRestaurant(ctx context.Context, restaurantID string) ([]*entity.Order, error) {
	call := fetchCall{ctx: ctx, reply: make(chan fetchResult, 1)}
	f.calls <- call
	select {
	case r := <-call.reply:
		return r.orders, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *blockingFetcher) expectCall(t *testing.T) fetchCall {
	t.Helper()
	select {
	case c := <-f.calls:
		return c
	case <-time.After(waitTimeout):
		t.Fatal("expected a fetch")
		return fetchCall{}
	}
}

func (f *blockingFetcher) expectNoCall(t *testing.T) {
	t.Helper()
	select {
	case <-f.calls:
		t.Fatal("unexpected fetch")
	case <-time.After(50 * time.Millisecond):
	}
}

type pollRecorder struct {
	updates chan []*entity.Order
	alerts  chan int
	errs    chan error
}

func newPollRecorder() *pollRecorder {
	return &pollRecorder{
		updates: make(chan []*entity.Order, 16),
		alerts:  make(chan int, 16),
		errs:    make(chan error, 16),
	}
}

func (r *pollRecorder) callbacks() PollCallbacks {
	return PollCallbacks{
		OnUpdate:    func(s []*entity.Order) { r.updates <- s },
		OnNewOrders: func(_ string, delta int) { r.alerts <- delta },
		OnError:     func(err error) { r.errs <- err },
	}
}

func (r *pollRecorder) expectUpdate(t *testing.T) []*entity.Order {
	t.Helper()
	select {
	case s := <-r.updates:
		return s
	case <-time.After(waitTimeout):
		t.Fatal("expected a snapshot update")
		return nil
	}
}

func (r *pollRecorder) expectError(t *testing.T) error {
	t.Helper()
	select {
	case err := <-r.errs:
		return err
	case <-time.After(waitTimeout):
		t.Fatal("expected a poll error")
		return nil
	}
}

func (r *pollRecorder) alertCount() int {
	return len(r.alerts)
}

func ordersWithStatus(statuses ...entity.OrderStatus) []*entity.Order {
	out := make([]*entity.Order, len(statuses))
	for i, s := range statuses {
		out[i] = &entity.Order{ID: string(rune('A' + i)), Status: s}
	}
	return out
}

func TestOrderPoller_FirstFetchSetsBaseline(t *testing.T) {
	ticker := newManualTicker()
	fetcher := newBlockingFetcher()
	rec := newPollRecorder()

	h := NewOrderPoller(fetcher, WithTicker(ticker.factory)).Start("r1", time.Second, rec.callbacks())
	defer h.Stop()

	fetcher.expectCall(t).respond(ordersWithStatus(entity.OrderStatusPending, entity.OrderStatusPreparing), nil)
	snap := rec.expectUpdate(t)
	assert.Len(t, snap, 2)
	assert.Equal(t, 0, rec.alertCount())

	ticker.tick(t)
	fetcher.expectCall(t).respond(ordersWithStatus(entity.OrderStatusPending, entity.OrderStatusPreparing, entity.OrderStatusPending, entity.OrderStatusPending), nil)
	rec.expectUpdate(t)
	require.Equal(t, 1, rec.alertCount())
	assert.Equal(t, 2, <-rec.alerts)

	ticker.tick(t)
	fetcher.expectCall(t).respond(ordersWithStatus(entity.OrderStatusPending), nil)
	rec.expectUpdate(t)
	assert.Equal(t, 0, rec.alertCount())
}

func TestOrderPoller_InitialCountAlertsOnFirstFetch(t *testing.T) {
	ticker := newManualTicker()
	fetcher := newBlockingFetcher()
	rec := newPollRecorder()

	h := NewOrderPoller(fetcher, WithTicker(ticker.factory), WithInitialCount(1)).Start("r1", time.Second, rec.callbacks())
	defer h.Stop()

	fetcher.expectCall(t).respond(ordersWithStatus(entity.OrderStatusPending, entity.OrderStatusPending, entity.OrderStatusPending), nil)
	rec.expectUpdate(t)
	require.Equal(t, 1, rec.alertCount())
	assert.Equal(t, 2, <-rec.alerts)
}

func TestOrderPoller_SkipsTickWhileFetchPending(t *testing.T) {
	ticker := newManualTicker()
	fetcher := newBlockingFetcher()
	rec := newPollRecorder()

	h := NewOrderPoller(fetcher, WithTicker(ticker.factory)).Start("r1", time.Second, rec.callbacks())
	defer h.Stop()

	pending := fetcher.expectCall(t)
	ticker.tick(t)
	ticker.tick(t)
	fetcher.expectNoCall(t)

	pending.respond(ordersWithStatus(entity.OrderStatusPending), nil)
	rec.expectUpdate(t)
	fetcher.expectNoCall(t)

	ticker.tick(t)
	fetcher.expectCall(t).respond(nil, nil)
	rec.expectUpdate(t)
}

func TestOrderPoller_ErrorRetainsSnapshot(t *testing.T) {
	ticker := newManualTicker()
	fetcher := newBlockingFetcher()
	rec := newPollRecorder()

	h := NewOrderPoller(fetcher, WithTicker(ticker.factory)).Start("r1", time.Second, rec.callbacks())
	defer h.Stop()

	fetcher.expectCall(t).respond(ordersWithStatus(entity.OrderStatusPending, entity.OrderStatusDelivered), nil)
	rec.expectUpdate(t)

	boom := stderrors.New("backend down")
	ticker.tick(t)
	fetcher.expectCall(t).respond(nil, boom)
	assert.Equal(t, boom, rec.expectError(t))
	assert.Len(t, h.Snapshot(), 2)

	ticker.tick(t)
	fetcher.expectCall(t).respond(ordersWithStatus(entity.OrderStatusPending, entity.OrderStatusDelivered, entity.OrderStatusPending), nil)
	assert.Len(t, rec.expectUpdate(t), 3)
	assert.Equal(t, 1, rec.alertCount())
}

func TestOrderPoller_MapsDisplayState(t *testing.T) {
	ticker := newManualTicker()
	fetcher := newBlockingFetcher()
	rec := newPollRecorder()

	h := NewOrderPoller(fetcher, WithTicker(ticker.factory)).Start("r1", time.Second, rec.callbacks())
	defer h.Stop()

	fetcher.expectCall(t).respond([]*entity.Order{
		{ID: "A", Status: entity.OrderStatusOnTheWay, ConfirmedByCourier: true},
	}, nil)
	snap := rec.expectUpdate(t)
	require.Len(t, snap, 1)
	assert.Equal(t, entity.OrderStatusAwaitingCustomer, snap[0].DisplayState)
}

func TestOrderPoller_StopFromCallback(t *testing.T) {
	ticker := newManualTicker()
	fetcher := newBlockingFetcher()
	updates := make(chan struct{}, 4)

	var h *PollHandle
	h = NewOrderPoller(fetcher, WithTicker(ticker.factory)).Start("r1", time.Second, PollCallbacks{
		OnUpdate: func([]*entity.Order) {
			updates <- struct{}{}
			h.Stop()
		},
	})

	fetcher.expectCall(t).respond(ordersWithStatus(entity.OrderStatusPending), nil)
	select {
	case <-updates:
	case <-time.After(waitTimeout):
		t.Fatal("expected an update")
	}

	assert.Eventually(t, ticker.stopped.Load, waitTimeout, 5*time.Millisecond)
	h.Stop()
	fetcher.expectNoCall(t)
	assert.Len(t, updates, 0)
}

func TestOrderPoller_WaitOutlastsRunningCallback(t *testing.T) {
	ticker := newManualTicker()
	fetcher := newBlockingFetcher()
	entered := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32

	h := NewOrderPoller(fetcher, WithTicker(ticker.factory)).Start("r1", time.Second, PollCallbacks{
		OnUpdate: func([]*entity.Order) {
			calls.Add(1)
			close(entered)
			<-release
		},
	})

	fetcher.expectCall(t).respond(ordersWithStatus(entity.OrderStatusPending), nil)
	select {
	case <-entered:
	case <-time.After(waitTimeout):
		t.Fatal("expected an update")
	}

	waited := make(chan struct{})
	go func() {
		h.Stop()
		h.Wait()
		close(waited)
	}()

	select {
	case <-waited:
		t.Fatal("Wait returned while a callback was running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-waited:
	case <-time.After(waitTimeout):
		t.Fatal("Wait did not return after the callback finished")
	}
	fetcher.expectNoCall(t)
	assert.Equal(t, int32(1), calls.Load())
	assert.True(t, ticker.stopped.Load())
}

func TestOrderPoller_StopCancelsFetchInFlight(t *testing.T) {
	ticker := newManualTicker()
	fetcher := newBlockingFetcher()
	rec := newPollRecorder()

	h := NewOrderPoller(fetcher, WithTicker(ticker.factory)).Start("r1", time.Second, rec.callbacks())
	call := fetcher.expectCall(t)

	h.Stop()

	select {
	case <-call.ctx.Done():
	case <-time.After(waitTimeout):
		t.Fatal("fetch context was not cancelled")
	}
	assert.Eventually(t, ticker.stopped.Load, waitTimeout, 5*time.Millisecond)
	assert.Len(t, rec.errs, 0)
	assert.Len(t, rec.updates, 0)
}

func TestOrderPoller_RefreshWhileInFlightRunsOnce(t *testing.T) {
	ticker := newManualTicker()
	fetcher := newBlockingFetcher()
	rec := newPollRecorder()

	h := NewOrderPoller(fetcher, WithTicker(ticker.factory)).Start("r1", time.Second, rec.callbacks())
	defer h.Stop()

	pending := fetcher.expectCall(t)
	h.Refresh()
	fetcher.expectNoCall(t)

	pending.respond(nil, nil)
	rec.expectUpdate(t)

	fetcher.expectCall(t).respond(nil, nil)
	rec.expectUpdate(t)
	fetcher.expectNoCall(t)
}

func TestOrderPoller_FailureBackoff(t *testing.T) {
	ticker := newManualTicker()
	fetcher := newBlockingFetcher()
	rec := newPollRecorder()
	boom := stderrors.New("timeout")

	h := NewOrderPoller(fetcher, WithTicker(ticker.factory), WithFailureBackoff(4)).Start("r1", time.Second, rec.callbacks())
	defer h.Stop()

	// failure 1: no skip
	fetcher.expectCall(t).respond(nil, boom)
	rec.expectError(t)
	ticker.tick(t)

	// failure 2: one tick skipped
	fetcher.expectCall(t).respond(nil, boom)
	rec.expectError(t)
	ticker.tick(t)
	fetcher.expectNoCall(t)
	ticker.tick(t)

	// failure 3: three ticks skipped
	fetcher.expectCall(t).respond(nil, boom)
	rec.expectError(t)
	for i := 0; i < 3; i++ {
		ticker.tick(t)
	}
	fetcher.expectNoCall(t)
	ticker.tick(t)

	// success resets the schedule
	fetcher.expectCall(t).respond(nil, nil)
	rec.expectUpdate(t)
	ticker.tick(t)
	fetcher.expectCall(t).respond(nil, nil)
	rec.expectUpdate(t)
}

func TestBackoffSkip(t *testing.T) {
	tests := []struct {
		failures, maxSkip, want int
	}{
		{1, 8, 0},
		{2, 8, 1},
		{3, 8, 3},
		{4, 8, 7},
		{5, 8, 8},
		{40, 8, 8},
		{5, 0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, backoffSkip(tt.failures, tt.maxSkip), "failures=%d max=%d", tt.failures, tt.maxSkip)
	}
}
