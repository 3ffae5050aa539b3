package usecase

import (
	"context"
	"sync"
	"time"

	"rikoadmin/internal/domain/entity"
	"rikoadmin/internal/domain/service"
	"rikoadmin/pkg/logger"
)

const DefaultPollInterval = 10 * time.Second

// Ticker is the tick source of a poll loop.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type TickerFactory func(interval time.Duration) Ticker

type realTicker struct {
	t *time.Ticker
}

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

func newRealTicker(interval time.Duration) Ticker {
	return realTicker{t: time.NewTicker(interval)}
}

type PollCallbacks struct {
	OnUpdate    func(snapshot []*entity.Order)
	OnNewOrders func(restaurantID string, delta int)
	OnError     func(err error)
}

type PollerOption func(*OrderPoller)

// WithTicker replaces the wall clock tick source.
func WithTicker(factory TickerFactory) PollerOption {
	return func(p *OrderPoller) {
		p.newTicker = factory
	}
}

// WithInitialCount seeds the previous order count, so the first fetch can
// already raise a new-order alert.
func WithInitialCount(n int) PollerOption {
	return func(p *OrderPoller) {
		p.initialCount = &n
	}
}

// WithFailureBackoff skips min(2^(n-1)-1, maxSkip) ticks after the n-th
// consecutive failed fetch. A maxSkip of 0 polls on every tick.
func WithFailureBackoff(maxSkip int) PollerOption {
	return func(p *OrderPoller) {
		if maxSkip > 0 {
			p.maxSkip = maxSkip
		}
	}
}

// OrderPoller periodically fetches a restaurant's orders.
type OrderPoller struct {
	fetcher      OrderFetcher
	newTicker    TickerFactory
	initialCount *int
	maxSkip      int
}

func NewOrderPoller(fetcher OrderFetcher, opts ...PollerOption) *OrderPoller {
	p := &OrderPoller{
		fetcher:   fetcher,
		newTicker: newRealTicker,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type fetchResult struct {
	orders []*entity.Order
	err    error
}

// PollHandle controls one running poll loop.
type PollHandle struct {
	poller       *OrderPoller
	restaurantID string
	callbacks    PollCallbacks

	ctx     context.Context
	cancel  context.CancelFunc
	refresh chan struct{}
	done    chan struct{}

	mu       sync.Mutex
	stopped  bool
	snapshot []*entity.Order

	// loop state, owned by the loop goroutine
	inFlight       bool
	pendingRefresh bool
	hasBaseline    bool
	prevCount      int
	failures       int
	skip           int
}

// Start fetches immediately and then on every tick until Stop.
func (p *OrderPoller) Start(restaurantID string, interval time.Duration, callbacks PollCallbacks) *PollHandle {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &PollHandle{
		poller:       p,
		restaurantID: restaurantID,
		callbacks:    callbacks,
		ctx:          ctx,
		cancel:       cancel,
		refresh:      make(chan struct{}, 1),
		done:         make(chan struct{}),
	}
	if p.initialCount != nil {
		h.hasBaseline = true
		h.prevCount = *p.initialCount
	}

	go h.run(p.newTicker(interval))
	return h
}

// Stop ends polling and cancels a fetch in flight. It is safe to call from
// any goroutine, including from inside a callback, and more than once. No
// callback is admitted after Stop returns; one already running is not waited
// for, use Wait for that.
func (h *PollHandle) Stop() {
	h.mu.Lock()
	h.stopped = true
	h.mu.Unlock()
	h.cancel()
}

// Wait blocks until the poll loop has exited after Stop. Once it returns no
// callback is running and none will run. It must not be called from inside a
// callback.
func (h *PollHandle) Wait() {
	<-h.done
}

// Refresh asks for a fetch now. If one is in flight, a single follow-up fetch
// runs once it completes.
func (h *PollHandle) Refresh() {
	select {
	case h.refresh <- struct{}{}:
	default:
	}
}

// Snapshot returns the last successfully fetched orders.
func (h *PollHandle) Snapshot() []*entity.Order {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*entity.Order, len(h.snapshot))
	copy(out, h.snapshot)
	return out
}

func (h *PollHandle) run(ticker Ticker) {
	defer close(h.done)
	defer ticker.Stop()

	results := make(chan fetchResult, 1)
	h.startFetch(results)

	for {
		select {
		case <-h.ctx.Done():
			return

		case <-ticker.C():
			if h.inFlight {
				logger.Debug("Order poll for restaurant %s still pending, skipping tick", h.restaurantID)
				continue
			}
			if h.skip > 0 {
				h.skip--
				continue
			}
			h.startFetch(results)

		case <-h.refresh:
			if h.inFlight {
				h.pendingRefresh = true
				continue
			}
			h.startFetch(results)

		case res := <-results:
			h.inFlight = false
			h.handle(res)
			if h.pendingRefresh {
				h.pendingRefresh = false
				h.startFetch(results)
			}
		}
	}
}

// startFetch runs one fetch. results has room for exactly one value, so the
// fetch goroutine never blocks even after Stop.
func (h *PollHandle) startFetch(results chan<- fetchResult) {
	if h.inFlight || h.ctx.Err() != nil {
		return
	}
	h.inFlight = true
	go func() {
		orders, err := h.poller.fetcher.ListByRestaurant(h.ctx, h.restaurantID)
		results <- fetchResult{orders: orders, err: err}
	}()
}

func (h *PollHandle) handle(res fetchResult) {
	if res.err != nil {
		if h.ctx.Err() != nil {
			return
		}
		h.failures++
		h.skip = backoffSkip(h.failures, h.poller.maxSkip)
		logger.LogOrderError(h.restaurantID, "", "poll", res.err)
		if h.callbacks.OnError != nil {
			h.invoke(func() { h.callbacks.OnError(res.err) })
		}
		return
	}

	h.failures = 0
	h.skip = 0

	snapshot := service.MapOrders(res.orders)
	count := len(snapshot)
	if h.hasBaseline && count > h.prevCount && h.callbacks.OnNewOrders != nil {
		delta := count - h.prevCount
		h.invoke(func() { h.callbacks.OnNewOrders(h.restaurantID, delta) })
	}
	h.hasBaseline = true
	h.prevCount = count

	h.mu.Lock()
	h.snapshot = snapshot
	h.mu.Unlock()

	if h.callbacks.OnUpdate != nil {
		h.invoke(func() { h.callbacks.OnUpdate(snapshot) })
	}
}

// invoke runs fn unless the handle has been stopped.
func (h *PollHandle) invoke(fn func()) {
	h.mu.Lock()
	stopped := h.stopped
	h.mu.Unlock()
	if stopped {
		return
	}
	fn()
}

func backoffSkip(failures, maxSkip int) int {
	if maxSkip <= 0 || failures <= 1 {
		return 0
	}
	if failures > 30 {
		return maxSkip
	}
	skip := 1<<(failures-1) - 1
	if skip > maxSkip {
		return maxSkip
	}
	return skip
}
