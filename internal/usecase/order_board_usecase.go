package usecase

import (
	"context"
	stderrors "errors"
	"sort"
	"strings"
	"sync"
	"time"

	"rikoadmin/internal/domain/entity"
	"rikoadmin/internal/domain/repository"
	"rikoadmin/internal/domain/service"
	"rikoadmin/pkg/errors"
	"rikoadmin/pkg/logger"
)

// ActionResult is the outcome of a staff action. Applied is false when the
// backend rejected the transition as stale; Order is then the unchanged order.
type ActionResult struct {
	Order   *entity.Order `json:"order"`
	Applied bool          `json:"applied"`
}

// OrderBoardUseCase runs one live order board per logged-in restaurant: the
// poll loop, the snapshot it feeds, and the chat notifications for the orders
// still open.
type OrderBoardUseCase struct {
	newOrderRepo OrderRepositoryFactory
	chatStore    MessageWatcher
	alerts       AlertNotifier
	interval     time.Duration
	pollerOpts   []PollerOption

	mu        sync.Mutex
	boards    map[string]*orderBoard
	notifiers map[string]*ChatNotifier
}

func NewOrderBoardUseCase(
	newOrderRepo OrderRepositoryFactory,
	chatStore MessageWatcher,
	alerts AlertNotifier,
	interval time.Duration,
	opts ...PollerOption,
) *OrderBoardUseCase {
	return &OrderBoardUseCase{
		newOrderRepo: newOrderRepo,
		chatStore:    chatStore,
		alerts:       alerts,
		interval:     interval,
		pollerOpts:   opts,
		boards:       make(map[string]*orderBoard),
		notifiers:    make(map[string]*ChatNotifier),
	}
}

type orderBoard struct {
	session  *entity.Session
	repo     repository.OrderRepository
	notifier *ChatNotifier
	alerts   AlertNotifier
	handle   *PollHandle

	mu          sync.Mutex
	closed      bool
	seed        *int
	snapshot    []*entity.Order
	openIDs     []string
	activeChat  string
	subKey      string
	unsubscribe func()
}

// Open starts the board for the session's restaurant. Opening an already open
// board is a no-op; a new backend token replaces the running board and keeps
// its order count as the alert baseline once it has one.
func (uc *OrderBoardUseCase) Open(session *entity.Session) error {
	if session == nil || session.RestaurantID == "" {
		return errors.BadRequest("session has no restaurant", nil)
	}

	uc.mu.Lock()
	old := uc.boards[session.RestaurantID]
	if old != nil && old.session.BackendToken == session.BackendToken {
		uc.mu.Unlock()
		return nil
	}

	notifier, ok := uc.notifiers[session.RestaurantID]
	if !ok {
		notifier = NewChatNotifier(uc.chatStore, session.RestaurantID)
		uc.notifiers[session.RestaurantID] = notifier
	}

	b := &orderBoard{
		session:  session,
		repo:     uc.newOrderRepo(session),
		notifier: notifier,
		alerts:   uc.alerts,
	}

	opts := append([]PollerOption{}, uc.pollerOpts...)
	if old != nil {
		old.mu.Lock()
		if count, ok := old.baseline(); ok {
			opts = append(opts, WithInitialCount(count))
			b.seed = &count
		}
		b.activeChat = old.activeChat
		old.mu.Unlock()
	}

	uc.boards[session.RestaurantID] = b
	b.handle = NewOrderPoller(b.repo, opts...).Start(session.RestaurantID, uc.interval, PollCallbacks{
		OnUpdate:    b.onUpdate,
		OnNewOrders: uc.alerts.NewOrders,
		OnError:     b.onError,
	})
	uc.mu.Unlock()

	if old != nil {
		old.close()
	}

	logger.Info("Order board opened for restaurant %s", session.RestaurantID)
	return nil
}

// Close stops the restaurant's board. Closing a board that is not open is a
// no-op.
func (uc *OrderBoardUseCase) Close(restaurantID string) {
	uc.mu.Lock()
	b := uc.boards[restaurantID]
	delete(uc.boards, restaurantID)
	uc.mu.Unlock()

	if b != nil {
		b.close()
		logger.Info("Order board closed for restaurant %s", restaurantID)
	}
}

// CloseAll stops every board. Used on shutdown.
func (uc *OrderBoardUseCase) CloseAll() {
	uc.mu.Lock()
	boards := uc.boards
	uc.boards = make(map[string]*orderBoard)
	uc.mu.Unlock()

	for _, b := range boards {
		b.close()
	}
}

// IsOpen reports whether a board is running for the restaurant.
func (uc *OrderBoardUseCase) IsOpen(restaurantID string) bool {
	return uc.board(restaurantID) != nil
}

func (uc *OrderBoardUseCase) board(restaurantID string) *orderBoard {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.boards[restaurantID]
}

func (uc *OrderBoardUseCase) openBoard(restaurantID string) (*orderBoard, error) {
	b := uc.board(restaurantID)
	if b == nil {
		return nil, errors.Unauthorized("order board is not open, please log in", nil)
	}
	return b, nil
}

// Orders returns the board's orders matching filter, sorted by display
// priority.
func (uc *OrderBoardUseCase) Orders(restaurantID string, filter service.OrderFilter) ([]*entity.Order, error) {
	b, err := uc.openBoard(restaurantID)
	if err != nil {
		return nil, err
	}
	return filter.Apply(b.orders()), nil
}

// Order returns one order of the board.
func (uc *OrderBoardUseCase) Order(restaurantID, orderID string) (*entity.Order, error) {
	b, err := uc.openBoard(restaurantID)
	if err != nil {
		return nil, err
	}
	order := b.find(orderID)
	if order == nil {
		return nil, errors.NotFound("Order", nil)
	}
	return order, nil
}

// ClientLabels lists the distinct client names currently on the board.
func (uc *OrderBoardUseCase) ClientLabels(restaurantID string) ([]string, error) {
	b, err := uc.openBoard(restaurantID)
	if err != nil {
		return nil, err
	}
	return service.ClientLabels(b.orders()), nil
}

// PerformAction validates action against the board's copy of the order and
// issues the backend transition. On success the board is updated right away
// and a refresh is requested; the next poll remains the source of truth.
func (uc *OrderBoardUseCase) PerformAction(ctx context.Context, restaurantID, orderID string, action entity.OrderAction) (*ActionResult, error) {
	b, err := uc.openBoard(restaurantID)
	if err != nil {
		return nil, err
	}

	order := b.find(orderID)
	if order == nil {
		return nil, errors.NotFound("Order", nil)
	}

	transition, err := service.Resolve(order, action)
	if err != nil {
		return nil, err
	}

	if err := b.repo.Transition(ctx, orderID, action); err != nil {
		switch {
		case errors.Is(err, errors.CodeConflict):
			logger.Info("Backend rejected stale %s on order %s, waiting for the next poll", action, orderID)
			b.handle.Refresh()
			return &ActionResult{Order: order, Applied: false}, nil
		case errors.Is(err, errors.CodeUnauthorized):
			return nil, errors.SessionExpired(restaurantID)
		}

		logger.LogOrderError(restaurantID, orderID, string(action), err)
		var appErr *errors.AppError
		if stderrors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, errors.Network("failed to update order", err)
	}

	next := service.Apply(order, transition)
	b.replace(next)
	b.handle.Refresh()

	logger.Info("Order %s: %s -> %s", orderID, transition.From, next.DisplayState)
	return &ActionResult{Order: next, Applied: true}, nil
}

// SetActiveChat records which order's chat staff has open; messages of that
// order are not notified. An empty orderID closes the chat view.
func (uc *OrderBoardUseCase) SetActiveChat(restaurantID, orderID string) error {
	b, err := uc.openBoard(restaurantID)
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.activeChat = orderID
	b.mu.Unlock()

	b.resubscribe()
	return nil
}

// ActiveChat returns the order whose chat is open, if any.
func (uc *OrderBoardUseCase) ActiveChat(restaurantID string) string {
	b := uc.board(restaurantID)
	if b == nil {
		return ""
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.activeChat
}

func (b *orderBoard) onUpdate(snapshot []*entity.Order) {
	orders := make([]*entity.Order, len(snapshot))
	copy(orders, snapshot)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.snapshot = orders
	b.openIDs = openOrderIDs(orders)
	b.mu.Unlock()

	b.resubscribe()
	b.alerts.OrdersUpdated(b.session.RestaurantID, len(orders))
}

func (b *orderBoard) onError(err error) {
	logger.Debug("Order board for restaurant %s keeps its last snapshot: %v", b.session.RestaurantID, err)
}

// resubscribe rebuilds the chat subscription when the open orders or the
// active chat changed since the last one.
func (b *orderBoard) resubscribe() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	key := b.activeChat + "|" + strings.Join(b.openIDs, ",")
	if key == b.subKey && b.unsubscribe != nil {
		b.mu.Unlock()
		return
	}
	previous := b.unsubscribe
	b.subKey = key
	b.unsubscribe = b.notifier.Subscribe(b.openIDs, b.activeChat, b.onChatMessage)
	b.mu.Unlock()

	if previous != nil {
		previous()
	}
}

func (b *orderBoard) onChatMessage(event entity.NotificationEvent) {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return
	}
	b.alerts.ChatMessage(b.session.RestaurantID, event)
}

// baseline is the order count new-order alerts are measured against: the
// last fetched snapshot, or the count this board inherited before its first
// fetch. Callers hold b.mu.
func (b *orderBoard) baseline() (int, bool) {
	if b.snapshot != nil {
		return len(b.snapshot), true
	}
	if b.seed != nil {
		return *b.seed, true
	}
	return 0, false
}

func (b *orderBoard) close() {
	b.handle.Stop()
	b.handle.Wait()

	b.mu.Lock()
	b.closed = true
	unsubscribe := b.unsubscribe
	b.unsubscribe = nil
	b.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

func (b *orderBoard) orders() []*entity.Order {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*entity.Order, len(b.snapshot))
	copy(out, b.snapshot)
	return out
}

func (b *orderBoard) find(orderID string) *entity.Order {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, o := range b.snapshot {
		if o.ID == orderID {
			return o
		}
	}
	return nil
}

func (b *orderBoard) replace(order *entity.Order) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, o := range b.snapshot {
		if o.ID == order.ID {
			b.snapshot[i] = order
			return
		}
	}
}

func openOrderIDs(orders []*entity.Order) []string {
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		if !service.IsTerminal(service.DisplayState(o)) {
			ids = append(ids, o.ID)
		}
	}
	sort.Strings(ids)
	return ids
}
