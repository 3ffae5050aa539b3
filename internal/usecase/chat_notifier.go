package usecase

import (
	"context"
	"sync"

	"rikoadmin/internal/domain/entity"
	"rikoadmin/internal/domain/repository"
	"rikoadmin/pkg/logger"
)

// ChatNotifier turns new chat messages into notifications for staff. The
// seen-set lives as long as the notifier and is shared by all subscriptions.
type ChatNotifier struct {
	store         MessageWatcher
	currentUserID string

	mu   sync.Mutex
	seen map[string]struct{}
}

func NewChatNotifier(store MessageWatcher, currentUserID string) *ChatNotifier {
	return &ChatNotifier{
		store:         store,
		currentUserID: currentUserID,
		seen:          make(map[string]struct{}),
	}
}

type chatSubscription struct {
	mu      sync.Mutex
	stopped bool
}

func (s *chatSubscription) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// Subscribe watches every order in orderIDs and calls onNotify, one call at a
// time, for each message that staff has not seen. The returned function tears
// the watches down; it may be called from inside onNotify and more than once.
func (n *ChatNotifier) Subscribe(orderIDs []string, activeOrderID string, onNotify func(entity.NotificationEvent)) func() {
	ctx, cancel := context.WithCancel(context.Background())
	sub := &chatSubscription{}
	events := make(chan entity.NotificationEvent, 64)

	var wg sync.WaitGroup
	for _, orderID := range uniqueIDs(orderIDs) {
		wg.Add(1)
		go func(orderID string) {
			defer wg.Done()
			n.watch(ctx, orderID, activeOrderID, events)
		}(orderID)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-events:
				if sub.isStopped() {
					return
				}
				onNotify(ev)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			sub.mu.Lock()
			sub.stopped = true
			sub.mu.Unlock()
			cancel()
			wg.Wait()
		})
	}
}

func (n *ChatNotifier) watch(ctx context.Context, orderID, activeOrderID string, events chan<- entity.NotificationEvent) {
	backlog := true
	err := n.store.Watch(ctx, orderID, func(batch repository.MessageBatch) {
		if backlog {
			backlog = false
			n.markSeen(batch)
			return
		}
		for _, msg := range batch {
			if !n.admit(msg, orderID, activeOrderID) {
				continue
			}
			ev := entity.NotificationEvent{
				OrderID:    orderID,
				Summary:    msg.Summary(),
				MessageID:  msg.ID,
				SenderType: msg.SenderType,
				SentAt:     msg.Timestamp,
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	})
	if err != nil && ctx.Err() == nil {
		logger.Warn("Chat watch for order %s stopped: %v", orderID, err)
	}
}

func (n *ChatNotifier) markSeen(batch repository.MessageBatch) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, msg := range batch {
		n.seen[msg.ID] = struct{}{}
	}
}

// admit records msg as seen and reports whether it should be notified.
func (n *ChatNotifier) admit(msg *entity.ChatMessage, orderID, activeOrderID string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, dup := n.seen[msg.ID]; dup {
		return false
	}
	n.seen[msg.ID] = struct{}{}

	if msg.SenderID == n.currentUserID {
		return false
	}
	if activeOrderID != "" && orderID == activeOrderID {
		return false
	}
	return true
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
