package driver

import (
	"log/slog"
	"sync"

	"github.com/gofrs/uuid"
)

// DialogHub routes native dialog events of one page to registered handlers.
// A driver adapter registers a single listener with the engine and forwards every
// dialog to Dispatch. A dialog can be acknowledged only once, so each dialog has
// exactly one owner: the handler registered first.
type DialogHub struct {
	mu sync.RWMutex
	// subscribers holds handlers by subscription id, order keeps registration order
	subscribers map[uuid.UUID]func(Dialog)
	order       []uuid.UUID
	closed      bool
	logger      *slog.Logger
}

// NewDialogHub creates an empty hub. A nil logger uses slog.Default().
func NewDialogHub(logger *slog.Logger) *DialogHub {
	if logger == nil {
		logger = slog.Default()
	}
	return &DialogHub{
		subscribers: make(map[uuid.UUID]func(Dialog)),
		logger:      logger,
	}
}

// Subscribe registers handler and returns a subscription that removes it again.
// Subscribing to a closed hub returns a subscription that does nothing.
func (h *DialogHub) Subscribe(handler func(Dialog)) Subscription {
	id := uuid.Must(uuid.NewV4())

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return &hubSubscription{}
	}
	h.subscribers[id] = handler
	h.order = append(h.order, id)

	return &hubSubscription{hub: h, id: id}
}

func (h *DialogHub) unsubscribe(id uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.subscribers[id]; !exists {
		return
	}
	delete(h.subscribers, id)
	for i, oid := range h.order {
		if oid == id {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of registered handlers.
func (h *DialogHub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Dispatch hands d to the oldest registered handler, which owns it and must
// accept or dismiss it. Later handlers only see dialogs once the earlier ones
// unsubscribed. The handler runs without the hub lock held, so it may
// unsubscribe itself. Without any handler the dialog is dismissed, otherwise the
// page would stay blocked.
func (h *DialogHub) Dispatch(d Dialog) {
	h.mu.RLock()
	var handler func(Dialog)
	if !h.closed && len(h.order) > 0 {
		handler = h.subscribers[h.order[0]]
	}
	h.mu.RUnlock()

	if handler == nil {
		h.logger.Debug("Dismissing unhandled dialog", slog.String("kind", d.Kind()), slog.String("message", d.Message()))
		if err := d.Dismiss(); err != nil {
			h.logger.Warn("Failed to dismiss unhandled dialog", slog.Any("error", err))
		}
		return
	}

	handler(d)
}

// Close removes all handlers. Dialogs dispatched afterwards are dismissed.
func (h *DialogHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	h.subscribers = make(map[uuid.UUID]func(Dialog))
	h.order = nil
}

type hubSubscription struct {
	hub  *DialogHub
	id   uuid.UUID
	once sync.Once
}

func (s *hubSubscription) Unsubscribe() {
	if s.hub == nil {
		return
	}
	s.once.Do(func() {
		s.hub.unsubscribe(s.id)
	})
}
