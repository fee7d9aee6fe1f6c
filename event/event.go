package event

import (
	"context"
	"sync"

	"github.com/spanbridge/go-spanbridge/service/logger"
	"github.com/spanbridge/go-spanbridge/service/persist"
)

// TransferEvent is emitted whenever a bridge transfer record is created or transitions
// status. Handlers feed the external notification/toast layer; the engine itself does
// not render anything.
type TransferEvent struct {
	ID             persist.DBID
	AppchainID     persist.AppchainID
	Record         persist.BridgeTransferRecord
	PreviousStatus persist.TransferStatus
}

// Handler receives transfer events
type Handler interface {
	Handle(ctx context.Context, evt TransferEvent)
}

// HandlerFunc adapts a function to the Handler interface
type HandlerFunc func(ctx context.Context, evt TransferEvent)

func (f HandlerFunc) Handle(ctx context.Context, evt TransferEvent) {
	f(ctx, evt)
}

// Dispatcher fans transfer events out to registered handlers. It is constructed
// explicitly and passed where needed; there is no ambient global registry.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers []Handler
}

// NewDispatcher creates an empty dispatcher
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// AddHandler registers a handler for all subsequent events
func (d *Dispatcher) AddHandler(handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = append(d.handlers, handler)
}

// Dispatch delivers the event to every registered handler. Delivery is asynchronous and
// best-effort: a panicking handler is logged and never takes the engine down.
func (d *Dispatcher) Dispatch(ctx context.Context, evt TransferEvent) {
	if d == nil {
		return
	}
	evt.ID = persist.GenerateID()

	d.mu.RLock()
	handlers := make([]Handler, len(d.handlers))
	copy(handlers, d.handlers)
	d.mu.RUnlock()

	for _, handler := range handlers {
		go func(h Handler) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.For(ctx).Errorf("transfer event handler panicked: %v", rec)
				}
			}()
			h.Handle(ctx, evt)
		}(handler)
	}
}
