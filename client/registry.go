package client

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/gear6io/gpsd4go/pkg/errors"
	"github.com/gear6io/gpsd4go/protocol"
	"github.com/rs/zerolog"
)

// Registry maps message types to their handlers in registration order.
// Dispatch only holds the read lock while it copies a type's handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[protocol.Type][]*Handler
	logger   zerolog.Logger
}

// NewRegistry creates an empty handler registry
func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		handlers: make(map[protocol.Type][]*Handler),
		logger:   logger,
	}
}

// Register appends h to the handlers of t. Registering the same handler twice
// makes it run twice.
func (r *Registry) Register(t protocol.Type, h *Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.handlers[t] = append(r.handlers[t], h)
}

// Unregister removes the first registration of h under t.
func (r *Registry) Unregister(t protocol.Type, h *Handler) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.removeLocked(t, h)
}

// UnregisterEverywhere removes every registration of h.
func (r *Registry) UnregisterEverywhere(h *Handler) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := false
	for t := range r.handlers {
		for r.removeLocked(t, h) {
			removed = true
		}
	}
	return removed
}

func (r *Registry) removeLocked(t protocol.Type, h *Handler) bool {
	list := r.handlers[t]
	for i, candidate := range list {
		if candidate != h {
			continue
		}
		// copy so snapshots taken by Dispatch stay intact
		next := make([]*Handler, 0, len(list)-1)
		next = append(next, list[:i]...)
		next = append(next, list[i+1:]...)
		if len(next) == 0 {
			delete(r.handlers, t)
		} else {
			r.handlers[t] = next
		}
		return true
	}
	return false
}

// Handlers returns a copy of the handlers registered under t.
func (r *Registry) Handlers(t protocol.Type) []*Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]*Handler(nil), r.handlers[t]...)
}

// Len counts all registrations.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, list := range r.handlers {
		n += len(list)
	}
	return n
}

// Dispatch submits one task per handler registered under msg's type and each
// of its ancestors, most specific type first. It returns the number of tasks
// submitted.
func (r *Registry) Dispatch(msg protocol.Message, exec Executor) int {
	submitted := 0
	for _, t := range protocol.ChainOf(msg.Type()) {
		r.mu.RLock()
		list := r.handlers[t]
		r.mu.RUnlock()

		for _, h := range list {
			task := &handlerTask{handler: h, msg: msg, target: t}
			if err := exec.Submit(task); err != nil {
				r.logger.Debug().
					Err(err).
					Str("type", msg.Type().String()).
					Msg("Dispatch stopped, executor unavailable")
				return submitted
			}
			submitted++
		}
	}
	return submitted
}

// handlerTask runs one handler for one message with panic isolation
type handlerTask struct {
	handler *Handler
	msg     protocol.Message
	target  protocol.Type
}

func (t *handlerTask) GetID() string {
	return fmt.Sprintf("%s/%s", t.target, t.handler.ID())
}

func (t *handlerTask) Execute(_ context.Context) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = errors.Newf(ErrHandlerPanicked, "handler panicked: %v", rec).
				AddContext("message_type", t.msg.Type().String()).
				AddContext("stack", string(debug.Stack()))
		}
	}()

	t.handler.Handle(t.msg)
	return nil
}
