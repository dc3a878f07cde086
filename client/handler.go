package client

import (
	"sync/atomic"

	"github.com/gear6io/gpsd4go/protocol"
	"github.com/gear6io/gpsd4go/utils"
)

// Handler receives dispatched messages. Handlers are compared by pointer, so
// one Handler can be registered under several types and removed from one or
// all of them.
type Handler struct {
	id string
	fn func(protocol.Message)
}

// NewHandler wraps fn. It panics if fn is nil.
func NewHandler(fn func(protocol.Message)) *Handler {
	if fn == nil {
		panic("client: nil handler func")
	}
	return &Handler{id: utils.GenerateULIDString(), fn: fn}
}

// HandlerFor wraps a callback for one concrete message type. Messages of any
// other type are ignored, which makes it safe to register under ancestors.
func HandlerFor[T protocol.Message](fn func(T)) *Handler {
	if fn == nil {
		panic("client: nil handler func")
	}
	return NewHandler(func(msg protocol.Message) {
		if typed, ok := msg.(T); ok {
			fn(typed)
		}
	})
}

// ID returns the handler's unique id, used in logs.
func (h *Handler) ID() string {
	return h.id
}

// Handle invokes the callback directly.
func (h *Handler) Handle(msg protocol.Message) {
	h.fn(msg)
}

// oneShot returns a handler that invokes fn at most once, removing itself from
// every type in r right before doing so.
func oneShot(r *Registry, fn func(protocol.Message)) *Handler {
	var (
		consumed atomic.Bool
		self     *Handler
	)
	self = NewHandler(func(msg protocol.Message) {
		if !consumed.CompareAndSwap(false, true) {
			return
		}
		r.UnregisterEverywhere(self)
		fn(msg)
	})
	return self
}

// typeOf returns the catalog type of message type T.
func typeOf[T protocol.Message]() protocol.Type {
	var zero T
	return zero.Type()
}
