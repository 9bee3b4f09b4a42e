package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/entrhq/hostproxy/pkg/hostapi"
)

// ErrListenerIdentity is returned by removeListener and hasListener for a
// listener that cannot be told apart from others, such as a hostapi.Func.
// Pass the handle addListener returned instead.
var ErrListenerIdentity = errors.New("listener has no identity; use the handle returned by addListener")

// Event is a host namespace exposing addListener, removeListener and
// hasListener. Listeners run synchronously, in registration order, after
// the operation that fired the event has completed.
//
// addListener returns the registered listener. Identifiable listeners
// (pointers and other comparable values) come back unchanged; anything else
// is wrapped in a fresh *ListenerHandle, which is what removeListener and
// hasListener then expect.
type Event struct {
	name      string
	logger    hostapi.Logger
	mu        sync.Mutex
	listeners []hostapi.Callable
	ns        *hostapi.Object
}

func newEvent(name string, logger hostapi.Logger) *Event {
	e := &Event{name: name, logger: logger}
	// Bound method values keep the event as the receiver however the
	// functions are reached.
	e.ns = hostapi.NewObject(map[string]any{
		"addListener":    hostapi.Func(e.addListener),
		"removeListener": hostapi.Func(e.removeListener),
		"hasListener":    hostapi.Func(e.hasListener),
	})
	return e
}

// Get implements hostapi.Namespace.
func (e *Event) Get(key hostapi.Key) any {
	return e.ns.Get(key)
}

// Keys implements hostapi.Namespace.
func (e *Event) Keys() []string {
	return e.ns.Keys()
}

// Len returns the number of registered listeners.
func (e *Event) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.listeners)
}

// ListenerHandle gives a function listener an identity.
type ListenerHandle struct {
	fn hostapi.Callable
}

// Call invokes the wrapped listener.
func (h *ListenerHandle) Call(ctx context.Context, args ...any) (any, error) {
	return h.fn.Call(ctx, args...)
}

func (e *Event) addListener(ctx context.Context, args ...any) (any, error) {
	listener, err := callableArg(args, 0, "listener")
	if err != nil {
		return nil, fmt.Errorf("%s.addListener: %w", e.name, err)
	}
	if !hostapi.Identifiable(listener) {
		listener = &ListenerHandle{fn: listener}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, listener)
	return listener, nil
}

// identifiedArg reads the listener argument of removeListener and
// hasListener.
func (e *Event) identifiedArg(op string, args []any) (hostapi.Callable, error) {
	listener, err := callableArg(args, 0, "listener")
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", e.name, op, err)
	}
	if !hostapi.Identifiable(listener) {
		return nil, fmt.Errorf("%s.%s: %w", e.name, op, ErrListenerIdentity)
	}
	return listener, nil
}

func (e *Event) removeListener(ctx context.Context, args ...any) (any, error) {
	listener, err := e.identifiedArg("removeListener", args)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, existing := range e.listeners {
		if hostapi.SameCallable(existing, listener) {
			e.listeners = append(e.listeners[:i], e.listeners[i+1:]...)
			break
		}
	}
	return nil, nil
}

func (e *Event) hasListener(ctx context.Context, args ...any) (any, error) {
	listener, err := e.identifiedArg("hasListener", args)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, existing := range e.listeners {
		if hostapi.SameCallable(existing, listener) {
			return true, nil
		}
	}
	return false, nil
}

// emit calls every listener with args. Listener errors are logged and do
// not stop delivery.
func (e *Event) emit(ctx context.Context, args ...any) {
	e.mu.Lock()
	listeners := make([]hostapi.Callable, len(e.listeners))
	copy(listeners, e.listeners)
	e.mu.Unlock()

	for _, listener := range listeners {
		if _, err := listener.Call(ctx, args...); err != nil {
			e.logger.Warnf("browser: %s listener failed: %v", e.name, err)
		}
	}
}

// pendingEvent is an event fired once the host lock is released, so
// listeners may call back into the host.
type pendingEvent struct {
	event *Event
	args  []any
}

func dispatch(ctx context.Context, events []pendingEvent) {
	for _, pending := range events {
		pending.event.emit(ctx, pending.args...)
	}
}

var _ hostapi.Namespace = (*Event)(nil)
