// Package hub implements the typed messaging fabric between the picker
// engine loop and everything that wants to talk to it: actions fired from
// key handlers, application threads posting events, and components that
// need a redraw.
package hub

import (
	"context"
	"sync"
	"time"

	pdebug "github.com/lestrrat-go/pdebug"
)

// Hub controls how communication that goes through channels is handled.
// The type parameter E is the event type carried on the event channel;
// the hub itself does not inspect it.
type Hub[E any] struct {
	mutex    sync.Mutex
	eventCh  chan *Payload[E]
	drawCh   chan *Payload[DrawOptions]
	pagingCh chan *Payload[PagingRequest]
	statusCh chan *Payload[StatusMsg]
}

// Payload is a wrapper around the actual request value. It contains an
// optional channel field which can be filled to force synchronous
// communication between the sender and receiver.
type Payload[T any] struct {
	batch bool
	data  T
	done  chan struct{}
}

// NewPayload creates a new Payload with the given data and batch flag.
func NewPayload[T any](data T, batch bool) *Payload[T] {
	return &Payload[T]{
		data:  data,
		batch: batch,
	}
}

// Batch returns true if this payload is part of a batch operation.
func (p *Payload[T]) Batch() bool {
	return p.batch
}

// Data returns the underlying data.
func (p *Payload[T]) Data() T {
	return p.data
}

// Done marks the request as done. In non-batch mode it's a no-op. In batch
// mode it signals the sender that the receiver has finished processing
// this payload.
func (p *Payload[T]) Done() {
	if p.done == nil {
		return
	}
	p.done <- struct{}{}
}

// New creates a new Hub with channels buffered to bufsiz.
func New[E any](bufsiz int) *Hub[E] {
	return &Hub[E]{
		eventCh:  make(chan *Payload[E], bufsiz),
		drawCh:   make(chan *Payload[DrawOptions], bufsiz),
		pagingCh: make(chan *Payload[PagingRequest], bufsiz),
		statusCh: make(chan *Payload[StatusMsg], bufsiz),
	}
}

type batchPayloadKey struct{}
type batchLockKey struct{}

// Batch allows you to synchronously send messages during the scope of
// f() being executed. The mutex is acquired automatically unless this is
// a nested Batch call (detected via context).
func (h *Hub[E]) Batch(ctx context.Context, f func(ctx context.Context)) {
	nested, _ := ctx.Value(batchLockKey{}).(bool)

	if pdebug.Enabled {
		g := pdebug.Marker("hub.Batch (nested=%t)", nested)
		defer g.End()
	}

	if !nested {
		h.mutex.Lock()
		defer h.mutex.Unlock()
	}

	batchCtx := context.WithValue(ctx, batchPayloadKey{}, true)
	batchCtx = context.WithValue(batchCtx, batchLockKey{}, true)
	f(batchCtx)
}

var doneChPool = sync.Pool{
	New: func() any {
		return make(chan struct{})
	},
}

// waitDone blocks until the receiver signals completion by calling Done.
func (p *Payload[T]) waitDone() {
	ch := p.done
	<-ch

	// The receiver already sent on p.done, so this goroutine has exclusive
	// access. Clear the field and return the channel to the pool.
	p.done = nil
	doneChPool.Put(ch)
}

// isBatchCtx reports whether the context was created by a Batch call.
func isBatchCtx(ctx context.Context) bool {
	v, _ := ctx.Value(batchPayloadKey{}).(bool)
	return v
}

// send is the low-level utility for sending typed payloads. The context is
// used for cancellation so sends don't block forever during shutdown.
func send[T any](ctx context.Context, ch chan *Payload[T], r *Payload[T]) {
	if r.Batch() {
		r.done, _ = doneChPool.Get().(chan struct{})
		defer r.waitDone()
	}

	select {
	case ch <- r:
	case <-ctx.Done():
	}
}

// EventCh returns the unified event stream channel.
func (h *Hub[E]) EventCh() chan *Payload[E] {
	return h.eventCh
}

// SendEvent delivers an event to the engine loop.
func (h *Hub[E]) SendEvent(ctx context.Context, ev E) {
	send(ctx, h.eventCh, NewPayload(ev, isBatchCtx(ctx)))
}

// DrawCh returns the channel for redraw requests.
func (h *Hub[E]) DrawCh() chan *Payload[DrawOptions] {
	return h.drawCh
}

// SendDraw sends a request to redraw the terminal display.
func (h *Hub[E]) SendDraw(ctx context.Context, options DrawOptions) {
	send(ctx, h.drawCh, NewPayload(options, isBatchCtx(ctx)))
}

// PagingCh returns the channel for cursor movement requests.
func (h *Hub[E]) PagingCh() chan *Payload[PagingRequest] {
	return h.pagingCh
}

// SendPaging sends a request to move the cursor around.
func (h *Hub[E]) SendPaging(ctx context.Context, x PagingRequest) {
	send(ctx, h.pagingCh, NewPayload(x, isBatchCtx(ctx)))
}

// StatusCh returns the channel for status message updates.
func (h *Hub[E]) StatusCh() chan *Payload[StatusMsg] {
	return h.statusCh
}

// SendStatusMsg sends a string to be displayed in the status area. If
// clearDelay is non-zero, the message is cleared after that duration.
func (h *Hub[E]) SendStatusMsg(ctx context.Context, s string, clearDelay time.Duration) {
	send(ctx, h.statusCh, NewPayload(StatusMsg{Message: s, Delay: clearDelay}, isBatchCtx(ctx)))
}

// DrawOptions modifies how a requested redraw is performed.
type DrawOptions struct {
	// Prompt marks a redraw requested by a prompt edit. The engine
	// composes the whole frame either way.
	Prompt bool

	// Full invalidates cached layout state before drawing.
	Full bool
}

// StatusMsg is a status area update request.
type StatusMsg struct {
	Message string
	Delay   time.Duration
}

// PagingRequest describes movement of the selection cursor relative to
// the current match list.
type PagingRequest int

const (
	ToLineAbove   PagingRequest = iota + 1 // selection moves up one entry
	ToLineBelow                            // selection moves down one entry
	ToScrollPageUp                         // selection moves up one page
	ToScrollPageDown                       // selection moves down one page
	ToLineFirst                            // selection moves to the first entry
	ToLineLast                             // selection moves to the last entry
)
