package hub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendAndReceive(t *testing.T) {
	h := New[string](5)
	ctx := context.Background()

	h.SendEvent(ctx, "hello")
	select {
	case pl := <-h.EventCh():
		assert.Equal(t, "hello", pl.Data())
		assert.False(t, pl.Batch())
		pl.Done() // no-op outside batch mode
	default:
		t.Fatal("expected an event payload")
	}

	h.SendDraw(ctx, DrawOptions{Prompt: true})
	pl := <-h.DrawCh()
	assert.True(t, pl.Data().Prompt)

	h.SendPaging(ctx, ToScrollPageDown)
	assert.Equal(t, ToScrollPageDown, (<-h.PagingCh()).Data())

	h.SendStatusMsg(ctx, "busy", 250*time.Millisecond)
	msg := (<-h.StatusCh()).Data()
	assert.Equal(t, "busy", msg.Message)
	assert.Equal(t, 250*time.Millisecond, msg.Delay)
}

func TestBatchBlocksUntilDone(t *testing.T) {
	h := New[string](5)

	received := make(chan struct{})
	finished := make(chan struct{})

	go func() {
		pl := <-h.EventCh()
		close(received)
		// the sender must still be inside Batch at this point
		time.Sleep(20 * time.Millisecond)
		pl.Done()
	}()

	go func() {
		h.Batch(context.Background(), func(ctx context.Context) {
			h.SendEvent(ctx, "sync")
		})
		close(finished)
	}()

	<-received
	select {
	case <-finished:
		t.Fatal("Batch returned before the receiver called Done")
	case <-time.After(5 * time.Millisecond):
	}

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Batch never returned after Done")
	}
}

func TestNestedBatchDoesNotDeadlock(t *testing.T) {
	h := New[string](5)

	go func() {
		for i := 0; i < 2; i++ {
			pl := <-h.EventCh()
			pl.Done()
		}
	}()

	done := make(chan struct{})
	go func() {
		h.Batch(context.Background(), func(ctx context.Context) {
			h.SendEvent(ctx, "outer")
			h.Batch(ctx, func(ctx context.Context) {
				h.SendEvent(ctx, "inner")
			})
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("nested Batch deadlocked")
	}
}

func TestSendHonorsContextCancellation(t *testing.T) {
	h := New[string](0) // unbuffered: sends block without a receiver
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		h.SendEvent(ctx, "never delivered")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("send did not observe cancellation")
	}
	require.Len(t, h.EventCh(), 0)
}
