// If you are AI: This file contains unit tests for sender link management and blocking sends.

package flow

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSenderLinkUnlink(t *testing.T) {
	src := NewSender("cam", "out", testType)
	id := NewPortID("det", "in")

	if src.IsConnected() {
		t.Error("New sender should not be connected")
	}

	if err := src.Link(id, NewQueue(2)); err != nil {
		t.Fatalf("Link failed: %v", err)
	}
	if !src.IsConnected() {
		t.Error("Sender should be connected after link")
	}
	if err := src.Link(id, NewQueue(4)); !errors.Is(err, ErrReceiverLinked) {
		t.Errorf("Expected ErrReceiverLinked for a second link, got %v", err)
	}
	if links := src.Stats().Links; links != 1 {
		t.Errorf("Expected the first link kept, got %d links", links)
	}

	src.Unlink(id)
	if src.IsConnected() {
		t.Error("Sender should not be connected after unlink")
	}

	// Unlink of a missing link is a no-op
	src.Unlink(id)
	src.Unlink(NewPortID("nobody", "in"))
	if n := src.Stats().Links; n != 0 {
		t.Errorf("Expected 0 links, got %d", n)
	}
}

func TestSendBlockingContextCancel(t *testing.T) {
	src := NewSender("cam", "out", testType)
	dst := NewReceiver("det", "in", testType)
	if err := Connect(src, dst, 1); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	first, _ := newTestBuffer()
	src.Send(1, testFormat, first)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	second, _ := newTestBuffer()
	served, err := src.SendBlockingContext(ctx, 2, testFormat, second)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Expected deadline exceeded, got %v", err)
	}
	if served != 0 {
		t.Errorf("Expected 0 served, got %d", served)
	}
	if _, tracked := src.Outstanding(second); tracked {
		t.Error("Cancelled send must not track the buffer")
	}
}

func TestSendBlockingServesOnlyPending(t *testing.T) {
	src := NewSender("cam", "out", testType)
	fast := NewReceiver("fast", "in", testType)
	slow := NewReceiver("slow", "in", testType)
	if err := Connect(src, fast, 4); err != nil {
		t.Fatalf("Connect fast failed: %v", err)
	}
	if err := Connect(src, slow, 1); err != nil {
		t.Fatalf("Connect slow failed: %v", err)
	}

	filler, _ := newTestBuffer()
	src.Send(1, testFormat, filler)

	buf, _ := newTestBuffer()
	done := make(chan int, 1)
	go func() {
		done <- src.SendBlocking(2, testFormat, buf)
	}()

	time.Sleep(30 * time.Millisecond)
	// Fast receiver was served exactly once while the slow one was full
	if fast.Len() != 2 {
		t.Fatalf("Expected 2 frames on fast receiver, got %d", fast.Len())
	}

	_, _, view, err := slow.Receive()
	if err != nil {
		t.Fatalf("Receive failed: %v", err)
	}
	slow.ReleaseView(view)

	select {
	case served := <-done:
		if served != 2 {
			t.Errorf("Expected 2 receivers served, got %d", served)
		}
	case <-time.After(time.Second):
		t.Fatal("SendBlocking did not finish")
	}
	if fast.Len() != 2 {
		t.Errorf("Fast receiver must not get a duplicate, has %d frames", fast.Len())
	}
	if count, _ := src.Outstanding(buf); count != 2 {
		t.Errorf("Expected refcount 2, got %d", count)
	}
}

func TestSendBlockingDropsUnlinkedReceiver(t *testing.T) {
	src := NewSender("cam", "out", testType)
	dst := NewReceiver("det", "in", testType)
	if err := Connect(src, dst, 1); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	first, _ := newTestBuffer()
	src.Send(1, testFormat, first)

	second, _ := newTestBuffer()
	done := make(chan int, 1)
	go func() {
		done <- src.SendBlocking(2, testFormat, second)
	}()

	time.Sleep(20 * time.Millisecond)
	Disconnect(src, dst)

	select {
	case served := <-done:
		if served != 0 {
			t.Errorf("Expected 0 served after unlink, got %d", served)
		}
	case <-time.After(time.Second):
		t.Fatal("SendBlocking kept waiting on an unlinked receiver")
	}
}

func TestSendBlockingWithoutLinks(t *testing.T) {
	src := NewSender("cam", "out", testType)
	buf, _ := newTestBuffer()

	if served := src.SendBlocking(1, testFormat, buf); served != 0 {
		t.Errorf("Expected 0 served, got %d", served)
	}
}

func TestFanoutSkipsFullReceiver(t *testing.T) {
	backoff := 200 * time.Millisecond
	src := NewSender("cam", "out", testType, WithBackoff(backoff))
	full := NewReceiver("slow", "in", testType)
	free := NewReceiver("fast", "in", testType)
	if err := Connect(src, full, 1); err != nil {
		t.Fatalf("Connect full failed: %v", err)
	}

	// Fill the slow receiver before linking the fast one
	filler, _ := newTestBuffer()
	src.Send(1, testFormat, filler)

	if err := Connect(src, free, 4); err != nil {
		t.Fatalf("Connect free failed: %v", err)
	}

	buf, _ := newTestBuffer()
	start := time.Now()
	served := src.Send(2, testFormat, buf)
	elapsed := time.Since(start)

	if served != 1 {
		t.Fatalf("Expected only the free receiver served, got %d", served)
	}
	if elapsed >= backoff {
		t.Errorf("Send should return without backoff when a receiver accepted, took %v", elapsed)
	}
	if full.Len() != 1 || free.Len() != 1 {
		t.Errorf("Expected 1 frame in each queue, got full=%d free=%d", full.Len(), free.Len())
	}
	if count, _ := src.Outstanding(buf); count != 1 {
		t.Errorf("Expected refcount 1, got %d", count)
	}
}

func TestSendBackoffWhenNobodyAccepts(t *testing.T) {
	backoff := 30 * time.Millisecond
	src := NewSender("cam", "out", testType, WithBackoff(backoff))
	buf, _ := newTestBuffer()

	start := time.Now()
	if served := src.Send(1, testFormat, buf); served != 0 {
		t.Fatalf("Expected 0 served without links, got %d", served)
	}
	if elapsed := time.Since(start); elapsed < backoff {
		t.Errorf("Expected backoff of at least %v, took %v", backoff, elapsed)
	}
}
