// If you are AI: This file contains tests for Disconnect draining, post-disconnect release and
// Disconnect racing in-flight sends.

package flow

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestDisconnectDrainsPending(t *testing.T) {
	const k = 5
	src := NewSender("cam", "out", testType)
	dst := NewReceiver("det", "in", testType)
	if err := Connect(src, dst, k); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	counters := make([]*atomic.Int32, k)
	for i := 0; i < k; i++ {
		buf, freed := newTestBuffer()
		counters[i] = freed
		src.Send(int64(i), testFormat, buf)
	}

	if drained := Disconnect(src, dst); drained != k {
		t.Errorf("Expected %d drained frames, got %d", k, drained)
	}
	for i, c := range counters {
		if c.Load() != 1 {
			t.Errorf("Buffer %d freed %d times, expected 1", i, c.Load())
		}
	}
	if src.IsConnected() || dst.IsConnected() {
		t.Error("Both ports should report disconnected")
	}
	if st := src.Stats(); st.Tracked != 0 {
		t.Errorf("Expected empty ledger, got %d tracked", st.Tracked)
	}
	if _, _, _, err := dst.Receive(); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Expected ErrNotConnected after disconnect, got %v", err)
	}
}

func TestDisconnectWakesReceiver(t *testing.T) {
	src := NewSender("cam", "out", testType)
	dst := NewReceiver("det", "in", testType)
	if err := Connect(src, dst, 1); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		_, _, _, err := dst.Receive()
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	Disconnect(src, dst)

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrDisconnected) {
			t.Errorf("Expected ErrDisconnected, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Receive was not woken by Disconnect")
	}
}

func TestDisconnectUnlinkedPortsIsNoop(t *testing.T) {
	src := NewSender("cam", "out", testType)
	other := NewSender("cam2", "out", testType)
	dst := NewReceiver("det", "in", testType)
	if err := Connect(src, dst, 1); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	if drained := Disconnect(other, dst); drained != 0 {
		t.Errorf("Expected no drain, got %d", drained)
	}
	if !dst.IsConnected() || !src.IsConnected() {
		t.Error("Existing link must survive an unrelated disconnect")
	}
}

func TestReleaseAfterDisconnect(t *testing.T) {
	src := NewSender("cam", "out", testType)
	dst := NewReceiver("det", "in", testType)
	if err := Connect(src, dst, 1); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	buf, freed := newTestBuffer()
	src.Send(1, testFormat, buf)
	_, _, view, err := dst.Receive()
	if err != nil {
		t.Fatalf("Receive failed: %v", err)
	}

	Disconnect(src, dst)
	dst.ReleaseView(view)

	if freed.Load() != 1 {
		t.Error("A view received before disconnect must still release its buffer")
	}
}

func TestDisconnectDuringSend(t *testing.T) {
	for i := 0; i < 50; i++ {
		src := NewSender("cam", "out", testType, WithBackoff(time.Millisecond))
		dst := NewReceiver("det", "in", testType)
		if err := Connect(src, dst, 2); err != nil {
			t.Fatalf("Connect failed: %v", err)
		}

		var accepted, freed atomic.Int32
		hook := func(*Buffer) { freed.Add(1) }
		stop := make(chan struct{})
		var wg sync.WaitGroup

		wg.Add(2)
		go func() {
			defer wg.Done()
			for ts := int64(0); ; ts++ {
				select {
				case <-stop:
					return
				default:
				}
				if src.Send(ts, testFormat, NewBuffer(testFormat.ByteLen(), hook)) > 0 {
					accepted.Add(1)
				}
			}
		}()
		go func() {
			defer wg.Done()
			for ts := int64(0); ; ts++ {
				select {
				case <-stop:
					return
				default:
				}
				n, _ := src.SendBlockingContext(context.Background(), ts, testFormat, NewBuffer(testFormat.ByteLen(), hook))
				if n > 0 {
					accepted.Add(1)
				}
			}
		}()

		consumed := make(chan struct{})
		go func() {
			defer close(consumed)
			for {
				_, _, view, err := dst.Receive()
				if err != nil {
					return
				}
				dst.ReleaseView(view)
			}
		}()

		time.Sleep(2 * time.Millisecond)
		Disconnect(src, dst)

		select {
		case <-consumed:
		case <-time.After(time.Second):
			t.Fatal("Consumer was not woken by Disconnect")
		}
		close(stop)
		wg.Wait()

		if src.IsConnected() || dst.IsConnected() {
			t.Fatal("Both ports should report disconnected")
		}
		if st := src.Stats(); st.Tracked != 0 {
			t.Fatalf("Expected empty ledger, got %d tracked", st.Tracked)
		}
		if freed.Load() != accepted.Load() {
			t.Fatalf("Every accepted buffer must be freed once: accepted %d, freed %d", accepted.Load(), freed.Load())
		}
	}
}
