package notifier

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_Subscribe_Unsubscribe(t *testing.T) {
	n := New()

	ch := n.Subscribe()
	require.NotNil(t, ch)

	n.mu.RLock()
	assert.Len(t, n.listeners, 1)
	n.mu.RUnlock()

	n.Unsubscribe(ch)

	n.mu.RLock()
	assert.Len(t, n.listeners, 0)
	n.mu.RUnlock()
}

func TestNotifier_Broadcast(t *testing.T) {
	n := New()

	ch1 := n.Subscribe()
	ch2 := n.Subscribe()
	defer n.Unsubscribe(ch1)
	defer n.Unsubscribe(ch2)

	n.Broadcast(StatusChanged)

	select {
	case ev := <-ch1:
		assert.Equal(t, StatusChanged, ev)
	case <-time.After(100 * time.Millisecond):
		t.Error("ch1 did not receive broadcast")
	}

	select {
	case ev := <-ch2:
		assert.Equal(t, StatusChanged, ev)
	case <-time.After(100 * time.Millisecond):
		t.Error("ch2 did not receive broadcast")
	}
}

func TestNotifier_Broadcast_MultipleEvents(t *testing.T) {
	n := New()

	ch := n.Subscribe()
	defer n.Unsubscribe(ch)

	n.Broadcast(StatusChanged, RunsChanged, DataChanged)

	want := []Event{StatusChanged, RunsChanged, DataChanged}
	for _, expected := range want {
		select {
		case ev := <-ch:
			assert.Equal(t, expected, ev)
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("listener did not receive %v", expected)
		}
	}
}

func TestNotifier_Broadcast_NonBlocking(t *testing.T) {
	n := New()

	ch := n.Subscribe()
	defer n.Unsubscribe(ch)

	// Fill the listener's buffer
	for i := 0; i < cap(ch); i++ {
		ch <- DataChanged
	}

	done := make(chan bool)
	go func() {
		n.Broadcast(StatusChanged)
		done <- true
	}()

	select {
	case <-done:
		// OK - broadcast completed
	case <-time.After(100 * time.Millisecond):
		t.Error("Broadcast blocked on full channel")
	}
}

func TestNotifier_Concurrent(t *testing.T) {
	n := New()

	var wg sync.WaitGroup
	const numGoroutines = 10

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ch := n.Subscribe()
			n.Broadcast(RunsChanged)
			n.Unsubscribe(ch)
		}()
	}

	wg.Wait()

	n.mu.RLock()
	assert.Len(t, n.listeners, 0)
	n.mu.RUnlock()
}

func TestEvent_String(t *testing.T) {
	assert.Equal(t, "status", StatusChanged.String())
	assert.Equal(t, "runs", RunsChanged.String())
	assert.Equal(t, "data", DataChanged.String())
	assert.Equal(t, "unknown", Event(99).String())
}
