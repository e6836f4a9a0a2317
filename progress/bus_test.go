package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func drainAvailable(t *testing.T, sub *Subscription, timeout time.Duration) []Event {
	t.Helper()
	var out []Event
	deadline := time.After(timeout)
	for {
		select {
		case ev, ok := <-sub.Events:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-deadline:
			return out
		}
	}
}

func TestLateSubscriberReplaysSnapshot(t *testing.T) {
	b := New()
	b.Publish(Event{Kind: Scanning})
	b.Publish(Event{Kind: ScanCompleted, Count: 3})
	b.Publish(Event{Kind: StartHandlingFile, Path: "a.pdf", Op: "ingest"})
	b.Publish(Event{Kind: ParseProgress, Path: "a.pdf", I: 1, N: 2})
	b.Publish(Event{Kind: CompleteHandlingFile, Path: "a.pdf"})
	b.Publish(Event{Kind: StartHandlingFile, Path: "b.pdf", Op: "ingest"})

	sub := b.Subscribe()
	defer sub.Close()

	events := drainAvailable(t, sub, 100*time.Millisecond)
	require.Len(t, events, 3) // ScanCompleted replay, one completed file, current file

	require.Equal(t, ScanCompleted, events[0].Kind)
	require.Equal(t, 3, events[0].Count)
	require.Equal(t, CompleteHandlingFile, events[1].Kind)
	require.Equal(t, "a.pdf", events[1].Path)
	require.Equal(t, StartHandlingFile, events[2].Kind)
	require.Equal(t, "b.pdf", events[2].Path)
}

func TestLiveEventsDeliveredAfterSubscribe(t *testing.T) {
	b := New()
	sub := b.Subscribe()
	defer sub.Close()

	b.Publish(Event{Kind: Completed})

	select {
	case ev := <-sub.Events:
		require.Equal(t, Completed, ev.Kind)
	case <-time.After(time.Second):
		t.Fatal("expected event not received")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := New()
	sub := b.Subscribe()
	sub.Close()

	_, ok := <-sub.Events
	require.False(t, ok)
}
