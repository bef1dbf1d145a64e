package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// drain collects what is queued on ch without blocking past wait.
func drain(ch chan []byte, wait time.Duration) []string {
	var out []string
	deadline := time.After(wait)
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, string(msg))
		case <-deadline:
			return out
		}
	}
}

func eventTypes(frames []string) []string {
	var out []string
	for _, f := range frames {
		for _, line := range strings.Split(f, "\n") {
			if t, ok := strings.CutPrefix(line, "event: "); ok {
				out = append(out, t)
			}
		}
	}
	return out
}

func TestBroker_SubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(Options{})
	defer b.Close()

	assert.Equal(t, 0, b.ClientCount())
	ch := b.Subscribe(0)
	assert.Equal(t, 1, b.ClientCount())
	b.Unsubscribe(ch)
	assert.Equal(t, 0, b.ClientCount())
}

func TestBroker_PostEventFrame(t *testing.T) {
	b := NewBroker(Options{IndexThrottle: time.Hour})
	defer b.Close()
	ch := b.Subscribe(0)

	b.PublishPostEvent(KindCreated, "hello")
	frames := drain(ch, 100*time.Millisecond)

	require.Len(t, frames, 2)
	assert.Equal(t, "id: 1\nevent: post.created\ndata: {\"slug\":\"hello\"}\n\n", frames[0])
	assert.True(t, strings.HasPrefix(frames[1], "id: 2\nevent: index.updated\ndata: {\"at\":"), frames[1])
}

func TestBroker_IndexUpdatedThrottled(t *testing.T) {
	b := NewBroker(Options{IndexThrottle: time.Hour})
	defer b.Close()
	ch := b.Subscribe(0)

	b.PublishPostEvent(KindCreated, "a")
	b.PublishPostEvent(KindUpdated, "b")
	b.PublishPostEvent(KindDeleted, "c")
	b.PublishPostEvent("renamed", "d")

	assert.Equal(t,
		[]string{"post.created", "index.updated", "post.updated", "post.deleted"},
		eventTypes(drain(ch, 100*time.Millisecond)))
}

func TestBroker_PlainEventsSkipIndexUpdate(t *testing.T) {
	b := NewBroker(Options{})
	defer b.Close()
	ch := b.Subscribe(0)

	b.Publish(Event{Type: "resume.merged", Data: map[string]string{"section": "skills"}})
	assert.Equal(t, []string{"resume.merged"}, eventTypes(drain(ch, 100*time.Millisecond)))
}

func TestBroker_ReplayAfterLastEventID(t *testing.T) {
	b := NewBroker(Options{IndexThrottle: time.Hour, History: 3})
	defer b.Close()

	for _, slug := range []string{"a", "b", "c", "d"} {
		b.PublishPostEvent(KindUpdated, slug)
	}
	// ids: 1 post a, 2 index, 3 b, 4 c, 5 d; history keeps 3..5.
	require.Eventually(t, func() bool {
		peek := b.Subscribe(4)
		defer b.Unsubscribe(peek)
		return len(drain(peek, 20*time.Millisecond)) == 1
	}, time.Second, 10*time.Millisecond)

	ch := b.Subscribe(1)
	defer b.Unsubscribe(ch)
	frames := drain(ch, 100*time.Millisecond)
	require.Len(t, frames, 3)
	assert.True(t, strings.HasPrefix(frames[0], "id: 3\n"))
	assert.True(t, strings.HasPrefix(frames[2], "id: 5\n"))
}

func TestBroker_SlowClientDoesNotBlock(t *testing.T) {
	b := NewBroker(Options{ClientBuffer: 2})
	defer b.Close()
	ch := b.Subscribe(0)

	for i := 0; i < 10; i++ {
		b.Publish(Event{Type: "tick", Data: i})
	}
	require.Eventually(t, func() bool {
		peek := b.Subscribe(9)
		defer b.Unsubscribe(peek)
		return len(drain(peek, 20*time.Millisecond)) == 1
	}, time.Second, 10*time.Millisecond)

	assert.Len(t, drain(ch, 50*time.Millisecond), 2)
}

func TestBroker_ServeHTTP(t *testing.T) {
	b := NewBroker(Options{})
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	require.Eventually(t, func() bool { return b.ClientCount() == 1 }, time.Second, 10*time.Millisecond)
	b.PublishPostEvent(KindUpdated, "x")
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	body := w.Body.String()
	assert.True(t, strings.HasPrefix(body, "retry: 5000\n\n"), body)
	assert.Contains(t, body, "id: 1\nevent: post.updated\n")
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Eventually(t, func() bool { return b.ClientCount() == 0 }, time.Second, 10*time.Millisecond)
}

func TestLastEventID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/events?lastEventId=7", nil)
	assert.Equal(t, uint64(7), lastEventID(req))

	req.Header.Set("Last-Event-ID", "12")
	assert.Equal(t, uint64(12), lastEventID(req))

	req = httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req.Header.Set("Last-Event-ID", "junk")
	assert.Equal(t, uint64(0), lastEventID(req))
}

func TestBroker_CloseEndsSubscribers(t *testing.T) {
	b := NewBroker(Options{})
	ch := b.Subscribe(0)
	require.Equal(t, 1, b.ClientCount())

	b.Close()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscriber channel not closed")
	}
	assert.Equal(t, 0, b.ClientCount())

	// No-ops after close.
	b.Publish(Event{Type: "tick"})
	b.PublishPostEvent(KindUpdated, "x")
	_, ok := <-b.Subscribe(0)
	assert.False(t, ok)
	b.Close()
}
