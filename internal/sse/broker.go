// Package sse streams post change notifications to browsers.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// Post change kinds accepted by PublishPostEvent.
const (
	KindCreated = "created"
	KindUpdated = "updated"
	KindDeleted = "deleted"
)

// EventIndexUpdated follows post events, at most once per IndexThrottle.
const EventIndexUpdated = "index.updated"

// Event is one message on the stream.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// PostChange is the payload of post.* events.
type PostChange struct {
	Slug string `json:"slug"`
}

// IndexChange is the payload of index.updated.
type IndexChange struct {
	At string `json:"at"`
}

// Options configures a Broker. Zero values take the defaults.
type Options struct {
	IndexThrottle time.Duration // default 2s
	KeepAlive     time.Duration // default 30s
	History       int           // events kept for Last-Event-ID replay, default 64
	ClientBuffer  int           // default 64
}

type frame struct {
	id  uint64
	raw []byte
}

type subscription struct {
	ch    chan []byte
	after uint64
}

// Broker fans events out to connected clients. One loop goroutine owns the
// clients, the id sequence, the replay history and the index throttle.
type Broker struct {
	opts Options

	subCh   chan subscription
	unsubCh chan chan []byte
	eventCh chan Event
	countCh chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker starts a broker.
func NewBroker(opts Options) *Broker {
	if opts.IndexThrottle <= 0 {
		opts.IndexThrottle = 2 * time.Second
	}
	if opts.KeepAlive <= 0 {
		opts.KeepAlive = 30 * time.Second
	}
	if opts.History <= 0 {
		opts.History = 64
	}
	if opts.ClientBuffer <= 0 {
		opts.ClientBuffer = 64
	}

	b := &Broker{
		opts:    opts,
		subCh:   make(chan subscription),
		unsubCh: make(chan chan []byte),
		eventCh: make(chan Event, 256),
		countCh: make(chan chan int),
		stopCh:  make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go b.loop()
	return b
}

func (b *Broker) loop() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	history := make([]frame, 0, b.opts.History)
	var seq uint64
	var lastIndex time.Time

	send := func(ch chan []byte, raw []byte) {
		select {
		case ch <- raw:
		default:
			// client is behind; it can catch up through Last-Event-ID
		}
	}

	emit := func(ev Event) {
		payload, err := json.Marshal(ev.Data)
		if err != nil {
			return
		}
		seq++
		f := frame{id: seq, raw: fmt.Appendf(nil, "id: %d\nevent: %s\ndata: %s\n\n", seq, ev.Type, payload)}
		if len(history) == b.opts.History {
			history = append(history[:0], history[1:]...)
		}
		history = append(history, f)
		for ch := range clients {
			send(ch, f.raw)
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case sub := <-b.subCh:
			clients[sub.ch] = struct{}{}
			if sub.after == 0 {
				continue
			}
			for _, f := range history {
				if f.id > sub.after {
					send(sub.ch, f.raw)
				}
			}

		case ch := <-b.unsubCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case ev := <-b.eventCh:
			emit(ev)
			if !strings.HasPrefix(ev.Type, "post.") {
				continue
			}
			if now := time.Now(); now.Sub(lastIndex) >= b.opts.IndexThrottle {
				lastIndex = now
				emit(Event{Type: EventIndexUpdated, Data: IndexChange{At: now.UTC().Format(time.RFC3339)}})
			}

		case resp := <-b.countCh:
			resp <- len(clients)
		}
	}
}

// Close stops the loop and closes every client channel.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a client. Events with ids above after that are still in
// the history are queued first; pass 0 for live events only.
func (b *Broker) Subscribe(after uint64) chan []byte {
	ch := make(chan []byte, b.opts.ClientBuffer)
	if b.closed.Load() {
		close(ch)
		return ch
	}
	select {
	case b.subCh <- subscription{ch: ch, after: after}:
	case <-b.stopped:
		close(ch)
	}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}
	resp := make(chan int, 1)
	select {
	case b.countCh <- resp:
	case <-b.stopped:
		return 0
	}
	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(ev Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.eventCh <- ev:
	case <-b.stopped:
	}
}

// PublishPostEvent announces post.{kind} for slug. Unknown kinds are
// ignored.
func (b *Broker) PublishPostEvent(kind, slug string) {
	switch kind {
	case KindCreated, KindUpdated, KindDeleted:
		b.Publish(Event{Type: "post." + kind, Data: PostChange{Slug: slug}})
	}
}

// lastEventID reads the reconnect position from the Last-Event-ID header
// or the lastEventId query parameter.
func lastEventID(r *http.Request) uint64 {
	v := r.Header.Get("Last-Event-ID")
	if v == "" {
		v = r.URL.Query().Get("lastEventId")
	}
	id, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// ServeHTTP streams events to one client (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, "retry: 5000\n\n")
	flusher.Flush()

	ch := b.Subscribe(lastEventID(r))
	defer b.Unsubscribe(ch)

	ping := time.NewTicker(b.opts.KeepAlive)
	defer ping.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ping.C:
			_, _ = fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
