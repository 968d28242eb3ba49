package datagrid

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

const subscriberBuffer = 8

// BroadcastHook fans out grid events to in-process subscribers.
type BroadcastHook struct {
	mu   sync.RWMutex
	subs map[int]*subscriber
	next int
}

type subscriber struct {
	ch    chan GridEvent
	grids map[string]bool
}

func (s *subscriber) wants(grid string) bool {
	return len(s.grids) == 0 || s.grids[grid]
}

func NewBroadcastHook() *BroadcastHook {
	return &BroadcastHook{subs: make(map[int]*subscriber)}
}

// GridUpdated satisfies StateHook. Slow subscribers miss events rather than block.
func (h *BroadcastHook) GridUpdated(_ context.Context, event GridEvent) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		if !sub.wants(event.Grid) {
			continue
		}
		select {
		case sub.ch <- event:
		default:
		}
	}
	return nil
}

// Subscribe returns a channel of events for the given grid codes (all grids
// when none are given) and a cancel func that closes it.
func (h *BroadcastHook) Subscribe(grids ...string) (<-chan GridEvent, func()) {
	sub := &subscriber{ch: make(chan GridEvent, subscriberBuffer)}
	for _, code := range grids {
		if code = strings.TrimSpace(code); code != "" {
			if sub.grids == nil {
				sub.grids = map[string]bool{}
			}
			sub.grids[code] = true
		}
	}

	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = sub
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs, id)
			close(sub.ch)
		})
	}
	return sub.ch, cancel
}

// Subscribers reports the number of live subscriptions.
func (h *BroadcastHook) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket upgrades the request and streams grid events as JSON. A
// comma separated ?grid= query narrows the stream.
func (h *BroadcastHook) ServeWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer conn.Close()

	// A hijacked connection never cancels r.Context, so the read pump ends the stream.
	ctx, stop := context.WithCancel(r.Context())
	defer stop()
	go func() {
		defer stop()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	events, cancel := h.Subscribe(GridCodes(r.URL.Query().Get("grid"))...)
	defer cancel()
	_ = stream(ctx, events, func(event GridEvent) error {
		return conn.WriteJSON(event)
	})
}

// ServeSSE streams grid events as Server-Sent Events named after the event reason.
func (h *BroadcastHook) ServeSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	events, cancel := h.Subscribe(GridCodes(r.URL.Query().Get("grid"))...)
	defer cancel()

	flusher, _ := w.(http.Flusher)
	if flusher != nil {
		flusher.Flush()
	}
	_ = stream(r.Context(), events, func(event GridEvent) error {
		data, err := json.Marshal(event)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Reason, data); err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	})
}

// GridCodes splits a comma separated list of grid codes.
func GridCodes(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

func stream(ctx context.Context, events <-chan GridEvent, write func(GridEvent) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if err := write(event); err != nil {
				return err
			}
		}
	}
}
