package bridge

import (
	"sync"
	"time"
)

// Health tracks bridge activity counters. All methods are safe for
// concurrent use; the run loop and the gateway handler both report here.
type Health struct {
	mu           sync.Mutex
	startedAt    time.Time
	received     int64
	delivered    int64
	fallbacks    int64
	dropped      int64
	deferred     int64
	forwarded    int64
	lastUpdateAt time.Time
}

// Status is the JSON shape served on the health endpoint.
type Status struct {
	Uptime       string    `json:"uptime"`
	Received     int64     `json:"updates_received"`
	Delivered    int64     `json:"messages_delivered"`
	Fallbacks    int64     `json:"fallback_deliveries"`
	Dropped      int64     `json:"messages_dropped"`
	Deferred     int64     `json:"messages_deferred"`
	Forwarded    int64     `json:"messages_forwarded"`
	LastUpdateAt time.Time `json:"last_update_at"`
}

// NewHealth creates a health tracker starting now.
func NewHealth() *Health {
	return &Health{startedAt: time.Now()}
}

func (h *Health) markReceived() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.received++
	h.lastUpdateAt = time.Now()
}

func (h *Health) markDelivered() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.delivered++
}

func (h *Health) markFallback() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.fallbacks++
}

func (h *Health) markDropped() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropped++
}

func (h *Health) markDeferred() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deferred++
}

func (h *Health) markForwarded() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.forwarded++
}

// Snapshot returns the current counters.
func (h *Health) Snapshot() Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Status{
		Uptime:       time.Since(h.startedAt).Round(time.Second).String(),
		Received:     h.received,
		Delivered:    h.delivered,
		Fallbacks:    h.fallbacks,
		Dropped:      h.dropped,
		Deferred:     h.deferred,
		Forwarded:    h.forwarded,
		LastUpdateAt: h.lastUpdateAt,
	}
}
