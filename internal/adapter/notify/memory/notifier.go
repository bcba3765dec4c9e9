package memory

import (
	"log/slog"
	"sync"
)

type Notice struct {
	CitizenID string
	Kind      string
	Message   string
	Details   map[string]any
}

// Notifier buffers notices in a bounded queue. When the queue is full
// the oldest notice is dropped so Notify never blocks a decision.
type Notifier struct {
	mu      sync.Mutex
	buf     []Notice
	cap     int
	dropped uint64
	log     *slog.Logger
}

func NewNotifier(capacity int, log *slog.Logger) *Notifier {
	if capacity <= 0 {
		capacity = 256
	}
	if log == nil {
		log = slog.Default()
	}
	return &Notifier{cap: capacity, log: log}
}

func (n *Notifier) Notify(citizenID, kind, message string, details map[string]any) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if len(n.buf) >= n.cap {
		n.buf = n.buf[1:]
		n.dropped++
		if n.dropped%100 == 1 {
			n.log.Warn("notice buffer full, dropping oldest", "dropped_total", n.dropped)
		}
	}
	n.buf = append(n.buf, Notice{
		CitizenID: citizenID,
		Kind:      kind,
		Message:   message,
		Details:   details,
	})
}

// Drain returns and clears all buffered notices.
func (n *Notifier) Drain() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := n.buf
	n.buf = nil
	return out
}

func (n *Notifier) Dropped() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.dropped
}
