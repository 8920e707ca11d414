// Package progress publishes per-month simulation snapshots to live
// subscribers. Delivery never back-pressures the producer: each
// subscriber channel coalesces by dropping its oldest pending event when
// full, so a slow consumer sees fewer intermediate snapshots but always
// the terminal one.
package progress

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"fiscalsim/pkg/models"
)

// Status of a simulation as seen by subscribers.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// TaxEstimates are the indicative per-month tax figures streamed for UX.
// They are not part of the final results.
type TaxEstimates struct {
	TVA         decimal.Decimal `json:"tva"`
	URSSAF      decimal.Decimal `json:"urssaf"`
	NetCashFlow decimal.Decimal `json:"netCashFlow"`
}

// Snapshot is one element of the progress stream.
type Snapshot struct {
	SimulationID    string                             `json:"simulationId"`
	Status          Status                             `json:"status"`
	CurrentMonth    int                                `json:"currentMonth"`
	Progress        int                                `json:"progress"`
	PartialBalances map[models.Account]decimal.Decimal `json:"partialBalances,omitempty"`
	Taxes           *TaxEstimates                      `json:"taxes,omitempty"`
	Message         string                             `json:"message,omitempty"`
	Timestamp       time.Time                          `json:"timestamp"`
}

// EventType tags a stream event.
type EventType string

const (
	EventProgress  EventType = "progress"
	EventCompleted EventType = "completed"
	EventError     EventType = "error"
	EventHeartbeat EventType = "heartbeat"
)

// Event is the wire unit of the stream. Heartbeats carry no data;
// error events carry a message.
type Event struct {
	Type    EventType `json:"type"`
	Data    *Snapshot `json:"data,omitempty"`
	Message string    `json:"message,omitempty"`
}

const subscriberBuffer = 16

// Broadcaster fans snapshots of one simulation out to subscribers. The
// snapshot slot and the subscriber set are mutex-protected: one producer
// goroutine publishes, any number of consumers subscribe.
type Broadcaster struct {
	mu     sync.Mutex
	simID  string
	latest *Snapshot
	subs   map[int]chan Event
	nextID int
	done   bool

	stopHeartbeat chan struct{}
}

// NewBroadcaster creates a broadcaster for one simulation id. A positive
// heartbeat interval starts a ticker emitting heartbeat events while the
// run is live; zero disables heartbeats (useful in tests).
func NewBroadcaster(simID string, heartbeat time.Duration) *Broadcaster {
	b := &Broadcaster{
		simID:         simID,
		subs:          make(map[int]chan Event),
		stopHeartbeat: make(chan struct{}),
	}
	if heartbeat > 0 {
		go b.heartbeatLoop(heartbeat)
	}
	return b
}

// SimulationID returns the id this broadcaster serves.
func (b *Broadcaster) SimulationID() string {
	return b.simID
}

// Publish stores a snapshot and fans it out. Snapshots whose
// (progress, status) pair equals the previous one are stored but not
// re-delivered, so subscribers only observe actual transitions.
func (b *Broadcaster) Publish(s Snapshot) {
	s.SimulationID = b.simID
	s.Timestamp = time.Now()

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.done {
		return
	}
	unchanged := b.latest != nil && b.latest.Progress == s.Progress && b.latest.Status == s.Status
	b.latest = &s
	if unchanged {
		return
	}
	b.fanOut(Event{Type: EventProgress, Data: &s})
}

// Complete delivers the terminal completed event and detaches every
// subscriber.
func (b *Broadcaster) Complete(s Snapshot) {
	s.Status = StatusCompleted
	b.terminal(Event{Type: EventCompleted}, s)
}

// Fail delivers the terminal error event carrying the failure message
// and detaches every subscriber.
func (b *Broadcaster) Fail(s Snapshot, message string) {
	s.Status = StatusFailed
	s.Message = message
	b.terminal(Event{Type: EventError, Message: message}, s)
}

func (b *Broadcaster) terminal(ev Event, s Snapshot) {
	s.SimulationID = b.simID
	s.Timestamp = time.Now()

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.done {
		return
	}
	b.latest = &s
	ev.Data = &s
	b.fanOut(ev)
	for id, ch := range b.subs {
		close(ch)
		delete(b.subs, id)
	}
	b.done = true
	close(b.stopHeartbeat)
}

// fanOut sends to every subscriber without blocking: when a channel is
// full its oldest pending event is dropped first. Callers hold b.mu.
func (b *Broadcaster) fanOut(ev Event) {
	for _, ch := range b.subs {
		for {
			select {
			case ch <- ev:
			default:
				select {
				case <-ch:
				default:
				}
				continue
			}
			break
		}
	}
}

// Subscribe attaches a consumer. The latest snapshot, if any, is
// delivered immediately; the returned cancel function detaches. After a
// terminal event the channel is closed.
func (b *Broadcaster) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if b.latest != nil {
		t := EventProgress
		switch b.latest.Status {
		case StatusCompleted:
			t = EventCompleted
		case StatusFailed:
			t = EventError
		}
		ch <- Event{Type: t, Data: b.latest, Message: b.latest.Message}
	}
	if b.done {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if c, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

// Latest returns a copy of the most recent snapshot, or nil before the
// first publish.
func (b *Broadcaster) Latest() *Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.latest == nil {
		return nil
	}
	s := *b.latest
	return &s
}

// Done reports whether a terminal event has been delivered.
func (b *Broadcaster) Done() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.done
}

func (b *Broadcaster) heartbeatLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-b.stopHeartbeat:
			return
		case <-ticker.C:
			b.mu.Lock()
			if !b.done {
				b.fanOut(Event{Type: EventHeartbeat})
			}
			b.mu.Unlock()
		}
	}
}
