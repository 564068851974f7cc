package host

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/studio/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/studio/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/studio/internal/shared/id"
	"github.com/GriffinCanCode/AgentOS/studio/internal/shared/types"
)

// Bus fans host events out to subscribers. Slow subscribers drop events
// rather than stall the emitter.
type Bus struct {
	mu      sync.RWMutex
	subs    map[uint64]chan types.Event // Protected by mu
	next    uint64                      // Protected by mu
	closed  bool                        // Protected by mu
	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// NewBus creates an event bus
func NewBus(logger *logging.Logger, metrics *monitoring.Metrics) *Bus {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Bus{
		subs:    make(map[uint64]chan types.Event),
		logger:  logger,
		metrics: metrics,
	}
}

// Subscribe registers a subscriber. The returned cancel func removes it and
// closes the channel.
func (b *Bus) Subscribe(buffer int) (<-chan types.Event, func()) {
	if buffer <= 0 {
		buffer = 32
	}
	ch := make(chan types.Event, buffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	key := b.next
	b.next++
	b.subs[key] = ch
	b.metrics.SetSubscribers(len(b.subs))
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subs[key]; ok {
				delete(b.subs, key)
				close(sub)
				b.metrics.SetSubscribers(len(b.subs))
			}
		})
	}
}

// Emit broadcasts an event and returns it
func (b *Bus) Emit(name, window string, payload interface{}) types.Event {
	ev := types.Event{
		ID:        id.NewEventID().String(),
		Name:      name,
		Window:    window,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	b.metrics.RecordEvent(name)
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			b.logger.Debug("Dropped event for slow subscriber", zap.String("event", name))
		}
	}
	return ev
}

// Subscribers returns the number of active subscribers
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close removes every subscriber
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	for key, ch := range b.subs {
		delete(b.subs, key)
		close(ch)
	}
	b.metrics.SetSubscribers(0)
}
