package events

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/zatekoja/Medicalqueryreview/internal/domain/entities"
	"github.com/zatekoja/Medicalqueryreview/internal/domain/providers"
	"github.com/zatekoja/Medicalqueryreview/internal/infrastructure/observability"
)

// ErrBusClosed is returned by a closed in-process bus
var ErrBusClosed = errors.New("event bus closed")

// MemoryEventBus delivers events to subscribers in the same process
type MemoryEventBus struct {
	local  *fanout
	closed atomic.Bool
}

// NewMemoryEventBus creates an in-process event bus
func NewMemoryEventBus() providers.EventBus {
	return &MemoryEventBus{local: newFanout(observability.GetLogger())}
}

// Publish delivers the event to current subscribers of channel
func (b *MemoryEventBus) Publish(ctx context.Context, channel string, event *entities.QueryEvent) error {
	if b.closed.Load() {
		return ErrBusClosed
	}
	b.local.broadcast(channel, event)
	return nil
}

// Subscribe subscribes to events on a channel until ctx is done
func (b *MemoryEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.QueryEvent, error) {
	if b.closed.Load() {
		return nil, ErrBusClosed
	}
	eventChan, _ := b.local.add(channel)
	go func() {
		<-ctx.Done()
		b.local.remove(channel, eventChan)
	}()
	return eventChan, nil
}

// Close closes all subscriptions
func (b *MemoryEventBus) Close() error {
	if b.closed.Swap(true) {
		return nil
	}
	for _, channel := range b.local.channels() {
		b.local.closeChannel(channel)
	}
	return nil
}
