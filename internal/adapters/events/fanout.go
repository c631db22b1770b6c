package events

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/zatekoja/Medicalqueryreview/internal/domain/entities"
)

const subscriberBuffer = 100

// fanout tracks local subscribers per channel and delivers events without blocking
type fanout struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan *entities.QueryEvent]struct{}
	logger      *zerolog.Logger
}

func newFanout(logger *zerolog.Logger) *fanout {
	return &fanout{
		subscribers: make(map[string]map[chan *entities.QueryEvent]struct{}),
		logger:      logger,
	}
}

// add registers a subscriber and reports how many the channel now has
func (f *fanout) add(channel string) (chan *entities.QueryEvent, int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.subscribers[channel] == nil {
		f.subscribers[channel] = make(map[chan *entities.QueryEvent]struct{})
	}
	eventChan := make(chan *entities.QueryEvent, subscriberBuffer)
	f.subscribers[channel][eventChan] = struct{}{}
	return eventChan, len(f.subscribers[channel])
}

// remove closes one subscriber and reports whether it was the channel's last
func (f *fanout) remove(channel string, eventChan chan *entities.QueryEvent) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	subscribers, exists := f.subscribers[channel]
	if !exists {
		return false
	}
	if _, ok := subscribers[eventChan]; !ok {
		return false
	}

	delete(subscribers, eventChan)
	close(eventChan)

	if len(subscribers) == 0 {
		delete(f.subscribers, channel)
		return true
	}
	return false
}

func (f *fanout) broadcast(channel string, event *entities.QueryEvent) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for subscriber := range f.subscribers[channel] {
		select {
		case subscriber <- event:
		default:
			f.logger.Warn().Str("channel", channel).Str("event_id", event.ID).Msg("subscriber channel full, skipping event")
		}
	}
}

// closeChannel closes every subscriber of channel
func (f *fanout) closeChannel(channel string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for subscriber := range f.subscribers[channel] {
		close(subscriber)
	}
	delete(f.subscribers, channel)
}

func (f *fanout) channels() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	channels := make([]string, 0, len(f.subscribers))
	for channel := range f.subscribers {
		channels = append(channels, channel)
	}
	return channels
}
