package events_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/Medicalqueryreview/internal/adapters/events"
	"github.com/zatekoja/Medicalqueryreview/internal/domain/entities"
	"github.com/zatekoja/Medicalqueryreview/internal/domain/providers"
)

func receive(t *testing.T, ch <-chan *entities.QueryEvent) *entities.QueryEvent {
	t.Helper()
	select {
	case event, ok := <-ch:
		require.True(t, ok, "subscription closed")
		return event
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
	return nil
}

func TestMemoryEventBus_PublishSubscribe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := events.NewMemoryEventBus()
	defer bus.Close()

	doctorEvents, err := bus.Subscribe(ctx, providers.GetDoctorChannel("doctor_1"))
	require.NoError(t, err)
	allEvents, err := bus.Subscribe(ctx, providers.EventChannelQueryUpdates)
	require.NoError(t, err)

	event := &entities.QueryEvent{
		ID:        "evt-1",
		Type:      entities.QueryEventTaken,
		QueryID:   "query_1",
		PatientID: "patient_1",
		DoctorID:  "doctor_1",
		Status:    entities.QueryStatusUnderReview,
	}
	for _, channel := range providers.ChannelsForEvent(event) {
		require.NoError(t, bus.Publish(ctx, channel, event))
	}

	assert.Equal(t, "evt-1", receive(t, doctorEvents).ID)
	assert.Equal(t, "evt-1", receive(t, allEvents).ID)
}

func TestMemoryEventBus_UnsubscribeOnContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	bus := events.NewMemoryEventBus()
	defer bus.Close()

	ch, err := bus.Subscribe(ctx, providers.EventChannelQueryUpdates)
	require.NoError(t, err)
	cancel()

	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestMemoryEventBus_Close(t *testing.T) {
	bus := events.NewMemoryEventBus()

	ch, err := bus.Subscribe(context.Background(), providers.EventChannelQueryUpdates)
	require.NoError(t, err)
	require.NoError(t, bus.Close())

	_, ok := <-ch
	assert.False(t, ok)

	err = bus.Publish(context.Background(), providers.EventChannelQueryUpdates, &entities.QueryEvent{ID: "evt"})
	assert.ErrorIs(t, err, events.ErrBusClosed)
	_, err = bus.Subscribe(context.Background(), providers.EventChannelQueryUpdates)
	assert.ErrorIs(t, err, events.ErrBusClosed)
	assert.NoError(t, bus.Close())
}
