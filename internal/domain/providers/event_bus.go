package providers

import (
	"context"

	"github.com/zatekoja/Medicalqueryreview/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to query events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.QueryEvent) error

	// Subscribe subscribes to events on a channel until ctx is done
	Subscribe(ctx context.Context, channel string) (<-chan *entities.QueryEvent, error)

	// Close closes the event bus and all subscriptions
	Close() error
}

const (
	// EventChannelQueryUpdates carries every query event
	EventChannelQueryUpdates = "queries:updates"

	// EventChannelDoctorPrefix is the prefix for per-doctor channels
	EventChannelDoctorPrefix = "doctor:"

	// EventChannelPatientPrefix is the prefix for per-patient channels
	EventChannelPatientPrefix = "patient:"
)

// GetDoctorChannel returns the channel name for a specific doctor
func GetDoctorChannel(doctorID string) string {
	return EventChannelDoctorPrefix + doctorID
}

// GetPatientChannel returns the channel name for a specific patient
func GetPatientChannel(patientID string) string {
	return EventChannelPatientPrefix + patientID
}

// ChannelsForEvent lists every channel an event is published on
func ChannelsForEvent(event *entities.QueryEvent) []string {
	channels := []string{EventChannelQueryUpdates, GetPatientChannel(event.PatientID)}
	if event.DoctorID != "" {
		channels = append(channels, GetDoctorChannel(event.DoctorID))
	}
	return channels
}
