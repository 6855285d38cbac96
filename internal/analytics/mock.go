package analytics

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MockEvent is one recorded call to the mock service.
type MockEvent struct {
	EventType    string
	CampaignID   uuid.UUID
	AdvertiserID uuid.UUID
	ClientID     uuid.UUID
	Day          int
	Cost         float64
}

// Mock implements Service in memory for tests.
type Mock struct {
	mu     sync.Mutex
	Events []MockEvent
	// Err, when set, is returned from every RecordEvent call.
	Err error
}

// NewMock creates an empty mock analytics service.
func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) RecordEvent(ctx context.Context, eventType string, campaignID, advertiserID, clientID uuid.UUID, day int, cost float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Events = append(m.Events, MockEvent{
		EventType:    eventType,
		CampaignID:   campaignID,
		AdvertiserID: advertiserID,
		ClientID:     clientID,
		Day:          day,
		Cost:         cost,
	})
	return nil
}

// EventsOfType returns the recorded events matching the given type.
func (m *Mock) EventsOfType(eventType string) []MockEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []MockEvent
	for _, e := range m.Events {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}
