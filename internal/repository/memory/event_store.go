// Package memory holds in-process repositories used when no database is
// configured, and by tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bluebuff/storefront/internal/entity"
	"github.com/bluebuff/storefront/internal/repository"
)

type eventStore struct {
	mu      sync.RWMutex
	streams map[string][]entity.EventStoreRecord
}

// NewEventStore creates an EventStore kept in memory.
func NewEventStore() repository.EventStore {
	return &eventStore{streams: make(map[string][]entity.EventStoreRecord)}
}

func (s *eventStore) SaveEvents(ctx context.Context, streamID string, streamType string, expectedVersion int, events []entity.Event) error {
	if len(events) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stream := s.streams[streamID]
	if len(stream) != expectedVersion {
		return fmt.Errorf("%w: stream %s expected version %d, got %d", repository.ErrConcurrency, streamID, expectedVersion, len(stream))
	}

	now := time.Now()
	version := expectedVersion
	records := make([]entity.EventStoreRecord, 0, len(events))
	for _, event := range events {
		version++
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to marshal event %s: %w", event.EventType(), err)
		}
		records = append(records, entity.EventStoreRecord{
			ID:         uuid.NewString(),
			StreamID:   streamID,
			StreamType: streamType,
			Version:    version,
			EventType:  event.EventType(),
			Payload:    payload,
			CreatedAt:  now,
		})
	}
	s.streams[streamID] = append(stream, records...)
	return nil
}

func (s *eventStore) LoadEvents(ctx context.Context, streamID string) ([]entity.EventStoreRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stream := s.streams[streamID]
	out := make([]entity.EventStoreRecord, len(stream))
	copy(out, stream)
	return out, nil
}
