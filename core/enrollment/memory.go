package enrollment

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps enrollments in process memory. It is used when no
// database is configured. Saving the same channel/user twice refreshes the
// profile and time but keeps the first ID.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[memKey]Record
}

type memKey struct{ channel, user string }

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[memKey]Record)}
}

// Save stores rec and sets rec.ID to the stored ID.
func (m *MemoryStore) Save(_ context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := memKey{rec.ChannelID, rec.UserID}
	if prev, ok := m.records[key]; ok {
		rec.ID = prev.ID
	}
	m.records[key] = *rec
	return nil
}

// ByChannel returns the channel's records ordered by user id.
func (m *MemoryStore) ByChannel(channelID string) []Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Record
	for k, r := range m.records {
		if k.channel == channelID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// Len returns the number of stored records.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
