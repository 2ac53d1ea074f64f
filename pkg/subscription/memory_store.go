package subscription

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store for tests and local development.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]memoryEntry
	seq     uint64
}

type memoryEntry struct {
	record Record
	seq    uint64 // insertion order, breaks CreatedAt ties
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]memoryEntry)}
}

// FindLatestByUser implements Store.
func (s *MemoryStore) FindLatestByUser(_ context.Context, userID string, statuses ...Status) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *memoryEntry
	for _, e := range s.records {
		if e.record.UserID != userID {
			continue
		}
		if len(statuses) > 0 && !slices.Contains(statuses, e.record.Status) {
			continue
		}
		if latest == nil || newer(e, *latest) {
			e := e
			latest = &e
		}
	}
	if latest == nil {
		return nil, ErrRecordNotFound
	}

	r := latest.record
	return &r, nil
}

// FindBySubscriptionRef implements Store.
func (s *MemoryStore) FindBySubscriptionRef(_ context.Context, subscriptionRef string) (*Record, error) {
	if subscriptionRef == "" {
		return nil, ErrRecordNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.records {
		if e.record.SubscriptionRef == subscriptionRef {
			r := e.record
			return &r, nil
		}
	}
	return nil, ErrRecordNotFound
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Status == "" {
		record.Status = StatusInactive
	}

	e, ok := s.records[record.ID]
	if !ok {
		s.seq++
		e.seq = s.seq
	}
	e.record = *record
	s.records[record.ID] = e
	return nil
}

// Snapshot returns a copy of all records keyed by ID.
func (s *MemoryStore) Snapshot() map[string]Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]Record, len(s.records))
	for id, e := range s.records {
		out[id] = e.record
	}
	return out
}

func newer(a, b memoryEntry) bool {
	if !a.record.CreatedAt.Equal(b.record.CreatedAt) {
		return a.record.CreatedAt.After(b.record.CreatedAt)
	}
	return a.seq > b.seq
}

// MemoryUserDirectory is an in-process UserDirectory.
type MemoryUserDirectory struct {
	mu       sync.Mutex
	profiles map[string]Profile
}

// NewMemoryUserDirectory creates a directory holding the given profiles.
func NewMemoryUserDirectory(profiles ...Profile) *MemoryUserDirectory {
	d := &MemoryUserDirectory{profiles: make(map[string]Profile, len(profiles))}
	for _, p := range profiles {
		d.profiles[p.UserID] = p
	}
	return d
}

// GetProfile implements UserDirectory.
func (d *MemoryUserDirectory) GetProfile(_ context.Context, userID string) (*Profile, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.profiles[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &p, nil
}

// SetCustomerRef implements UserDirectory.
func (d *MemoryUserDirectory) SetCustomerRef(_ context.Context, userID, ref string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.profiles[userID]
	if !ok {
		return "", ErrUserNotFound
	}
	if p.CustomerRef == "" {
		p.CustomerRef = ref
		d.profiles[userID] = p
	}
	return p.CustomerRef, nil
}
