package store

import (
	"context"
	"sync"
)

// watchBuffer bounds each watcher channel; a watcher that falls this far
// behind starts losing intermediate snapshots and recovers via resync.
const watchBuffer = 16

// MemoryStore is the in-process Store used by the server. All methods are
// safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	rooms    map[string]Snapshot
	logs     map[string][]ActionEntry
	watchers map[string]map[int]chan Snapshot
	nextID   int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms:    make(map[string]Snapshot),
		logs:     make(map[string][]ActionEntry),
		watchers: make(map[string]map[int]chan Snapshot),
	}
}

func (s *MemoryStore) Get(ctx context.Context, roomCode string) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.rooms[roomCode]
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	return snap, nil
}

func (s *MemoryStore) Put(ctx context.Context, snap Snapshot) error {
	s.mu.Lock()
	s.rooms[snap.RoomCode] = snap
	s.notifyLocked(snap)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) CompareAndSwap(ctx context.Context, snap Snapshot, expected int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current := int64(0)
	if existing, ok := s.rooms[snap.RoomCode]; ok {
		current = existing.Version
	}
	if current != expected {
		return ErrVersionConflict
	}
	s.rooms[snap.RoomCode] = snap
	s.notifyLocked(snap)
	return nil
}

func (s *MemoryStore) AppendAction(ctx context.Context, entry ActionEntry) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.Seq = int64(len(s.logs[entry.RoomCode]) + 1)
	s.logs[entry.RoomCode] = append(s.logs[entry.RoomCode], entry)
	return entry.Seq, nil
}

func (s *MemoryStore) Actions(ctx context.Context, roomCode string, after int64) ([]ActionEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	log := s.logs[roomCode]
	if after < 0 {
		after = 0
	}
	if after >= int64(len(log)) {
		return nil, nil
	}
	out := make([]ActionEntry, len(log)-int(after))
	copy(out, log[after:])
	return out, nil
}

func (s *MemoryStore) Watch(ctx context.Context, roomCode string) (<-chan Snapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watchers[roomCode] == nil {
		s.watchers[roomCode] = make(map[int]chan Snapshot)
	}
	id := s.nextID
	s.nextID++
	ch := make(chan Snapshot, watchBuffer)
	s.watchers[roomCode][id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.watchers[roomCode][id]; ok {
			delete(s.watchers[roomCode], id)
			close(c)
		}
	}
	return ch, cancel
}

func (s *MemoryStore) Delete(ctx context.Context, roomCode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, roomCode)
	delete(s.logs, roomCode)
	for id, ch := range s.watchers[roomCode] {
		delete(s.watchers[roomCode], id)
		close(ch)
	}
	return nil
}

// notifyLocked fans the snapshot out to watchers. Sends never block; a full
// watcher drops the snapshot and relies on version reconciliation to
// request a resync.
func (s *MemoryStore) notifyLocked(snap Snapshot) {
	for _, ch := range s.watchers[snap.RoomCode] {
		select {
		case ch <- snap:
		default:
		}
	}
}
