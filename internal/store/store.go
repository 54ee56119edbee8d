// Package store persists room state snapshots and the per-room action log,
// and reconciles incoming snapshot streams against a locally tracked
// version.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned when no snapshot exists for a room.
var ErrNotFound = errors.New("room not found")

// ErrVersionConflict is returned by CompareAndSwap when the stored version
// no longer matches the expected one. The caller re-reads and retries.
var ErrVersionConflict = errors.New("version conflict")

// Snapshot is one versioned copy of a room's full shared state. State is
// kept opaque here; the game package owns its schema.
type Snapshot struct {
	RoomCode  string          `json:"room_code"`
	Version   int64           `json:"version"`
	Action    string          `json:"action,omitempty"`
	State     json.RawMessage `json:"state"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ActionEntry is one row of a room's append-only action log.
type ActionEntry struct {
	RoomCode string    `json:"room_code"`
	Seq      int64     `json:"seq"`
	PlayerID string    `json:"player_id"`
	Action   string    `json:"action"`
	Detail   string    `json:"detail,omitempty"`
	Version  int64     `json:"version"`
	At       time.Time `json:"at"`
}

// Store persists snapshots and action logs per room.
type Store interface {
	// Get returns the latest snapshot for a room.
	Get(ctx context.Context, roomCode string) (Snapshot, error)
	// Put stores a snapshot unconditionally.
	Put(ctx context.Context, snap Snapshot) error
	// CompareAndSwap stores a snapshot only when the current stored
	// version equals expected. A room with no snapshot has version 0.
	CompareAndSwap(ctx context.Context, snap Snapshot, expected int64) error
	// AppendAction appends to the room's action log, assigning Seq.
	AppendAction(ctx context.Context, entry ActionEntry) (int64, error)
	// Actions returns log entries with Seq > after, in order.
	Actions(ctx context.Context, roomCode string, after int64) ([]ActionEntry, error)
	// Watch streams subsequent snapshots for a room. The returned cancel
	// function releases the watch.
	Watch(ctx context.Context, roomCode string) (<-chan Snapshot, func())
	// Delete removes the room's snapshot and log.
	Delete(ctx context.Context, roomCode string) error
}
