package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/koupai/koupai/internal/fileutil"
)

// MatchArchive writes one durable JSON record per finished match. Records
// are written atomically so a crash mid-write never leaves a truncated
// archive on disk.
type MatchArchive struct {
	dir    string
	logger *log.Logger
}

// ArchiveRecord is the on-disk shape of a finished match.
type ArchiveRecord struct {
	RoomCode   string          `json:"room_code"`
	FinishedAt time.Time       `json:"finished_at"`
	Result     json.RawMessage `json:"result"`
	Actions    []ActionEntry   `json:"actions"`
}

// NewMatchArchive creates the archive directory if needed.
func NewMatchArchive(dir string, logger *log.Logger) (*MatchArchive, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}
	return &MatchArchive{dir: dir, logger: logger.WithPrefix("archive")}, nil
}

// Write archives a finished match together with its full action log.
func (a *MatchArchive) Write(ctx context.Context, st Store, roomCode string, result interface{}) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal match result: %w", err)
	}
	actions, err := st.Actions(ctx, roomCode, 0)
	if err != nil {
		return fmt.Errorf("failed to read action log: %w", err)
	}
	record := ArchiveRecord{
		RoomCode:   roomCode,
		FinishedAt: time.Now(),
		Result:     raw,
		Actions:    actions,
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return err
	}

	name := fmt.Sprintf("%s-%s.json", roomCode, record.FinishedAt.Format("20060102-150405"))
	path := filepath.Join(a.dir, name)
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return err
	}
	a.logger.Info("match archived", "room", roomCode, "path", path)
	return nil
}
