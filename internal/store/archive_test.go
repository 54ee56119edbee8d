package store

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestMatchArchiveWrite(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	archive, err := NewMatchArchive(dir, log.New(io.Discard))
	if err != nil {
		t.Fatal(err)
	}

	st := NewMemoryStore()
	ctx := context.Background()
	for _, action := range []string{"play", "knock", "respond", "settle"} {
		if _, err := st.AppendAction(ctx, ActionEntry{RoomCode: "ROOM77", Action: action}); err != nil {
			t.Fatal(err)
		}
	}

	result := map[string]int{"alice": 6, "bob": 0}
	if err := archive.Write(ctx, st, "ROOM77", result); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || !strings.HasPrefix(entries[0].Name(), "ROOM77-") {
		t.Fatalf("archive dir entries = %v", entries)
	}

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	if err != nil {
		t.Fatal(err)
	}
	var record ArchiveRecord
	if err := json.Unmarshal(data, &record); err != nil {
		t.Fatal(err)
	}
	if record.RoomCode != "ROOM77" {
		t.Errorf("room code = %q", record.RoomCode)
	}
	if len(record.Actions) != 4 || record.Actions[3].Action != "settle" {
		t.Errorf("actions = %+v", record.Actions)
	}
	var decoded map[string]int
	if err := json.Unmarshal(record.Result, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["alice"] != 6 {
		t.Errorf("result = %v", decoded)
	}
}

func TestNewMatchArchiveCreatesDir(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "nested", "archive")
	if _, err := NewMatchArchive(dir, log.New(io.Discard)); err != nil {
		t.Fatal(err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("archive dir not created: %v", err)
	}
}
