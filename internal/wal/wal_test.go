//nolint:testpackage // Tests require internal access for thorough testing
package wal

import (
	"bufio"
	"encoding/json"
	"testing"
	"time"

	"github.com/spf13/afero"
)

func readEntries(t *testing.T, fs afero.Fs, path string) []Entry {
	t.Helper()
	f, err := fs.Open(path)
	if err != nil {
		t.Fatalf("failed to open wal: %v", err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("failed to parse JSON line %q: %v", scanner.Text(), err)
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scanner error: %v", err)
	}
	return entries
}

func TestAppend(t *testing.T) {
	fs := afero.NewMemMapFs()
	log := New(fs, "/memory")
	at := time.Date(2024, 3, 9, 23, 59, 0, 0, time.UTC)

	err := log.Append(EventProgressChange, map[string]any{"task_id": "task_1", "new_progress": 50}, at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	path := log.PathFor(at)
	if path != "/memory/WAL-2024-03-09.log" {
		t.Errorf("path = %s, want /memory/WAL-2024-03-09.log", path)
	}

	entries := readEntries(t, fs, path)
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].EventType != EventProgressChange {
		t.Errorf("event type = %s, want %s", entries[0].EventType, EventProgressChange)
	}
	if entries[0].Content["task_id"] != "task_1" {
		t.Errorf("task_id = %v, want task_1", entries[0].Content["task_id"])
	}
	if entries[0].Timestamp != "2024-03-09T23:59:00Z" {
		t.Errorf("timestamp = %s", entries[0].Timestamp)
	}
}

func TestAppendIsAppendOnlyAndSplitsByDay(t *testing.T) {
	fs := afero.NewMemMapFs()
	log := New(fs, "/memory")
	day1 := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)
	day2 := day1.Add(24 * time.Hour)

	for _, evt := range []string{EventTimeLog, EventStatusChange} {
		if err := log.Append(evt, nil, day1); err != nil {
			t.Fatalf("unexpected error logging %s: %v", evt, err)
		}
	}
	if err := log.Append(EventHealthCheck, map[string]any{"issues_found": 0}, day2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first := readEntries(t, fs, log.PathFor(day1))
	if len(first) != 2 || first[0].EventType != EventTimeLog || first[1].EventType != EventStatusChange {
		t.Errorf("day1 entries = %+v", first)
	}
	second := readEntries(t, fs, log.PathFor(day2))
	if len(second) != 1 || second[0].EventType != EventHealthCheck {
		t.Errorf("day2 entries = %+v", second)
	}
}

func TestAppendUsesUTCDate(t *testing.T) {
	fs := afero.NewMemMapFs()
	log := New(fs, "/memory")
	// 20:00 in UTC-5 is already the next day in UTC.
	at := time.Date(2024, 3, 9, 20, 0, 0, 0, time.FixedZone("EST", -5*3600))

	if got := log.PathFor(at); got != "/memory/WAL-2024-03-10.log" {
		t.Errorf("PathFor = %s, want UTC date", got)
	}
}
