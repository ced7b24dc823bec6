// Copyright 2026 The Airlift Authors
// SPDX-License-Identifier: Apache-2.0

package history

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testJournal(t *testing.T) *Journal {
	t.Helper()
	return NewJournal(filepath.Join(t.TempDir(), ".airlift", "history.cbor"), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestAppendAndRead(t *testing.T) {
	journal := testJournal(t)

	records := []Record{
		{Agent: "summarizer", AgentID: "agent-1", Version: "1.0.0", BuildHash: "aaaa", BundleSize: 100},
		{Agent: "translator", AgentID: "agent-2", Version: "0.1.0", BuildHash: "bbbb", BundleSize: 200},
		{Agent: "summarizer", AgentID: "agent-1", Version: "1.0.1", BuildHash: "cccc", BundleSize: 150},
	}
	for _, record := range records {
		record.DeployedAt = time.Now().UTC()
		if err := journal.Append(record); err != nil {
			t.Fatalf("Append() = %v", err)
		}
	}

	got, err := journal.Records()
	if err != nil {
		t.Fatalf("Records() = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Records() returned %d records, want 3", len(got))
	}
	if got[0].Version != "1.0.0" || got[2].Version != "1.0.1" {
		t.Errorf("records out of append order: %+v", got)
	}
}

func TestLastReturnsNewestForAgent(t *testing.T) {
	journal := testJournal(t)

	for _, version := range []string{"1.0.0", "1.0.1", "1.0.2"} {
		if err := journal.Append(Record{Agent: "summarizer", Version: version}); err != nil {
			t.Fatal(err)
		}
	}
	if err := journal.Append(Record{Agent: "translator", Version: "0.1.0"}); err != nil {
		t.Fatal(err)
	}

	record, ok := journal.Last("summarizer")
	if !ok {
		t.Fatal("Last() found nothing")
	}
	if record.Version != "1.0.2" {
		t.Errorf("Last().Version = %q, want 1.0.2", record.Version)
	}

	if _, ok := journal.Last("ghost"); ok {
		t.Error("Last(ghost) = ok, want not found")
	}
}

func TestMissingFileIsEmptyJournal(t *testing.T) {
	journal := testJournal(t)

	records, err := journal.Records()
	if err != nil {
		t.Fatalf("Records() on missing file = %v, want nil error", err)
	}
	if len(records) != 0 {
		t.Errorf("records = %v, want empty", records)
	}
}

func TestCorruptJournalStartsFresh(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.cbor")
	if err := os.WriteFile(path, []byte("not cbor at all"), 0o644); err != nil {
		t.Fatal(err)
	}

	journal := NewJournal(path, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := journal.Append(Record{Agent: "summarizer", Version: "1.0.0"}); err != nil {
		t.Fatalf("Append() over corrupt journal = %v, want fresh start", err)
	}

	records, err := journal.Records()
	if err != nil {
		t.Fatalf("Records() = %v", err)
	}
	if len(records) != 1 || records[0].Version != "1.0.0" {
		t.Errorf("records = %+v, want the single fresh record", records)
	}
}
