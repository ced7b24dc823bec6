// Copyright 2026 The Airlift Authors
// SPDX-License-Identifier: Apache-2.0

// Package history keeps a local journal of successful deployments, so
// that status output can show what this machine last shipped without
// a backend round trip. Records are CBOR-encoded on disk. All journal
// I/O is best-effort: a failed append is logged by the caller and
// never fails a deployment.
package history

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Record is one successful deployment as observed by this client.
type Record struct {
	Agent      string    `cbor:"agent"`
	AgentID    string    `cbor:"agent_id"`
	Version    string    `cbor:"version"`
	BuildHash  string    `cbor:"build_hash"`
	BundleSize int64     `cbor:"bundle_size"`
	DeployedAt time.Time `cbor:"deployed_at"`
}

// Journal is an append-only deployment log backed by a single CBOR
// file. The zero value is not usable; construct with NewJournal.
type Journal struct {
	path   string
	logger *slog.Logger
}

// NewJournal creates a journal at path. The file and its parent
// directory are created lazily on first append.
func NewJournal(path string, logger *slog.Logger) *Journal {
	if logger == nil {
		logger = slog.Default()
	}
	return &Journal{path: path, logger: logger}
}

// Append adds a record to the journal. The whole file is rewritten
// through a temp-file rename so a crash never leaves a truncated
// journal behind.
func (j *Journal) Append(record Record) error {
	records, err := j.Records()
	if err != nil {
		// A corrupt journal is not worth failing a deployment over;
		// start a fresh one and say so.
		j.logger.Warn("deployment journal unreadable, starting fresh", "path", j.path, "error", err)
		records = nil
	}
	records = append(records, record)

	encoded, err := cbor.Marshal(records)
	if err != nil {
		return fmt.Errorf("history: encoding journal: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(j.path), 0o755); err != nil {
		return fmt.Errorf("history: creating journal directory: %w", err)
	}

	temp := j.path + ".tmp"
	if err := os.WriteFile(temp, encoded, 0o644); err != nil {
		return fmt.Errorf("history: writing journal: %w", err)
	}
	if err := os.Rename(temp, j.path); err != nil {
		return fmt.Errorf("history: replacing journal: %w", err)
	}
	return nil
}

// Records returns all journal records in append order. A missing file
// is an empty journal, not an error.
func (j *Journal) Records() ([]Record, error) {
	data, err := os.ReadFile(j.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("history: reading journal: %w", err)
	}

	var records []Record
	if err := cbor.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("history: decoding journal: %w", err)
	}
	return records, nil
}

// Last returns the most recent record for the named agent, or false
// when the agent has never been deployed from this journal.
func (j *Journal) Last(agent string) (Record, bool) {
	records, err := j.Records()
	if err != nil {
		j.logger.Warn("deployment journal unreadable", "path", j.path, "error", err)
		return Record{}, false
	}
	for i := len(records) - 1; i >= 0; i-- {
		if records[i].Agent == agent {
			return records[i], true
		}
	}
	return Record{}, false
}
