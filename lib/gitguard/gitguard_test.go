// Copyright 2026 The Airlift Authors
// SPDX-License-Identifier: Apache-2.0

package gitguard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

// fakeGit records every git invocation and serves canned responses.
type fakeGit struct {
	status    string
	statusErr error
	commitErr error
	calls     [][]string
}

func (f *fakeGit) Run(ctx context.Context, args ...string) (string, error) {
	f.calls = append(f.calls, args)
	switch args[0] {
	case "status":
		return f.status, f.statusErr
	case "add":
		return "", nil
	case "commit":
		return "", f.commitErr
	}
	return "", fmt.Errorf("unexpected git command: %v", args)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const dirtyStatus = " M agents/summarizer/main.py\n?? agents/summarizer/notes.txt\n"

func TestStrictBlocksOnDirtyTree(t *testing.T) {
	git := &fakeGit{status: dirtyStatus}
	guard := New(git, testLogger())

	err := guard.Check(context.Background(), PolicyStrict, "")
	var blocked *BlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("Check() = %v, want *BlockedError", err)
	}
	if len(blocked.Paths) != 2 {
		t.Errorf("blocked paths = %v, want 2 entries", blocked.Paths)
	}
}

func TestStrictPassesOnCleanTree(t *testing.T) {
	git := &fakeGit{status: ""}
	guard := New(git, testLogger())

	if err := guard.Check(context.Background(), PolicyStrict, ""); err != nil {
		t.Fatalf("Check() on clean tree = %v, want nil", err)
	}
}

func TestIgnoreSkipsStatusQuery(t *testing.T) {
	git := &fakeGit{status: dirtyStatus}
	guard := New(git, testLogger())

	if err := guard.Check(context.Background(), PolicyIgnore, ""); err != nil {
		t.Fatalf("Check() = %v, want nil", err)
	}
	if len(git.calls) != 0 {
		t.Errorf("git was invoked %d times under ignore policy, want 0", len(git.calls))
	}
}

func TestWarnProceedsOnDirtyTree(t *testing.T) {
	git := &fakeGit{status: dirtyStatus}
	guard := New(git, testLogger())

	if err := guard.Check(context.Background(), PolicyWarn, ""); err != nil {
		t.Fatalf("Check() = %v, want nil", err)
	}
}

func TestAutoCommitStagesAndCommits(t *testing.T) {
	git := &fakeGit{status: dirtyStatus}
	guard := New(git, testLogger())
	guard.now = func() time.Time {
		return time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	}

	if err := guard.Check(context.Background(), PolicyAutoCommit, ""); err != nil {
		t.Fatalf("Check() = %v, want nil", err)
	}

	if len(git.calls) != 3 {
		t.Fatalf("git calls = %v, want status + add + commit", git.calls)
	}
	if got := git.calls[1]; got[0] != "add" || got[1] != "-A" {
		t.Errorf("second call = %v, want add -A", got)
	}
	commit := git.calls[2]
	if commit[0] != "commit" || commit[1] != "-m" {
		t.Fatalf("third call = %v, want commit -m", commit)
	}
	if want := "airlift deploy 2026-03-14T09:26:53Z"; commit[2] != want {
		t.Errorf("generated message = %q, want %q", commit[2], want)
	}
}

func TestAutoCommitUsesProvidedMessage(t *testing.T) {
	git := &fakeGit{status: dirtyStatus}
	guard := New(git, testLogger())

	if err := guard.Check(context.Background(), PolicyAutoCommit, "ship it"); err != nil {
		t.Fatalf("Check() = %v, want nil", err)
	}
	if got := git.calls[2][2]; got != "ship it" {
		t.Errorf("commit message = %q, want %q", got, "ship it")
	}
}

func TestAutoCommitFailureIsHardError(t *testing.T) {
	git := &fakeGit{status: dirtyStatus, commitErr: errors.New("nothing to commit")}
	guard := New(git, testLogger())

	err := guard.Check(context.Background(), PolicyAutoCommit, "ship it")
	if err == nil || !strings.Contains(err.Error(), "auto-commit failed") {
		t.Fatalf("Check() = %v, want auto-commit failure", err)
	}
}

func TestStatusFailureDegradesToProceed(t *testing.T) {
	git := &fakeGit{statusErr: errors.New("not a git repository")}
	guard := New(git, testLogger())

	for _, policy := range []Policy{PolicyStrict, PolicyWarn, PolicyAutoCommit} {
		if err := guard.Check(context.Background(), policy, ""); err != nil {
			t.Errorf("Check(%s) with failing status = %v, want nil", policy, err)
		}
	}
}

func TestParsePolicy(t *testing.T) {
	for _, valid := range []string{"strict", "warn", "auto-commit", "ignore"} {
		if _, err := ParsePolicy(valid); err != nil {
			t.Errorf("ParsePolicy(%q) = %v, want nil", valid, err)
		}
	}
	if _, err := ParsePolicy("lenient"); err == nil {
		t.Error("ParsePolicy(\"lenient\") succeeded, want error")
	}
}

func TestParsePorcelain(t *testing.T) {
	paths := parsePorcelain(" M lib/a.py\n?? docs/new.md\nA  staged.py\n")
	want := []string{"lib/a.py", "docs/new.md", "staged.py"}
	if len(paths) != len(want) {
		t.Fatalf("parsePorcelain = %v, want %v", paths, want)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("paths[%d] = %q, want %q", i, paths[i], want[i])
		}
	}
}
