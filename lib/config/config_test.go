// Copyright 2026 The Airlift Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "airlift.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const validConfig = `
server:
  url: https://deploy.example.com
  auth_token: token-123
project:
  name: demo
build:
  command: ["npm", "run", "bundle", "--", "--agent", "{agent}"]
`

func TestLoadFileMergesOverDefaults(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("LoadFile() = %v", err)
	}

	if cfg.Server.URL != "https://deploy.example.com" {
		t.Errorf("Server.URL = %q", cfg.Server.URL)
	}
	if cfg.Project.Name != "demo" {
		t.Errorf("Project.Name = %q", cfg.Project.Name)
	}
	// Untouched fields keep their defaults.
	if cfg.Project.AgentsDir != "agents" {
		t.Errorf("Project.AgentsDir = %q, want default", cfg.Project.AgentsDir)
	}
	if cfg.Git.Policy != "strict" {
		t.Errorf("Git.Policy = %q, want default strict", cfg.Git.Policy)
	}
	if cfg.Build.ArtifactExt != ".bundle" {
		t.Errorf("Build.ArtifactExt = %q, want default", cfg.Build.ArtifactExt)
	}
}

func TestLoadRequiresEnvVar(t *testing.T) {
	t.Setenv("AIRLIFT_CONFIG", "")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "AIRLIFT_CONFIG") {
		t.Fatalf("Load() without AIRLIFT_CONFIG = %v, want setup hint", err)
	}

	t.Setenv("AIRLIFT_CONFIG", writeConfig(t, validConfig))
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if cfg.Server.AuthToken != "token-123" {
		t.Errorf("AuthToken = %q", cfg.Server.AuthToken)
	}
}

func TestValidate(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, validConfig))
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() on valid config = %v", err)
	}

	// All problems are reported at once, not first-error-wins.
	empty := &Config{}
	err = empty.Validate()
	if err == nil {
		t.Fatal("Validate() on empty config = nil")
	}
	for _, want := range []string{"server.url", "build.command", "git.policy"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() error missing %q: %v", want, err)
		}
	}
}

func TestTimeout(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Duration
	}{
		{"", 120 * time.Second},
		{"45s", 45 * time.Second},
		{"3m", 3 * time.Minute},
		{"not-a-duration", 120 * time.Second},
		{"-10s", 120 * time.Second},
	}
	for _, test := range tests {
		server := ServerConfig{UploadTimeout: test.raw}
		if got := server.Timeout(); got != test.want {
			t.Errorf("Timeout(%q) = %v, want %v", test.raw, got, test.want)
		}
	}
}

func TestVariableExpansion(t *testing.T) {
	t.Setenv("AIRLIFT_OUT", "/tmp/out")
	t.Setenv("AIRLIFT_UNSET", "")

	cfg, err := LoadFile(writeConfig(t, validConfig))
	if err != nil {
		t.Fatal(err)
	}
	cfg.Project.OutputDir = "${AIRLIFT_OUT}/build"
	cfg.Project.HistoryFile = "${AIRLIFT_UNSET:-.airlift}/history.cbor"
	cfg.expandVariables()

	if cfg.Project.OutputDir != "/tmp/out/build" {
		t.Errorf("OutputDir = %q", cfg.Project.OutputDir)
	}
	if cfg.Project.HistoryFile != ".airlift/history.cbor" {
		t.Errorf("HistoryFile = %q, want the :- default applied", cfg.Project.HistoryFile)
	}
}

func TestLoadFileRejectsBadYAML(t *testing.T) {
	if _, err := LoadFile(writeConfig(t, "server: [not a mapping")); err == nil {
		t.Fatal("LoadFile() on malformed YAML = nil, want parse error")
	}
}
