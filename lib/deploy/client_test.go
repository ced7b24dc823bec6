// Copyright 2026 The Airlift Authors
// SPDX-License-Identifier: Apache-2.0

package deploy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(ClientConfig{
		BaseURL:   server.URL,
		AuthToken: "token-123",
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatal(err)
	}
	return client
}

func TestUploadSendsMultipartFields(t *testing.T) {
	var received struct {
		agentID  string
		version  string
		metadata string
		bundle   string
		auth     string
	}

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/deployments/upload" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parsing multipart: %v", err)
		}
		received.agentID = r.FormValue("agentId")
		received.version = r.FormValue("version")
		received.metadata = r.FormValue("metadata")
		received.auth = r.Header.Get("Authorization")

		file, _, err := r.FormFile("bundle")
		if err != nil {
			t.Fatalf("bundle part: %v", err)
		}
		defer file.Close()
		buf := make([]byte, 64)
		n, _ := file.Read(buf)
		received.bundle = string(buf[:n])

		fmt.Fprint(w, `{"success": true, "data": {"deploymentId": "dep-1", "version": "1.0.1", "bundleSize": 14}}`)
	}))

	manifest := Manifest{BuildHash: "deadbeefcafe0123", BuildTime: "2026-03-14T09:26:53Z"}
	result, err := client.Upload(context.Background(), "agent-1", []byte("artifact bytes"), manifest, "1.0.1")
	if err != nil {
		t.Fatalf("Upload() = %v", err)
	}

	if received.agentID != "agent-1" {
		t.Errorf("agentId field = %q", received.agentID)
	}
	if received.version != "1.0.1" {
		t.Errorf("version field = %q", received.version)
	}
	if received.bundle != "artifact bytes" {
		t.Errorf("bundle part = %q", received.bundle)
	}
	if received.auth != "Bearer token-123" {
		t.Errorf("Authorization = %q", received.auth)
	}
	if want := `"buildHash":"deadbeefcafe0123"`; !strings.Contains(received.metadata, want) {
		t.Errorf("metadata field = %q, want it to carry %s", received.metadata, want)
	}
	if result.DeploymentID != "dep-1" || result.Version != "1.0.1" || result.BundleSize != 14 {
		t.Errorf("result = %+v", result)
	}
}

func TestUploadBackendFailureEnvelope(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success": false, "error": "bundle exceeds plan limit"}`)
	}))

	_, err := client.Upload(context.Background(), "agent-1", []byte("x"), Manifest{}, "1.0.0")
	var uploadErr *UploadError
	if !errors.As(err, &uploadErr) {
		t.Fatalf("Upload() = %v, want *UploadError", err)
	}
	if uploadErr.Message != "bundle exceeds plan limit" {
		t.Errorf("Message = %q", uploadErr.Message)
	}
	if uploadErr.StatusCode != 0 {
		t.Errorf("StatusCode = %d, want 0 for envelope failures", uploadErr.StatusCode)
	}
}

func TestUploadServerError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"success": false, "error": "storage backend unavailable"}`)
	}))

	_, err := client.Upload(context.Background(), "agent-1", []byte("x"), Manifest{}, "1.0.0")
	var uploadErr *UploadError
	if !errors.As(err, &uploadErr) {
		t.Fatalf("Upload() = %v, want *UploadError", err)
	}
	if uploadErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d", uploadErr.StatusCode)
	}
	if uploadErr.Message != "storage backend unavailable" {
		t.Errorf("Message = %q", uploadErr.Message)
	}
}

func TestFindAgent(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/agents" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `[
			{"id": "agent-1", "type": "demo/summarizer", "status": "running"},
			{"id": "agent-2", "type": "demo/translator", "status": "created"}
		]`)
	}))

	agent, err := client.FindAgent(context.Background(), "demo/translator")
	if err != nil {
		t.Fatalf("FindAgent() = %v", err)
	}
	if agent.ID != "agent-2" || agent.Status != AgentCreated {
		t.Errorf("agent = %+v", agent)
	}

	_, err = client.FindAgent(context.Background(), "demo/ghost")
	var notFound *AgentNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("FindAgent(ghost) = %v, want *AgentNotFoundError", err)
	}
}

func TestListVersions(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/agents/agent-1/versions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `[
			{"version": "1.0.1", "status": "active", "bundleSize": 10240, "manifest": {"buildHash": "deadbeefcafe0123"}},
			{"version": "1.0.0", "status": "rollback", "bundleSize": 9000, "manifest": {"buildHash": "0123cafedeadbeef"}}
		]`)
	}))

	versions, err := client.ListVersions(context.Background(), "agent-1")
	if err != nil {
		t.Fatalf("ListVersions() = %v", err)
	}
	if len(versions) != 2 {
		t.Fatalf("versions = %v", versions)
	}
	if versions[0].Status != VersionActive || versions[0].Manifest.BuildHash != "deadbeefcafe0123" {
		t.Errorf("versions[0] = %+v", versions[0])
	}
}

func TestDeleteVersionEnvelopeChecked(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/agents/agent-1/versions/1.0.0" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		fmt.Fprint(w, `{"success": false, "error": "version is referenced by a schedule"}`)
	}))

	err := client.DeleteVersion(context.Background(), "agent-1", "1.0.0")
	if err == nil || !strings.Contains(err.Error(), "version is referenced by a schedule") {
		t.Fatalf("DeleteVersion() = %v, want the backend message", err)
	}
}

func TestHealth(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			fmt.Fprint(w, `{"success": true}`)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))

	if err := client.Health(context.Background()); err != nil {
		t.Errorf("Health() = %v", err)
	}
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(ClientConfig{}); err == nil {
		t.Error("NewClient without BaseURL succeeded, want error")
	}

	client, err := NewClient(ClientConfig{BaseURL: "https://deploy.example.com/"})
	if err != nil {
		t.Fatal(err)
	}
	if client.baseURL != "https://deploy.example.com" {
		t.Errorf("baseURL = %q, want trailing slash trimmed", client.baseURL)
	}
}
