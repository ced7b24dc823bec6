// Copyright 2026 The Airlift Authors
// SPDX-License-Identifier: Apache-2.0

package deploy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// maxResponseSize bounds API response body reads: 64 MB. Backend
// responses are small JSON documents; the bound exists to keep a
// misbehaving server from exhausting memory.
const maxResponseSize int64 = 64 << 20

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// BaseURL is the base URL of the Deployment Backend
	// (e.g., "https://deploy.example.com").
	BaseURL string

	// AuthToken is sent as a bearer token on every request. Empty
	// means no Authorization header.
	AuthToken string

	// HTTPClient is used for all requests. If nil, http.DefaultClient
	// is used.
	HTTPClient *http.Client

	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger

	// UploadTimeout is the fixed upper bound on the upload request.
	// Zero means 120s. No other call carries a client-side timeout;
	// callers bound those through ctx.
	UploadTimeout time.Duration
}

// Client talks to the Deployment Backend. Every exchange is a single
// request/response — no chunking, resumption, or retry. A transient
// network failure surfaces immediately to the caller.
type Client struct {
	baseURL       string
	authToken     string
	httpClient    *http.Client
	logger        *slog.Logger
	uploadTimeout time.Duration
}

// envelope is the backend's structured response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// NewClient creates a Deployment Backend client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("deploy: BaseURL is required")
	}
	if _, err := url.Parse(config.BaseURL); err != nil {
		return nil, fmt.Errorf("deploy: invalid BaseURL %q: %w", config.BaseURL, err)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	uploadTimeout := config.UploadTimeout
	if uploadTimeout <= 0 {
		uploadTimeout = 120 * time.Second
	}

	return &Client{
		baseURL:       strings.TrimRight(config.BaseURL, "/"),
		authToken:     config.AuthToken,
		httpClient:    httpClient,
		logger:        logger,
		uploadTimeout: uploadTimeout,
	}, nil
}

// Upload performs the single multipart exchange that hands an artifact
// and its manifest to the backend: the artifact as the "bundle" binary
// field, the target agent id, the declared version string, and the
// manifest as a JSON-encoded field. The request is bounded by the
// configured upload timeout; exceeding it fails as a transport error.
func (c *Client) Upload(ctx context.Context, agentID string, artifact []byte, manifest Manifest, version string) (*UploadResult, error) {
	if agentID == "" {
		return nil, fmt.Errorf("deploy: agent id is required for upload")
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("bundle", agentID+".bundle")
	if err != nil {
		return nil, fmt.Errorf("deploy: creating bundle part: %w", err)
	}
	if _, err := part.Write(artifact); err != nil {
		return nil, fmt.Errorf("deploy: writing bundle part: %w", err)
	}

	if err := writer.WriteField("agentId", agentID); err != nil {
		return nil, fmt.Errorf("deploy: writing agentId field: %w", err)
	}
	if err := writer.WriteField("version", version); err != nil {
		return nil, fmt.Errorf("deploy: writing version field: %w", err)
	}

	encodedManifest, err := json.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("deploy: encoding manifest: %w", err)
	}
	if err := writer.WriteField("metadata", string(encodedManifest)); err != nil {
		return nil, fmt.Errorf("deploy: writing metadata field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("deploy: finalizing multipart body: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.uploadTimeout)
	defer cancel()

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/deployments/upload", &body)
	if err != nil {
		return nil, fmt.Errorf("deploy: creating upload request: %w", err)
	}
	request.Header.Set("Content-Type", writer.FormDataContentType())
	c.setCommonHeaders(request)

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, &UploadError{Message: err.Error()}
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(io.LimitReader(response.Body, maxResponseSize))
	if err != nil {
		return nil, &UploadError{StatusCode: response.StatusCode, Message: "reading response: " + err.Error()}
	}

	var wrapper envelope
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		message := http.StatusText(response.StatusCode)
		if json.Unmarshal(responseBody, &wrapper) == nil && wrapper.Error != "" {
			message = wrapper.Error
		}
		return nil, &UploadError{StatusCode: response.StatusCode, Message: message}
	}

	if err := json.Unmarshal(responseBody, &wrapper); err != nil {
		return nil, &UploadError{StatusCode: response.StatusCode, Message: "unparseable response: " + err.Error()}
	}
	if !wrapper.Success {
		message := wrapper.Error
		if message == "" {
			message = "backend reported failure without a message"
		}
		return nil, &UploadError{Message: message}
	}

	var result UploadResult
	if err := json.Unmarshal(wrapper.Data, &result); err != nil {
		return nil, &UploadError{Message: "unparseable upload result: " + err.Error()}
	}

	c.logger.Info("uploaded bundle",
		"agent_id", agentID,
		"version", result.Version,
		"bundle_size", result.BundleSize,
		"deployment_id", result.DeploymentID,
	)
	return &result, nil
}

// ListAgents returns all agent records visible to the caller. Each
// record carries the composite key in its Type field.
func (c *Client) ListAgents(ctx context.Context) ([]Agent, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/agents")
	if err != nil {
		return nil, err
	}
	var agents []Agent
	if err := json.Unmarshal(body, &agents); err != nil {
		return nil, fmt.Errorf("deploy: parsing agents response: %w", err)
	}
	return agents, nil
}

// FindAgent resolves an agent record by its composite key
// "<project>/<name>". Returns *AgentNotFoundError when no record
// matches.
func (c *Client) FindAgent(ctx context.Context, key string) (*Agent, error) {
	agents, err := c.ListAgents(ctx)
	if err != nil {
		return nil, err
	}
	for i := range agents {
		if agents[i].Type == key {
			return &agents[i], nil
		}
	}
	return nil, &AgentNotFoundError{Agent: key, Detail: "no backend record matches"}
}

// ListVersions returns all versions recorded for an agent.
func (c *Client) ListVersions(ctx context.Context, agentID string) ([]Version, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/agents/"+url.PathEscape(agentID)+"/versions")
	if err != nil {
		return nil, err
	}
	var versions []Version
	if err := json.Unmarshal(body, &versions); err != nil {
		return nil, fmt.Errorf("deploy: parsing versions response: %w", err)
	}
	return versions, nil
}

// DeleteVersion removes a single version record and its artifact.
// Callers are expected to have verified that the version exists and
// is not active — the lifecycle manager does both.
func (c *Client) DeleteVersion(ctx context.Context, agentID, version string) error {
	_, err := c.doRequest(ctx, http.MethodDelete,
		"/agents/"+url.PathEscape(agentID)+"/versions/"+url.PathEscape(version))
	return err
}

// DeleteAllVersions removes every version artifact for an agent.
func (c *Client) DeleteAllVersions(ctx context.Context, agentID string) error {
	_, err := c.doRequest(ctx, http.MethodDelete, "/agents/"+url.PathEscape(agentID)+"/versions")
	return err
}

// DeleteAgent removes the agent record itself.
func (c *Client) DeleteAgent(ctx context.Context, agentID string) error {
	_, err := c.doRequest(ctx, http.MethodDelete, "/agents/"+url.PathEscape(agentID))
	return err
}

// Health probes backend reachability. A non-2xx status or transport
// error is returned as-is; there is nothing to parse.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.doRequest(ctx, http.MethodGet, "/health")
	return err
}

// doRequest performs a JSON API request and returns the response body.
// On 2xx the body is returned raw for GETs; DELETE endpoints answer
// with the success envelope, which is checked here. On 4xx/5xx the
// backend error message (when present) is surfaced.
func (c *Client) doRequest(ctx context.Context, method, path string) ([]byte, error) {
	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("deploy: creating request: %w", err)
	}
	c.setCommonHeaders(request)

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("deploy: %s %s failed: %w", method, path, err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("deploy: reading response from %s %s: %w", method, path, err)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		var wrapper envelope
		if json.Unmarshal(body, &wrapper) == nil && wrapper.Error != "" {
			return nil, fmt.Errorf("deploy: %s %s: %s (status %d)", method, path, wrapper.Error, response.StatusCode)
		}
		return nil, fmt.Errorf("deploy: %s %s: unexpected status %d", method, path, response.StatusCode)
	}

	if method == http.MethodDelete {
		var wrapper envelope
		if err := json.Unmarshal(body, &wrapper); err != nil {
			return nil, fmt.Errorf("deploy: parsing response from %s %s: %w", method, path, err)
		}
		if !wrapper.Success {
			message := wrapper.Error
			if message == "" {
				message = "backend reported failure without a message"
			}
			return nil, fmt.Errorf("deploy: %s %s: %s", method, path, message)
		}
	}

	return body, nil
}

// setCommonHeaders adds the bearer token and a request id for backend
// correlation.
func (c *Client) setCommonHeaders(request *http.Request) {
	if c.authToken != "" {
		request.Header.Set("Authorization", "Bearer "+c.authToken)
	}
	request.Header.Set("X-Request-Id", uuid.NewString())
}
