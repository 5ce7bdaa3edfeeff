package api

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/vibecoder/internal/errors"
	"github.com/felixgeelhaar/vibecoder/internal/log"
)

// Client is the HTTP client for the vibecoder backend. All methods convert
// transport and non-2xx failures into the workflow error taxonomy before
// returning.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger overrides the client's logger
func WithLogger(logger *log.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a backend client for the given base URL
func NewClient(baseURL string, opts ...Option) *Client {
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     log.DefaultLogger(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// BaseURL returns the configured backend base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// errorDetail mirrors the backend's error envelope
type errorDetail struct {
	Detail string `json:"detail"`
}

// pathExchange carries no access token, so a 401 from it means the
// authorization code was bad, not the stored token.
const pathExchange = "/api/auth/github/exchange"

// do issues the request, checks the status, and decodes the response body
// into out when it is non-nil.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(errors.KindNetwork, errors.ErrCodeRequestEncode, fmt.Sprintf("encode request for %s", path), err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return errors.Wrap(errors.KindNetwork, errors.ErrCodeRequestFailed, fmt.Sprintf("create request for %s", path), err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(errors.KindNetwork, errors.ErrCodeRequestFailed, fmt.Sprintf("request to %s failed", path), err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(errors.KindNetwork, errors.ErrCodeBadResponse, fmt.Sprintf("read response from %s", path), err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := extractDetail(respBody)
		c.logger.Debug("backend returned error status",
			"path", path, "status", resp.StatusCode, "detail", detail)

		if (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) && path != pathExchange {
			return errors.New(errors.KindAuth, errors.ErrCodeTokenInvalid,
				fmt.Sprintf("%s rejected the access token (status %d)", path, resp.StatusCode)).
				WithSuggestion("Run 'vibecoder auth login' to re-authenticate")
		}
		return errors.NewBadStatusError(path, resp.StatusCode, detail)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return errors.Wrap(errors.KindNetwork, errors.ErrCodeBadResponse, fmt.Sprintf("decode response from %s", path), err)
		}
	}

	return nil
}

// extractDetail pulls the backend's detail field out of an error body,
// falling back to the raw body.
func extractDetail(body []byte) string {
	var envelope errorDetail
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Detail != "" {
		return envelope.Detail
	}
	return strings.TrimSpace(string(body))
}

// GenerateCRS converts a free-text prompt (and optional clarification
// answers) into a structured change request specification.
func (c *Client) GenerateCRS(ctx context.Context, req CRSRequest) (*CRSResponse, error) {
	var resp CRSResponse
	if err := c.do(ctx, http.MethodPost, "/api/crs", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SynthesizePlan generates an implementation plan from an accepted CRS
func (c *Client) SynthesizePlan(ctx context.Context, req PlanRequest) (*PlanResponse, error) {
	var resp PlanResponse
	if err := c.do(ctx, http.MethodPost, "/api/plan-synthesis", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateJob submits an execution job and returns its id
func (c *Client) CreateJob(ctx context.Context, req JobRequest) (*JobCreateResponse, error) {
	var resp JobCreateResponse
	if err := c.do(ctx, http.MethodPost, "/api/jobs/create", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetJobProgress fetches a progress snapshot for a job
func (c *Client) GetJobProgress(ctx context.Context, jobID string) (*JobProgress, error) {
	var resp JobProgress
	if err := c.do(ctx, http.MethodGet, "/api/jobs/"+jobID+"/progress", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetJobResult fetches the final result of a job
func (c *Client) GetJobResult(ctx context.Context, jobID string) (*JobResult, error) {
	var resp JobResult
	if err := c.do(ctx, http.MethodGet, "/api/jobs/"+jobID+"/result", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreatePullRequest opens a pull request for a branch the job pushed
func (c *Client) CreatePullRequest(ctx context.Context, req CreatePRRequest) (*PullRequest, error) {
	var resp PullRequest
	if err := c.do(ctx, http.MethodPost, "/api/github/create-pr", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ExchangeCode trades an OAuth authorization code for an access token and
// user identity. Backend error detail is surfaced verbatim.
func (c *Client) ExchangeCode(ctx context.Context, req ExchangeRequest) (*ExchangeResponse, error) {
	var resp ExchangeResponse
	if err := c.do(ctx, http.MethodPost, pathExchange, req, &resp); err != nil {
		var verr *errors.VibecoderError
		if stderrors.As(err, &verr) && verr.Kind == errors.KindNetwork {
			return nil, errors.Wrap(errors.KindAuth, errors.ErrCodeExchangeFailed, "authorization code exchange failed", err)
		}
		return nil, err
	}
	return &resp, nil
}
