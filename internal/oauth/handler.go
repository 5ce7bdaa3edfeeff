// Package oauth reconciles an out-of-band GitHub authorization result with
// the running workflow. A redirect of the form
//
//	vibecoder://oauth-success?token=...&user=<url-encoded JSON>
//	vibecoder://oauth-error?error=...
//
// arrives either as the URL the process was launched with or as a live event
// while it is running. A legacy channel exchanges an authorization code with
// the backend instead.
package oauth

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/vibecoder/internal/api"
	"github.com/felixgeelhaar/vibecoder/internal/credentials"
	"github.com/felixgeelhaar/vibecoder/internal/errors"
	"github.com/felixgeelhaar/vibecoder/internal/log"
)

// State is the handler's position in its terminal-only state machine:
// awaiting_redirect transitions once, to authenticated or failed.
type State int

const (
	// StateAwaitingRedirect means no authorization outcome has arrived yet
	StateAwaitingRedirect State = iota
	// StateAuthenticated means credentials were persisted; proceed
	StateAuthenticated
	// StateFailed means the attempt failed; retry means a fresh login attempt
	StateFailed
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateAwaitingRedirect:
		return "awaiting_redirect"
	case StateAuthenticated:
		return "authenticated"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the reconciled result of one login attempt
type Outcome struct {
	State State
	User  api.User
	// Err is the user-visible failure when State is StateFailed
	Err error
}

// Handler correlates one login attempt's redirect back into the workflow.
// Each attempt gets a fresh Handler; the states are terminal.
type Handler struct {
	creds     *credentials.Manager
	client    *api.Client
	logger    *log.Logger
	attemptID string

	mu      sync.Mutex
	state   State
	outcome Outcome
}

// Option configures a Handler
type Option func(*Handler)

// WithLogger overrides the handler's logger
func WithLogger(logger *log.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// NewHandler creates a handler for a single login attempt
func NewHandler(creds *credentials.Manager, client *api.Client, opts ...Option) *Handler {
	h := &Handler{
		creds:     creds,
		client:    client,
		logger:    log.DefaultLogger(),
		attemptID: uuid.New().String(),
		state:     StateAwaitingRedirect,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// State returns the handler's current state
func (h *Handler) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// AttemptID identifies this login attempt in logs
func (h *Handler) AttemptID() string {
	return h.attemptID
}

// HandleRedirect consumes an authorization redirect URL. Duplicate deliveries
// after the attempt already concluded are no-ops returning the settled
// outcome.
func (h *Handler) HandleRedirect(rawURL string) Outcome {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state != StateAwaitingRedirect {
		h.logger.Debug("duplicate redirect delivery ignored",
			"attempt_id", h.attemptID, "state", h.state.String())
		return h.outcome
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return h.fail(errors.Wrap(errors.KindAuth, errors.ErrCodeOAuthMalformed, "authorization redirect is not a valid URL", err))
	}

	switch redirectKind(parsed) {
	case "success":
		return h.succeedFromQuery(parsed.Query())
	case "error":
		reason := parsed.Query().Get("error")
		if reason == "" {
			reason = "authorization was denied"
		}
		return h.fail(errors.New(errors.KindAuth, errors.ErrCodeOAuthDenied, "GitHub authorization failed: "+reason).
			WithSuggestion("Start the login again from 'vibecoder auth login'"))
	default:
		return h.fail(errors.New(errors.KindAuth, errors.ErrCodeOAuthMalformed, "unrecognized authorization redirect: "+rawURL))
	}
}

// redirectKind classifies a deep link. The marker lives in the host for
// scheme://oauth-success form and in the path when a plain URL is used.
func redirectKind(u *url.URL) string {
	marker := u.Host
	if marker == "" {
		marker = strings.Trim(u.Path, "/")
	}
	switch marker {
	case "oauth-success":
		return "success"
	case "oauth-error":
		return "error"
	default:
		return ""
	}
}

// succeedFromQuery validates and persists the token/user pair. The pair is
// atomic: a token whose user payload fails to parse persists nothing.
func (h *Handler) succeedFromQuery(query url.Values) Outcome {
	token := query.Get("token")
	if token == "" {
		return h.fail(errors.New(errors.KindAuth, errors.ErrCodeOAuthMalformed, "authorization redirect is missing the token"))
	}

	userParam := query.Get("user")
	if userParam == "" {
		return h.fail(errors.New(errors.KindAuth, errors.ErrCodeOAuthMalformed, "authorization redirect is missing the user payload"))
	}

	var user api.User
	if err := json.Unmarshal([]byte(userParam), &user); err != nil {
		return h.fail(errors.Wrap(errors.KindAuth, errors.ErrCodeOAuthMalformed, "authorization redirect carried an unreadable user payload", err).
			WithSuggestion("Start the login again from 'vibecoder auth login'"))
	}
	if user.Login == "" {
		return h.fail(errors.New(errors.KindAuth, errors.ErrCodeOAuthMalformed, "authorization redirect user payload has no login"))
	}

	return h.persist(credentials.Credentials{AccessToken: token, User: user})
}

// ExchangeCode is the legacy channel: trade an authorization code for a
// token via the backend, then persist. Duplicate calls after the attempt
// concluded are no-ops.
func (h *Handler) ExchangeCode(ctx context.Context, code, redirectURI string) Outcome {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state != StateAwaitingRedirect {
		h.logger.Debug("duplicate code exchange ignored",
			"attempt_id", h.attemptID, "state", h.state.String())
		return h.outcome
	}

	resp, err := h.client.ExchangeCode(ctx, api.ExchangeRequest{Code: code, RedirectURI: redirectURI})
	if err != nil {
		return h.fail(err)
	}

	return h.persist(credentials.Credentials{AccessToken: resp.AccessToken, User: resp.User})
}

// persist stores the pair and settles the attempt. Callers hold the lock.
func (h *Handler) persist(creds credentials.Credentials) Outcome {
	if err := h.creds.Set(creds); err != nil {
		return h.fail(err)
	}

	h.logger.Info("authenticated", "attempt_id", h.attemptID, "login", creds.User.Login)
	h.state = StateAuthenticated
	h.outcome = Outcome{State: StateAuthenticated, User: creds.User}
	return h.outcome
}

// fail settles the attempt as failed. Callers hold the lock.
func (h *Handler) fail(err error) Outcome {
	h.logger.WithError(err).Warn("login attempt failed", "attempt_id", h.attemptID)
	h.state = StateFailed
	h.outcome = Outcome{State: StateFailed, Err: err}
	return h.outcome
}
