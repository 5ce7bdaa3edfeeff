package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Validation errors (VALIDATION-001 to VALIDATION-099)
	ErrCodePromptEmpty      ErrorCode = "VALIDATION-001"
	ErrCodeRepoNotSelected  ErrorCode = "VALIDATION-002"
	ErrCodeRepoNameEmpty    ErrorCode = "VALIDATION-003"
	ErrCodeRepoNameInvalid  ErrorCode = "VALIDATION-004"
	ErrCodeRepoNameTooLong  ErrorCode = "VALIDATION-005"
	ErrCodeAnswerRequired   ErrorCode = "VALIDATION-006"
	ErrCodeRepoURLInvalid   ErrorCode = "VALIDATION-007"
	ErrCodeTransitionDenied ErrorCode = "VALIDATION-008"

	// Network errors (NETWORK-001 to NETWORK-099)
	ErrCodeRequestFailed ErrorCode = "NETWORK-001"
	ErrCodeBadStatus     ErrorCode = "NETWORK-002"
	ErrCodeBadResponse   ErrorCode = "NETWORK-003"
	ErrCodeRequestEncode ErrorCode = "NETWORK-004"

	// Auth errors (AUTH-001 to AUTH-099)
	ErrCodeTokenMissing    ErrorCode = "AUTH-001"
	ErrCodeTokenInvalid    ErrorCode = "AUTH-002"
	ErrCodeOAuthDenied     ErrorCode = "AUTH-003"
	ErrCodeOAuthMalformed  ErrorCode = "AUTH-004"
	ErrCodeExchangeFailed  ErrorCode = "AUTH-005"
	ErrCodeCredentialStore ErrorCode = "AUTH-006"

	// Timeout errors (TIMEOUT-001 to TIMEOUT-099)
	ErrCodePollCeiling ErrorCode = "TIMEOUT-001"

	// Job errors (JOB-001 to JOB-099)
	ErrCodeJobReportedFailure ErrorCode = "JOB-001"

	// Delivery errors (DELIVERY-001 to DELIVERY-099)
	ErrCodePullRequestFailed ErrorCode = "DELIVERY-001"
)

// Kind classifies an error into the workflow taxonomy. Every collaborator
// failure is converted to exactly one kind before it crosses back into the
// state machine.
type Kind int

const (
	// KindValidation is bad user input, caught before any network call.
	KindValidation Kind = iota
	// KindNetwork is a transport or non-2xx failure with no partial state change.
	KindNetwork
	// KindAuth is a missing or invalid token; the user must re-authenticate.
	KindAuth
	// KindTimeout means the poll ceiling was reached before a terminal status.
	KindTimeout
	// KindJobFailure means the job ran but reported failure. No code was produced.
	KindJobFailure
	// KindDeliveryFailure means the job succeeded but the result could not be
	// delivered (PR creation failed). Code exists but is undelivered.
	KindDeliveryFailure
)

// String returns the human-readable name of the kind
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNetwork:
		return "network"
	case KindAuth:
		return "auth"
	case KindTimeout:
		return "timeout"
	case KindJobFailure:
		return "job_failure"
	case KindDeliveryFailure:
		return "delivery_failure"
	default:
		return "unknown"
	}
}

// VibecoderError represents an enhanced error with kind, code, suggestions,
// and an optional cause
type VibecoderError struct {
	Kind        Kind
	Code        ErrorCode
	Message     string
	Suggestions []string
	Cause       error
}

// Error implements the error interface
func (e *VibecoderError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *VibecoderError) Unwrap() error {
	return e.Cause
}

// New creates a new VibecoderError
func New(kind Kind, code ErrorCode, message string) *VibecoderError {
	return &VibecoderError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new VibecoderError wrapping an existing error
func Wrap(kind Kind, code ErrorCode, message string, cause error) *VibecoderError {
	return &VibecoderError{
		Kind:    kind,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *VibecoderError) WithSuggestion(suggestion string) *VibecoderError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *VibecoderError) WithSuggestions(suggestions ...string) *VibecoderError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// KindOf returns the kind of err, or KindNetwork for errors that were never
// classified. Unclassified errors only escape from transport plumbing, so
// network is the safe default.
func KindOf(err error) Kind {
	var verr *VibecoderError
	if stderrors.As(err, &verr) {
		return verr.Kind
	}
	return KindNetwork
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind Kind) bool {
	var verr *VibecoderError
	if stderrors.As(err, &verr) {
		return verr.Kind == kind
	}
	return false
}

// IsValidation reports whether err is a validation error
func IsValidation(err error) bool { return IsKind(err, KindValidation) }

// IsNetwork reports whether err is a network error
func IsNetwork(err error) bool { return IsKind(err, KindNetwork) }

// IsAuth reports whether err is an auth error
func IsAuth(err error) bool { return IsKind(err, KindAuth) }

// IsTimeout reports whether err is a timeout error
func IsTimeout(err error) bool { return IsKind(err, KindTimeout) }

// IsJobFailure reports whether err is a job failure
func IsJobFailure(err error) bool { return IsKind(err, KindJobFailure) }

// IsDeliveryFailure reports whether err is a delivery failure
func IsDeliveryFailure(err error) bool { return IsKind(err, KindDeliveryFailure) }

// Common error constructors for frequently used errors

// NewPromptEmptyError creates an empty-prompt validation error
func NewPromptEmptyError() *VibecoderError {
	return New(KindValidation, ErrCodePromptEmpty, "prompt must not be empty").
		WithSuggestion("Describe the change you want in plain language")
}

// NewAnswerRequiredError creates a missing-clarification-answer error
func NewAnswerRequiredError(question string) *VibecoderError {
	return New(KindValidation, ErrCodeAnswerRequired, fmt.Sprintf("answer is required for: %s", question)).
		WithSuggestion("Provide a non-empty answer for every clarifying question")
}

// NewTokenMissingError creates a missing-token auth error
func NewTokenMissingError() *VibecoderError {
	return New(KindAuth, ErrCodeTokenMissing, "no GitHub access token found").
		WithSuggestion("Run 'vibecoder auth login' to authenticate")
}

// NewBadStatusError creates a non-2xx response error carrying the backend detail
func NewBadStatusError(endpoint string, status int, detail string) *VibecoderError {
	msg := fmt.Sprintf("%s returned status %d", endpoint, status)
	if detail != "" {
		msg += ": " + detail
	}
	return New(KindNetwork, ErrCodeBadStatus, msg).
		WithSuggestion("Check that the backend is reachable and up to date")
}

// NewPollTimeoutError creates a poll-ceiling timeout error
func NewPollTimeoutError(attempts int) *VibecoderError {
	return New(KindTimeout, ErrCodePollCeiling, fmt.Sprintf("job did not finish after %d progress checks", attempts)).
		WithSuggestion("The remote job may still be running; check again later").
		WithSuggestion("Large changes can exceed the polling window")
}

// NewJobFailureError creates a job-reported-failure error
func NewJobFailureError(message string) *VibecoderError {
	if message == "" {
		message = "job reported failure without details"
	}
	return New(KindJobFailure, ErrCodeJobReportedFailure, message).
		WithSuggestion("No code was produced; adjust the prompt or plan and retry")
}

// NewDeliveryFailureError creates a PR-delivery error distinct from job failure
func NewDeliveryFailureError(cause error) *VibecoderError {
	return Wrap(KindDeliveryFailure, ErrCodePullRequestFailed, "job succeeded but the pull request could not be created", cause).
		WithSuggestion("The branch with your changes exists on the remote").
		WithSuggestion("Open the pull request manually or retry delivery")
}
