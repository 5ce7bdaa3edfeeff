package exitcode

import (
	stderrors "errors"
	"os"

	"github.com/felixgeelhaar/vibecoder/internal/errors"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage (bad flags, missing args, etc.)
	UsageError = 2

	// ValidationError indicates rejected user input
	ValidationError = 3

	// AuthError indicates an authentication failure
	AuthError = 4

	// NetworkError indicates a transport or backend failure
	NetworkError = 5

	// Timeout indicates the job polling window was exhausted
	Timeout = 6

	// JobFailed indicates the remote job ran but reported failure
	JobFailed = 7

	// DeliveryFailed indicates the job succeeded but PR creation failed
	DeliveryFailed = 8

	// Interrupted indicates the user cancelled the operation
	Interrupted = 130
)

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError exits with an appropriate code based on error type
func ExitWithError(err error) {
	Exit(DetermineExitCode(err))
}

// DetermineExitCode maps an error to the appropriate exit code using the
// workflow error taxonomy. Unclassified errors map to GeneralError.
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	var verr *errors.VibecoderError
	if !stderrors.As(err, &verr) {
		return GeneralError
	}

	switch verr.Kind {
	case errors.KindValidation:
		return ValidationError
	case errors.KindAuth:
		return AuthError
	case errors.KindNetwork:
		return NetworkError
	case errors.KindTimeout:
		return Timeout
	case errors.KindJobFailure:
		return JobFailed
	case errors.KindDeliveryFailure:
		return DeliveryFailed
	default:
		return GeneralError
	}
}
