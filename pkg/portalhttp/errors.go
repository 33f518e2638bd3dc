package portalhttp

import (
	"errors"

	"github.com/utilibill/portal-sdk/pkg/serrors"
)

const (
	// CodeNetwork covers transport failures and unreadable responses.
	CodeNetwork = "PORTAL_NETWORK"
	// CodeAPIError covers logical failures (isSuccess=false or HTTP error
	// status with a decodable envelope).
	CodeAPIError = "PORTAL_API_ERROR"
	// CodeBadEnvelope covers structurally invalid response payloads.
	CodeBadEnvelope = "PORTAL_BAD_ENVELOPE"
)

func networkError(op string) *serrors.Error {
	return serrors.NewError(CodeNetwork, "Network error during "+op)
}

func apiError(message string) *serrors.Error {
	return serrors.NewError(CodeAPIError, message)
}

// FailureMessage maps an operation error onto the string surfaced to the UI.
// Server-provided messages pass through verbatim; an empty server message
// falls back to the per-operation default.
func FailureMessage(err error, fallback string) string {
	var coded *serrors.Error
	if errors.As(err, &coded) {
		switch coded.Code {
		case CodeAPIError:
			if coded.Message != "" {
				return coded.Message
			}
			return fallback
		case CodeNetwork:
			return coded.Message
		}
	}
	if fallback != "" {
		return fallback
	}
	return err.Error()
}

// IsAPIError reports whether err is a server logical failure.
func IsAPIError(err error) bool {
	var coded *serrors.Error
	return errors.As(err, &coded) && coded.Code == CodeAPIError
}

// IsNetworkError reports whether err is a transport failure.
func IsNetworkError(err error) bool {
	var coded *serrors.Error
	return errors.As(err, &coded) && coded.Code == CodeNetwork
}
