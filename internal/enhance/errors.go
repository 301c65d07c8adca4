// Package enhance – failure classification.
//
// The generative collaborator guarantees no structured error contract, so
// failures are classified by substring and status-code inspection of the
// error text. Every failure maps to exactly one ErrorKind with a stable,
// user-facing message; anything unrecognized falls through to KindUnknown
// with the raw message preserved. Classification never panics.
package enhance

import "strings"

// ErrorKind is the user-distinguishable category of an enhancement failure.
type ErrorKind string

const (
	// KindInvalidCredentials: API key expired or invalid. Fatal; surfaced
	// verbatim and never retried automatically.
	KindInvalidCredentials ErrorKind = "invalid_credentials"
	// KindQuotaExceeded: upstream 429 with quota exhaustion. Surfaced with a
	// suggested wait, distinct from the session cooldown.
	KindQuotaExceeded ErrorKind = "quota_exceeded"
	// KindTimeout: the internal 15s timer fired first. Retryable immediately.
	KindTimeout ErrorKind = "timeout"
	// KindBadRequest: upstream rejected the request (400). Retryable after edit.
	KindBadRequest ErrorKind = "bad_request"
	// KindAuthFailure: upstream 401/403. Retryable later.
	KindAuthFailure ErrorKind = "auth_failure"
	// KindUpstreamUnavailable: upstream 5xx. Retryable later.
	KindUpstreamUnavailable ErrorKind = "upstream_unavailable"
	// KindUnknown: anything else; raw message preserved.
	KindUnknown ErrorKind = "unknown"
)

// Error is a classified enhancement failure. Message is safe to show to the
// user for every kind.
type Error struct {
	Kind    ErrorKind
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string { return string(e.Kind) + ": " + e.Message }

// errTimedOut marks the internal timer settlement; it never leaves the package.
type errTimedOut struct{}

func (errTimedOut) Error() string { return "enhancement request timed out" }

// ClassifyError converts an arbitrary failure from the generative collaborator
// into a typed *Error. Matching is ordered from most to least specific:
// credential failures, quota exhaustion, internal timeout, then the
// HTTP-equivalent status classes. Unmatched failures become KindUnknown with
// the original text.
func ClassifyError(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		return e
	}

	msg := err.Error()
	low := strings.ToLower(msg)

	switch {
	case strings.Contains(msg, "API key expired") || strings.Contains(msg, "API_KEY_INVALID"):
		return &Error{Kind: KindInvalidCredentials, Message: msg}

	case strings.Contains(msg, "429") && strings.Contains(low, "quota"):
		return &Error{
			Kind:    KindQuotaExceeded,
			Message: "quota exceeded; please wait a minute before trying again",
		}

	case isTimeout(err):
		return &Error{
			Kind:    KindTimeout,
			Message: "request timed out; try again with a simpler prompt",
		}

	case hasStatus(msg, "400"):
		return &Error{
			Kind:    KindBadRequest,
			Message: "the model rejected this prompt; try simplifying it",
		}

	case hasStatus(msg, "401"), hasStatus(msg, "403"):
		return &Error{
			Kind:    KindAuthFailure,
			Message: "authentication with the model service failed; try again later",
		}

	case hasStatus(msg, "500"), hasStatus(msg, "502"), hasStatus(msg, "503"), hasStatus(msg, "504"):
		return &Error{
			Kind:    KindUpstreamUnavailable,
			Message: "the model service is experiencing issues; try again later",
		}

	default:
		return &Error{Kind: KindUnknown, Message: msg}
	}
}

// isTimeout reports whether err is the pipeline's own timer settlement or an
// equivalent deadline failure from the transport.
func isTimeout(err error) bool {
	if _, ok := err.(errTimedOut); ok {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "timed out") ||
		strings.Contains(low, "context deadline exceeded")
}

// hasStatus reports whether msg mentions the given HTTP status code as a
// standalone token. A bare substring test would misfire on payload digits
// (e.g. "1400 words"), so neighbors must be non-digits.
func hasStatus(msg, code string) bool {
	for i := 0; ; {
		j := strings.Index(msg[i:], code)
		if j < 0 {
			return false
		}
		j += i
		beforeOK := j == 0 || !isDigit(msg[j-1])
		after := j + len(code)
		afterOK := after >= len(msg) || !isDigit(msg[after])
		if beforeOK && afterOK {
			return true
		}
		i = j + 1
	}
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
