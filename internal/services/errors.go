package services

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"issuesolver/internal/llm/client"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrIssueClosed  = errors.New("issue solution is already closed")
	ErrStepConflict = errors.New("issue solution is not at a step that allows this action")
)

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// FetchError carries an upstream issue fetch failure verbatim.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return e.Err.Error()
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

type ErrorKind string

const (
	KindQuota             ErrorKind = "quota"
	KindInvalidCredential ErrorKind = "invalid_credential"
	KindNetwork           ErrorKind = "network"
	KindUnknown           ErrorKind = "unknown"
)

// GatewayError is a failed generation tagged with whose key was used, so
// callers can tell "add your own key" apart from "the shared key is exhausted".
type GatewayError struct {
	Kind      ErrorKind
	KeySource client.KeySource
	Err       error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("generation failed (%s, %s key): %v", e.Kind, e.KeySource, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

func newGatewayError(err error, source client.KeySource) *GatewayError {
	var ge *GatewayError
	if errors.As(err, &ge) {
		return ge
	}
	return &GatewayError{Kind: ClassifyError(err.Error()), KeySource: source, Err: err}
}

var (
	networkPhrases = []string{
		"connection refused", "connection reset", "no such host", "dial tcp",
		"dial udp", "i/o timeout", "deadline exceeded", "tls handshake",
		"unexpected eof", "network is unreachable", "broken pipe", "timeout", "timed out",
	}
	quotaPhrases = []string{
		"quota", "rate limit", "rate_limit", "ratelimit", "too many requests",
		"resource_exhausted", "resource exhausted", "credit balance", "billing",
	}
	credentialPhrases = []string{
		"invalid api key", "invalid_api_key", "incorrect api key", "api key not valid",
		"invalid x-api-key", "authentication", "unauthorized", "permission denied",
		"permission_denied", "api key for",
	}

	// A bare three digit status, not part of an address, port, version or id.
	statusCodePattern = regexp.MustCompile(`(?:^|[^\w.:/-])(\d{3})(?:[^\w.-]|$)`)
)

// ClassifyError maps raw upstream error text onto a small taxonomy. Transport
// failures are checked first so addresses and ports never read as status
// codes. Quota phrases win over credential phrases so a rate-limited key is
// never reported as invalid.
func ClassifyError(text string) ErrorKind {
	lower := strings.ToLower(text)
	switch {
	case lower == "":
		return KindUnknown
	case containsAny(lower, networkPhrases):
		return KindNetwork
	case containsAny(lower, quotaPhrases):
		return KindQuota
	case containsAny(lower, credentialPhrases):
		return KindInvalidCredential
	}
	for _, m := range statusCodePattern.FindAllStringSubmatch(lower, -1) {
		switch m[1] {
		case "429":
			return KindQuota
		case "401", "403":
			return KindInvalidCredential
		}
	}
	return KindUnknown
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
