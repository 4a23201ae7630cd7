// Package classify maps (status, body) pairs to the finite error taxonomy of
// spec.md §4.6, grounded on
// original_source/core/utils/api/base_response.py's raise_errors and
// original_source/core/utils/api/errors.py's exception hierarchy. The
// teacher carries no equivalent (sayl treats non-2xx as "step failed" rather
// than classifying into kinds), so this package is built directly from the
// original Python source in the teacher's naming conventions.
package classify

import "strings"

// Kind names one taxonomy bucket. It is a classification, not a concrete
// Go error type — see spec.md GLOSSARY.
type Kind string

const (
	KindNone              Kind = ""
	KindNetwork           Kind = "network"
	KindCircuitBreaker    Kind = "circuit_breaker"
	KindDependencyRuntime Kind = "dependency_runtime"
	KindDependencyFailed  Kind = "dependency_failed"
	KindValidation        Kind = "validation"
	KindMissingParameter  Kind = "missing_parameter"
	KindNotFound          Kind = "not_found"
	KindMethodNotAllowed  Kind = "method_not_allowed"
	KindRateLimit         Kind = "rate_limit"
	KindParsing           Kind = "parsing"
	KindTokenExpired      Kind = "token_expired"
	KindPermissionDenied  Kind = "permission_denied"
	KindAuth              Kind = "auth"
	KindGateway           Kind = "gateway"
	KindServer            Kind = "server"
	KindUnexpected        Kind = "unexpected"
)

// DefaultMessage mirrors errors.py's per-class default_message.
func (k Kind) DefaultMessage() string {
	switch k {
	case KindNetwork:
		return "Network communication failure"
	case KindCircuitBreaker:
		return "The circuit breaker limit has been exceeded"
	case KindDependencyRuntime:
		return "Dependencies runtime error occurred"
	case KindDependencyFailed:
		return "Dependencies failed"
	case KindValidation:
		return "Validation failed"
	case KindMissingParameter:
		return "Missing parameter"
	case KindNotFound:
		return "Resource not found"
	case KindMethodNotAllowed:
		return "HTTP method not allowed"
	case KindRateLimit:
		return "Rate limit exceeded"
	case KindParsing:
		return "Failed to parse response"
	case KindTokenExpired:
		return "Token expired"
	case KindPermissionDenied:
		return "Permission denied"
	case KindAuth:
		return "Unauthorized"
	case KindGateway:
		return "Bad gateway response"
	case KindServer:
		return "Server error"
	default:
		return "Unexpected error occurred"
	}
}

// Synthetic status codes that never originate from the wire (spec.md §7).
const (
	StatusDependencyFailed  = 596
	StatusDependencyRuntime = 597
	StatusCircuitOpen       = 598
	StatusNetwork           = 599
)

var tokenExpiredKeywords = []string{"expired", "token", "authorization", "signature", "credential", "jwt"}
var missingParamKeywords = []string{"missing", "required", "parameter", "field", "empty"}

// bodyPrefixLen is the number of characters of the (lower-cased) body the
// classifier inspects, per spec.md §4.6.
const bodyPrefixLen = 200

// Classify determines the Kind for a completed attempt. body is the raw
// response text; only its first 200 characters, lower-cased, are inspected.
func Classify(status int, body string) Kind {
	if status >= 200 && status < 300 {
		return KindNone
	}

	switch status {
	case StatusNetwork:
		return KindNetwork
	case StatusCircuitOpen:
		return KindCircuitBreaker
	case StatusDependencyRuntime:
		return KindDependencyRuntime
	case StatusDependencyFailed:
		return KindDependencyFailed
	}

	prefix := lowerPrefix(body, bodyPrefixLen)

	switch status {
	case 422:
		return KindValidation
	case 404:
		return KindNotFound
	case 405:
		return KindMethodNotAllowed
	case 429, 420:
		return KindRateLimit
	case 502, 503, 504:
		return KindGateway
	case 415:
		return KindParsing
	}

	if status >= 500 {
		return KindServer
	}

	if status == 401 || status == 403 {
		if containsAny(prefix, tokenExpiredKeywords) {
			return KindTokenExpired
		}
		if status == 403 {
			return KindPermissionDenied
		}
		return KindAuth
	}

	if status == 400 {
		if containsAny(prefix, missingParamKeywords) {
			return KindMissingParameter
		}
		return KindValidation
	}

	if status >= 400 && status < 500 {
		return KindValidation
	}

	return KindUnexpected
}

func lowerPrefix(s string, n int) string {
	if len(s) > n {
		s = s[:n]
	}
	return strings.ToLower(s)
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

// UnauthenticatedStatus reports whether status is one of the codes
// RequestCore treats as "needs an OAuth refresh" (spec.md §4.8 step 8),
// independent of full classification.
func UnauthenticatedStatus(status int) bool {
	switch status {
	case 401, 498, 419, 440:
		return true
	default:
		return false
	}
}

// UnauthenticatedBody reports whether the body prefix contains "expired",
// "token" or "authorization", a subset of the TokenExpired keywords.
func UnauthenticatedBody(body string) bool {
	prefix := lowerPrefix(body, bodyPrefixLen)
	return strings.Contains(prefix, "expired") || strings.Contains(prefix, "token") || strings.Contains(prefix, "authorization")
}
