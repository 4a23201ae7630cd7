// Package validator checks a response body against a small set of
// assertion kinds, the corehttp analogue of the teacher's
// internal/validator load-test assertion engine, generalized away from
// pkg/models.Assertion so it carries no scenario-file baggage. Grounded on
// internal/validator/assertions.go's Contains/Regex/JSONPath kinds.
package validator

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// Kind names which comparison an Assertion performs.
type Kind int

const (
	Contains Kind = iota
	Regex
	JSONPath
)

// Assertion is one check against a response body. Path is only meaningful
// for JSONPath; Value is the expected substring, pattern, or JSON value
// depending on Kind.
type Assertion struct {
	Kind    Kind
	Path    string
	Value   string
	Message string
}

// Error describes a failed Assertion with enough context to print a useful
// diagnostic without re-running the check.
type Error struct {
	Kind     Kind
	Path     string
	Expected string
	Actual   string
	Message  string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	switch e.Kind {
	case Contains:
		return fmt.Sprintf("response body does not contain %q", e.Expected)
	case Regex:
		return fmt.Sprintf("response body does not match regex %q", e.Expected)
	case JSONPath:
		if e.Expected != "" {
			return fmt.Sprintf("json path %q expected %q, got %q", e.Path, e.Expected, e.Actual)
		}
		return fmt.Sprintf("json path %q not found or empty", e.Path)
	default:
		return fmt.Sprintf("assertion failed: %s", e.Expected)
	}
}

// Check runs one Assertion against body, returning nil on success or an
// *Error describing the mismatch.
func Check(body []byte, a Assertion) error {
	switch a.Kind {
	case Regex:
		return checkRegex(body, a)
	case JSONPath:
		return checkJSONPath(body, a)
	default:
		return checkContains(body, a)
	}
}

// CheckAll runs every Assertion in order, returning the first failure.
func CheckAll(body []byte, assertions []Assertion) error {
	for _, a := range assertions {
		if err := Check(body, a); err != nil {
			return err
		}
	}
	return nil
}

func checkContains(body []byte, a Assertion) error {
	if !bytes.Contains(body, []byte(a.Value)) {
		return &Error{Kind: Contains, Expected: a.Value, Actual: truncate(body, 100), Message: a.Message}
	}
	return nil
}

func checkRegex(body []byte, a Assertion) error {
	re, err := regexp.Compile(a.Value)
	if err != nil {
		return &Error{Kind: Regex, Expected: a.Value, Message: fmt.Sprintf("invalid regex: %v", err)}
	}
	if !re.Match(body) {
		return &Error{Kind: Regex, Expected: a.Value, Actual: truncate(body, 100), Message: a.Message}
	}
	return nil
}

func checkJSONPath(body []byte, a Assertion) error {
	path := a.Path
	if path == "" {
		path = a.Value
	}

	result := gjson.GetBytes(body, path)
	if !result.Exists() {
		return &Error{Kind: JSONPath, Path: path, Expected: a.Value, Message: a.Message}
	}

	if a.Value != "" && a.Path != "" {
		expected := strings.TrimSpace(a.Value)
		actual := strings.TrimSpace(result.String())
		if actual != expected {
			return &Error{Kind: JSONPath, Path: path, Expected: expected, Actual: actual, Message: a.Message}
		}
	}
	return nil
}

func truncate(body []byte, maxLen int) string {
	if len(body) <= maxLen {
		return string(body)
	}
	return string(body[:maxLen]) + "..."
}
