package errors

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

// ValidateURL validates a URL string before it is probed over the network.
// The URL must parse and carry both a scheme and a host; anything else is
// rejected without issuing a request.
func ValidateURL(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return New(ErrCodeInvalidURL, "URL cannot be empty")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return Wrap(ErrCodeInvalidURL, err, "malformed URL %q", rawURL)
	}
	if u.Scheme == "" || u.Host == "" {
		return New(ErrCodeInvalidURL, "URL %q must have a scheme and a host", rawURL)
	}

	return nil
}

// ValidatePath validates an output path component for safety.
// It prevents path traversal and rejects control characters.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	return nil
}

// ruleCodeRegex matches rule identifiers such as P001 or W010.
var ruleCodeRegex = regexp.MustCompile(`^[PW]\d{3}$`)

// ValidateRuleCode validates the syntax of a rule identifier.
// It does not check that the rule is registered.
func ValidateRuleCode(code string) error {
	if !ruleCodeRegex.MatchString(code) {
		return New(ErrCodeUnknownRule, "invalid rule code %q (expected P### or W###)", code)
	}
	return nil
}
