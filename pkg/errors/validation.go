package errors

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseThreshold parses a brightness threshold in [0,255].
func ParseThreshold(s string) (uint8, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, New(ErrCodeInvalidThreshold, "threshold cannot be empty")
	}
	v, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, New(ErrCodeInvalidThreshold, "threshold must be an integer in [0,255]: %q", s)
	}
	return uint8(v), nil
}

// ValidateOutputPath validates a path the CLI is about to write to.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidateOutputPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "output path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}
	return nil
}

// ValidateCacheURL validates a remote cache URL.
// Only redis:// and rediss:// schemes are accepted.
func ValidateCacheURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "cache URL cannot be empty")
	}
	if !strings.HasPrefix(rawURL, "redis://") && !strings.HasPrefix(rawURL, "rediss://") {
		return New(ErrCodeInvalidInput, "cache URL must use redis or rediss scheme")
	}
	return nil
}
