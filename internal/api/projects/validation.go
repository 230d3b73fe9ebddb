package projects

import (
	"errors"
	"strings"
	"time"
)

func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("name is required")
	}
	if len(name) > 100 {
		return errors.New("name must be 100 characters or less")
	}
	return nil
}

// ParseDate accepts a plain date or an RFC 3339 timestamp. An empty
// string parses to the zero time, which stores as NULL.
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, errors.New("date must be YYYY-MM-DD or RFC 3339")
	}
	return t, nil
}
