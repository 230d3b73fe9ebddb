package tasks

import (
	"errors"
	"strings"
	"time"
)

func ValidateTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return errors.New("title is required")
	}
	if len(title) > 200 {
		return errors.New("title must be 200 characters or less")
	}
	return nil
}

func ValidateCommentContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return errors.New("content is required")
	}
	if len(content) > 5000 {
		return errors.New("content must be 5000 characters or less")
	}
	return nil
}

// ParseDueDate accepts a plain date or an RFC 3339 timestamp. An empty
// string means no due date.
func ParseDueDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, errors.New("due_date must be YYYY-MM-DD or RFC 3339")
	}
	return &t, nil
}
