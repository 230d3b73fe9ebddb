// Package authz implements the authorization and lifecycle rules for
// projects and tasks. All decisions are pure functions over entity
// snapshots and the acting principal's ID; the package never touches
// storage or HTTP and never retries.
//
// Role information comes exclusively from the three predicates on
// models.Project (IsOwner, IsManager, IsMember); no rule re-derives
// membership on its own.
package authz

import (
	"fmt"
	"strings"
)

// Kind classifies a rejected action.
type Kind string

const (
	KindNotFound          Kind = "NOT_FOUND"
	KindAccessDenied      Kind = "ACCESS_DENIED"
	KindValidationFailed  Kind = "VALIDATION_FAILED"
	KindInvalidAssignee   Kind = "INVALID_ASSIGNEE"
	KindAlreadyMember     Kind = "ALREADY_MEMBER"
	KindCannotRemoveOwner Kind = "CANNOT_REMOVE_OWNER"
)

// Error is a decision outcome for a rejected action. It is a plain
// value, not an infrastructure failure: the caller maps it to a
// transport status and must not retry.
type Error struct {
	Kind    Kind
	Message string
	// Fields lists offending field names for validation failures.
	Fields []string
	// Allowed lists the permitted field names or enum values, when
	// that helps the caller correct the request.
	Allowed []string
}

func (e *Error) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Fields, ", "))
	}
	return e.Message
}

func denied(message string) *Error {
	return &Error{Kind: KindAccessDenied, Message: message}
}

func notFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func invalid(message string, fields, allowed []string) *Error {
	return &Error{Kind: KindValidationFailed, Message: message, Fields: fields, Allowed: allowed}
}
