package authz

import (
	"github.com/taskforge-hq/taskforge/internal/models"
)

// ProjectUpdatableFields is the allow-list for project field updates.
// Requests touching anything else are rejected before any role check.
var ProjectUpdatableFields = []string{"name", "description", "status", "end_date"}

// AuthorizeProjectView decides whether userID may read the full project.
// Members and the owner always may; non-members may only when they hold
// at least one task in the project as assignee or reporter, which the
// caller reports via hasTask.
func AuthorizeProjectView(p *models.Project, userID string, hasTask bool) *Error {
	if p.IsMember(userID) || hasTask {
		return nil
	}
	return denied("you must be a project member or have assigned tasks to view this project")
}

// AuthorizeProjectUpdate decides whether userID may apply an update
// touching the given JSON field names. The allow-list subset test is a
// validation failure and runs before the role check.
func AuthorizeProjectUpdate(p *models.Project, userID string, fields []string) *Error {
	if offending := subtract(fields, ProjectUpdatableFields); len(offending) > 0 {
		return invalid("invalid update fields", offending, ProjectUpdatableFields)
	}
	if !p.IsManager(userID) {
		return denied("only project managers can update the project")
	}
	return nil
}

// AuthorizeAddMember decides whether userID may add targetID to the
// project. Adding an existing member (or the owner) is rejected.
func AuthorizeAddMember(p *models.Project, userID, targetID string) *Error {
	if !p.IsManager(userID) {
		return denied("only project managers can add members")
	}
	if p.IsMember(targetID) {
		return &Error{Kind: KindAlreadyMember, Message: "user is already a member"}
	}
	return nil
}

// AuthorizeRemoveMember decides whether userID may remove targetID.
// The owner can never be removed, regardless of who asks. Removing a
// user who was never a member is a not-found decision, not an error.
func AuthorizeRemoveMember(p *models.Project, userID, targetID string) *Error {
	if p.IsOwner(targetID) {
		return &Error{Kind: KindCannotRemoveOwner, Message: "cannot remove the project owner"}
	}
	if !p.IsManager(userID) {
		return denied("only project managers can remove members")
	}
	if !p.IsMember(targetID) {
		return notFound("user is not a member of this project")
	}
	return nil
}

// AuthorizeProjectDelete decides whether userID may delete the project.
// Owner only; deletion cascades to the project's tasks at the caller.
func AuthorizeProjectDelete(p *models.Project, userID string) *Error {
	if !p.IsOwner(userID) {
		return denied("only the project owner can delete the project")
	}
	return nil
}

// AuthorizeProjectStats decides whether userID may read project
// statistics and reports.
func AuthorizeProjectStats(p *models.Project, userID string) *Error {
	if !p.IsMember(userID) {
		return denied("only project members can view project statistics")
	}
	return nil
}

// subtract returns the elements of fields that are not in allowed,
// preserving request order.
func subtract(fields, allowed []string) []string {
	var out []string
	for _, f := range fields {
		found := false
		for _, a := range allowed {
			if f == a {
				found = true
				break
			}
		}
		if !found {
			out = append(out, f)
		}
	}
	return out
}
