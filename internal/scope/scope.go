// Package scope builds role-scoped store queries. Administrators see whole
// collections; members see only what they are assigned to or own. The logic
// lives here, in one place, so every consumer filters identically.
package scope

import (
	"github.com/hourstack-io/hourstack/internal/docstore"
	"github.com/hourstack-io/hourstack/internal/modules/model"
)

// Identity is the authenticated caller, as provided by the session
// collaborator. The builder takes it as plain input; it never reaches into
// the session itself.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// ProjectsFor returns the projects query for a caller. Admins get the whole
// collection; members get projects whose assigned_users contains them. A nil
// return is the "no query" sentinel: the caller must skip the read entirely
// instead of issuing an unscoped one.
func ProjectsFor(user *Identity, role string) *docstore.Query {
	if user == nil {
		return nil
	}
	q := docstore.C(model.CollectionProjects)
	if role == model.RoleAdmin {
		return q
	}
	return q.Where("assigned_users", docstore.OpArrayContains, user.ID)
}

// EntriesFor returns the time-entry query for a caller within one project.
// Admins see every contributor's entries; members see only their own. A nil
// return is the "no query" sentinel (missing identity or project id).
func EntriesFor(user *Identity, role string, projectID string) *docstore.Query {
	if user == nil || projectID == "" {
		return nil
	}
	q := docstore.C(model.CollectionTasks).Where("project_id", docstore.OpEqual, projectID)
	if role == model.RoleAdmin {
		return q
	}
	return q.Where("user_id", docstore.OpEqual, user.ID)
}
