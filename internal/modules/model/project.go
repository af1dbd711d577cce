package model

// Collection names in the document store.
const (
	CollectionProjects = "projects"
	CollectionTasks    = "tasks"
	CollectionUsers    = "users"
	CollectionAudit    = "audit_events"
)

// Project is a billable project. TotalHours is a denormalized running sum
// maintained by time-entry writes; it never goes below zero.
type Project struct {
	ID            string   `json:"id,omitempty"`
	Name          string   `json:"name"`
	CreatedBy     string   `json:"created_by"`
	AssignedUsers []string `json:"assigned_users"`
	TotalHours    float64  `json:"total_hours"`
}

// Doc returns the stored representation, without the id.
func (p *Project) Doc() map[string]any {
	assigned := make([]any, 0, len(p.AssignedUsers))
	for _, u := range p.AssignedUsers {
		assigned = append(assigned, u)
	}
	return map[string]any{
		"name":           p.Name,
		"created_by":     p.CreatedBy,
		"assigned_users": assigned,
		"total_hours":    p.TotalHours,
	}
}
