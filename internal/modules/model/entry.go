package model

// TimeEntry is one logged block of work. Hours stays a string end to end,
// exactly as the user typed it; validation and arithmetic parse it on demand.
// ProjectName is denormalized at write time so lists render without a join.
type TimeEntry struct {
	ID          string `json:"id,omitempty"`
	Date        string `json:"date"`
	ProjectID   string `json:"project_id"`
	ProjectName string `json:"project_name"`
	Task        string `json:"task"`
	Hours       string `json:"hours"`
	UserID      string `json:"user_id"`
}

// Doc returns the stored representation, without the id.
func (e *TimeEntry) Doc() map[string]any {
	return map[string]any{
		"date":         e.Date,
		"project_id":   e.ProjectID,
		"project_name": e.ProjectName,
		"task":         e.Task,
		"hours":        e.Hours,
		"user_id":      e.UserID,
	}
}
