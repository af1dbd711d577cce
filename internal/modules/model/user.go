package model

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// UserProfile is the stored profile for an authenticated user. HourlyRate is
// a pointer because an absent rate is not the same as a rate of zero: the
// earnings computation must be able to report "not set".
type UserProfile struct {
	ID         string   `json:"id,omitempty"`
	Email      string   `json:"email"`
	Role       string   `json:"role"`
	HourlyRate *float64 `json:"hourly_rate,omitempty"`
}

// IsAdmin reports whether the profile carries the admin capability.
func (u *UserProfile) IsAdmin() bool { return u.Role == RoleAdmin }

// Doc returns the stored representation; hourly_rate is omitted entirely
// when unset so absence round-trips faithfully.
func (u *UserProfile) Doc() map[string]any {
	doc := map[string]any{
		"email": u.Email,
		"role":  u.Role,
	}
	if u.HourlyRate != nil {
		doc["hourly_rate"] = *u.HourlyRate
	}
	return doc
}
