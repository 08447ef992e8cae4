package models

// User represents a user account in the system
type User struct {
	ID           string `json:"_id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"` // Never serialize password hash
	Role         int    `json:"role"` // 0=User, non-zero=Admin, default=0
	Image        string `json:"image"`
	Token        string `json:"-"` // Current session token, "" means no active session
	TokenExp     *int64 `json:"-"` // Present in the schema, not used by any flow
}

// IsAdmin reports whether the user has an administrator role
func (u *User) IsAdmin() bool {
	return u.Role != 0
}
