package models

// Roles a user can hold. Anything else is coerced to RoleUser.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// DefaultAdminID is the built-in administrator. It can never be deleted
// or downgraded, and orphaned groups fall back to it.
const DefaultAdminID = "u_admin"

// User is a registered account. PwSalt and PwHash are hex-encoded and
// never leave the server.
type User struct {
	ID          string  `json:"id"`
	Username    string  `json:"username"`
	DisplayName string  `json:"displayName"`
	Role        string  `json:"role"`
	PwSalt      string  `json:"pwSalt"`
	PwHash      string  `json:"pwHash"`
	AvatarURL   *string `json:"avatarUrl"`
	CreatedAt   int64   `json:"createdAt"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// PublicUser is the client-visible projection of a User.
type PublicUser struct {
	ID          string  `json:"id"`
	Username    string  `json:"username"`
	DisplayName string  `json:"displayName"`
	Role        string  `json:"role"`
	AvatarURL   *string `json:"avatarUrl"`
}

// Public strips credential material for API responses.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Role:        u.Role,
		AvatarURL:   u.AvatarURL,
	}
}
