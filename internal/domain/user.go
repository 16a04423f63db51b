package domain

import "time"

// User is a registered account. Role is stored as the string form of role.Role;
// parsing happens at the authorization boundary, never here.
type User struct {
	ID           string    `json:"id"`
	UID          string    `json:"uid"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	Phone        string    `json:"phone,omitempty"`
	Address      string    `json:"address,omitempty"`
	PasswordHash string    `json:"password_hash,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PublicUser strips credentials for API responses.
func (u User) Public() User {
	u.PasswordHash = ""
	return u
}
