package models

// User statuses
const (
	UserActive   = "Active"
	UserInactive = "Inactive"
)

// User is an operator account. Code is the badge-style identifier users log
// in with.
type User struct {
	Code         string `json:"code"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"` // never expose the hash in JSON
	Role         string `json:"role"`
	Status       string `json:"status"`
}
