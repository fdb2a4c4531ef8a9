package models

// User is the authenticated caller, resolved by the identity gateway.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}
