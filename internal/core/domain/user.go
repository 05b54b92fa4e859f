package domain

import "time"

// FederatedCredential is stored in place of a password digest for accounts
// created through an OAuth provider. It never verifies as a bcrypt digest.
const FederatedCredential = "google"

// User is an identity record. Email is the natural key shared by the password
// login and the federated login.
type User struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Credential string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// HasLocalPassword reports whether the account can sign in with a password.
func (u *User) HasLocalPassword() bool {
	return u != nil && u.Credential != "" && u.Credential != FederatedCredential
}

// Principal returns the session projection of u.
func (u *User) Principal() *Principal {
	if u == nil {
		return nil
	}
	return &Principal{ID: u.ID, Email: u.Email}
}

// Principal is the part of a User trusted inside a session.
type Principal struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}
