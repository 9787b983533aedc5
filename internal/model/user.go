package model

import "time"

// User represents an application user record as stored in the `users`
// table.  The password hash never leaves the repository layer in API
// responses; handlers use the PublicUser projection instead.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address, stored lowercase.
//  PasswordHash – bcrypt hashed password.
//  IsSubscribed – whether the user holds an active subscription.
//  CreatedAt    – timestamp of creation (UTC).
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	IsSubscribed bool      // users.is_subscribed
	CreatedAt    time.Time // users.created_at
}

// PublicUser is the credential-free projection of a User returned by
// the API.  It deliberately carries no password material.
type PublicUser struct {
	ID           uint64    `json:"id"`
	Email        string    `json:"email"`
	IsSubscribed bool      `json:"is_subscribed"`
	CreatedAt    time.Time `json:"created_at"`
}

// Public returns the response projection of u.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:           u.ID,
		Email:        u.Email,
		IsSubscribed: u.IsSubscribed,
		CreatedAt:    u.CreatedAt,
	}
}
