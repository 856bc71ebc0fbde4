package models

import "time"

type SignupRequest struct {
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,max=72"`
}

// User is a dashboard account. Tracked visitors are not users.
type User struct {
	ID             int       `json:"user_id"`
	Email          string    `json:"user_email"`
	HashedPassword []byte    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Profile is what /profile reports about the caller. UserID is zero when the
// request was authorized with the static API key.
type Profile struct {
	UserID    int    `json:"user_id"`
	UserEmail string `json:"user_email"`
	APIKey    bool   `json:"api_key"`
	IPAddress string `json:"ip_address"`
}
