package models

import "time"

// User is an account as stored by the credential store. PasswordHash never
// leaves the server; transport layers map User to their own DTOs.
type User struct {
	ID             string
	UserName       string
	Email          string
	PasswordHash   string
	VideoCount     int64
	FollowerCount  int64
	FollowingCount int64
	CreatedAt      time.Time
}
