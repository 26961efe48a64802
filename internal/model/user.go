package model

import "time"

// User represents a row in the `users` table. PasswordHash holds the
// bcrypt digest; the plain password is never stored. Role is one of the
// closed Role constants.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Name         – display name.
//  Email        – unique email address used for login.
//  PasswordHash – bcrypt hashed password.
//  Role         – role assigned at registration (admin, ntc, bus-owner, commuter).
//  CreatedAt    – timestamp of creation.
type User struct {
	ID           uint64    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}
