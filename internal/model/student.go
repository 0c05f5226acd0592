package model

import "time"

// Student is a roster entry. The roster itself is maintained elsewhere in the
// academy system; this service only reads it to match claimed identities.
type Student struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateStudentRequest is the payload for adding a roster entry (seeding).
type CreateStudentRequest struct {
	Name  string `json:"name" binding:"required,min=1,max=100"`
	Phone string `json:"phone" binding:"required,min=4,max=32"`
}
