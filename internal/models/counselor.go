package models

import (
	"fmt"
	"strings"
	"time"
)

// Counselor represents a member of the counseling staff.
type Counselor struct {
	ID             int64     `db:"id" json:"id"`
	FirstName      string    `db:"first_name" json:"first_name"`
	LastName       string    `db:"last_name" json:"last_name"`
	Email          string    `db:"email" json:"email"`
	PhoneNumber    string    `db:"phone_number" json:"phone_number,omitempty"`
	Specialization string    `db:"specialization" json:"specialization,omitempty"`
	Bio            string    `db:"bio" json:"bio,omitempty"`
	Active         bool      `db:"active" json:"active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// FullName joins first and last name.
func (c Counselor) FullName() string {
	return strings.TrimSpace(fmt.Sprintf("%s %s", c.FirstName, c.LastName))
}

// CounselorFilter describes query params for listing counselors.
type CounselorFilter struct {
	Search    string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
