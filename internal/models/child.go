package models

import "time"

// Child belongs to a ParentProfile. Created at registration, approved or
// rejected by an admin, deleted only by cascade from parent removal.
type Child struct {
	ID                    string     `db:"id" json:"id"`
	ParentProfileID       string     `db:"parent_profile_id" json:"parent_profile_id"`
	FirstName             string     `db:"first_name" json:"first_name"`
	LastName              string     `db:"last_name" json:"last_name"`
	DateOfBirth           *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Level                 string     `db:"level" json:"level"`
	School                *string    `db:"school" json:"school,omitempty"`
	Notes                 *string    `db:"notes" json:"notes,omitempty"`
	Approved              bool       `db:"is_approved" json:"is_approved"`
	MayLeaveUnaccompanied bool       `db:"may_leave_unaccompanied" json:"may_leave_unaccompanied"`
	CreatedAt             time.Time  `db:"created_at" json:"created_at"`
}

// FullName renders "First Last" for messages and attestations.
func (c Child) FullName() string {
	name := c.FirstName
	if c.LastName != "" {
		if name != "" {
			name += " "
		}
		name += c.LastName
	}
	return name
}

// ChildFilter narrows the validated-children lookup used by invitations and
// the attendance roster.
type ChildFilter struct {
	Levels   []string
	ChildIDs []string
}
