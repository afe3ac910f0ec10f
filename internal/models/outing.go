package models

import "time"

// Outing is a scheduled supervised activity children can be registered for.
// Capacity is the maximum number of signed registrations; nil means
// unlimited. Admins may edit capacity at any time; lowering it never evicts
// already-signed registrations.
type Outing struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	StartsAt    time.Time `db:"starts_at" json:"starts_at"`
	Location    *string   `db:"location" json:"location,omitempty"`
	Description *string   `db:"description" json:"description,omitempty"`
	ImageURL    *string   `db:"image_url" json:"image_url,omitempty"`
	Capacity    *int      `db:"capacity" json:"capacity,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// RegistrationStatus tracks the lifecycle of a child's outing registration.
type RegistrationStatus string

const (
	RegistrationInvited   RegistrationStatus = "invited"
	RegistrationConfirmed RegistrationStatus = "confirmed"
	RegistrationDeclined  RegistrationStatus = "declined"
	RegistrationAttended  RegistrationStatus = "attended"
	RegistrationAbsent    RegistrationStatus = "absent"
)

// Valid returns true when the status is a supported value.
func (s RegistrationStatus) Valid() bool {
	switch s {
	case RegistrationInvited, RegistrationConfirmed, RegistrationDeclined, RegistrationAttended, RegistrationAbsent:
		return true
	default:
		return false
	}
}

// OutingRegistration is the per-child record of invitation/response status
// for one outing, unique on (child, outing). Signature fields are populated
// atomically with the transition to confirmed.
type OutingRegistration struct {
	ID                 string             `db:"id" json:"id"`
	ChildID            string             `db:"child_id" json:"child_id"`
	OutingID           string             `db:"outing_id" json:"outing_id"`
	Status             RegistrationStatus `db:"status" json:"status"`
	Notes              *string            `db:"notes" json:"notes,omitempty"`
	SignedAt           *time.Time         `db:"signed_at" json:"signed_at,omitempty"`
	SignatureName      *string            `db:"signature_name" json:"signature_name,omitempty"`
	SignaturePhone     *string            `db:"signature_phone" json:"signature_phone,omitempty"`
	HealthNotes        *string            `db:"health_notes" json:"health_notes,omitempty"`
	SignatureImage     *string            `db:"signature_image" json:"signature_image,omitempty"`
	SignatureIP        *string            `db:"signature_ip" json:"-"`
	SignatureUserAgent *string            `db:"signature_user_agent" json:"-"`
	CreatedAt          time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time          `db:"updated_at" json:"updated_at"`
}

// Signed reports whether the registration carries a recorded signature.
func (r OutingRegistration) Signed() bool {
	return r.SignedAt != nil
}

// RegistrationDetail joins a registration with its outing and the owning
// parent, for ownership checks and display.
type RegistrationDetail struct {
	OutingRegistration
	ParentProfileID string     `db:"parent_profile_id" json:"-"`
	ChildFirstName  string     `db:"child_first_name" json:"child_first_name"`
	ChildLastName   string     `db:"child_last_name" json:"child_last_name"`
	ChildLevel      string     `db:"child_level" json:"child_level"`
	OutingTitle     string     `db:"outing_title" json:"outing_title"`
	OutingStartsAt  time.Time  `db:"outing_starts_at" json:"outing_starts_at"`
	OutingLocation  *string    `db:"outing_location" json:"outing_location,omitempty"`
	OutingCapacity  *int       `db:"outing_capacity" json:"outing_capacity,omitempty"`
}

// ChildName renders the registered child's full name.
func (d RegistrationDetail) ChildName() string {
	return Child{FirstName: d.ChildFirstName, LastName: d.ChildLastName}.FullName()
}

// Signature carries the consent fields written by a successful sign action.
type Signature struct {
	Name      string
	Phone     string
	Health    *string
	Image     *string
	IP        *string
	UserAgent *string
	SignedAt  time.Time
}

// InvitationOutcome summarises a bulk invitation run.
type InvitationOutcome struct {
	Targets  int `json:"targets"`
	Created  int `json:"created"`
	Skipped  int `json:"skipped"`
	Messages int `json:"messages"`
}

// ReminderOutcome summarises a reminder run over invited registrations.
type ReminderOutcome struct {
	Invited  int `json:"invited"`
	Messages int `json:"messages"`
}
