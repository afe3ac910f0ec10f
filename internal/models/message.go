package models

import "time"

// MessageSender identifies which side of the conversation wrote a message.
type MessageSender string

const (
	SenderStaff  MessageSender = "staff"
	SenderParent MessageSender = "parent"
)

// Message is an outbound or inbound note attached to a child.
type Message struct {
	ID        string        `db:"id" json:"id"`
	ChildID   string        `db:"child_id" json:"child_id"`
	Sender    MessageSender `db:"sender" json:"sender"`
	Subject   string        `db:"subject" json:"subject"`
	Body      string        `db:"body" json:"body"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
	ReadAt    *time.Time    `db:"read_at" json:"read_at,omitempty"`
}
