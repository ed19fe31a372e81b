package models

import "time"

// MessageSender identifies who wrote a thread message.
type MessageSender string

const (
	SenderUser  MessageSender = "user"
	SenderAdmin MessageSender = "admin"
)

// Valid reports whether the sender is one of the known parties.
func (s MessageSender) Valid() bool {
	return s == SenderUser || s == SenderAdmin
}

// Message is one entry in a request's conversation.
type Message struct {
	ID        int64         `db:"id" json:"id"`
	RequestID int64         `db:"request_id" json:"request_id"`
	Sender    MessageSender `db:"sender" json:"sender"`
	Content   string        `db:"content" json:"content"`
	Timestamp time.Time     `db:"timestamp" json:"timestamp"`
}

// MessageRequest is the payload for posting to a thread.
type MessageRequest struct {
	RefCode string `form:"ref_code" json:"ref_code"`
	Content string `form:"content" json:"content" validate:"required"`
}
