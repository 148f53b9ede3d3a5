package models

import "time"

type User struct {
	ID         int    `json:"id"`
	FullName   string `json:"fullName"`
	Email      string `json:"email"`
	Password   string `json:"-"`
	ProfilePic string `json:"profilePic,omitempty"`
}

// Message is immutable once persisted. At least one of Text/Image is set.
type Message struct {
	ID         int       `json:"id"`
	SenderID   int       `json:"senderId"`
	ReceiverID int       `json:"receiverId"`
	Text       string    `json:"text,omitempty"`
	Image      string    `json:"image,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}
