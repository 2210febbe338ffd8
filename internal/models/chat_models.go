package models

import "time"

// Conversation is a support thread between a customer and the spa.
type Conversation struct {
	ID            int64      `json:"id"`
	CustomerID    int64      `json:"customer_id"`
	CustomerName  string     `json:"customer_name"`
	StaffID       *int64     `json:"staff_id,omitempty"`
	StaffName     *string    `json:"staff_name,omitempty"`
	LastMessage   *string    `json:"last_message,omitempty"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
	UnreadCount   int        `json:"unread_count"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Message is a chat message. Exactly one of the sender ids is set.
type Message struct {
	ID               int64     `json:"id"`
	ConversationID   int64     `json:"conversation_id"`
	SenderCustomerID *int64    `json:"sender_customer_id,omitempty"`
	SenderStaffID    *int64    `json:"sender_staff_id,omitempty"`
	SenderName       string    `json:"sender_name"`
	Body             string    `json:"body"`
	IsRead           bool      `json:"is_read"`
	SentAt           time.Time `json:"sent_at"`
}
