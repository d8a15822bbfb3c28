package store

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

type User struct {
	ID           string      `json:"id"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"` // Do not expose this in JSON responses
	DisplayName  string      `json:"display_name"`
	Phone        string      `json:"phone"`
	Pincode      string      `json:"pincode"`
	CreatedAt    time.Time   `json:"created_at"`
	ChatHistory  []ChatEntry `json:"chat_history"`
}

// ChatEntry is one persisted exchange. Entries are only ever appended.
type ChatEntry struct {
	UserMessage string    `json:"user_message"`
	AIResponse  string    `json:"ai_response"`
	Timestamp   time.Time `json:"timestamp"`
}

// UserFields is a partial profile update; nil fields are left untouched.
type UserFields struct {
	DisplayName *string
	Phone       *string
	Pincode     *string
}

type AnalyticsRecord struct {
	CompanyName string    `json:"company_name"`
	Industry    string    `json:"industry"`
	Revenue     string    `json:"revenue"`
	Expenses    string    `json:"expenses"`
	Profit      string    `json:"profit"`
	Timestamp   time.Time `json:"timestamp"`
}

// Store is the keyed user-record store behind accounts and chat history.
// Get methods return (nil, nil) when the record does not exist.
type Store interface {
	CreateUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	UpdateUser(ctx context.Context, id string, fields UserFields) error
	AppendChat(ctx context.Context, userID, userMessage, aiResponse string) error
	ChatHistory(ctx context.Context, userID string) ([]ChatEntry, error)
	RecordAnalytics(ctx context.Context, rec AnalyticsRecord) error
	Close() error
}
