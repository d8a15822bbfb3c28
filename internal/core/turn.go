package core

import (
	"time"

	"github.com/google/uuid"
)

type Author string

const (
	AuthorUser      Author = "user"
	AuthorAssistant Author = "assistant"
)

// Turn is one message in a conversation. Turns are never modified after creation.
type Turn struct {
	ID        string    `json:"id"`
	Author    Author    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

func newTurn(author Author, text string, at time.Time) Turn {
	return Turn{
		ID:        uuid.NewString(),
		Author:    author,
		Text:      text,
		CreatedAt: at,
	}
}
