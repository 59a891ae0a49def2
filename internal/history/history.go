// Package history persists conversations: chat metadata plus the
// append-only log of turns inside each chat.
package history

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Chiragbhatt711/ai-jarvis/internal/compose"
)

// ErrNotFound is returned when a chat id does not exist.
var ErrNotFound = errors.New("chat not found")

// Chat is conversation metadata. The Title starts empty and is filled in
// once, after the first exchange.
type Chat struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store is the conversation repository. Implementations must be safe for
// concurrent use.
type Store interface {
	// CreateChat creates an empty chat and returns its metadata.
	CreateChat(ctx context.Context) (Chat, error)

	// Chat returns metadata for one chat, or ErrNotFound.
	Chat(ctx context.Context, id uuid.UUID) (Chat, error)

	// ListChats returns all chats, most recently updated first.
	ListChats(ctx context.Context) ([]Chat, error)

	// DeleteChat removes a chat and its turns. Deleting an unknown chat
	// returns ErrNotFound.
	DeleteChat(ctx context.Context, id uuid.UUID) error

	// Turns returns a chat's turns ordered oldest first. An unknown chat
	// yields an empty slice, not an error, so a fresh conversation and a
	// missing one read the same.
	Turns(ctx context.Context, chatID uuid.UUID) ([]compose.Turn, error)

	// AppendTurns appends turns to a chat's log in the given order and
	// bumps the chat's updated_at. The chat must exist.
	AppendTurns(ctx context.Context, chatID uuid.UUID, turns []compose.Turn) error

	// SetTitle sets the chat title if it is still empty. A title already
	// present is kept; the call is then a no-op, not an error.
	SetTitle(ctx context.Context, chatID uuid.UUID, title string) error
}
