package i

import (
	"context"

	"github.com/beka-birhanu/vinom-labyrinth/game"
	"github.com/beka-birhanu/vinom-labyrinth/identity"
	"github.com/google/uuid"
)

// UserRepo defines the interface for user persistence operations.
type UserRepo interface {
	// Save inserts or updates a user in the repository.
	// If the user already exists, it updates the record. Otherwise, it creates a new one.
	Save(user *identity.User) error

	// ByID retrieves a user by their unique ID.
	// Returns an error if the user is not found or in case of an unexpected error.
	ByID(id uuid.UUID) (*identity.User, error)

	// ByUsername retrieves a user by their username.
	// Returns an error if the user is not found or in case of an unexpected error.
	ByUsername(username string) (*identity.User, error)
}

// ChatLog stores game chat. It is never part of a game transaction.
type ChatLog interface {
	Append(ctx context.Context, msg *game.ChatMessage) error
	// Recent returns up to limit latest messages, oldest first.
	Recent(ctx context.Context, gameID string, limit int) ([]*game.ChatMessage, error)
}

// GameArchive keeps terminal game documents after the live copy expires.
type GameArchive interface {
	Save(ctx context.Context, g *game.GameState) error
	ByID(ctx context.Context, id string) (*game.GameState, error)
}
