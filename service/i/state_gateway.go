package i

import (
	"context"
	"errors"

	"github.com/beka-birhanu/vinom-labyrinth/game"
)

// Errors every StateGateway implementation reports.
var (
	ErrConflict      = errors.New("game document changed concurrently")
	ErrNotFound      = errors.New("game not found")
	ErrAlreadyExists = errors.New("game already exists")
)

// TxFunc mutates a private copy of the document. Returning an error aborts
// the transaction without writing.
type TxFunc func(*game.GameState) error

// StateGateway owns the canonical game documents.
type StateGateway interface {
	// Get returns a copy of the current document.
	Get(ctx context.Context, id string) (*game.GameState, error)

	// Create stores a new document at version 1.
	Create(ctx context.Context, g *game.GameState) error

	// RunTransaction reads the document, applies fn and commits only if the
	// version is unchanged, bumping it by one. A concurrent commit yields
	// ErrConflict; callers retry with a fresh read.
	RunTransaction(ctx context.Context, id string, fn TxFunc) (*game.GameState, error)

	// Update applies fn atomically at the store level. It never reports a
	// conflict: the last writer wins.
	Update(ctx context.Context, id string, fn TxFunc) (*game.GameState, error)

	// Subscribe calls onChange with every committed version of the document
	// until the returned function is called or ctx ends.
	Subscribe(ctx context.Context, id string, onChange func(*game.GameState)) (func(), error)
}

// SessionIndex remembers which game a player currently belongs to.
type SessionIndex interface {
	SetPlayerGame(ctx context.Context, playerID, gameID string) error
	PlayerGame(ctx context.Context, playerID string) (string, error)
	ClearPlayerGame(ctx context.Context, playerID string) error
}
