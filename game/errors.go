package game

import (
	"errors"

	"github.com/beka-birhanu/vinom-labyrinth/game/maze"
)

// Validation errors. They are raised before any write and are never retried.
var (
	ErrNotYourTurn       = errors.New("it is not your turn")
	ErrOutOfBounds       = errors.New("move leaves the maze")
	ErrInBattle          = errors.New("player is in a battle")
	ErrBattleActive      = errors.New("a battle is in progress")
	ErrNoActiveBattle    = errors.New("no active battle")
	ErrNotInBattle       = errors.New("player is not part of the battle")
	ErrInvalidBet        = errors.New("bet must be between 0 and the current score")
	ErrAlreadyBet        = errors.New("bet already placed")
	ErrGameFull          = errors.New("game is full")
	ErrAlreadyJoined     = errors.New("player already joined")
	ErrMazeAlreadySet    = errors.New("maze already submitted")
	ErrTooManyWalls      = errors.New("maze has too many walls")
	ErrInvalidMode       = errors.New("invalid game mode")
	ErrWrongPhase        = errors.New("action not allowed in the current phase")
	ErrAlreadyDeclared   = errors.New("action already declared this round")
	ErrInvalidAction     = errors.New("invalid action")
	ErrNotActionPlayer   = errors.New("it is not your action")
	ErrActionExecuted    = errors.New("action already executed this round")
	ErrUnknownTarget     = errors.New("unknown target player")
	ErrNegotiationClosed = errors.New("negotiation is not pending")
	ErrNotRecipient      = errors.New("only the recipient can answer a negotiation")
	ErrNotAllied         = errors.New("player is not in an alliance")
	ErrChatBlocked       = errors.New("chat is blocked for this player")
	ErrEmptyMessage      = errors.New("message is empty")
	ErrStandardOnly      = errors.New("operation only exists in standard games")
	ErrExtraOnly         = errors.New("operation only exists in extra games")
)

// Lifecycle errors. A disbanded or missing game is fatal to the session.
var (
	ErrGameNotStarted = errors.New("game has not started")
	ErrGameFinished   = errors.New("game is finished")
	ErrGameDisbanded  = errors.New("game was disbanded")
)

// Missing-data errors point at a broken setup upstream.
var (
	ErrPlayerNotInGame = errors.New("player is not part of the game")
	ErrMazeNotAssigned = errors.New("assigned maze not found")
)

var validationErrors = []error{
	ErrNotYourTurn, ErrOutOfBounds, ErrInBattle, ErrBattleActive, ErrNoActiveBattle,
	ErrNotInBattle, ErrInvalidBet, ErrAlreadyBet, ErrGameFull, ErrAlreadyJoined,
	ErrMazeAlreadySet, ErrTooManyWalls, ErrInvalidMode, ErrWrongPhase, ErrAlreadyDeclared,
	ErrInvalidAction, ErrNotActionPlayer, ErrActionExecuted, ErrUnknownTarget,
	ErrNegotiationClosed, ErrNotRecipient, ErrNotAllied, ErrChatBlocked, ErrEmptyMessage,
	ErrStandardOnly, ErrExtraOnly, ErrGameNotStarted, ErrGameFinished,
	maze.ErrInvalidGridSize, maze.ErrGridSizeMismatch, maze.ErrCellOutOfBounds, maze.ErrInvalidWall,
	maze.ErrDuplicateWall, maze.ErrStartIsGoal, maze.ErrUnsolvable, maze.ErrInvalidDirection,
}

// IsValidation reports whether err rejects an action without touching state.
func IsValidation(err error) bool {
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}

// IsMissingData reports whether err signals an invariant broken upstream.
func IsMissingData(err error) bool {
	return errors.Is(err, ErrPlayerNotInGame) || errors.Is(err, ErrMazeNotAssigned)
}
