package service

import (
	"errors"

	"github.com/beka-birhanu/vinom-labyrinth/game"
)

var (
	ErrGameNotFound  = errors.New("game not found")
	ErrTransient     = errors.New("game is busy, try again")
	ErrNoCurrentGame = errors.New("player has no current game")
	ErrAlreadyInGame = errors.New("player is already in a game")
)

// errNoChange aborts a transaction that found nothing to do.
var errNoChange = errors.New("no change")

// IsFatal reports whether the session can no longer act on the game.
func IsFatal(err error) bool {
	return errors.Is(err, ErrGameNotFound) || errors.Is(err, game.ErrGameDisbanded)
}
