package gameapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/beka-birhanu/vinom-labyrinth/game"
	"github.com/beka-birhanu/vinom-labyrinth/service"
	"github.com/beka-birhanu/vinom-labyrinth/service/i"
	"github.com/gin-gonic/gin"
)

// statusClientClosedRequest is reported when the caller went away mid-request.
const statusClientClosedRequest = 499

const rematchHint = "return to matchmaking"

// conflicts are validation errors caused by the game having moved on, as
// opposed to a malformed request.
var conflicts = []error{
	game.ErrNotYourTurn, game.ErrInBattle, game.ErrBattleActive, game.ErrNoActiveBattle,
	game.ErrAlreadyBet, game.ErrGameFull, game.ErrAlreadyJoined, game.ErrMazeAlreadySet,
	game.ErrWrongPhase, game.ErrAlreadyDeclared, game.ErrNotActionPlayer, game.ErrActionExecuted,
	game.ErrNegotiationClosed, game.ErrChatBlocked, game.ErrGameNotStarted, game.ErrGameFinished,
	service.ErrAlreadyInGame,
}

func isConflict(err error) bool {
	for _, c := range conflicts {
		if errors.Is(err, c) {
			return true
		}
	}
	return false
}

// statusOf maps a service error to an HTTP status.
func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrGameNotFound), errors.Is(err, service.ErrNoCurrentGame):
		return http.StatusNotFound
	case errors.Is(err, game.ErrGameDisbanded):
		return http.StatusGone
	case errors.Is(err, service.ErrTransient):
		return http.StatusServiceUnavailable
	case game.IsMissingData(err), isConflict(err):
		return http.StatusConflict
	case game.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// writeError aborts the request with the status of err. Internal failures are
// logged and hidden from the client.
func writeError(ctx *gin.Context, logger i.Logger, err error) {
	status := statusOf(err)
	body := gin.H{"error": err.Error()}
	switch {
	case status == http.StatusInternalServerError:
		logger.Error(fmt.Sprintf("%s %s: %s", ctx.Request.Method, ctx.FullPath(), err))
		body = gin.H{"error": "internal error"}
	case game.IsMissingData(err):
		body["hint"] = rematchHint
	case service.IsFatal(err):
		body["fatal"] = true
	}
	ctx.AbortWithStatusJSON(status, body)
}
