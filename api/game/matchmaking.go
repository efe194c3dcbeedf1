// Package gameapi exposes matchmaking and in-game routes.
package gameapi

import (
	"errors"
	"net/http"

	"github.com/beka-birhanu/vinom-labyrinth/api/identity"
	"github.com/beka-birhanu/vinom-labyrinth/game"
	"github.com/beka-birhanu/vinom-labyrinth/service/i"
	"github.com/gin-gonic/gin"
)

// MatchMakingController manages matchmaking operations.
type MatchMakingController struct {
	lobby  i.Lobby
	logger i.Logger
	debug  bool
}

// NewMatchMakingController initializes a MatchMakingController. Debug games
// are only routed when debug is set.
func NewMatchMakingController(lobby i.Lobby, logger i.Logger, debug bool) (*MatchMakingController, error) {
	if lobby == nil || logger == nil {
		return nil, errors.New("lobby and logger are required")
	}
	return &MatchMakingController{
		lobby:  lobby,
		logger: logger,
		debug:  debug,
	}, nil
}

// RegisterPublic registers public routes.
func (mkc *MatchMakingController) RegisterPublic(route *gin.RouterGroup) {}

// RegisterProtected registers protected routes.
func (mkc *MatchMakingController) RegisterProtected(route *gin.RouterGroup) {
	matchMaking := route.Group("/matches")
	{
		matchMaking.POST("", mkc.match)
		matchMaking.DELETE("", mkc.leave)
		matchMaking.GET("/current", mkc.current)
		if mkc.debug {
			matchMaking.POST("/debug", mkc.debugMatch)
		}
	}
}

// match queues the caller.
func (mkc *MatchMakingController) match(ctx *gin.Context) {
	who, request, ok := mkc.bind(ctx, ctx.ShouldBindJSON)
	if !ok {
		return
	}
	if err := mkc.lobby.Enqueue(ctx.Request.Context(), who, request.Mode, request.Type); err != nil {
		writeError(ctx, mkc.logger, err)
		return
	}
	ctx.Status(http.StatusAccepted)
}

// leave takes the caller out of a queue. Mode and type come from the query.
func (mkc *MatchMakingController) leave(ctx *gin.Context) {
	who, request, ok := mkc.bind(ctx, ctx.ShouldBindQuery)
	if !ok {
		return
	}
	if err := mkc.lobby.Leave(ctx.Request.Context(), who, request.Mode, request.Type); err != nil {
		writeError(ctx, mkc.logger, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// current returns the game the caller was last placed in.
func (mkc *MatchMakingController) current(ctx *gin.Context) {
	who, ok := identity.Acting(ctx)
	if !ok {
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	g, err := mkc.lobby.CurrentGame(ctx.Request.Context(), who)
	if err != nil {
		writeError(ctx, mkc.logger, err)
		return
	}
	ctx.JSON(http.StatusOK, g)
}

// debugMatch opens a game whose other seats are generated players.
func (mkc *MatchMakingController) debugMatch(ctx *gin.Context) {
	who, request, ok := mkc.bind(ctx, ctx.ShouldBindJSON)
	if !ok {
		return
	}
	g, err := mkc.lobby.CreateDebugGame(ctx.Request.Context(), who, request.Mode, request.Type)
	if err != nil {
		writeError(ctx, mkc.logger, err)
		return
	}
	ctx.JSON(http.StatusCreated, g)
}

func (mkc *MatchMakingController) bind(ctx *gin.Context, bindFn func(any) error) (game.ActingIdentity, MatchRequest, bool) {
	var request MatchRequest
	who, ok := identity.Acting(ctx)
	if !ok {
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return who, request, false
	}
	if err := bindFn(&request); err != nil {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return who, request, false
	}
	if request.Type == "" {
		request.Type = game.TypeStandard
	}
	return who, request, true
}
