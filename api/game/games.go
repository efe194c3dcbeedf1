package gameapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/beka-birhanu/vinom-labyrinth/api/identity"
	"github.com/beka-birhanu/vinom-labyrinth/game"
	"github.com/beka-birhanu/vinom-labyrinth/service/i"
	"github.com/gin-gonic/gin"
)

const defaultHeartbeat = 15 * time.Second

// GameController serves in-game operations of a single game.
type GameController struct {
	play      i.GamePlay
	lobby     i.Lobby
	logger    i.Logger
	heartbeat time.Duration
}

// GameControllerConfig wires a GameController.
type GameControllerConfig struct {
	Play      i.GamePlay
	Lobby     i.Lobby
	Logger    i.Logger
	Heartbeat time.Duration // interval of keep-alive events on the stream
}

// NewGameController creates a GameController.
func NewGameController(c GameControllerConfig) (*GameController, error) {
	if c.Play == nil || c.Lobby == nil || c.Logger == nil {
		return nil, errors.New("play, lobby and logger are required")
	}
	if c.Heartbeat <= 0 {
		c.Heartbeat = defaultHeartbeat
	}
	return &GameController{play: c.Play, lobby: c.Lobby, logger: c.Logger, heartbeat: c.Heartbeat}, nil
}

// RegisterPublic registers public routes.
func (gc *GameController) RegisterPublic(route *gin.RouterGroup) {}

// RegisterProtected registers protected routes.
func (gc *GameController) RegisterProtected(route *gin.RouterGroup) {
	games := route.Group("/games/:id")
	{
		games.GET("", gc.state)
		games.GET("/events", gc.events)
		games.POST("/mazes", gc.submitMaze)
		games.POST("/moves", gc.move)
		games.POST("/bets", gc.bet)
		games.POST("/declarations", gc.declare)
		games.POST("/execute", gc.execute)
		games.POST("/negotiations/:nid", gc.respondNegotiation)
		games.POST("/betray", gc.betray)
		games.POST("/exit", gc.exit)
		games.GET("/chat", gc.chatHistory)
		games.POST("/chat", gc.sendChat)
	}
}

func (gc *GameController) acting(ctx *gin.Context) (game.ActingIdentity, bool) {
	who, ok := identity.Acting(ctx)
	if !ok {
		ctx.AbortWithStatus(http.StatusUnauthorized)
	}
	return who, ok
}

// bindJSON decodes the body into v and reports a 400 on failure.
func bindJSON(ctx *gin.Context, v any) bool {
	if err := ctx.ShouldBindJSON(v); err != nil {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

func (gc *GameController) state(ctx *gin.Context) {
	who, ok := gc.acting(ctx)
	if !ok {
		return
	}
	g, err := gc.play.State(ctx.Request.Context(), ctx.Param("id"), who)
	if err != nil {
		writeError(ctx, gc.logger, err)
		return
	}
	ctx.JSON(http.StatusOK, g)
}

// submitMaze stores the caller's maze, or a generated one when auto is set.
func (gc *GameController) submitMaze(ctx *gin.Context) {
	who, ok := gc.acting(ctx)
	if !ok {
		return
	}
	var request MazeRequest
	if !bindJSON(ctx, &request) {
		return
	}

	var g *game.GameState
	var err error
	switch {
	case request.Auto:
		g, err = gc.lobby.GenerateMaze(ctx.Request.Context(), ctx.Param("id"), who)
	case request.Maze != nil:
		g, err = gc.lobby.SubmitMaze(ctx.Request.Context(), ctx.Param("id"), who, request.Maze)
	default:
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "either maze or auto is required"})
		return
	}
	if err != nil {
		writeError(ctx, gc.logger, err)
		return
	}
	ctx.JSON(http.StatusOK, g)
}

func (gc *GameController) move(ctx *gin.Context) {
	who, ok := gc.acting(ctx)
	if !ok {
		return
	}
	var request MoveRequest
	if !bindJSON(ctx, &request) {
		return
	}
	id := ctx.Param("id")
	outcome, err := gc.play.Move(ctx.Request.Context(), id, who, request.Direction)
	if err != nil {
		writeError(ctx, gc.logger, err)
		return
	}
	gc.respond(ctx, id, who, func(g *game.GameState) any {
		return &MoveResponse{Outcome: outcome, State: g}
	})
}

func (gc *GameController) bet(ctx *gin.Context) {
	who, ok := gc.acting(ctx)
	if !ok {
		return
	}
	var request BetRequest
	if !bindJSON(ctx, &request) {
		return
	}
	id := ctx.Param("id")
	result, err := gc.play.Bet(ctx.Request.Context(), id, who, *request.Amount)
	if err != nil {
		writeError(ctx, gc.logger, err)
		return
	}
	gc.respond(ctx, id, who, func(g *game.GameState) any {
		return &BetResponse{Battle: result, State: g}
	})
}

func (gc *GameController) declare(ctx *gin.Context) {
	who, ok := gc.acting(ctx)
	if !ok {
		return
	}
	var action game.Action
	if !bindJSON(ctx, &action) {
		return
	}
	id := ctx.Param("id")
	allDeclared, err := gc.play.Declare(ctx.Request.Context(), id, who, action)
	if err != nil {
		writeError(ctx, gc.logger, err)
		return
	}
	gc.respond(ctx, id, who, func(g *game.GameState) any {
		return &DeclareResponse{AllDeclared: allDeclared, State: g}
	})
}

func (gc *GameController) execute(ctx *gin.Context) {
	who, ok := gc.acting(ctx)
	if !ok {
		return
	}
	id := ctx.Param("id")
	outcome, err := gc.play.Execute(ctx.Request.Context(), id, who)
	if err != nil {
		writeError(ctx, gc.logger, err)
		return
	}
	gc.respond(ctx, id, who, func(g *game.GameState) any {
		return &ExecuteResponse{Outcome: outcome, State: g}
	})
}

func (gc *GameController) respondNegotiation(ctx *gin.Context) {
	who, ok := gc.acting(ctx)
	if !ok {
		return
	}
	var request NegotiationReply
	if !bindJSON(ctx, &request) {
		return
	}
	alliance, err := gc.play.RespondNegotiation(ctx.Request.Context(), ctx.Param("id"), who, ctx.Param("nid"), *request.Accept)
	if err != nil {
		writeError(ctx, gc.logger, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"alliance": alliance})
}

func (gc *GameController) betray(ctx *gin.Context) {
	who, ok := gc.acting(ctx)
	if !ok {
		return
	}
	id := ctx.Param("id")
	betrayed, err := gc.play.Betray(ctx.Request.Context(), id, who)
	if err != nil {
		writeError(ctx, gc.logger, err)
		return
	}
	gc.respond(ctx, id, who, func(g *game.GameState) any {
		return &BetrayResponse{Betrayed: betrayed, State: g}
	})
}

func (gc *GameController) exit(ctx *gin.Context) {
	who, ok := gc.acting(ctx)
	if !ok {
		return
	}
	g, err := gc.play.Exit(ctx.Request.Context(), ctx.Param("id"), who)
	if err != nil {
		writeError(ctx, gc.logger, err)
		return
	}
	ctx.JSON(http.StatusOK, g)
}

func (gc *GameController) chatHistory(ctx *gin.Context) {
	who, ok := gc.acting(ctx)
	if !ok {
		return
	}
	limit := 0
	if raw := ctx.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}
	messages, err := gc.play.ChatHistory(ctx.Request.Context(), ctx.Param("id"), who, limit)
	if err != nil {
		writeError(ctx, gc.logger, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"messages": messages})
}

func (gc *GameController) sendChat(ctx *gin.Context) {
	who, ok := gc.acting(ctx)
	if !ok {
		return
	}
	var request ChatRequest
	if !bindJSON(ctx, &request) {
		return
	}
	msg, err := gc.play.SendChat(ctx.Request.Context(), ctx.Param("id"), who, request.Text)
	if err != nil {
		writeError(ctx, gc.logger, err)
		return
	}
	ctx.JSON(http.StatusCreated, msg)
}

// respond attaches the latest document to a committed outcome. The action
// already landed, so a failed re-read only drops the state from the body.
func (gc *GameController) respond(ctx *gin.Context, id string, who game.ActingIdentity, build func(*game.GameState) any) {
	g, err := gc.play.State(ctx.Request.Context(), id, who)
	if err != nil {
		gc.logger.Warning("reading game " + id + " after commit: " + err.Error())
		g = nil
	}
	ctx.JSON(http.StatusOK, build(g))
}
