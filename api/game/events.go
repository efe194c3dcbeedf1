package gameapi

import (
	"io"
	"time"

	"github.com/beka-birhanu/vinom-labyrinth/game"
	"github.com/gin-gonic/gin"
)

// Event names on a game stream.
const (
	EventState = "state"
	EventChat  = "chat"
	EventPing  = "ping"
)

const chatBuffer = 32

// events streams a game as server-sent events: the current document first,
// then every committed document and chat line. The stream ends once a
// terminal document is sent or the client goes away.
func (gc *GameController) events(ctx *gin.Context) {
	who, ok := gc.acting(ctx)
	if !ok {
		return
	}
	id := ctx.Param("id")
	reqCtx := ctx.Request.Context()

	states := make(chan *game.GameState, 1)
	chats := make(chan *game.ChatMessage, chatBuffer)
	stop, err := gc.play.Subscribe(reqCtx, id, who,
		func(g *game.GameState) { offerLatest(states, g) },
		func(m *game.ChatMessage) {
			select {
			case chats <- m:
			default:
				gc.logger.Warning("chat stream of game " + id + " is behind, dropping a line")
			}
		})
	if err != nil {
		writeError(ctx, gc.logger, err)
		return
	}
	defer stop()

	current, err := gc.play.State(reqCtx, id, who)
	if err != nil {
		writeError(ctx, gc.logger, err)
		return
	}

	ctx.Header("Content-Type", "text/event-stream")
	ctx.Header("Cache-Control", "no-cache")
	ctx.Header("Connection", "keep-alive")
	ctx.Header("X-Accel-Buffering", "no")

	ctx.SSEvent(EventState, current)
	ctx.Writer.Flush()
	if current.Status.Terminal() {
		return
	}

	lastVersion := current.Version
	ticker := time.NewTicker(gc.heartbeat)
	defer ticker.Stop()

	ctx.Stream(func(w io.Writer) bool {
		select {
		case <-reqCtx.Done():
			return false
		case g := <-states:
			if g.Version <= lastVersion {
				return true
			}
			lastVersion = g.Version
			ctx.SSEvent(EventState, g)
			return !g.Status.Terminal()
		case m := <-chats:
			ctx.SSEvent(EventChat, m)
			return true
		case t := <-ticker.C:
			ctx.SSEvent(EventPing, t.UTC().Format(time.RFC3339))
			return true
		}
	})
}

// offerLatest leaves the newest of g and any unread document in ch.
func offerLatest(ch chan *game.GameState, g *game.GameState) {
	for {
		select {
		case ch <- g:
			return
		default:
		}
		select {
		case old := <-ch:
			if old.Version > g.Version {
				g = old
			}
		default:
		}
	}
}
