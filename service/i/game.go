package i

import (
	"context"

	"github.com/beka-birhanu/vinom-labyrinth/game"
	"github.com/beka-birhanu/vinom-labyrinth/game/maze"
)

// Lobby places players into games and prepares them for play.
type Lobby interface {
	Enqueue(ctx context.Context, who game.ActingIdentity, mode game.Mode, typ game.Type) error
	Leave(ctx context.Context, who game.ActingIdentity, mode game.Mode, typ game.Type) error
	CreateDebugGame(ctx context.Context, who game.ActingIdentity, mode game.Mode, typ game.Type) (*game.GameState, error)
	CurrentGame(ctx context.Context, who game.ActingIdentity) (*game.GameState, error)
	SubmitMaze(ctx context.Context, gameID string, who game.ActingIdentity, m *maze.Maze) (*game.GameState, error)
	GenerateMaze(ctx context.Context, gameID string, who game.ActingIdentity) (*game.GameState, error)
}

// GamePlay runs in-game operations on behalf of a player.
type GamePlay interface {
	State(ctx context.Context, gameID string, who game.ActingIdentity) (*game.GameState, error)
	Subscribe(ctx context.Context, gameID string, who game.ActingIdentity,
		onState func(*game.GameState), onChat func(*game.ChatMessage)) (func(), error)

	Move(ctx context.Context, gameID string, who game.ActingIdentity, d maze.Direction) (game.MoveOutcome, error)
	Bet(ctx context.Context, gameID string, who game.ActingIdentity, amount int) (game.BattleResult, error)

	Declare(ctx context.Context, gameID string, who game.ActingIdentity, a game.Action) (bool, error)
	Execute(ctx context.Context, gameID string, who game.ActingIdentity) (game.ActionOutcome, error)
	RespondNegotiation(ctx context.Context, gameID string, who game.ActingIdentity, negotiationID string, accept bool) (*game.Alliance, error)
	Betray(ctx context.Context, gameID string, who game.ActingIdentity) ([]string, error)

	Exit(ctx context.Context, gameID string, who game.ActingIdentity) (*game.GameState, error)

	SendChat(ctx context.Context, gameID string, who game.ActingIdentity, text string) (*game.ChatMessage, error)
	ChatHistory(ctx context.Context, gameID string, who game.ActingIdentity, limit int) ([]*game.ChatMessage, error)
}
