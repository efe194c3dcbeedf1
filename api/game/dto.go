package gameapi

import (
	"github.com/beka-birhanu/vinom-labyrinth/game"
	"github.com/beka-birhanu/vinom-labyrinth/game/maze"
)

// MatchRequest asks to queue for, or leave, a game of a mode and rule variant.
type MatchRequest struct {
	Mode game.Mode `json:"mode" form:"mode" binding:"required"`
	Type game.Type `json:"gameType" form:"gameType"`
}

// MazeRequest submits a hand-built maze, or asks the server to generate one.
type MazeRequest struct {
	Maze *maze.Maze `json:"maze"`
	Auto bool       `json:"auto"`
}

// MoveRequest moves one cell.
type MoveRequest struct {
	Direction maze.Direction `json:"direction" binding:"required"`
}

// BetRequest places a battle bet. Zero is a valid bet.
type BetRequest struct {
	Amount *int `json:"amount" binding:"required"`
}

// NegotiationReply accepts or rejects a pending negotiation.
type NegotiationReply struct {
	Accept *bool `json:"accept" binding:"required"`
}

// ChatRequest posts a chat line.
type ChatRequest struct {
	Text string `json:"text" binding:"required"`
}

// MoveResponse is the outcome of a move with the committed document.
type MoveResponse struct {
	Outcome game.MoveOutcome `json:"outcome"`
	State   *game.GameState  `json:"state"`
}

// BetResponse is the outcome of a bet with the committed document.
type BetResponse struct {
	Battle game.BattleResult `json:"battle"`
	State  *game.GameState   `json:"state"`
}

// DeclareResponse tells whether the declaration phase ended.
type DeclareResponse struct {
	AllDeclared bool            `json:"allDeclared"`
	State       *game.GameState `json:"state"`
}

// ExecuteResponse is the outcome of an executed extra-mode action.
type ExecuteResponse struct {
	Outcome game.ActionOutcome `json:"outcome"`
	State   *game.GameState    `json:"state"`
}

// BetrayResponse lists the former allies of the betrayer.
type BetrayResponse struct {
	Betrayed []string        `json:"betrayed"`
	State    *game.GameState `json:"state"`
}
