package service

import (
	"context"
	"fmt"

	"github.com/beka-birhanu/vinom-labyrinth/game"
	"github.com/google/uuid"
)

const (
	defaultChatHistory = 50
	maxChatHistory     = 200
)

// SendChat posts a message of who to the game chat. Chat is written next to
// the game, never inside its transaction.
func (s *GameService) SendChat(ctx context.Context, gameID string, who game.ActingIdentity, text string) (*game.ChatMessage, error) {
	g, err := s.tx.get(ctx, gameID)
	if err != nil {
		return nil, err
	}
	pid, err := actor(g, who)
	if err != nil {
		return nil, err
	}
	if err := game.CanChat(g, pid); err != nil {
		return nil, err
	}
	text, err = game.NormalizeChatText(text)
	if err != nil {
		return nil, err
	}

	msg := &game.ChatMessage{
		ID:         uuid.NewString(),
		GameID:     gameID,
		SenderID:   pid,
		SenderName: g.DisplayName(pid),
		Text:       text,
		Timestamp:  s.tx.clock(),
	}
	if err := s.notices.post(ctx, msg); err != nil {
		return nil, fmt.Errorf("sending chat to game %s: %w", gameID, err)
	}
	return msg, nil
}

// ChatHistory returns up to limit recent messages, oldest first.
func (s *GameService) ChatHistory(ctx context.Context, gameID string, who game.ActingIdentity, limit int) ([]*game.ChatMessage, error) {
	if _, err := s.State(ctx, gameID, who); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultChatHistory
	}
	limit = min(limit, maxChatHistory)
	return s.chat.Recent(ctx, gameID, limit)
}
