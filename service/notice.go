package service

import (
	"context"
	"fmt"
	"time"

	"github.com/beka-birhanu/vinom-labyrinth/game"
	"github.com/beka-birhanu/vinom-labyrinth/service/i"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

const systemSenderName = "System"

// ChatTopic is the event bus topic carrying a game's chat.
func ChatTopic(gameID string) string {
	return "chat:" + gameID
}

// notifier writes chat lines to the log and fans them out on the bus. It is
// never part of a game transaction.
type notifier struct {
	chat   i.ChatLog
	bus    i.EventBus
	logger i.Logger
	now    func() time.Time
}

func (n *notifier) post(ctx context.Context, msg *game.ChatMessage) error {
	if err := n.chat.Append(ctx, msg); err != nil {
		return err
	}
	payload, err := bson.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encoding chat message: %w", err)
	}
	if err := n.bus.Publish(ctx, ChatTopic(msg.GameID), payload); err != nil {
		n.logger.Warning(fmt.Sprintf("publishing chat of game %s: %s", msg.GameID, err))
	}
	return nil
}

// system posts an engine notice. Failures are logged, never returned.
func (n *notifier) system(ctx context.Context, gameID, format string, args ...any) {
	msg := &game.ChatMessage{
		ID:         uuid.NewString(),
		GameID:     gameID,
		SenderID:   game.SystemSenderID,
		SenderName: systemSenderName,
		Text:       fmt.Sprintf(format, args...),
		Timestamp:  n.now().UTC().Truncate(time.Millisecond),
	}
	if err := n.post(ctx, msg); err != nil {
		n.logger.Error(fmt.Sprintf("posting notice to game %s: %s", gameID, err))
	}
}

func decodeChat(payload []byte) (*game.ChatMessage, error) {
	var msg game.ChatMessage
	if err := bson.Unmarshal(payload, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
