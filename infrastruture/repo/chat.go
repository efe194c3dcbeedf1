package repo

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/beka-birhanu/vinom-labyrinth/game"
	"github.com/beka-birhanu/vinom-labyrinth/service/i"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var _ i.ChatLog = &ChatRepo{}

// ChatRepo stores chat lines, one document per message.
type ChatRepo struct {
	collection *mongo.Collection
	timeout    time.Duration
}

// NewChatRepo creates a ChatRepo over the given collection.
func NewChatRepo(client *mongo.Client, dbName, collectionName string) *ChatRepo {
	return &ChatRepo{
		collection: client.Database(dbName).Collection(collectionName),
		timeout:    2 * time.Second,
	}
}

// EnsureIndexes creates the index used by Recent.
func (r *ChatRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "gameId", Value: 1}, {Key: "timestamp", Value: -1}},
	})
	return err
}

func (r *ChatRepo) Append(ctx context.Context, msg *game.ChatMessage) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if _, err := r.collection.InsertOne(ctx, msg); err != nil {
		return fmt.Errorf("appending chat message to game %s: %w", msg.GameID, err)
	}
	return nil
}

// Recent fetches the latest limit messages and returns them oldest first.
func (r *ChatRepo) Recent(ctx context.Context, gameID string, limit int) ([]*game.ChatMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, bson.M{"gameId": gameID}, opts)
	if err != nil {
		return nil, fmt.Errorf("reading chat of game %s: %w", gameID, err)
	}

	messages := []*game.ChatMessage{}
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("decoding chat of game %s: %w", gameID, err)
	}
	slices.Reverse(messages)
	return messages, nil
}
