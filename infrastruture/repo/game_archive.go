package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/beka-birhanu/vinom-labyrinth/game"
	"github.com/beka-birhanu/vinom-labyrinth/service/i"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrGameNotArchived = errors.New("game not archived")

var _ i.GameArchive = &GameArchiveRepo{}

// GameArchiveRepo keeps finished and disbanded games once their live copy
// is gone.
type GameArchiveRepo struct {
	collection *mongo.Collection
}

// NewGameArchiveRepo creates a GameArchiveRepo over the given collection.
func NewGameArchiveRepo(client *mongo.Client, dbName, collectionName string) *GameArchiveRepo {
	return &GameArchiveRepo{collection: client.Database(dbName).Collection(collectionName)}
}

// Save upserts the document; archiving the same game twice keeps the latest copy.
func (r *GameArchiveRepo) Save(ctx context.Context, g *game.GameState) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, bson.M{"_id": g.ID}, g, opts); err != nil {
		return fmt.Errorf("archiving game %s: %w", g.ID, err)
	}
	return nil
}

func (r *GameArchiveRepo) ByID(ctx context.Context, id string) (*game.GameState, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	var g game.GameState
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&g); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrGameNotArchived
		}
		return nil, fmt.Errorf("reading archived game %s: %w", id, err)
	}
	return &g, nil
}
