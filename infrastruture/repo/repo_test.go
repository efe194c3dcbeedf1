package repo

import (
	"context"
	"testing"
	"time"

	"github.com/beka-birhanu/vinom-labyrinth/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func chatDoc(id string, at time.Time, text string) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "gameId", Value: "g1"},
		{Key: "senderId", Value: "A"},
		{Key: "senderName", Value: "Alice"},
		{Key: "text", Value: text},
		{Key: "timestamp", Value: at},
	}
}

func TestChatRepo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("append", func(mt *mtest.T) {
		r := NewChatRepo(mt.Client, mt.DB.Name(), mt.Coll.Name())
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		err := r.Append(context.Background(), &game.ChatMessage{ID: "m1", GameID: "g1", Text: "hi", Timestamp: t0})
		assert.NoError(mt, err)
	})

	mt.Run("append failure is wrapped", func(mt *mtest.T) {
		r := NewChatRepo(mt.Client, mt.DB.Name(), mt.Coll.Name())
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key"}))

		err := r.Append(context.Background(), &game.ChatMessage{ID: "m1", GameID: "g1", Text: "hi", Timestamp: t0})
		assert.ErrorContains(mt, err, "game g1")
	})

	mt.Run("recent is oldest first", func(mt *mtest.T) {
		r := NewChatRepo(mt.Client, mt.DB.Name(), mt.Coll.Name())
		ns := mt.DB.Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
				chatDoc("m2", t0.Add(time.Second), "second"),
				chatDoc("m1", t0, "first"),
			),
		)

		msgs, err := r.Recent(context.Background(), "g1", 2)
		require.NoError(mt, err)
		require.Len(mt, msgs, 2)
		assert.Equal(mt, "first", msgs[0].Text)
		assert.Equal(mt, "second", msgs[1].Text)
		assert.True(mt, t0.Equal(msgs[0].Timestamp))
	})
}

func TestGameArchiveRepo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("save", func(mt *mtest.T) {
		r := NewGameArchiveRepo(mt.Client, mt.DB.Name(), mt.Coll.Name())
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		g, err := game.NewGame("g1", game.ModeTwoPlayer, game.TypeStandard, "A", "Alice", t0)
		require.NoError(mt, err)
		assert.NoError(mt, r.Save(context.Background(), g))
	})

	mt.Run("missing game", func(mt *mtest.T) {
		r := NewGameArchiveRepo(mt.Client, mt.DB.Name(), mt.Coll.Name())
		ns := mt.DB.Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := r.ByID(context.Background(), "nope")
		assert.ErrorIs(mt, err, ErrGameNotArchived)
	})

	mt.Run("found game", func(mt *mtest.T) {
		r := NewGameArchiveRepo(mt.Client, mt.DB.Name(), mt.Coll.Name())
		ns := mt.DB.Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "g1"},
			{Key: "status", Value: "finished"},
			{Key: "players", Value: bson.A{"A", "B"}},
		}))

		g, err := r.ByID(context.Background(), "g1")
		require.NoError(mt, err)
		assert.Equal(mt, game.StatusFinished, g.Status)
		assert.Equal(mt, []string{"A", "B"}, g.Players)
	})
}

func TestUserRepoNotFound(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("by username", func(mt *mtest.T) {
		r := NewUserRepo(mt.Client, mt.DB.Name(), mt.Coll.Name())
		ns := mt.DB.Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := r.ByUsername("ghost")
		assert.ErrorIs(mt, err, ErrUserNotFound)
	})
}
