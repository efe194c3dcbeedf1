package service

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"

	"github.com/beka-birhanu/vinom-labyrinth/game"
	"github.com/beka-birhanu/vinom-labyrinth/identity"
	"github.com/beka-birhanu/vinom-labyrinth/service/i"
	"github.com/google/uuid"
)

type nopLogger struct{}

func (nopLogger) Info(string)    {}
func (nopLogger) Warning(string) {}
func (nopLogger) Error(string)   {}

type memChat struct {
	mu   sync.Mutex
	msgs []*game.ChatMessage
}

func (c *memChat) Append(_ context.Context, msg *game.ChatMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	m := *msg
	c.msgs = append(c.msgs, &m)
	return nil
}

func (c *memChat) Recent(_ context.Context, gameID string, limit int) ([]*game.ChatMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*game.ChatMessage
	for _, m := range c.msgs {
		if m.GameID == gameID {
			out = append(out, m)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (c *memChat) texts(gameID string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, m := range c.msgs {
		if m.GameID == gameID {
			out = append(out, m.Text)
		}
	}
	return out
}

type memArchive struct {
	mu    sync.Mutex
	games map[string]*game.GameState
}

func (a *memArchive) Save(_ context.Context, g *game.GameState) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.games[g.ID] = g.Clone()
	return nil
}

func (a *memArchive) ByID(_ context.Context, id string) (*game.GameState, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	g, ok := a.games[id]
	if !ok {
		return nil, errors.New("not archived")
	}
	return g.Clone(), nil
}

func (a *memArchive) has(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.games[id]
	return ok
}

type memUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]*identity.User
}

func (u *memUsers) Save(user *identity.User) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	c := *user
	u.users[user.ID] = &c
	return nil
}

func (u *memUsers) ByID(id uuid.UUID) (*identity.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	user, ok := u.users[id]
	if !ok {
		return nil, errors.New("user not found")
	}
	c := *user
	return &c, nil
}

func (u *memUsers) ByUsername(username string) (*identity.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, user := range u.users {
		if user.Username == username {
			c := *user
			return &c, nil
		}
	}
	return nil, errors.New("user not found")
}

// flakyGateway reports a conflict for the first conflicts transactions.
type flakyGateway struct {
	i.StateGateway
	mu        sync.Mutex
	conflicts int
	calls     int
}

func (f *flakyGateway) RunTransaction(ctx context.Context, id string, fn i.TxFunc) (*game.GameState, error) {
	f.mu.Lock()
	f.calls++
	conflict := f.conflicts > 0
	if conflict {
		f.conflicts--
	}
	f.mu.Unlock()
	if conflict {
		return nil, i.ErrConflict
	}
	return f.StateGateway.RunTransaction(ctx, id, fn)
}

type queued struct {
	score  float64
	member string
}

type memQueue struct {
	mu     sync.Mutex
	queues map[string][]queued
}

func newMemQueue() *memQueue {
	return &memQueue{queues: make(map[string][]queued)}
}

func (q *memQueue) Enqueue(_ context.Context, key string, score float64, member string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if slices.ContainsFunc(q.queues[key], func(e queued) bool { return e.member == member }) {
		return nil
	}
	q.queues[key] = append(q.queues[key], queued{score: score, member: member})
	sort.SliceStable(q.queues[key], func(a, b int) bool { return q.queues[key][a].score < q.queues[key][b].score })
	return nil
}

func (q *memQueue) DequeTops(_ context.Context, key string, amount int64) ([]string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if int64(len(q.queues[key])) < amount {
		return nil, nil
	}
	var out []string
	for _, e := range q.queues[key][:amount] {
		out = append(out, e.member)
	}
	q.queues[key] = q.queues[key][amount:]
	return out, nil
}

func (q *memQueue) Remove(_ context.Context, key string, member string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.queues[key] = slices.DeleteFunc(q.queues[key], func(e queued) bool { return e.member == member })
	return nil
}

func (q *memQueue) Count(_ context.Context, key string) int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.queues[key]))
}
