// Package statestore holds the game document stores: Redis for deployments
// and an in-process store for single-node runs and tests.
package statestore

import (
	"context"
	"fmt"
	"sync"

	"github.com/beka-birhanu/vinom-labyrinth/game"
	"github.com/beka-birhanu/vinom-labyrinth/service/i"
)

var (
	_ i.StateGateway = &MemoryStore{}
	_ i.SessionIndex = &MemoryStore{}
)

// MemoryStore keeps documents in process. Every read and write goes through
// a deep copy so callers never share state with the store.
type MemoryStore struct {
	mu          sync.RWMutex
	games       map[string]*game.GameState
	playerGames map[string]string
	subscribers map[string]map[int]func(*game.GameState)
	nextSubID   int
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		games:       make(map[string]*game.GameState),
		playerGames: make(map[string]string),
		subscribers: make(map[string]map[int]func(*game.GameState)),
	}
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*game.GameState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.games[id]
	if !ok {
		return nil, i.ErrNotFound
	}
	return g.Clone(), nil
}

func (s *MemoryStore) Create(ctx context.Context, g *game.GameState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	if _, ok := s.games[g.ID]; ok {
		s.mu.Unlock()
		return i.ErrAlreadyExists
	}
	stored := g.Clone()
	stored.Version = 1
	s.games[g.ID] = stored
	subs := s.subscribersOf(g.ID)
	s.mu.Unlock()

	g.Version = 1
	notify(subs, stored)
	return nil
}

// RunTransaction runs fn on a copy read before taking the write lock, so a
// commit landing in between is reported as a conflict.
func (s *MemoryStore) RunTransaction(ctx context.Context, id string, fn i.TxFunc) (*game.GameState, error) {
	snapshot, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	readVersion := snapshot.Version
	if err := fn(snapshot); err != nil {
		return nil, err
	}

	s.mu.Lock()
	current, ok := s.games[id]
	if !ok {
		s.mu.Unlock()
		return nil, i.ErrNotFound
	}
	if current.Version != readVersion {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: read version %d, found %d", i.ErrConflict, readVersion, current.Version)
	}
	snapshot.ID = id
	snapshot.Version = readVersion + 1
	s.games[id] = snapshot.Clone()
	subs := s.subscribersOf(id)
	s.mu.Unlock()

	notify(subs, snapshot)
	return snapshot.Clone(), nil
}

func (s *MemoryStore) Update(ctx context.Context, id string, fn i.TxFunc) (*game.GameState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	current, ok := s.games[id]
	if !ok {
		s.mu.Unlock()
		return nil, i.ErrNotFound
	}
	next := current.Clone()
	if err := fn(next); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	next.ID = id
	next.Version = current.Version + 1
	s.games[id] = next.Clone()
	subs := s.subscribersOf(id)
	s.mu.Unlock()

	notify(subs, next)
	return next.Clone(), nil
}

func (s *MemoryStore) Subscribe(ctx context.Context, id string, onChange func(*game.GameState)) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.subscribers[id] == nil {
		s.subscribers[id] = make(map[int]func(*game.GameState))
	}
	subID := s.nextSubID
	s.nextSubID++
	s.subscribers[id][subID] = onChange
	s.mu.Unlock()

	done := make(chan struct{})
	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subscribers[id], subID)
			if len(s.subscribers[id]) == 0 {
				delete(s.subscribers, id)
			}
			s.mu.Unlock()
			close(done)
		})
	}
	go func() {
		select {
		case <-ctx.Done():
			unsubscribe()
		case <-done:
		}
	}()
	return unsubscribe, nil
}

// subscribersOf copies the callbacks of a game. Callers hold s.mu.
func (s *MemoryStore) subscribersOf(id string) []func(*game.GameState) {
	subs := make([]func(*game.GameState), 0, len(s.subscribers[id]))
	for _, fn := range s.subscribers[id] {
		subs = append(subs, fn)
	}
	return subs
}

func notify(subs []func(*game.GameState), g *game.GameState) {
	for _, fn := range subs {
		fn(g.Clone())
	}
}

func (s *MemoryStore) SetPlayerGame(_ context.Context, playerID, gameID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playerGames[playerID] = gameID
	return nil
}

func (s *MemoryStore) PlayerGame(_ context.Context, playerID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	gameID, ok := s.playerGames[playerID]
	if !ok {
		return "", i.ErrNotFound
	}
	return gameID, nil
}

func (s *MemoryStore) ClearPlayerGame(_ context.Context, playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.playerGames, playerID)
	return nil
}
