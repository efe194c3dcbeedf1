package game

import "time"

// BattleWinner is the outcome of comparing two bets.
type BattleWinner int

const (
	BattleTie BattleWinner = iota
	BattleFirstWins
	BattleSecondWins
)

// Resolve compares the bets of player1 and player2. The higher bet wins.
func Resolve(bet1, bet2 int) BattleWinner {
	switch {
	case bet1 > bet2:
		return BattleFirstWins
	case bet2 > bet1:
		return BattleSecondWins
	default:
		return BattleTie
	}
}

// BattleResult reports a bet and, when both bets are in, the resolution.
type BattleResult struct {
	Resolved         bool   `json:"resolved"`
	Player1          string `json:"player1"`
	Player2          string `json:"player2"`
	Bet1             int    `json:"bet1"`
	Bet2             int    `json:"bet2"`
	Winner           string `json:"winner,omitempty"`
	Loser            string `json:"loser,omitempty"`
	Tie              bool   `json:"tie"`
	NextTurnPlayerID string `json:"nextTurnPlayerId,omitempty"`
	Finished         bool   `json:"finished"`
}

// startBattle puts mover and defender into a betting battle.
func (g *GameState) startBattle(mover, defender string, now time.Time) {
	g.ActiveBattle = &Battle{
		Player1:   mover,
		Player2:   defender,
		StartTime: now,
		Status:    BattleBetting,
	}
	g.PlayerStates[mover].InBattleWith = defender
	g.PlayerStates[defender].InBattleWith = mover
}

// PlaceBet records a bet of playerID and debits it at once. The battle is
// resolved in the same call when the opponent has already bet.
func PlaceBet(g *GameState, playerID string, amount int, now time.Time) (BattleResult, error) {
	if err := g.ensurePlaying(); err != nil {
		return BattleResult{}, err
	}
	if g.ActiveBattle == nil {
		return BattleResult{}, ErrNoActiveBattle
	}
	if !g.ActiveBattle.Involves(playerID) {
		return BattleResult{}, ErrNotInBattle
	}
	ps, err := g.Player(playerID)
	if err != nil {
		return BattleResult{}, err
	}
	if ps.BattleBet != nil {
		return BattleResult{}, ErrAlreadyBet
	}
	if amount < 0 || amount > ps.Score {
		return BattleResult{}, ErrInvalidBet
	}

	bet := amount
	ps.BattleBet = &bet
	ps.Score -= amount

	return ResolveBattle(g, now), nil
}

// ResolveBattle settles the active battle once both bets are present. It is
// a no-op when no battle is active or a bet is still missing, so every
// writer observing both bets may call it.
func ResolveBattle(g *GameState, now time.Time) BattleResult {
	b := g.ActiveBattle
	if b == nil {
		return BattleResult{}
	}
	p1, p2 := g.PlayerStates[b.Player1], g.PlayerStates[b.Player2]
	res := BattleResult{Player1: b.Player1, Player2: b.Player2}
	if p1 == nil || p2 == nil || p1.BattleBet == nil || p2.BattleBet == nil {
		return res
	}
	res.Bet1, res.Bet2 = *p1.BattleBet, *p2.BattleBet

	switch Resolve(res.Bet1, res.Bet2) {
	case BattleFirstWins:
		res.Winner, res.Loser = b.Player1, b.Player2
		p1.Score += battleWinBonus
		p2.SkipNextTurn = true
	case BattleSecondWins:
		res.Winner, res.Loser = b.Player2, b.Player1
		p2.Score += battleWinBonus
		p1.SkipNextTurn = true
	default:
		res.Tie = true
	}

	for _, ps := range []*PlayerState{p1, p2} {
		ps.InBattleWith = ""
		ps.BattleBet = nil
	}
	g.ActiveBattle = nil
	res.Resolved = true
	res.NextTurnPlayerID, res.Finished = g.endTurn(now)
	return res
}

// ExpireBattle force-resolves the battle that started at startedAt once
// timeout has elapsed. Missing bets count as 0 and debit nothing. A battle
// already resolved, or a newer battle, is left alone.
func ExpireBattle(g *GameState, startedAt time.Time, now time.Time, timeout time.Duration) BattleResult {
	b := g.ActiveBattle
	if b == nil || !b.StartTime.Equal(startedAt) || now.Sub(b.StartTime) < timeout {
		return BattleResult{}
	}
	for _, pid := range []string{b.Player1, b.Player2} {
		if ps := g.PlayerStates[pid]; ps != nil && ps.BattleBet == nil {
			zero := 0
			ps.BattleBet = &zero
		}
	}
	return ResolveBattle(g, now)
}
