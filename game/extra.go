package game

import (
	"fmt"
	"slices"
	"time"

	"github.com/beka-birhanu/vinom-labyrinth/game/maze"
)

// Phase is the step of an extra-mode round.
type Phase string

const (
	PhaseDeclaration     Phase = "declaration"
	PhaseActionExecution Phase = "actionExecution"
	PhaseGameOver        Phase = "gameOver"
)

// ActionType is what a player declares for a round.
type ActionType string

const (
	ActionMove      ActionType = "move"
	ActionScout     ActionType = "scout"
	ActionSabotage  ActionType = "sabotage"
	ActionNegotiate ActionType = "negotiate"
	ActionWait      ActionType = "wait"
)

// SabotageType selects the effect put on a sabotage target.
type SabotageType string

const (
	SabotageInfoJam   SabotageType = "info_jam"   // target cannot chat
	SabotageMoveBlock SabotageType = "move_block" // target's next move is cancelled
)

// NegotiationType is the kind of pact offered.
type NegotiationType string

const (
	NegotiationAlliance     NegotiationType = "alliance"
	NegotiationFullAlliance NegotiationType = "full_alliance"
)

// NegotiationStatus is the answer state of a proposal.
type NegotiationStatus string

const (
	NegotiationPending  NegotiationStatus = "pending"
	NegotiationAccepted NegotiationStatus = "accepted"
	NegotiationRejected NegotiationStatus = "rejected"
)

// AllianceStatus is active until a member betrays or leaves it.
type AllianceStatus string

const (
	AllianceActive    AllianceStatus = "active"
	AllianceBetrayed  AllianceStatus = "betrayed"
	AllianceDissolved AllianceStatus = "dissolved" // fewer than two members left
)

// Action is a declared extra-mode action.
type Action struct {
	Type        ActionType      `json:"type" bson:"type"`
	TargetID    string          `json:"targetId,omitempty" bson:"targetId,omitempty"`
	TargetCell  *maze.Position  `json:"targetCell,omitempty" bson:"targetCell,omitempty"`
	Sabotage    SabotageType    `json:"sabotage,omitempty" bson:"sabotage,omitempty"`
	Negotiation NegotiationType `json:"negotiation,omitempty" bson:"negotiation,omitempty"`
	Conditions  string          `json:"conditions,omitempty" bson:"conditions,omitempty"`
}

// ScoutLog is what a scout action saw.
type ScoutLog struct {
	TargetID string        `json:"targetId" bson:"targetId"`
	Position maze.Position `json:"position" bson:"position"`
	Round    int           `json:"round" bson:"round"`
}

// SabotageEffect is active on its holder until ExpiryRound has passed.
type SabotageEffect struct {
	Type        SabotageType `json:"type" bson:"type"`
	SourceID    string       `json:"sourceId" bson:"sourceId"`
	ExpiryRound int          `json:"expiryRound" bson:"expiryRound"`
}

// Negotiation is a pact proposal between two players.
type Negotiation struct {
	ID         string            `json:"id" bson:"id"`
	FromID     string            `json:"fromId" bson:"fromId"`
	ToID       string            `json:"toId" bson:"toId"`
	Type       NegotiationType   `json:"type" bson:"type"`
	Conditions string            `json:"conditions,omitempty" bson:"conditions,omitempty"`
	Round      int               `json:"round" bson:"round"`
	Status     NegotiationStatus `json:"status" bson:"status"`
}

// Alliance binds its members until one of them betrays it.
type Alliance struct {
	ID          string          `json:"id" bson:"id"`
	Type        NegotiationType `json:"type" bson:"type"`
	Members     []string        `json:"members" bson:"members"`
	Status      AllianceStatus  `json:"status" bson:"status"`
	FormedRound int             `json:"formedRound" bson:"formedRound"`
}

// SecretObjective is a private end-of-game bonus.
type SecretObjective struct {
	ID             string `json:"id" bson:"id"`
	TargetPlayerID string `json:"targetPlayerId,omitempty" bson:"targetPlayerId,omitempty"`
	Points         int    `json:"points" bson:"points"`
	Achieved       bool   `json:"achieved" bson:"achieved"`
}

// ExtraState is the game-level part of an extra-mode document.
type ExtraState struct {
	RoundNumber           int           `json:"roundNumber" bson:"roundNumber"`
	Phase                 Phase         `json:"phase" bson:"phase"`
	CurrentActionPlayerID string        `json:"currentActionPlayerId" bson:"currentActionPlayerId"`
	PhaseStartedAt        time.Time     `json:"phaseStartedAt" bson:"phaseStartedAt"`
	Alliances             []Alliance    `json:"alliances" bson:"alliances"`
	Negotiations          []Negotiation `json:"negotiations" bson:"negotiations"`
}

// ExtraPlayerState is the per-player part of an extra-mode document.
type ExtraPlayerState struct {
	HasDeclared                  bool             `json:"hasDeclared" bson:"hasDeclared"`
	DeclaredAction               *Action          `json:"declaredAction,omitempty" bson:"declaredAction,omitempty"`
	ActionExecuted               bool             `json:"actionExecuted" bson:"actionExecuted"`
	PersonalTimeUsedMillis       int64            `json:"personalTimeUsedMillis" bson:"personalTimeUsedMillis"`
	AllianceID                   string           `json:"allianceId,omitempty" bson:"allianceId,omitempty"`
	EverAllied                   bool             `json:"everAllied" bson:"everAllied"`
	SecretObjective              *SecretObjective `json:"secretObjective,omitempty" bson:"secretObjective,omitempty"`
	BetrayedAllies               []string         `json:"betrayedAllies" bson:"betrayedAllies"`
	ScoutLogs                    []ScoutLog       `json:"scoutLogs" bson:"scoutLogs"`
	SabotageEffects              []SabotageEffect `json:"sabotageEffects" bson:"sabotageEffects"`
	ScoreBeforeFullAllianceBonus int              `json:"scoreBeforeFullAllianceBonus" bson:"scoreBeforeFullAllianceBonus"`
}

func (e *ExtraState) clone() *ExtraState {
	if e == nil {
		return nil
	}
	c := *e
	if e.Alliances != nil {
		c.Alliances = make([]Alliance, len(e.Alliances))
		for i, a := range e.Alliances {
			a.Members = slices.Clone(a.Members)
			c.Alliances[i] = a
		}
	}
	c.Negotiations = slices.Clone(e.Negotiations)
	return &c
}

func (e *ExtraPlayerState) clone() *ExtraPlayerState {
	if e == nil {
		return nil
	}
	c := *e
	if e.DeclaredAction != nil {
		a := *e.DeclaredAction
		if a.TargetCell != nil {
			cell := *a.TargetCell
			a.TargetCell = &cell
		}
		c.DeclaredAction = &a
	}
	if e.SecretObjective != nil {
		o := *e.SecretObjective
		c.SecretObjective = &o
	}
	c.BetrayedAllies = slices.Clone(e.BetrayedAllies)
	c.ScoutLogs = slices.Clone(e.ScoutLogs)
	c.SabotageEffects = slices.Clone(e.SabotageEffects)
	return &c
}

// hasEffect reports whether an effect of type t is active in round.
func (e *ExtraPlayerState) hasEffect(t SabotageType, round int) bool {
	for _, eff := range e.SabotageEffects {
		if eff.Type == t && eff.ExpiryRound >= round {
			return true
		}
	}
	return false
}

// consumeEffect removes the first active effect of type t.
func (e *ExtraPlayerState) consumeEffect(t SabotageType, round int) bool {
	for i, eff := range e.SabotageEffects {
		if eff.Type == t && eff.ExpiryRound >= round {
			e.SabotageEffects = slices.Delete(e.SabotageEffects, i, i+1)
			return true
		}
	}
	return false
}

// extraPlayer returns the extra-mode state of a player.
func (g *GameState) extraPlayer(playerID string) (*PlayerState, *ExtraPlayerState, error) {
	if !g.IsExtra() || g.Extra == nil {
		return nil, nil, ErrExtraOnly
	}
	ps, err := g.Player(playerID)
	if err != nil {
		return nil, nil, err
	}
	if ps.Extra == nil {
		ps.Extra = newExtraPlayerState()
	}
	return ps, ps.Extra, nil
}

func newExtraPlayerState() *ExtraPlayerState {
	return &ExtraPlayerState{
		BetrayedAllies:  make([]string, 0),
		ScoutLogs:       make([]ScoutLog, 0),
		SabotageEffects: make([]SabotageEffect, 0),
	}
}

// alliance returns the alliance with the given ID.
func (e *ExtraState) alliance(id string) *Alliance {
	if id == "" {
		return nil
	}
	for i := range e.Alliances {
		if e.Alliances[i].ID == id {
			return &e.Alliances[i]
		}
	}
	return nil
}

// activeAllies returns the other members of the player's active alliance.
func (g *GameState) activeAllies(playerID string) []string {
	return g.allies(playerID, func(s AllianceStatus) bool { return s == AllianceActive })
}

// unbrokenAllies is activeAllies that also counts dissolved alliances; only
// betrayal voids an alliance at the end of the game.
func (g *GameState) unbrokenAllies(playerID string) []string {
	return g.allies(playerID, func(s AllianceStatus) bool { return s != AllianceBetrayed })
}

func (g *GameState) allies(playerID string, counts func(AllianceStatus) bool) []string {
	ps := g.PlayerStates[playerID]
	if ps == nil || ps.Extra == nil || g.Extra == nil {
		return nil
	}
	a := g.Extra.alliance(ps.Extra.AllianceID)
	if a == nil || !counts(a.Status) {
		return nil
	}
	allies := make([]string, 0, len(a.Members)-1)
	for _, m := range a.Members {
		if m != playerID {
			allies = append(allies, m)
		}
	}
	return allies
}

// validateAction checks an action against the declaring player's position.
func (g *GameState) validateAction(playerID string, ps *PlayerState, a Action) error {
	switch a.Type {
	case ActionMove:
		if a.TargetCell == nil {
			return fmt.Errorf("%w: move needs a target cell", ErrInvalidAction)
		}
		m, err := g.AssignedMaze(playerID)
		if err != nil {
			return err
		}
		if !maze.InBounds(*a.TargetCell, m.GridSize) {
			return ErrOutOfBounds
		}
		if _, err := directionTo(ps.Position, *a.TargetCell); err != nil {
			return err
		}
	case ActionScout, ActionSabotage, ActionNegotiate:
		if a.TargetID == playerID || !g.HasPlayer(a.TargetID) {
			return ErrUnknownTarget
		}
		if a.Type == ActionSabotage && a.Sabotage != SabotageInfoJam && a.Sabotage != SabotageMoveBlock {
			return fmt.Errorf("%w: unknown sabotage %q", ErrInvalidAction, a.Sabotage)
		}
		if a.Type == ActionNegotiate && a.Negotiation != NegotiationAlliance && a.Negotiation != NegotiationFullAlliance {
			return fmt.Errorf("%w: unknown negotiation %q", ErrInvalidAction, a.Negotiation)
		}
	case ActionWait:
	default:
		return fmt.Errorf("%w: unknown action %q", ErrInvalidAction, a.Type)
	}
	return nil
}

// directionTo returns the direction leading from one cell to an adjacent one.
func directionTo(from, to maze.Position) (maze.Direction, error) {
	for _, d := range maze.Directions {
		if next, _ := from.Step(d); next == to {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: target cell is not adjacent", ErrInvalidAction)
}

// Declare records the action of playerID for the current round. It reports
// whether every player has declared, in which case the round moves on to
// action execution.
func Declare(g *GameState, playerID string, a Action, now time.Time) (bool, error) {
	if err := g.ensurePlaying(); err != nil {
		return false, err
	}
	ps, ex, err := g.extraPlayer(playerID)
	if err != nil {
		return false, err
	}
	if g.Extra.Phase != PhaseDeclaration {
		return false, ErrWrongPhase
	}
	if ex.HasDeclared {
		return false, ErrAlreadyDeclared
	}
	if err := g.validateAction(playerID, ps, a); err != nil {
		return false, err
	}

	action := a
	ex.DeclaredAction = &action
	ex.HasDeclared = true
	if spent := now.Sub(g.Extra.PhaseStartedAt); spent > 0 {
		ex.PersonalTimeUsedMillis += spent.Milliseconds()
	}

	for _, pid := range g.Players {
		if p := g.PlayerStates[pid]; p == nil || p.Extra == nil || !p.Extra.HasDeclared {
			return false, nil
		}
	}
	g.Extra.Phase = PhaseActionExecution
	g.Extra.CurrentActionPlayerID = g.Players[0]
	g.Extra.PhaseStartedAt = now
	return true, nil
}

// ActionOutcome describes one executed extra-mode action.
type ActionOutcome struct {
	PlayerID           string       `json:"playerId"`
	Action             Action       `json:"action"`
	Move               *MoveOutcome `json:"move,omitempty"`
	Scout              *ScoutLog    `json:"scout,omitempty"`
	NegotiationID      string       `json:"negotiationId,omitempty"`
	NextActionPlayerID string       `json:"nextActionPlayerId,omitempty"`
	RoundEnded         bool         `json:"roundEnded"`
	Finished           bool         `json:"finished"`
}

// ExecuteAction runs the declared action of the current action player and
// hands execution to the next player, ending the round after the last one.
func ExecuteAction(g *GameState, playerID string, now time.Time) (ActionOutcome, error) {
	if err := g.ensurePlaying(); err != nil {
		return ActionOutcome{}, err
	}
	ps, ex, err := g.extraPlayer(playerID)
	if err != nil {
		return ActionOutcome{}, err
	}
	if g.Extra.Phase != PhaseActionExecution {
		return ActionOutcome{}, ErrWrongPhase
	}
	if g.Extra.CurrentActionPlayerID != playerID {
		return ActionOutcome{}, ErrNotActionPlayer
	}
	if ex.ActionExecuted {
		return ActionOutcome{}, ErrActionExecuted
	}

	action := Action{Type: ActionWait}
	if ex.DeclaredAction != nil {
		action = *ex.DeclaredAction
	}
	out := ActionOutcome{PlayerID: playerID, Action: action}
	round := g.Extra.RoundNumber

	switch action.Type {
	case ActionMove:
		mv, err := g.executeMove(playerID, ps, ex, *action.TargetCell, now)
		if err != nil {
			return ActionOutcome{}, err
		}
		out.Move = &mv
	case ActionScout:
		target := g.PlayerStates[action.TargetID]
		seen := ScoutLog{TargetID: action.TargetID, Position: target.Position, Round: round}
		ex.ScoutLogs = append(ex.ScoutLogs, seen)
		out.Scout = &seen
	case ActionSabotage:
		_, tex, err := g.extraPlayer(action.TargetID)
		if err != nil {
			return ActionOutcome{}, err
		}
		tex.SabotageEffects = append(tex.SabotageEffects, SabotageEffect{
			Type:        action.Sabotage,
			SourceID:    playerID,
			ExpiryRound: round + extraSabotageDurationRounds - 1,
		})
	case ActionNegotiate:
		n := Negotiation{
			ID:         fmt.Sprintf("%s-%s-%d", playerID, action.TargetID, round),
			FromID:     playerID,
			ToID:       action.TargetID,
			Type:       action.Negotiation,
			Conditions: action.Conditions,
			Round:      round,
			Status:     NegotiationPending,
		}
		g.Extra.Negotiations = append(g.Extra.Negotiations, n)
		out.NegotiationID = n.ID
	}
	ex.ActionExecuted = true

	idx := slices.Index(g.Players, playerID)
	if idx+1 < len(g.Players) {
		g.Extra.CurrentActionPlayerID = g.Players[idx+1]
		out.NextActionPlayerID = g.Extra.CurrentActionPlayerID
		return out, nil
	}

	out.RoundEnded = true
	out.Finished = g.endRound(now)
	return out, nil
}

// executeMove applies a declared move. An active move_block swallows it.
func (g *GameState) executeMove(playerID string, ps *PlayerState, ex *ExtraPlayerState, target maze.Position, now time.Time) (MoveOutcome, error) {
	if ex.consumeEffect(SabotageMoveBlock, g.Extra.RoundNumber) {
		return MoveOutcome{Result: MoveCancelled, From: ps.Position, To: ps.Position}, nil
	}
	if ps.Goaled() {
		return MoveOutcome{Result: MoveSkipped, From: ps.Position, To: ps.Position}, nil
	}
	m, err := g.AssignedMaze(playerID)
	if err != nil {
		return MoveOutcome{}, err
	}
	d, err := directionTo(ps.Position, target)
	if err != nil {
		// The player's position did not change since declaring, so this only
		// happens on a hand-edited document.
		return MoveOutcome{}, err
	}
	return applyStep(g, playerID, ps, m, d, now, false)
}

// extraFinished reports whether an extra game ends after the given round.
func (g *GameState) extraFinished(nextRound int) bool {
	need := (len(g.Players) + 1) / 2
	return g.goaledCount() >= need || nextRound > extraMaxRounds
}

// endRound finalizes the game or opens the declaration phase of the next round.
func (g *GameState) endRound(now time.Time) bool {
	next := g.Extra.RoundNumber + 1
	if g.extraFinished(next) {
		Finalize(g, now)
		return true
	}
	g.Extra.RoundNumber = next
	g.Extra.Phase = PhaseDeclaration
	g.Extra.CurrentActionPlayerID = ""
	g.Extra.PhaseStartedAt = now
	g.TurnNumber++
	for _, pid := range g.Players {
		ps := g.PlayerStates[pid]
		if ps == nil || ps.Extra == nil {
			continue
		}
		ex := ps.Extra
		ex.HasDeclared = false
		ex.DeclaredAction = nil
		ex.ActionExecuted = false
		ex.SabotageEffects = slices.DeleteFunc(ex.SabotageEffects, func(e SabotageEffect) bool {
			return e.ExpiryRound < next
		})
	}
	return false
}

// RespondNegotiation lets the recipient accept or reject a pending proposal.
// Accepting forms a new active alliance; both players leave any alliance they
// were part of.
func RespondNegotiation(g *GameState, playerID, negotiationID string, accept bool) (*Alliance, error) {
	if err := g.ensurePlaying(); err != nil {
		return nil, err
	}
	if _, _, err := g.extraPlayer(playerID); err != nil {
		return nil, err
	}
	var n *Negotiation
	for i := range g.Extra.Negotiations {
		if g.Extra.Negotiations[i].ID == negotiationID {
			n = &g.Extra.Negotiations[i]
			break
		}
	}
	if n == nil || n.Status != NegotiationPending {
		return nil, ErrNegotiationClosed
	}
	if n.ToID != playerID {
		return nil, ErrNotRecipient
	}
	if !accept {
		n.Status = NegotiationRejected
		return nil, nil
	}

	n.Status = NegotiationAccepted
	members := []string{n.FromID, n.ToID}
	for _, pid := range members {
		g.leaveAlliance(pid)
	}
	g.Extra.Alliances = append(g.Extra.Alliances, Alliance{
		ID:          "alliance-" + n.ID,
		Type:        n.Type,
		Members:     members,
		Status:      AllianceActive,
		FormedRound: g.Extra.RoundNumber,
	})
	a := &g.Extra.Alliances[len(g.Extra.Alliances)-1]
	for _, pid := range members {
		_, ex, err := g.extraPlayer(pid)
		if err != nil {
			return nil, err
		}
		ex.AllianceID = a.ID
		ex.EverAllied = true
	}
	return a, nil
}

// leaveAlliance drops the player from its alliance; an alliance left with a
// single member is dissolved.
func (g *GameState) leaveAlliance(playerID string) {
	ps := g.PlayerStates[playerID]
	if ps == nil || ps.Extra == nil || ps.Extra.AllianceID == "" {
		return
	}
	a := g.Extra.alliance(ps.Extra.AllianceID)
	ps.Extra.AllianceID = ""
	if a == nil {
		return
	}
	a.Members = slices.DeleteFunc(a.Members, func(m string) bool { return m == playerID })
	if len(a.Members) < 2 && a.Status == AllianceActive {
		a.Status = AllianceDissolved
		for _, m := range a.Members {
			if mp := g.PlayerStates[m]; mp != nil && mp.Extra != nil {
				mp.Extra.AllianceID = ""
			}
		}
	}
}

// BetrayAlliance marks the player's alliance as betrayed and records the
// betrayed members. It returns the betrayed player IDs.
func BetrayAlliance(g *GameState, playerID string) ([]string, error) {
	if err := g.ensurePlaying(); err != nil {
		return nil, err
	}
	_, ex, err := g.extraPlayer(playerID)
	if err != nil {
		return nil, err
	}
	a := g.Extra.alliance(ex.AllianceID)
	if a == nil || a.Status != AllianceActive {
		return nil, ErrNotAllied
	}
	betrayed := make([]string, 0, len(a.Members)-1)
	for _, m := range a.Members {
		if m == playerID {
			continue
		}
		betrayed = append(betrayed, m)
		if !slices.Contains(ex.BetrayedAllies, m) {
			ex.BetrayedAllies = append(ex.BetrayedAllies, m)
		}
	}
	a.Status = AllianceBetrayed
	for _, m := range a.Members {
		if mp := g.PlayerStates[m]; mp != nil && mp.Extra != nil {
			mp.Extra.AllianceID = ""
		}
	}
	return betrayed, nil
}

// CanChat reports whether the player may post to the game chat.
func CanChat(g *GameState, playerID string) error {
	if g.Status == StatusDisbanded {
		return ErrGameDisbanded
	}
	ps, err := g.Player(playerID)
	if err != nil {
		return err
	}
	if ps.InBattleWith != "" || g.ActiveBattle.Involves(playerID) {
		return ErrChatBlocked
	}
	if g.IsExtra() && g.Extra != nil && ps.Extra != nil && ps.Extra.hasEffect(SabotageInfoJam, g.Extra.RoundNumber) {
		return ErrChatBlocked
	}
	return nil
}
