package game

// ActingIdentity is the player an operation is performed for. DebugPlayerID,
// when set, overrides the authenticated player so one client can drive every
// seat of a debug game.
type ActingIdentity struct {
	PlayerID      string
	DisplayName   string
	DebugPlayerID string
}

// Effective returns the player ID the engine should act as.
func (a ActingIdentity) Effective() string {
	if a.DebugPlayerID != "" {
		return a.DebugPlayerID
	}
	return a.PlayerID
}

// IsDebug reports whether the identity was overridden.
func (a ActingIdentity) IsDebug() bool {
	return a.DebugPlayerID != "" && a.DebugPlayerID != a.PlayerID
}
