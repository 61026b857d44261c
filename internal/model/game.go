package model

import (
	"math"
	"time"
)

// GameSession is the live state of one in-progress game for one server.
// Only one session may exist per server at a time; the GameService is
// responsible for that invariant and for serializing access, so the
// session itself carries no locking.
type GameSession struct {
	GameNumber      int
	TargetSeconds   int
	CooldownSeconds int

	// LastReapAt is the moment the shared timer was last collapsed.
	// The current bankable count is derived from it on demand, so no
	// background ticker is needed.
	LastReapAt time.Time

	// ChannelID is where the game was started; announcements and the
	// victory message go back to it.
	ChannelID string

	// AnnouncementRef is the pinned start message, kept for unpinning
	// when the game ends. May be empty if pinning failed.
	AnnouncementRef string

	cooldowns map[string]time.Time
}

// NewGameSession creates a session whose timer starts counting at now.
func NewGameSession(gameNumber, targetSeconds, cooldownSeconds int, now time.Time) *GameSession {
	return &GameSession{
		GameNumber:      gameNumber,
		TargetSeconds:   targetSeconds,
		CooldownSeconds: cooldownSeconds,
		LastReapAt:      now,
		cooldowns:       make(map[string]time.Time),
	}
}

// CanReap reports whether the player is off cooldown at now. When the
// player must still wait, the second return value is the remaining wait
// in whole seconds, rounded up.
func (g *GameSession) CanReap(playerID string, now time.Time) (bool, int) {
	last, ok := g.cooldowns[playerID]
	if !ok {
		return true, 0
	}

	elapsed := now.Sub(last).Seconds()
	if elapsed < float64(g.CooldownSeconds) {
		return false, int(math.Ceil(float64(g.CooldownSeconds) - elapsed))
	}
	return true, 0
}

// Reap collapses the shared timer and returns the number of whole seconds
// it had accumulated. This resets the count for every player, not just
// the caller; racing to reap before someone else does is the game. The
// caller's personal cooldown starts at now. A result of 0 is valid when
// two reaps land inside the same second.
func (g *GameSession) Reap(playerID string, now time.Time) int {
	reaped := int(now.Sub(g.LastReapAt).Seconds())
	g.LastReapAt = now
	g.cooldowns[playerID] = now
	return reaped
}

// CurrentCount returns the seconds accumulated since the last reap
// without mutating anything. Used for leaderboard display.
func (g *GameSession) CurrentCount(now time.Time) int {
	return int(now.Sub(g.LastReapAt).Seconds())
}

// ReapResult is returned from every successful reap so the caller can
// render the outcome, including a win banner when Won is set.
type ReapResult struct {
	GameNumber int  `json:"gameNumber"`
	Reaped     int  `json:"reaped"`
	NewTotal   int  `json:"newTotal"`
	Won        bool `json:"won"`
}

// EndSummary describes a game terminated by an admin.
type EndSummary struct {
	GameNumber int    `json:"gameNumber"`
	EndedBy    string `json:"endedBy"`
	Reason     string `json:"reason,omitempty"`
}

// ActiveGameInfo is the display snapshot of a running game.
type ActiveGameInfo struct {
	GameNumber      int `json:"gameNumber"`
	TargetSeconds   int `json:"targetSeconds"`
	CooldownSeconds int `json:"cooldownSeconds"`
	CurrentCount    int `json:"currentCount"`
}

// LeaderboardView composes the stored top scores with the live game
// state, if any. Requester is nil when the requesting player has no
// score yet; RequesterInTop tells renderers whether it already appears
// in Top.
type LeaderboardView struct {
	Game           *ActiveGameInfo `json:"game,omitempty"`
	Top            []Score         `json:"top"`
	Requester      *Score          `json:"requester,omitempty"`
	RequesterInTop bool            `json:"requesterInTop"`
}
