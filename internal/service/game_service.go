package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/taucat/reaper/internal/cache"
	"github.com/taucat/reaper/internal/model"
	"github.com/taucat/reaper/internal/platform"
	"github.com/taucat/reaper/internal/repository"
)

// Game event types broadcast to dashboard spectators.
const (
	EventGameStarted = "game_started"
	EventReaped      = "reaped"
	EventGameWon     = "game_won"
	EventGameEnded   = "game_ended"
)

// GameOptions are the policy knobs for running games.
type GameOptions struct {
	// AdminRole is the chat role required to start or end a game.
	AdminRole string

	// ClearScoresOnEnd wipes the server's scores when an admin ends a
	// game. Scores are always wiped on a win; the admin-end behavior is
	// an explicit policy choice and defaults to keeping them.
	ClearScoresOnEnd bool

	// LeaderboardSize is the number of entries in leaderboard views.
	LeaderboardSize int
}

// GameService owns the active-sessions registry and orchestrates the
// four game commands against the score store, the leaderboard cache and
// the chat platform. Mutating commands are serialized per server so
// "check cooldown, reap, update score" is atomic for that server;
// different servers never contend.
type GameService struct {
	store       repository.ScoreStore
	leaderboard cache.LeaderboardCache
	chat        platform.Chat
	clock       clockwork.Clock
	opts        GameOptions
	broadcaster Broadcaster

	mu       sync.Mutex
	sessions map[string]*model.GameSession
	locks    map[string]*sync.Mutex
}

// NewGameService creates a new game service
func NewGameService(
	store repository.ScoreStore,
	leaderboard cache.LeaderboardCache,
	chat platform.Chat,
	clock clockwork.Clock,
	opts GameOptions,
) *GameService {
	if opts.LeaderboardSize <= 0 {
		opts.LeaderboardSize = 10
	}
	return &GameService{
		store:       store,
		leaderboard: leaderboard,
		chat:        chat,
		clock:       clock,
		opts:        opts,
		sessions:    make(map[string]*model.GameSession),
		locks:       make(map[string]*sync.Mutex),
	}
}

// SetBroadcaster sets the broadcaster for WebSocket events
func (s *GameService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Start begins a new game for the server. The caller must hold the
// admin role; target must be positive and cooldown non-negative
// (cooldown 0 means no throttle). Fails with ErrGameActive when a game
// is already running. The game number is committed before the
// announcement is sent, so a failed announcement leaves a gap in the
// server's visible sequence; numbers are only required to increase.
func (s *GameService) Start(ctx context.Context, serverID, channelID string, caller platform.Caller, targetSeconds, cooldownSeconds int) (*model.GameSession, error) {
	if !caller.HasRole(s.opts.AdminRole) {
		return nil, model.ErrUnauthorized
	}
	if targetSeconds <= 0 {
		return nil, fmt.Errorf("%w: target must be positive, got %d", model.ErrInvalidParameter, targetSeconds)
	}
	if cooldownSeconds < 0 {
		return nil, fmt.Errorf("%w: cooldown cannot be negative, got %d", model.ErrInvalidParameter, cooldownSeconds)
	}

	lock := s.serverLock(serverID)
	lock.Lock()
	defer lock.Unlock()

	if s.activeSession(serverID) != nil {
		return nil, model.ErrGameActive
	}

	number, err := s.store.NextGameNumber(ctx, serverID)
	if err != nil {
		return nil, err
	}

	session := model.NewGameSession(number, targetSeconds, cooldownSeconds, s.clock.Now())
	session.ChannelID = channelID

	announcement := fmt.Sprintf(
		"Game %d has begun! Reap %d seconds to win, with %d seconds between successive reaps.",
		number, targetSeconds, cooldownSeconds,
	)
	ref, err := s.chat.SendMessage(ctx, channelID, announcement)
	if err != nil {
		return nil, fmt.Errorf("failed to announce game: %w", err)
	}
	session.AnnouncementRef = string(ref)

	// Pinning is cosmetic; a game still runs with an unpinned banner.
	if err := s.chat.PinMessage(ctx, channelID, ref); err != nil {
		log.Warn().Err(err).Str("server_id", serverID).Msg("failed to pin announcement")
	}

	s.setSession(serverID, session)

	log.Info().
		Str("server_id", serverID).
		Int("game_number", number).
		Int("target", targetSeconds).
		Int("cooldown", cooldownSeconds).
		Msg("game started")

	s.broadcast(serverID, EventGameStarted, model.ActiveGameInfo{
		GameNumber:      number,
		TargetSeconds:   targetSeconds,
		CooldownSeconds: cooldownSeconds,
	})

	return session, nil
}

// Reap claims the accumulated count for the player. Returns
// ErrNoActiveGame without a game, a CooldownError while the player is
// throttled, and otherwise the reap outcome. A winning reap also
// announces the victory, unpins the start message, removes the session
// and wipes the server's scores.
func (s *GameService) Reap(ctx context.Context, serverID, playerID string) (*model.ReapResult, error) {
	lock := s.serverLock(serverID)
	lock.Lock()
	defer lock.Unlock()

	session := s.activeSession(serverID)
	if session == nil {
		return nil, model.ErrNoActiveGame
	}

	now := s.clock.Now()
	ok, wait := session.CanReap(playerID, now)
	if !ok {
		return nil, &model.CooldownError{RemainingSeconds: wait}
	}

	reaped := session.Reap(playerID, now)

	total, err := s.store.AddScore(ctx, serverID, playerID, reaped)
	if err != nil {
		return nil, err
	}

	if err := s.leaderboard.SetScore(ctx, serverID, playerID, total); err != nil {
		log.Warn().Err(err).Str("server_id", serverID).Msg("failed to update leaderboard cache")
	}

	result := &model.ReapResult{
		GameNumber: session.GameNumber,
		Reaped:     reaped,
		NewTotal:   total,
		Won:        total >= session.TargetSeconds,
	}

	if result.Won {
		s.finishWonGame(ctx, serverID, session, playerID, total)
	} else {
		s.broadcast(serverID, EventReaped, result)
	}

	return result, nil
}

// End terminates the running game without a winner. Admin only. Scores
// survive unless ClearScoresOnEnd is set.
func (s *GameService) End(ctx context.Context, serverID string, caller platform.Caller, reason string) (*model.EndSummary, error) {
	if !caller.HasRole(s.opts.AdminRole) {
		return nil, model.ErrUnauthorized
	}

	lock := s.serverLock(serverID)
	lock.Lock()
	defer lock.Unlock()

	session := s.activeSession(serverID)
	if session == nil {
		return nil, model.ErrNoActiveGame
	}

	s.unpinBestEffort(ctx, serverID, session)
	s.removeSession(serverID)

	if s.opts.ClearScoresOnEnd {
		s.clearScores(ctx, serverID)
	}

	summary := &model.EndSummary{
		GameNumber: session.GameNumber,
		EndedBy:    caller.ID,
		Reason:     reason,
	}

	log.Info().
		Str("server_id", serverID).
		Int("game_number", session.GameNumber).
		Str("ended_by", caller.ID).
		Msg("game ended")

	s.broadcast(serverID, EventGameEnded, summary)

	return summary, nil
}

// Leaderboard returns the top scores plus live game info when a game is
// running. requesterID may be empty. Reads are served from the Redis
// mirror when it is warm, falling back to the score store.
func (s *GameService) Leaderboard(ctx context.Context, serverID, requesterID string) (*model.LeaderboardView, error) {
	lock := s.serverLock(serverID)
	lock.Lock()
	defer lock.Unlock()

	top, err := s.topScores(ctx, serverID)
	if err != nil {
		return nil, err
	}

	view := &model.LeaderboardView{Top: top}

	if session := s.activeSession(serverID); session != nil {
		view.Game = &model.ActiveGameInfo{
			GameNumber:      session.GameNumber,
			TargetSeconds:   session.TargetSeconds,
			CooldownSeconds: session.CooldownSeconds,
			CurrentCount:    session.CurrentCount(s.clock.Now()),
		}
	}

	if requesterID != "" {
		for _, sc := range top {
			if sc.PlayerID == requesterID {
				view.RequesterInTop = true
				break
			}
		}
		score, err := s.store.ScoreOf(ctx, serverID, requesterID)
		if err != nil {
			return nil, err
		}
		view.Requester = score
	}

	return view, nil
}

// ActiveGame returns a display snapshot of the server's running game,
// or nil when there is none.
func (s *GameService) ActiveGame(serverID string) *model.ActiveGameInfo {
	lock := s.serverLock(serverID)
	lock.Lock()
	defer lock.Unlock()

	session := s.activeSession(serverID)
	if session == nil {
		return nil
	}
	return &model.ActiveGameInfo{
		GameNumber:      session.GameNumber,
		TargetSeconds:   session.TargetSeconds,
		CooldownSeconds: session.CooldownSeconds,
		CurrentCount:    session.CurrentCount(s.clock.Now()),
	}
}

// PlayerRank returns the player's 1-indexed rank from the leaderboard
// mirror, or -1 when the player holds no ranked score. The mirror
// tracks every score write and is rebuilt by leaderboard reads after a
// restart, so a miss means the player has not scored since the mirror
// was last dropped.
func (s *GameService) PlayerRank(ctx context.Context, serverID, playerID string) (int64, error) {
	return s.leaderboard.GetRank(ctx, serverID, playerID)
}

// topScores reads the leaderboard from the Redis mirror and falls back
// to the score store when the mirror is cold or unreachable,
// backfilling it on the way out. Ties are re-sorted by playerId so both
// sources agree on ordering.
func (s *GameService) topScores(ctx context.Context, serverID string) ([]model.Score, error) {
	entries, err := s.leaderboard.GetTop(ctx, serverID, s.opts.LeaderboardSize)
	if err != nil {
		log.Warn().Err(err).Str("server_id", serverID).Msg("leaderboard cache read failed")
	} else if len(entries) > 0 {
		scores := make([]model.Score, len(entries))
		for i, e := range entries {
			scores[i] = model.Score{PlayerID: e.PlayerID, ServerID: serverID, Seconds: e.Seconds}
		}
		sort.Slice(scores, func(i, j int) bool {
			if scores[i].Seconds != scores[j].Seconds {
				return scores[i].Seconds > scores[j].Seconds
			}
			return scores[i].PlayerID < scores[j].PlayerID
		})
		return scores, nil
	}

	scores, err := s.store.TopScores(ctx, serverID, s.opts.LeaderboardSize)
	if err != nil {
		return nil, err
	}
	for _, sc := range scores {
		if err := s.leaderboard.SetScore(ctx, serverID, sc.PlayerID, sc.Seconds); err != nil {
			log.Warn().Err(err).Str("server_id", serverID).Msg("failed to backfill leaderboard cache")
			break
		}
	}
	return scores, nil
}

func (s *GameService) finishWonGame(ctx context.Context, serverID string, session *model.GameSession, winnerID string, total int) {
	name := s.displayName(ctx, winnerID)
	victory := fmt.Sprintf("🎉 %s has won game %d with a score of %d!", name, session.GameNumber, total)
	if _, err := s.chat.SendMessage(ctx, session.ChannelID, victory); err != nil {
		log.Warn().Err(err).Str("server_id", serverID).Msg("failed to announce victory")
	}

	s.unpinBestEffort(ctx, serverID, session)
	s.removeSession(serverID)
	s.clearScores(ctx, serverID)

	log.Info().
		Str("server_id", serverID).
		Int("game_number", session.GameNumber).
		Str("winner", winnerID).
		Int("total", total).
		Msg("game won")

	s.broadcast(serverID, EventGameWon, map[string]interface{}{
		"gameNumber": session.GameNumber,
		"winnerId":   winnerID,
		"total":      total,
	})
}

// unpinBestEffort removes the pinned announcement. The message being
// gone already is the expected failure and is swallowed; any other
// platform error is logged but never fails the enclosing command.
func (s *GameService) unpinBestEffort(ctx context.Context, serverID string, session *model.GameSession) {
	if session.AnnouncementRef == "" {
		return
	}
	err := s.chat.UnpinMessage(ctx, session.ChannelID, platform.MessageRef(session.AnnouncementRef))
	if err != nil && !errors.Is(err, platform.ErrNotFound) {
		log.Warn().Err(err).Str("server_id", serverID).Msg("failed to unpin announcement")
	}
}

func (s *GameService) clearScores(ctx context.Context, serverID string) {
	if err := s.store.ClearServer(ctx, serverID); err != nil {
		log.Error().Err(err).Str("server_id", serverID).Msg("failed to clear scores")
	}
	if err := s.leaderboard.Clear(ctx, serverID); err != nil {
		log.Warn().Err(err).Str("server_id", serverID).Msg("failed to clear leaderboard cache")
	}
}

func (s *GameService) displayName(ctx context.Context, playerID string) string {
	name, err := s.chat.FetchUserName(ctx, playerID)
	if err != nil {
		return fmt.Sprintf("Unknown User (%s)", playerID)
	}
	return name
}

func (s *GameService) broadcast(serverID, msgType string, payload interface{}) {
	if s.broadcaster != nil {
		s.broadcaster.BroadcastGameEvent(serverID, msgType, payload)
	}
}

// serverLock returns the mutex serializing commands for one server,
// creating it on first use.
func (s *GameService) serverLock(serverID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[serverID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[serverID] = lock
	}
	return lock
}

func (s *GameService) activeSession(serverID string) *model.GameSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[serverID]
}

func (s *GameService) setSession(serverID string, session *model.GameSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[serverID] = session
}

func (s *GameService) removeSession(serverID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, serverID)
}
