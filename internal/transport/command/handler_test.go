package command

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/taucat/reaper/internal/cache"
	"github.com/taucat/reaper/internal/model"
	"github.com/taucat/reaper/internal/platform"
	"github.com/taucat/reaper/internal/service"
)

// stubChat satisfies platform.Chat with canned names and accepted sends.
type stubChat struct {
	mu     sync.Mutex
	names  map[string]string
	nextID int
}

func newStubChat() *stubChat {
	return &stubChat{names: make(map[string]string)}
}

func (s *stubChat) SendMessage(_ context.Context, channelID, text string) (platform.MessageRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	return platform.MessageRef(fmt.Sprintf("msg-%d", s.nextID)), nil
}

func (s *stubChat) PinMessage(context.Context, string, platform.MessageRef) error   { return nil }
func (s *stubChat) UnpinMessage(context.Context, string, platform.MessageRef) error { return nil }

func (s *stubChat) FetchUserName(_ context.Context, userID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name, ok := s.names[userID]
	if !ok {
		return "", platform.ErrNotFound
	}
	return name, nil
}

// memStore is a minimal in-memory score store for handler tests.
type memStore struct {
	mu      sync.Mutex
	scores  map[string]int
	counter int
}

func newMemStore() *memStore {
	return &memStore{scores: make(map[string]int)}
}

func (m *memStore) NextGameNumber(context.Context, string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return m.counter, nil
}

func (m *memStore) AddScore(_ context.Context, _, playerID string, delta int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scores[playerID] += delta
	return m.scores[playerID], nil
}

func (m *memStore) ScoreOf(_ context.Context, serverID, playerID string) (*model.Score, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seconds, ok := m.scores[playerID]
	if !ok {
		return nil, nil
	}
	return &model.Score{PlayerID: playerID, ServerID: serverID, Seconds: seconds}, nil
}

func (m *memStore) TopScores(_ context.Context, serverID string, limit int) ([]model.Score, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Score
	for playerID, seconds := range m.scores {
		out = append(out, model.Score{PlayerID: playerID, ServerID: serverID, Seconds: seconds})
	}
	// Handler tests seed at most one score, ordering does not matter here.
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) ClearServer(context.Context, string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scores = make(map[string]int)
	return nil
}

type noopBoard struct{}

func (noopBoard) SetScore(context.Context, string, string, int) error { return nil }
func (noopBoard) GetTop(context.Context, string, int) ([]cache.LeaderboardEntry, error) {
	return nil, nil
}
func (noopBoard) GetRank(context.Context, string, string) (int64, error) { return -1, nil }
func (noopBoard) Clear(context.Context, string) error                    { return nil }

type handlerFixture struct {
	handler *Handler
	chat    *stubChat
	clock   *clockwork.FakeClock
}

func newHandlerFixture() *handlerFixture {
	chat := newStubChat()
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	games := service.NewGameService(newMemStore(), noopBoard{}, chat, clock, service.GameOptions{
		AdminRole: "taucater",
	})
	return &handlerFixture{
		handler: NewHandler(games, chat, "tau-reaper", "taucater"),
		chat:    chat,
		clock:   clock,
	}
}

func inv(command string, caller platform.Caller, args map[string]string) platform.Invocation {
	return platform.Invocation{
		Command:     command,
		ServerID:    "s1",
		ChannelID:   "c1",
		ChannelName: "tau-reaper",
		Caller:      caller,
		Args:        args,
	}
}

var adminCaller = platform.Caller{ID: "u-admin", Name: "taucat", Roles: []string{"taucater"}}
var memberCaller = platform.Caller{ID: "u-member", Name: "pleb", Roles: nil}

func (f *handlerFixture) startGame(t *testing.T, target, cooldown int) {
	t.Helper()
	reply := f.handler.Dispatch(context.Background(), inv("start", adminCaller, map[string]string{
		"end":      fmt.Sprint(target),
		"cooldown": fmt.Sprint(cooldown),
	}))
	if reply.Text != "Game started successfully!" {
		t.Fatalf("start reply = %q", reply.Text)
	}
}

func TestDispatchUnknownCommand(t *testing.T) {
	f := newHandlerFixture()

	reply := f.handler.Dispatch(context.Background(), inv("dance", adminCaller, nil))
	if !strings.Contains(reply.Text, "Unknown command: dance") {
		t.Errorf("reply = %q", reply.Text)
	}
	if !reply.Ephemeral {
		t.Error("unknown-command reply should be ephemeral")
	}
}

func TestStartRejectedOutsideGameChannel(t *testing.T) {
	f := newHandlerFixture()

	wrong := inv("start", adminCaller, map[string]string{"end": "100", "cooldown": "10"})
	wrong.ChannelName = "general"

	reply := f.handler.Dispatch(context.Background(), wrong)
	want := "This command can only be used in the #tau-reaper channel. Please create one!"
	if reply.Text != want {
		t.Errorf("reply = %q, expected %q", reply.Text, want)
	}
}

func TestStartWithoutRole(t *testing.T) {
	f := newHandlerFixture()

	reply := f.handler.Dispatch(context.Background(), inv("start", memberCaller, map[string]string{
		"end": "100", "cooldown": "10",
	}))
	want := "You need the 'taucater' role to start a game!"
	if reply.Text != want {
		t.Errorf("reply = %q, expected %q", reply.Text, want)
	}
}

func TestStartWithBadArguments(t *testing.T) {
	f := newHandlerFixture()
	ctx := context.Background()

	reply := f.handler.Dispatch(ctx, inv("start", adminCaller, map[string]string{
		"end": "100", "cooldown": "soon",
	}))
	if reply.Text != "The cooldown must be a whole number of seconds." {
		t.Errorf("non-numeric cooldown reply = %q", reply.Text)
	}

	reply = f.handler.Dispatch(ctx, inv("start", adminCaller, map[string]string{
		"end": "0", "cooldown": "10",
	}))
	if !strings.Contains(reply.Text, "Invalid parameters") {
		t.Errorf("zero target reply = %q", reply.Text)
	}
}

func TestStartTwiceReportsConflict(t *testing.T) {
	f := newHandlerFixture()
	f.startGame(t, 100, 10)

	reply := f.handler.Dispatch(context.Background(), inv("start", adminCaller, map[string]string{
		"end": "100", "cooldown": "10",
	}))
	if reply.Text != "A game is already in progress!" {
		t.Errorf("reply = %q", reply.Text)
	}
}

func TestReapReply(t *testing.T) {
	f := newHandlerFixture()
	f.startGame(t, 1000, 10)

	f.clock.Advance(7 * time.Second)
	reply := f.handler.Dispatch(context.Background(), inv("reap", memberCaller, nil))
	want := "Reaped 7 seconds! Your current score is now 7!"
	if reply.Text != want {
		t.Errorf("reply = %q, expected %q", reply.Text, want)
	}
	if reply.Ephemeral {
		t.Error("successful reap is a public reply")
	}
}

func TestReapCooldownReply(t *testing.T) {
	f := newHandlerFixture()
	f.startGame(t, 1000, 10)
	ctx := context.Background()

	f.handler.Dispatch(ctx, inv("reap", memberCaller, nil))
	f.clock.Advance(4 * time.Second)

	reply := f.handler.Dispatch(ctx, inv("reap", memberCaller, nil))
	want := "You must wait 6 more seconds!"
	if reply.Text != want {
		t.Errorf("reply = %q, expected %q", reply.Text, want)
	}
}

func TestReapWithoutGameReply(t *testing.T) {
	f := newHandlerFixture()

	reply := f.handler.Dispatch(context.Background(), inv("reap", memberCaller, nil))
	if reply.Text != "No game is currently running!" {
		t.Errorf("reply = %q", reply.Text)
	}
}

func TestEndReply(t *testing.T) {
	f := newHandlerFixture()
	f.startGame(t, 100, 10)

	reply := f.handler.Dispatch(context.Background(), inv("end", adminCaller, map[string]string{
		"reason": "dinner time",
	}))
	want := "Game 1 ended by taucat\nReason: dinner time"
	if reply.Text != want {
		t.Errorf("reply = %q, expected %q", reply.Text, want)
	}
}

func TestEndWithoutReasonOmitsReasonLine(t *testing.T) {
	f := newHandlerFixture()
	f.startGame(t, 100, 10)

	reply := f.handler.Dispatch(context.Background(), inv("end", adminCaller, nil))
	if strings.Contains(reply.Text, "Reason:") {
		t.Errorf("reply = %q, expected no reason line", reply.Text)
	}
}

func TestEndWithoutRole(t *testing.T) {
	f := newHandlerFixture()
	f.startGame(t, 100, 10)

	reply := f.handler.Dispatch(context.Background(), inv("end", memberCaller, nil))
	want := "You need the 'taucater' role to end a game!"
	if reply.Text != want {
		t.Errorf("reply = %q, expected %q", reply.Text, want)
	}
}

func TestLeaderboardEmpty(t *testing.T) {
	f := newHandlerFixture()

	reply := f.handler.Dispatch(context.Background(), inv("leaderboard", memberCaller, nil))
	if !strings.Contains(reply.Text, "No scores yet!") {
		t.Errorf("reply = %q, expected empty-board placeholder", reply.Text)
	}
	if !strings.Contains(reply.Text, "Reaper Leaderboard") {
		t.Errorf("reply = %q, expected title", reply.Text)
	}
}

func TestLeaderboardRendering(t *testing.T) {
	f := newHandlerFixture()
	f.chat.names["u-member"] = "pleb"
	f.startGame(t, 1000, 0)
	ctx := context.Background()

	f.clock.Advance(42 * time.Second)
	f.handler.Dispatch(ctx, inv("reap", memberCaller, nil))

	reply := f.handler.Dispatch(ctx, inv("leaderboard", memberCaller, nil))
	for _, want := range []string{
		"Current Game Info",
		"Game #1",
		"Target: 1000 seconds",
		"1. pleb: 42 seconds",
	} {
		if !strings.Contains(reply.Text, want) {
			t.Errorf("reply missing %q:\n%s", want, reply.Text)
		}
	}
}

func TestLeaderboardUnknownUserFallback(t *testing.T) {
	f := newHandlerFixture()
	f.startGame(t, 1000, 0)
	ctx := context.Background()

	f.clock.Advance(10 * time.Second)
	f.handler.Dispatch(ctx, inv("reap", memberCaller, nil))

	reply := f.handler.Dispatch(ctx, inv("leaderboard", adminCaller, nil))
	if !strings.Contains(reply.Text, "Unknown User (u-member)") {
		t.Errorf("reply = %q, expected unknown-user fallback", reply.Text)
	}
}
