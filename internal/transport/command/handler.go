// Package command dispatches chat-platform invocations to the game
// service and renders the user-facing replies. It is deliberately thin:
// channel gating and message text live here, all game rules live in the
// service.
package command

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/taucat/reaper/internal/model"
	"github.com/taucat/reaper/internal/platform"
	"github.com/taucat/reaper/internal/service"
)

// Handler routes invocations to the game service.
type Handler struct {
	games       *service.GameService
	chat        platform.Chat
	channelName string
	adminRole   string
}

// NewHandler creates a new command handler. channelName is the only
// channel game commands are accepted in; adminRole is referenced in
// error replies so callers know which role they are missing.
func NewHandler(games *service.GameService, chat platform.Chat, channelName, adminRole string) *Handler {
	return &Handler{
		games:       games,
		chat:        chat,
		channelName: channelName,
		adminRole:   adminRole,
	}
}

// Dispatch handles one invocation and returns the direct reply.
func (h *Handler) Dispatch(ctx context.Context, inv platform.Invocation) platform.Reply {
	switch inv.Command {
	case "start":
		return h.handleStart(ctx, inv)
	case "reap":
		return h.handleReap(ctx, inv)
	case "end":
		return h.handleEnd(ctx, inv)
	case "leaderboard":
		return h.handleLeaderboard(ctx, inv)
	default:
		return ephemeral(fmt.Sprintf("Unknown command: %s", inv.Command))
	}
}

func (h *Handler) handleStart(ctx context.Context, inv platform.Invocation) platform.Reply {
	if inv.ChannelName != h.channelName {
		return ephemeral(fmt.Sprintf("This command can only be used in the #%s channel. Please create one!", h.channelName))
	}

	cooldown, err := intArg(inv, "cooldown")
	if err != nil {
		return ephemeral("The cooldown must be a whole number of seconds.")
	}
	target, err := intArg(inv, "end")
	if err != nil {
		return ephemeral("The end target must be a whole number of seconds.")
	}

	_, err = h.games.Start(ctx, inv.ServerID, inv.ChannelID, inv.Caller, target, cooldown)
	switch {
	case err == nil:
		return ephemeral("Game started successfully!")
	case errors.Is(err, model.ErrUnauthorized):
		return ephemeral(fmt.Sprintf("You need the '%s' role to start a game!", h.adminRole))
	case errors.Is(err, model.ErrGameActive):
		return ephemeral("A game is already in progress!")
	case errors.Is(err, model.ErrInvalidParameter):
		return ephemeral("Invalid parameters: the end target must be positive and the cooldown cannot be negative.")
	default:
		return h.failure(inv, "start", err)
	}
}

func (h *Handler) handleReap(ctx context.Context, inv platform.Invocation) platform.Reply {
	if inv.ChannelName != h.channelName {
		return ephemeral(fmt.Sprintf("This command can only be used in the #%s channel!", h.channelName))
	}

	result, err := h.games.Reap(ctx, inv.ServerID, inv.Caller.ID)
	if err != nil {
		var cooldown *model.CooldownError
		switch {
		case errors.Is(err, model.ErrNoActiveGame):
			return ephemeral("No game is currently running!")
		case errors.As(err, &cooldown):
			return ephemeral(fmt.Sprintf("You must wait %d more seconds!", cooldown.RemainingSeconds))
		default:
			return h.failure(inv, "reap", err)
		}
	}

	return platform.Reply{
		Text: fmt.Sprintf("Reaped %d seconds! Your current score is now %d!", result.Reaped, result.NewTotal),
	}
}

func (h *Handler) handleEnd(ctx context.Context, inv platform.Invocation) platform.Reply {
	summary, err := h.games.End(ctx, inv.ServerID, inv.Caller, inv.Args["reason"])
	switch {
	case errors.Is(err, model.ErrUnauthorized):
		return ephemeral(fmt.Sprintf("You need the '%s' role to end a game!", h.adminRole))
	case errors.Is(err, model.ErrNoActiveGame):
		return ephemeral("No game is currently running!")
	case err != nil:
		return h.failure(inv, "end", err)
	}

	text := fmt.Sprintf("Game %d ended by %s", summary.GameNumber, callerName(inv.Caller))
	if summary.Reason != "" {
		text += fmt.Sprintf("\nReason: %s", summary.Reason)
	}
	return platform.Reply{Text: text}
}

func (h *Handler) handleLeaderboard(ctx context.Context, inv platform.Invocation) platform.Reply {
	view, err := h.games.Leaderboard(ctx, inv.ServerID, inv.Caller.ID)
	if err != nil {
		return h.failure(inv, "leaderboard", err)
	}

	var b ReplyBuilder
	b.Title("Reaper Leaderboard")

	if view.Game != nil {
		b.Field("Current Game Info", fmt.Sprintf(
			"Game #%d\nTarget: %d seconds\nCooldown: %d seconds\nCurrent Count: %d seconds",
			view.Game.GameNumber, view.Game.TargetSeconds, view.Game.CooldownSeconds, view.Game.CurrentCount,
		))
	}

	var lines []string
	for rank, score := range view.Top {
		lines = append(lines, fmt.Sprintf("%d. %s: %d seconds", rank+1, h.userName(ctx, score.PlayerID), score.Seconds))
	}
	top := strings.Join(lines, "\n")
	if top == "" {
		top = "No scores yet!"
	}
	b.Field("Top 10", top)

	if view.Requester != nil && !view.RequesterInTop {
		b.Field("Your Score", fmt.Sprintf("%s: %d seconds", h.userName(ctx, inv.Caller.ID), view.Requester.Seconds))
	}

	return platform.Reply{Text: b.String()}
}

// userName resolves a display name, falling back to a recognizable
// placeholder when the platform no longer knows the user.
func (h *Handler) userName(ctx context.Context, playerID string) string {
	name, err := h.chat.FetchUserName(ctx, playerID)
	if err != nil {
		return fmt.Sprintf("Unknown User (%s)", playerID)
	}
	return name
}

func (h *Handler) failure(inv platform.Invocation, cmd string, err error) platform.Reply {
	log.Error().Err(err).
		Str("command", cmd).
		Str("server_id", inv.ServerID).
		Str("caller_id", inv.Caller.ID).
		Msg("command failed")
	return ephemeral("Something went wrong. Please try again later.")
}

func callerName(c platform.Caller) string {
	if c.Name != "" {
		return c.Name
	}
	return c.ID
}

func ephemeral(text string) platform.Reply {
	return platform.Reply{Text: text, Ephemeral: true}
}

func intArg(inv platform.Invocation, key string) (int, error) {
	raw, ok := inv.Args[key]
	if !ok {
		return 0, fmt.Errorf("missing argument %q", key)
	}
	return strconv.Atoi(raw)
}
