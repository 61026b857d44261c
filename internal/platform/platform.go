// Package platform defines the narrow capability surface the game core
// needs from the host chat platform. The platform itself (gateway
// connection, command registration, rendering) lives outside this
// process; commands arrive as discrete Invocations and outbound effects
// go through the Chat interface.
package platform

import (
	"context"
	"errors"
)

// ErrNotFound is returned by best-effort lookups: a pinned message that
// was deleted, a user that left. Callers are expected to swallow it.
var ErrNotFound = errors.New("platform: not found")

// MessageRef is an opaque handle to a message the platform delivered,
// usable for pinning and unpinning.
type MessageRef string

// Chat is the outbound capability set the game consumes.
type Chat interface {
	// SendMessage posts text to a channel and returns a handle to the
	// created message.
	SendMessage(ctx context.Context, channelID, text string) (MessageRef, error)

	// PinMessage pins a previously sent message.
	PinMessage(ctx context.Context, channelID string, ref MessageRef) error

	// UnpinMessage unpins a message. Returns ErrNotFound when the
	// message no longer exists.
	UnpinMessage(ctx context.Context, channelID string, ref MessageRef) error

	// FetchUserName resolves a player id to a display name. Returns
	// ErrNotFound when the user is unknown to the platform.
	FetchUserName(ctx context.Context, userID string) (string, error)
}

// Caller identifies who issued a command and what roles they hold. Role
// membership is resolved by the platform before the invocation reaches
// us; the core only asks yes/no questions about it.
type Caller struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Roles []string `json:"roles"`
}

// HasRole reports whether the caller holds the named role.
func (c Caller) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Invocation is one discrete command dispatched by the platform.
type Invocation struct {
	Command     string            `json:"command"`
	ServerID    string            `json:"serverId"`
	ChannelID   string            `json:"channelId"`
	ChannelName string            `json:"channelName"`
	Caller      Caller            `json:"caller"`
	Args        map[string]string `json:"args,omitempty"`
}

// Reply is the direct response to an invocation. Ephemeral replies are
// shown only to the caller.
type Reply struct {
	Text      string `json:"text"`
	Ephemeral bool   `json:"ephemeral"`
}
