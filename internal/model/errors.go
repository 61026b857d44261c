package model

import (
	"errors"
	"fmt"
)

// Command-scoped errors. All of these are terminal for a single command
// invocation and carry enough detail for the caller to self-correct;
// none are fatal to the process.
var (
	ErrUnauthorized     = errors.New("missing required role")
	ErrGameActive       = errors.New("a game is already in progress")
	ErrNoActiveGame     = errors.New("no game is currently running")
	ErrInvalidParameter = errors.New("invalid game parameter")
)

// CooldownError is returned when a player reaps before their personal
// cooldown has elapsed.
type CooldownError struct {
	RemainingSeconds int
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("on cooldown for %d more seconds", e.RemainingSeconds)
}
