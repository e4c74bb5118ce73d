// Package economy defines the shared vocabulary of the economy engine: the
// expected error taxonomy, the random source, and unguessable code
// generation. Every core operation returns either a plain result or one of
// these errors; the HTTP adapter maps them to response codes, and none of
// them is fatal.
package economy

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound covers unknown currencies, jobs, exchange codes and game codes.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState signals an action invalid for the entity's current state,
	// such as resolving an already-resolved exchange or game.
	ErrInvalidState = errors.New("invalid state")
	// ErrExpired signals an entity past its expiry timestamp.
	ErrExpired = errors.New("expired")
	// ErrInsufficientFunds signals a balance below the amount an operation needs.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrConflict signals an already-held exclusive resource: an active
	// exchange, an active game, or an already-assigned job.
	ErrConflict = errors.New("conflict")
	// ErrNoJob signals an operation that requires employment from an
	// unemployed user.
	ErrNoJob = errors.New("no job held")
)

// CooldownError rejects an action still under a timed lock. Remaining is the
// time until the lock lapses.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("on cooldown for %s", e.Remaining.Round(time.Second))
}

// ValidationError rejects malformed input before any state is touched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// AsCooldown unwraps a CooldownError if err carries one.
func AsCooldown(err error) (*CooldownError, bool) {
	var ce *CooldownError
	ok := errors.As(err, &ce)
	return ce, ok
}

// AsValidation unwraps a ValidationError if err carries one.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}
