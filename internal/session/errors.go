package session

import "github.com/cockroachdb/errors"

var (
	// ErrMissingIdentity is returned by Submit when no username is set.
	ErrMissingIdentity = errors.New("username is required")

	// ErrStaleResponse is returned when a call resolves after the session
	// moved on. Callers discard it silently.
	ErrStaleResponse = errors.New("stale response discarded")

	// ErrBusy is returned when the same action is already outstanding.
	ErrBusy = errors.New("action already in progress")

	// ErrInvalidTransition is returned for actions the current step does not allow.
	ErrInvalidTransition = errors.New("action not allowed in current step")

	// ErrChallengeClosed is returned by Submit once the result is showing.
	ErrChallengeClosed = errors.New("challenge finished, start a new one")

	// ErrSolutionLocked is returned when the solution is requested too early.
	ErrSolutionLocked = errors.New("solution unlocks after all attempts are used")

	// ErrEmptyCatalog is returned when there is nothing to choose from.
	ErrEmptyCatalog = errors.New("no options available")

	// ErrUnknownOption is returned for a choice outside the catalog.
	ErrUnknownOption = errors.New("unknown option")

	// ErrNoHints is returned when the service has no hints for the challenge.
	ErrNoHints = errors.New("no hints available")
)
