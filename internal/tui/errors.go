package tui

import (
	"strings"
	"unicode/utf8"

	"github.com/cockroachdb/errors"

	"github.com/verte-zerg/ctfsensei/internal/api"
	"github.com/verte-zerg/ctfsensei/internal/catalog"
	"github.com/verte-zerg/ctfsensei/internal/session"
)

const (
	minUsernameLen = 2
	maxUsernameLen = 20
)

var errUsernameLength = errors.Newf("username must be %d to %d characters", minUsernameLen, maxUsernameLen)

// ValidateUsername trims name and checks its length.
func ValidateUsername(name string) (string, error) {
	name = strings.TrimSpace(name)
	n := utf8.RuneCountInString(name)
	if n < minUsernameLen || n > maxUsernameLen {
		return "", errUsernameLength
	}
	return name, nil
}

// errorText maps err to the line shown in the footer. Stale results map to
// the empty string.
func errorText(err error) string {
	switch {
	case err == nil, errors.Is(err, session.ErrStaleResponse):
		return ""
	case errors.Is(err, session.ErrMissingIdentity):
		return "Enter a username first."
	case errors.Is(err, session.ErrBusy):
		return "Still waiting for the previous request."
	case errors.Is(err, session.ErrChallengeClosed):
		return "This challenge is over. Press n for a new one."
	case errors.Is(err, session.ErrSolutionLocked):
		return "The solution unlocks after 3 attempts."
	case errors.Is(err, session.ErrEmptyCatalog):
		return "No options loaded yet. Press r to reload."
	case errors.Is(err, session.ErrUnknownOption):
		return "That option is not available."
	case errors.Is(err, session.ErrNoHints):
		return "No hints available for this challenge."
	case errors.Is(err, session.ErrInvalidTransition):
		return "That action is not available right now."
	case errors.Is(err, catalog.ErrLoadInProgress):
		return "Still loading options."
	case errors.Is(err, errUsernameLength):
		return "Username must be 2 to 20 characters."
	}
	return api.UserMessage(err)
}
