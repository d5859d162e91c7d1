package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a game session is unknown or already released.
	ErrSessionNotFound = errors.New("game session not found")
	// ErrProfileNotFound is returned when no profile is stored for a user id.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrEmptyName rejects profile creation without a display name.
	ErrEmptyName = errors.New("name must not be empty")
	// ErrGameNotFound indicates a game id outside the catalog.
	ErrGameNotFound = errors.New("game not found")
	// ErrInvalidDifficulty indicates a difficulty tier outside 1..3.
	ErrInvalidDifficulty = errors.New("difficulty must be 1, 2 or 3")
	// ErrOptionOutOfRange indicates a selected option index the question does not have.
	ErrOptionOutOfRange = errors.New("option out of range")
	// ErrSessionNotCompleted is returned when results are requested before the last question resolved.
	ErrSessionNotCompleted = errors.New("session not completed")
	// ErrSessionClosed is returned for any action on a released session.
	ErrSessionClosed = errors.New("session closed")
)
