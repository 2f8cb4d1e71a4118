package services

import "errors"

// Errors shared across services and the HTTP mapping. Every bracket operation
// either fully succeeds or fully no-ops; none of these are fatal.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Validation and business rules
	ErrValidationFailed         = errors.New("validation failed")
	ErrEventTitleRequired       = errors.New("event title is required")
	ErrEventInvalidType         = errors.New("invalid event type")
	ErrEventInvalidTeamSize     = errors.New("event team size must be at least 1")
	ErrEventEnded               = errors.New("event has already ended")
	ErrAlreadyJoined            = errors.New("already registered for this event")
	ErrNotJoined                = errors.New("not registered for this event")
	ErrNotTournament            = errors.New("bracket operations require a tournament event")
	ErrNotGiveaway              = errors.New("winner draw requires a giveaway event")
	ErrGiveawayNoParticipants   = errors.New("giveaway has no participants to draw from")
	ErrTeamNameRequired         = errors.New("team name is required")
	ErrInsufficientParticipants = errors.New("need at least 2 teams")
	ErrBracketAlreadyGenerated  = errors.New("bracket has already been generated")
	ErrBracketNotGenerated      = errors.New("bracket has not been generated")

	// Conflicts
	ErrUserUsernameConflict = errors.New("username is already taken")
	ErrUserEmailConflict    = errors.New("email address is already in use")
	ErrTeamNameConflict     = errors.New("team name is already in use")
	ErrTeamMemberConflict   = errors.New("user is already on the team")
	ErrTeamMemberNotFound   = errors.New("user is not on the team")
	// ErrEventConflict surfaces a lost optimistic-concurrency race; the
	// caller should refresh and retry.
	ErrEventConflict = errors.New("event was modified concurrently, refresh and retry")

	// Authentication and authorization
	ErrAuthInvalidCredentials = errors.New("invalid username or password")
	ErrForbiddenOperation     = errors.New("operation not allowed for the current user")

	// Entity-specific not-found variants
	ErrUserNotFound  = errors.New("user not found")
	ErrTeamNotFound  = errors.New("team not found")
	ErrEventNotFound = errors.New("event not found")
)
