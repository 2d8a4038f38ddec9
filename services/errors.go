package services

import "errors"

// Errors shared across services and the HTTP error mapping.
var (
	// Referenced entity absent.
	ErrNotFound         = errors.New("requested resource not found")
	ErrCupNotFound      = errors.New("cup not found")
	ErrMatchNotFound    = errors.New("match not found")
	ErrEventNotFound    = errors.New("event not found")
	ErrProposalNotFound = errors.New("date proposal not found")
	ErrTeamNotFound     = errors.New("team not found")
	ErrUserNotFound     = errors.New("user not found")

	// Caller is not a party to the entity.
	ErrForbiddenOperation = errors.New("operation not allowed for the current user")
	ErrNotInvited         = errors.New("participant is not invited to this event")
	ErrOrganizerOnly      = errors.New("only the cup organizer can perform this action")

	// Validation and business rules.
	ErrValidationFailed         = errors.New("validation failed")
	ErrInsufficientParticipants = errors.New("at least 2 teams are required")
	ErrDuplicateTeams           = errors.New("duplicate team ids in cup registration")
	ErrInvalidSeedingMode       = errors.New("seeding mode must be random or ranked")
	ErrInvalidResponse          = errors.New("response must be confirmed, declined or maybe")
	ErrInvalidWinner            = errors.New("winner must be one of the match's two teams")
	ErrMatchNotPlayable         = errors.New("match does not have both teams assigned yet")
	ErrCupNotDraft              = errors.New("cup has already been started")
	ErrCupNotInProgress         = errors.New("cup is not in progress")

	// Idempotency violation: the same match reported with a different winner.
	ErrResultConflict = errors.New("match already decided with a different winner")

	// Auth.
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrAuthEmailTaken         = errors.New("email is already taken")
	ErrPasswordTooShort       = errors.New("password is too short")
)
