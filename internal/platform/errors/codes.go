// Package errors provides structured error handling for the game service.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Game lifecycle errors
	CodeGameAlreadyStarted Code = "GAME_ALREADY_STARTED"
	CodeGameNotStarted     Code = "GAME_NOT_STARTED"
	CodeGameAlreadyOver    Code = "GAME_ALREADY_OVER"
	CodeWinnerAlreadySet   Code = "WINNER_ALREADY_SET"
	CodeInvalidJoinPin     Code = "INVALID_JOIN_PIN"

	// Assignment errors
	CodeInsufficientPlayers Code = "INSUFFICIENT_PLAYERS"
	CodeInsufficientGroups  Code = "INSUFFICIENT_GROUPS"

	// Player errors
	CodePlayerNameRequired       Code = "PLAYER_NAME_REQUIRED"
	CodePlayerGroupRequired      Code = "PLAYER_GROUP_REQUIRED"
	CodePlayerNotFound           Code = "PLAYER_NOT_FOUND"
	CodeAmbiguousPlayerName      Code = "AMBIGUOUS_PLAYER_NAME"
	CodePlayerNameAlreadyTaken   Code = "PLAYER_NAME_ALREADY_TAKEN"
	CodeVictimNotFound           Code = "VICTIM_NOT_FOUND"
	CodeVictimAlreadyEliminated  Code = "VICTIM_ALREADY_ELIMINATED"
	CodePlayerAlreadyEliminated  Code = "PLAYER_ALREADY_ELIMINATED"
	CodeSelfEliminationForbidden Code = "SELF_ELIMINATION_FORBIDDEN"

	// Proof errors
	CodeProofNotFound       Code = "PROOF_NOT_FOUND"
	CodeProofTargetRequired Code = "PROOF_TARGET_REQUIRED"
	CodeInvalidProofState   Code = "INVALID_PROOF_STATE"

	// Bounty errors
	CodeBountyTargetRequired Code = "BOUNTY_TARGET_REQUIRED"

	// Admin grant errors
	CodeAdminGrantInvalid Code = "ADMIN_GRANT_INVALID"
	CodeAdminGrantExpired Code = "ADMIN_GRANT_EXPIRED"

	// Storage errors
	CodeNotFound        Code = "NOT_FOUND"
	CodeStaleGeneration Code = "STALE_GENERATION"
)

// HTTPStatus maps domain codes to HTTP status codes for the REST surface.
func (c Code) HTTPStatus() int {
	switch c {
	// Bad request - validation failures, bad input
	case CodePlayerNameRequired,
		CodePlayerGroupRequired,
		CodeProofTargetRequired,
		CodeBountyTargetRequired,
		CodeSelfEliminationForbidden,
		CodeInsufficientPlayers,
		CodeInsufficientGroups:
		return http.StatusBadRequest

	// Unauthorized - join pin mismatch, bad admin grants
	case CodeInvalidJoinPin,
		CodeAdminGrantInvalid,
		CodeAdminGrantExpired:
		return http.StatusUnauthorized

	// Not found - resource doesn't exist
	case CodeNotFound,
		CodePlayerNotFound,
		CodeVictimNotFound,
		CodeProofNotFound:
		return http.StatusNotFound

	// Conflict - state doesn't allow the operation
	case CodeGameAlreadyStarted,
		CodeGameNotStarted,
		CodeGameAlreadyOver,
		CodeWinnerAlreadySet,
		CodeAmbiguousPlayerName,
		CodePlayerNameAlreadyTaken,
		CodeVictimAlreadyEliminated,
		CodePlayerAlreadyEliminated,
		CodeInvalidProofState,
		CodeStaleGeneration:
		return http.StatusConflict

	default:
		return http.StatusInternalServerError
	}
}
