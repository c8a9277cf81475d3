package game

import (
	"errors"

	"github.com/lox/pokertable/poker"
)

var (
	ErrNotYourTurn         = errors.New("not your turn")
	ErrIllegalAction       = errors.New("illegal action")
	ErrPhaseMismatch       = errors.New("phase mismatch")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInsufficientChips   = errors.New("insufficient chips")
	ErrTableFull           = errors.New("table full")
	ErrTableNotFound       = errors.New("table not found")
	ErrPlayerNotFound      = errors.New("player not found")
	ErrRailbirdNotFound    = errors.New("railbird not found")
	ErrInvalidPassword     = errors.New("invalid password")
	ErrInvalidName         = errors.New("invalid display name")
	ErrInvalidUID          = errors.New("invalid uid")
	ErrForbidden           = errors.New("forbidden")
	ErrInternalState       = errors.New("internal state error")

	// ErrNotDue is returned by ApplyTimeout when the deadline has not passed
	// or there is nobody to time out.
	ErrNotDue = errors.New("turn deadline not reached")
)

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrNotYourTurn, "NOT_YOUR_TURN"},
	{ErrIllegalAction, "ILLEGAL_ACTION"},
	{ErrPhaseMismatch, "PHASE_MISMATCH"},
	{ErrInsufficientBalance, "INSUFFICIENT_BALANCE"},
	{ErrInsufficientChips, "INSUFFICIENT_CHIPS"},
	{ErrTableFull, "TABLE_FULL"},
	{ErrTableNotFound, "TABLE_NOT_FOUND"},
	{ErrPlayerNotFound, "PLAYER_NOT_FOUND"},
	{ErrRailbirdNotFound, "RAILBIRD_NOT_FOUND"},
	{ErrInvalidPassword, "INVALID_PASSWORD"},
	{ErrInvalidName, "INVALID_NAME"},
	{ErrInvalidUID, "INVALID_UID"},
	{ErrForbidden, "FORBIDDEN"},
	{ErrNotDue, "NOT_DUE"},
	{poker.ErrDeckExhausted, "DECK_EXHAUSTED"},
	{ErrInternalState, "INTERNAL_STATE_ERROR"},
}

// ErrorCode maps an error from a transition to its stable wire code. Errors
// that are not table errors map to "INTERNAL".
func ErrorCode(err error) string {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return "INTERNAL"
}
