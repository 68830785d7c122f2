package apperror

import "errors"

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionFull        = errors.New("session is full")
	ErrNotReady           = errors.New("waiting for both players to join")
	ErrInvalidParticipant = errors.New("invalid participant")
	ErrGameIsNotStarted   = errors.New("game is not started")
	ErrGameInProgress     = errors.New("game is still in progress")
	ErrNotYourTurn        = errors.New("it's not your turn")
	ErrCellOccupied       = errors.New("cell is already occupied")
	ErrInvalidCell        = errors.New("invalid cell index")
	ErrGameFinished       = errors.New("game is already finished")
	ErrInvalidInput       = errors.New("invalid input")
)

// Kind classifies an error for the caller: it decides the HTTP status and
// whether the client may fix the request and send it again.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindConflict
	KindUnauthorized
	KindInvalidInput
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindInvalidInput:
		return "invalid_input"
	default:
		return "internal"
	}
}

type classified struct {
	err  error
	kind Kind
	code string
}

var taxonomy = []classified{
	{ErrSessionNotFound, KindNotFound, "SESSION_NOT_FOUND"},
	{ErrSessionFull, KindConflict, "SESSION_FULL"},
	{ErrNotReady, KindConflict, "NOT_READY"},
	{ErrGameIsNotStarted, KindConflict, "NOT_STARTED"},
	{ErrGameInProgress, KindConflict, "GAME_IN_PROGRESS"},
	{ErrNotYourTurn, KindConflict, "NOT_YOUR_TURN"},
	{ErrCellOccupied, KindConflict, "CELL_OCCUPIED"},
	{ErrGameFinished, KindConflict, "GAME_OVER"},
	{ErrInvalidParticipant, KindUnauthorized, "INVALID_PARTICIPANT"},
	{ErrInvalidCell, KindInvalidInput, "OUT_OF_RANGE"},
	{ErrInvalidInput, KindInvalidInput, "INVALID_INPUT"},
}

func lookup(err error) (classified, bool) {
	for _, c := range taxonomy {
		if errors.Is(err, c.err) {
			return c, true
		}
	}

	return classified{}, false
}

// KindOf returns the taxonomy kind of err, KindInternal for anything unknown.
func KindOf(err error) Kind {
	if c, ok := lookup(err); ok {
		return c.kind
	}

	return KindInternal
}

// Code returns the stable wire code of err.
func Code(err error) string {
	if c, ok := lookup(err); ok {
		return c.code
	}

	return "INTERNAL"
}
