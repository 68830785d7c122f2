package entity

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/samber/lo"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
)

type State string

const (
	StateEmpty      State = "empty"
	StateWaiting    State = "waiting"
	StateReady      State = "ready"
	StateInProgress State = "in_progress"
	StateFinished   State = "finished"
)

// Randomizer picks the starting slot on reset.
type Randomizer interface {
	IntN(n int) int
}

type RandomizerFunc func(n int) int

func (f RandomizerFunc) IntN(n int) int {
	return f(n)
}

func DefaultRandomizer() Randomizer {
	return RandomizerFunc(rand.IntN)
}

// Session is one two-player room. It is not safe for concurrent use: callers
// serialize access per session (see repository.SessionRepository).
//
// Every method either fails and leaves the session untouched, or succeeds and
// bumps Version.
type Session struct {
	Code         string
	Participants [2]*Participant
	Board        Board
	Started      bool
	Version      uint64
}

func NewSession(code string) *Session {
	return &Session{
		Code:  code,
		Board: NewBoard(),
	}
}

func (that *Session) State() State {
	switch {
	case that.Participants[SlotA.index()] == nil:
		return StateEmpty
	case !that.IsFull():
		return StateWaiting
	case !that.Started:
		return StateReady
	case that.Board.IsOver():
		return StateFinished
	default:
		return StateInProgress
	}
}

func (that *Session) IsFull() bool {
	return that.Participants[SlotA.index()] != nil && that.Participants[SlotB.index()] != nil
}

func (that *Session) ParticipantByID(id string) *Participant {
	if id == "" {
		return nil
	}

	for _, p := range that.Participants {
		if p != nil && p.ID == id {
			return p
		}
	}

	return nil
}

func (that *Session) ParticipantBySlot(slot Slot) *Participant {
	return that.Participants[slot.index()]
}

// Join seats a new participant in the first open slot.
func (that *Session) Join(id, name string) (Participant, error) {
	if that.IsFull() {
		return Participant{}, fmt.Errorf("%w: session %s", apperror.ErrSessionFull, that.Code)
	}

	slot := SlotA
	if that.Participants[SlotA.index()] != nil {
		slot = SlotB
	}

	participant := &Participant{
		ID:   id,
		Name: name,
		Slot: slot,
	}
	that.Participants[slot.index()] = participant
	that.Version++

	return *participant, nil
}

// Start gives X to the participant in startingSlot and clears the board.
// A game already in progress is abandoned and restarted.
func (that *Session) Start(requesterID string, startingSlot Slot) error {
	if !that.IsFull() {
		return apperror.ErrNotReady
	}

	if that.ParticipantByID(requesterID) == nil {
		return apperror.ErrInvalidParticipant
	}

	if !startingSlot.Valid() {
		return fmt.Errorf("%w: slot %q", apperror.ErrInvalidInput, startingSlot)
	}

	that.begin(startingSlot)

	return nil
}

// ApplyTurn plays cell for the requester if the board is waiting for their mark.
func (that *Session) ApplyTurn(requesterID string, cell int) error {
	if !that.Started {
		return apperror.ErrGameIsNotStarted
	}

	participant := that.ParticipantByID(requesterID)
	if participant == nil {
		return apperror.ErrInvalidParticipant
	}

	if participant.Mark != that.Board.NextToMove {
		return apperror.ErrNotYourTurn
	}

	board, err := ApplyMove(that.Board, cell)
	if err != nil {
		return err
	}

	that.Board = board
	that.Version++

	return nil
}

// Reset starts a new round with the same participants once the current one is over.
func (that *Session) Reset(random Randomizer) error {
	if !that.Board.IsOver() {
		return apperror.ErrGameInProgress
	}

	startingSlot := SlotA
	if random.IntN(2) == 1 {
		startingSlot = SlotB
	}

	that.begin(startingSlot)

	return nil
}

func (that *Session) begin(startingSlot Slot) {
	for _, p := range that.Participants {
		if p.Slot == startingSlot {
			p.Mark = MarkX
		} else {
			p.Mark = MarkO
		}
	}

	that.Board = NewBoard()
	that.Started = true
	that.Version++
}

// CurrentMover returns the participant whose mark is next to move, nil when
// nobody is expected to move.
func (that *Session) CurrentMover() *Participant {
	if that.State() != StateInProgress {
		return nil
	}

	for _, p := range that.Participants {
		if p.Mark == that.Board.NextToMove {
			return p
		}
	}

	return nil
}

// Snapshot is the externally visible state of a session at one Version.
type Snapshot struct {
	Code         string            `json:"code"`
	State        State             `json:"state"`
	Started      bool              `json:"started"`
	Participants []ParticipantView `json:"participants"`
	Board        Board             `json:"board"`
	Version      uint64            `json:"version"`
}

// Snapshot returns a deep copy that stays valid after the session changes.
func (that *Session) Snapshot() Snapshot {
	board := that.Board
	if board.Outcome != nil {
		outcome := *board.Outcome
		outcome.Line = slices.Clone(outcome.Line)
		board.Outcome = &outcome
	}

	participants := lo.FilterMap(that.Participants[:], func(p *Participant, _ int) (ParticipantView, bool) {
		if p == nil {
			return ParticipantView{}, false
		}
		return p.View(), true
	})

	return Snapshot{
		Code:         that.Code,
		State:        that.State(),
		Started:      that.Started,
		Participants: participants,
		Board:        board,
		Version:      that.Version,
	}
}
