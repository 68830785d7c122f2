package entity

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
)

// Mark is the symbol a participant places on the board. X always moves first.
type Mark string

const (
	MarkNone Mark = ""
	MarkX    Mark = "X"
	MarkO    Mark = "O"
)

// Opponent returns the other mark.
func (m Mark) Opponent() Mark {
	if m == MarkX {
		return MarkO
	}
	return MarkX
}

type OutcomeKind string

const (
	OutcomeWin  OutcomeKind = "win"
	OutcomeDraw OutcomeKind = "draw"
)

// Outcome is set once the game is over and never changes afterwards.
type Outcome struct {
	Kind   OutcomeKind `json:"kind"`
	Winner Mark        `json:"winner,omitempty"`
	Line   []int       `json:"line,omitempty"`
}

const BoardSize = 9

// WinCombos are checked in this order; the first complete one is reported.
var WinCombos = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

type Board struct {
	Cells      [BoardSize]Mark `json:"cells"`
	NextToMove Mark            `json:"next_to_move"`
	Outcome    *Outcome        `json:"outcome,omitempty"`
}

func NewBoard() Board {
	return Board{NextToMove: MarkX}
}

func (that Board) IsOver() bool {
	return that.Outcome != nil
}

// ApplyMove places the NextToMove mark on cell and returns the resulting board.
// The passed board is left untouched.
func ApplyMove(board Board, cell int) (Board, error) {
	if cell < 0 || cell >= BoardSize {
		return board, fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, cell)
	}

	if board.Cells[cell] != MarkNone {
		return board, fmt.Errorf("%w: cell %d", apperror.ErrCellOccupied, cell)
	}

	if board.IsOver() {
		return board, apperror.ErrGameFinished
	}

	next := board
	next.Cells[cell] = board.NextToMove

	if outcome := DetermineOutcome(next.Cells); outcome != nil {
		next.Outcome = outcome
		return next, nil
	}

	next.NextToMove = board.NextToMove.Opponent()

	return next, nil
}

// DetermineOutcome scans every line, not only the ones through the last move.
func DetermineOutcome(cells [BoardSize]Mark) *Outcome {
	for _, combo := range WinCombos {
		a, b, c := cells[combo[0]], cells[combo[1]], cells[combo[2]]
		if a != MarkNone && a == b && b == c {
			return &Outcome{
				Kind:   OutcomeWin,
				Winner: a,
				Line:   []int{combo[0], combo[1], combo[2]},
			}
		}
	}

	// the game will continue until all the squares are full
	for _, cell := range cells {
		if cell == MarkNone {
			return nil
		}
	}

	return &Outcome{Kind: OutcomeDraw}
}
