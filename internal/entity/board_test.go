package entity

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
)

// play applies cells in order starting from an empty board.
func play(t *testing.T, cells ...int) Board {
	t.Helper()

	board := NewBoard()
	for _, cell := range cells {
		var err error
		board, err = ApplyMove(board, cell)
		require.NoError(t, err, "move %d", cell)
	}

	return board
}

func TestNewBoard(t *testing.T) {
	// When: a new board is created
	board := NewBoard()

	// Then: it is empty, X moves first and there is no outcome
	assert.Equal(t, [BoardSize]Mark{}, board.Cells)
	assert.Equal(t, MarkX, board.NextToMove)
	assert.Nil(t, board.Outcome)
	assert.False(t, board.IsOver())
}

func TestApplyMove(t *testing.T) {
	t.Run("Successful move flips the mover", func(t *testing.T) {
		// Given: a new board
		board := NewBoard()

		// When: X plays the center
		next, err := ApplyMove(board, 4)
		require.NoError(t, err)

		// Then: the cell is marked and O is next
		expected := Board{NextToMove: MarkO}
		expected.Cells[4] = MarkX
		assert.Equal(t, expected, next)
	})

	t.Run("Input board is not modified", func(t *testing.T) {
		// Given: a board with one move
		board := play(t, 0)

		// When: another move is applied
		_, err := ApplyMove(board, 1)
		require.NoError(t, err)

		// Then: the original value still has a single mark
		assert.Equal(t, MarkNone, board.Cells[1])
		assert.Equal(t, MarkO, board.NextToMove)
	})

	t.Run("Error on cell out of range", func(t *testing.T) {
		for _, cell := range []int{-1, 9, 20} {
			// When: an invalid cell index is passed
			next, err := ApplyMove(NewBoard(), cell)

			// Then: ErrInvalidCell is returned and the board is unchanged
			require.ErrorIs(t, err, apperror.ErrInvalidCell)
			assert.Equal(t, NewBoard(), next)
		}
	})

	t.Run("Error on cell already occupied", func(t *testing.T) {
		// Given: a board where X holds cell 0
		board := play(t, 0)

		// When: O tries the same cell
		next, err := ApplyMove(board, 0)

		// Then: ErrCellOccupied is returned and nothing changed
		require.ErrorIs(t, err, apperror.ErrCellOccupied)
		assert.Equal(t, board, next)
	})

	t.Run("Error once the game is over", func(t *testing.T) {
		// Given: X won on the top row
		board := play(t, 0, 3, 1, 4, 2)
		require.True(t, board.IsOver())

		// When: another move is attempted on a free cell
		_, err := ApplyMove(board, 8)

		// Then: ErrGameFinished is returned
		require.ErrorIs(t, err, apperror.ErrGameFinished)
	})
}

func TestApplyMove_EveryWinningLine(t *testing.T) {
	for _, combo := range WinCombos {
		t.Run(fmt.Sprintf("X wins on %v", combo), func(t *testing.T) {
			// Given: X takes the line while O plays two cells outside of it
			var filler []int
			for cell := 0; cell < BoardSize && len(filler) < 2; cell++ {
				if !lineContains(combo, cell) {
					filler = append(filler, cell)
				}
			}
			require.Len(t, filler, 2)

			// When: the moves are played
			board := play(t, combo[0], filler[0], combo[1], filler[1], combo[2])

			// Then: X wins with this exact line
			require.NotNil(t, board.Outcome)
			assert.Equal(t, OutcomeWin, board.Outcome.Kind)
			assert.Equal(t, MarkX, board.Outcome.Winner)
			assert.Equal(t, []int{combo[0], combo[1], combo[2]}, board.Outcome.Line)
			assert.Equal(t, MarkX, board.NextToMove)
		})
	}
}

func TestApplyMove_OWins(t *testing.T) {
	// Given: O completes the middle column
	board := play(t, 0, 1, 2, 4, 3, 7)

	// Then: O is the winner
	require.NotNil(t, board.Outcome)
	assert.Equal(t, MarkO, board.Outcome.Winner)
	assert.Equal(t, []int{1, 4, 7}, board.Outcome.Line)
}

func TestApplyMove_FirstLineWinsTie(t *testing.T) {
	// Given: X holds 1, 2, 3, 6 so cell 0 completes the top row and the left column
	board := Board{NextToMove: MarkX}
	board.Cells = [BoardSize]Mark{
		MarkNone, MarkX, MarkX,
		MarkX, MarkO, MarkO,
		MarkX, MarkO, MarkO,
	}

	// When: X plays cell 0
	next, err := ApplyMove(board, 0)
	require.NoError(t, err)

	// Then: the row is reported because rows come before columns
	require.NotNil(t, next.Outcome)
	assert.Equal(t, []int{0, 1, 2}, next.Outcome.Line)
}

func TestApplyMove_Draw(t *testing.T) {
	// When: all cells are filled without a line
	board := play(t, 0, 1, 2, 4, 3, 5, 7, 6, 8)

	// Then: the outcome is a draw without winner
	require.NotNil(t, board.Outcome)
	assert.Equal(t, OutcomeDraw, board.Outcome.Kind)
	assert.Equal(t, MarkNone, board.Outcome.Winner)
	assert.Empty(t, board.Outcome.Line)
}

func TestDetermineOutcome(t *testing.T) {
	t.Run("Returns nil while the game continues", func(t *testing.T) {
		cells := [BoardSize]Mark{
			MarkX, MarkO, MarkNone,
			MarkNone, MarkX, MarkNone,
			MarkNone, MarkNone, MarkO,
		}

		assert.Nil(t, DetermineOutcome(cells))
	})

	t.Run("Returns the anti-diagonal", func(t *testing.T) {
		cells := [BoardSize]Mark{
			MarkX, MarkX, MarkO,
			MarkNone, MarkO, MarkNone,
			MarkO, MarkNone, MarkX,
		}

		outcome := DetermineOutcome(cells)

		require.NotNil(t, outcome)
		assert.Equal(t, MarkO, outcome.Winner)
		assert.Equal(t, []int{2, 4, 6}, outcome.Line)
	})
}

func lineContains(combo [3]int, cell int) bool {
	return combo[0] == cell || combo[1] == cell || combo[2] == cell
}
