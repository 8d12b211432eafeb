package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-client/internal/entity"
)

func TestBotService_ChooseCell(t *testing.T) {
	t.Run("Chooses only empty cells", func(t *testing.T) {
		// Given: a board with two free cells
		board := entity.Board{
			entity.MarkX, entity.MarkO, entity.MarkX,
			entity.MarkO, entity.MarkEmpty, entity.MarkO,
			entity.MarkX, entity.MarkEmpty, entity.MarkO,
		}
		bot := NewBotService()

		for range 50 {
			// When: the bot picks a cell
			cell, err := bot.ChooseCell(board)

			// Then: it is one of the free cells
			require.NoError(t, err)
			assert.Contains(t, []int{4, 7}, cell)
		}
	})

	t.Run("Uses the random source", func(t *testing.T) {
		// Given: a bot whose random source always picks the last option
		bot := &botService{intN: func(n int) int { return n - 1 }}

		// When: the bot picks on an empty board
		cell, err := bot.ChooseCell(entity.Board{})

		// Then: the highest free cell is chosen
		require.NoError(t, err)
		assert.Equal(t, 8, cell)
	})

	t.Run("Full board", func(t *testing.T) {
		// Given: a full board
		var board entity.Board
		for i := range board {
			board[i] = entity.MarkX
		}

		// When: the bot tries to pick a cell
		_, err := NewBotService().ChooseCell(board)

		// Then: ErrNoAvailableMoves is returned
		require.ErrorIs(t, err, ErrNoAvailableMoves)
	})
}
