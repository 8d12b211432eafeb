package service

import (
	"errors"
	"math/rand/v2"

	"github.com/rocketscienceinc/tictactoe-client/internal/entity"
)

var ErrNoAvailableMoves = errors.New("no available moves")

// BotService picks moves on behalf of the local player.
type BotService interface {
	ChooseCell(board entity.Board) (int, error)
}

type botService struct {
	intN func(n int) int
}

func NewBotService() BotService {
	return &botService{intN: rand.IntN} //nolint: gosec // it's ok
}

// ChooseCell returns a random empty cell.
func (that *botService) ChooseCell(board entity.Board) (int, error) {
	availableCells := board.EmptyCells()
	if len(availableCells) == 0 {
		return 0, ErrNoAvailableMoves
	}

	return availableCells[that.intN(len(availableCells))], nil
}
