package usecase

import (
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/tictactoe-client/internal/entity"
	"github.com/rocketscienceinc/tictactoe-client/internal/tictactoe"
)

type BotService interface {
	ChooseCell(board entity.Board) (int, error)
}

// Autoplay returns an observer that plays a cell chosen by bot whenever it is the local turn.
// The move is issued from its own goroutine, so the observer never blocks the match loop.
func Autoplay(logger *slog.Logger, bot BotService, move func(cell int) error) func(tictactoe.State) {
	log := logger.With("component", "autoplay")

	var (
		mutex     sync.Mutex
		played    bool
		lastBoard entity.Board
	)

	return func(state tictactoe.State) {
		if state.InLobby || state.Outcome.IsOver() || !state.IsLocalTurn {
			return
		}

		mutex.Lock()
		defer mutex.Unlock()

		// a chat arriving before our move lands redraws the same board
		if played && state.Board == lastBoard {
			return
		}

		cell, err := bot.ChooseCell(state.Board)
		if err != nil {
			log.Warn("bot could not choose a cell", "error", err)
			return
		}

		played, lastBoard = true, state.Board

		go func() {
			if err := move(cell); err != nil {
				log.Debug("autoplay move dropped", "cell", cell, "error", err)
			}
		}()
	}
}
