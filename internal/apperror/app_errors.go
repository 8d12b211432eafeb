package apperror

import "errors"

var (
	ErrGameFinished  = errors.New("game is already finished")
	ErrNotYourTurn   = errors.New("it's not your turn")
	ErrCellOccupied  = errors.New("cell is already occupied")
	ErrInvalidCell   = errors.New("invalid cell index")
	ErrNoConnection  = errors.New("no connection to the game hub")
	ErrEmptyMessage  = errors.New("chat message is empty")
	ErrSessionClosed = errors.New("session is already closed")
)
