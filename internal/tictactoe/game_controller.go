package tictactoe

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/tictactoe-client/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-client/internal/entity"
)

// Connection is the outbound half of the game hub. Sends are fire-and-forget.
type Connection interface {
	SendMove(ctx context.Context, group, player string, cell int) error
	SendChatMessage(ctx context.Context, group, player, text string) error
	LeaveSession(ctx context.Context, group, player string) error
}

// State is a copy of everything the presentation layer needs to draw a match.
type State struct {
	Session     entity.Session `json:"session"`
	Board       entity.Board   `json:"board"`
	IsLocalTurn bool           `json:"is_local_turn"`
	Outcome     entity.Outcome `json:"outcome"`
	Transcript  []string       `json:"transcript"`
	Draft       string         `json:"draft"`
	InLobby     bool           `json:"in_lobby"`
}

// CanMove reports whether cell is clickable.
func (that State) CanMove(cell int) bool {
	return !that.InLobby && !that.Outcome.IsOver() && that.IsLocalTurn && that.Board.IsEmpty(cell)
}

func (that State) CanReturnToLobby() bool {
	return that.Outcome.IsOver()
}

// GameController mirrors one match on the client. It is not safe for concurrent use;
// callers serialize access (see usecase.Match).
type GameController struct {
	logger *slog.Logger

	session entity.Session
	conn    Connection
	toLobby func()

	board       entity.Board
	isLocalTurn bool
	outcome     entity.Outcome
	transcript  []string
	draft       string
	inLobby     bool
}

// NewGameController starts a match. conn may be nil when no connection is available;
// toLobby is called once the player leaves the match and may be nil.
func NewGameController(logger *slog.Logger, session entity.Session, conn Connection, toLobby func()) *GameController {
	return &GameController{
		logger: logger.With("component", "game_controller", "group", session.Group, "player", session.LocalPlayer),

		session: session,
		conn:    conn,
		toLobby: toLobby,

		isLocalTurn: session.MovesFirst(),
		outcome:     entity.OutcomePlaying,
	}
}

// EvaluateOutcome checks the board from the point of view of session.
// A line of X is checked before a line of O.
func EvaluateOutcome(board entity.Board, session entity.Session) entity.Outcome {
	if board.HasLine(entity.MarkX) {
		return session.OutcomeFor(entity.MarkX)
	}

	if board.HasLine(entity.MarkO) {
		return session.OutcomeFor(entity.MarkO)
	}

	if board.IsFull() {
		return entity.OutcomeDraw
	}

	return entity.OutcomePlaying
}

// ApplyInboundMove commits a move confirmed by the hub, including the echo of our own move.
func (that *GameController) ApplyInboundMove(mover string, cell int) error {
	log := that.logger.With("method", "ApplyInboundMove", "mover", mover, "cell", cell)

	if !entity.IsValidCell(cell) {
		log.Warn("rejected inbound move")
		return fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, cell)
	}

	if that.outcome.IsOver() {
		log.Warn("rejected inbound move", "error", apperror.ErrGameFinished)
		return apperror.ErrGameFinished
	}

	if !that.board.IsEmpty(cell) {
		log.Warn("rejected inbound move", "error", apperror.ErrCellOccupied)
		return fmt.Errorf("%w: cell %d", apperror.ErrCellOccupied, cell)
	}

	that.board[cell] = entity.MoverMark(mover, that.session.Group)
	that.outcome = EvaluateOutcome(that.board, that.session)
	that.isLocalTurn = mover != that.session.LocalPlayer && !that.outcome.IsOver()

	if that.outcome.IsOver() {
		log.Info("match is over", "outcome", that.outcome)
	}

	return nil
}

// ApplyLocalMoveIntent sends a move for the local player. The board is left untouched
// until the hub echoes the move back.
func (that *GameController) ApplyLocalMoveIntent(ctx context.Context, cell int) error {
	log := that.logger.With("method", "ApplyLocalMoveIntent", "cell", cell)

	if err := that.validateMoveIntent(cell); err != nil {
		log.Debug("dropped move intent", "error", err)
		return err
	}

	that.isLocalTurn = false

	if err := that.conn.SendMove(ctx, that.session.Group, that.session.LocalPlayer, cell); err != nil {
		log.Error("failed to send move", "error", err)
	}

	return nil
}

func (that *GameController) validateMoveIntent(cell int) error {
	switch {
	case that.conn == nil:
		return apperror.ErrNoConnection
	case that.outcome.IsOver():
		return apperror.ErrGameFinished
	case !that.isLocalTurn:
		return apperror.ErrNotYourTurn
	case !entity.IsValidCell(cell):
		return fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, cell)
	case !that.board.IsEmpty(cell):
		return fmt.Errorf("%w: cell %d", apperror.ErrCellOccupied, cell)
	default:
		return nil
	}
}

func (that *GameController) ApplyInboundChat(message string) {
	that.transcript = append(that.transcript, message)
}

// SetDraft replaces the compose buffer.
func (that *GameController) SetDraft(text string) {
	that.draft = text
}

// SendDraft sends the compose buffer as a chat message.
func (that *GameController) SendDraft(ctx context.Context) error {
	return that.ApplyLocalChatIntent(ctx, that.draft)
}

// ApplyLocalChatIntent sends text to the group. The compose buffer is cleared even when
// nothing is sent.
func (that *GameController) ApplyLocalChatIntent(ctx context.Context, text string) error {
	log := that.logger.With("method", "ApplyLocalChatIntent")

	defer func() { that.draft = "" }()

	if text == "" {
		log.Debug("dropped chat intent", "error", apperror.ErrEmptyMessage)
		return apperror.ErrEmptyMessage
	}

	if that.conn == nil {
		log.Debug("dropped chat intent", "error", apperror.ErrNoConnection)
		return apperror.ErrNoConnection
	}

	if err := that.conn.SendChatMessage(ctx, that.session.Group, that.session.LocalPlayer, text); err != nil {
		log.Error("failed to send chat message", "error", err)
	}

	return nil
}

// LeaveSession notifies the hub, when connected, and returns the player to the lobby.
func (that *GameController) LeaveSession(ctx context.Context) error {
	log := that.logger.With("method", "LeaveSession")

	if that.inLobby {
		return apperror.ErrSessionClosed
	}

	if that.conn != nil {
		if err := that.conn.LeaveSession(ctx, that.session.Group, that.session.LocalPlayer); err != nil {
			log.Error("failed to send leave notification", "error", err)
		}
	}

	that.inLobby = true
	if that.toLobby != nil {
		that.toLobby()
	}

	log.Info("returned to lobby")

	return nil
}

func (that *GameController) Board() entity.Board {
	return that.board
}

func (that *GameController) IsLocalTurn() bool {
	return that.isLocalTurn
}

func (that *GameController) Outcome() entity.Outcome {
	return that.outcome
}

func (that *GameController) IsOver() bool {
	return that.outcome.IsOver()
}

func (that *GameController) InLobby() bool {
	return that.inLobby
}

func (that *GameController) Transcript() []string {
	transcript := make([]string, len(that.transcript))
	copy(transcript, that.transcript)
	return transcript
}

func (that *GameController) State() State {
	return State{
		Session:     that.session,
		Board:       that.board,
		IsLocalTurn: that.isLocalTurn,
		Outcome:     that.outcome,
		Transcript:  that.Transcript(),
		Draft:       that.draft,
		InLobby:     that.inLobby,
	}
}
