package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/rocketscienceinc/tictactoe-client/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-client/internal/entity"
	"github.com/rocketscienceinc/tictactoe-client/internal/tictactoe"
)

const (
	defaultSendTimeout = 5 * time.Second
	eventQueueSize     = 64
)

// Hub is a connected game hub: the outbound sends plus a named-event subscription.
// The returned unsubscribe func must not wait for in-flight callbacks.
type Hub interface {
	tictactoe.Connection
	Join(ctx context.Context, group, player string) error
	Subscribe(onMove func(player string, cell int), onChat func(message string)) (unsubscribe func())
}

type event func(ctx context.Context, controller *tictactoe.GameController)

// Match runs one game session. Every inbound event and user intent goes through a single
// event loop, so the controller is never touched concurrently.
type Match struct {
	logger *slog.Logger

	session     entity.Session
	hub         Hub
	sendTimeout time.Duration
	observer    func(tictactoe.State)

	events  chan event
	done    chan struct{}
	started atomic.Bool
}

// NewMatch prepares a session. hub may be nil, in which case every outbound intent is dropped.
// observer receives a snapshot after every processed event; it runs on the event loop and
// must not block.
func NewMatch(logger *slog.Logger, session entity.Session, hub Hub, sendTimeout time.Duration, observer func(tictactoe.State)) *Match {
	if sendTimeout <= 0 {
		sendTimeout = defaultSendTimeout
	}

	return &Match{
		logger: logger.With("component", "match", "group", session.Group, "player", session.LocalPlayer),

		session:     session,
		hub:         hub,
		sendTimeout: sendTimeout,
		observer:    observer,

		events: make(chan event, eventQueueSize),
		done:   make(chan struct{}),
	}
}

// Run subscribes to the hub, joins the group and processes events until the player leaves
// or ctx is done. It may be called once.
func (that *Match) Run(ctx context.Context) error {
	log := that.logger.With("method", "Run")

	if !that.started.CompareAndSwap(false, true) {
		return apperror.ErrSessionClosed
	}

	defer close(that.done)

	left := false

	var conn tictactoe.Connection
	if that.hub != nil {
		conn = that.hub
	}

	controller := tictactoe.NewGameController(that.logger, that.session, conn, func() { left = true })

	if that.hub != nil {
		unsubscribe := that.hub.Subscribe(that.onMove, that.onChat)
		defer unsubscribe()

		// the opponent may move as soon as we are a member
		if err := that.join(ctx); err != nil {
			return err
		}
	}

	log.Info("match started", "owned_mark", that.session.OwnedMark(), "moves_first", that.session.MovesFirst())
	that.publish(controller)

	for {
		select {
		case <-ctx.Done():
			log.Info("match context canceled")
			return nil
		case ev := <-that.events:
			ev(ctx, controller)
			that.publish(controller)

			if left {
				return nil
			}
		}
	}
}

func (that *Match) join(ctx context.Context) error {
	joinCtx, cancel := context.WithTimeout(ctx, that.sendTimeout)
	defer cancel()

	if err := that.hub.Join(joinCtx, that.session.Group, that.session.LocalPlayer); err != nil {
		return fmt.Errorf("could not join group: %w", err)
	}

	return nil
}

// Done is closed once Run has returned.
func (that *Match) Done() <-chan struct{} {
	return that.done
}

func (that *Match) Move(cell int) error {
	return that.dispatch(func(ctx context.Context, controller *tictactoe.GameController) {
		sendCtx, cancel := context.WithTimeout(ctx, that.sendTimeout)
		defer cancel()

		_ = controller.ApplyLocalMoveIntent(sendCtx, cell)
	})
}

// Chat sets the compose buffer to text and sends it.
func (that *Match) Chat(text string) error {
	return that.dispatch(func(ctx context.Context, controller *tictactoe.GameController) {
		sendCtx, cancel := context.WithTimeout(ctx, that.sendTimeout)
		defer cancel()

		controller.SetDraft(text)
		_ = controller.SendDraft(sendCtx)
	})
}

func (that *Match) Leave() error {
	return that.dispatch(func(ctx context.Context, controller *tictactoe.GameController) {
		sendCtx, cancel := context.WithTimeout(ctx, that.sendTimeout)
		defer cancel()

		_ = controller.LeaveSession(sendCtx)
	})
}

// State returns a snapshot taken on the event loop.
func (that *Match) State(ctx context.Context) (tictactoe.State, error) {
	reply := make(chan tictactoe.State, 1)

	err := that.dispatch(func(_ context.Context, controller *tictactoe.GameController) {
		reply <- controller.State()
	})
	if err != nil {
		return tictactoe.State{}, err
	}

	select {
	case state := <-reply:
		return state, nil
	case <-that.done:
		return tictactoe.State{}, apperror.ErrSessionClosed
	case <-ctx.Done():
		return tictactoe.State{}, ctx.Err()
	}
}

func (that *Match) onMove(player string, cell int) {
	_ = that.dispatch(func(_ context.Context, controller *tictactoe.GameController) {
		_ = controller.ApplyInboundMove(player, cell)
	})
}

func (that *Match) onChat(message string) {
	_ = that.dispatch(func(_ context.Context, controller *tictactoe.GameController) {
		controller.ApplyInboundChat(message)
	})
}

func (that *Match) dispatch(ev event) error {
	select {
	case <-that.done:
		return apperror.ErrSessionClosed
	default:
	}

	select {
	case that.events <- ev:
		return nil
	case <-that.done:
		return apperror.ErrSessionClosed
	}
}

func (that *Match) publish(controller *tictactoe.GameController) {
	if that.observer != nil {
		that.observer(controller.State())
	}
}
