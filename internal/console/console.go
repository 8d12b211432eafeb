package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/tictactoe-client/internal/tictactoe"
)

var ErrMatchRunning = errors.New("the match is still running, end the input or press Ctrl-C to quit")

type match interface {
	Move(cell int) error
	Chat(text string) error
	Leave() error
	Done() <-chan struct{}
}

// Console is the terminal front end of a match.
type Console struct {
	logger *slog.Logger

	mutex    sync.Mutex
	out      io.Writer
	state    tictactoe.State
	observed bool
}

func New(logger *slog.Logger, out io.Writer) *Console {
	return &Console{
		logger: logger.With("component", "console"),
		out:    out,
	}
}

// Observe redraws the match. It is safe to call from the match loop.
func (that *Console) Observe(state tictactoe.State) {
	that.mutex.Lock()
	defer that.mutex.Unlock()

	that.state, that.observed = state, true

	if err := Render(that.out, state); err != nil {
		that.logger.Error("failed to render state", "error", err)
	}
}

// canLeave reports whether the last drawn match offers the way back to the lobby.
func (that *Console) canLeave() bool {
	that.mutex.Lock()
	defer that.mutex.Unlock()

	return !that.observed || that.state.CanReturnToLobby()
}

func (that *Console) println(text string) {
	that.mutex.Lock()
	defer that.mutex.Unlock()

	_, _ = fmt.Fprintln(that.out, text)
}

// Run feeds commands read from in to m until the match ends. End of input leaves the match.
func (that *Console) Run(ctx context.Context, in io.Reader, m match) error {
	log := that.logger.With("method", "Run")

	lines := make(chan string)
	readErr := make(chan error, 1)

	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-m.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	that.println(HelpText)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-m.Done():
			return nil
		case err := <-readErr:
			if err != nil {
				log.Error("failed to read input", "error", err)
			}

			if leaveErr := m.Leave(); leaveErr != nil {
				log.Debug("leave dropped", "error", leaveErr)
			}

			select {
			case <-m.Done():
			case <-ctx.Done():
			}

			return err
		case line := <-lines:
			select {
			case <-m.Done():
				return nil
			default:
			}

			if err := that.execute(line, m); err != nil {
				if errors.Is(err, ErrEmptyCommand) {
					continue
				}

				that.println(err.Error())
			}
		}
	}
}

func (that *Console) execute(line string, m match) error {
	command, err := ParseCommand(line)
	if err != nil {
		return err
	}

	switch command.Kind {
	case CommandMove:
		return m.Move(command.Cell)
	case CommandSay:
		return m.Chat(command.Text)
	case CommandLeave:
		if !that.canLeave() {
			return ErrMatchRunning
		}

		return m.Leave()
	case CommandHelp:
		that.println(HelpText)
	}

	return nil
}
