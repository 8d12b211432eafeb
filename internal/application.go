package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/tictactoe-client/internal/config"
	"github.com/rocketscienceinc/tictactoe-client/internal/console"
	"github.com/rocketscienceinc/tictactoe-client/internal/entity"
	"github.com/rocketscienceinc/tictactoe-client/internal/repository"
	"github.com/rocketscienceinc/tictactoe-client/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-client/internal/service"
	"github.com/rocketscienceinc/tictactoe-client/internal/tictactoe"
	redistransport "github.com/rocketscienceinc/tictactoe-client/internal/transport/redis"
	"github.com/rocketscienceinc/tictactoe-client/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-client/transport/rest"
	"github.com/rocketscienceinc/tictactoe-client/transport/websocket"
)

var (
	ErrAddrNotFound    = errors.New("redis address string is empty")
	ErrMissingIdentity = errors.New("username and group are required")
)

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext(ctx context.Context, log *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigs)

		select {
		case sig := <-sigs:
			log.Info("Received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// RunRelay - runs the relay: the websocket hub and the HTTP endpoints, backed by redis.
func RunRelay(ctx context.Context, logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := signalContext(ctx, log)
	defer cancel()

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return ErrAddrNotFound
	}

	redisStorage, err := storage.New(ctx, redisAddrString)
	if err != nil {
		return fmt.Errorf("could not connect to redis storage: %w", err)
	}

	defer func() {
		if err = redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}()

	groupRepo := repository.NewGroupRepository(redisStorage.Connection)
	broker := redistransport.New(logger, redisStorage.Connection)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.Relay.HTTPPort)
		if httpErr := rest.Start(ctx, conf.Relay.HTTPPort, rest.NewRouter(logger, groupRepo)); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.Relay.SocketPort)
		wsServer := websocket.New(logger, broker, groupRepo)
		if wsErr := wsServer.Start(ctx, conf.Relay.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}

// RunClient - joins a group on the relay and plays one match in the terminal.
func RunClient(ctx context.Context, logger *slog.Logger, conf *config.Config, in io.Reader, out io.Writer) error {
	log := logger.With("component", "app")

	if conf.Client.Username == "" || conf.Client.Group == "" {
		return ErrMissingIdentity
	}

	ctx, cancel := signalContext(ctx, log)
	defer cancel()

	session := entity.NewSession(conf.Client.Username, conf.Client.Group)
	log = log.With("player", session.LocalPlayer, "group", session.Group)

	client, err := websocket.Dial(ctx, logger, conf.Client.ServerURL)
	if err != nil {
		return fmt.Errorf("could not connect to relay: %w", err)
	}

	defer func() {
		if err = client.Close(); err != nil {
			log.Error("could not close relay connection", "error", err)
		}
	}()

	screen := console.New(logger, out)

	var match *usecase.Match

	observers := []func(tictactoe.State){screen.Observe}
	if conf.Client.Autoplay {
		observers = append(observers, usecase.Autoplay(logger, service.NewBotService(), func(cell int) error {
			return match.Move(cell)
		}))
	}

	match = usecase.NewMatch(logger, session, client, conf.Client.SendTimeout, func(state tictactoe.State) {
		for _, observe := range observers {
			observe(state)
		}
	})

	matchErrCh := make(chan error, 1)
	go func() {
		matchErrCh <- match.Run(ctx)
	}()

	go func() {
		select {
		case <-client.Done():
			log.Warn("relay connection lost")
			cancel()
		case <-match.Done():
		}
	}()

	if err = screen.Run(ctx, in, match); err != nil {
		log.Error("console stopped", "error", err)
	}

	cancel()

	if err = <-matchErrCh; err != nil {
		return fmt.Errorf("match failed: %w", err)
	}

	log.Info("match finished")

	return nil
}
