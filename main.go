package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	app "github.com/rocketscienceinc/tictactoe-client/internal"
	"github.com/rocketscienceinc/tictactoe-client/internal/config"
)

// main - is the entry point of the application. It loads the environment and runs the selected command.
func main() {
	defer func() {
		if err := recover(); err != nil {
			fmt.Fprintf(os.Stderr, "recovered from panic: %v\n", err)
			os.Exit(1)
		}
	}()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load .env file: %v\n", err)
	}

	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "tictactoe",
		Usage: "two-player tic-tac-toe over a websocket relay",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to the yaml config file",
				Value: "config.yml",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "play",
				Usage: "join a group and play in the terminal",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "user", Aliases: []string{"u"}, Usage: "your player name"},
					&cli.StringFlag{Name: "group", Aliases: []string{"g"}, Usage: "group to join; use your own name to create one"},
					&cli.StringFlag{Name: "server", Usage: "relay websocket url"},
					&cli.BoolFlag{Name: "autoplay", Usage: "let a bot play random free cells"},
				},
				Action: play,
			},
			{
				Name:   "relay",
				Usage:  "run the relay server",
				Action: relay,
			},
		},
	}
}

func play(ctx context.Context, cmd *cli.Command) error {
	conf, err := initConfig(cmd)
	if err != nil {
		return err
	}

	if cmd.IsSet("user") {
		conf.Client.Username = cmd.String("user")
	}

	if cmd.IsSet("group") {
		conf.Client.Group = cmd.String("group")
	}

	if cmd.IsSet("server") {
		conf.Client.ServerURL = cmd.String("server")
	}

	if cmd.IsSet("autoplay") {
		conf.Client.Autoplay = cmd.Bool("autoplay")
	}

	// stdout belongs to the board
	logger := initLogger(conf, os.Stderr)

	if err = app.RunClient(ctx, logger, conf, os.Stdin, os.Stdout); err != nil {
		return fmt.Errorf("client run failed: %w", err)
	}

	return nil
}

func relay(ctx context.Context, cmd *cli.Command) error {
	conf, err := initConfig(cmd)
	if err != nil {
		return err
	}

	logger := initLogger(conf, os.Stdout)

	if err = app.RunRelay(ctx, logger, conf); err != nil {
		return fmt.Errorf("relay run failed: %w", err)
	}

	return nil
}

// initialize config.
func initConfig(cmd *cli.Command) (*config.Config, error) {
	conf, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return conf, nil
}

// initialize logger.
func initLogger(conf *config.Config, out io.Writer) *slog.Logger {
	var level slog.Level

	switch conf.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level}))
}
