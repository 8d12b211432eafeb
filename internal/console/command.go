package console

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type CommandKind int

const (
	CommandMove CommandKind = iota + 1
	CommandSay
	CommandLeave
	CommandHelp
)

var (
	ErrEmptyCommand   = errors.New("empty command")
	ErrUnknownCommand = errors.New("unknown command")
)

const HelpText = `commands:
  <0-8> | move <0-8>   play a cell (0,1,2 is the left column top to bottom)
  say <text>           send a chat message
  leave                return to the lobby once the match is over
  help                 show this help`

type Command struct {
	Kind CommandKind
	Cell int
	Text string
}

// ParseCommand reads one line typed by the player.
func ParseCommand(line string) (Command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Command{}, ErrEmptyCommand
	}

	name, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(name) {
	case "move", "m":
		return parseMove(rest)
	case "say", "s":
		return Command{Kind: CommandSay, Text: rest}, nil
	case "leave", "quit", "q":
		return Command{Kind: CommandLeave}, nil
	case "help", "h", "?":
		return Command{Kind: CommandHelp}, nil
	}

	if rest == "" {
		if command, err := parseMove(name); err == nil {
			return command, nil
		}
	}

	return Command{}, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
}

func parseMove(arg string) (Command, error) {
	cell, err := strconv.Atoi(arg)
	if err != nil {
		return Command{}, fmt.Errorf("%w: cell must be a number, got %q", ErrUnknownCommand, arg)
	}

	return Command{Kind: CommandMove, Cell: cell}, nil
}
