package console

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rocketscienceinc/tictactoe-client/internal/entity"
	"github.com/rocketscienceinc/tictactoe-client/internal/tictactoe"
)

const rowSeparator = "---+---+---"

// Render writes the match as the player sees it. Cells are laid out column by column:
// 0,1,2 is the left column, 3,4,5 the middle and 6,7,8 the right one. Cells the player can
// take show their index.
func Render(w io.Writer, state tictactoe.State) error {
	var sb strings.Builder

	session := state.Session
	fmt.Fprintf(&sb, "group %s, you are %s (%s)\n", session.Group, session.LocalPlayer,
		strings.ToUpper(string(session.OwnedMark())))

	for row := 0; row < 3; row++ {
		if row > 0 {
			sb.WriteString(rowSeparator + "\n")
		}

		cells := make([]string, 0, 3)
		for column := 0; column < 3; column++ {
			cells = append(cells, " "+cellLabel(state, column*3+row)+" ")
		}

		sb.WriteString(strings.Join(cells, "|") + "\n")
	}

	sb.WriteString(statusLine(state) + "\n")

	if len(state.Transcript) > 0 {
		sb.WriteString("chat:\n")
		for _, message := range state.Transcript {
			sb.WriteString("  " + message + "\n")
		}
	}

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("failed to render board: %w", err)
	}

	return nil
}

func cellLabel(state tictactoe.State, cell int) string {
	switch {
	case state.CanMove(cell):
		return strconv.Itoa(cell)
	case state.Board[cell] == entity.MarkEmpty:
		return " "
	default:
		return strings.ToUpper(string(state.Board[cell]))
	}
}

func statusLine(state tictactoe.State) string {
	switch {
	case state.InLobby:
		return "back in the lobby"
	case state.Outcome.IsOver():
		return state.Outcome.Banner() + " (type leave to return to the lobby)"
	case state.IsLocalTurn:
		return "your turn"
	default:
		return "waiting for the other player"
	}
}
