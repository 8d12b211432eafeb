package entity

import "strings"

// Mark is the content of a single board cell.
type Mark string

const (
	MarkEmpty Mark = ""
	MarkX     Mark = "x"
	MarkO     Mark = "o"
)

// Outcome is the result of a match as seen by the local player.
type Outcome string

const (
	OutcomePlaying   Outcome = "playing"
	OutcomeLocalWin  Outcome = "you"
	OutcomeRemoteWin Outcome = "them"
	OutcomeDraw      Outcome = "draw"
)

const BoardSize = 9

// WinCombos lists every line of three cells. Cells 0,1,2 form the first rendered column,
// 3,4,5 the second and 6,7,8 the third.
var WinCombos = [][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

type Board [BoardSize]Mark

func IsValidCell(cell int) bool {
	return cell >= 0 && cell < BoardSize
}

func (that *Board) IsEmpty(cell int) bool {
	return IsValidCell(cell) && that[cell] == MarkEmpty
}

func (that *Board) IsFull() bool {
	for _, cell := range that {
		if cell == MarkEmpty {
			return false
		}
	}

	return true
}

// HasLine reports whether any line is complete for mark.
func (that *Board) HasLine(mark Mark) bool {
	if mark == MarkEmpty {
		return false
	}

	for _, combo := range WinCombos {
		if that[combo[0]] == mark && that[combo[1]] == mark && that[combo[2]] == mark {
			return true
		}
	}

	return false
}

// EmptyCells returns the indices of all empty cells in ascending order.
func (that *Board) EmptyCells() []int {
	cells := make([]int, 0, BoardSize)
	for i, cell := range that {
		if cell == MarkEmpty {
			cells = append(cells, i)
		}
	}

	return cells
}

func (that Board) String() string {
	var sb strings.Builder
	for i, cell := range that {
		if cell == MarkEmpty {
			sb.WriteByte('-')
		} else {
			sb.WriteString(string(cell))
		}

		if i < BoardSize-1 {
			sb.WriteByte(' ')
		}
	}

	return sb.String()
}

func (that Outcome) IsOver() bool {
	return that != OutcomePlaying && that != ""
}

// Banner returns the text shown to the player once the match is over.
func (that Outcome) Banner() string {
	switch that {
	case OutcomeDraw:
		return "It's a draw!"
	case OutcomeLocalWin:
		return "You won!"
	case OutcomeRemoteWin:
		return "You lost"
	default:
		return ""
	}
}
