package entity

// Session identifies one match: the local player and the group shared by both players.
// The creator of a session is the player whose id equals the group id.
type Session struct {
	LocalPlayer string `json:"local_player"`
	Group       string `json:"group"`
}

func NewSession(localPlayer, group string) Session {
	return Session{LocalPlayer: localPlayer, Group: group}
}

// OwnedMark returns the mark the local player plays with.
// The creator plays O and the joiner plays X.
func OwnedMark(localPlayer, group string) Mark {
	return MoverMark(localPlayer, group)
}

// MovesFirst reports whether the local player has the first turn. The joiner moves first.
func MovesFirst(localPlayer, group string) bool {
	return localPlayer != group
}

// MoverMark returns the mark written for a move made by mover.
func MoverMark(mover, group string) Mark {
	if mover == group {
		return MarkO
	}

	return MarkX
}

func (that Session) IsCreator() bool {
	return that.LocalPlayer == that.Group
}

func (that Session) OwnedMark() Mark {
	return OwnedMark(that.LocalPlayer, that.Group)
}

func (that Session) MovesFirst() bool {
	return MovesFirst(that.LocalPlayer, that.Group)
}

// OutcomeFor maps the mark of a completed line to a win or a loss for the local player.
func (that Session) OutcomeFor(winner Mark) Outcome {
	switch winner {
	case MarkX:
		if that.IsCreator() {
			return OutcomeRemoteWin
		}
		return OutcomeLocalWin
	case MarkO:
		if that.IsCreator() {
			return OutcomeLocalWin
		}
		return OutcomeRemoteWin
	default:
		return OutcomePlaying
	}
}
