package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-client/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-client/internal/entity"
	"github.com/rocketscienceinc/tictactoe-client/internal/tictactoe"
)

const waitTimeout = 2 * time.Second

type sentMove struct {
	group  string
	player string
	cell   int
}

// echoHub behaves like the relay: every send is echoed back to the subscriber.
type echoHub struct {
	mu sync.Mutex

	onMove func(player string, cell int)
	onChat func(message string)

	subscribes   int
	unsubscribes int

	moves  []sentMove
	chats  []string
	leaves int

	joins      []sentMove
	joinErr    error
	moveOnJoin *sentMove
}

// Join records the join and, when moveOnJoin is set, delivers that move straight away like
// an opponent who was already waiting.
func (that *echoHub) Join(_ context.Context, group, player string) error {
	that.mu.Lock()
	that.joins = append(that.joins, sentMove{group: group, player: player})
	subscribed := that.onMove != nil
	joinErr, move := that.joinErr, that.moveOnJoin
	that.mu.Unlock()

	if joinErr != nil {
		return joinErr
	}

	if !subscribed {
		return errors.New("joined before subscribing")
	}

	if move != nil {
		that.emitMove(move.player, move.cell)
	}

	return nil
}

func (that *echoHub) Subscribe(onMove func(string, int), onChat func(string)) func() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.subscribes++
	that.onMove, that.onChat = onMove, onChat

	return func() {
		that.mu.Lock()
		defer that.mu.Unlock()

		that.unsubscribes++
		that.onMove, that.onChat = nil, nil
	}
}

func (that *echoHub) SendMove(_ context.Context, group, player string, cell int) error {
	that.mu.Lock()
	that.moves = append(that.moves, sentMove{group: group, player: player, cell: cell})
	that.mu.Unlock()

	that.emitMove(player, cell)
	return nil
}

func (that *echoHub) SendChatMessage(_ context.Context, _, player, text string) error {
	that.mu.Lock()
	that.chats = append(that.chats, text)
	that.mu.Unlock()

	that.emitChat(fmt.Sprintf("%s: %s", player, text))
	return nil
}

func (that *echoHub) LeaveSession(_ context.Context, _, _ string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.leaves++
	return nil
}

func (that *echoHub) emitMove(player string, cell int) {
	that.mu.Lock()
	onMove := that.onMove
	that.mu.Unlock()

	if onMove != nil {
		onMove(player, cell)
	}
}

func (that *echoHub) emitChat(message string) {
	that.mu.Lock()
	onChat := that.onChat
	that.mu.Unlock()

	if onChat != nil {
		onChat(message)
	}
}

func (that *echoHub) counts() (subscribes, unsubscribes, leaves int) {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.subscribes, that.unsubscribes, that.leaves
}

type stateRecorder struct {
	mu     sync.Mutex
	states []tictactoe.State
}

func (that *stateRecorder) observe(state tictactoe.State) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.states = append(that.states, state)
}

func (that *stateRecorder) last() (tictactoe.State, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if len(that.states) == 0 {
		return tictactoe.State{}, false
	}

	return that.states[len(that.states)-1], true
}

func (that *stateRecorder) waitFor(t *testing.T, condition func(state tictactoe.State) bool) tictactoe.State {
	t.Helper()

	require.Eventually(t, func() bool {
		state, ok := that.last()
		return ok && condition(state)
	}, waitTimeout, 5*time.Millisecond)

	state, _ := that.last()
	return state
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type runningMatch struct {
	match    *Match
	recorder *stateRecorder
	errCh    chan error
	cancel   context.CancelFunc
}

func startMatch(t *testing.T, localPlayer, group string, hub Hub) *runningMatch {
	t.Helper()

	recorder := &stateRecorder{}
	match := NewMatch(newTestLogger(), entity.NewSession(localPlayer, group), hub, time.Second, recorder.observe)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- match.Run(ctx) }()

	t.Cleanup(cancel)

	recorder.waitFor(t, func(tictactoe.State) bool { return true })

	return &runningMatch{match: match, recorder: recorder, errCh: errCh, cancel: cancel}
}

func (that *runningMatch) waitStopped(t *testing.T) error {
	t.Helper()

	select {
	case err := <-that.errCh:
		return err
	case <-time.After(waitTimeout):
		t.Fatal("match did not stop")
		return nil
	}
}

func TestMatch_MoveRoundTrip(t *testing.T) {
	// Given: alice created the session and is connected
	hub := &echoHub{}
	m := startMatch(t, "alice", "alice", hub)

	initial, _ := m.recorder.last()
	assert.False(t, initial.IsLocalTurn)
	assert.Equal(t, entity.OutcomePlaying, initial.Outcome)

	// When: bob moves at 4
	hub.emitMove("bob", 4)

	// Then: cell 4 holds X and alice has the turn
	state := m.recorder.waitFor(t, func(state tictactoe.State) bool { return state.Board[4] != entity.MarkEmpty })
	assert.Equal(t, entity.MarkX, state.Board[4])
	assert.True(t, state.IsLocalTurn)

	// When: alice plays 0
	require.NoError(t, m.match.Move(0))

	// Then: the move is sent and the echo writes O without giving the turn back
	state = m.recorder.waitFor(t, func(state tictactoe.State) bool { return state.Board[0] != entity.MarkEmpty })
	assert.Equal(t, entity.MarkO, state.Board[0])
	assert.False(t, state.IsLocalTurn)

	hub.mu.Lock()
	assert.Equal(t, []sentMove{{group: "alice", player: "alice", cell: 0}}, hub.moves)
	hub.mu.Unlock()

	subscribes, _, _ := hub.counts()
	assert.Equal(t, 1, subscribes)
}

func TestMatch_Join(t *testing.T) {
	t.Run("Joins once subscribed", func(t *testing.T) {
		// Given: bob is waiting in alice's group and moves the moment she joins
		hub := &echoHub{moveOnJoin: &sentMove{player: "bob", cell: 4}}

		// When: alice starts her match
		m := startMatch(t, "alice", "alice", hub)

		// Then: bob's move is not lost and alice has the turn
		state := m.recorder.waitFor(t, func(state tictactoe.State) bool { return state.Board[4] != entity.MarkEmpty })
		assert.Equal(t, entity.MarkX, state.Board[4])
		assert.True(t, state.IsLocalTurn)

		hub.mu.Lock()
		assert.Equal(t, []sentMove{{group: "alice", player: "alice"}}, hub.joins)
		hub.mu.Unlock()
	})

	t.Run("Join failure stops the match", func(t *testing.T) {
		// Given: a hub that refuses the join
		joinErr := errors.New("connection reset")
		hub := &echoHub{joinErr: joinErr}
		recorder := &stateRecorder{}
		match := NewMatch(newTestLogger(), entity.NewSession("bob", "alice"), hub, time.Second, recorder.observe)

		// When: the match runs
		err := match.Run(context.Background())

		// Then: the error is returned, nothing is published and the subscription is released
		require.ErrorIs(t, err, joinErr)
		assert.ErrorContains(t, err, "could not join group")

		_, ok := recorder.last()
		assert.False(t, ok)

		subscribes, unsubscribes, _ := hub.counts()
		assert.Equal(t, 1, subscribes)
		assert.Equal(t, 1, unsubscribes)
		require.ErrorIs(t, match.Move(0), apperror.ErrSessionClosed)
	})
}

func TestMatch_MoveIntentsAreDropped(t *testing.T) {
	// Given: alice waits for bob
	hub := &echoHub{}
	m := startMatch(t, "alice", "alice", hub)

	// When: alice clicks before her turn
	require.NoError(t, m.match.Move(0))

	// Then: nothing is sent and the board is empty
	state, err := m.match.State(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entity.Board{}, state.Board)

	hub.mu.Lock()
	assert.Empty(t, hub.moves)
	hub.mu.Unlock()
}

func TestMatch_Chat(t *testing.T) {
	// Given: bob joined alice's session
	hub := &echoHub{}
	m := startMatch(t, "bob", "alice", hub)

	// When: two messages arrive and bob sends three with echoes, plus one empty message
	hub.emitChat("alice: hi")
	require.NoError(t, m.match.Chat("hello"))
	require.NoError(t, m.match.Chat(""))
	hub.emitChat("alice: ready?")
	require.NoError(t, m.match.Chat("yes"))
	require.NoError(t, m.match.Chat("go"))

	// Then: the transcript holds N + M entries in arrival order
	state := m.recorder.waitFor(t, func(state tictactoe.State) bool { return len(state.Transcript) == 5 })
	assert.Equal(t, []string{"alice: hi", "bob: hello", "alice: ready?", "bob: yes", "bob: go"}, state.Transcript)
	assert.Empty(t, state.Draft)
}

func TestMatch_Leave(t *testing.T) {
	// Given: a running match
	hub := &echoHub{}
	m := startMatch(t, "bob", "alice", hub)

	// When: bob leaves
	require.NoError(t, m.match.Leave())

	// Then: Run returns, the hub is notified and the subscription is torn down once
	require.NoError(t, m.waitStopped(t))

	subscribes, unsubscribes, leaves := hub.counts()
	assert.Equal(t, 1, subscribes)
	assert.Equal(t, 1, unsubscribes)
	assert.Equal(t, 1, leaves)

	state, _ := m.recorder.last()
	assert.True(t, state.InLobby)

	// Then: later intents are rejected
	require.ErrorIs(t, m.match.Move(0), apperror.ErrSessionClosed)
	_, err := m.match.State(context.Background())
	require.ErrorIs(t, err, apperror.ErrSessionClosed)

	// Then: events from a late transport callback are ignored
	hub.emitMove("alice", 4)
}

func TestMatch_ContextCanceled(t *testing.T) {
	// Given: a running match
	hub := &echoHub{}
	m := startMatch(t, "alice", "alice", hub)

	// When: the surrounding context is canceled
	m.cancel()

	// Then: Run returns and unsubscribes exactly once
	require.NoError(t, m.waitStopped(t))

	<-m.match.Done()
	_, unsubscribes, leaves := hub.counts()
	assert.Equal(t, 1, unsubscribes)
	assert.Equal(t, 0, leaves)
}

func TestMatch_WithoutHub(t *testing.T) {
	// Given: a match without a connection
	m := startMatch(t, "bob", "alice", nil)

	// When: bob clicks a cell
	require.NoError(t, m.match.Move(4))

	// Then: nothing changes and the turn is kept
	state, err := m.match.State(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entity.Board{}, state.Board)
	assert.True(t, state.IsLocalTurn)

	// When: bob leaves
	require.NoError(t, m.match.Leave())

	// Then: the match still returns to the lobby
	require.NoError(t, m.waitStopped(t))
}

func TestMatch_RunOnce(t *testing.T) {
	// Given: a match that already ran
	hub := &echoHub{}
	m := startMatch(t, "alice", "alice", hub)
	m.cancel()
	require.NoError(t, m.waitStopped(t))

	// When: Run is called again
	err := m.match.Run(context.Background())

	// Then: it is rejected
	require.ErrorIs(t, err, apperror.ErrSessionClosed)
}

func TestMatch_GameOver(t *testing.T) {
	// Given: alice created the session
	hub := &echoHub{}
	m := startMatch(t, "alice", "alice", hub)

	// When: bob completes the first column while alice's echoes fill the second
	for _, move := range []sentMove{
		{player: "bob", cell: 0}, {player: "alice", cell: 3},
		{player: "bob", cell: 1}, {player: "alice", cell: 4},
		{player: "bob", cell: 2},
	} {
		hub.emitMove(move.player, move.cell)
	}

	// Then: alice lost and can go back to the lobby
	state := m.recorder.waitFor(t, func(state tictactoe.State) bool { return state.Outcome.IsOver() })
	assert.Equal(t, entity.OutcomeRemoteWin, state.Outcome)
	assert.Equal(t, "You lost", state.Outcome.Banner())
	assert.True(t, state.CanReturnToLobby())
	assert.False(t, state.IsLocalTurn)
}
