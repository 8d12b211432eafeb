package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

var ErrClientClosed = errors.New("websocket client is closed")

type subscription struct {
	id     uint64
	onMove func(player string, cell int)
	onChat func(message string)
}

// Client is the player side of the relay connection.
type Client struct {
	logger *slog.Logger
	conn   *websocket.Conn

	writeMutex sync.Mutex

	subMutex sync.Mutex
	sub      *subscription
	nextID   uint64

	done      chan struct{}
	closeOnce sync.Once
}

// Dial connects to the relay at url and starts reading events.
func Dial(ctx context.Context, logger *slog.Logger, url string) (*Client, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", url, err)
	}

	client := &Client{
		logger: logger.With("component", "websocket_client"),
		conn:   conn,
		done:   make(chan struct{}),
	}

	go client.readLoop()

	return client, nil
}

// Subscribe replaces the current subscription. Events received after unsubscribe are dropped.
func (that *Client) Subscribe(onMove func(player string, cell int), onChat func(message string)) func() {
	that.subMutex.Lock()
	defer that.subMutex.Unlock()

	that.nextID++
	id := that.nextID
	that.sub = &subscription{id: id, onMove: onMove, onChat: onChat}

	return func() {
		that.subMutex.Lock()
		defer that.subMutex.Unlock()

		if that.sub != nil && that.sub.id == id {
			that.sub = nil
		}
	}
}

// Join registers player in group. It is sent from the lobby, before the match starts.
func (that *Client) Join(ctx context.Context, group, player string) error {
	return that.send(ctx, ActionJoinGame, Payload{Group: group, Player: player})
}

func (that *Client) SendMove(ctx context.Context, group, player string, cell int) error {
	return that.send(ctx, ActionSendGameMove, Payload{Group: group, Player: player, Cell: cellPtr(cell)})
}

func (that *Client) SendChatMessage(ctx context.Context, group, player, text string) error {
	return that.send(ctx, ActionSendGameChatMessage, Payload{Group: group, Player: player, Text: text})
}

func (that *Client) LeaveSession(ctx context.Context, group, player string) error {
	return that.send(ctx, ActionLeaveGame, Payload{Group: group, Player: player})
}

// Done is closed once the connection stops reading.
func (that *Client) Done() <-chan struct{} {
	return that.done
}

func (that *Client) Close() error {
	var err error

	that.closeOnce.Do(func() {
		that.writeMutex.Lock()
		_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = that.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		that.writeMutex.Unlock()

		err = that.conn.Close()
	})

	return err
}

func (that *Client) send(ctx context.Context, action string, payload Payload) error {
	select {
	case <-that.done:
		return ErrClientClosed
	default:
	}

	data, err := encodeMessage(action, payload)
	if err != nil {
		return err
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(writeWait)
	}

	that.writeMutex.Lock()
	defer that.writeMutex.Unlock()

	if err = ctx.Err(); err != nil {
		return err
	}

	if err = that.conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	if err = that.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to send %s: %w", action, err)
	}

	return nil
}

func (that *Client) readLoop() {
	log := that.logger.With("method", "readLoop")

	defer close(that.done)

	for {
		_, data, err := that.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Error("connection closed unexpectedly", "error", err)
			}

			return
		}

		var message Message
		if err = json.Unmarshal(data, &message); err != nil {
			log.Warn("dropped malformed message", "error", err)
			continue
		}

		that.dispatch(&message)
	}
}

func (that *Client) dispatch(message *Message) {
	log := that.logger.With("method", "dispatch", "action", message.Action)

	payload, err := message.Decode()
	if err != nil {
		log.Warn("dropped message", "error", err)
		return
	}

	that.subMutex.Lock()
	sub := that.sub
	that.subMutex.Unlock()

	switch message.Action {
	case ActionGameMove:
		if payload.Cell == nil || payload.Player == "" {
			log.Warn("dropped message", "error", ErrMissingPayload)
			return
		}

		if sub != nil && sub.onMove != nil {
			sub.onMove(payload.Player, *payload.Cell)
		}
	case ActionGameChatMessage:
		if sub != nil && sub.onChat != nil {
			sub.onChat(payload.Message)
		}
	case ActionError:
		log.Warn("relay returned an error", "error", payload.Error)
	default:
		log.Warn("dropped message", "error", ErrUnknownAction)
	}
}
