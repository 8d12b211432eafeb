package websocket

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// peer is one relay connection. A peer belongs to at most one group at a time.
type peer struct {
	logger *slog.Logger

	id   string
	conn *websocket.Conn

	send chan []byte
	done chan struct{}

	mutex       sync.Mutex
	group       string
	player      string
	unsubscribe func()

	closeOnce sync.Once
}

func newPeer(logger *slog.Logger, id string, conn *websocket.Conn) *peer {
	return &peer{
		logger: logger.With("component", "peer", "peer", id),

		id:   id,
		conn: conn,
		send: make(chan []byte, sendQueueSize),
		done: make(chan struct{}),
	}
}

// deliver queues data for the write loop. Slow peers lose messages instead of blocking the group.
func (that *peer) deliver(data []byte) {
	select {
	case <-that.done:
	case that.send <- data:
	default:
		that.logger.Warn("send queue is full, message dropped")
	}
}

func (that *peer) attach(group, player string, unsubscribe func()) {
	that.mutex.Lock()
	defer that.mutex.Unlock()

	that.group, that.player, that.unsubscribe = group, player, unsubscribe
}

func (that *peer) current() (group, player string, unsubscribe func()) {
	that.mutex.Lock()
	defer that.mutex.Unlock()

	return that.group, that.player, that.unsubscribe
}

// detach clears the membership and returns what it was.
func (that *peer) detach() (group, player string, unsubscribe func()) {
	that.mutex.Lock()
	defer that.mutex.Unlock()

	group, player, unsubscribe = that.group, that.player, that.unsubscribe
	that.group, that.player, that.unsubscribe = "", "", nil

	return group, player, unsubscribe
}

func (that *peer) close() {
	that.closeOnce.Do(func() {
		close(that.done)
		_ = that.conn.Close()
	})
}

func (that *peer) writeLoop() {
	log := that.logger.With("method", "writeLoop")

	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		that.close()
	}()

	for {
		select {
		case <-that.done:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = that.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case data := <-that.send:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if err := that.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error("failed to write message", "error", err)
				return
			}
		case <-ticker.C:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if err := that.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
