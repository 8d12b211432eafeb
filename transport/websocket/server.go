package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

const (
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendQueueSize  = 64
	leaveTimeout   = 5 * time.Second
)

type groupBroker interface {
	Publish(ctx context.Context, group string, payload []byte) error
	Subscribe(ctx context.Context, group string, handler func(payload []byte)) (func(), error)
}

type groupStore interface {
	AddMember(ctx context.Context, group, player string) error
	RemoveMember(ctx context.Context, group, player string) (int64, error)
}

type handlerFunc func(ctx context.Context, p *peer, message *Message) error

// Server relays moves and chat between the members of a group. It does not validate moves.
type Server struct {
	logger *slog.Logger
	broker groupBroker
	groups groupStore

	upgrader websocket.Upgrader
	handlers map[string]handlerFunc

	peersMutex sync.Mutex
	peers      map[string]*peer
}

func New(logger *slog.Logger, broker groupBroker, groups groupStore) *Server {
	server := &Server{
		logger: logger.With("component", "relay"),
		broker: broker,
		groups: groups,

		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		handlers: make(map[string]handlerFunc),
		peers:    make(map[string]*peer),
	}

	server.handlers[ActionJoinGame] = server.handleJoinGame
	server.handlers[ActionSendGameMove] = server.handleSendGameMove
	server.handlers[ActionSendGameChatMessage] = server.handleSendGameChatMessage
	server.handlers[ActionLeaveGame] = server.handleLeaveGame

	return server
}

// Router serves the websocket endpoint on /ws.
func (that *Server) Router(ctx context.Context) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.upgradeToWebSocket(ctx, w, r)
	})

	return router
}

// Start - starts WebSocket server and blocks until ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	log := that.logger.With("method", "Start")

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           that.Router(ctx),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), leaveTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("failed to shut down server", "error", err)
		}

		that.closePeers()
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// upgradeToWebSocket - upgrades the connection to WebSocket and serves it until it closes.
func (that *Server) upgradeToWebSocket(ctx context.Context, writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "upgradeToWebSocket")

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	p := newPeer(that.logger, uuid.NewString(), conn)
	that.addPeer(p)

	log = log.With("peer", p.id)
	log.Info("WebSocket connection established")

	go p.writeLoop()

	if err = that.handleMessages(ctx, p); err != nil {
		log.Info("connection closed", "error", err)
	}

	that.handleDisconnect(ctx, p)
}

// handleMessages - processes messages from the peer.
func (that *Server) handleMessages(ctx context.Context, p *peer) error {
	log := that.logger.With("method", "handleMessages", "peer", p.id)

	p.conn.SetReadLimit(maxMessageSize)
	_ = p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := p.conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("failed to read message: %w", err)
		}

		var message Message
		if err = json.Unmarshal(data, &message); err != nil {
			log.Warn("failed to unmarshal message", "error", err)
			that.sendError(p, err)
			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Warn("error processing message", "action", message.Action, "error", ErrUnknownAction)
			that.sendError(p, fmt.Errorf("%w: %s", ErrUnknownAction, message.Action))
			continue
		}

		if err = handler(ctx, p, &message); err != nil {
			log.Error("error processing message", "action", message.Action, "error", err)
			that.sendError(p, err)
		}
	}
}

func (that *Server) handleDisconnect(ctx context.Context, p *peer) {
	log := that.logger.With("method", "handleDisconnect", "peer", p.id)

	leaveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), leaveTimeout)
	defer cancel()

	if err := that.leave(leaveCtx, p); err != nil {
		log.Error("failed to leave group", "error", err)
	}

	that.removePeer(p)
	p.close()

	log.Info("peer disconnected")
}

func (that *Server) sendError(p *peer, err error) {
	data, encodeErr := encodeMessage(ActionError, Payload{Error: err.Error()})
	if encodeErr != nil {
		that.logger.Error("failed to encode error response", "error", encodeErr)
		return
	}

	p.deliver(data)
}

func (that *Server) addPeer(p *peer) {
	that.peersMutex.Lock()
	defer that.peersMutex.Unlock()

	that.peers[p.id] = p
}

func (that *Server) removePeer(p *peer) {
	that.peersMutex.Lock()
	defer that.peersMutex.Unlock()

	delete(that.peers, p.id)
}

func (that *Server) closePeers() {
	that.peersMutex.Lock()
	peers := make([]*peer, 0, len(that.peers))
	for _, p := range that.peers {
		peers = append(peers, p)
	}
	that.peersMutex.Unlock()

	for _, p := range peers {
		p.close()
	}
}
