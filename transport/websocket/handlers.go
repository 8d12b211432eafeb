package websocket

import (
	"context"
	"errors"
	"fmt"
)

var ErrNotJoined = errors.New("peer has not joined a group")

func (that *Server) handleJoinGame(ctx context.Context, p *peer, msg *Message) error {
	log := that.logger.With("method", "handleJoinGame", "peer", p.id)

	payloadReq, err := msg.Decode()
	if err != nil {
		return err
	}

	if payloadReq.Group == "" || payloadReq.Player == "" {
		return fmt.Errorf("%w: group and player are required", ErrMissingPayload)
	}

	// a peer plays one match at a time
	if err = that.leave(ctx, p); err != nil {
		log.Warn("failed to leave previous group", "error", err)
	}

	unsubscribe, err := that.broker.Subscribe(ctx, payloadReq.Group, p.deliver)
	if err != nil {
		return fmt.Errorf("failed to subscribe peer: %w", err)
	}

	if err = that.groups.AddMember(ctx, payloadReq.Group, payloadReq.Player); err != nil {
		unsubscribe()
		return fmt.Errorf("failed to join group: %w", err)
	}

	p.attach(payloadReq.Group, payloadReq.Player, unsubscribe)

	log.Info("player joined group", "group", payloadReq.Group, "player", payloadReq.Player)

	return nil
}

func (that *Server) handleSendGameMove(ctx context.Context, p *peer, msg *Message) error {
	log := that.logger.With("method", "handleSendGameMove", "peer", p.id)

	payloadReq, err := msg.Decode()
	if err != nil {
		return err
	}

	if payloadReq.Group == "" || payloadReq.Player == "" || payloadReq.Cell == nil {
		return fmt.Errorf("%w: group, player and cell are required", ErrMissingPayload)
	}

	data, err := encodeMessage(ActionGameMove, Payload{Player: payloadReq.Player, Cell: payloadReq.Cell})
	if err != nil {
		return err
	}

	if err = that.broker.Publish(ctx, payloadReq.Group, data); err != nil {
		return fmt.Errorf("failed to relay move: %w", err)
	}

	log.Debug("relayed move", "group", payloadReq.Group, "player", payloadReq.Player, "cell", *payloadReq.Cell)

	return nil
}

func (that *Server) handleSendGameChatMessage(ctx context.Context, p *peer, msg *Message) error {
	log := that.logger.With("method", "handleSendGameChatMessage", "peer", p.id)

	payloadReq, err := msg.Decode()
	if err != nil {
		return err
	}

	if payloadReq.Group == "" || payloadReq.Player == "" || payloadReq.Text == "" {
		return fmt.Errorf("%w: group, player and text are required", ErrMissingPayload)
	}

	if err = that.publishChat(ctx, payloadReq.Group, fmt.Sprintf("%s: %s", payloadReq.Player, payloadReq.Text)); err != nil {
		return err
	}

	log.Debug("relayed chat message", "group", payloadReq.Group, "player", payloadReq.Player)

	return nil
}

func (that *Server) handleLeaveGame(ctx context.Context, p *peer, _ *Message) error {
	group, _, _ := p.current()
	if group == "" {
		return ErrNotJoined
	}

	return that.leave(ctx, p)
}

// leave drops the peer from its group and tells the rest of the group. It is a no-op for a
// peer that has not joined.
func (that *Server) leave(ctx context.Context, p *peer) error {
	log := that.logger.With("method", "leave", "peer", p.id)

	group, player, unsubscribe := p.detach()
	if group == "" {
		return nil
	}

	if unsubscribe != nil {
		unsubscribe()
	}

	remaining, err := that.groups.RemoveMember(ctx, group, player)
	if err != nil {
		return fmt.Errorf("failed to leave group: %w", err)
	}

	if err = that.publishChat(ctx, group, player+" left the game"); err != nil {
		return err
	}

	log.Info("player left group", "group", group, "player", player, "remaining", remaining)

	return nil
}

func (that *Server) publishChat(ctx context.Context, group, text string) error {
	data, err := encodeMessage(ActionGameChatMessage, Payload{Message: text})
	if err != nil {
		return err
	}

	if err = that.broker.Publish(ctx, group, data); err != nil {
		return fmt.Errorf("failed to relay chat message: %w", err)
	}

	return nil
}
