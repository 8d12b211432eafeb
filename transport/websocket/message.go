package websocket

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Client to relay.
const (
	ActionJoinGame            = "JoinGame"
	ActionSendGameMove        = "SendGameMove"
	ActionSendGameChatMessage = "SendGameChatMessage"
	ActionLeaveGame           = "LeaveGame"
)

// Relay to client.
const (
	ActionGameMove        = "GameMove"
	ActionGameChatMessage = "GameChatMessage"
	ActionError           = "Error"
)

var (
	ErrUnknownAction  = errors.New("unknown action")
	ErrMissingPayload = errors.New("payload is missing")
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Payload struct {
	Group   string `json:"group,omitempty"`
	Player  string `json:"player,omitempty"`
	Cell    *int   `json:"cell,omitempty"`
	Text    string `json:"text,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func NewMessage(action string, payload Payload) (Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("failed to marshal payload: %w", err)
	}

	return Message{Action: action, Payload: raw}, nil
}

func encodeMessage(action string, payload Payload) ([]byte, error) {
	message, err := NewMessage(action, payload)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(message)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	return data, nil
}

func (that *Message) Decode() (Payload, error) {
	var payload Payload

	if len(that.Payload) == 0 || string(that.Payload) == "null" {
		return payload, fmt.Errorf("%w: %s", ErrMissingPayload, that.Action)
	}

	if err := json.Unmarshal(that.Payload, &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	return payload, nil
}

func cellPtr(cell int) *int {
	return &cell
}
