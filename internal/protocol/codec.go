package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrMalformedMessage      = errors.New("MALFORMED_MESSAGE")
	ErrUnknownNotification   = errors.New("UNKNOWN_NOTIFICATION")
	ErrMalformedNotification = errors.New("MALFORMED_NOTIFICATION")
)

// Envelope is the wire framing of a channel message.
type Envelope struct {
	Player  string          `json:"player"`
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Encode frames msg as sent by sender.
func Encode(sender string, msg Message) ([]byte, error) {
	if msg == nil {
		return nil, fmt.Errorf("%w: nil message", ErrMalformedMessage)
	}

	env := Envelope{Player: sender, Type: msg.Type()}
	if u, ok := msg.(*Unknown); ok {
		env.Payload = u.Raw
	} else {
		payload, err := json.Marshal(msg)
		if err != nil {
			return nil, err
		}
		env.Payload = payload
	}

	return json.Marshal(env)
}

// Decode parses a framed message. Unrecognized types come back as *Unknown
// with a nil error so callers can log and drop them.
func Decode(data []byte) (string, Message, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	factory, ok := messageFactories[env.Type]
	if !ok {
		return env.Player, &Unknown{Kind: env.Type, Raw: env.Payload}, nil
	}

	msg := factory()
	if len(env.Payload) > 0 && string(env.Payload) != "null" {
		if err := json.Unmarshal(env.Payload, msg); err != nil {
			return env.Player, nil, fmt.Errorf("%w: %s payload: %v", ErrMalformedMessage, env.Type, err)
		}
	}
	return env.Player, msg, nil
}
