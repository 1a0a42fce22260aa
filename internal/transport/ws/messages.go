package ws

import (
	"encoding/json"
	"errors"
	"strings"

	"hashchat/internal/relay"
)

// Mensajes de error propios del transporte.
const (
	msgInvalidFrame = "Invalid message data"
	msgUnauthorized = "Unauthorized"
	msgRateLimited  = "rate limited"
	msgShuttingDown = "Server is shutting down"
)

// inbound es un frame cliente->servidor; el payload se decodifica segun Type.
type inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type JoinPayload struct {
	UserID string `json:"userId"`
}

var errEmptyPayload = errors.New("empty payload")

// decodeJoin acepta {"userId": "..."} o un string suelto.
func decodeJoin(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", errEmptyPayload
	}
	var bare string
	if err := json.Unmarshal(raw, &bare); err == nil {
		return strings.TrimSpace(bare), nil
	}
	var p JoinPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return "", err
	}
	return strings.TrimSpace(p.UserID), nil
}

func decodeSend(raw json.RawMessage) (relay.SubmitInput, error) {
	var in relay.SubmitInput
	if len(raw) == 0 {
		return in, errEmptyPayload
	}
	err := json.Unmarshal(raw, &in)
	return in, err
}
