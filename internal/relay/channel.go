package relay

import (
	"errors"

	"hashchat/internal/domain"
)

const (
	EventJoin           = "join"
	EventSendMessage    = "send_message"
	EventReceiveMessage = "receive_message"
	EventError          = "error"
)

var (
	ErrChannelClosed = errors.New("channel closed")
	ErrChannelFull   = errors.New("channel outbound queue full")
)

// Event es la unidad que viaja por un canal en cualquier direccion.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func ReceiveMessageEvent(p domain.DeliveryPayload) Event {
	return Event{Type: EventReceiveMessage, Payload: p}
}

func ErrorEvent(message string) Event {
	return Event{Type: EventError, Payload: ErrorPayload{Message: message}}
}

// Channel es una conexion viva con un cliente.
// Push no debe bloquear; un canal cerrado devuelve ErrChannelClosed.
type Channel interface {
	ID() string
	Push(evt Event) error
}

// Registry resuelve que canales estan vivos para cada usuario.
type Registry interface {
	Join(userID string, ch Channel)
	Leave(ch Channel)
	SessionsFor(userID string) []Channel
}
