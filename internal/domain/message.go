package domain

import "time"

// Message es el registro durable e inmutable de un mensaje directo.
type Message struct {
	ID         string    `json:"id"`
	Seq        int64     `json:"-"`
	SenderID   string    `json:"sender"`
	ReceiverID string    `json:"receiver"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"createdAt"`
}

// DeliveryPayload es lo que recibe cada canal en un receive_message.
type DeliveryPayload struct {
	ID                string    `json:"id"`
	Sender            string    `json:"sender"`
	Receiver          string    `json:"receiver"`
	Text              string    `json:"text"`
	SenderDisplayName string    `json:"senderDisplayName"`
	CreatedAt         time.Time `json:"createdAt"`
}

// UnknownDisplayName se usa cuando el directorio no resuelve al remitente.
const UnknownDisplayName = "Unknown"

func NewDeliveryPayload(msg Message, senderDisplayName string) DeliveryPayload {
	if senderDisplayName == "" {
		senderDisplayName = UnknownDisplayName
	}
	return DeliveryPayload{
		ID:                msg.ID,
		Sender:            msg.SenderID,
		Receiver:          msg.ReceiverID,
		Text:              msg.Text,
		SenderDisplayName: senderDisplayName,
		CreatedAt:         msg.CreatedAt,
	}
}
