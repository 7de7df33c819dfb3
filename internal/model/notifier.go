package model

import (
	"context"
	"time"
)

// MessageKind tells which flow produced a message.
type MessageKind string

const (
	MessageKindActivation    MessageKind = "activation"
	MessageKindResetPassword MessageKind = "reset_password"
)

// Message is a prepared email handed to a Notifier.
type Message struct {
	ID        string      `json:"id"`
	Kind      MessageKind `json:"kind"`
	From      string      `json:"from"`
	Recipient string      `json:"recipient"`
	Subject   string      `json:"subject"`
	Body      string      `json:"body"`
	CreatedAt time.Time   `json:"created_at"`
}

// Notifier accepts prepared messages for delivery.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// EmailStore persists outgoing messages.
type EmailStore interface {
	Save(ctx context.Context, msg Message) error
}
