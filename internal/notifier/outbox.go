// Package notifier contains the backends account emails are handed to.
package notifier

import (
	"context"
	"fmt"

	"github.com/dtroode/authkeeper/internal/model"
)

var _ model.Notifier = (*Outbox)(nil)

// Outbox saves messages into the email store for a separate sender to pick up.
type Outbox struct {
	store model.EmailStore
}

func NewOutbox(store model.EmailStore) *Outbox {
	return &Outbox{store: store}
}

func (o *Outbox) Send(ctx context.Context, msg model.Message) error {
	if err := o.store.Save(ctx, msg); err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}
	return nil
}
