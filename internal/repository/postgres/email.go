package postgres

import (
	"context"
	"fmt"

	"github.com/dtroode/authkeeper/internal/model"
)

var _ model.EmailStore = (*EmailRepository)(nil)

// EmailRepository is the send_emails outbox. Rows are inserted PENDING and
// picked up by a mail relay outside this service.
type EmailRepository struct {
	db *Connection
}

func NewEmailRepository(db *Connection) *EmailRepository {
	return &EmailRepository{db: db}
}

func (r *EmailRepository) Save(ctx context.Context, msg model.Message) error {
	const query = `
        INSERT INTO send_emails (id, kind, sender, recipient, subject, body, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, 'PENDING', $7)
    `

	_, err := r.db.conn(ctx).Exec(ctx, query,
		msg.ID, string(msg.Kind), msg.From, msg.Recipient, msg.Subject, msg.Body, msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save email: %w", err)
	}
	return nil
}
