package memory

import (
	"context"
	"slices"

	"github.com/dtroode/authkeeper/internal/model"
)

var _ model.EmailStore = (*EmailRepository)(nil)

type EmailRepository struct {
	s *Store
}

func (r *EmailRepository) Save(_ context.Context, msg model.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.emails = append(r.s.emails, msg)
	return nil
}

// All returns the saved messages in insertion order.
func (r *EmailRepository) All() []model.Message {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return slices.Clone(r.s.emails)
}
