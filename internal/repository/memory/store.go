// Package memory keeps every store in process memory. It backs the memory
// database driver and the service scenario tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/authkeeper/internal/model"
)

var _ model.Transactor = (*Store)(nil)

// Store owns the shared state of the memory repositories.
type Store struct {
	mu          sync.RWMutex
	users       map[uuid.UUID]model.User
	byUsername  map[string]uuid.UUID
	byEmail     map[string]uuid.UUID
	tokens      map[uuid.UUID]model.Token
	tokenByHash map[string]uuid.UUID
	grants      map[uuid.UUID][]string
	emails      []model.Message

	// txMu serializes transactions, which is what makes a check and a
	// paired mutation inside RunInTx atomic.
	txMu sync.Mutex
	now  func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used for token expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		users:       make(map[uuid.UUID]model.User),
		byUsername:  make(map[string]uuid.UUID),
		byEmail:     make(map[string]uuid.UUID),
		tokens:      make(map[uuid.UUID]model.Token),
		tokenByHash: make(map[string]uuid.UUID),
		grants:      make(map[uuid.UUID][]string),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Users() *UserRepository             { return &UserRepository{s: s} }
func (s *Store) Tokens() *TokenRepository           { return &TokenRepository{s: s} }
func (s *Store) Permissions() *PermissionRepository { return &PermissionRepository{s: s} }
func (s *Store) Emails() *EmailRepository           { return &EmailRepository{s: s} }

type txKey struct{}

// undoLog collects the inverse of every mutation made inside a transaction.
type undoLog struct {
	steps []func()
}

// RunInTx runs fn exclusively of other transactions and reverts every
// mutation fn made when it returns an error.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*undoLog); ok {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	log := &undoLog{}
	err := fn(context.WithValue(ctx, txKey{}, log))
	if err != nil {
		s.mu.Lock()
		for i := len(log.steps) - 1; i >= 0; i-- {
			log.steps[i]()
		}
		s.mu.Unlock()
		return err
	}

	return nil
}

// record registers undo for the transaction in ctx, if any. Callers hold mu.
func record(ctx context.Context, undo func()) {
	if log, ok := ctx.Value(txKey{}).(*undoLog); ok {
		log.steps = append(log.steps, undo)
	}
}
