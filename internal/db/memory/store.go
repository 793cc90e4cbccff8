// Package memory is an entity store kept in process memory. It backs the
// service tests and the `memory` database driver used for demos.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/laserworks/workshop-service/internal/db/repository"
	"github.com/laserworks/workshop-service/internal/models"
)

var _ repository.Store = (*Store)(nil)

type state struct {
	users  map[uuid.UUID]models.User
	orders map[uuid.UUID]models.Order
	shifts map[uuid.UUID]models.Shift
}

func newState() *state {
	return &state{
		users:  make(map[uuid.UUID]models.User),
		orders: make(map[uuid.UUID]models.Order),
		shifts: make(map[uuid.UUID]models.Shift),
	}
}

func (s *state) clone() *state {
	c := &state{
		users:  make(map[uuid.UUID]models.User, len(s.users)),
		orders: make(map[uuid.UUID]models.Order, len(s.orders)),
		shifts: make(map[uuid.UUID]models.Shift, len(s.shifts)),
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.shifts {
		c.shifts[k] = v
	}
	return c
}

// Store keeps every entity in maps guarded by one mutex. A transaction holds
// the mutex for its whole duration and works on a copy that replaces the
// committed state only when the callback succeeds.
type Store struct {
	mu   *sync.Mutex
	data *state
	tx   bool
	now  repository.Clock
}

// New creates an empty store
func New(now repository.Clock) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{mu: &sync.Mutex{}, data: newState(), now: now}
}

func (s *Store) Users() repository.UserStore   { return userStore{s} }
func (s *Store) Orders() repository.OrderStore { return orderStore{s} }
func (s *Store) Shifts() repository.ShiftStore { return shiftStore{s} }

// InTx runs fn on a private copy of the data and commits it when fn succeeds
func (s *Store) InTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.tx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.data.clone()
	if err := fn(&Store{mu: s.mu, data: work, tx: true, now: s.now}); err != nil {
		return err
	}

	*s.data = *work
	return nil
}

// lock guards a single operation. Inside a transaction the mutex is
// already held.
func (s *Store) lock() func() {
	if s.tx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC()
}

func (s *Store) username(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	u, ok := s.data.users[*id]
	if !ok {
		return nil
	}
	name := u.Username
	return &name
}

func notFound(what string) error {
	return fmt.Errorf("%s: %w", what, models.ErrNotFound)
}
