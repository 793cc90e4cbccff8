package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/laserworks/workshop-service/internal/models"
)

type userStore struct{ s *Store }

func (r userStore) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	defer r.s.lock()()

	u, ok := r.s.data.users[id]
	if !ok {
		return nil, notFound("user")
	}
	return &u, nil
}

func (r userStore) GetByUsername(_ context.Context, username string) (*models.User, error) {
	defer r.s.lock()()

	for _, u := range r.s.data.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, notFound("user")
}

func (r userStore) List(_ context.Context, excludeID uuid.UUID) ([]models.User, error) {
	defer r.s.lock()()

	users := make([]models.User, 0, len(r.s.data.users))
	for id, u := range r.s.data.users {
		if id != excludeID {
			users = append(users, u)
		}
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
	return users, nil
}

func (r userStore) usernameTaken(username string, except uuid.UUID) bool {
	for id, u := range r.s.data.users {
		if id != except && u.Username == username {
			return true
		}
	}
	return false
}

func (r userStore) Create(_ context.Context, user models.User) (*models.User, error) {
	defer r.s.lock()()

	if r.usernameTaken(user.Username, uuid.Nil) {
		return nil, models.NewValidationError("username", "A user with that username already exists.")
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := r.s.timestamp()
	user.CreatedAt, user.UpdatedAt = now, now

	r.s.data.users[user.ID] = user
	return &user, nil
}

func (r userStore) Update(_ context.Context, user models.User) (*models.User, error) {
	defer r.s.lock()()

	stored, ok := r.s.data.users[user.ID]
	if !ok {
		return nil, notFound("user")
	}
	if r.usernameTaken(user.Username, user.ID) {
		return nil, models.NewValidationError("username", "A user with that username already exists.")
	}

	stored.Username = user.Username
	stored.Role = user.Role
	stored.Phone = user.Phone
	stored.Email = user.Email
	stored.FirstName = user.FirstName
	stored.LastName = user.LastName
	stored.UpdatedAt = r.s.timestamp()

	r.s.data.users[user.ID] = stored
	return &stored, nil
}

func (r userStore) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	defer r.s.lock()()

	u, ok := r.s.data.users[id]
	if !ok {
		return notFound("user")
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = r.s.timestamp()
	r.s.data.users[id] = u
	return nil
}

// Delete removes a user and nulls every reference to it
func (r userStore) Delete(_ context.Context, id uuid.UUID) error {
	defer r.s.lock()()

	if _, ok := r.s.data.users[id]; !ok {
		return notFound("user")
	}
	delete(r.s.data.users, id)

	for oid, o := range r.s.data.orders {
		if o.CreatedBy != nil && *o.CreatedBy == id {
			o.CreatedBy = nil
			r.s.data.orders[oid] = o
		}
	}
	for sid, sh := range r.s.data.shifts {
		changed := false
		if sh.OpenedBy != nil && *sh.OpenedBy == id {
			sh.OpenedBy = nil
			changed = true
		}
		if sh.ClosedBy != nil && *sh.ClosedBy == id {
			sh.ClosedBy = nil
			changed = true
		}
		if changed {
			r.s.data.shifts[sid] = sh
		}
	}
	return nil
}
