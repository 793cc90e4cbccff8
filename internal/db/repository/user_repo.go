package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/laserworks/workshop-service/internal/models"
)

const userColumns = `id, username, password_hash, role, phone, email, first_name, last_name, created_at, updated_at`

// UserRepository handles user data access
type UserRepository struct {
	db  sqlx.ExtContext
	now Clock
}

// NewUserRepository creates a new user repository
func NewUserRepository(db sqlx.ExtContext, now Clock) *UserRepository {
	return &UserRepository{db: db, now: now}
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user models.User
	if err := sqlx.GetContext(ctx, r.db, &user, query, id); err != nil {
		return nil, notFound(err, "user")
	}

	return &user, nil
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	var user models.User
	if err := sqlx.GetContext(ctx, r.db, &user, query, username); err != nil {
		return nil, notFound(err, "user")
	}

	return &user, nil
}

// List retrieves all users except excludeID
func (r *UserRepository) List(ctx context.Context, excludeID uuid.UUID) ([]models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id <> $1
		ORDER BY created_at DESC
	`

	users := []models.User{}
	if err := sqlx.SelectContext(ctx, r.db, &users, query, excludeID); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return users, nil
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user models.User) (*models.User, error) {
	query := `
		INSERT INTO users (id, username, password_hash, role, phone, email, first_name, last_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		RETURNING ` + userColumns

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	var created models.User
	err := sqlx.GetContext(ctx, r.db, &created, query,
		user.ID,
		user.Username,
		user.PasswordHash,
		user.Role,
		user.Phone,
		user.Email,
		user.FirstName,
		user.LastName,
		r.now().UTC(),
	)
	if err != nil {
		if uniqueViolation(err) {
			return nil, models.NewValidationError("username", "A user with that username already exists.")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &created, nil
}

// Update updates a user's profile and role
func (r *UserRepository) Update(ctx context.Context, user models.User) (*models.User, error) {
	query := `
		UPDATE users
		SET username = $1, role = $2, phone = $3, email = $4, first_name = $5, last_name = $6, updated_at = $7
		WHERE id = $8
		RETURNING ` + userColumns

	var updated models.User
	err := sqlx.GetContext(ctx, r.db, &updated, query,
		user.Username,
		user.Role,
		user.Phone,
		user.Email,
		user.FirstName,
		user.LastName,
		r.now().UTC(),
		user.ID,
	)
	if err != nil {
		if uniqueViolation(err) {
			return nil, models.NewValidationError("username", "A user with that username already exists.")
		}
		return nil, notFound(err, "user")
	}

	return &updated, nil
}

// UpdatePassword updates a user's password
func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $1, updated_at = $2
		WHERE id = $3
	`

	result, err := r.db.ExecContext(ctx, query, passwordHash, r.now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update user password: %w", err)
	}

	return checkAffected(result, "user")
}

// Delete deletes a user. Orders and shifts keep existing with a null
// reference (ON DELETE SET NULL).
func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	return checkAffected(result, "user")
}
