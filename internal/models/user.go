package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is a closed set: the only values are RoleManager and RoleWorker.
// The zero Role means "no role" and never passes authorization.
type Role struct {
	name string
}

var (
	RoleManager = Role{name: "MANAGER"}
	RoleWorker  = Role{name: "WORKER"}
)

// Roles lists every valid role
var Roles = []Role{RoleManager, RoleWorker}

// ParseRole converts a stored or submitted role name into a Role
func ParseRole(s string) (Role, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case RoleManager.name:
		return RoleManager, nil
	case RoleWorker.name:
		return RoleWorker, nil
	}
	return Role{}, fmt.Errorf("%q is not a valid role", s)
}

func (r Role) String() string { return r.name }

// IsZero reports whether r is the empty role
func (r Role) IsZero() bool { return r.name == "" }

// Display returns the human label of the role
func (r Role) Display() string {
	switch r {
	case RoleManager:
		return "Manager"
	case RoleWorker:
		return "Worker"
	}
	return ""
}

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.name), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Scan implements sql.Scanner
func (r *Role) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return r.UnmarshalText([]byte(v))
	case []byte:
		return r.UnmarshalText(v)
	case nil:
		*r = Role{}
		return nil
	}
	return fmt.Errorf("cannot scan %T into Role", src)
}

// Value implements driver.Valuer
func (r Role) Value() (driver.Value, error) {
	if r.IsZero() {
		return nil, nil
	}
	return r.name, nil
}

type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"` // Never expose in JSON
	Role         Role      `db:"role" json:"role"`
	Phone        *string   `db:"phone" json:"phone"`
	Email        string    `db:"email" json:"email"`
	FirstName    string    `db:"first_name" json:"first_name"`
	LastName     string    `db:"last_name" json:"last_name"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// IsManager reports whether the user holds the manager role
func (u *User) IsManager() bool {
	return u != nil && u.Role == RoleManager
}

// RegisterRequest is used for self-registration. There is deliberately no role
// field: new accounts are always workers.
type RegisterRequest struct {
	Username  string  `json:"username"`
	Password  string  `json:"password"`
	Phone     *string `json:"phone"`
	Email     string  `json:"email"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
}

// Validate checks the registration fields
func (r RegisterRequest) Validate() error {
	verr := &ValidationError{}
	if n := len(strings.TrimSpace(r.Username)); n < 3 || n > 150 {
		verr.Add("username", "Username must be between 3 and 150 characters.")
	}
	if len(r.Password) < 8 {
		verr.Add("password", "Password must be at least 8 characters.")
	}
	if r.Phone != nil && len(*r.Phone) > 15 {
		verr.Add("phone", "Ensure this field has no more than 15 characters.")
	}
	return verr.OrNil()
}

// UserUpdateRequest is a partial update of another user's account by a manager
type UserUpdateRequest struct {
	Username  *string `json:"username"`
	Phone     *string `json:"phone"`
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Role      *Role   `json:"role"`
}

// Apply copies the present fields onto u
func (r UserUpdateRequest) Apply(u *User) error {
	verr := &ValidationError{}
	if r.Username != nil {
		if n := len(strings.TrimSpace(*r.Username)); n < 3 || n > 150 {
			verr.Add("username", "Username must be between 3 and 150 characters.")
		} else {
			u.Username = strings.TrimSpace(*r.Username)
		}
	}
	if r.Phone != nil {
		if len(*r.Phone) > 15 {
			verr.Add("phone", "Ensure this field has no more than 15 characters.")
		} else {
			u.Phone = r.Phone
		}
	}
	if r.Email != nil {
		u.Email = *r.Email
	}
	if r.FirstName != nil {
		u.FirstName = *r.FirstName
	}
	if r.LastName != nil {
		u.LastName = *r.LastName
	}
	if r.Role != nil {
		if r.Role.IsZero() {
			verr.Add("role", "This field may not be blank.")
		} else {
			u.Role = *r.Role
		}
	}
	return verr.OrNil()
}
