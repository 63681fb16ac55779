package auth

import (
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the user model. The password hash never serializes to JSON;
// responses carry public profile fields only.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Username      string     `bun:"username,notnull,unique" json:"username,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Phone         string     `bun:"phone_number" json:"phone_number,omitempty"`
	PasswordHash  string     `bun:"password_hash" json:"-"`
	IsStaff       bool       `bun:"is_staff" json:"is_staff"`
	IsSuperuser   bool       `bun:"is_superuser" json:"is_superuser"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// UserOption mutates a user during construction.
type UserOption func(*User)

// WithStaff overrides the is_staff flag.
func WithStaff(staff bool) UserOption {
	return func(u *User) {
		u.IsStaff = staff
	}
}

// WithSuperuser overrides the is_superuser flag.
func WithSuperuser(superuser bool) UserOption {
	return func(u *User) {
		u.IsSuperuser = superuser
	}
}

// WithPhone sets an optional phone number.
func WithPhone(phone string) UserOption {
	return func(u *User) {
		u.Phone = phone
	}
}

// NewUser builds a regular user with a hashed password. Username and email
// are identity fields and must be set.
func NewUser(username, email, password string, opts ...UserOption) (*User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if username == "" {
		return nil, errors.New("The given username must be set", errors.CategoryValidation).
			WithCode(errors.CodeBadRequest)
	}

	if email == "" {
		return nil, errors.New("The given email must be set", errors.CategoryValidation).
			WithCode(errors.CodeBadRequest)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(user)
		}
	}

	return user, nil
}

// NewSuperuser builds an administrative user. Both flags default to true and
// must stay true; provisioning scripts that override them get a hard error.
func NewSuperuser(username, email, password string, opts ...UserOption) (*User, error) {
	opts = append([]UserOption{WithStaff(true), WithSuperuser(true)}, opts...)

	user, err := NewUser(username, email, password, opts...)
	if err != nil {
		return nil, err
	}

	if !user.IsStaff {
		return nil, errors.New("Superuser must have is_staff=True.", errors.CategoryValidation).
			WithCode(errors.CodeBadRequest)
	}

	if !user.IsSuperuser {
		return nil, errors.New("Superuser must have is_superuser=True.", errors.CategoryValidation).
			WithCode(errors.CodeBadRequest)
	}

	return user, nil
}
