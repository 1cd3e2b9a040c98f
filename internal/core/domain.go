package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

type (
	// Kind classifies categories and transactions.
	Kind string

	User struct {
		ID    int64  `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
		// Password is only read from requests; it is never serialised back.
		Password     string `json:"password,omitempty"`
		PasswordHash string `json:"-"`
	}

	Category struct {
		ID    int64  `json:"id"`
		Name  string `json:"name"`
		Icon  string `json:"icon"`
		Color string `json:"color"`
		Type  Kind   `json:"type"`
	}

	Transaction struct {
		ID          int64           `json:"id"`
		Amount      decimal.Decimal `json:"amount"`
		Description string          `json:"description"`
		Type        Kind            `json:"type"`
		Date        Date            `json:"date"`
		Category    *Category       `json:"category"`
		User        *User           `json:"user"`
	}

	Goal struct {
		ID            int64            `json:"id"`
		Title         string           `json:"title"`
		TargetAmount  decimal.Decimal  `json:"targetAmount"`
		CurrentAmount *decimal.Decimal `json:"currentAmount"`
		TargetDate    Date             `json:"targetDate"`
		Description   string           `json:"description"`
		User          *User            `json:"user"`
	}

	// Credentials is the login request body.
	Credentials struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
)

var (
	ErrNotFound           = errors.New("record not found")
	ErrInvalidReference   = errors.New("referenced record does not exist")
	ErrInUse              = errors.New("record is still referenced")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrValidation      = errors.New("validation failed")
	ErrInvalidKind     = fmt.Errorf("%w: type must be %q or %q", ErrValidation, Income, Expense)
	ErrEmptyName       = fmt.Errorf("%w: name is required", ErrValidation)
	ErrEmptyEmail      = fmt.Errorf("%w: email is required", ErrValidation)
	ErrMissingCategory = fmt.Errorf("%w: category reference is required", ErrValidation)
	ErrMissingUser     = fmt.Errorf("%w: user reference is required", ErrValidation)
)

func (k Kind) Valid() bool {
	return k == Income || k == Expense
}

func (u User) Validate() error {
	if strings.TrimSpace(u.Email) == "" {
		return ErrEmptyEmail
	}
	return nil
}

// Public returns a copy safe to serialise: no password, no hash.
func (u User) Public() User {
	u.Password = ""
	u.PasswordHash = ""
	return u
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if !c.Type.Valid() {
		return ErrInvalidKind
	}
	return nil
}

func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return ErrInvalidKind
	}
	if t.Category == nil || t.Category.ID <= 0 {
		return ErrMissingCategory
	}
	if t.User == nil || t.User.ID <= 0 {
		return ErrMissingUser
	}
	return nil
}

func (g Goal) Validate() error {
	if g.User == nil || g.User.ID <= 0 {
		return ErrMissingUser
	}
	return nil
}

// CategoryID returns the referenced category id, or 0 when unset.
func (t Transaction) CategoryID() int64 {
	if t.Category == nil {
		return 0
	}
	return t.Category.ID
}

// UserID returns the owning user id, or 0 when unset.
func (t Transaction) UserID() int64 {
	if t.User == nil {
		return 0
	}
	return t.User.ID
}

// UserID returns the owning user id, or 0 when unset.
func (g Goal) UserID() int64 {
	if g.User == nil {
		return 0
	}
	return g.User.ID
}
