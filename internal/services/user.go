package services

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"finora/internal/amqp"
	"finora/internal/core"
	"finora/internal/repository"
)

const (
	defaultBcryptCost = bcrypt.DefaultCost
	// GenerateFromPassword rejects longer input.
	maxBcryptInput = 72
)

// UserService never returns password material: every user it hands out has
// gone through core.User.Public.
type UserService struct {
	store    repository.Users
	notifier *notifier
	cost     int
}

// Register stores a new user with a bcrypt hash of the supplied password.
// Every password is hashed, the empty one included, so the same value
// always logs in.
func (s *UserService) Register(ctx context.Context, u core.User) (core.User, error) {
	u.ID = 0
	if err := u.Validate(); err != nil {
		return core.User{}, err
	}
	hash, err := s.hash(u.Password)
	if err != nil {
		return core.User{}, err
	}
	u.PasswordHash = hash
	u.Password = ""

	saved, err := s.store.SaveUser(ctx, u)
	if err != nil {
		return core.User{}, fmt.Errorf("register user: %w", err)
	}
	s.notifier.written(ctx, amqp.EntityUser, amqp.ActionCreated, saved.ID)
	return saved.Public(), nil
}

// Login returns the user whose email and password both match. Unknown email
// and wrong password fail the same way, with core.ErrInvalidCredentials.
func (s *UserService) Login(ctx context.Context, email, password string) (core.User, error) {
	u, ok, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		return core.User{}, fmt.Errorf("login: %w", err)
	}
	if !ok || u.PasswordHash == "" {
		return core.User{}, core.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), bcryptInput(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return core.User{}, core.ErrInvalidCredentials
		}
		return core.User{}, fmt.Errorf("login: %w", err)
	}
	return u.Public(), nil
}

func (s *UserService) Get(ctx context.Context, id int64) (core.User, bool, error) {
	u, ok, err := s.store.FindUser(ctx, id)
	return u.Public(), ok, err
}

func (s *UserService) List(ctx context.Context) ([]core.User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i] = users[i].Public()
	}
	return users, nil
}

// Update overwrites name and email. A non-empty password is re-hashed; an
// empty one keeps the stored hash.
func (s *UserService) Update(ctx context.Context, id int64, in core.User) (core.User, error) {
	existing, ok, err := s.store.FindUser(ctx, id)
	if err != nil {
		return core.User{}, fmt.Errorf("update user %d: %w", id, err)
	}
	if !ok {
		return core.User{}, fmt.Errorf("update user %d: %w", id, core.ErrNotFound)
	}

	existing.Name = in.Name
	existing.Email = in.Email
	if err := existing.Validate(); err != nil {
		return core.User{}, err
	}
	if in.Password != "" {
		if existing.PasswordHash, err = s.hash(in.Password); err != nil {
			return core.User{}, err
		}
	}

	saved, err := s.store.SaveUser(ctx, existing)
	if err != nil {
		return core.User{}, fmt.Errorf("update user %d: %w", id, err)
	}
	s.notifier.written(ctx, amqp.EntityUser, amqp.ActionUpdated, id)
	return saved.Public(), nil
}

func (s *UserService) Delete(ctx context.Context, id int64) error {
	_, ok, err := s.store.FindUser(ctx, id)
	if err != nil || !ok {
		return err
	}
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.notifier.written(ctx, amqp.EntityUser, amqp.ActionDeleted, id)
	return nil
}

func (s *UserService) hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword(bcryptInput(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// bcryptInput digests passwords longer than bcrypt accepts. The digest is
// base64 encoded so it never contains a NUL byte.
func bcryptInput(password string) []byte {
	if len(password) <= maxBcryptInput {
		return []byte(password)
	}
	sum := sha256.Sum256([]byte(password))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}
