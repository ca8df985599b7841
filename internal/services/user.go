package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pennywise-app/apiserver/internal/metrics"
	"github.com/pennywise-app/apiserver/internal/store"
	"github.com/pennywise-app/apiserver/types"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrUsernameTaken is returned when registering an existing username.
	ErrUsernameTaken = errors.New("username already exists")
	// ErrInvalidCredentials covers both an unknown username and a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrPasswordTooLong is returned for passwords bcrypt cannot hash.
	ErrPasswordTooLong = errors.New("password must be at most 72 bytes")
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
}

// UserService owns user credentials: registration and password checks.
type UserService struct {
	repo     UserRepository
	events   EventPublisher
	log      zerolog.Logger
	hashCost int
}

func NewUserService(repo UserRepository, events EventPublisher, log zerolog.Logger) *UserService {
	return &UserService{
		repo:     repo,
		events:   events,
		log:      log,
		hashCost: bcrypt.DefaultCost,
	}
}

// Register stores a new user with a bcrypt hash of password.
func (s *UserService) Register(ctx context.Context, username, password string) (types.User, error) {
	if _, err := s.repo.GetByUsername(ctx, username); err == nil {
		return types.User{}, ErrUsernameTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.User{}, fmt.Errorf("check username: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return types.User{}, ErrPasswordTooLong
		}
		return types.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.Create(ctx, types.User{
		Username:     username,
		PasswordHash: string(hashed),
	})
	if err != nil {
		// Lost a race with a concurrent registration of the same name.
		if errors.Is(err, store.ErrConflict) {
			return types.User{}, ErrUsernameTaken
		}
		return types.User{}, fmt.Errorf("create user: %w", err)
	}

	metrics.UsersRegisteredTotal.Inc()
	publish(ctx, s.events, s.log, types.Event{
		Type:       types.EventUserRegistered,
		UserID:     user.ID,
		OccurredAt: time.Now().UTC(),
	})

	return user, nil
}

// Authenticate returns the user when password matches the stored hash.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (types.User, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrInvalidCredentials
		}
		return types.User{}, fmt.Errorf("load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return types.User{}, ErrInvalidCredentials
	}
	return user, nil
}
