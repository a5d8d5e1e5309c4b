package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"task-planner/backend/internal/models"
	"task-planner/backend/internal/store"

	"github.com/gofrs/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account. Emails are compared case-insensitively.
func (s *AuthServiceImpl) Register(ctx context.Context, name, email, password string) (models.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)

	if name == "" {
		return models.User{}, invalid("name", "is required")
	}
	if email == "" || !strings.Contains(email, "@") {
		return models.User{}, invalid("email", "must be a valid address")
	}
	if len(password) < minPasswordLength {
		return models.User{}, invalid("password", "must be at least 8 characters")
	}

	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return models.User{}, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return models.User{}, classify("find user", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BCryptCost)
	if err != nil {
		return models.User{}, err
	}

	now := s.now().UTC().Truncate(time.Millisecond)
	user := models.User{
		ID:        uuid.Must(uuid.NewV4()),
		Name:      name,
		Email:     email,
		Password:  string(hashedPassword),
		CreatedAt: now,
		UpdatedAt: now,
	}

	// The unique index still decides when two signups race.
	if err := s.store.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, classify("create user", err)
	}
	return user, nil
}
