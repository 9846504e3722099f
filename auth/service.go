package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Kumarpriyam05/GeoSentinel/apperror"
	"github.com/Kumarpriyam05/GeoSentinel/store"
)

const bcryptCost = 12

// Service manages dashboard accounts and their credentials.
type Service struct {
	db     *gorm.DB
	tokens *TokenService
}

// NewService builds the account service.
func NewService(db *gorm.DB, tokens *TokenService) *Service {
	return &Service{db: db, tokens: tokens}
}

// Register creates an account and returns it with a signed token.
func (s *Service) Register(ctx context.Context, name, email, password string) (*store.User, string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, "", err
	}
	user := &store.User{
		Name:         strings.TrimSpace(name),
		Email:        normalized,
		PasswordHash: string(hash),
		Role:         store.RoleUser,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, "", apperror.Conflict("Email is already registered")
		}
		return nil, "", err
	}

	token, err := s.tokens.Sign(user.ID, user.Role)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login verifies credentials, touches lastSeenAt and returns the user with a
// signed token. Wrong email and wrong password are indistinguishable.
func (s *Service) Login(ctx context.Context, email, password string) (*store.User, string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))

	var user store.User
	err := s.db.WithContext(ctx).Where("email = ?", normalized).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", apperror.Authentication("Invalid email or password")
		}
		return nil, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, "", apperror.Authentication("Invalid email or password")
	}

	user.LastSeenAt = time.Now().UTC()
	if err := s.db.WithContext(ctx).Save(&user).Error; err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Sign(user.ID, user.Role)
	if err != nil {
		return nil, "", err
	}
	return &user, token, nil
}

// UserByID loads an account by id.
func (s *Service) UserByID(ctx context.Context, id string) (*store.User, error) {
	var user store.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Authentication("User not found")
		}
		return nil, err
	}
	return &user, nil
}

// TouchLastSeen records identity activity. Best effort: failures are
// swallowed so they never block the operation they are attached to.
func (s *Service) TouchLastSeen(userID string) {
	_ = s.db.Model(&store.User{}).
		Where("id = ?", userID).
		Update("last_seen_at", time.Now().UTC()).Error
}
