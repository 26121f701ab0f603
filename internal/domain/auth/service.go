package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"freightmarket/internal/domain/profile"
)

// UserRepository lists the user queries the auth service needs.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	RecordLoginFailure(ctx context.Context, id int64, attempts int, lockedUntil *time.Time) error
	ResetLoginFailures(ctx context.Context, id int64) error
}

type ProfileCreator interface {
	EnsureProfile(ctx context.Context, userID int64, fullName, email string) (*profile.Profile, error)
}

type jwtService interface {
	GenerateToken(userID int64, role string) (string, error)
}

// Service contains the business logic for authentication
type Service struct {
	users    UserRepository
	profiles ProfileCreator
	jwt      jwtService
	now      func() time.Time
}

func NewService(users UserRepository, profiles ProfileCreator, jwt jwtService) *Service {
	return &Service{
		users:    users,
		profiles: profiles,
		jwt:      jwt,
		now:      time.Now,
	}
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	email := normalizeEmail(req.Email)

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         RoleMember,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	if _, err := s.profiles.EnsureProfile(ctx, user.ID, req.FullName, email); err != nil {
		// the account exists; the profile is recreated lazily on next login
		log.Printf("auth_register_profile_failed user_id=%d error=%v", user.ID, err)
	}

	token, err := s.jwt.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return nil, err
	}
	return &AuthResponse{User: user, AccessToken: token}, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	now := s.now()
	if user.IsLocked(now) {
		return nil, ErrAccountLocked
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		attempts := user.FailedLoginAttempts + 1
		var lockedUntil *time.Time
		if attempts >= maxFailedLoginAttempts {
			until := now.Add(lockoutDuration)
			lockedUntil = &until
		}
		if err := s.users.RecordLoginFailure(ctx, user.ID, attempts, lockedUntil); err != nil {
			return nil, err
		}
		if lockedUntil != nil {
			return nil, ErrAccountLocked
		}
		return nil, ErrInvalidCredentials
	}

	if user.FailedLoginAttempts > 0 || user.LockedUntil != nil {
		if err := s.users.ResetLoginFailures(ctx, user.ID); err != nil {
			return nil, err
		}
	}

	if _, err := s.profiles.EnsureProfile(ctx, user.ID, "", user.Email); err != nil {
		log.Printf("auth_login_profile_failed user_id=%d error=%v", user.ID, err)
	}

	token, err := s.jwt.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return nil, err
	}
	return &AuthResponse{User: user, AccessToken: token}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
