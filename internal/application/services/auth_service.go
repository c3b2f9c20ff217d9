package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tasknest/core/internal/domain/entities"
	"github.com/tasknest/core/internal/domain/validation"
	"github.com/tasknest/core/internal/infrastructure/config"
	"github.com/tasknest/core/internal/infrastructure/logger"
	"github.com/tasknest/core/internal/ports"
)

// Claims represents the JWT session claims
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// AuthService handles registration, login and session tokens. Sessions are
// process-local: when no signing secret is configured one is generated at
// startup, and revocations live in memory, so no session survives a restart.
type AuthService struct {
	userRepo ports.UserRepository
	cfg      config.AuthConfig
	secret   []byte
	logger   *logger.Logger

	mu      sync.Mutex
	revoked map[string]time.Time // token ID -> expiry
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo ports.UserRepository, cfg config.AuthConfig, appLogger *logger.Logger) (*AuthService, error) {
	secret := []byte(cfg.Secret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("failed to generate session secret: %w", err)
		}
	}

	return &AuthService{
		userRepo: userRepo,
		cfg:      cfg,
		secret:   secret,
		logger:   appLogger,
		revoked:  make(map[string]time.Time),
	}, nil
}

// Register creates a new account and opens a session for it.
func (s *AuthService) Register(ctx context.Context, req ports.RegisterRequest) (*ports.AuthResponse, error) {
	username, err := validation.Username(req.Username)
	if err != nil {
		return nil, err
	}

	email, err := validation.Email(req.Email)
	if err != nil {
		return nil, err
	}

	if err := validation.Password(req.Password); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entities.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
		CreatedAt:    time.Now(),
		IsActive:     true,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, entities.ErrDuplicateUsername) {
			s.logger.LogUserAction("", "registration_failed", map[string]interface{}{"username": username, "reason": "duplicate"})
			return nil, entities.ErrDuplicateUsername
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User registered successfully", "user_id", user.ID, "username", user.Username)

	return s.openSession(user)
}

// Login authenticates a user and opens a session. Every failure mode maps to
// the same error so callers cannot probe which usernames exist.
func (s *AuthService) Login(ctx context.Context, req ports.LoginRequest) (*ports.AuthResponse, error) {
	user, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		s.logger.LogSecurityEvent("login_failed", "", "", map[string]interface{}{"username": req.Username, "reason": "unknown user"})
		return nil, entities.ErrInvalidCredentials
	}

	if !user.IsActive {
		s.logger.LogSecurityEvent("login_failed", user.ID.String(), "", map[string]interface{}{"reason": "inactive account"})
		return nil, entities.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.LogSecurityEvent("login_failed", user.ID.String(), "", map[string]interface{}{"reason": "wrong password"})
		return nil, entities.ErrInvalidCredentials
	}

	now := time.Now()
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("Failed to update last login time", "error", err, "user_id", user.ID)
	} else {
		user.LastLogin = &now
	}

	s.logger.Info("User logged in successfully", "user_id", user.ID, "username", user.Username)

	return s.openSession(user)
}

// Logout revokes the session behind the given token.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.ValidateToken(token)
	if err != nil {
		return fmt.Errorf("invalid session token: %w", err)
	}

	s.revoke(claims.TokenID)
	s.logger.Info("User logged out successfully", "user_id", claims.UserID)

	return nil
}

// ChangePassword verifies the old password and stores a new hash. All other
// sessions stay valid; only the credential changes.
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, req ports.ChangePasswordRequest) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		s.logger.LogSecurityEvent("password_change_failed", userID.String(), "", map[string]interface{}{"reason": "wrong old password"})
		return entities.ErrInvalidCredentials
	}

	if err := validation.Password(req.NewPassword); err != nil {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.PasswordHash = string(hashedPassword)
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	s.logger.LogUserAction(userID.String(), "password_changed", nil)

	return nil
}

// ValidateToken validates a session token and returns its claims.
func (s *AuthService) ValidateToken(tokenString string) (*ports.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	if s.isRevoked(claims.ID) {
		return nil, fmt.Errorf("session has been revoked")
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id in token: %w", err)
	}

	return &ports.Claims{
		UserID:   userID,
		Username: claims.Username,
		TokenID:  claims.ID,
	}, nil
}

func (s *AuthService) openSession(user *entities.User) (*ports.AuthResponse, error) {
	now := time.Now()
	claims := &Claims{
		UserID:   user.ID.String(),
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    s.cfg.Issuer,
			Subject:   user.ID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	// Never hand the hash back to callers.
	sanitized := *user
	sanitized.PasswordHash = ""

	return &ports.AuthResponse{
		Token:     signed,
		TokenType: "Bearer",
		ExpiresIn: int64(s.cfg.TokenTTL.Seconds()),
		User:      &sanitized,
	}, nil
}

func (s *AuthService) revoke(tokenID string) {
	if tokenID == "" {
		return
	}

	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	s.revoked[tokenID] = now.Add(s.cfg.TokenTTL)

	// Drop entries whose tokens have expired on their own.
	for id, expiry := range s.revoked {
		if expiry.Before(now) {
			delete(s.revoked, id)
		}
	}
}

func (s *AuthService) isRevoked(tokenID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.revoked[tokenID]
	return ok
}
