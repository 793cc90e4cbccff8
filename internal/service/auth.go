package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/laserworks/workshop-service/internal/db/repository"
	"github.com/laserworks/workshop-service/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// JWTConfig holds configuration for JWT token generation
type JWTConfig struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// TokenType tells access tokens from refresh tokens
type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

// AuthService handles authentication and account self-service
type AuthService struct {
	store     repository.Store
	jwtConfig JWTConfig
}

// NewAuthService creates a new authentication service
func NewAuthService(store repository.Store, jwtConfig JWTConfig) *AuthService {
	return &AuthService{
		store:     store,
		jwtConfig: jwtConfig,
	}
}

// Claims represents JWT claims
type Claims struct {
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	TokenType TokenType `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenPair is returned on login
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Register creates a worker account. The role is never taken from the caller.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Username:     strings.TrimSpace(req.Username),
		PasswordHash: string(hashedPassword),
		Role:         models.RoleWorker,
		Phone:        req.Phone,
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
	}

	return s.store.Users().Create(ctx, user)
}

// EnsureManager creates a manager account unless the username is taken.
// It reports whether an account was created.
func (s *AuthService) EnsureManager(ctx context.Context, username, password string) (bool, error) {
	_, err := s.store.Users().GetByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return false, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("failed to hash password: %w", err)
	}

	_, err = s.store.Users().Create(ctx, models.User{
		Username:     username,
		PasswordHash: string(hashedPassword),
		Role:         models.RoleManager,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// Login authenticates a user and returns an access and a refresh token.
// Every failure looks the same to the caller.
func (s *AuthService) Login(ctx context.Context, username, password string) (*TokenPair, *models.User, error) {
	user, err := s.store.Users().GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil, models.ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, models.ErrInvalidCredentials
	}

	access, err := s.generateToken(user, TokenAccess, s.jwtConfig.AccessTTL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate token: %w", err)
	}
	refresh, err := s.generateToken(user, TokenRefresh, s.jwtConfig.RefreshTTL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &TokenPair{Access: access, Refresh: refresh}, user, nil
}

// Refresh issues a new access token for a valid refresh token
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.parseToken(refreshToken, TokenRefresh)
	if err != nil {
		return "", err
	}

	user, err := s.userFromClaims(ctx, claims)
	if err != nil {
		return "", err
	}

	access, err := s.generateToken(user, TokenAccess, s.jwtConfig.AccessTTL)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return access, nil
}

// generateToken generates a signed JWT for a user
func (s *AuthService) generateToken(user *models.User, tokenType TokenType, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := &Claims{
		UserID:    user.ID.String(),
		Role:      user.Role.String(),
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtConfig.Secret))
}

// ValidateToken validates an access token and returns the claims
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	return s.parseToken(tokenString, TokenAccess)
}

func (s *AuthService) parseToken(tokenString string, want TokenType) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtConfig.Secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %v: %w", err, models.ErrUnauthenticated)
	}

	if !token.Valid || claims.TokenType != want {
		return nil, fmt.Errorf("invalid %s token: %w", want, models.ErrUnauthenticated)
	}

	return claims, nil
}

// UserFromToken resolves an access token to its user
func (s *AuthService) UserFromToken(ctx context.Context, tokenString string) (*models.User, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return s.userFromClaims(ctx, claims)
}

func (s *AuthService) userFromClaims(ctx context.Context, claims *Claims) (*models.User, error) {
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID in token: %w", models.ErrUnauthenticated)
	}

	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("user no longer exists: %w", models.ErrUnauthenticated)
		}
		return nil, err
	}

	return user, nil
}

// Me returns the current user's profile
func (s *AuthService) Me(ctx context.Context, actor *models.User) (*models.User, error) {
	if actor == nil {
		return nil, models.ErrUnauthenticated
	}
	return s.store.Users().GetByID(ctx, actor.ID)
}

// ChangePassword changes the actor's own password
func (s *AuthService) ChangePassword(ctx context.Context, actor *models.User, currentPassword, newPassword string) error {
	if actor == nil {
		return models.ErrUnauthenticated
	}

	user, err := s.store.Users().GetByID(ctx, actor.ID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return models.NewValidationError("old_password", "Current password is incorrect.")
	}
	if len(newPassword) < 8 {
		return models.NewValidationError("new_password", "Password must be at least 8 characters.")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.store.Users().UpdatePassword(ctx, user.ID, string(hashedPassword))
}
