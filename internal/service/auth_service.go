package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Marga-Ghale/ora-tracker/internal/config"
	"github.com/Marga-Ghale/ora-tracker/internal/repository"
	"github.com/Marga-Ghale/ora-tracker/internal/types"
)

// ============================================
// Auth Service
// ============================================

type AuthService interface {
	Register(ctx context.Context, firstName, lastName, email, password string) (*repository.User, string, string, error)
	Login(ctx context.Context, email, password string) (*repository.User, string, string, error)
	RefreshToken(ctx context.Context, refreshToken string) (string, string, error)
	Logout(ctx context.Context, refreshToken string) error
	ValidateToken(token string) (*jwt.Token, error)
	GetUserIDFromToken(token *jwt.Token) (string, error)
	// UserIDFromAccessToken validates a raw bearer token and returns its subject.
	UserIDFromAccessToken(token string) (string, error)
}

type authService struct {
	cfg      *config.Config
	userRepo repository.UserRepository
	now      func() time.Time
}

func NewAuthService(cfg *config.Config, userRepo repository.UserRepository) AuthService {
	return &authService{cfg: cfg, userRepo: userRepo, now: time.Now}
}

func (s *authService) Register(ctx context.Context, firstName, lastName, email, password string) (*repository.User, string, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	existingUser, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to look up user: %w", err)
	}
	if existingUser != nil {
		return nil, "", "", ErrUserExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &repository.User{
		FirstName: strings.TrimSpace(firstName),
		LastName:  strings.TrimSpace(lastName),
		Email:     email,
		Password:  string(hashedPassword),
		Roles:     []string{types.RoleMember},
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, "", "", fmt.Errorf("failed to create user: %w", err)
	}

	accessToken, refreshToken, err := s.generateTokens(ctx, user.ID)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to generate tokens: %w", err)
	}

	return user, accessToken, refreshToken, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*repository.User, string, string, error) {
	user, err := s.userRepo.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil || user == nil {
		return nil, "", "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", "", ErrInvalidCredentials
	}

	accessToken, refreshToken, err := s.generateTokens(ctx, user.ID)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to generate tokens: %w", err)
	}

	return user, accessToken, refreshToken, nil
}

func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (string, string, error) {
	rt, err := s.userRepo.FindRefreshToken(ctx, refreshToken)
	if err != nil || rt == nil {
		return "", "", ErrInvalidToken
	}

	// Refresh tokens are single use.
	if err := s.userRepo.DeleteRefreshToken(ctx, refreshToken); err != nil {
		log.WithError(err).Warn("failed to delete refresh token")
	}
	if s.now().After(rt.ExpiresAt) {
		return "", "", ErrInvalidToken
	}

	accessToken, newRefreshToken, err := s.generateTokens(ctx, rt.UserID)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate tokens: %w", err)
	}

	return accessToken, newRefreshToken, nil
}

func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	return s.userRepo.DeleteRefreshToken(ctx, refreshToken)
}

func (s *authService) ValidateToken(tokenString string) (*jwt.Token, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, err
	}
	return token, nil
}

func (s *authService) GetUserIDFromToken(token *jwt.Token) (string, error) {
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	userID, ok := claims["sub"].(string)
	if !ok || userID == "" {
		return "", ErrInvalidToken
	}
	return userID, nil
}

func (s *authService) UserIDFromAccessToken(tokenString string) (string, error) {
	token, err := s.ValidateToken(tokenString)
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	return s.GetUserIDFromToken(token)
}

func (s *authService) generateTokens(ctx context.Context, userID string) (string, string, error) {
	now := s.now()
	accessToken := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"exp": now.Add(time.Hour * time.Duration(s.cfg.JWTExpiry)).Unix(),
		"iat": now.Unix(),
	})

	accessTokenString, err := accessToken.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", "", err
	}

	rt := &repository.RefreshToken{
		Token:     uuid.New().String(),
		UserID:    userID,
		ExpiresAt: now.Add(time.Hour * 24 * time.Duration(s.cfg.RefreshExpiry)),
	}

	if err := s.userRepo.SaveRefreshToken(ctx, rt); err != nil {
		return "", "", err
	}

	return accessTokenString, rt.Token, nil
}
