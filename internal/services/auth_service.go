package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/civix-app/civix-server/internal/apperr"
	"github.com/civix-app/civix-server/internal/config"
	"github.com/civix-app/civix-server/internal/dto"
	"github.com/civix-app/civix-server/internal/models"
	"github.com/civix-app/civix-server/internal/store"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

var ErrInvalidCredentials = apperr.Unauthorized("Invalid email or password")

type AuthService struct {
	users      store.UserStore
	cfg        *config.Config
	bcryptCost int
}

func NewAuthService(users store.UserStore, cfg *config.Config) *AuthService {
	cost := bcrypt.DefaultCost
	if cfg.AppEnv == "test" {
		cost = bcrypt.MinCost
	}
	return &AuthService{users: users, cfg: cfg, bcryptCost: cost}
}

func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperr.Validation("a valid email is required")
	}
	if len(req.Password) < minPasswordLength {
		return nil, apperr.Validation("password must be at least %d characters", minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleUser,
	}
	if err := s.users.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return nil, apperr.Conflict("Email already registered")
		}
		return nil, err
	}

	return s.authResponse(&user)
}

func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.authResponse(user)
}

func (s *AuthService) authResponse(user *models.User) (*dto.AuthResponse, error) {
	token, err := s.generateAccessToken(user)
	if err != nil {
		return nil, err
	}
	return &dto.AuthResponse{Success: true, Token: token, Data: user}, nil
}

func (s *AuthService) generateAccessToken(user *models.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   user.ID.String(),
		"email": user.Email,
		"role":  string(user.Role),
		"iat":   now.Unix(),
		"exp":   now.Add(s.cfg.JWTExpiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}
