package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/vendpair/vendpair-go/internal/errors"
	"github.com/vendpair/vendpair-go/internal/model"
	"github.com/vendpair/vendpair-go/internal/repository"
	"github.com/vendpair/vendpair-go/internal/token"
	"github.com/vendpair/vendpair-go/internal/util"
)

type AuthService struct {
	userRepo  repository.UserRepository
	jwtSecret []byte
	tokenTTL  time.Duration
}

func NewAuthService(userRepo repository.UserRepository, jwtSecret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
	}
}

// Register creates a new user and returns a bearer token for it.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (string, error) {
	if !util.IsValidEmail(email) {
		return "", apperrors.InvalidInput("email", "not a valid address")
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return "", apperrors.Database(err)
	}
	if existing != nil {
		return "", apperrors.AlreadyExists("Email")
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	user, err := s.userRepo.Create(ctx, model.CreateUserParams{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		return "", apperrors.Database(err)
	}

	log.Info().Int64("userId", user.ID).Msg("user registered")

	return token.Issue(user.ID, s.jwtSecret, s.tokenTTL)
}

// Login exchanges credentials for a bearer token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return "", apperrors.Database(err)
	}
	if user == nil || !util.CheckPasswordHash(password, user.PasswordHash) {
		return "", apperrors.InvalidCredentials()
	}

	return token.Issue(user.ID, s.jwtSecret, s.tokenTTL)
}

// ResolveUser verifies a bearer token and returns the user it authenticates.
func (s *AuthService) ResolveUser(ctx context.Context, tokenString string) (*model.User, error) {
	userID, err := token.Parse(tokenString, s.jwtSecret)
	if err != nil {
		return nil, apperrors.Unauthorized("Could not validate credentials")
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if user == nil {
		return nil, apperrors.Unauthorized("User not found")
	}

	return user, nil
}
