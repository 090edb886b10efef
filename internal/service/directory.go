package service

import (
	"context"

	"github.com/vendpair/vendpair-go/internal/clock"
	apperrors "github.com/vendpair/vendpair-go/internal/errors"
	"github.com/vendpair/vendpair-go/internal/model"
	"github.com/vendpair/vendpair-go/internal/repository"
)

// DirectoryService serves the user roster and the unpaired set for "today"
// as resolved by the shared organization clock.
type DirectoryService struct {
	userRepo repository.UserRepository
	clk      *clock.Clock
}

func NewDirectoryService(userRepo repository.UserRepository, clk *clock.Clock) *DirectoryService {
	return &DirectoryService{userRepo: userRepo, clk: clk}
}

func (s *DirectoryService) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return users, nil
}

func (s *DirectoryService) ListUnpaired(ctx context.Context) ([]model.User, error) {
	users, err := s.userRepo.FindUnpaired(ctx, s.clk.Today())
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return users, nil
}
