package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/vendpair/vendpair-go/internal/model"
	"github.com/vendpair/vendpair-go/internal/repository"
	"github.com/vendpair/vendpair-go/internal/util"
)

var sampleUsers = []struct {
	name  string
	email string
}{
	{"田中太郎", "tanaka@company.com"},
	{"佐藤花子", "sato@company.com"},
	{"鈴木一郎", "suzuki@company.com"},
	{"高橋美咲", "takahashi@company.com"},
	{"山田健太", "yamada@company.com"},
}

// SeedSampleData inserts the demo roster into an empty database. A non-empty
// users table disables seeding so restarts do not duplicate anyone.
func SeedSampleData(ctx context.Context, userRepo repository.UserRepository) error {
	count, err := userRepo.Count(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := util.HashPassword("password123")
	if err != nil {
		return fmt.Errorf("hash sample password: %w", err)
	}

	for _, u := range sampleUsers {
		if _, err := userRepo.Create(ctx, model.CreateUserParams{
			Name:         u.name,
			Email:        u.email,
			PasswordHash: hash,
		}); err != nil {
			return fmt.Errorf("seed user %s: %w", u.email, err)
		}
	}

	log.Info().Int("count", len(sampleUsers)).Msg("sample users seeded")
	return nil
}
