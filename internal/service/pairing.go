package service

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/vendpair/vendpair-go/internal/clock"
	"github.com/vendpair/vendpair-go/internal/database"
	apperrors "github.com/vendpair/vendpair-go/internal/errors"
	"github.com/vendpair/vendpair-go/internal/model"
	"github.com/vendpair/vendpair-go/internal/repository"
)

// txRunner is the slice of database.DB the pairing service needs.
type txRunner interface {
	WithTx(ctx context.Context, fn database.TxFunc) error
}

type PairingService struct {
	db       txRunner
	pairRepo repository.PairRepository
	userRepo repository.UserRepository
	clk      *clock.Clock
}

func NewPairingService(
	db txRunner,
	pairRepo repository.PairRepository,
	userRepo repository.UserRepository,
	clk *clock.Clock,
) *PairingService {
	return &PairingService{
		db:       db,
		pairRepo: pairRepo,
		userRepo: userRepo,
		clk:      clk,
	}
}

// CreatePair records that userID and partnerID go to the vending machine
// together today. At most one record per member per calendar date. A
// member can sit in either column of the pairs table, so the per-column
// unique indexes alone cannot stop two concurrent submissions that share
// a member; advisory locks on both member ids serialize those before the
// duplicate checks run.
func (s *PairingService) CreatePair(ctx context.Context, userID, partnerID int64) (*model.Pair, error) {
	if partnerID == userID {
		return nil, apperrors.InvalidPartner("Cannot pair with yourself")
	}

	today := s.clk.Today()

	var created *model.Pair
	err := s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		userRepo := s.userRepo.WithTx(tx)
		pairRepo := s.pairRepo.WithTx(tx)

		if err := pairRepo.LockMembers(ctx, userID, partnerID); err != nil {
			return apperrors.Database(err)
		}

		partner, err := userRepo.FindByID(ctx, partnerID)
		if err != nil {
			return apperrors.Database(err)
		}
		if partner == nil {
			return apperrors.NotFound("Partner user")
		}

		existing, err := pairRepo.FindByMemberAndDate(ctx, userID, today)
		if err != nil {
			return apperrors.Database(err)
		}
		if existing != nil {
			return apperrors.AlreadyPairedToday()
		}

		existing, err = pairRepo.FindByMemberAndDate(ctx, partnerID, today)
		if err != nil {
			return apperrors.Database(err)
		}
		if existing != nil {
			return apperrors.PartnerAlreadyPaired()
		}

		created, err = pairRepo.Create(ctx, model.CreatePairParams{
			UserID1:  min(userID, partnerID),
			UserID2:  max(userID, partnerID),
			PairDate: today,
		})
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			// A concurrent submission won the race; the invariant held.
			return nil, apperrors.AlreadyPairedToday()
		}
		return nil, err
	}

	log.Info().
		Int64("userId", userID).
		Int64("partnerId", partnerID).
		Str("pairDate", today).
		Msg("pair created")

	return created, nil
}

// WeeklyHistory returns the user's pair records for the current week,
// Monday through today, newest first.
func (s *PairingService) WeeklyHistory(ctx context.Context, userID int64) ([]model.HistoryEntry, error) {
	weekStart := s.clk.ThisWeekStart().Format(clock.DateLayout)

	entries, err := s.pairRepo.HistoryForUser(ctx, userID, weekStart)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return entries, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
