package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/vendpair/vendpair-go/internal/model"
)

type PairRepository interface {
	// LockMembers takes transaction-scoped advisory locks on both member
	// ids so concurrent submissions sharing a member serialize before the
	// duplicate checks run. Must be called on a WithTx repository.
	LockMembers(ctx context.Context, userID1, userID2 int64) error
	// FindByMemberAndDate returns the pair record containing userID on the
	// given date, in either member column.
	FindByMemberAndDate(ctx context.Context, userID int64, date string) (*model.Pair, error)
	// HistoryForUser returns the user's pair records dated fromDate or
	// later, newest first, with the partner resolved by name.
	HistoryForUser(ctx context.Context, userID int64, fromDate string) ([]model.HistoryEntry, error)
	Create(ctx context.Context, params model.CreatePairParams) (*model.Pair, error)
	// DeleteBefore removes pair records older than the given date and
	// returns how many rows were deleted.
	DeleteBefore(ctx context.Context, date string) (int64, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) PairRepository
}

type pairRepo struct {
	db sqlxDB
}

func NewPairRepository(db *sqlx.DB) PairRepository {
	return &pairRepo{db: db}
}

func (r *pairRepo) WithTx(tx *sqlx.Tx) PairRepository {
	return &pairRepo{db: tx}
}

func (r *pairRepo) LockMembers(ctx context.Context, userID1, userID2 int64) error {
	if userID2 < userID1 {
		userID1, userID2 = userID2, userID1
	}
	// Smaller id first, always, so two submissions sharing a member never
	// deadlock on each other.
	for _, id := range []int64{userID1, userID2} {
		if _, err := r.db.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *pairRepo) FindByMemberAndDate(ctx context.Context, userID int64, date string) (*model.Pair, error) {
	var pair model.Pair
	err := r.db.GetContext(ctx, &pair, `
		SELECT * FROM pairs
		WHERE pair_date = $2 AND (user_id_1 = $1 OR user_id_2 = $1)
	`, userID, date)
	return HandleNotFound(&pair, err)
}

func (r *pairRepo) HistoryForUser(ctx context.Context, userID int64, fromDate string) ([]model.HistoryEntry, error) {
	var entries []model.HistoryEntry
	err := r.db.SelectContext(ctx, &entries, `
		SELECT p.id,
		       CASE WHEN p.user_id_1 = $1 THEN p.user_id_2 ELSE p.user_id_1 END AS partner_id,
		       COALESCE(u.name, 'Unknown') AS partner_name,
		       p.pair_date
		FROM pairs p
		LEFT JOIN users u
		  ON u.id = CASE WHEN p.user_id_1 = $1 THEN p.user_id_2 ELSE p.user_id_1 END
		WHERE (p.user_id_1 = $1 OR p.user_id_2 = $1)
		  AND p.pair_date >= $2
		ORDER BY p.pair_date DESC, p.id DESC
	`, userID, fromDate)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *pairRepo) Create(ctx context.Context, params model.CreatePairParams) (*model.Pair, error) {
	var pair model.Pair
	err := r.db.GetContext(ctx, &pair, `
		INSERT INTO pairs (user_id_1, user_id_2, pair_date)
		VALUES ($1, $2, $3)
		RETURNING *
	`, params.UserID1, params.UserID2, params.PairDate)
	if err != nil {
		return nil, err
	}
	return &pair, nil
}

func (r *pairRepo) DeleteBefore(ctx context.Context, date string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM pairs WHERE pair_date < $1`, date)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
