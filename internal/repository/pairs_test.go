package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendpair/vendpair-go/internal/database"
	"github.com/vendpair/vendpair-go/internal/model"
)

// setupTestDB connects to the database named by TEST_DATABASE_URL, applies
// migrations and truncates both tables. Tests are skipped when the variable
// is unset so the suite stays runnable without a local Postgres.
func setupTestDB(t *testing.T) *database.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := database.Connect(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations(context.Background()))

	_, err = db.ExecContext(context.Background(), `TRUNCATE pairs, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	return db
}

func createTestUser(t *testing.T, db *database.DB, name, email string) *model.User {
	t.Helper()

	user, err := NewUserRepository(db.DB).Create(context.Background(), model.CreateUserParams{
		Name:         name,
		Email:        email,
		PasswordHash: "x",
	})
	require.NoError(t, err)
	return user
}

func TestPairRepository_CreateAndFind(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewPairRepository(db.DB)
	ctx := context.Background()

	aoi := createTestUser(t, db, "Aoi", "aoi@company.com")
	bo := createTestUser(t, db, "Bo", "bo@company.com")

	pair, err := repo.Create(ctx, model.CreatePairParams{
		UserID1:  aoi.ID,
		UserID2:  bo.ID,
		PairDate: "2024-05-13",
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-05-13", pair.PairDate)

	t.Run("found from either member", func(t *testing.T) {
		got, err := repo.FindByMemberAndDate(ctx, aoi.ID, "2024-05-13")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, pair.ID, got.ID)

		got, err = repo.FindByMemberAndDate(ctx, bo.ID, "2024-05-13")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, pair.ID, got.ID)
	})

	t.Run("nil on another date", func(t *testing.T) {
		got, err := repo.FindByMemberAndDate(ctx, aoi.ID, "2024-05-14")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("duplicate member and date rejected by index", func(t *testing.T) {
		_, err := repo.Create(ctx, model.CreatePairParams{
			UserID1:  aoi.ID,
			UserID2:  bo.ID,
			PairDate: "2024-05-13",
		})
		assert.Error(t, err)
	})
}

func TestPairRepository_HistoryForUser(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewPairRepository(db.DB)
	ctx := context.Background()

	aoi := createTestUser(t, db, "Aoi", "aoi@company.com")
	bo := createTestUser(t, db, "Bo", "bo@company.com")
	cy := createTestUser(t, db, "Cy", "cy@company.com")

	for i, partner := range []*model.User{bo, cy} {
		_, err := repo.Create(ctx, model.CreatePairParams{
			UserID1:  aoi.ID,
			UserID2:  partner.ID,
			PairDate: fmt.Sprintf("2024-05-%02d", 13+i),
		})
		require.NoError(t, err)
	}

	entries, err := repo.HistoryForUser(ctx, aoi.ID, "2024-05-13")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest first, partner seen from aoi's side.
	assert.Equal(t, "2024-05-14", entries[0].PairDate)
	assert.Equal(t, "Cy", entries[0].PartnerName)
	assert.Equal(t, "2024-05-13", entries[1].PairDate)
	assert.Equal(t, "Bo", entries[1].PartnerName)

	t.Run("window excludes older records", func(t *testing.T) {
		entries, err := repo.HistoryForUser(ctx, aoi.ID, "2024-05-14")
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "Cy", entries[0].PartnerName)
	})

	t.Run("other members see their own side", func(t *testing.T) {
		entries, err := repo.HistoryForUser(ctx, bo.ID, "2024-05-13")
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "Aoi", entries[0].PartnerName)
	})
}

func TestPairRepository_DeleteBefore(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewPairRepository(db.DB)
	ctx := context.Background()

	aoi := createTestUser(t, db, "Aoi", "aoi@company.com")
	bo := createTestUser(t, db, "Bo", "bo@company.com")

	for _, date := range []string{"2024-05-06", "2024-05-13"} {
		_, err := repo.Create(ctx, model.CreatePairParams{
			UserID1:  aoi.ID,
			UserID2:  bo.ID,
			PairDate: date,
		})
		require.NoError(t, err)
	}

	deleted, err := repo.DeleteBefore(ctx, "2024-05-13")
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	remaining, err := repo.FindByMemberAndDate(ctx, aoi.ID, "2024-05-13")
	require.NoError(t, err)
	assert.NotNil(t, remaining)
}

func TestUserRepository_FindUnpaired(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	userRepo := NewUserRepository(db.DB)
	pairRepo := NewPairRepository(db.DB)
	ctx := context.Background()

	aoi := createTestUser(t, db, "Aoi", "aoi@company.com")
	bo := createTestUser(t, db, "Bo", "bo@company.com")
	cy := createTestUser(t, db, "Cy", "cy@company.com")

	today := time.Now().UTC().Format("2006-01-02")
	_, err := pairRepo.Create(ctx, model.CreatePairParams{
		UserID1:  aoi.ID,
		UserID2:  bo.ID,
		PairDate: today,
	})
	require.NoError(t, err)

	unpaired, err := userRepo.FindUnpaired(ctx, today)
	require.NoError(t, err)
	require.Len(t, unpaired, 1)
	assert.Equal(t, cy.ID, unpaired[0].ID)
}

var errMemberTaken = errors.New("member already paired")

// The per-column unique indexes cannot stop two concurrent submissions
// that put the shared member in different columns, for example (1,2) and
// (2,3). The advisory locks have to serialize those so the loser's check
// sees the winner's committed row.
func TestPairRepository_LockMembersSerializesSharedMember(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	aoi := createTestUser(t, db, "Aoi", "aoi@company.com")
	bo := createTestUser(t, db, "Bo", "bo@company.com")
	cy := createTestUser(t, db, "Cy", "cy@company.com")

	repo := NewPairRepository(db.DB)
	date := "2024-05-15"

	attempt := func(id1, id2 int64) error {
		return db.WithTx(ctx, func(tx *sqlx.Tx) error {
			txRepo := repo.WithTx(tx)
			if err := txRepo.LockMembers(ctx, id1, id2); err != nil {
				return err
			}
			for _, id := range []int64{id1, id2} {
				existing, err := txRepo.FindByMemberAndDate(ctx, id, date)
				if err != nil {
					return err
				}
				if existing != nil {
					return errMemberTaken
				}
			}
			_, err := txRepo.Create(ctx, model.CreatePairParams{
				UserID1:  min(id1, id2),
				UserID2:  max(id1, id2),
				PairDate: date,
			})
			return err
		})
	}

	results := make(chan error, 2)
	go func() { results <- attempt(aoi.ID, bo.ID) }()
	go func() { results <- attempt(bo.ID, cy.ID) }()

	var failures int
	for i := 0; i < 2; i++ {
		if err := <-results; err != nil {
			require.ErrorIs(t, err, errMemberTaken)
			failures++
		}
	}
	assert.Equal(t, 1, failures, "exactly one of the competing submissions loses")

	var count int
	require.NoError(t, db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM pairs
		WHERE pair_date = $2 AND (user_id_1 = $1 OR user_id_2 = $1)
	`, bo.ID, date))
	assert.Equal(t, 1, count, "the shared member ends the day in exactly one pair")
}
