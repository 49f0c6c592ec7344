package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkops/models"
	"parkops/repository/testutil"
)

func TestCashBagRepository_Assignments(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewCashBagRepository(testDB.DB)
	ctx := context.Background()

	date := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	t.Run("unknown bag returns nil", func(t *testing.T) {
		assignment, err := repo.GetAssignmentByBagID(ctx, "BAG-NOTREAL1")
		require.NoError(t, err)
		assert.Nil(t, assignment)
	})

	t.Run("batch insert and lookup", func(t *testing.T) {
		batch := []*models.CashBagAssignment{
			testutil.CreateTestAssignment("BAG-AAAA1111", date, 50000),
			testutil.CreateTestShiftAssignment("BAG-BBBB2222", date, "emp42", "till-1", 12500),
		}
		err := repo.CreateAssignments(ctx, batch)
		require.NoError(t, err)

		for _, a := range batch {
			assert.NotZero(t, a.ID)
			assert.False(t, a.CreatedAt.IsZero())
		}

		found, err := repo.GetAssignmentByBagID(ctx, "BAG-BBBB2222")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, models.SourceAronium, found.SourceSystem)
		assert.Equal(t, "emp42", found.EmployeeID)
		assert.Equal(t, "till-1", found.POSDeviceID)
		assert.Equal(t, int64(12500), found.ExpectedAmount)
		// Absent shift id round-trips as empty string.
		assert.Empty(t, found.ShiftID)
	})

	t.Run("duplicate bag id rejected", func(t *testing.T) {
		err := repo.CreateAssignments(ctx, []*models.CashBagAssignment{
			testutil.CreateTestAssignment("BAG-AAAA1111", date, 100),
		})
		require.Error(t, err)
	})

	t.Run("date range query", func(t *testing.T) {
		found, err := repo.GetAssignmentsByDateRange(ctx, date, date)
		require.NoError(t, err)
		assert.Len(t, found, 2)
	})
}

func TestCashBagRepository_Verifications(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewCashBagRepository(testDB.DB)
	ctx := context.Background()

	date := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	err := repo.CreateAssignments(ctx, []*models.CashBagAssignment{
		testutil.CreateTestAssignment("BAG-CCCC3333", date, 50000),
		testutil.CreateTestAssignment("BAG-DDDD4444", date.AddDate(0, 0, 1), 30000),
	})
	require.NoError(t, err)

	t.Run("all bags start unverified", func(t *testing.T) {
		unverified, err := repo.GetUnverified(ctx)
		require.NoError(t, err)
		assert.Len(t, unverified, 2)
	})

	t.Run("create and read verification", func(t *testing.T) {
		verification := &models.CashBagVerification{
			BagID:         "BAG-CCCC3333",
			CountedAmount: 48000,
			CountedBy:     "jane",
			Variance:      -2000,
			Notes:         "two notes missing",
		}
		err := repo.CreateVerification(ctx, verification)
		require.NoError(t, err)
		assert.NotZero(t, verification.ID)
		assert.False(t, verification.VerifiedAt.IsZero())

		found, err := repo.GetVerificationByBagID(ctx, "BAG-CCCC3333")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, int64(-2000), found.Variance)
		assert.Equal(t, "two notes missing", found.Notes)
	})

	t.Run("verified bag leaves the unverified list", func(t *testing.T) {
		unverified, err := repo.GetUnverified(ctx)
		require.NoError(t, err)
		require.Len(t, unverified, 1)
		assert.Equal(t, "BAG-DDDD4444", unverified[0].BagID)
	})

	t.Run("verified bags join assignments", func(t *testing.T) {
		bags, err := repo.GetVerifiedBags(ctx)
		require.NoError(t, err)
		require.Len(t, bags, 1)

		assert.Equal(t, "BAG-CCCC3333", bags[0].Assignment.BagID)
		assert.Equal(t, int64(50000), bags[0].Assignment.ExpectedAmount)
		assert.Equal(t, int64(48000), bags[0].Verification.CountedAmount)
		assert.Equal(t, "BAG-CCCC3333", bags[0].Verification.BagID)
	})

	t.Run("verification for unassigned bag violates FK", func(t *testing.T) {
		err := repo.CreateVerification(ctx, &models.CashBagVerification{
			BagID:         "BAG-ZZZZ9999",
			CountedAmount: 100,
			CountedBy:     "jane",
		})
		require.Error(t, err)
	})
}
