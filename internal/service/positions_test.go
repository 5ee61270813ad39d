package service

import (
	"context"
	"testing"
	"time"

	"investment_portal/internal/domain"
	"investment_portal/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteExpiredPositions(t *testing.T) {
	svc, conn := newTestService(t)
	user := testutil.CreateProfile(t, conn, "alice", domain.RoleUser, 0)
	pkg := testutil.CreatePackage(t, conn, "Starter", 10, 7)

	open := func(depositID uint, end time.Time) domain.UserPackage {
		pos := domain.UserPackage{
			UserID: user.ID, PackageID: pkg.ID, DepositID: depositID, PurchaseAmount: dec(10),
			Status: domain.PositionActive, StartDate: end.AddDate(0, 0, -7), EndDate: end,
		}
		require.NoError(t, conn.Create(&pos).Error)
		return pos
	}
	expired := open(1, fixedNow.Add(-time.Minute))
	running := open(2, fixedNow.Add(time.Hour))

	n, err := svc.CompleteExpiredPositions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var got domain.UserPackage
	require.NoError(t, conn.First(&got, expired.ID).Error)
	assert.Equal(t, domain.PositionCompleted, got.Status)
	require.NoError(t, conn.First(&got, running.ID).Error)
	assert.Equal(t, domain.PositionActive, got.Status)

	n, err = svc.CompleteExpiredPositions(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPackageCatalog(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreatePackage(ctx, PackageInput{Name: " ", Price: dec(10), DurationDays: 5})
	assert.True(t, IsValidation(err))
	_, err = svc.CreatePackage(ctx, PackageInput{Name: "Zero", Price: dec(10), DurationDays: 0})
	assert.True(t, IsValidation(err))

	gold, err := svc.CreatePackage(ctx, PackageInput{Name: "Gold", Price: dec(500), DailyProfitPercentage: dec(3), TotalReturnPercentage: dec(90), DurationDays: 30})
	require.NoError(t, err)
	silver, err := svc.CreatePackage(ctx, PackageInput{Name: "Silver", Price: dec(100), DailyProfitPercentage: dec(2), TotalReturnPercentage: dec(40), DurationDays: 20})
	require.NoError(t, err)

	pkgs, err := svc.ListPackages(ctx, false)
	require.NoError(t, err)
	require.Len(t, pkgs, 2)
	assert.Equal(t, silver.ID, pkgs[0].ID, "ordered by price")

	hidden, err := svc.SetPackageActive(ctx, gold.ID, false)
	require.NoError(t, err)
	assert.False(t, hidden.Active)

	pkgs, err = svc.ListPackages(ctx, false)
	require.NoError(t, err)
	require.Len(t, pkgs, 1)
	assert.Equal(t, silver.ID, pkgs[0].ID)

	pkgs, err = svc.ListPackages(ctx, true)
	require.NoError(t, err)
	assert.Len(t, pkgs, 2)

	_, err = svc.SetPackageActive(ctx, 999, false)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListPositionsPreloadsPackage(t *testing.T) {
	svc, conn := newTestService(t)
	admin := testutil.CreateProfile(t, conn, "root", domain.RoleAdmin, 0)
	user := testutil.CreateProfile(t, conn, "alice", domain.RoleUser, 0)
	pkg := testutil.CreatePackage(t, conn, "Starter", 10, 7)
	dep := submitDeposit(t, svc, user.ID, 10, &pkg.ID)
	_, err := svc.ApproveDeposit(context.Background(), dep.ID, admin.ID)
	require.NoError(t, err)

	positions, err := svc.ListPositions(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	require.NotNil(t, positions[0].Package)
	assert.Equal(t, "Starter", positions[0].Package.Name)
}
