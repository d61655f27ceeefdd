package internal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"asset-inventory-backend/internal/db"
	"asset-inventory-backend/internal/model"
	"asset-inventory-backend/internal/store"
)

// TestItemLifecycle walks a single item through its whole life: registration,
// checkout, an overdue damaged return, the maintenance request that return
// opens, repair, and finally decommissioning. Database state is verified at
// each step.
func TestItemLifecycle(t *testing.T) {
	// --- Test Setup ---

	// 1. In-memory SQLite database with the production migrations.
	testDB, err := gorm.Open(sqlite.Open("file:lifecycle?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, _ := testDB.DB()
	defer sqlDB.Close()
	require.NoError(t, db.Migrate(testDB))

	s := store.NewGormStore(testDB, store.Options{DefaultLoanDays: 14, LateFeePerDay: 2})
	ctx := context.Background()

	// 2. The people involved.
	manager := model.User{Username: "lifecycle_manager", Role: model.RoleManager, PasswordHash: "x", PasswordSalt: "x", IsActive: true}
	borrower := model.User{Username: "lifecycle_borrower", Role: model.RoleStaff, PasswordHash: "x", PasswordSalt: "x", IsActive: true}
	technician := model.User{Username: "lifecycle_tech", Role: model.RoleStaff, PasswordHash: "x", PasswordSalt: "x", IsActive: true}
	require.NoError(t, testDB.Create(&manager).Error)
	require.NoError(t, testDB.Create(&borrower).Error)
	require.NoError(t, testDB.Create(&technician).Error)

	asManager := model.Principal{UserID: manager.ID, Role: manager.Role}
	asBorrower := model.Principal{UserID: borrower.ID, Role: borrower.Role}
	asTechnician := model.Principal{UserID: technician.ID, Role: technician.Role}

	// 3. A category whose schema the item must satisfy.
	category := model.Category{
		Name: "Projectors",
		Schema: model.Schema{
			{Name: "resolution", Type: model.FieldText, Required: true},
			{Name: "lumens", Type: model.FieldNumber},
		},
	}
	require.NoError(t, s.CreateCategory(ctx, asManager, &category))

	var item model.Item
	var loan *model.Transaction
	var repair *model.MaintenanceRequest

	t.Run("Registration", func(t *testing.T) {
		item = model.Item{
			Name:            "Epson EB-L530U",
			CategoryID:      category.ID,
			ConditionStatus: model.ConditionGood,
			CurrentValue:    1800,
			Details:         model.Details{"resolution": "1920x1200", "lumens": 5200},
		}
		require.NoError(t, s.CreateItem(ctx, asManager, &item))

		assert.Equal(t, "PRO-0001", item.InventoryNumber, "inventory number is generated from the category")
		assert.Equal(t, model.ItemAvailable, item.Status)
		assert.True(t, item.IsActive)
	})

	t.Run("Checkout", func(t *testing.T) {
		var err error
		loan, err = s.Checkout(ctx, asBorrower, store.CheckoutInput{ItemID: item.ID, UserID: borrower.ID})
		require.NoError(t, err)

		assert.Equal(t, model.TransactionActive, loan.Status)
		assert.WithinDuration(t, time.Now().AddDate(0, 0, 14), loan.DueDate, 5*time.Second)

		var lent model.Item
		require.NoError(t, testDB.First(&lent, item.ID).Error)
		assert.Equal(t, model.ItemLent, lent.Status)
		require.NotNil(t, lent.CurrentHolderID)
		assert.Equal(t, borrower.ID, *lent.CurrentHolderID)

		// The same item cannot go out twice.
		_, err = s.Checkout(ctx, asManager, store.CheckoutInput{ItemID: item.ID, UserID: manager.ID})
		assert.ErrorIs(t, err, store.ErrItemNotAvailable)
	})

	t.Run("Overdue Damaged Return", func(t *testing.T) {
		// Backdate the due date so the return is three days late.
		late := time.Now().Add(-72 * time.Hour)
		require.NoError(t, testDB.Model(&model.Transaction{}).Where("id = ?", loan.ID).Update("due_date", late).Error)

		res, err := s.Return(ctx, asBorrower, store.ReturnInput{
			TransactionID:   loan.ID,
			ReturnCondition: model.ConditionDamaged,
			Notes:           "lens cracked in transit",
		})
		require.NoError(t, err)

		assert.Equal(t, model.TransactionLateReturn, res.Transaction.Status)
		assert.InDelta(t, 6.0, res.Transaction.LateFee, 0.001, "three days at 2 per day")

		// A damaged return opens a maintenance request and parks the item.
		repair = res.MaintenanceRequest
		require.NotNil(t, repair)
		assert.True(t, repair.AutoCreated)
		assert.Equal(t, model.PriorityHigh, repair.Priority)
		require.NotNil(t, repair.TransactionID)
		assert.Equal(t, loan.ID, *repair.TransactionID)

		var parked model.Item
		require.NoError(t, testDB.First(&parked, item.ID).Error)
		assert.Equal(t, model.ItemMaintenance, parked.Status)
		assert.Equal(t, model.ConditionDamaged, parked.ConditionStatus)
		assert.Nil(t, parked.CurrentHolderID)
	})

	t.Run("Late Fee Settled", func(t *testing.T) {
		_, err := s.MarkLateFeePaid(ctx, asBorrower, loan.ID)
		assert.ErrorIs(t, err, store.ErrNotAuthorized, "the borrower cannot settle their own fee")

		tx, err := s.MarkLateFeePaid(ctx, asManager, loan.ID)
		require.NoError(t, err)
		assert.True(t, tx.LateFeePaid)
	})

	t.Run("Repair", func(t *testing.T) {
		assigned, err := s.AssignMaintenance(ctx, asManager, repair.ID, technician.ID)
		require.NoError(t, err)
		assert.Equal(t, model.MaintenanceInProgress, assigned.Status)
		assert.NotNil(t, assigned.FirstResponseAt)

		done, err := s.CompleteMaintenance(ctx, asTechnician, store.CompleteMaintenanceInput{
			RequestID:       repair.ID,
			ResolutionNotes: "replaced lens assembly",
			Cost:            240,
		})
		require.NoError(t, err)
		assert.Equal(t, model.MaintenanceCompleted, done.Status)
		assert.NotNil(t, done.ResolvedAt)
		assert.InDelta(t, 240.0, done.Cost, 0.001)

		// With no other open requests the item returns to circulation.
		var fixed model.Item
		require.NoError(t, testDB.First(&fixed, item.ID).Error)
		assert.Equal(t, model.ItemAvailable, fixed.Status)
	})

	t.Run("Decommission", func(t *testing.T) {
		require.NoError(t, s.DecommissionItem(ctx, asManager, item.ID))

		_, err := s.GetItem(ctx, item.ID)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound, "retired items leave the active registry")

		var retired model.Item
		require.NoError(t, testDB.Unscoped().First(&retired, item.ID).Error)
		assert.Equal(t, model.ItemRetired, retired.Status)
		assert.False(t, retired.IsActive)
	})
}

// TestPurchaseToRegistryFlow covers the procurement path: a staff request is
// approved, ordered, received, and the received asset is then registered as a
// first-class item in the same category.
func TestPurchaseToRegistryFlow(t *testing.T) {
	testDB, err := gorm.Open(sqlite.Open("file:procurement?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, _ := testDB.DB()
	defer sqlDB.Close()
	require.NoError(t, db.Migrate(testDB))

	s := store.NewGormStore(testDB, store.Options{DefaultLoanDays: 14, LateFeePerDay: 2})
	ctx := context.Background()

	manager := model.User{Username: "proc_manager", Role: model.RoleManager, PasswordHash: "x", PasswordSalt: "x", IsActive: true}
	requester := model.User{Username: "proc_requester", Role: model.RoleStaff, PasswordHash: "x", PasswordSalt: "x", IsActive: true}
	require.NoError(t, testDB.Create(&manager).Error)
	require.NoError(t, testDB.Create(&requester).Error)

	asManager := model.Principal{UserID: manager.ID, Role: manager.Role}
	asRequester := model.Principal{UserID: requester.ID, Role: requester.Role}

	category := model.Category{Name: "Monitors"}
	require.NoError(t, s.CreateCategory(ctx, asManager, &category))

	req, err := s.CreatePurchaseRequest(ctx, asRequester, store.PurchaseInput{
		ItemName:      "Dell U2723QE",
		CategoryID:    &category.ID,
		Quantity:      1,
		EstimatedCost: 620,
		Justification: "replacement for a failed unit at the front desk",
	})
	require.NoError(t, err)
	assert.Equal(t, model.PurchasePending, req.Status)

	// Requesters cannot move their own request past pending.
	_, err = s.ApprovePurchase(ctx, asRequester, req.ID)
	assert.ErrorIs(t, err, store.ErrNotAuthorized)

	_, err = s.ApprovePurchase(ctx, asManager, req.ID)
	require.NoError(t, err)
	_, err = s.MarkPurchaseOrdered(ctx, asManager, req.ID)
	require.NoError(t, err)
	received, err := s.MarkPurchaseReceived(ctx, asManager, req.ID, 598.50)
	require.NoError(t, err)
	assert.Equal(t, model.PurchaseReceived, received.Status)
	assert.InDelta(t, 598.50, received.ActualCost, 0.001)

	// The received asset enters the registry like any other item.
	item := model.Item{
		Name:            received.ItemName,
		CategoryID:      category.ID,
		ConditionStatus: model.ConditionExcellent,
		PurchaseValue:   received.ActualCost,
		CurrentValue:    received.ActualCost,
	}
	require.NoError(t, s.CreateItem(ctx, asManager, &item))
	assert.Equal(t, "MON-0001", item.InventoryNumber)

	summary, err := s.InventorySummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.TotalItems)
	assert.InDelta(t, 598.50, summary.TotalValue, 0.001)
}
