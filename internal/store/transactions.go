package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"asset-inventory-backend/internal/model"
)

// CheckoutInput describes a checkout request.
type CheckoutInput struct {
	ItemID  int64
	UserID  int64 // borrower; managers may check out on behalf of others
	DueDate *time.Time
	Notes   string
	Now     time.Time // zero means time.Now
}

// ReturnInput describes a check-in request.
type ReturnInput struct {
	TransactionID   int64
	ReturnCondition model.ConditionStatus
	Notes           string
	Now             time.Time
}

// ExtendInput moves an active loan's due date.
type ExtendInput struct {
	TransactionID int64
	NewDueDate    time.Time
	Now           time.Time
}

// ReturnResult carries the closed transaction plus the maintenance request
// auto-created for poor/damaged returns, if any.
type ReturnResult struct {
	Transaction        *model.Transaction
	MaintenanceRequest *model.MaintenanceRequest
}

func orNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}

// Checkout lends an available item to a user. The item row is locked for
// the duration of the transaction so concurrent checkouts of the same item
// serialize instead of racing on the status check.
func (s *gormStore) Checkout(ctx context.Context, p model.Principal, in CheckoutInput) (*model.Transaction, error) {
	if in.UserID == 0 {
		in.UserID = p.UserID
	}
	if in.UserID != p.UserID && !p.Role.CanManageInventory() {
		return nil, ErrNotAuthorized
	}
	now := orNow(in.Now)

	var created *model.Transaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var it model.Item
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&it, in.ItemID).Error; err != nil {
			return err
		}
		if !it.IsActive {
			return ErrItemInactive
		}
		if it.Status != model.ItemAvailable {
			return ErrItemNotAvailable
		}

		due := now.AddDate(0, 0, s.opts.DefaultLoanDays)
		if in.DueDate != nil {
			if !in.DueDate.After(now) {
				return ErrDueDateInPast
			}
			due = *in.DueDate
		}

		if err := tx.Model(&it).Updates(map[string]interface{}{
			"status":            model.ItemLent,
			"current_holder_id": in.UserID,
		}).Error; err != nil {
			return err
		}

		t := &model.Transaction{
			ItemID:       it.ID,
			UserID:       in.UserID,
			CheckoutDate: now,
			DueDate:      due,
			Status:       model.TransactionActive,
			Notes:        in.Notes,
		}
		if err := tx.Create(t).Error; err != nil {
			return err
		}
		created = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Return closes an active transaction. Overdue returns become late_return
// with a fee of rate x chargeable days. Poor or damaged returns route the
// item into maintenance and auto-create a high-priority request inside the
// same database transaction.
func (s *gormStore) Return(ctx context.Context, p model.Principal, in ReturnInput) (*ReturnResult, error) {
	now := orNow(in.Now)
	result := &ReturnResult{}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t model.Transaction
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&t, in.TransactionID).Error; err != nil {
			return err
		}
		if t.Status != model.TransactionActive {
			return ErrTransactionClosed
		}
		if !p.CanActFor(t.UserID) {
			return ErrNotAuthorized
		}

		ret := now
		t.ReturnDate = &ret
		days := t.DaysOverdue(now)
		if days > 0 {
			t.Status = model.TransactionLateReturn
			t.LateFee = float64(days) * s.opts.LateFeePerDay
		} else {
			t.Status = model.TransactionReturned
		}
		if in.ReturnCondition != "" {
			t.ReturnCondition = in.ReturnCondition
		}
		if in.Notes != "" {
			t.Notes = strings.TrimSpace(t.Notes + "\n" + in.Notes)
		}
		if err := tx.Save(&t).Error; err != nil {
			return err
		}

		itemStatus := model.ItemAvailable
		if in.ReturnCondition.NeedsMaintenance() {
			itemStatus = model.ItemMaintenance

			req := &model.MaintenanceRequest{
				ItemID:          t.ItemID,
				RequestedByID:   p.UserID,
				MaintenanceType: model.MaintenanceHardwareFailure,
				Priority:        model.PriorityHigh,
				Status:          model.MaintenancePending,
				Description:     fmt.Sprintf("Auto-created: item returned in %s condition", in.ReturnCondition),
				AutoCreated:     true,
				TransactionID:   &t.ID,
			}
			if err := tx.Create(req).Error; err != nil {
				return err
			}
			result.MaintenanceRequest = req
		}

		updates := map[string]interface{}{
			"status":            itemStatus,
			"current_holder_id": nil,
		}
		if in.ReturnCondition != "" {
			updates["condition_status"] = in.ReturnCondition
		}
		if err := tx.Model(&model.Item{}).
			Where("id = ?", t.ItemID).
			Updates(updates).Error; err != nil {
			return err
		}

		result.Transaction = &t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Extend moves the due date of an active transaction forward. Allowed to
// the borrowing user or a manager.
func (s *gormStore) Extend(ctx context.Context, p model.Principal, in ExtendInput) (*model.Transaction, error) {
	now := orNow(in.Now)
	var t model.Transaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&t, in.TransactionID).Error; err != nil {
			return err
		}
		if t.Status != model.TransactionActive {
			return ErrTransactionClosed
		}
		if !p.CanActFor(t.UserID) {
			return ErrNotAuthorized
		}
		if !in.NewDueDate.After(now) {
			return ErrDueDateInPast
		}
		t.DueDate = in.NewDueDate
		return tx.Save(&t).Error
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Cancel voids an active transaction and puts the item back into
// circulation. The recorded reason must carry enough detail to audit later.
func (s *gormStore) Cancel(ctx context.Context, p model.Principal, txID int64, reason string) (*model.Transaction, error) {
	if len(strings.TrimSpace(reason)) < 10 {
		return nil, ErrReasonTooShort
	}
	var t model.Transaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&t, txID).Error; err != nil {
			return err
		}
		if t.Status != model.TransactionActive {
			return ErrTransactionClosed
		}
		if !p.CanActFor(t.UserID) {
			return ErrNotAuthorized
		}
		t.Status = model.TransactionCancelled
		t.Notes = strings.TrimSpace(t.Notes + "\nCancelled: " + strings.TrimSpace(reason))
		if err := tx.Save(&t).Error; err != nil {
			return err
		}
		return tx.Model(&model.Item{}).
			Where("id = ?", t.ItemID).
			Updates(map[string]interface{}{
				"status":            model.ItemAvailable,
				"current_holder_id": nil,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// MarkLateFeePaid toggles the settlement flag. This is the only mutation
// allowed on a closed transaction.
func (s *gormStore) MarkLateFeePaid(ctx context.Context, p model.Principal, txID int64) (*model.Transaction, error) {
	if !p.Role.CanManageInventory() {
		return nil, ErrNotAuthorized
	}
	var t model.Transaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&t, txID).Error; err != nil {
			return err
		}
		if t.Status != model.TransactionLateReturn {
			return fmt.Errorf("%w: only late returns carry a fee", ErrInvalidTransition)
		}
		t.LateFeePaid = true
		return tx.Save(&t).Error
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *gormStore) GetTransaction(ctx context.Context, p model.Principal, id int64) (*model.Transaction, error) {
	var t model.Transaction
	if err := s.db.WithContext(ctx).
		Preload("Item").Preload("User").
		First(&t, id).Error; err != nil {
		return nil, err
	}
	if !p.CanActFor(t.UserID) {
		return nil, ErrNotAuthorized
	}
	return &t, nil
}

// ListTransactions scopes staff to their own records; managers see all.
func (s *gormStore) ListTransactions(ctx context.Context, p model.Principal, f TransactionFilter) ([]model.Transaction, int64, error) {
	page, size := normalizePage(f.Page, f.Size)

	q := s.db.WithContext(ctx).Model(&model.Transaction{})
	if !p.Role.CanManageInventory() {
		q = q.Where("user_id = ?", p.UserID)
	} else if f.UserID > 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.ItemID > 0 {
		q = q.Where("item_id = ?", f.ItemID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var ts []model.Transaction
	err := q.Preload("Item").Preload("User").
		Order("checkout_date DESC").
		Offset((page - 1) * size).Limit(size).
		Find(&ts).Error
	return ts, total, err
}
