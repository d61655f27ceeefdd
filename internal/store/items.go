package store

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"asset-inventory-backend/internal/model"
	"asset-inventory-backend/internal/parse"
)

func (s *gormStore) CreateCategory(ctx context.Context, p model.Principal, c *model.Category) error {
	if !p.Role.CanManageInventory() {
		return ErrNotAuthorized
	}
	for _, f := range c.Schema {
		if err := f.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}
	return s.db.WithContext(ctx).Create(c).Error
}

func (s *gormStore) UpdateCategory(ctx context.Context, p model.Principal, c *model.Category) error {
	if !p.Role.CanManageInventory() {
		return ErrNotAuthorized
	}
	for _, f := range c.Schema {
		if err := f.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}
	return s.db.WithContext(ctx).Save(c).Error
}

func (s *gormStore) GetCategory(ctx context.Context, id int64) (*model.Category, error) {
	var c model.Category
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *gormStore) ListCategories(ctx context.Context) ([]model.Category, error) {
	var cs []model.Category
	err := s.db.WithContext(ctx).Order("name").Find(&cs).Error
	return cs, err
}

// CreateItem validates the item's details against the category schema and
// assigns the next inventory number when none is supplied.
func (s *gormStore) CreateItem(ctx context.Context, p model.Principal, it *model.Item) error {
	if !p.Role.CanManageInventory() {
		return ErrNotAuthorized
	}
	var cat model.Category
	if err := s.db.WithContext(ctx).First(&cat, it.CategoryID).Error; err != nil {
		return err
	}
	if err := model.ValidateDetails(cat.Schema, it.Details); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if it.Status == "" {
		it.Status = model.ItemAvailable
	}
	if it.ConditionStatus == "" {
		it.ConditionStatus = model.ConditionGood
	}
	it.IsActive = true

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if it.InventoryNumber == "" {
			next, err := nextInventoryNumber(tx, cat.Name)
			if err != nil {
				return err
			}
			it.InventoryNumber = next
		} else if _, err := parse.ParseInventoryNumber(it.InventoryNumber); err != nil {
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}
		return tx.Create(it).Error
	})
}

// nextInventoryNumber picks the highest existing sequence for the category
// prefix and increments it. Runs inside the caller's transaction.
func nextInventoryNumber(tx *gorm.DB, categoryName string) (string, error) {
	prefix := parse.CategoryPrefix(categoryName)
	var numbers []string
	if err := tx.Model(&model.Item{}).
		Where("inventory_number LIKE ?", prefix+"-%").
		Pluck("inventory_number", &numbers).Error; err != nil {
		return "", err
	}
	maxSeq := 0
	for _, n := range numbers {
		parsed, err := parse.ParseInventoryNumber(n)
		if err != nil {
			continue
		}
		if parsed.Seq > maxSeq {
			maxSeq = parsed.Seq
		}
	}
	return parse.FormatInventoryNumber(prefix, maxSeq+1), nil
}

func (s *gormStore) UpdateItem(ctx context.Context, p model.Principal, it *model.Item) error {
	if !p.Role.CanManageInventory() {
		return ErrNotAuthorized
	}
	var existing model.Item
	if err := s.db.WithContext(ctx).First(&existing, it.ID).Error; err != nil {
		return err
	}
	var cat model.Category
	if err := s.db.WithContext(ctx).First(&cat, it.CategoryID).Error; err != nil {
		return err
	}
	if err := model.ValidateDetails(cat.Schema, it.Details); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	// Status and holder are owned by the workflows, the inventory number and
	// lifecycle flags by create/decommission. None of them change on a plain
	// update, whatever the caller sent.
	it.InventoryNumber = existing.InventoryNumber
	it.Status = existing.Status
	it.CurrentHolderID = existing.CurrentHolderID
	it.IsActive = existing.IsActive
	it.CreatedAt = existing.CreatedAt
	return s.db.WithContext(ctx).Save(it).Error
}

func (s *gormStore) GetItem(ctx context.Context, id int64) (*model.Item, error) {
	var it model.Item
	if err := s.db.WithContext(ctx).
		Preload("Category").Preload("CurrentHolder").
		First(&it, id).Error; err != nil {
		return nil, err
	}
	return &it, nil
}

func (s *gormStore) GetItemByInventoryNumber(ctx context.Context, number string) (*model.Item, error) {
	var it model.Item
	if err := s.db.WithContext(ctx).
		Preload("Category").Preload("CurrentHolder").
		First(&it, "inventory_number = ?", number).Error; err != nil {
		return nil, err
	}
	return &it, nil
}

func (s *gormStore) ListItems(ctx context.Context, f ItemFilter) ([]model.Item, int64, error) {
	page, size := normalizePage(f.Page, f.Size)

	q := s.db.WithContext(ctx).Model(&model.Item{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.CategoryID > 0 {
		q = q.Where("category_id = ?", f.CategoryID)
	}
	if f.Query != "" {
		like := "%" + strings.ToLower(f.Query) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(inventory_number) LIKE ?", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []model.Item
	err := q.Preload("Category").Preload("CurrentHolder").
		Order("inventory_number").
		Offset((page - 1) * size).Limit(size).
		Find(&items).Error
	return items, total, err
}

// DecommissionItem soft-deletes an item. An item that is currently lent out
// cannot be decommissioned.
func (s *gormStore) DecommissionItem(ctx context.Context, p model.Principal, id int64) error {
	if !p.Role.CanManageInventory() {
		return ErrNotAuthorized
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var it model.Item
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&it, id).Error; err != nil {
			return err
		}
		if it.Status == model.ItemLent {
			return ErrItemLent
		}
		if err := tx.Model(&it).Updates(map[string]interface{}{
			"status":    model.ItemRetired,
			"is_active": false,
		}).Error; err != nil {
			return err
		}
		return tx.Delete(&it).Error
	})
}

// BulkUpdateItemStatus moves every listed item to the given status, skipping
// items that are lent out. Returns the number of items updated.
func (s *gormStore) BulkUpdateItemStatus(ctx context.Context, p model.Principal, ids []int64, status model.ItemStatus) (int64, error) {
	if !p.Role.CanManageInventory() {
		return 0, ErrNotAuthorized
	}
	switch status {
	case model.ItemAvailable, model.ItemMaintenance, model.ItemRetired:
	default:
		return 0, fmt.Errorf("%w: bulk update cannot set status %q", ErrValidation, status)
	}
	var updated int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Item{}).
			Where("id IN ? AND status <> ?", ids, model.ItemLent).
			Update("status", status)
		if res.Error != nil {
			return res.Error
		}
		updated = res.RowsAffected
		return nil
	})
	return updated, err
}
