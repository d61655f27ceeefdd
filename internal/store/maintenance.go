package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"asset-inventory-backend/internal/model"
	"asset-inventory-backend/internal/sla"
)

// MaintenanceInput describes a manually filed maintenance request.
type MaintenanceInput struct {
	ItemID          int64
	MaintenanceType model.MaintenanceType
	Priority        model.MaintenancePriority
	Description     string
}

// CompleteMaintenanceInput closes out an in-progress request.
type CompleteMaintenanceInput struct {
	RequestID       int64
	ResolutionNotes string
	Cost            float64
	Now             time.Time
}

// CreateMaintenanceRequest files a request and moves the item into
// maintenance when it is not out on loan.
func (s *gormStore) CreateMaintenanceRequest(ctx context.Context, p model.Principal, in MaintenanceInput) (*model.MaintenanceRequest, error) {
	if !model.ValidMaintenanceType(string(in.MaintenanceType)) {
		return nil, fmt.Errorf("%w: unknown maintenance type %q", ErrValidation, in.MaintenanceType)
	}
	if in.Priority == "" {
		in.Priority = model.PriorityMedium
	}
	if !model.ValidMaintenancePriority(string(in.Priority)) {
		return nil, fmt.Errorf("%w: unknown priority %q", ErrValidation, in.Priority)
	}

	req := &model.MaintenanceRequest{
		ItemID:          in.ItemID,
		RequestedByID:   p.UserID,
		MaintenanceType: in.MaintenanceType,
		Priority:        in.Priority,
		Status:          model.MaintenancePending,
		Description:     in.Description,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var it model.Item
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&it, in.ItemID).Error; err != nil {
			return err
		}
		sla.SetTarget(req, time.Now().UTC())
		if err := tx.Create(req).Error; err != nil {
			return err
		}
		if it.Status == model.ItemAvailable {
			return tx.Model(&it).Update("status", model.ItemMaintenance).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// AssignMaintenance puts a request in progress under the given assignee.
// Reassignment of an in-progress request is allowed; the first assignment
// records the SLA first-response timestamp.
func (s *gormStore) AssignMaintenance(ctx context.Context, p model.Principal, reqID, assigneeID int64) (*model.MaintenanceRequest, error) {
	if !p.Role.CanAssignMaintenance() {
		return nil, ErrNotAuthorized
	}
	var req model.MaintenanceRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&req, reqID).Error; err != nil {
			return err
		}
		if req.Status != model.MaintenancePending && req.Status != model.MaintenanceInProgress {
			return fmt.Errorf("%w: cannot assign a %s request", ErrInvalidTransition, req.Status)
		}
		if _, err := s.findUserTx(tx, assigneeID); err != nil {
			return err
		}
		req.AssignedToID = &assigneeID
		req.Status = model.MaintenanceInProgress
		sla.RecordFirstResponse(&req, time.Now().UTC())
		return tx.Save(&req).Error
	})
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// CompleteMaintenance closes an in-progress request and releases the item
// back to circulation.
func (s *gormStore) CompleteMaintenance(ctx context.Context, p model.Principal, in CompleteMaintenanceInput) (*model.MaintenanceRequest, error) {
	now := orNow(in.Now)
	var req model.MaintenanceRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&req, in.RequestID).Error; err != nil {
			return err
		}
		if req.Status != model.MaintenanceInProgress {
			return fmt.Errorf("%w: only in-progress requests can be completed", ErrInvalidTransition)
		}
		isAssignee := req.AssignedToID != nil && *req.AssignedToID == p.UserID
		if !isAssignee && !p.Role.CanAssignMaintenance() {
			return ErrNotAuthorized
		}
		req.Status = model.MaintenanceCompleted
		req.CompletedDate = &now
		req.ResolutionNotes = in.ResolutionNotes
		req.Cost = in.Cost
		sla.RecordResolution(&req, now)
		if err := tx.Save(&req).Error; err != nil {
			return err
		}
		return s.releaseItemIfIdle(tx, req.ItemID, req.ID)
	})
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// CancelMaintenance voids a non-terminal request.
func (s *gormStore) CancelMaintenance(ctx context.Context, p model.Principal, reqID int64, reason string) (*model.MaintenanceRequest, error) {
	var req model.MaintenanceRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&req, reqID).Error; err != nil {
			return err
		}
		if req.Status.Terminal() {
			return fmt.Errorf("%w: request is already %s", ErrInvalidTransition, req.Status)
		}
		if req.RequestedByID != p.UserID && !p.Role.CanAssignMaintenance() {
			return ErrNotAuthorized
		}
		req.Status = model.MaintenanceCancelled
		if reason != "" {
			req.ResolutionNotes = reason
		}
		if err := tx.Save(&req).Error; err != nil {
			return err
		}
		return s.releaseItemIfIdle(tx, req.ItemID, req.ID)
	})
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// releaseItemIfIdle moves an item out of maintenance once no other open
// request holds it. Items in other states are left alone.
func (s *gormStore) releaseItemIfIdle(tx *gorm.DB, itemID, excludeReqID int64) error {
	var open int64
	if err := tx.Model(&model.MaintenanceRequest{}).
		Where("item_id = ? AND id <> ? AND status IN ?",
			itemID, excludeReqID,
			[]model.MaintenanceStatus{model.MaintenancePending, model.MaintenanceInProgress}).
		Count(&open).Error; err != nil {
		return err
	}
	if open > 0 {
		return nil
	}
	return tx.Model(&model.Item{}).
		Where("id = ? AND status = ?", itemID, model.ItemMaintenance).
		Update("status", model.ItemAvailable).Error
}

func (s *gormStore) findUserTx(tx *gorm.DB, id int64) (*model.User, error) {
	var u model.User
	if err := tx.First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *gormStore) GetMaintenanceRequest(ctx context.Context, p model.Principal, id int64) (*model.MaintenanceRequest, error) {
	var req model.MaintenanceRequest
	if err := s.db.WithContext(ctx).
		Preload("Item").Preload("RequestedBy").Preload("AssignedTo").
		First(&req, id).Error; err != nil {
		return nil, err
	}
	isParty := req.RequestedByID == p.UserID ||
		(req.AssignedToID != nil && *req.AssignedToID == p.UserID)
	if !isParty && !p.Role.CanAssignMaintenance() {
		return nil, ErrNotAuthorized
	}
	return &req, nil
}

func (s *gormStore) ListMaintenanceRequests(ctx context.Context, p model.Principal, f MaintenanceFilter) ([]model.MaintenanceRequest, int64, error) {
	page, size := normalizePage(f.Page, f.Size)

	q := s.db.WithContext(ctx).Model(&model.MaintenanceRequest{})
	if !p.Role.CanAssignMaintenance() {
		q = q.Where("requested_by_id = ? OR assigned_to_id = ?", p.UserID, p.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Priority != "" {
		q = q.Where("priority = ?", f.Priority)
	}
	if f.AssignedToID > 0 {
		q = q.Where("assigned_to_id = ?", f.AssignedToID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reqs []model.MaintenanceRequest
	err := q.Preload("Item").Preload("RequestedBy").Preload("AssignedTo").
		Order("created_at DESC").
		Offset((page - 1) * size).Limit(size).
		Find(&reqs).Error
	return reqs, total, err
}
