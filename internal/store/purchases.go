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

// PurchaseInput describes a new purchase request.
type PurchaseInput struct {
	ItemName      string
	CategoryID    *int64
	Quantity      int
	EstimatedCost float64
	Justification string
}

func (s *gormStore) CreatePurchaseRequest(ctx context.Context, p model.Principal, in PurchaseInput) (*model.PurchaseRequest, error) {
	if strings.TrimSpace(in.ItemName) == "" {
		return nil, fmt.Errorf("%w: item name is required", ErrValidation)
	}
	if in.Quantity <= 0 {
		in.Quantity = 1
	}
	req := &model.PurchaseRequest{
		RequesterID:   p.UserID,
		ItemName:      in.ItemName,
		CategoryID:    in.CategoryID,
		Quantity:      in.Quantity,
		EstimatedCost: in.EstimatedCost,
		Justification: in.Justification,
		Status:        model.PurchasePending,
	}
	if err := s.db.WithContext(ctx).Create(req).Error; err != nil {
		return nil, err
	}
	return req, nil
}

// transitionPurchase loads the request under a row lock, verifies the prior
// state and applies mutate. Every workflow transition funnels through here.
func (s *gormStore) transitionPurchase(ctx context.Context, reqID int64, from []model.PurchaseStatus, mutate func(*model.PurchaseRequest) error) (*model.PurchaseRequest, error) {
	var req model.PurchaseRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&req, reqID).Error; err != nil {
			return err
		}
		allowed := false
		for _, st := range from {
			if req.Status == st {
				allowed = true
				break
			}
		}
		if !allowed {
			return fmt.Errorf("%w: request is %s", ErrInvalidTransition, req.Status)
		}
		if err := mutate(&req); err != nil {
			return err
		}
		return tx.Save(&req).Error
	})
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (s *gormStore) ApprovePurchase(ctx context.Context, p model.Principal, reqID int64) (*model.PurchaseRequest, error) {
	if !p.Role.CanApprovePurchases() {
		return nil, ErrNotAuthorized
	}
	now := time.Now().UTC()
	return s.transitionPurchase(ctx, reqID,
		[]model.PurchaseStatus{model.PurchasePending},
		func(req *model.PurchaseRequest) error {
			req.Status = model.PurchaseApproved
			req.ApprovedByID = &p.UserID
			req.ApprovedAt = &now
			return nil
		})
}

func (s *gormStore) RejectPurchase(ctx context.Context, p model.Principal, reqID int64, reason string) (*model.PurchaseRequest, error) {
	if !p.Role.CanApprovePurchases() {
		return nil, ErrNotAuthorized
	}
	if strings.TrimSpace(reason) == "" {
		return nil, fmt.Errorf("%w: rejection reason is required", ErrValidation)
	}
	return s.transitionPurchase(ctx, reqID,
		[]model.PurchaseStatus{model.PurchasePending},
		func(req *model.PurchaseRequest) error {
			req.Status = model.PurchaseRejected
			req.RejectionReason = reason
			return nil
		})
}

func (s *gormStore) MarkPurchaseOrdered(ctx context.Context, p model.Principal, reqID int64) (*model.PurchaseRequest, error) {
	if !p.Role.CanApprovePurchases() {
		return nil, ErrNotAuthorized
	}
	now := time.Now().UTC()
	return s.transitionPurchase(ctx, reqID,
		[]model.PurchaseStatus{model.PurchaseApproved},
		func(req *model.PurchaseRequest) error {
			req.Status = model.PurchaseOrdered
			req.OrderedAt = &now
			return nil
		})
}

func (s *gormStore) MarkPurchaseReceived(ctx context.Context, p model.Principal, reqID int64, actualCost float64) (*model.PurchaseRequest, error) {
	if !p.Role.CanApprovePurchases() {
		return nil, ErrNotAuthorized
	}
	now := time.Now().UTC()
	return s.transitionPurchase(ctx, reqID,
		[]model.PurchaseStatus{model.PurchaseOrdered},
		func(req *model.PurchaseRequest) error {
			req.Status = model.PurchaseReceived
			req.ReceivedAt = &now
			if actualCost > 0 {
				req.ActualCost = actualCost
			}
			return nil
		})
}

// CancelPurchase is open to the requester while the request is pending, and
// to managers while it is pending or approved.
func (s *gormStore) CancelPurchase(ctx context.Context, p model.Principal, reqID int64) (*model.PurchaseRequest, error) {
	return s.transitionPurchase(ctx, reqID,
		[]model.PurchaseStatus{model.PurchasePending, model.PurchaseApproved},
		func(req *model.PurchaseRequest) error {
			if req.RequesterID != p.UserID && !p.Role.CanApprovePurchases() {
				return ErrNotAuthorized
			}
			if req.Status == model.PurchaseApproved && !p.Role.CanApprovePurchases() {
				return ErrNotAuthorized
			}
			req.Status = model.PurchaseCancelled
			return nil
		})
}

func (s *gormStore) GetPurchaseRequest(ctx context.Context, p model.Principal, id int64) (*model.PurchaseRequest, error) {
	var req model.PurchaseRequest
	if err := s.db.WithContext(ctx).
		Preload("Requester").Preload("ApprovedBy").Preload("Category").
		First(&req, id).Error; err != nil {
		return nil, err
	}
	if req.RequesterID != p.UserID && !p.Role.CanApprovePurchases() {
		return nil, ErrNotAuthorized
	}
	return &req, nil
}

func (s *gormStore) ListPurchaseRequests(ctx context.Context, p model.Principal, f PurchaseFilter) ([]model.PurchaseRequest, int64, error) {
	page, size := normalizePage(f.Page, f.Size)

	q := s.db.WithContext(ctx).Model(&model.PurchaseRequest{})
	if !p.Role.CanApprovePurchases() {
		q = q.Where("requester_id = ?", p.UserID)
	} else if f.RequesterID > 0 {
		q = q.Where("requester_id = ?", f.RequesterID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reqs []model.PurchaseRequest
	err := q.Preload("Requester").Preload("ApprovedBy").
		Order("created_at DESC").
		Offset((page - 1) * size).Limit(size).
		Find(&reqs).Error
	return reqs, total, err
}
