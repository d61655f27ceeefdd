package store

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm/clause"

	"asset-inventory-backend/internal/model"
)

func (s *gormStore) RecordChatbotQuery(ctx context.Context, q *model.ChatbotQuery) error {
	return s.db.WithContext(ctx).Create(q).Error
}

func (s *gormStore) ActiveFallbackResponses(ctx context.Context) ([]model.FallbackResponse, error) {
	var frs []model.FallbackResponse
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("id").
		Find(&frs).Error
	return frs, err
}

func (s *gormStore) CreateFallbackResponse(ctx context.Context, p model.Principal, fr *model.FallbackResponse) error {
	if !p.Role.CanManageInventory() {
		return ErrNotAuthorized
	}
	if strings.TrimSpace(fr.Keywords) == "" || strings.TrimSpace(fr.Response) == "" {
		return fmt.Errorf("%w: keywords and response are required", ErrValidation)
	}
	fr.IsActive = true
	return s.db.WithContext(ctx).Create(fr).Error
}

func (s *gormStore) UpsertSubscription(ctx context.Context, sub *model.PushSubscription) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "p256dh", "auth"}),
	}).Create(sub).Error
}

func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	return s.db.WithContext(ctx).Delete(&model.PushSubscription{Endpoint: endpoint}).Error
}

func (s *gormStore) SubscriptionsForUser(ctx context.Context, userID int64) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&subs).Error
	return subs, err
}
