package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"asset-inventory-backend/internal/model"
	"asset-inventory-backend/internal/sla"
)

// InventorySummaryReport aggregates the item registry for dashboards.
type InventorySummaryReport struct {
	TotalItems int64              `json:"total_items"`
	TotalValue float64            `json:"total_value"`
	ByStatus   map[string]int64   `json:"by_status"`
	ByCategory []CategoryCountRow `json:"by_category"`
}

// CategoryCountRow is one category's slice of the inventory.
type CategoryCountRow struct {
	CategoryID   int64   `json:"category_id"`
	CategoryName string  `json:"category_name"`
	Count        int64   `json:"count"`
	TotalValue   float64 `json:"total_value"`
}

// OverdueRow is one overdue loan with its projected fee.
type OverdueRow struct {
	Transaction  model.Transaction `json:"transaction"`
	DaysOverdue  int               `json:"days_overdue"`
	ProjectedFee float64           `json:"projected_fee"`
}

// MaintenanceBacklogReport summarizes open maintenance work.
type MaintenanceBacklogReport struct {
	Open        int64                      `json:"open"`
	ByPriority  map[string]int64           `json:"by_priority"`
	SLABreaches []model.MaintenanceRequest `json:"sla_breaches"`
}

// PurchasePipelineRow aggregates purchase requests per status.
type PurchasePipelineRow struct {
	Status        string  `json:"status"`
	Count         int64   `json:"count"`
	EstimatedCost float64 `json:"estimated_cost"`
}

// ChatbotAnalyticsReport summarizes chatbot usage over a period.
type ChatbotAnalyticsReport struct {
	TotalQueries   int64            `json:"total_queries"`
	SuccessRate    float64          `json:"success_rate"`
	FallbackRate   float64          `json:"fallback_rate"`
	AvgExecutionMs float64          `json:"avg_execution_ms"`
	ByIntent       map[string]int64 `json:"by_intent"`
}

func (s *gormStore) InventorySummary(ctx context.Context) (*InventorySummaryReport, error) {
	report := &InventorySummaryReport{ByStatus: make(map[string]int64)}

	db := s.db.WithContext(ctx)
	if err := db.Model(&model.Item{}).Count(&report.TotalItems).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Item{}).
		Select("COALESCE(SUM(current_value), 0)").
		Scan(&report.TotalValue).Error; err != nil {
		return nil, err
	}

	type statusRow struct {
		Status string
		Count  int64
	}
	var statuses []statusRow
	if err := db.Model(&model.Item{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&statuses).Error; err != nil {
		return nil, err
	}
	for _, r := range statuses {
		report.ByStatus[r.Status] = r.Count
	}

	if err := db.Model(&model.Item{}).
		Select("items.category_id, categories.name as category_name, COUNT(*) as count, COALESCE(SUM(items.current_value), 0) as total_value").
		Joins("JOIN categories ON categories.id = items.category_id").
		Group("items.category_id, categories.name").
		Scan(&report.ByCategory).Error; err != nil {
		return nil, err
	}

	return report, nil
}

func (s *gormStore) OverdueReport(ctx context.Context, now time.Time) ([]OverdueRow, error) {
	var ts []model.Transaction
	if err := s.db.WithContext(ctx).
		Preload("Item").Preload("User").
		Where("status = ? AND due_date < ?", model.TransactionActive, now).
		Order("due_date").
		Find(&ts).Error; err != nil {
		return nil, err
	}

	rows := make([]OverdueRow, 0, len(ts))
	for _, t := range ts {
		days := t.DaysOverdue(now)
		rows = append(rows, OverdueRow{
			Transaction:  t,
			DaysOverdue:  days,
			ProjectedFee: float64(days) * s.opts.LateFeePerDay,
		})
	}
	return rows, nil
}

func (s *gormStore) MaintenanceBacklog(ctx context.Context, now time.Time) (*MaintenanceBacklogReport, error) {
	report := &MaintenanceBacklogReport{ByPriority: make(map[string]int64)}

	openStatuses := []model.MaintenanceStatus{model.MaintenancePending, model.MaintenanceInProgress}
	db := s.db.WithContext(ctx)

	if err := db.Model(&model.MaintenanceRequest{}).
		Where("status IN ?", openStatuses).
		Count(&report.Open).Error; err != nil {
		return nil, err
	}

	type prioRow struct {
		Priority string
		Count    int64
	}
	var prios []prioRow
	if err := db.Model(&model.MaintenanceRequest{}).
		Where("status IN ?", openStatuses).
		Select("priority, COUNT(*) as count").
		Group("priority").
		Scan(&prios).Error; err != nil {
		return nil, err
	}
	for _, r := range prios {
		report.ByPriority[r.Priority] = r.Count
	}

	var open []model.MaintenanceRequest
	if err := db.Preload("Item").Preload("AssignedTo").
		Where("status IN ?", openStatuses).
		Find(&open).Error; err != nil {
		return nil, err
	}
	for i := range open {
		if sla.Breached(&open[i], now) {
			report.SLABreaches = append(report.SLABreaches, open[i])
		}
	}

	return report, nil
}

func (s *gormStore) PurchasePipeline(ctx context.Context) ([]PurchasePipelineRow, error) {
	var rows []PurchasePipelineRow
	err := s.db.WithContext(ctx).Model(&model.PurchaseRequest{}).
		Select("status, COUNT(*) as count, COALESCE(SUM(estimated_cost * quantity), 0) as estimated_cost").
		Group("status").
		Scan(&rows).Error
	return rows, err
}

func (s *gormStore) ChatbotAnalytics(ctx context.Context, since time.Time) (*ChatbotAnalyticsReport, error) {
	report := &ChatbotAnalyticsReport{ByIntent: make(map[string]int64)}

	base := func() *gorm.DB {
		return s.db.WithContext(ctx).Model(&model.ChatbotQuery{}).Where("created_at >= ?", since)
	}

	if err := base().Count(&report.TotalQueries).Error; err != nil {
		return nil, err
	}
	if report.TotalQueries == 0 {
		return report, nil
	}

	var successful, fallbacks int64
	if err := base().Where("was_successful = ?", true).Count(&successful).Error; err != nil {
		return nil, err
	}
	if err := base().Where("used_fallback = ?", true).Count(&fallbacks).Error; err != nil {
		return nil, err
	}
	report.SuccessRate = float64(successful) / float64(report.TotalQueries)
	report.FallbackRate = float64(fallbacks) / float64(report.TotalQueries)

	if err := base().
		Select("COALESCE(AVG(execution_time_ms), 0)").
		Scan(&report.AvgExecutionMs).Error; err != nil {
		return nil, err
	}

	type intentRow struct {
		Intent string
		Count  int64
	}
	var intents []intentRow
	if err := base().
		Select("intent, COUNT(*) as count").
		Group("intent").
		Scan(&intents).Error; err != nil {
		return nil, err
	}
	for _, r := range intents {
		report.ByIntent[r.Intent] = r.Count
	}

	return report, nil
}
