package sla

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asset-inventory-backend/internal/model"
)

func TestSetTarget(t *testing.T) {
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		priority model.MaintenancePriority
		want     time.Time
	}{
		{model.PriorityUrgent, now.Add(4 * time.Hour)},
		{model.PriorityHigh, now.Add(24 * time.Hour)},
		{model.PriorityMedium, now.Add(3 * 24 * time.Hour)},
		{model.PriorityLow, now.Add(7 * 24 * time.Hour)},
		{"bogus", now.Add(3 * 24 * time.Hour)}, // falls back to medium
	}
	for _, tt := range tests {
		req := &model.MaintenanceRequest{Priority: tt.priority}
		SetTarget(req, now)
		require.NotNil(t, req.SLATarget, "priority %s", tt.priority)
		assert.Equal(t, tt.want, *req.SLATarget, "priority %s", tt.priority)
	}
}

func TestTimestampsStampOnce(t *testing.T) {
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	later := now.Add(time.Hour)

	req := &model.MaintenanceRequest{}
	RecordFirstResponse(req, now)
	RecordFirstResponse(req, later)
	assert.Equal(t, now, *req.FirstResponseAt)

	RecordResolution(req, now)
	RecordResolution(req, later)
	assert.Equal(t, now, *req.ResolvedAt)
}

func TestBreached(t *testing.T) {
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	target := now.Add(4 * time.Hour)

	t.Run("no target set", func(t *testing.T) {
		assert.False(t, Breached(&model.MaintenanceRequest{}, now))
	})

	t.Run("open request within target", func(t *testing.T) {
		req := &model.MaintenanceRequest{SLATarget: &target}
		assert.False(t, Breached(req, target.Add(-time.Minute)))
	})

	t.Run("open request past target", func(t *testing.T) {
		req := &model.MaintenanceRequest{SLATarget: &target}
		assert.True(t, Breached(req, target.Add(time.Minute)))
	})

	t.Run("resolved in time stays unbreached forever", func(t *testing.T) {
		resolved := target.Add(-time.Hour)
		req := &model.MaintenanceRequest{SLATarget: &target, ResolvedAt: &resolved}
		assert.False(t, Breached(req, target.Add(48*time.Hour)))
	})

	t.Run("resolved late stays breached", func(t *testing.T) {
		resolved := target.Add(time.Hour)
		req := &model.MaintenanceRequest{SLATarget: &target, ResolvedAt: &resolved}
		assert.True(t, Breached(req, resolved))
	})
}
