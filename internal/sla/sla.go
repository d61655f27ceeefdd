// Package sla attaches service-level timestamps to maintenance requests as
// side effects of their status transitions.
package sla

import (
	"time"

	"asset-inventory-backend/internal/model"
)

// Response targets by priority, measured from request creation.
var targets = map[model.MaintenancePriority]time.Duration{
	model.PriorityUrgent: 4 * time.Hour,
	model.PriorityHigh:   24 * time.Hour,
	model.PriorityMedium: 3 * 24 * time.Hour,
	model.PriorityLow:    7 * 24 * time.Hour,
}

// SetTarget stamps the resolution deadline derived from the request's
// priority. Unknown priorities fall back to the medium target.
func SetTarget(req *model.MaintenanceRequest, now time.Time) {
	d, ok := targets[req.Priority]
	if !ok {
		d = targets[model.PriorityMedium]
	}
	target := now.Add(d)
	req.SLATarget = &target
}

// RecordFirstResponse stamps the first-response timestamp once. Later
// transitions leave the original value in place.
func RecordFirstResponse(req *model.MaintenanceRequest, now time.Time) {
	if req.FirstResponseAt != nil {
		return
	}
	req.FirstResponseAt = &now
}

// RecordResolution stamps the resolution timestamp once.
func RecordResolution(req *model.MaintenanceRequest, now time.Time) {
	if req.ResolvedAt != nil {
		return
	}
	req.ResolvedAt = &now
}

// Breached reports whether the request missed its resolution target as of
// the given time.
func Breached(req *model.MaintenanceRequest, now time.Time) bool {
	if req.SLATarget == nil {
		return false
	}
	if req.ResolvedAt != nil {
		return req.ResolvedAt.After(*req.SLATarget)
	}
	return now.After(*req.SLATarget)
}
