package api

import (
	"github.com/gin-gonic/gin"

	"asset-inventory-backend/internal/model"
	"asset-inventory-backend/internal/mw"
	"asset-inventory-backend/internal/notification"
	"asset-inventory-backend/internal/store"
)

type maintenanceRequestBody struct {
	ItemID      int64  `json:"item_id" binding:"required"`
	Type        string `json:"maintenance_type" binding:"required"`
	Priority    string `json:"priority"`
	Description string `json:"description" binding:"required"`
}

// CreateMaintenance files a maintenance request for an item.
func (h *Handler) CreateMaintenance(c *gin.Context) {
	var req maintenanceRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, _ := mw.Principal(c)
	mr, err := h.store.CreateMaintenanceRequest(c.Request.Context(), p, store.MaintenanceInput{
		ItemID:          req.ItemID,
		MaintenanceType: model.MaintenanceType(req.Type),
		Priority:        model.MaintenancePriority(req.Priority),
		Description:     req.Description,
	})
	if err != nil {
		failErr(c, err)
		return
	}
	created(c, mr)
}

type assignRequest struct {
	AssigneeID int64 `json:"assignee_id" binding:"required"`
}

// AssignMaintenance hands a request to a technician and starts the SLA
// first-response clock.
func (h *Handler) AssignMaintenance(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, err)
		return
	}
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, _ := mw.Principal(c)
	mr, err := h.store.AssignMaintenance(c.Request.Context(), p, id, req.AssigneeID)
	if err != nil {
		failErr(c, err)
		return
	}

	if h.notifier != nil {
		h.notifier.Dispatch(notification.Notification{
			UserID: req.AssigneeID,
			Title:  "Maintenance assigned",
			Body:   mr.Description,
		})
	}
	ok(c, mr)
}

type completeMaintenanceRequest struct {
	ResolutionNotes string  `json:"resolution_notes" binding:"required"`
	Cost            float64 `json:"cost"`
}

// CompleteMaintenance closes out an in-progress request; the item returns
// to service once no other open requests remain.
func (h *Handler) CompleteMaintenance(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, err)
		return
	}
	var req completeMaintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, _ := mw.Principal(c)
	mr, err := h.store.CompleteMaintenance(c.Request.Context(), p, store.CompleteMaintenanceInput{
		RequestID:       id,
		ResolutionNotes: req.ResolutionNotes,
		Cost:            req.Cost,
	})
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, mr)
}

// CancelMaintenance withdraws a request that is not yet resolved.
func (h *Handler) CancelMaintenance(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, err)
		return
	}
	var req cancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, _ := mw.Principal(c)
	mr, err := h.store.CancelMaintenance(c.Request.Context(), p, id, req.Reason)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, mr)
}

// GetMaintenance returns one request, scoped to involvement for staff.
func (h *Handler) GetMaintenance(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, err)
		return
	}
	p, _ := mw.Principal(c)
	mr, err := h.store.GetMaintenanceRequest(c.Request.Context(), p, id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, mr)
}

// ListMaintenance returns a filtered, paginated request listing.
func (h *Handler) ListMaintenance(c *gin.Context) {
	p, _ := mw.Principal(c)
	f := store.MaintenanceFilter{
		Status:       c.Query("status"),
		Priority:     c.Query("priority"),
		AssignedToID: int64(queryInt(c, "assigned_to")),
		Page:         queryInt(c, "page"),
		Size:         queryInt(c, "size"),
	}
	reqs, total, err := h.store.ListMaintenanceRequests(c.Request.Context(), p, f)
	if err != nil {
		failErr(c, err)
		return
	}
	page, size := normalizePageParams(f.Page, f.Size)
	ok(c, pagedData{Items: reqs, Total: total, Page: page, Size: size})
}
