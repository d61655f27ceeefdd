package api

import (
	"github.com/gin-gonic/gin"

	"asset-inventory-backend/internal/mw"
	"asset-inventory-backend/internal/notification"
	"asset-inventory-backend/internal/store"
)

type purchaseRequestBody struct {
	ItemName      string  `json:"item_name" binding:"required"`
	CategoryID    *int64  `json:"category_id"`
	Quantity      int     `json:"quantity"`
	EstimatedCost float64 `json:"estimated_cost"`
	Justification string  `json:"justification" binding:"required"`
}

// CreatePurchase files a purchase request for review.
func (h *Handler) CreatePurchase(c *gin.Context) {
	var req purchaseRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, _ := mw.Principal(c)
	pr, err := h.store.CreatePurchaseRequest(c.Request.Context(), p, store.PurchaseInput{
		ItemName:      req.ItemName,
		CategoryID:    req.CategoryID,
		Quantity:      req.Quantity,
		EstimatedCost: req.EstimatedCost,
		Justification: req.Justification,
	})
	if err != nil {
		failErr(c, err)
		return
	}
	created(c, pr)
}

// ApprovePurchase moves a pending request to approved.
func (h *Handler) ApprovePurchase(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, err)
		return
	}
	p, _ := mw.Principal(c)
	pr, err := h.store.ApprovePurchase(c.Request.Context(), p, id)
	if err != nil {
		failErr(c, err)
		return
	}
	h.notifyRequester(pr.RequesterID, "Purchase request approved", pr.ItemName)
	ok(c, pr)
}

type rejectRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// RejectPurchase declines a pending request with a reason.
func (h *Handler) RejectPurchase(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, err)
		return
	}
	var req rejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, _ := mw.Principal(c)
	pr, err := h.store.RejectPurchase(c.Request.Context(), p, id, req.Reason)
	if err != nil {
		failErr(c, err)
		return
	}
	h.notifyRequester(pr.RequesterID, "Purchase request rejected", req.Reason)
	ok(c, pr)
}

// MarkPurchaseOrdered records that an approved request was ordered.
func (h *Handler) MarkPurchaseOrdered(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, err)
		return
	}
	p, _ := mw.Principal(c)
	pr, err := h.store.MarkPurchaseOrdered(c.Request.Context(), p, id)
	if err != nil {
		failErr(c, err)
		return
	}
	h.notifyRequester(pr.RequesterID, "Purchase request ordered", pr.ItemName)
	ok(c, pr)
}

type receivedRequest struct {
	ActualCost float64 `json:"actual_cost"`
}

// MarkPurchaseReceived records delivery of an ordered request.
func (h *Handler) MarkPurchaseReceived(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, err)
		return
	}
	var req receivedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, _ := mw.Principal(c)
	pr, err := h.store.MarkPurchaseReceived(c.Request.Context(), p, id, req.ActualCost)
	if err != nil {
		failErr(c, err)
		return
	}
	h.notifyRequester(pr.RequesterID, "Purchase request received", pr.ItemName)
	ok(c, pr)
}

// CancelPurchase withdraws a request that has not been ordered yet.
func (h *Handler) CancelPurchase(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, err)
		return
	}
	p, _ := mw.Principal(c)
	pr, err := h.store.CancelPurchase(c.Request.Context(), p, id)
	if err != nil {
		failErr(c, err)
		return
	}
	h.notifyRequester(pr.RequesterID, "Purchase request cancelled", pr.ItemName)
	ok(c, pr)
}

// GetPurchase returns one request, scoped to the requester for staff.
func (h *Handler) GetPurchase(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, err)
		return
	}
	p, _ := mw.Principal(c)
	pr, err := h.store.GetPurchaseRequest(c.Request.Context(), p, id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, pr)
}

// ListPurchases returns a filtered, paginated request listing.
func (h *Handler) ListPurchases(c *gin.Context) {
	p, _ := mw.Principal(c)
	f := store.PurchaseFilter{
		Status:      c.Query("status"),
		RequesterID: int64(queryInt(c, "requester_id")),
		Page:        queryInt(c, "page"),
		Size:        queryInt(c, "size"),
	}
	prs, total, err := h.store.ListPurchaseRequests(c.Request.Context(), p, f)
	if err != nil {
		failErr(c, err)
		return
	}
	page, size := normalizePageParams(f.Page, f.Size)
	ok(c, pagedData{Items: prs, Total: total, Page: page, Size: size})
}

func (h *Handler) notifyRequester(userID int64, title, body string) {
	if h.notifier == nil {
		return
	}
	h.notifier.Dispatch(notification.Notification{UserID: userID, Title: title, Body: body})
}
