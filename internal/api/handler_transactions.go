package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"asset-inventory-backend/internal/model"
	"asset-inventory-backend/internal/mw"
	"asset-inventory-backend/internal/notification"
	"asset-inventory-backend/internal/store"
)

type checkoutRequest struct {
	ItemID  int64      `json:"item_id" binding:"required"`
	UserID  int64      `json:"user_id"`
	DueDate *time.Time `json:"due_date"`
	Notes   string     `json:"notes"`
}

// Checkout lends an item out. Staff check out to themselves; managers may
// name another borrower.
func (h *Handler) Checkout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, _ := mw.Principal(c)

	borrower := req.UserID
	if borrower == 0 {
		borrower = p.UserID
	}

	tx, err := h.store.Checkout(c.Request.Context(), p, store.CheckoutInput{
		ItemID:  req.ItemID,
		UserID:  borrower,
		DueDate: req.DueDate,
		Notes:   req.Notes,
	})
	if err != nil {
		failErr(c, err)
		return
	}
	created(c, tx)
}

type returnRequest struct {
	Condition string `json:"condition_status" binding:"required"`
	Notes     string `json:"notes"`
}

// Return checks an item back in. Poor or damaged returns open a
// maintenance request automatically; the borrower gets a push note when a
// late fee was assessed.
func (h *Handler) Return(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, err)
		return
	}
	var req returnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, _ := mw.Principal(c)

	res, err := h.store.Return(c.Request.Context(), p, store.ReturnInput{
		TransactionID:   id,
		ReturnCondition: model.ConditionStatus(req.Condition),
		Notes:           req.Notes,
	})
	if err != nil {
		failErr(c, err)
		return
	}

	if h.notifier != nil && res.Transaction.LateFee > 0 {
		h.notifier.Dispatch(notification.Notification{
			UserID: res.Transaction.UserID,
			Title:  "Late return fee assessed",
			Body:   "Your return was overdue; check the transaction for the fee amount.",
		})
	}

	ok(c, gin.H{
		"transaction":         res.Transaction,
		"maintenance_request": res.MaintenanceRequest,
	})
}

type extendRequest struct {
	DueDate time.Time `json:"due_date" binding:"required"`
}

// Extend moves an active loan's due date.
func (h *Handler) Extend(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, err)
		return
	}
	var req extendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, _ := mw.Principal(c)
	tx, err := h.store.Extend(c.Request.Context(), p, store.ExtendInput{
		TransactionID: id,
		NewDueDate:    req.DueDate,
	})
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, tx)
}

type cancelRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// Cancel voids an active loan with an audit reason.
func (h *Handler) Cancel(c *gin.Context) {
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
	tx, err := h.store.Cancel(c.Request.Context(), p, id, req.Reason)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, tx)
}

// MarkFeePaid records settlement of a late fee.
func (h *Handler) MarkFeePaid(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, err)
		return
	}
	p, _ := mw.Principal(c)
	tx, err := h.store.MarkLateFeePaid(c.Request.Context(), p, id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, tx)
}

// GetTransaction returns one transaction, scoped to the caller for staff.
func (h *Handler) GetTransaction(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, err)
		return
	}
	p, _ := mw.Principal(c)
	tx, err := h.store.GetTransaction(c.Request.Context(), p, id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, tx)
}

// ListTransactions returns a filtered, paginated transaction listing.
// Staff only ever see their own.
func (h *Handler) ListTransactions(c *gin.Context) {
	p, _ := mw.Principal(c)
	f := store.TransactionFilter{
		Status: c.Query("status"),
		ItemID: int64(queryInt(c, "item_id")),
		UserID: int64(queryInt(c, "user_id")),
		Page:   queryInt(c, "page"),
		Size:   queryInt(c, "size"),
	}
	txs, total, err := h.store.ListTransactions(c.Request.Context(), p, f)
	if err != nil {
		failErr(c, err)
		return
	}
	page, size := normalizePageParams(f.Page, f.Size)
	ok(c, pagedData{Items: txs, Total: total, Page: page, Size: size})
}

func normalizePageParams(page, size int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 200 {
		size = 20
	}
	return page, size
}
