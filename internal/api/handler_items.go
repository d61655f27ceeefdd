package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"asset-inventory-backend/internal/export"
	"asset-inventory-backend/internal/model"
	"asset-inventory-backend/internal/mw"
	"asset-inventory-backend/internal/qr"
	"asset-inventory-backend/internal/store"
)

func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

func queryInt(c *gin.Context, name string) int {
	v, _ := strconv.Atoi(c.Query(name))
	return v
}

// --- Categories ---

type categoryRequest struct {
	Name        string       `json:"name" binding:"required"`
	Description string       `json:"description"`
	Schema      model.Schema `json:"schema"`
}

// CreateCategory registers a category with its dynamic field schema.
func (h *Handler) CreateCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, _ := mw.Principal(c)
	cat := model.Category{Name: req.Name, Description: req.Description, Schema: req.Schema}
	if err := h.store.CreateCategory(c.Request.Context(), p, &cat); err != nil {
		failErr(c, err)
		return
	}
	created(c, cat)
}

// UpdateCategory replaces a category's name, description and schema.
func (h *Handler) UpdateCategory(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, err)
		return
	}
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, _ := mw.Principal(c)
	cat := model.Category{ID: id, Name: req.Name, Description: req.Description, Schema: req.Schema}
	if err := h.store.UpdateCategory(c.Request.Context(), p, &cat); err != nil {
		failErr(c, err)
		return
	}
	ok(c, cat)
}

// ListCategories returns all categories.
func (h *Handler) ListCategories(c *gin.Context) {
	cats, err := h.store.ListCategories(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, cats)
}

// GetCategory returns one category.
func (h *Handler) GetCategory(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, err)
		return
	}
	cat, err := h.store.GetCategory(c.Request.Context(), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, cat)
}

// --- Items ---

type itemRequest struct {
	InventoryNumber string        `json:"inventory_number"`
	Name            string        `json:"name" binding:"required"`
	CategoryID      int64         `json:"category_id" binding:"required"`
	Condition       string        `json:"condition_status"`
	Vendor          string        `json:"vendor"`
	Location        string        `json:"location"`
	PurchaseValue   float64       `json:"purchase_value"`
	CurrentValue    float64       `json:"current_value"`
	WarrantyStart   *time.Time    `json:"warranty_start"`
	WarrantyEnd     *time.Time    `json:"warranty_end"`
	Details         model.Details `json:"details"`
}

func (r *itemRequest) toModel() model.Item {
	cond := model.ConditionStatus(r.Condition)
	if cond == "" {
		cond = model.ConditionGood
	}
	return model.Item{
		InventoryNumber: r.InventoryNumber,
		Name:            r.Name,
		CategoryID:      r.CategoryID,
		ConditionStatus: cond,
		Vendor:          r.Vendor,
		Location:        r.Location,
		PurchaseValue:   r.PurchaseValue,
		CurrentValue:    r.CurrentValue,
		WarrantyStart:   r.WarrantyStart,
		WarrantyEnd:     r.WarrantyEnd,
		Details:         r.Details,
	}
}

// CreateItem registers a new item. The inventory number is generated from
// the category when left empty.
func (h *Handler) CreateItem(c *gin.Context) {
	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, _ := mw.Principal(c)
	item := req.toModel()
	if err := h.store.CreateItem(c.Request.Context(), p, &item); err != nil {
		failErr(c, err)
		return
	}
	created(c, item)
}

// UpdateItem updates item master data. Status and holder are owned by the
// checkout and maintenance workflows and cannot be set here.
func (h *Handler) UpdateItem(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, err)
		return
	}
	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, _ := mw.Principal(c)
	item := req.toModel()
	item.ID = id
	if err := h.store.UpdateItem(c.Request.Context(), p, &item); err != nil {
		failErr(c, err)
		return
	}
	ok(c, item)
}

// ListItems returns a filtered, paginated item listing.
func (h *Handler) ListItems(c *gin.Context) {
	f := store.ItemFilter{
		Status:     c.Query("status"),
		CategoryID: int64(queryInt(c, "category_id")),
		Query:      c.Query("q"),
		Page:       queryInt(c, "page"),
		Size:       queryInt(c, "size"),
	}
	items, total, err := h.store.ListItems(c.Request.Context(), f)
	if err != nil {
		failErr(c, err)
		return
	}
	page, size := normalizePageParams(f.Page, f.Size)
	ok(c, pagedData{Items: items, Total: total, Page: page, Size: size})
}

// GetItem returns one item with its category and holder.
func (h *Handler) GetItem(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, err)
		return
	}
	item, err := h.store.GetItem(c.Request.Context(), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, item)
}

// GetItemByNumber looks an item up by its printed inventory number.
func (h *Handler) GetItemByNumber(c *gin.Context) {
	number := c.Param("number")
	item, err := h.store.GetItemByInventoryNumber(c.Request.Context(), number)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, item)
}

// DecommissionItem retires an item. Items out on loan cannot be retired.
func (h *Handler) DecommissionItem(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, err)
		return
	}
	p, _ := mw.Principal(c)
	if err := h.store.DecommissionItem(c.Request.Context(), p, id); err != nil {
		failErr(c, err)
		return
	}
	ok(c, nil)
}

type bulkStatusRequest struct {
	ItemIDs []int64 `json:"item_ids" binding:"required"`
	Status  string  `json:"status" binding:"required"`
}

// BulkUpdateStatus moves a set of idle items into a new status. Lent items
// are skipped, never forced.
func (h *Handler) BulkUpdateStatus(c *gin.Context) {
	var req bulkStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, _ := mw.Principal(c)
	updated, err := h.store.BulkUpdateItemStatus(c.Request.Context(), p, req.ItemIDs, model.ItemStatus(req.Status))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, gin.H{"updated": updated, "requested": len(req.ItemIDs)})
}

// ExportItems streams the filtered item list as CSV, TSV or JSON.
func (h *Handler) ExportItems(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		badRequest(c, err)
		return
	}

	f := store.ItemFilter{
		Status:     c.Query("status"),
		CategoryID: int64(queryInt(c, "category_id")),
		Query:      c.Query("q"),
		Page:       1,
		Size:       200,
	}

	var all []model.Item
	for {
		items, _, err := h.store.ListItems(c.Request.Context(), f)
		if err != nil {
			failErr(c, err)
			return
		}
		all = append(all, items...)
		if len(items) < f.Size {
			break
		}
		f.Page++
	}

	filename := format.Filename(time.Now())
	c.Header("Content-Type", format.ContentType())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)
	if err := export.Items(c.Writer, all, format); err != nil {
		// Headers are already out; nothing sensible left to send.
		c.Error(err)
	}
}

// ItemQR renders the item's QR label as a PNG.
func (h *Handler) ItemQR(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, err)
		return
	}
	item, err := h.store.GetItem(c.Request.Context(), id)
	if err != nil {
		failErr(c, err)
		return
	}

	size := queryInt(c, "size")
	if size <= 0 || size > 1024 {
		size = 256
	}
	png, err := qr.ItemPNG(item, size)
	if err != nil {
		failErr(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

type scanRequest struct {
	Content string `json:"content" binding:"required"`
}

// ScanQR resolves scanned QR content back to the item it labels.
func (h *Handler) ScanQR(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	payload, err := qr.DecodePayload(req.Content)
	if err != nil {
		fail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	item, err := h.store.GetItemByInventoryNumber(c.Request.Context(), payload.InventoryNumber)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, item)
}
