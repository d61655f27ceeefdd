package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"asset-inventory-backend/internal/model"
	"asset-inventory-backend/internal/mw"
)

type askRequest struct {
	Query string `json:"query" binding:"required"`
}

// Ask runs a natural-language inventory question through the assistant
// gateway synchronously.
func (h *Handler) Ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, _ := mw.Principal(c)
	result, err := h.chatbot.Ask(c.Request.Context(), p, req.Query)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, result)
}

// EnqueueAsk accepts a question for background processing and returns a
// job ID to poll.
func (h *Handler) EnqueueAsk(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, _ := mw.Principal(c)
	job := h.jobs.Enqueue(p, req.Query)
	c.JSON(http.StatusAccepted, envelope{Success: true, Data: job})
}

// GetAskJob returns the state of a background question.
func (h *Handler) GetAskJob(c *gin.Context) {
	job, found := h.jobs.Lookup(c.Param("id"))
	if !found {
		fail(c, http.StatusNotFound, "job not found or expired")
		return
	}
	ok(c, job)
}

type fallbackRequest struct {
	Keywords string `json:"keywords" binding:"required"`
	Response string `json:"response" binding:"required"`
}

// CreateFallback registers a canned answer served while the assistant
// service is down.
func (h *Handler) CreateFallback(c *gin.Context) {
	var req fallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, _ := mw.Principal(c)
	fr := model.FallbackResponse{Keywords: req.Keywords, Response: req.Response, IsActive: true}
	if err := h.store.CreateFallbackResponse(c.Request.Context(), p, &fr); err != nil {
		failErr(c, err)
		return
	}
	h.chatbot.InvalidateFallbacks()
	created(c, fr)
}
