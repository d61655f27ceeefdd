package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"asset-inventory-backend/internal/model"
	"asset-inventory-backend/internal/mw"
)

type putSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
	P256DH   string `json:"p256dh" binding:"required"`
	Auth     string `json:"auth" binding:"required"`
}

// PutSubscription registers or refreshes the caller's browser push
// subscription.
func (h *Handler) PutSubscription(c *gin.Context) {
	var req putSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, _ := mw.Principal(c)

	sub := model.PushSubscription{
		Endpoint: req.Endpoint,
		UserID:   p.UserID,
		P256DH:   req.P256DH,
		Auth:     req.Auth,
	}
	if err := h.store.UpsertSubscription(c.Request.Context(), &sub); err != nil {
		failErr(c, err)
		return
	}
	created(c, nil)
}

type deleteSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

// DeleteSubscription removes one of the caller's push subscriptions.
func (h *Handler) DeleteSubscription(c *gin.Context) {
	var req deleteSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, _ := mw.Principal(c)

	subs, err := h.store.SubscriptionsForUser(c.Request.Context(), p.UserID)
	if err != nil {
		failErr(c, err)
		return
	}
	owned := false
	for _, s := range subs {
		if s.Endpoint == req.Endpoint {
			owned = true
			break
		}
	}
	if !owned {
		fail(c, http.StatusNotFound, "subscription not found")
		return
	}

	if err := h.store.DeleteSubscription(c.Request.Context(), req.Endpoint); err != nil {
		failErr(c, err)
		return
	}
	ok(c, nil)
}

// ListSubscriptions returns the caller's registered push subscriptions.
func (h *Handler) ListSubscriptions(c *gin.Context) {
	p, _ := mw.Principal(c)
	subs, err := h.store.SubscriptionsForUser(c.Request.Context(), p.UserID)
	if err != nil {
		failErr(c, err)
		return
	}
	endpoints := make([]string, len(subs))
	for i, s := range subs {
		endpoints[i] = s.Endpoint
	}
	ok(c, gin.H{"endpoints": endpoints})
}
