package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"asset-inventory-backend/internal/mw"
	"asset-inventory-backend/internal/session"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token string `json:"token"`
	User  any    `json:"user"`
}

// Login verifies credentials and issues a session token.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.store.FindUserByUsername(c.Request.Context(), req.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fail(c, http.StatusUnauthorized, "invalid credentials")
			return
		}
		failErr(c, err)
		return
	}
	if !user.IsActive {
		fail(c, http.StatusUnauthorized, "account is deactivated")
		return
	}

	match, err := session.VerifyPassword(req.Password, user.PasswordSalt, user.PasswordHash)
	if err != nil || !match {
		fail(c, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.sessions.Create(c.Request.Context(), user.ID, user.Role)
	if err != nil {
		failErr(c, err)
		return
	}

	ok(c, loginResponse{Token: token, User: user})
}

// Logout invalidates the caller's current session token.
func (h *Handler) Logout(c *gin.Context) {
	token := mw.Token(c)
	if token == "" {
		fail(c, http.StatusUnauthorized, "no session token")
		return
	}
	if err := h.sessions.Delete(c.Request.Context(), token); err != nil {
		failErr(c, err)
		return
	}
	ok(c, nil)
}

// Me returns the authenticated user's profile.
func (h *Handler) Me(c *gin.Context) {
	p, _ := mw.Principal(c)
	user, err := h.store.FindUserByID(c.Request.Context(), p.UserID)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, user)
}
