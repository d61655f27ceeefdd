package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"asset-inventory-backend/internal/chatbot"
	"asset-inventory-backend/internal/store"
)

// envelope is the uniform JSON wrapper for every API response.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// pagedData wraps listings with their pagination metadata.
type pagedData struct {
	Items any   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Size  int   `json:"size"`
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, envelope{Success: true, Data: data})
}

func created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, envelope{Success: true, Data: data})
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, envelope{Success: false, Message: message})
}

func badRequest(c *gin.Context, err error) {
	fail(c, http.StatusBadRequest, err.Error())
}

// failErr maps domain errors onto HTTP status codes. Unknown errors are
// logged and returned as opaque 500s.
func failErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		fail(c, http.StatusNotFound, "record not found")
	case errors.Is(err, store.ErrNotAuthorized):
		fail(c, http.StatusForbidden, err.Error())
	case errors.Is(err, store.ErrItemNotAvailable),
		errors.Is(err, store.ErrItemLent):
		fail(c, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrItemInactive),
		errors.Is(err, store.ErrTransactionClosed),
		errors.Is(err, store.ErrInvalidTransition),
		errors.Is(err, store.ErrReasonTooShort),
		errors.Is(err, store.ErrDueDateInPast),
		errors.Is(err, store.ErrValidation),
		errors.Is(err, chatbot.ErrInvalidQuery):
		fail(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, chatbot.ErrUnavailable):
		fail(c, http.StatusServiceUnavailable, "assistant service is unavailable")
	case errors.Is(err, chatbot.ErrUpstream):
		log.Printf("assistant upstream error: %v", err)
		fail(c, http.StatusInternalServerError, "assistant service returned an error")
	default:
		log.Printf("internal error: %v", err)
		fail(c, http.StatusInternalServerError, "internal server error")
	}
}
