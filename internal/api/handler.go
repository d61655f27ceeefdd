package api

import (
	"github.com/SherClockHolmes/webpush-go"

	"asset-inventory-backend/internal/backup"
	"asset-inventory-backend/internal/chatbot"
	"asset-inventory-backend/internal/notification"
	"asset-inventory-backend/internal/session"
	"asset-inventory-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store    store.Store
	sessions *session.Store
	chatbot  *chatbot.Service
	jobs     *chatbot.JobQueue
	notifier *notification.WorkerPool
	backups  *backup.Manager
	webpush  *webpush.Options
}

// Deps bundles everything the handlers need.
type Deps struct {
	Store    store.Store
	Sessions *session.Store
	Chatbot  *chatbot.Service
	Jobs     *chatbot.JobQueue
	Notifier *notification.WorkerPool
	Backups  *backup.Manager
	WebPush  *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(d Deps) *Handler {
	return &Handler{
		store:    d.Store,
		sessions: d.Sessions,
		chatbot:  d.Chatbot,
		jobs:     d.Jobs,
		notifier: d.Notifier,
		backups:  d.Backups,
		webpush:  d.WebPush,
	}
}
