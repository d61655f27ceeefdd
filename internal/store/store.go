package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"asset-inventory-backend/internal/model"
)

// Domain errors. Handlers map these onto HTTP status codes; everything else
// surfaces as an internal error.
var (
	ErrItemNotAvailable  = errors.New("item is not available for checkout")
	ErrItemLent          = errors.New("item is currently lent out")
	ErrItemInactive      = errors.New("item is not active")
	ErrTransactionClosed = errors.New("transaction is already closed")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrNotAuthorized     = errors.New("not authorized for this operation")
	ErrReasonTooShort    = errors.New("cancellation reason must be at least 10 characters")
	ErrDueDateInPast     = errors.New("new due date must be after today")
	ErrValidation        = errors.New("validation failed")
)

// Options carries the business policy knobs the workflows need.
type Options struct {
	DefaultLoanDays int
	LateFeePerDay   float64
}

// ItemFilter narrows item listings.
type ItemFilter struct {
	Status     string
	CategoryID int64
	Query      string
	Page       int
	Size       int
}

// TransactionFilter narrows transaction listings.
type TransactionFilter struct {
	Status string
	ItemID int64
	UserID int64
	Page   int
	Size   int
}

// MaintenanceFilter narrows maintenance request listings.
type MaintenanceFilter struct {
	Status       string
	Priority     string
	AssignedToID int64
	Page         int
	Size         int
}

// PurchaseFilter narrows purchase request listings.
type PurchaseFilter struct {
	Status      string
	RequesterID int64
	Page        int
	Size        int
}

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB

	// Users
	CreateUser(ctx context.Context, u *model.User) error
	FindUserByID(ctx context.Context, id int64) (*model.User, error)
	FindUserByUsername(ctx context.Context, username string) (*model.User, error)

	// Categories
	CreateCategory(ctx context.Context, p model.Principal, c *model.Category) error
	UpdateCategory(ctx context.Context, p model.Principal, c *model.Category) error
	GetCategory(ctx context.Context, id int64) (*model.Category, error)
	ListCategories(ctx context.Context) ([]model.Category, error)

	// Items
	CreateItem(ctx context.Context, p model.Principal, it *model.Item) error
	UpdateItem(ctx context.Context, p model.Principal, it *model.Item) error
	GetItem(ctx context.Context, id int64) (*model.Item, error)
	GetItemByInventoryNumber(ctx context.Context, number string) (*model.Item, error)
	ListItems(ctx context.Context, f ItemFilter) ([]model.Item, int64, error)
	DecommissionItem(ctx context.Context, p model.Principal, id int64) error
	BulkUpdateItemStatus(ctx context.Context, p model.Principal, ids []int64, status model.ItemStatus) (int64, error)

	// Transactions
	Checkout(ctx context.Context, p model.Principal, in CheckoutInput) (*model.Transaction, error)
	Return(ctx context.Context, p model.Principal, in ReturnInput) (*ReturnResult, error)
	Extend(ctx context.Context, p model.Principal, in ExtendInput) (*model.Transaction, error)
	Cancel(ctx context.Context, p model.Principal, txID int64, reason string) (*model.Transaction, error)
	MarkLateFeePaid(ctx context.Context, p model.Principal, txID int64) (*model.Transaction, error)
	GetTransaction(ctx context.Context, p model.Principal, id int64) (*model.Transaction, error)
	ListTransactions(ctx context.Context, p model.Principal, f TransactionFilter) ([]model.Transaction, int64, error)

	// Maintenance
	CreateMaintenanceRequest(ctx context.Context, p model.Principal, in MaintenanceInput) (*model.MaintenanceRequest, error)
	AssignMaintenance(ctx context.Context, p model.Principal, reqID, assigneeID int64) (*model.MaintenanceRequest, error)
	CompleteMaintenance(ctx context.Context, p model.Principal, in CompleteMaintenanceInput) (*model.MaintenanceRequest, error)
	CancelMaintenance(ctx context.Context, p model.Principal, reqID int64, reason string) (*model.MaintenanceRequest, error)
	GetMaintenanceRequest(ctx context.Context, p model.Principal, id int64) (*model.MaintenanceRequest, error)
	ListMaintenanceRequests(ctx context.Context, p model.Principal, f MaintenanceFilter) ([]model.MaintenanceRequest, int64, error)

	// Purchases
	CreatePurchaseRequest(ctx context.Context, p model.Principal, in PurchaseInput) (*model.PurchaseRequest, error)
	ApprovePurchase(ctx context.Context, p model.Principal, reqID int64) (*model.PurchaseRequest, error)
	RejectPurchase(ctx context.Context, p model.Principal, reqID int64, reason string) (*model.PurchaseRequest, error)
	MarkPurchaseOrdered(ctx context.Context, p model.Principal, reqID int64) (*model.PurchaseRequest, error)
	MarkPurchaseReceived(ctx context.Context, p model.Principal, reqID int64, actualCost float64) (*model.PurchaseRequest, error)
	CancelPurchase(ctx context.Context, p model.Principal, reqID int64) (*model.PurchaseRequest, error)
	GetPurchaseRequest(ctx context.Context, p model.Principal, id int64) (*model.PurchaseRequest, error)
	ListPurchaseRequests(ctx context.Context, p model.Principal, f PurchaseFilter) ([]model.PurchaseRequest, int64, error)

	// Reports
	InventorySummary(ctx context.Context) (*InventorySummaryReport, error)
	OverdueReport(ctx context.Context, now time.Time) ([]OverdueRow, error)
	MaintenanceBacklog(ctx context.Context, now time.Time) (*MaintenanceBacklogReport, error)
	PurchasePipeline(ctx context.Context) ([]PurchasePipelineRow, error)
	ChatbotAnalytics(ctx context.Context, since time.Time) (*ChatbotAnalyticsReport, error)

	// Chatbot
	RecordChatbotQuery(ctx context.Context, q *model.ChatbotQuery) error
	ActiveFallbackResponses(ctx context.Context) ([]model.FallbackResponse, error)
	CreateFallbackResponse(ctx context.Context, p model.Principal, fr *model.FallbackResponse) error

	// Push subscriptions
	UpsertSubscription(ctx context.Context, sub *model.PushSubscription) error
	DeleteSubscription(ctx context.Context, endpoint string) error
	SubscriptionsForUser(ctx context.Context, userID int64) ([]model.PushSubscription, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db   *gorm.DB
	opts Options
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB, opts Options) Store {
	if opts.DefaultLoanDays <= 0 {
		opts.DefaultLoanDays = 14
	}
	if opts.LateFeePerDay <= 0 {
		opts.LateFeePerDay = 1.0
	}
	return &gormStore{db: db, opts: opts}
}

// DB exposes the underlying connection for read paths that do not go
// through a workflow.
func (s *gormStore) DB() *gorm.DB { return s.db }

func normalizePage(page, size int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 200 {
		size = 20
	}
	return page, size
}
