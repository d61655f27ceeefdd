package model

import "time"

// PurchaseStatus is the lifecycle state of a purchase request.
type PurchaseStatus string

const (
	PurchasePending   PurchaseStatus = "pending"
	PurchaseApproved  PurchaseStatus = "approved"
	PurchaseRejected  PurchaseStatus = "rejected"
	PurchaseOrdered   PurchaseStatus = "ordered"
	PurchaseReceived  PurchaseStatus = "received"
	PurchaseCancelled PurchaseStatus = "cancelled"
)

// Terminal reports whether no further transitions are allowed.
func (s PurchaseStatus) Terminal() bool {
	return s == PurchaseRejected || s == PurchaseReceived || s == PurchaseCancelled
}

// PurchaseRequest is a staff request for new stock. The workflow is linear
// with one branch at approval: pending -> approved -> ordered -> received,
// or pending -> rejected; cancelled is reachable from pending and approved.
type PurchaseRequest struct {
	ID            int64          `gorm:"primaryKey" json:"id"`
	RequesterID   int64          `gorm:"index;not null" json:"requester_id"`
	ItemName      string         `gorm:"size:256;not null" json:"item_name"`
	CategoryID    *int64         `gorm:"index" json:"category_id"`
	Quantity      int            `gorm:"not null;default:1" json:"quantity"`
	EstimatedCost float64        `json:"estimated_cost"`
	ActualCost    float64        `json:"actual_cost"`
	Justification string         `gorm:"size:1024" json:"justification"`
	Status        PurchaseStatus `gorm:"size:32;not null;default:'pending';index" json:"status"`

	ApprovedByID    *int64     `gorm:"index" json:"approved_by_id"`
	ApprovedAt      *time.Time `json:"approved_at"`
	RejectionReason string     `gorm:"size:1024" json:"rejection_reason"`
	OrderedAt       *time.Time `json:"ordered_at"`
	ReceivedAt      *time.Time `json:"received_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Associations
	Requester  User      `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	ApprovedBy *User     `gorm:"foreignKey:ApprovedByID" json:"approved_by,omitempty"`
	Category   *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}
