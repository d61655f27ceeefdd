package model

import "time"

// TransactionStatus is the lifecycle state of a checkout transaction.
type TransactionStatus string

const (
	TransactionActive     TransactionStatus = "active"
	TransactionReturned   TransactionStatus = "returned"
	TransactionLateReturn TransactionStatus = "late_return"
	TransactionCancelled  TransactionStatus = "cancelled"
)

// Terminal reports whether the status permits no further state transitions
// (late-fee settlement excepted).
func (s TransactionStatus) Terminal() bool {
	return s != TransactionActive
}

// Transaction records the loan of an item to a user. At most one active
// transaction exists per item, enforced by the item status check-and-set
// inside the checkout transaction.
type Transaction struct {
	ID              int64             `gorm:"primaryKey" json:"id"`
	ItemID          int64             `gorm:"index;not null" json:"item_id"`
	UserID          int64             `gorm:"index;not null" json:"user_id"`
	CheckoutDate    time.Time         `gorm:"not null" json:"checkout_date"`
	DueDate         time.Time         `gorm:"not null" json:"due_date"`
	ReturnDate      *time.Time        `json:"return_date"`
	Status          TransactionStatus `gorm:"size:32;not null;default:'active';index" json:"status"`
	ReturnCondition ConditionStatus   `gorm:"size:32" json:"return_condition"`
	LateFee         float64           `gorm:"not null;default:0" json:"late_fee"`
	LateFeePaid     bool              `gorm:"not null;default:false" json:"late_fee_paid"`
	Notes           string            `gorm:"size:1024" json:"notes"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`

	// Associations
	Item Item `gorm:"constraint:OnDelete:RESTRICT" json:"item,omitempty"`
	User User `gorm:"constraint:OnDelete:RESTRICT" json:"user,omitempty"`
}

// DaysOverdue returns the number of chargeable late days if the item were
// returned at the given time. Partial days count as a full day.
func (t *Transaction) DaysOverdue(at time.Time) int {
	if !at.After(t.DueDate) {
		return 0
	}
	overdue := at.Sub(t.DueDate)
	days := int(overdue.Hours() / 24)
	if overdue%(24*time.Hour) > 0 {
		days++
	}
	return days
}
