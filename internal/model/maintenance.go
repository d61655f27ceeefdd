package model

import "time"

// MaintenanceType classifies what kind of work a request needs.
type MaintenanceType string

const (
	MaintenanceHardwareFailure       MaintenanceType = "hardware_failure"
	MaintenanceSoftwareIssue         MaintenanceType = "software_issue"
	MaintenanceRoutineCleaning       MaintenanceType = "routine_cleaning"
	MaintenanceConsumableReplacement MaintenanceType = "consumable_replacement"
)

// ValidMaintenanceType reports whether s is in the closed type set.
func ValidMaintenanceType(s string) bool {
	switch MaintenanceType(s) {
	case MaintenanceHardwareFailure, MaintenanceSoftwareIssue,
		MaintenanceRoutineCleaning, MaintenanceConsumableReplacement:
		return true
	}
	return false
}

// MaintenancePriority orders requests for triage and sets SLA targets.
type MaintenancePriority string

const (
	PriorityLow    MaintenancePriority = "low"
	PriorityMedium MaintenancePriority = "medium"
	PriorityHigh   MaintenancePriority = "high"
	PriorityUrgent MaintenancePriority = "urgent"
)

// ValidMaintenancePriority reports whether s is in the closed priority set.
func ValidMaintenancePriority(s string) bool {
	switch MaintenancePriority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// MaintenanceStatus is the lifecycle state of a maintenance request.
type MaintenanceStatus string

const (
	MaintenancePending    MaintenanceStatus = "pending"
	MaintenanceInProgress MaintenanceStatus = "in_progress"
	MaintenanceCompleted  MaintenanceStatus = "completed"
	MaintenanceCancelled  MaintenanceStatus = "cancelled"
)

// Terminal reports whether no further transitions are allowed.
func (s MaintenanceStatus) Terminal() bool {
	return s == MaintenanceCompleted || s == MaintenanceCancelled
}

// MaintenanceRequest tracks repair or upkeep work on an item. Created
// manually, or automatically when an item comes back from a loan in poor or
// damaged condition.
type MaintenanceRequest struct {
	ID              int64               `gorm:"primaryKey" json:"id"`
	ItemID          int64               `gorm:"index;not null" json:"item_id"`
	RequestedByID   int64               `gorm:"index;not null" json:"requested_by_id"`
	AssignedToID    *int64              `gorm:"index" json:"assigned_to_id"`
	MaintenanceType MaintenanceType     `gorm:"size:64;not null" json:"maintenance_type"`
	Priority        MaintenancePriority `gorm:"size:32;not null;default:'medium'" json:"priority"`
	Status          MaintenanceStatus   `gorm:"size:32;not null;default:'pending';index" json:"status"`
	Description     string              `gorm:"size:1024" json:"description"`
	AutoCreated     bool                `gorm:"not null;default:false" json:"auto_created"`
	TransactionID   *int64              `gorm:"index" json:"transaction_id"`

	// SLA timestamps
	SLATarget       *time.Time `json:"sla_target"`
	FirstResponseAt *time.Time `json:"first_response_at"`
	ResolvedAt      *time.Time `json:"resolved_at"`

	CompletedDate   *time.Time `json:"completed_date"`
	ResolutionNotes string     `gorm:"size:1024" json:"resolution_notes"`
	Cost            float64    `gorm:"not null;default:0" json:"cost"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	// Associations
	Item        Item  `gorm:"constraint:OnDelete:RESTRICT" json:"item,omitempty"`
	RequestedBy User  `gorm:"foreignKey:RequestedByID" json:"requested_by,omitempty"`
	AssignedTo  *User `gorm:"foreignKey:AssignedToID" json:"assigned_to,omitempty"`
}
