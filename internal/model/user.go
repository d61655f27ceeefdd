package model

import "time"

// Role is the closed set of roles recognized by the system. Authorization
// decisions go through the capability methods below, never through raw
// string comparison in handlers.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "inventory_manager"
	RoleStaff   Role = "staff"
)

// ParseRole maps a stored role name onto the closed Role set.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleManager, RoleStaff:
		return Role(s), true
	}
	return "", false
}

// CanManageInventory reports whether the role may create, mutate and
// decommission items and see records belonging to other users.
func (r Role) CanManageInventory() bool {
	return r == RoleAdmin || r == RoleManager
}

// CanApprovePurchases reports whether the role may move purchase requests
// past the pending state.
func (r Role) CanApprovePurchases() bool {
	return r == RoleAdmin || r == RoleManager
}

// CanAssignMaintenance reports whether the role may assign and complete
// maintenance requests it does not own.
func (r Role) CanAssignMaintenance() bool {
	return r == RoleAdmin || r == RoleManager
}

// User represents an account that can authenticate and hold items.
type User struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:128;not null" json:"username"`
	FullName     string    `gorm:"size:256" json:"full_name"`
	Email        string    `gorm:"size:256" json:"email"`
	Role         Role      `gorm:"size:32;not null;default:'staff'" json:"role"`
	PasswordHash string    `gorm:"size:256;not null" json:"-"`
	PasswordSalt string    `gorm:"size:64;not null" json:"-"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Principal is the authenticated caller, threaded explicitly through every
// workflow call.
type Principal struct {
	UserID int64
	Role   Role
}

// CanActFor reports whether the principal may act on records owned by the
// given user.
func (p Principal) CanActFor(userID int64) bool {
	return p.UserID == userID || p.Role.CanManageInventory()
}
