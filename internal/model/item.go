package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ItemStatus is the lifecycle state of an inventory item.
type ItemStatus string

const (
	ItemAvailable   ItemStatus = "available"
	ItemLent        ItemStatus = "lent"
	ItemMaintenance ItemStatus = "maintenance"
	ItemRetired     ItemStatus = "retired"
)

// ConditionStatus describes the physical condition of an item.
type ConditionStatus string

const (
	ConditionExcellent ConditionStatus = "excellent"
	ConditionGood      ConditionStatus = "good"
	ConditionFair      ConditionStatus = "fair"
	ConditionPoor      ConditionStatus = "poor"
	ConditionDamaged   ConditionStatus = "damaged"
)

// NeedsMaintenance reports whether an item returned in this condition must
// be routed into the maintenance workflow.
func (c ConditionStatus) NeedsMaintenance() bool {
	return c == ConditionPoor || c == ConditionDamaged
}

// FieldType is the closed set of types allowed in category schemas.
type FieldType string

const (
	FieldText    FieldType = "text"
	FieldNumber  FieldType = "number"
	FieldDate    FieldType = "date"
	FieldBoolean FieldType = "boolean"
	FieldSelect  FieldType = "select"
)

// FieldDef describes one field of a category's dynamic schema.
type FieldDef struct {
	Name     string    `json:"name"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required"`
	Options  []string  `json:"options,omitempty"` // for FieldSelect
}

// Validate checks that the definition uses a known field type.
func (f FieldDef) Validate() error {
	if f.Name == "" {
		return fmt.Errorf("schema field has empty name")
	}
	switch f.Type {
	case FieldText, FieldNumber, FieldDate, FieldBoolean:
		return nil
	case FieldSelect:
		if len(f.Options) == 0 {
			return fmt.Errorf("schema field %q is a select with no options", f.Name)
		}
		return nil
	}
	return fmt.Errorf("schema field %q has unknown type %q", f.Name, f.Type)
}

// Schema is a typed list of field definitions stored as a JSON column.
type Schema []FieldDef

// Scan implements sql.Scanner.
func (s *Schema) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported schema column type %T", value)
	}
	return json.Unmarshal(raw, s)
}

// Value implements driver.Valuer.
func (s Schema) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	return string(b), err
}

// Category groups items and carries the dynamic schema their details must
// satisfy.
type Category struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;size:128;not null" json:"name"`
	Description string    `gorm:"size:512" json:"description"`
	Schema      Schema    `gorm:"type:text" json:"schema"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Details holds per-item values for the category schema fields.
type Details map[string]any

// Scan implements sql.Scanner.
func (d *Details) Scan(value interface{}) error {
	if value == nil {
		*d = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported details column type %T", value)
	}
	return json.Unmarshal(raw, d)
}

// Value implements driver.Valuer.
func (d Details) Value() (driver.Value, error) {
	if d == nil {
		return "{}", nil
	}
	b, err := json.Marshal(d)
	return string(b), err
}

// Item represents a single tracked inventory item.
type Item struct {
	ID              int64           `gorm:"primaryKey" json:"id"`
	InventoryNumber string          `gorm:"uniqueIndex;size:64;not null" json:"inventory_number"`
	Name            string          `gorm:"size:256;not null" json:"name"`
	CategoryID      int64           `gorm:"index;not null" json:"category_id"`
	Status          ItemStatus      `gorm:"size:32;not null;default:'available';index" json:"status"`
	ConditionStatus ConditionStatus `gorm:"size:32;not null;default:'good'" json:"condition_status"`
	CurrentHolderID *int64          `gorm:"index" json:"current_holder_id"`
	Vendor          string          `gorm:"size:256" json:"vendor"`
	Location        string          `gorm:"size:256" json:"location"`
	PurchaseValue   float64         `json:"purchase_value"`
	CurrentValue    float64         `json:"current_value"`
	WarrantyStart   *time.Time      `json:"warranty_start"`
	WarrantyEnd     *time.Time      `json:"warranty_end"`
	Details         Details         `gorm:"type:text" json:"details"`
	IsActive        bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `gorm:"index" json:"-"`

	// Associations
	Category      Category `gorm:"constraint:OnDelete:RESTRICT" json:"category,omitempty"`
	CurrentHolder *User    `gorm:"foreignKey:CurrentHolderID" json:"current_holder,omitempty"`
}

// ValidateDetails checks the item's details against the category schema.
func ValidateDetails(schema Schema, details Details) error {
	for _, field := range schema {
		v, ok := details[field.Name]
		if !ok || v == nil {
			if field.Required {
				return fmt.Errorf("missing required field %q", field.Name)
			}
			continue
		}
		if err := validateFieldValue(field, v); err != nil {
			return err
		}
	}
	return nil
}

func validateFieldValue(field FieldDef, v any) error {
	switch field.Type {
	case FieldText:
		if _, ok := v.(string); !ok {
			return fmt.Errorf("field %q must be text", field.Name)
		}
	case FieldNumber:
		switch v.(type) {
		case float64, int, int64:
		default:
			return fmt.Errorf("field %q must be a number", field.Name)
		}
	case FieldDate:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("field %q must be a date string", field.Name)
		}
		if _, err := time.Parse("2006-01-02", s); err != nil {
			return fmt.Errorf("field %q must be a YYYY-MM-DD date: %v", field.Name, err)
		}
	case FieldBoolean:
		if _, ok := v.(bool); !ok {
			return fmt.Errorf("field %q must be a boolean", field.Name)
		}
	case FieldSelect:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("field %q must be one of its options", field.Name)
		}
		for _, opt := range field.Options {
			if s == opt {
				return nil
			}
		}
		return fmt.Errorf("field %q must be one of %v", field.Name, field.Options)
	}
	return nil
}
