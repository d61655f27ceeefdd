package model

import "time"

// QueryIntent is the keyword-derived classification of a chatbot query.
type QueryIntent string

const (
	IntentTimeBased   QueryIntent = "time_based"
	IntentStatistical QueryIntent = "statistical"
	IntentLocation    QueryIntent = "location"
	IntentStatus      QueryIntent = "status"
	IntentAssignment  QueryIntent = "assignment"
	IntentGeneral     QueryIntent = "general"
)

// ChatbotQuery is the append-only analytics log of chatbot usage.
type ChatbotQuery struct {
	ID              int64       `gorm:"primaryKey" json:"id"`
	UserID          *int64      `gorm:"index" json:"user_id"`
	OriginalQuery   string      `gorm:"size:2048;not null" json:"original_query"`
	TranslatedQuery string      `gorm:"size:2048" json:"translated_query"`
	Intent          QueryIntent `gorm:"size:32" json:"intent"`
	GeneratedSQL    string      `gorm:"size:4096" json:"generated_sql"`
	ResultCount     int         `gorm:"not null;default:0" json:"result_count"`
	ExecutionTimeMs int64       `gorm:"not null;default:0" json:"execution_time_ms"`
	WasSuccessful   bool        `gorm:"not null;default:false" json:"was_successful"`
	UsedFallback    bool        `gorm:"not null;default:false" json:"used_fallback"`
	ModelUsed       string      `gorm:"size:128" json:"model_used"`
	ErrorMessage    string      `gorm:"size:1024" json:"error_message,omitempty"`
	CreatedAt       time.Time   `gorm:"index" json:"created_at"`
}

// FallbackResponse is a pre-authored canned answer served when the live
// NLP/SQL service is unavailable.
type FallbackResponse struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Keywords  string    `gorm:"size:512;not null" json:"keywords"` // space-separated match terms
	Response  string    `gorm:"size:4096;not null" json:"response"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
