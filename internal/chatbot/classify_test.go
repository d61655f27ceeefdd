package chatbot

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"asset-inventory-backend/internal/model"
)

func TestClassifyIntent(t *testing.T) {
	tests := []struct {
		query string
		want  model.QueryIntent
	}{
		{"which items are overdue", model.IntentTimeBased},
		{"what was checked out last week", model.IntentTimeBased},
		{"how many laptops do we have", model.IntentStatistical},
		{"total value of all projectors", model.IntentStatistical},
		{"where is the 3D printer", model.IntentLocation},
		{"items in room 204", model.IntentLocation},
		{"which items are in maintenance", model.IntentStatus},
		{"list damaged equipment", model.IntentStatus},
		{"who has the conference camera", model.IntentAssignment},
		{"items assigned to facilities", model.IntentAssignment},
		{"tell me about the inventory", model.IntentGeneral},
		{"", model.IntentGeneral},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyIntent(tt.query), "query: %q", tt.query)
	}
}

func TestClassifyIntent_FirstMatchWins(t *testing.T) {
	// Mentions both a time phrase and a statistic; time_based is checked
	// first and takes precedence.
	assert.Equal(t, model.IntentTimeBased, ClassifyIntent("how many items were returned yesterday"))
}

func TestSanitizeQuery(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"  where is my laptop  ", "where is my laptop", true},
		{"", "", false},
		{"   ", "", false},
		{"drop table; no thanks", "", false},
		{"<script>alert(1)</script>", "", false},
		{"count > 5", "", false},
		{"what's available?", "what's available?", true},
	}
	for _, tt := range tests {
		got, ok := SanitizeQuery(tt.in)
		assert.Equal(t, tt.wantOK, ok, "query: %q", tt.in)
		assert.Equal(t, tt.want, got, "query: %q", tt.in)
	}
}
