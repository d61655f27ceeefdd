package chatbot

import (
	"regexp"
	"strings"

	"asset-inventory-backend/internal/model"
)

// intentPatterns is checked in order; the first match wins. General is the
// fallthrough when nothing matches.
var intentPatterns = []struct {
	intent model.QueryIntent
	re     *regexp.Regexp
}{
	{model.IntentTimeBased, regexp.MustCompile(`(?i)\b(today|yesterday|last\s+(week|month|year)|this\s+(week|month|year)|recent|since|before|after|overdue|due)\b`)},
	{model.IntentStatistical, regexp.MustCompile(`(?i)\b(how\s+many|count|total|sum|average|avg|most|least|min|max|percentage)\b`)},
	{model.IntentLocation, regexp.MustCompile(`(?i)\b(where|location|room|building|floor|lab|office)\b`)},
	{model.IntentStatus, regexp.MustCompile(`(?i)\b(status|available|lent|borrowed|maintenance|retired|broken|damaged|condition)\b`)},
	{model.IntentAssignment, regexp.MustCompile(`(?i)\b(who\s+has|assigned|holder|borrower|checked\s+out\s+(to|by)|responsible)\b`)},
}

// ClassifyIntent buckets a free-text query by keyword pattern matching.
func ClassifyIntent(query string) model.QueryIntent {
	q := strings.TrimSpace(query)
	for _, p := range intentPatterns {
		if p.re.MatchString(q) {
			return p.intent
		}
	}
	return model.IntentGeneral
}

var forbiddenChars = regexp.MustCompile(`[;<>]`)

// SanitizeQuery rejects queries carrying characters that could smuggle SQL
// or markup through the upstream service. Returns the trimmed query.
func SanitizeQuery(query string) (string, bool) {
	q := strings.TrimSpace(query)
	if q == "" {
		return "", false
	}
	if forbiddenChars.MatchString(q) {
		return "", false
	}
	return q, true
}
