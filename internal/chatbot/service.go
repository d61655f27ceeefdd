package chatbot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"asset-inventory-backend/internal/model"
)

// ErrInvalidQuery rejects queries that fail local sanitization before
// anything reaches the upstream service.
var ErrInvalidQuery = errors.New("query contains forbidden characters")

// Recorder persists the append-only analytics log.
type Recorder interface {
	RecordChatbotQuery(ctx context.Context, q *model.ChatbotQuery) error
}

// Result is the answer handed back to the API layer.
type Result struct {
	Summary     string                `json:"summary"`
	Results     []map[string]any      `json:"results"`
	ResultCount int                   `json:"result_count"`
	ColumnTypes map[string]ColumnType `json:"column_types"`
	Intent      model.QueryIntent     `json:"intent"`
	SQL         string                `json:"sql,omitempty"`
	Model       string                `json:"model,omitempty"`
	Fallback    bool                  `json:"fallback"`
}

// Service orchestrates sanitization, classification, the upstream call,
// result formatting and fallback resolution.
type Service struct {
	client   *Client
	fallback *FallbackStore
	recorder Recorder
}

// NewService wires the gateway together.
func NewService(client *Client, fallback *FallbackStore, recorder Recorder) *Service {
	return &Service{client: client, fallback: fallback, recorder: recorder}
}

// InvalidateFallbacks drops the cached fallback set after an edit.
func (s *Service) InvalidateFallbacks() {
	s.fallback.Invalidate()
}

// Ask runs one query through the gateway. On upstream failure it consults
// the fallback store; only when no fallback matches does the upstream error
// propagate. Every ask leaves an analytics row behind.
func (s *Service) Ask(ctx context.Context, p model.Principal, rawQuery string) (*Result, error) {
	query, ok := SanitizeQuery(rawQuery)
	if !ok {
		return nil, ErrInvalidQuery
	}
	intent := ClassifyIntent(query)

	record := &model.ChatbotQuery{
		UserID:        &p.UserID,
		OriginalQuery: rawQuery,
		Intent:        intent,
	}

	start := time.Now()
	resp, err := s.client.Ask(ctx, query)
	record.ExecutionTimeMs = time.Since(start).Milliseconds()

	if err != nil {
		record.ErrorMessage = truncate(err.Error(), 1000)

		if fb, found := s.fallback.Match(ctx, query); found {
			record.UsedFallback = true
			record.WasSuccessful = true
			s.persist(ctx, record)
			return &Result{
				Summary:     fb.Response,
				ResultCount: 0,
				ColumnTypes: map[string]ColumnType{},
				Intent:      intent,
				Fallback:    true,
			}, nil
		}

		s.persist(ctx, record)
		return nil, err
	}

	record.TranslatedQuery = resp.TranslatedQuery
	record.GeneratedSQL = resp.SQL
	record.ResultCount = resp.ResultCount
	record.ModelUsed = resp.Model
	record.WasSuccessful = true
	s.persist(ctx, record)

	return &Result{
		Summary:     Summarize(resp),
		Results:     resp.Results,
		ResultCount: resp.ResultCount,
		ColumnTypes: DetectColumnTypes(resp.Results),
		Intent:      intent,
		SQL:         resp.SQL,
		Model:       resp.Model,
	}, nil
}

func (s *Service) persist(ctx context.Context, record *model.ChatbotQuery) {
	// Analytics must never fail the user-facing request.
	if err := s.recorder.RecordChatbotQuery(ctx, record); err != nil {
		log.Printf("Error recording chatbot query: %v", err)
	}
}

// aggregateMarkers are column-name substrings that identify single-row
// aggregate results worth a direct-answer summary.
var aggregateMarkers = []string{"count", "sum", "avg", "average", "total", "min", "max"}

// Summarize produces the human-readable line shown above the result table.
// Single-row aggregates get their value surfaced directly.
func Summarize(resp *AskResponse) string {
	if resp.ResultCount == 0 {
		return "No matching records found."
	}
	if len(resp.Results) == 1 {
		row := resp.Results[0]
		// Map iteration order is random; sort so a row carrying several
		// marker columns always surfaces the same one.
		cols := make([]string, 0, len(row))
		for col := range row {
			cols = append(cols, col)
		}
		sort.Strings(cols)
		for _, col := range cols {
			lower := strings.ToLower(col)
			for _, marker := range aggregateMarkers {
				if strings.Contains(lower, marker) {
					return fmt.Sprintf("%s: %v", humanizeColumn(col), row[col])
				}
			}
		}
	}
	if resp.ResultCount == 1 {
		return "Found 1 matching record."
	}
	return fmt.Sprintf("Found %d matching records.", resp.ResultCount)
}

func humanizeColumn(col string) string {
	words := strings.Split(strings.ReplaceAll(col, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
