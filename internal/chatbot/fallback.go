package chatbot

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"asset-inventory-backend/internal/model"
)

const fallbackCacheKey = "fallback_responses"

// FallbackSource loads the active pre-authored responses.
type FallbackSource interface {
	ActiveFallbackResponses(ctx context.Context) ([]model.FallbackResponse, error)
}

// FallbackStore serves pre-authored canned responses when the live service
// is down, keeping a cached copy so the lookup works even when the database
// read fails mid-incident.
type FallbackStore struct {
	source FallbackSource
	cache  *cache.Cache
	ttl    time.Duration
}

// NewFallbackStore creates a store backed by the given source.
func NewFallbackStore(source FallbackSource, ttl time.Duration) *FallbackStore {
	return &FallbackStore{
		source: source,
		cache:  cache.New(ttl, 2*ttl),
		ttl:    ttl,
	}
}

// Match finds the best fallback for the query by keyword overlap. The
// second return is false when no candidate matches at all.
func (f *FallbackStore) Match(ctx context.Context, query string) (*model.FallbackResponse, bool) {
	responses := f.load(ctx)
	if len(responses) == 0 {
		return nil, false
	}

	queryTerms := tokenize(query)
	var best *model.FallbackResponse
	bestScore := 0
	for i := range responses {
		score := overlap(queryTerms, tokenize(responses[i].Keywords))
		if score > bestScore {
			bestScore = score
			best = &responses[i]
		}
	}
	if best == nil {
		return nil, false
	}
	return best, true
}

func (f *FallbackStore) load(ctx context.Context) []model.FallbackResponse {
	if cached, found := f.cache.Get(fallbackCacheKey); found {
		return cached.([]model.FallbackResponse)
	}
	responses, err := f.source.ActiveFallbackResponses(ctx)
	if err != nil {
		log.Printf("Warning: could not load fallback responses: %v", err)
		return nil
	}
	f.cache.Set(fallbackCacheKey, responses, f.ttl)
	return responses
}

// Invalidate drops the cached copy, for use after authoring changes.
func (f *FallbackStore) Invalidate() {
	f.cache.Delete(fallbackCacheKey)
}

func tokenize(s string) map[string]bool {
	terms := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(s)) {
		w = strings.Trim(w, ".,?!\"'")
		if len(w) > 2 { // skip stopword-sized tokens
			terms[w] = true
		}
	}
	return terms
}

func overlap(a, b map[string]bool) int {
	n := 0
	for w := range a {
		if b[w] {
			n++
		}
	}
	return n
}
