// Package patterns accumulates per-user associations between expense
// descriptions and confirmed categories, so returning users get fast,
// personalized answers before any model is consulted.
package patterns

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/saffronlabs/saffron/internal/model"
	"github.com/saffronlabs/saffron/internal/semantic"
	"github.com/saffronlabs/saffron/internal/service"
)

const (
	// defaultMaxPerUser caps each user's history; inserting past the
	// cap evicts the oldest entry.
	defaultMaxPerUser = 100
	// merchantConfidence is reported for an exact merchant-token hit.
	merchantConfidence = 0.85
	// similarityFloor is the minimum Jaccard overlap for a historical
	// description to count as a match.
	similarityFloor = 0.7
	// maxConfidence caps the similarity-weighted vote.
	maxConfidence = 0.9
)

type entry struct {
	learnedAt     time.Time
	merchantToken string
	description   string
	category      string
}

// Learner is a bounded per-user pattern store. All methods are safe
// for concurrent use; writes for the same key are last-writer-wins.
type Learner struct {
	users      map[string][]entry
	storage    service.Storage
	loaded     map[string]bool
	maxPerUser int
	mu         sync.RWMutex
}

// Option adjusts learner construction.
type Option func(*Learner)

// WithMaxPerUser overrides the per-user entry cap.
func WithMaxPerUser(max int) Option {
	return func(l *Learner) {
		if max > 0 {
			l.maxPerUser = max
		}
	}
}

// WithStorage persists learned patterns so they survive restarts.
// Persistence is best-effort: storage failures are logged, never
// surfaced to the classification path.
func WithStorage(storage service.Storage) Option {
	return func(l *Learner) { l.storage = storage }
}

// NewLearner creates an empty learner.
func NewLearner(opts ...Option) *Learner {
	l := &Learner{
		users:      make(map[string][]entry),
		loaded:     make(map[string]bool),
		maxPerUser: defaultMaxPerUser,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// merchantToken extracts the first significant token of a description.
func merchantToken(description string) string {
	tokens := semantic.Tokenize(description)
	if len(tokens) == 0 {
		return ""
	}
	return tokens[0]
}

// jaccard computes token-set overlap between two descriptions.
func jaccard(a, b string) float64 {
	setA := make(map[string]struct{})
	for _, tok := range semantic.Tokenize(a) {
		setA[tok] = struct{}{}
	}
	setB := make(map[string]struct{})
	for _, tok := range semantic.Tokenize(b) {
		setB[tok] = struct{}{}
	}
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

// Lookup consults the user's learned patterns. The merchant-token map
// is checked first; failing that, historical descriptions vote by
// similarity weight. ok=false means no usable pattern exists.
func (l *Learner) Lookup(ctx context.Context, description, userID string) (model.ClassificationResult, bool) {
	if userID == "" {
		return model.ClassificationResult{}, false
	}
	l.ensureLoaded(ctx, userID)

	l.mu.RLock()
	defer l.mu.RUnlock()

	entries := l.users[userID]
	if len(entries) == 0 {
		return model.ClassificationResult{}, false
	}

	normalized := semanticNormalize(description)

	// Merchant token first: exact hits are high-precision. The newest
	// entry wins so corrections take effect immediately.
	if token := merchantToken(normalized); token != "" {
		for i := len(entries) - 1; i >= 0; i-- {
			if entries[i].merchantToken == token {
				return model.ClassificationResult{
					Category:   entries[i].category,
					Confidence: merchantConfidence,
					Method:     model.MethodPattern,
					Reasoning:  fmt.Sprintf("learned merchant %q from past expenses", token),
				}, true
			}
		}
	}

	// Fall back to a similarity-weighted vote over the history.
	votes := make(map[string]float64)
	matches := 0
	for _, e := range entries {
		if sim := jaccard(normalized, e.description); sim >= similarityFloor {
			votes[e.category] += sim
			matches++
		}
	}
	if matches == 0 {
		return model.ClassificationResult{}, false
	}

	bestCategory := ""
	bestVote := 0.0
	for category, vote := range votes {
		if vote > bestVote || (vote == bestVote && category < bestCategory) {
			bestCategory = category
			bestVote = vote
		}
	}

	confidence := bestVote
	if confidence > maxConfidence {
		confidence = maxConfidence
	}

	return model.ClassificationResult{
		Category:   bestCategory,
		Confidence: confidence,
		Method:     model.MethodPattern,
		Reasoning:  fmt.Sprintf("based on %d similar past expenses", matches),
	}, true
}

// Learn records a confirmed (description, category) association for
// the user. Oldest entries are evicted FIFO past the cap.
func (l *Learner) Learn(ctx context.Context, description, category, userID string) {
	if userID == "" || category == "" {
		return
	}
	normalized := semanticNormalize(description)
	if normalized == "" {
		return
	}
	l.ensureLoaded(ctx, userID)

	e := entry{
		merchantToken: merchantToken(normalized),
		description:   normalized,
		category:      category,
		learnedAt:     time.Now(),
	}

	l.mu.Lock()
	entries := append(l.users[userID], e)
	if len(entries) > l.maxPerUser {
		entries = entries[len(entries)-l.maxPerUser:]
	}
	l.users[userID] = entries
	l.mu.Unlock()

	if l.storage != nil {
		pattern := service.UserPattern{
			UserID:        userID,
			MerchantToken: e.merchantToken,
			Description:   normalized,
			Category:      category,
			LearnedAt:     e.learnedAt,
		}
		if err := l.storage.SaveUserPattern(ctx, pattern); err != nil {
			slog.Warn("failed to persist learned pattern",
				"user_id", userID,
				"error", err)
		}
	}
}

// Forget drops everything learned for a user, in memory and in
// storage when configured.
func (l *Learner) Forget(ctx context.Context, userID string) error {
	l.mu.Lock()
	delete(l.users, userID)
	delete(l.loaded, userID)
	l.mu.Unlock()

	if l.storage != nil {
		return l.storage.DeleteUserPatterns(ctx, userID)
	}
	return nil
}

// Size returns the number of entries held for a user.
func (l *Learner) Size(userID string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.users[userID])
}

// ensureLoaded hydrates a user's history from storage exactly once.
func (l *Learner) ensureLoaded(ctx context.Context, userID string) {
	if l.storage == nil {
		return
	}
	l.mu.RLock()
	done := l.loaded[userID]
	l.mu.RUnlock()
	if done {
		return
	}

	stored, err := l.storage.GetUserPatterns(ctx, userID)
	if err != nil {
		slog.Warn("failed to load learned patterns",
			"user_id", userID,
			"error", err)
		stored = nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.loaded[userID] {
		return
	}
	l.loaded[userID] = true
	if len(l.users[userID]) > 0 {
		return
	}
	for _, p := range stored {
		l.users[userID] = append(l.users[userID], entry{
			merchantToken: p.MerchantToken,
			description:   p.Description,
			category:      p.Category,
			learnedAt:     p.LearnedAt,
		})
	}
	if len(l.users[userID]) > l.maxPerUser {
		l.users[userID] = l.users[userID][len(l.users[userID])-l.maxPerUser:]
	}
}

// semanticNormalize folds a description the same way the other
// strategies do: lowercase, collapsed whitespace.
func semanticNormalize(description string) string {
	return model.ClassificationInput{Description: description}.NormalizedDescription()
}
