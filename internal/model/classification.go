// Package model defines the core domain models used throughout the application.
package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strings"
)

// Method indicates which strategy produced the final classification.
type Method string

// Classification method constants, in pipeline priority order.
const (
	MethodLocalML  Method = "local_ml"
	MethodRemoteML Method = "remote_ml"
	MethodPattern  Method = "pattern_learned"
	MethodSemantic Method = "semantic_similarity"
	MethodRule     Method = "rule_based"
	MethodDefault  Method = "default"
)

// Valid reports whether m is one of the known methods.
func (m Method) Valid() bool {
	switch m {
	case MethodLocalML, MethodRemoteML, MethodPattern, MethodSemantic, MethodRule, MethodDefault:
		return true
	}
	return false
}

// ClassificationInput is what callers hand to the engine.
type ClassificationInput struct {
	// Description is the free-text expense description. Blank input
	// (after trimming) short-circuits to the default result.
	Description string
	// Amount is an optional secondary signal; nil means unknown.
	Amount *float64
	// UserID enables pattern learning and per-user caching when set.
	UserID string
}

// NormalizedDescription returns the description lowercased with
// collapsed whitespace. Numbers are deliberately kept.
func (in ClassificationInput) NormalizedDescription() string {
	return strings.Join(strings.Fields(strings.ToLower(in.Description)), " ")
}

// CacheKey derives a stable digest of (normalized description, amount
// bucket, user). Anonymous callers share the "anon" partition.
func (in ClassificationInput) CacheKey() string {
	bucket := int64(-1)
	if in.Amount != nil {
		bucket = int64(math.Round(*in.Amount))
	}
	user := in.UserID
	if user == "" {
		user = "anon"
	}
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%s", in.NormalizedDescription(), bucket, user)))
	return hex.EncodeToString(sum[:])
}

// Alternative is a runner-up category with its confidence.
type Alternative struct {
	Category   string
	Confidence float64
}

// ClassificationResult is the engine's answer. Every call produces one;
// the classification path never surfaces an error to the caller.
type ClassificationResult struct {
	Category     string
	Confidence   float64
	Method       Method
	Alternatives []Alternative
	Reasoning    string
	LatencyMs    float64
	FromCache    bool
}

// Validate checks the result invariants the engine promises callers.
func (r ClassificationResult) Validate() error {
	if r.Category == "" {
		return fmt.Errorf("category is required")
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return fmt.Errorf("confidence must be in [0,1], got %.3f", r.Confidence)
	}
	if !r.Method.Valid() {
		return fmt.Errorf("unknown method %q", r.Method)
	}
	if len(r.Alternatives) > 3 {
		return fmt.Errorf("at most 3 alternatives allowed, got %d", len(r.Alternatives))
	}
	return nil
}
