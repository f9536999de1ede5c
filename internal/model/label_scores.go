package model

import (
	"fmt"
	"sort"
)

// LabelScore is a single (category label, score) pair produced by a
// zero-shot classification strategy.
type LabelScore struct {
	Label string
	Score float64
}

// Validate ensures the LabelScore has valid data.
func (s *LabelScore) Validate() error {
	if s.Label == "" {
		return fmt.Errorf("label is required")
	}
	if s.Score < 0.0 || s.Score > 1.0 {
		return fmt.Errorf("score must be between 0.0 and 1.0, got %.2f", s.Score)
	}
	return nil
}

// LabelScores is a ranked list of label scores with sorting and
// utility methods.
type LabelScores []LabelScore

// Len implements sort.Interface.
func (s LabelScores) Len() int { return len(s) }

// Less implements sort.Interface - higher scores come first.
func (s LabelScores) Less(i, j int) bool {
	if s[i].Score != s[j].Score {
		return s[i].Score > s[j].Score
	}
	// Equal scores sort by label for determinism.
	return s[i].Label < s[j].Label
}

// Swap implements sort.Interface.
func (s LabelScores) Swap(i, j int) { s[i], s[j] = s[j], s[i] }

// Sort orders the scores descending.
func (s LabelScores) Sort() { sort.Sort(s) }

// Top returns the highest-scoring label, or nil if empty.
func (s LabelScores) Top() *LabelScore {
	if len(s) == 0 {
		return nil
	}
	s.Sort()
	return &s[0]
}

// TopN returns the N highest-scoring labels.
func (s LabelScores) TopN(n int) LabelScores {
	if n <= 0 {
		return LabelScores{}
	}
	s.Sort()
	if n > len(s) {
		n = len(s)
	}
	out := make(LabelScores, n)
	copy(out, s[:n])
	return out
}

// Alternatives converts the runners-up (everything after the top
// entry) into at most max Alternative values.
func (s LabelScores) Alternatives(max int) []Alternative {
	s.Sort()
	if len(s) <= 1 {
		return nil
	}
	rest := s[1:]
	if max > 0 && len(rest) > max {
		rest = rest[:max]
	}
	alts := make([]Alternative, len(rest))
	for i, ls := range rest {
		alts[i] = Alternative{Category: ls.Label, Confidence: ls.Score}
	}
	return alts
}

// Validate ensures all entries are valid and labels are unique.
func (s LabelScores) Validate() error {
	seen := make(map[string]bool)
	for i, ls := range s {
		if err := ls.Validate(); err != nil {
			return fmt.Errorf("invalid score at index %d: %w", i, err)
		}
		if seen[ls.Label] {
			return fmt.Errorf("duplicate label %q in scores", ls.Label)
		}
		seen[ls.Label] = true
	}
	return nil
}
