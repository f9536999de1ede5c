// Package rules implements the deterministic keyword scorer, the
// guaranteed fallback stage of the classification pipeline.
package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/saffronlabs/saffron/internal/model"
	"github.com/saffronlabs/saffron/internal/taxonomy"
)

// Scoring constants. Keyword weights come from the keyword tiers;
// these cover the other signal types.
const (
	patternBonus  = 3.0
	merchantBonus = 2.0
	amountBonus   = 1.0

	// confidenceDivisor normalizes a raw score into [0,1].
	confidenceDivisor = 5.0
	// maxConfidence caps rule-based confidence; keyword matches are
	// never as trustworthy as a model or learned pattern.
	maxConfidence = 0.7
	// defaultConfidence is reported when nothing matched at all.
	defaultConfidence = 0.1
)

// Scorer scores descriptions against the taxonomy. It is stateless
// per call, performs no I/O, and never fails.
type Scorer struct {
	taxonomy *taxonomy.Taxonomy
	compiled map[string][]*regexp.Regexp
}

// NewScorer builds a scorer with the taxonomy's regex patterns
// pre-compiled. Patterns are validated at taxonomy construction, so
// compilation here cannot fail.
func NewScorer(tax *taxonomy.Taxonomy) *Scorer {
	s := &Scorer{
		taxonomy: tax,
		compiled: make(map[string][]*regexp.Regexp),
	}
	for _, cat := range tax.Categories() {
		for _, pattern := range cat.Patterns {
			s.compiled[cat.Key] = append(s.compiled[cat.Key], regexp.MustCompile(pattern))
		}
	}
	return s
}

// Score returns the raw per-category totals for a normalized
// description. Exposed separately from Classify for testability.
func (s *Scorer) Score(normalized string, amount *float64) map[string]float64 {
	scores := make(map[string]float64, s.taxonomy.Len())

	for _, cat := range s.taxonomy.Categories() {
		var total float64

		for _, keyword := range cat.Keywords {
			if strings.Contains(normalized, keyword.Text) {
				total += keyword.Tier.Weight()
			}
		}

		for _, re := range s.compiled[cat.Key] {
			if re.MatchString(normalized) {
				total += patternBonus
			}
		}

		for _, merchant := range cat.Merchants {
			if strings.Contains(normalized, merchant) {
				total += merchantBonus
			}
		}

		if amount != nil {
			for _, r := range cat.AmountRanges {
				if r.Contains(*amount) {
					total += amountBonus
				}
			}
		}

		scores[cat.Key] = total
	}

	return scores
}

// Classify scores the input and picks the argmax category. Ties break
// toward the earlier-declared category; a non-positive maximum falls
// back to the catch-all with method default.
func (s *Scorer) Classify(input model.ClassificationInput) model.ClassificationResult {
	normalized := input.NormalizedDescription()
	scores := s.Score(normalized, input.Amount)

	var best model.Category
	bestScore := 0.0
	found := false
	for _, cat := range s.taxonomy.Categories() {
		if scores[cat.Key] > bestScore {
			best = cat
			bestScore = scores[cat.Key]
			found = true
		}
	}

	if !found {
		return model.ClassificationResult{
			Category:   s.taxonomy.CatchAll().Label,
			Confidence: defaultConfidence,
			Method:     model.MethodDefault,
			Reasoning:  "no keyword patterns matched, defaulted to catch-all",
		}
	}

	confidence := bestScore / confidenceDivisor
	if confidence > maxConfidence {
		confidence = maxConfidence
	}

	return model.ClassificationResult{
		Category:     best.Label,
		Confidence:   confidence,
		Method:       model.MethodRule,
		Alternatives: s.alternatives(scores, best.Key),
		Reasoning:    fmt.Sprintf("keyword match on %q with score %.1f", best.Label, bestScore),
	}
}

// alternatives collects the next-best positively scoring categories.
func (s *Scorer) alternatives(scores map[string]float64, winnerKey string) []model.Alternative {
	var ranked model.LabelScores
	for _, cat := range s.taxonomy.Categories() {
		if cat.Key == winnerKey || scores[cat.Key] <= 0 {
			continue
		}
		conf := scores[cat.Key] / confidenceDivisor
		if conf > maxConfidence {
			conf = maxConfidence
		}
		ranked = append(ranked, model.LabelScore{Label: cat.Label, Score: conf})
	}
	ranked.Sort()
	if len(ranked) > 2 {
		ranked = ranked[:2]
	}
	alts := make([]model.Alternative, len(ranked))
	for i, ls := range ranked {
		alts[i] = model.Alternative{Category: ls.Label, Confidence: ls.Score}
	}
	return alts
}
