package semantic

import (
	"fmt"

	"github.com/saffronlabs/saffron/internal/model"
	"github.com/saffronlabs/saffron/internal/taxonomy"
)

const (
	// minSimilarity is the floor below which the matcher reports no
	// match instead of guessing.
	defaultMinSimilarity = 0.3
	// confidenceBoost rewards a clear vector-space hit, capped below
	// model-grade confidence.
	confidenceBoost = 1.2
	maxConfidence   = 0.8
)

// corpusEntry ties one corpus document back to its category.
type corpusEntry struct {
	text     string
	category string
	vector   map[int]float64
}

// Matcher scores descriptions by cosine similarity against a corpus
// built once from each category's keyword bag. Safe for concurrent
// use after construction.
type Matcher struct {
	vectorizer    *Vectorizer
	entries       []corpusEntry
	minSimilarity float64
}

// Option adjusts matcher construction.
type Option func(*Matcher)

// WithMinSimilarity overrides the no-match floor.
func WithMinSimilarity(min float64) Option {
	return func(m *Matcher) { m.minSimilarity = min }
}

// NewMatcher fits a vectorizer over the taxonomy's keyword corpus.
// Each keyword, merchant, and the label itself becomes one corpus
// document tagged with its category, mirroring how the categories
// were authored: short keyword bags, not prose.
func NewMatcher(tax *taxonomy.Taxonomy, opts ...Option) *Matcher {
	m := &Matcher{minSimilarity: defaultMinSimilarity}

	var corpus []string
	for _, cat := range tax.Categories() {
		if cat.CatchAll {
			// The catch-all is the no-match answer, never a match target.
			continue
		}
		docs := []string{cat.Label}
		for _, keyword := range cat.Keywords {
			docs = append(docs, keyword.Text)
		}
		docs = append(docs, cat.Merchants...)
		for _, doc := range docs {
			m.entries = append(m.entries, corpusEntry{text: doc, category: cat.Label})
			corpus = append(corpus, doc)
		}
	}

	m.vectorizer = Fit(corpus)
	for i := range m.entries {
		m.entries[i].vector = m.vectorizer.Transform(m.entries[i].text)
	}

	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Match returns the best-matching category for the description, or
// ok=false when nothing clears the similarity floor. Callers fall
// through to the next strategy on a miss.
func (m *Matcher) Match(description string) (model.ClassificationResult, bool) {
	vector := m.vectorizer.Transform(description)
	if len(vector) == 0 {
		return model.ClassificationResult{}, false
	}

	bestSim := 0.0
	bestIdx := -1
	perCategory := make(map[string]float64)
	for i, entry := range m.entries {
		sim := CosineSimilarity(vector, entry.vector)
		if sim > perCategory[entry.category] {
			perCategory[entry.category] = sim
		}
		if sim > bestSim {
			bestSim = sim
			bestIdx = i
		}
	}

	if bestIdx < 0 || bestSim < m.minSimilarity {
		return model.ClassificationResult{}, false
	}

	best := m.entries[bestIdx]
	confidence := bestSim * confidenceBoost
	if confidence > maxConfidence {
		confidence = maxConfidence
	}

	return model.ClassificationResult{
		Category:     best.category,
		Confidence:   confidence,
		Method:       model.MethodSemantic,
		Alternatives: m.alternatives(perCategory, best.category),
		Reasoning:    fmt.Sprintf("semantic similarity %.2f to %q", bestSim, best.text),
	}, true
}

func (m *Matcher) alternatives(perCategory map[string]float64, winner string) []model.Alternative {
	var ranked model.LabelScores
	for category, sim := range perCategory {
		if category == winner || sim < m.minSimilarity {
			continue
		}
		conf := sim * confidenceBoost
		if conf > maxConfidence {
			conf = maxConfidence
		}
		ranked = append(ranked, model.LabelScore{Label: category, Score: conf})
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
