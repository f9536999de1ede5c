// Package semantic implements vector-space similarity matching between
// expense descriptions and the taxonomy's keyword corpus.
package semantic

import (
	"math"
	"strings"
	"unicode"
)

// stopwords excluded from vectorization. Short function words carry no
// category signal and inflate similarity between unrelated texts.
var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "from": {}, "that": {},
	"this": {}, "was": {}, "are": {}, "you": {}, "your": {}, "has": {},
	"have": {}, "not": {}, "but": {}, "its": {}, "our": {}, "out": {},
}

// Tokenize splits text into lowercase alphanumeric terms, dropping
// stopwords and one-character fragments.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		if len(field) < 2 {
			continue
		}
		if _, skip := stopwords[field]; skip {
			continue
		}
		tokens = append(tokens, field)
	}
	return tokens
}

// Vectorizer converts texts into L2-normalized TF-IDF vectors. It is
// fitted once over a fixed corpus; Transform afterwards is cheap and
// read-only, so concurrent use is safe.
type Vectorizer struct {
	vocabulary map[string]int
	idf        []float64
}

// Fit builds the vocabulary and inverse document frequencies from the
// corpus. Smoothed IDF keeps unseen-term weights finite.
func Fit(corpus []string) *Vectorizer {
	v := &Vectorizer{vocabulary: make(map[string]int)}

	docFreq := make(map[string]int)
	for _, doc := range corpus {
		seen := make(map[string]struct{})
		for _, term := range Tokenize(doc) {
			if _, ok := v.vocabulary[term]; !ok {
				v.vocabulary[term] = len(v.vocabulary)
			}
			if _, dup := seen[term]; !dup {
				seen[term] = struct{}{}
				docFreq[term]++
			}
		}
	}

	n := float64(len(corpus))
	v.idf = make([]float64, len(v.vocabulary))
	for term, idx := range v.vocabulary {
		v.idf[idx] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}

	return v
}

// Transform converts text into a sparse TF-IDF vector over the fitted
// vocabulary. Out-of-vocabulary terms are ignored.
func (v *Vectorizer) Transform(text string) map[int]float64 {
	counts := make(map[int]float64)
	for _, term := range Tokenize(text) {
		if idx, ok := v.vocabulary[term]; ok {
			counts[idx]++
		}
	}

	var norm float64
	for idx, tf := range counts {
		w := tf * v.idf[idx]
		counts[idx] = w
		norm += w * w
	}
	if norm == 0 {
		return counts
	}
	norm = math.Sqrt(norm)
	for idx := range counts {
		counts[idx] /= norm
	}
	return counts
}

// CosineSimilarity computes the cosine of two sparse vectors. Both are
// already L2-normalized, so this is a sparse dot product.
func CosineSimilarity(a, b map[int]float64) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var dot float64
	for idx, wa := range a {
		if wb, ok := b[idx]; ok {
			dot += wa * wb
		}
	}
	return dot
}

// VocabularySize returns the number of distinct terms learned.
func (v *Vectorizer) VocabularySize() int {
	return len(v.vocabulary)
}
