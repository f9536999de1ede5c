package semantic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saffronlabs/saffron/internal/model"
	"github.com/saffronlabs/saffron/internal/taxonomy"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "lowercases and splits on punctuation",
			text: "Starbucks, Coffee-Shop!",
			want: []string{"starbucks", "coffee", "shop"},
		},
		{
			name: "drops stopwords and single chars",
			text: "lunch at the cafe with a friend",
			want: []string{"lunch", "at", "cafe", "friend"},
		},
		{
			name: "keeps digits",
			text: "store 4521",
			want: []string{"store", "4521"},
		},
		{
			name: "empty input",
			text: "   ",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.text))
		})
	}
}

func TestVectorizerTransform(t *testing.T) {
	v := Fit([]string{"coffee shop", "gas station", "coffee beans"})

	t.Run("known terms produce a normalized vector", func(t *testing.T) {
		vec := v.Transform("coffee shop")
		require.NotEmpty(t, vec)

		var norm float64
		for _, w := range vec {
			norm += w * w
		}
		assert.InDelta(t, 1.0, norm, 0.001)
	})

	t.Run("rare terms outweigh common terms", func(t *testing.T) {
		// "shop" appears in one corpus document, "coffee" in two; IDF
		// must weight "shop" higher inside the combined vector.
		vec := v.Transform("coffee shop")
		coffeeVec := v.Transform("coffee")
		shopVec := v.Transform("shop")
		require.NotEmpty(t, coffeeVec)
		require.NotEmpty(t, shopVec)
		assert.Greater(t, CosineSimilarity(vec, shopVec), CosineSimilarity(vec, coffeeVec))
	})

	t.Run("out of vocabulary terms are ignored", func(t *testing.T) {
		vec := v.Transform("zzqx")
		assert.Empty(t, vec)
	})
}

func TestCosineSimilarity(t *testing.T) {
	v := Fit([]string{"coffee", "gasoline"})

	a := v.Transform("coffee")
	b := v.Transform("coffee")
	c := v.Transform("gasoline")

	assert.InDelta(t, 1.0, CosineSimilarity(a, b), 0.001)
	assert.InDelta(t, 0.0, CosineSimilarity(a, c), 0.001)
}

func TestMatcherFindsCategory(t *testing.T) {
	m := NewMatcher(taxonomy.Default())

	tests := []struct {
		description string
		want        string
	}{
		{"morning coffee", "Food & Dining"},
		{"pharmacy prescription", "Healthcare"},
		{"hotel booking", "Travel"},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			result, ok := m.Match(tt.description)
			require.True(t, ok)
			assert.Equal(t, tt.want, result.Category)
			assert.Equal(t, model.MethodSemantic, result.Method)
			assert.Greater(t, result.Confidence, 0.0)
			assert.LessOrEqual(t, result.Confidence, 0.8)
		})
	}
}

func TestMatcherReportsNoMatch(t *testing.T) {
	m := NewMatcher(taxonomy.Default())

	_, ok := m.Match("zzqx wvut qqq")
	assert.False(t, ok)

	_, ok = m.Match("")
	assert.False(t, ok)
}

func TestMatcherThresholdConfigurable(t *testing.T) {
	strict := NewMatcher(taxonomy.Default(), WithMinSimilarity(0.99))

	// A split-signal description clears the default floor but must
	// fail the strict one.
	loose := NewMatcher(taxonomy.Default())
	_, ok := loose.Match("grabbed coffee near the gas pump")
	assert.True(t, ok)

	_, ok = strict.Match("grabbed coffee near the gas pump")
	assert.False(t, ok)
}

func TestMatcherConfidenceCapped(t *testing.T) {
	m := NewMatcher(taxonomy.Default())

	// Exact keyword hit: similarity 1.0, boosted then capped at 0.8.
	result, ok := m.Match("netflix")
	require.True(t, ok)
	assert.Equal(t, "Entertainment", result.Category)
	assert.InDelta(t, 0.8, result.Confidence, 0.001)
}

func TestMatcherDeterministic(t *testing.T) {
	m := NewMatcher(taxonomy.Default())

	first, ok1 := m.Match("uber ride to airport")
	second, ok2 := m.Match("uber ride to airport")

	require.True(t, ok1)
	require.True(t, ok2)
	assert.Equal(t, first.Category, second.Category)
	assert.Equal(t, first.Confidence, second.Confidence)
}
