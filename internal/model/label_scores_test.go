package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabelScoresSort(t *testing.T) {
	scores := LabelScores{
		{Label: "Shopping", Score: 0.2},
		{Label: "Transportation", Score: 0.9},
		{Label: "Food & Dining", Score: 0.5},
	}

	scores.Sort()

	assert.Equal(t, "Transportation", scores[0].Label)
	assert.Equal(t, "Food & Dining", scores[1].Label)
	assert.Equal(t, "Shopping", scores[2].Label)
}

func TestLabelScoresSortStableOnTies(t *testing.T) {
	scores := LabelScores{
		{Label: "Travel", Score: 0.5},
		{Label: "Business", Score: 0.5},
	}

	scores.Sort()

	// Equal scores fall back to label order for determinism.
	assert.Equal(t, "Business", scores[0].Label)
	assert.Equal(t, "Travel", scores[1].Label)
}

func TestLabelScoresTop(t *testing.T) {
	t.Run("empty returns nil", func(t *testing.T) {
		var scores LabelScores
		assert.Nil(t, scores.Top())
	})

	t.Run("returns highest", func(t *testing.T) {
		scores := LabelScores{
			{Label: "Healthcare", Score: 0.3},
			{Label: "Entertainment", Score: 0.8},
		}
		top := scores.Top()
		require.NotNil(t, top)
		assert.Equal(t, "Entertainment", top.Label)
		assert.InDelta(t, 0.8, top.Score, 0.001)
	})
}

func TestLabelScoresTopN(t *testing.T) {
	scores := LabelScores{
		{Label: "a", Score: 0.1},
		{Label: "b", Score: 0.2},
		{Label: "c", Score: 0.3},
	}

	assert.Len(t, scores.TopN(2), 2)
	assert.Equal(t, "c", scores.TopN(2)[0].Label)
	assert.Len(t, scores.TopN(10), 3)
	assert.Empty(t, scores.TopN(0))
}

func TestLabelScoresAlternatives(t *testing.T) {
	scores := LabelScores{
		{Label: "Food & Dining", Score: 0.9},
		{Label: "Shopping", Score: 0.4},
		{Label: "Travel", Score: 0.3},
		{Label: "Business", Score: 0.2},
		{Label: "Other", Score: 0.1},
	}

	alts := scores.Alternatives(3)

	require.Len(t, alts, 3)
	assert.Equal(t, "Shopping", alts[0].Category)
	assert.InDelta(t, 0.4, alts[0].Confidence, 0.001)
	assert.Equal(t, "Travel", alts[1].Category)
	assert.Equal(t, "Business", alts[2].Category)
}

func TestLabelScoresValidate(t *testing.T) {
	tests := []struct {
		name    string
		scores  LabelScores
		wantErr bool
	}{
		{
			name: "valid scores",
			scores: LabelScores{
				{Label: "Travel", Score: 0.7},
				{Label: "Other", Score: 0.1},
			},
		},
		{
			name:    "missing label",
			scores:  LabelScores{{Label: "", Score: 0.5}},
			wantErr: true,
		},
		{
			name:    "score above one",
			scores:  LabelScores{{Label: "Travel", Score: 1.5}},
			wantErr: true,
		},
		{
			name: "duplicate labels",
			scores: LabelScores{
				{Label: "Travel", Score: 0.7},
				{Label: "Travel", Score: 0.2},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.scores.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestClassificationInputCacheKey(t *testing.T) {
	amt := func(f float64) *float64 { return &f }

	t.Run("normalization folds case and whitespace", func(t *testing.T) {
		a := ClassificationInput{Description: "Starbucks  Coffee", Amount: amt(4.95)}
		b := ClassificationInput{Description: "starbucks coffee", Amount: amt(4.95)}
		assert.Equal(t, a.CacheKey(), b.CacheKey())
	})

	t.Run("amount buckets to nearest dollar", func(t *testing.T) {
		a := ClassificationInput{Description: "lunch", Amount: amt(12.2)}
		b := ClassificationInput{Description: "lunch", Amount: amt(11.8)}
		c := ClassificationInput{Description: "lunch", Amount: amt(17.0)}
		assert.Equal(t, a.CacheKey(), b.CacheKey())
		assert.NotEqual(t, a.CacheKey(), c.CacheKey())
	})

	t.Run("users get separate partitions", func(t *testing.T) {
		a := ClassificationInput{Description: "lunch", UserID: "u1"}
		b := ClassificationInput{Description: "lunch", UserID: "u2"}
		anon := ClassificationInput{Description: "lunch"}
		assert.NotEqual(t, a.CacheKey(), b.CacheKey())
		assert.NotEqual(t, a.CacheKey(), anon.CacheKey())
	})
}

func TestClassificationResultValidate(t *testing.T) {
	valid := ClassificationResult{
		Category:   "Food & Dining",
		Confidence: 0.8,
		Method:     MethodRule,
	}
	assert.NoError(t, valid.Validate())

	invalid := valid
	invalid.Method = "guesswork"
	assert.Error(t, invalid.Validate())

	invalid = valid
	invalid.Confidence = 1.2
	assert.Error(t, invalid.Validate())

	invalid = valid
	invalid.Alternatives = make([]Alternative, 4)
	assert.Error(t, invalid.Validate())
}
