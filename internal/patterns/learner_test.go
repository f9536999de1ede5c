package patterns

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saffronlabs/saffron/internal/model"
)

func TestLookupEmptyLearner(t *testing.T) {
	l := NewLearner()

	_, ok := l.Lookup(context.Background(), "starbucks coffee", "user1")
	assert.False(t, ok)
}

func TestLookupRequiresUser(t *testing.T) {
	l := NewLearner()
	l.Learn(context.Background(), "starbucks coffee", "Food & Dining", "user1")

	_, ok := l.Lookup(context.Background(), "starbucks coffee", "")
	assert.False(t, ok)
}

func TestMerchantTokenMatch(t *testing.T) {
	ctx := context.Background()
	l := NewLearner()
	l.Learn(ctx, "Starbucks downtown", "Food & Dining", "user1")

	// Same leading merchant token, different tail.
	result, ok := l.Lookup(ctx, "starbucks airport kiosk", "user1")

	require.True(t, ok)
	assert.Equal(t, "Food & Dining", result.Category)
	assert.Equal(t, model.MethodPattern, result.Method)
	assert.InDelta(t, 0.85, result.Confidence, 0.001)
}

func TestMerchantTokenIsolatedPerUser(t *testing.T) {
	ctx := context.Background()
	l := NewLearner()
	l.Learn(ctx, "starbucks", "Food & Dining", "user1")

	_, ok := l.Lookup(ctx, "starbucks", "user2")
	assert.False(t, ok)
}

func TestLastWriterWinsForMerchantToken(t *testing.T) {
	ctx := context.Background()
	l := NewLearner()
	l.Learn(ctx, "costco gas", "Transportation", "user1")
	l.Learn(ctx, "costco wholesale groceries", "Food & Dining", "user1")

	result, ok := l.Lookup(ctx, "costco run", "user1")

	require.True(t, ok)
	assert.Equal(t, "Food & Dining", result.Category)
}

func TestSimilarityVote(t *testing.T) {
	ctx := context.Background()
	l := NewLearner()
	l.Learn(ctx, "monthly yoga studio membership", "Healthcare", "user1")

	// Shares most tokens but not the leading merchant token.
	result, ok := l.Lookup(ctx, "yoga studio membership monthly", "user1")

	require.True(t, ok)
	assert.Equal(t, "Healthcare", result.Category)
	assert.LessOrEqual(t, result.Confidence, 0.9)
	assert.Greater(t, result.Confidence, 0.0)
}

func TestDissimilarDescriptionsDoNotMatch(t *testing.T) {
	ctx := context.Background()
	l := NewLearner()
	l.Learn(ctx, "monthly yoga studio membership", "Healthcare", "user1")

	_, ok := l.Lookup(ctx, "hardware store lumber", "user1")
	assert.False(t, ok)
}

func TestFIFOEviction(t *testing.T) {
	ctx := context.Background()
	l := NewLearner(WithMaxPerUser(5))

	for i := 0; i < 8; i++ {
		l.Learn(ctx, fmt.Sprintf("merchant%d purchase", i), "Shopping", "user1")
	}

	assert.Equal(t, 5, l.Size("user1"))

	// The oldest entries are gone; the newest survive.
	_, ok := l.Lookup(ctx, "merchant0 purchase", "user1")
	assert.False(t, ok)
	_, ok = l.Lookup(ctx, "merchant7 purchase", "user1")
	assert.True(t, ok)
}

func TestForget(t *testing.T) {
	ctx := context.Background()
	l := NewLearner()
	l.Learn(ctx, "starbucks coffee", "Food & Dining", "user1")

	require.NoError(t, l.Forget(ctx, "user1"))

	assert.Zero(t, l.Size("user1"))
	_, ok := l.Lookup(ctx, "starbucks coffee", "user1")
	assert.False(t, ok)
}

func TestConcurrentLearnAndLookup(t *testing.T) {
	ctx := context.Background()
	l := NewLearner()

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(2)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				l.Learn(ctx, fmt.Sprintf("merchant%d visit", i), "Shopping", fmt.Sprintf("user%d", w))
			}
		}(w)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				l.Lookup(ctx, fmt.Sprintf("merchant%d visit", i), fmt.Sprintf("user%d", w))
			}
		}(w)
	}
	wg.Wait()

	for w := 0; w < 4; w++ {
		assert.LessOrEqual(t, l.Size(fmt.Sprintf("user%d", w)), 100)
	}
}

func TestJaccard(t *testing.T) {
	assert.InDelta(t, 1.0, jaccard("coffee shop", "coffee shop"), 0.001)
	assert.InDelta(t, 0.0, jaccard("coffee", "gasoline"), 0.001)
	assert.InDelta(t, 2.0/3.0, jaccard("coffee shop visit", "coffee shop"), 0.001)
	assert.Zero(t, jaccard("", "coffee"))
}
