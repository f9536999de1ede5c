package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saffronlabs/saffron/internal/cache"
	"github.com/saffronlabs/saffron/internal/model"
	"github.com/saffronlabs/saffron/internal/taxonomy"
)

type mockZeroShot struct {
	err    error
	name   string
	scores model.LabelScores
	calls  atomic.Int32
}

func (m *mockZeroShot) Classify(_ context.Context, _ string, _ []string) (model.LabelScores, error) {
	m.calls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	return append(model.LabelScores{}, m.scores...), nil
}

func (m *mockZeroShot) Name() string { return m.name }

type learnRecord struct {
	description string
	category    string
	userID      string
}

type mockPatterns struct {
	result  model.ClassificationResult
	learned []learnRecord
	lookups atomic.Int32
	found   bool
	mu      sync.Mutex
}

func (m *mockPatterns) Lookup(_ context.Context, _, _ string) (model.ClassificationResult, bool) {
	m.lookups.Add(1)
	return m.result, m.found
}

func (m *mockPatterns) Learn(_ context.Context, description, category, userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.learned = append(m.learned, learnRecord{description, category, userID})
}

func (m *mockPatterns) learnCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.learned)
}

type mockSemantic struct {
	result model.ClassificationResult
	calls  atomic.Int32
	found  bool
}

func (m *mockSemantic) Match(_ string) (model.ClassificationResult, bool) {
	m.calls.Add(1)
	return m.result, m.found
}

type ruleFunc func(model.ClassificationInput) model.ClassificationResult

func (f ruleFunc) Classify(in model.ClassificationInput) model.ClassificationResult { return f(in) }

type mockRules struct {
	result model.ClassificationResult
	calls  atomic.Int32
}

func (m *mockRules) Classify(_ model.ClassificationInput) model.ClassificationResult {
	m.calls.Add(1)
	return m.result
}

func ruleResult(category string, confidence float64) model.ClassificationResult {
	return model.ClassificationResult{
		Category:   category,
		Confidence: confidence,
		Method:     model.MethodRule,
	}
}

func zeroShotScores(topLabel string, topScore float64) model.LabelScores {
	return model.LabelScores{
		{Label: topLabel, Score: topScore},
		{Label: "Other", Score: topScore / 2},
	}
}

func TestClassifyEmptyDescription(t *testing.T) {
	local := &mockZeroShot{name: "local", scores: zeroShotScores("Transportation", 0.9)}
	patterns := &mockPatterns{}
	rules := &mockRules{result: ruleResult("Shopping", 0.5)}
	e := New(taxonomy.Default(), rules, WithLocalML(local), WithPatterns(patterns))

	result := e.Classify(context.Background(), model.ClassificationInput{Description: "   ", UserID: "u1"})

	assert.Equal(t, "Other", result.Category)
	assert.Equal(t, model.MethodDefault, result.Method)
	assert.InDelta(t, 0.1, result.Confidence, 0.001)
	assert.Equal(t, int32(0), local.calls.Load(), "blank input must not reach any strategy")
	assert.Equal(t, int32(0), patterns.lookups.Load())
	assert.Equal(t, int32(0), rules.calls.Load())
}

func TestClassifyLocalShortCircuit(t *testing.T) {
	local := &mockZeroShot{name: "local", scores: zeroShotScores("Transportation", 0.9)}
	remote := &mockZeroShot{name: "remote", scores: zeroShotScores("Shopping", 0.95)}
	rules := &mockRules{result: ruleResult("Shopping", 0.5)}
	e := New(taxonomy.Default(), rules, WithLocalML(local), WithRemoteML(remote))

	result := e.Classify(context.Background(), model.ClassificationInput{Description: "uber ride"})

	assert.Equal(t, "Transportation", result.Category)
	assert.Equal(t, model.MethodLocalML, result.Method)
	assert.InDelta(t, 0.9, result.Confidence, 0.001)
	assert.Equal(t, int32(0), remote.calls.Load(), "confident local answer must skip the remote stage")
	assert.Equal(t, int32(0), rules.calls.Load())
}

func TestClassifyRemoteAfterWeakLocal(t *testing.T) {
	local := &mockZeroShot{name: "local", scores: zeroShotScores("Food & Dining", 0.4)}
	remote := &mockZeroShot{name: "remote", scores: zeroShotScores("Transportation", 0.8)}
	patterns := &mockPatterns{}
	rules := &mockRules{result: ruleResult("Shopping", 0.5)}
	e := New(taxonomy.Default(), rules,
		WithLocalML(local), WithRemoteML(remote), WithPatterns(patterns))

	result := e.Classify(context.Background(), model.ClassificationInput{Description: "uber ride", UserID: "u1"})

	assert.Equal(t, "Transportation", result.Category)
	assert.Equal(t, model.MethodRemoteML, result.Method)
	assert.Equal(t, int32(1), local.calls.Load())
	assert.Equal(t, int32(1), remote.calls.Load())
	assert.Equal(t, int32(0), patterns.lookups.Load(), "accepted remote answer must skip later stages")
}

func TestClassifyKeepsHigherConfidence(t *testing.T) {
	local := &mockZeroShot{name: "local", scores: zeroShotScores("Food & Dining", 0.55)}
	remote := &mockZeroShot{name: "remote", scores: zeroShotScores("Shopping", 0.45)}
	rules := &mockRules{result: ruleResult("Travel", 0.99)}
	e := New(taxonomy.Default(), rules, WithLocalML(local), WithRemoteML(remote))

	result := e.Classify(context.Background(), model.ClassificationInput{Description: "brunch"})

	assert.Equal(t, "Food & Dining", result.Category)
	assert.Equal(t, model.MethodLocalML, result.Method)
	assert.InDelta(t, 0.55, result.Confidence, 0.001)
	assert.Equal(t, int32(0), rules.calls.Load(), "best above rule threshold must skip rule scoring")
}

func TestClassifyEqualConfidenceFirstWins(t *testing.T) {
	local := &mockZeroShot{name: "local", scores: zeroShotScores("Food & Dining", 0.5)}
	remote := &mockZeroShot{name: "remote", scores: zeroShotScores("Shopping", 0.5)}
	rules := &mockRules{result: ruleResult("Travel", 0.1)}
	e := New(taxonomy.Default(), rules, WithLocalML(local), WithRemoteML(remote))

	result := e.Classify(context.Background(), model.ClassificationInput{Description: "brunch"})

	assert.Equal(t, "Food & Dining", result.Category)
	assert.Equal(t, model.MethodLocalML, result.Method)
}

func TestClassifyPatternStage(t *testing.T) {
	patterns := &mockPatterns{
		found: true,
		result: model.ClassificationResult{
			Category:   "Food & Dining",
			Confidence: 0.85,
			Method:     model.MethodPattern,
		},
	}
	rules := &mockRules{result: ruleResult("Shopping", 0.2)}
	e := New(taxonomy.Default(), rules, WithPatterns(patterns))

	t.Run("consulted for identified users", func(t *testing.T) {
		result := e.Classify(context.Background(), model.ClassificationInput{
			Description: "blue bottle coffee",
			UserID:      "u1",
		})

		assert.Equal(t, model.MethodPattern, result.Method)
		assert.Equal(t, "Food & Dining", result.Category)
	})

	t.Run("skipped for anonymous input", func(t *testing.T) {
		before := patterns.lookups.Load()

		result := e.Classify(context.Background(), model.ClassificationInput{
			Description: "blue bottle coffee",
		})

		assert.Equal(t, before, patterns.lookups.Load())
		assert.Equal(t, model.MethodRule, result.Method)
	})
}

func TestClassifySemanticStage(t *testing.T) {
	semantic := &mockSemantic{
		found: true,
		result: model.ClassificationResult{
			Category:   "Healthcare",
			Confidence: 0.35,
			Method:     model.MethodSemantic,
		},
	}
	rules := &mockRules{result: ruleResult("Shopping", 0.9)}
	e := New(taxonomy.Default(), rules, WithSemantic(semantic))

	result := e.Classify(context.Background(), model.ClassificationInput{Description: "walgreens pickup"})

	assert.Equal(t, model.MethodSemantic, result.Method)
	assert.Equal(t, "Healthcare", result.Category)
	assert.Equal(t, int32(0), rules.calls.Load(),
		"semantic answer at or above rule threshold must skip rule scoring")
}

func TestClassifyRulesTerminalFallback(t *testing.T) {
	local := &mockZeroShot{name: "local", err: errors.New("model not loaded")}
	remote := &mockZeroShot{name: "remote", err: errors.New("service unavailable")}
	patterns := &mockPatterns{}
	semantic := &mockSemantic{}
	rules := &mockRules{result: ruleResult("Bills & Utilities", 0.6)}
	e := New(taxonomy.Default(), rules,
		WithLocalML(local), WithRemoteML(remote),
		WithPatterns(patterns), WithSemantic(semantic))

	result := e.Classify(context.Background(), model.ClassificationInput{
		Description: "electric bill",
		UserID:      "u1",
	})

	assert.Equal(t, model.MethodRule, result.Method)
	assert.Equal(t, "Bills & Utilities", result.Category)
	assert.Equal(t, int32(1), local.calls.Load())
	assert.Equal(t, int32(1), remote.calls.Load())
	assert.Equal(t, int32(1), rules.calls.Load())
}

func TestClassifyUnknownLabelIgnored(t *testing.T) {
	local := &mockZeroShot{name: "local", scores: zeroShotScores("Cryptocurrency", 0.99)}
	rules := &mockRules{result: ruleResult("Shopping", 0.5)}
	e := New(taxonomy.Default(), rules, WithLocalML(local))

	result := e.Classify(context.Background(), model.ClassificationInput{Description: "coinbase"})

	assert.Equal(t, model.MethodRule, result.Method)
	assert.Equal(t, "Shopping", result.Category)
}

func TestClassifyCacheTransparency(t *testing.T) {
	local := &mockZeroShot{name: "local", scores: zeroShotScores("Transportation", 0.9)}
	rules := &mockRules{result: ruleResult("Shopping", 0.5)}
	c := cache.New()
	defer c.Close()
	e := New(taxonomy.Default(), rules, WithLocalML(local), WithCache(c))

	input := model.ClassificationInput{Description: "Uber Ride"}

	first := e.Classify(context.Background(), input)
	second := e.Classify(context.Background(), input)

	assert.False(t, first.FromCache)
	assert.True(t, second.FromCache)
	assert.Equal(t, first.Category, second.Category)
	assert.Equal(t, first.Confidence, second.Confidence)
	assert.Equal(t, first.Method, second.Method)
	assert.Equal(t, int32(1), local.calls.Load(), "cached input must not re-run strategies")

	stats := e.Stats()
	assert.Equal(t, int64(1), stats.CacheHits)
	assert.Equal(t, int64(1), stats.CacheMisses)
	assert.InDelta(t, 0.5, stats.CacheHitRate(), 0.001)
}

func TestClassifyDeterministicWithoutCache(t *testing.T) {
	local := &mockZeroShot{name: "local", scores: zeroShotScores("Transportation", 0.9)}
	rules := &mockRules{result: ruleResult("Shopping", 0.5)}
	e := New(taxonomy.Default(), rules, WithLocalML(local))

	input := model.ClassificationInput{Description: "uber ride"}
	first := e.Classify(context.Background(), input)

	for i := 0; i < 5; i++ {
		again := e.Classify(context.Background(), input)
		assert.Equal(t, first.Category, again.Category)
		assert.Equal(t, first.Confidence, again.Confidence)
		assert.Equal(t, first.Method, again.Method)
	}
}

func TestClassifyLearning(t *testing.T) {
	t.Run("confident result is learned", func(t *testing.T) {
		local := &mockZeroShot{name: "local", scores: zeroShotScores("Transportation", 0.9)}
		patterns := &mockPatterns{}
		e := New(taxonomy.Default(), &mockRules{result: ruleResult("Shopping", 0.5)},
			WithLocalML(local), WithPatterns(patterns))

		e.Classify(context.Background(), model.ClassificationInput{
			Description: "Uber Ride",
			UserID:      "u1",
		})

		require.Equal(t, 1, patterns.learnCount())
		assert.Equal(t, learnRecord{"uber ride", "Transportation", "u1"}, patterns.learned[0])
	})

	t.Run("low confidence is not learned", func(t *testing.T) {
		patterns := &mockPatterns{}
		e := New(taxonomy.Default(), &mockRules{result: ruleResult("Shopping", 0.2)},
			WithPatterns(patterns))

		e.Classify(context.Background(), model.ClassificationInput{
			Description: "misc",
			UserID:      "u1",
		})

		assert.Zero(t, patterns.learnCount())
	})

	t.Run("anonymous input is not learned", func(t *testing.T) {
		local := &mockZeroShot{name: "local", scores: zeroShotScores("Transportation", 0.9)}
		patterns := &mockPatterns{}
		e := New(taxonomy.Default(), &mockRules{result: ruleResult("Shopping", 0.5)},
			WithLocalML(local), WithPatterns(patterns))

		e.Classify(context.Background(), model.ClassificationInput{Description: "uber ride"})

		assert.Zero(t, patterns.learnCount())
	})
}

func TestEngineStats(t *testing.T) {
	local := &mockZeroShot{name: "local", scores: zeroShotScores("Transportation", 0.9)}
	e := New(taxonomy.Default(), &mockRules{result: ruleResult("Shopping", 0.5)},
		WithLocalML(local))

	e.Classify(context.Background(), model.ClassificationInput{Description: "uber ride"})
	e.Classify(context.Background(), model.ClassificationInput{Description: "lyft home"})
	e.Classify(context.Background(), model.ClassificationInput{Description: ""})

	stats := e.Stats()
	assert.Equal(t, int64(3), stats.Classified)
	assert.Equal(t, int64(2), stats.ByMethod[model.MethodLocalML])
	assert.Equal(t, int64(1), stats.ByMethod[model.MethodDefault])
	assert.InDelta(t, (0.9+0.9+0.1)/3, stats.AverageConfidence, 0.001)
}

func TestClassifyBatch(t *testing.T) {
	rules := ruleFunc(func(in model.ClassificationInput) model.ClassificationResult {
		return model.ClassificationResult{
			Category:   in.Description,
			Confidence: 0.4,
			Method:     model.MethodRule,
		}
	})
	e := New(taxonomy.Default(), rules)

	inputs := make([]model.ClassificationInput, 20)
	for i := range inputs {
		inputs[i] = model.ClassificationInput{Description: fmt.Sprintf("merchant %d", i)}
	}

	var progressCalls atomic.Int32
	results := e.ClassifyBatch(context.Background(), inputs, 4, func(int) {
		progressCalls.Add(1)
	})

	require.Len(t, results, 20)
	for i, result := range results {
		assert.Equal(t, fmt.Sprintf("merchant %d", i), result.Category, "results must preserve input order")
	}
	assert.Equal(t, int32(20), progressCalls.Load())
}
