// Package engine orchestrates the classification strategies: cached
// results first, then machine learning backends, learned patterns,
// semantic similarity, and finally rule scoring. Later stages only
// run while the running best answer stays below their thresholds,
// and a candidate replaces the best answer only on strictly greater
// confidence.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/saffronlabs/saffron/internal/model"
	"github.com/saffronlabs/saffron/internal/taxonomy"
)

const defaultConfidence = 0.1

// Thresholds controls stage short-circuiting and learning. All values
// are confidences in [0, 1].
type Thresholds struct {
	// AcceptLocal stops the pipeline after the local stage when its
	// confidence exceeds this.
	AcceptLocal float64
	// AcceptRemote stops the pipeline after the remote stage when its
	// confidence exceeds this.
	AcceptRemote float64
	// TryPatterns consults learned patterns while the best confidence
	// is below this.
	TryPatterns float64
	// TrySemantic consults semantic similarity while the best
	// confidence is below this.
	TrySemantic float64
	// TryRules runs rule scoring while the best confidence is below
	// this.
	TryRules float64
	// LearnMinimum is the confidence a result must exceed before it is
	// recorded as a user pattern.
	LearnMinimum float64
}

// DefaultThresholds returns the stock stage thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		AcceptLocal:  0.6,
		AcceptRemote: 0.6,
		TryPatterns:  0.5,
		TrySemantic:  0.4,
		TryRules:     0.3,
		LearnMinimum: 0.5,
	}
}

// Engine runs the classification pipeline. The rule classifier is the
// only mandatory strategy; every other stage is optional and its
// absence simply skips the stage. The engine itself holds no locks:
// concurrency is handled inside the cache and the pattern learner.
type Engine struct {
	tax        *taxonomy.Taxonomy
	rules      RuleClassifier
	localML    ZeroShotClassifier
	remoteML   ZeroShotClassifier
	patterns   PatternMatcher
	semantic   SemanticMatcher
	cache      ResultCache
	stats      stats
	thresholds Thresholds
}

// Option configures optional engine stages.
type Option func(*Engine)

// WithLocalML attaches the in-process zero-shot backend.
func WithLocalML(c ZeroShotClassifier) Option {
	return func(e *Engine) { e.localML = c }
}

// WithRemoteML attaches the remote zero-shot backend.
func WithRemoteML(c ZeroShotClassifier) Option {
	return func(e *Engine) { e.remoteML = c }
}

// WithPatterns attaches the per-user pattern learner.
func WithPatterns(p PatternMatcher) Option {
	return func(e *Engine) { e.patterns = p }
}

// WithSemantic attaches the semantic similarity matcher.
func WithSemantic(m SemanticMatcher) Option {
	return func(e *Engine) { e.semantic = m }
}

// WithCache attaches the result cache.
func WithCache(c ResultCache) Option {
	return func(e *Engine) { e.cache = c }
}

// WithThresholds overrides the default stage thresholds.
func WithThresholds(t Thresholds) Option {
	return func(e *Engine) { e.thresholds = t }
}

// New creates an engine over the given taxonomy and rule classifier.
func New(tax *taxonomy.Taxonomy, rules RuleClassifier, opts ...Option) *Engine {
	e := &Engine{
		tax:        tax,
		rules:      rules,
		thresholds: DefaultThresholds(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Classify runs the pipeline for one input. It always returns a valid
// result; when every strategy comes up empty the catch-all category is
// returned at low confidence.
func (e *Engine) Classify(ctx context.Context, input model.ClassificationInput) model.ClassificationResult {
	start := time.Now()

	normalized := input.NormalizedDescription()
	if normalized == "" {
		result := e.defaultResult("empty description")
		result.LatencyMs = float64(time.Since(start).Microseconds()) / 1000.0
		e.stats.recordResult(result)
		return result
	}

	cacheKey := input.CacheKey()
	if e.cache != nil {
		if cached, ok := e.cache.Get(cacheKey); ok {
			cached.FromCache = true
			cached.LatencyMs = float64(time.Since(start).Microseconds()) / 1000.0
			e.stats.recordCacheHit()
			return cached
		}
		e.stats.recordCacheMiss()
	}

	result := e.runPipeline(ctx, input, normalized)
	result.LatencyMs = float64(time.Since(start).Microseconds()) / 1000.0

	if e.patterns != nil && input.UserID != "" && result.Confidence > e.thresholds.LearnMinimum {
		e.patterns.Learn(ctx, normalized, result.Category, input.UserID)
	}

	if e.cache != nil {
		e.cache.Set(cacheKey, result)
	}

	e.stats.recordResult(result)
	return result
}

// runPipeline executes the strategies in priority order and keeps the
// highest-confidence answer.
func (e *Engine) runPipeline(ctx context.Context, input model.ClassificationInput, normalized string) model.ClassificationResult {
	var best model.ClassificationResult
	haveBest := false

	consider := func(candidate model.ClassificationResult) {
		if !haveBest || candidate.Confidence > best.Confidence {
			best = candidate
			haveBest = true
		}
	}

	if e.localML != nil {
		if result, ok := e.zeroShot(ctx, e.localML, normalized, model.MethodLocalML); ok {
			consider(result)
			if best.Confidence > e.thresholds.AcceptLocal {
				return best
			}
		}
	}

	if e.remoteML != nil && (!haveBest || best.Confidence < e.thresholds.AcceptRemote) {
		if result, ok := e.zeroShot(ctx, e.remoteML, normalized, model.MethodRemoteML); ok {
			consider(result)
			if best.Confidence > e.thresholds.AcceptRemote {
				return best
			}
		}
	}

	if e.patterns != nil && input.UserID != "" && (!haveBest || best.Confidence < e.thresholds.TryPatterns) {
		if result, ok := e.patterns.Lookup(ctx, normalized, input.UserID); ok {
			consider(result)
		}
	}

	if e.semantic != nil && (!haveBest || best.Confidence < e.thresholds.TrySemantic) {
		if result, ok := e.semantic.Match(normalized); ok {
			consider(result)
		}
	}

	if !haveBest || best.Confidence < e.thresholds.TryRules {
		consider(e.rules.Classify(input))
	}

	if !haveBest {
		return e.defaultResult("no strategy produced a result")
	}
	return best
}

// zeroShot runs one inference backend and converts its ranking into a
// classification result. Backend errors are logged and treated as "no
// result from this stage".
func (e *Engine) zeroShot(ctx context.Context, client ZeroShotClassifier, text string, method model.Method) (model.ClassificationResult, bool) {
	scores, err := client.Classify(ctx, text, e.tax.Labels())
	if err != nil {
		slog.Warn("inference stage failed",
			"backend", client.Name(),
			"error", err)
		return model.ClassificationResult{}, false
	}

	scores.Sort()
	top := scores.Top()
	if top == nil {
		return model.ClassificationResult{}, false
	}

	category, ok := e.tax.ByLabel(top.Label)
	if !ok {
		slog.Warn("inference returned unknown label",
			"backend", client.Name(),
			"label", top.Label)
		return model.ClassificationResult{}, false
	}

	confidence := top.Score
	if confidence > 1 {
		confidence = 1
	}
	if confidence < 0 {
		confidence = 0
	}

	return model.ClassificationResult{
		Category:     category.Label,
		Confidence:   confidence,
		Method:       method,
		Alternatives: scores.Alternatives(2),
		Reasoning:    fmt.Sprintf("zero-shot ranking via %s backend", client.Name()),
	}, true
}

func (e *Engine) defaultResult(reasoning string) model.ClassificationResult {
	return model.ClassificationResult{
		Category:   e.tax.CatchAll().Label,
		Confidence: defaultConfidence,
		Method:     model.MethodDefault,
		Reasoning:  reasoning,
	}
}

// Stats returns a snapshot of engine counters.
func (e *Engine) Stats() StatsSnapshot {
	return e.stats.snapshot()
}

// ClassifyBatch classifies inputs concurrently with a bounded worker
// pool, preserving input order in the returned slice. onProgress, when
// non-nil, is invoked with the running completion count.
func (e *Engine) ClassifyBatch(ctx context.Context, inputs []model.ClassificationInput, workers int, onProgress func(completed int)) []model.ClassificationResult {
	if workers < 1 {
		workers = 1
	}

	results := make([]model.ClassificationResult, len(inputs))
	sem := make(chan struct{}, workers)
	var completed atomic.Int64
	var wg sync.WaitGroup

	for i, input := range inputs {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, in model.ClassificationInput) {
			defer wg.Done()
			defer func() { <-sem }()

			results[idx] = e.Classify(ctx, in)
			if onProgress != nil {
				onProgress(int(completed.Add(1)))
			}
		}(i, input)
	}
	wg.Wait()

	return results
}
