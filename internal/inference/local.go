package inference

import (
	"context"
	"fmt"
	"math"
	"sync"

	fastembed "github.com/anush008/fastembed-go"

	"github.com/saffronlabs/saffron/internal/common"
	"github.com/saffronlabs/saffron/internal/model"
)

// LocalConfig holds configuration for the in-process engine.
type LocalConfig struct {
	// Model selects the embedding model; defaults to BGESmallENV15.
	Model string
	// CacheDir caches downloaded model files between runs.
	CacheDir string
	// MaxLength bounds the input sequence length.
	MaxLength int
}

// localModelNames maps friendly names to fastembed constants.
var localModelNames = map[string]fastembed.EmbeddingModel{
	"BAAI/bge-small-en-v1.5":                 fastembed.BGESmallENV15,
	"BAAI/bge-base-en-v1.5":                  fastembed.BGEBaseENV15,
	"sentence-transformers/all-MiniLM-L6-v2": fastembed.AllMiniLML6V2,
}

// LocalEngine performs zero-shot classification in-process: every
// candidate label is embedded once at construction, incoming text is
// embedded per call, and softmax over cosine similarities yields the
// ranked scores. No network dependency, no rate limits.
type LocalEngine struct {
	embedder *fastembed.FlagEmbedding
	labels   []string
	vectors  [][]float32
	mu       sync.RWMutex
}

// NewLocalEngine loads the embedding model and precomputes label
// vectors. Construction failure means the engine runs without a local
// stage; callers treat the error as "backend unavailable", not fatal.
func NewLocalEngine(cfg LocalConfig, labels []string) (*LocalEngine, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("%w: no candidate labels", common.ErrInvalidConfig)
	}

	embedModel := fastembed.BGESmallENV15
	if cfg.Model != "" {
		m, ok := localModelNames[cfg.Model]
		if !ok {
			return nil, fmt.Errorf("%w: unsupported local model %q", common.ErrInvalidConfig, cfg.Model)
		}
		embedModel = m
	}

	cacheDir := cfg.CacheDir
	if cacheDir == "" {
		cacheDir = "local_cache"
	}
	maxLength := cfg.MaxLength
	if maxLength == 0 {
		maxLength = 512
	}

	showProgress := false
	embedder, err := fastembed.NewFlagEmbedding(&fastembed.InitOptions{
		Model:                embedModel,
		CacheDir:             cacheDir,
		MaxLength:            maxLength,
		ShowDownloadProgress: &showProgress,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInferenceUnavailable, err)
	}

	// Label embeddings are the fixed half of every comparison; compute
	// them once. Spending descriptions entail spending categories, so
	// the label text is embedded as a passage.
	vectors, err := embedder.PassageEmbed(labels, len(labels))
	if err != nil {
		_ = embedder.Destroy()
		return nil, fmt.Errorf("%w: embedding labels: %v", common.ErrInferenceUnavailable, err)
	}

	owned := make([]string, len(labels))
	copy(owned, labels)

	return &LocalEngine{
		embedder: embedder,
		labels:   owned,
		vectors:  vectors,
	}, nil
}

// Name identifies the backend.
func (e *LocalEngine) Name() string { return "local" }

// Classify embeds the text and ranks the configured labels by softmax
// over cosine similarity. The labels argument must match the set the
// engine was constructed with; it is accepted for interface parity.
func (e *LocalEngine) Classify(ctx context.Context, text string, labels []string) (model.LabelScores, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.embedder == nil {
		return nil, common.ErrInferenceUnavailable
	}

	query, err := e.embedder.QueryEmbed(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInferenceUnavailable, err)
	}

	similarities := make([]float64, len(e.labels))
	for i, vec := range e.vectors {
		similarities[i] = cosine(query, vec)
	}

	scores := softmaxScores(e.labels, similarities)
	scores.Sort()
	return scores, nil
}

// Close releases the underlying model.
func (e *LocalEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.embedder == nil {
		return nil
	}
	err := e.embedder.Destroy()
	e.embedder = nil
	return err
}

// cosine computes cosine similarity between two dense vectors.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// softmaxScores converts raw similarities into a probability-shaped
// ranking. The temperature sharpens the distribution so a clear
// nearest label stands out from the pack.
func softmaxScores(labels []string, similarities []float64) model.LabelScores {
	const temperature = 10.0

	maxSim := math.Inf(-1)
	for _, s := range similarities {
		if s > maxSim {
			maxSim = s
		}
	}

	var sum float64
	exps := make([]float64, len(similarities))
	for i, s := range similarities {
		exps[i] = math.Exp((s - maxSim) * temperature)
		sum += exps[i]
	}

	scores := make(model.LabelScores, len(labels))
	for i, label := range labels {
		scores[i] = model.LabelScore{Label: label, Score: exps[i] / sum}
	}
	return scores
}
