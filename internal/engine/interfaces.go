package engine

import (
	"context"

	"github.com/saffronlabs/saffron/internal/model"
)

// ZeroShotClassifier ranks the full candidate label set against a
// description. Both the in-process and remote inference backends
// satisfy this.
type ZeroShotClassifier interface {
	Classify(ctx context.Context, text string, labels []string) (model.LabelScores, error)
	Name() string
}

// PatternMatcher answers from per-user learned history and records
// confident classifications back into it.
type PatternMatcher interface {
	Lookup(ctx context.Context, description, userID string) (model.ClassificationResult, bool)
	Learn(ctx context.Context, description, category, userID string)
}

// SemanticMatcher compares a description against the category corpus
// by vector similarity.
type SemanticMatcher interface {
	Match(description string) (model.ClassificationResult, bool)
}

// RuleClassifier scores keyword, pattern, merchant, and amount
// signals. It always produces a result, making it the terminal
// fallback.
type RuleClassifier interface {
	Classify(input model.ClassificationInput) model.ClassificationResult
}

// ResultCache stores finished classifications keyed by input digest.
type ResultCache interface {
	Get(key string) (model.ClassificationResult, bool)
	Set(key string, result model.ClassificationResult)
}
