// Package inference provides zero-shot classification over a closed
// label set, either in-process or via a remote inference service.
// Both backends share one contract so the engine can treat them as
// interchangeable, best-effort strategies.
package inference

import (
	"context"

	"github.com/saffronlabs/saffron/internal/model"
)

// Client is the zero-shot classification contract. Implementations
// return the full candidate set ranked by score; an error means "no
// result from this backend", never a reason to abort classification.
type Client interface {
	// Classify ranks every candidate label against the text.
	Classify(ctx context.Context, text string, labels []string) (model.LabelScores, error)
	// Name identifies the backend in logs and stats.
	Name() string
}
