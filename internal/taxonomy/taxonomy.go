// Package taxonomy holds the immutable category configuration the
// classification strategies score against.
package taxonomy

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/saffronlabs/saffron/internal/common"
	"github.com/saffronlabs/saffron/internal/model"
)

// Taxonomy is a validated, ordered set of categories. Declaration
// order is significant: the rule scorer breaks ties in favor of the
// earlier category.
type Taxonomy struct {
	byKey      map[string]int
	byLabel    map[string]int
	categories []model.Category
	catchAll   int
}

// New validates the category list and builds a taxonomy. Exactly one
// catch-all category is required and keys must be unique.
func New(categories []model.Category) (*Taxonomy, error) {
	if len(categories) == 0 {
		return nil, common.ErrEmptyTaxonomy
	}

	t := &Taxonomy{
		categories: make([]model.Category, len(categories)),
		byKey:      make(map[string]int, len(categories)),
		byLabel:    make(map[string]int, len(categories)),
		catchAll:   -1,
	}
	copy(t.categories, categories)

	for i, cat := range t.categories {
		if cat.Key == "" || cat.Label == "" {
			return nil, fmt.Errorf("%w: category %d needs both key and label", common.ErrInvalidConfig, i)
		}
		if _, dup := t.byKey[cat.Key]; dup {
			return nil, fmt.Errorf("%w: %q", common.ErrDuplicateKey, cat.Key)
		}
		t.byKey[cat.Key] = i
		t.byLabel[strings.ToLower(cat.Label)] = i

		for _, pattern := range cat.Patterns {
			if _, err := regexp.Compile(pattern); err != nil {
				return nil, fmt.Errorf("%w: category %q pattern %q: %v", common.ErrInvalidConfig, cat.Key, pattern, err)
			}
		}

		if cat.CatchAll {
			if t.catchAll >= 0 {
				return nil, common.ErrMultipleCatchAll
			}
			if len(cat.Keywords) > 0 || len(cat.Patterns) > 0 || len(cat.Merchants) > 0 {
				return nil, fmt.Errorf("%w: catch-all %q must not carry selection criteria", common.ErrInvalidConfig, cat.Key)
			}
			t.catchAll = i
		}
	}

	if t.catchAll < 0 {
		return nil, common.ErrMissingCatchAll
	}

	return t, nil
}

// Categories returns the categories in declaration order.
func (t *Taxonomy) Categories() []model.Category {
	return t.categories
}

// Labels returns the category labels in declaration order. This is
// the candidate label set handed to zero-shot classifiers.
func (t *Taxonomy) Labels() []string {
	labels := make([]string, len(t.categories))
	for i, cat := range t.categories {
		labels[i] = cat.Label
	}
	return labels
}

// ByKey looks up a category by its stable key.
func (t *Taxonomy) ByKey(key string) (model.Category, bool) {
	i, ok := t.byKey[key]
	if !ok {
		return model.Category{}, false
	}
	return t.categories[i], true
}

// ByLabel looks up a category by its human-readable label,
// case-insensitively. Inference backends echo labels back, so this is
// the validation path for their answers.
func (t *Taxonomy) ByLabel(label string) (model.Category, bool) {
	i, ok := t.byLabel[strings.ToLower(label)]
	if !ok {
		return model.Category{}, false
	}
	return t.categories[i], true
}

// CatchAll returns the category of last resort.
func (t *Taxonomy) CatchAll() model.Category {
	return t.categories[t.catchAll]
}

// Len returns the number of categories.
func (t *Taxonomy) Len() int {
	return len(t.categories)
}
