package taxonomy

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/saffronlabs/saffron/internal/model"
)

// LoadFile reads a taxonomy definition from a YAML file. The file
// holds a top-level `categories` list mirroring model.Category; the
// result is validated the same way as the built-in set.
//
//	categories:
//	  - key: food_dining
//	    label: Food & Dining
//	    keywords:
//	      - {text: restaurant, tier: high}
//	    merchants: [starbucks]
//	    amount_ranges:
//	      - {min: 3, max: 80}
//	  - key: other
//	    label: Other
//	    catch_all: true
func LoadFile(path string) (*Taxonomy, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read taxonomy file: %w", err)
	}

	var categories []model.Category
	if err := v.UnmarshalKey("categories", &categories); err != nil {
		return nil, fmt.Errorf("failed to parse taxonomy file: %w", err)
	}

	t, err := New(categories)
	if err != nil {
		return nil, fmt.Errorf("invalid taxonomy in %s: %w", path, err)
	}
	return t, nil
}

// Load returns the taxonomy from path when set, otherwise the default.
func Load(path string) (*Taxonomy, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}
