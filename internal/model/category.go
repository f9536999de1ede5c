package model

// KeywordTier indicates how strongly a keyword signals its category.
type KeywordTier string

const (
	// TierHigh keywords are strong, unambiguous signals.
	TierHigh KeywordTier = "high"
	// TierMedium keywords are moderately indicative.
	TierMedium KeywordTier = "medium"
	// TierLow keywords are weak hints, often brand names.
	TierLow KeywordTier = "low"
)

// Weight returns the scoring weight for this tier.
func (t KeywordTier) Weight() float64 {
	switch t {
	case TierHigh:
		return 3.0
	case TierMedium:
		return 2.0
	case TierLow:
		return 1.0
	}
	return 0
}

// Keyword is a weighted substring signal for a category.
type Keyword struct {
	Text string      `mapstructure:"text"`
	Tier KeywordTier `mapstructure:"tier"`
}

// AmountRange is an inclusive range of plausible amounts for a category.
type AmountRange struct {
	Min float64 `mapstructure:"min"`
	Max float64 `mapstructure:"max"`
}

// Contains reports whether amount falls inside the range.
func (r AmountRange) Contains(amount float64) bool {
	return amount >= r.Min && amount <= r.Max
}

// Category is an immutable classification target loaded at startup.
// The catch-all category carries no selection criteria so it never
// scores positively; it is the answer of last resort.
type Category struct {
	Key          string        `mapstructure:"key"`
	Label        string        `mapstructure:"label"`
	Keywords     []Keyword     `mapstructure:"keywords"`
	Patterns     []string      `mapstructure:"patterns"`
	Merchants    []string      `mapstructure:"merchants"`
	AmountRanges []AmountRange `mapstructure:"amount_ranges"`
	CatchAll     bool          `mapstructure:"catch_all"`
}
