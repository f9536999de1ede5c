package taxonomy

import "github.com/saffronlabs/saffron/internal/model"

func kw(tier model.KeywordTier, texts ...string) []model.Keyword {
	keywords := make([]model.Keyword, len(texts))
	for i, text := range texts {
		keywords[i] = model.Keyword{Text: text, Tier: tier}
	}
	return keywords
}

func tiers(high, medium, low []model.Keyword) []model.Keyword {
	out := make([]model.Keyword, 0, len(high)+len(medium)+len(low))
	out = append(out, high...)
	out = append(out, medium...)
	out = append(out, low...)
	return out
}

// Default returns the built-in taxonomy. Deployments can replace it
// with a YAML file; this set covers common personal spending.
func Default() *Taxonomy {
	t, err := New(defaultCategories())
	if err != nil {
		// The built-in set is validated by tests; reaching this is a bug.
		panic(err)
	}
	return t
}

func defaultCategories() []model.Category {
	return []model.Category{
		{
			Key:   "food_dining",
			Label: "Food & Dining",
			Keywords: tiers(
				kw(model.TierHigh, "restaurant", "dining", "food", "meal"),
				kw(model.TierMedium, "coffee", "lunch", "dinner", "breakfast", "grocery", "groceries"),
				kw(model.TierLow, "starbucks", "mcdonald", "pizza", "burger", "cafe", "supermarket", "bakery"),
			),
			Patterns:     []string{`\b(?:bistro|diner|eatery|taqueria)\b`},
			Merchants:    []string{"starbucks", "mcdonald", "chipotle", "doordash", "uber eats", "grubhub", "subway"},
			AmountRanges: []model.AmountRange{{Min: 3, Max: 80}},
		},
		{
			Key:   "transportation",
			Label: "Transportation",
			Keywords: tiers(
				kw(model.TierHigh, "uber", "lyft", "taxi", "gas", "fuel"),
				kw(model.TierMedium, "transport", "bus", "train", "subway", "parking"),
				kw(model.TierLow, "toll", "car", "vehicle", "metro", "transit"),
			),
			Patterns:     []string{`\b(?:gas station|fuel stop|park(?:ing)? garage)\b`},
			Merchants:    []string{"shell", "chevron", "exxon", "bp ", "arco"},
			AmountRanges: []model.AmountRange{{Min: 2, Max: 120}},
		},
		{
			Key:   "shopping",
			Label: "Shopping",
			Keywords: tiers(
				kw(model.TierHigh, "amazon", "shopping", "store", "purchase"),
				kw(model.TierMedium, "clothes", "retail", "mall", "online"),
				kw(model.TierLow, "buy", "clothing", "shoes", "electronics"),
			),
			Merchants: []string{"amazon", "walmart", "target", "costco", "best buy", "ebay"},
		},
		{
			Key:   "entertainment",
			Label: "Entertainment",
			Keywords: tiers(
				kw(model.TierHigh, "netflix", "spotify", "movie", "entertainment"),
				kw(model.TierMedium, "cinema", "theater", "music", "streaming", "concert"),
				kw(model.TierLow, "game", "gaming", "youtube", "ticket"),
			),
			Merchants:    []string{"netflix", "spotify", "hulu", "steam", "playstation", "xbox"},
			AmountRanges: []model.AmountRange{{Min: 5, Max: 60}},
		},
		{
			Key:   "bills_utilities",
			Label: "Bills & Utilities",
			Keywords: tiers(
				kw(model.TierHigh, "electric", "electricity", "water", "internet", "phone"),
				kw(model.TierMedium, "utility", "utilities", "cable", "wifi", "cellular"),
				kw(model.TierLow, "mobile", "landline", "broadband"),
			),
			Patterns:     []string{`\b(?:monthly|quarterly) bill\b`, `\bauto ?pay\b`},
			Merchants:    []string{"comcast", "verizon", "at&t", "t-mobile", "xfinity"},
			AmountRanges: []model.AmountRange{{Min: 20, Max: 400}},
		},
		{
			Key:   "healthcare",
			Label: "Healthcare",
			Keywords: tiers(
				kw(model.TierHigh, "doctor", "hospital", "pharmacy", "medical"),
				kw(model.TierMedium, "health", "dentist", "clinic", "insurance", "fitness"),
				kw(model.TierLow, "medicine", "prescription", "copay", "gym"),
			),
			Merchants: []string{"cvs", "walgreens", "rite aid", "kaiser"},
		},
		{
			Key:   "travel",
			Label: "Travel",
			Keywords: tiers(
				kw(model.TierHigh, "hotel", "flight", "vacation", "airline"),
				kw(model.TierMedium, "travel", "trip", "booking", "resort"),
				kw(model.TierLow, "airbnb", "rental", "tourism", "holiday"),
			),
			Merchants:    []string{"delta", "united", "southwest", "marriott", "hilton", "airbnb", "expedia"},
			AmountRanges: []model.AmountRange{{Min: 100, Max: 5000}},
		},
		{
			Key:   "business",
			Label: "Business",
			Keywords: tiers(
				kw(model.TierHigh, "office", "business", "conference"),
				kw(model.TierMedium, "supplies", "equipment", "software", "saas"),
				kw(model.TierLow, "professional", "meeting", "coworking"),
			),
			Merchants: []string{"staples", "office depot", "zoom", "slack"},
		},
		{
			Key:   "education",
			Label: "Education",
			Keywords: tiers(
				kw(model.TierHigh, "tuition", "course", "textbook"),
				kw(model.TierMedium, "school", "university", "training", "certification"),
				kw(model.TierLow, "class", "workshop", "seminar"),
			),
			Merchants: []string{"coursera", "udemy", "pearson"},
		},
		{
			Key:   "personal_care",
			Label: "Personal Care",
			Keywords: tiers(
				kw(model.TierHigh, "salon", "haircut", "spa"),
				kw(model.TierMedium, "barber", "cosmetics", "skincare"),
				kw(model.TierLow, "nails", "massage", "grooming"),
			),
			Merchants:    []string{"sephora", "ulta"},
			AmountRanges: []model.AmountRange{{Min: 10, Max: 200}},
		},
		{
			Key:   "home_garden",
			Label: "Home & Garden",
			Keywords: tiers(
				kw(model.TierHigh, "rent", "mortgage", "furniture"),
				kw(model.TierMedium, "garden", "repair", "maintenance", "appliance"),
				kw(model.TierLow, "decor", "hardware", "lawn"),
			),
			Merchants:    []string{"home depot", "lowe's", "ikea", "wayfair"},
			AmountRanges: []model.AmountRange{{Min: 500, Max: 10000}},
		},
		{
			Key:      "other",
			Label:    "Other",
			CatchAll: true,
		},
	}
}
