package model

import "time"

// Expense is a categorized expense record, the unit the insights
// generator aggregates over. Imported statements and interactively
// classified descriptions both end up here.
type Expense struct {
	Date        time.Time
	Description string
	Category    string
	Method      Method
	Amount      float64
	Confidence  float64
}
