// Package insights aggregates categorized expenses into statistics
// and renders natural-language observations from them. The analysis
// is stateless; an optional LLM pass can rewrite the templated text
// but never replaces it as the source of truth.
package insights

import (
	"math"
	"sort"
	"time"

	"github.com/saffronlabs/saffron/internal/model"
)

const (
	outlierSigmas   = 2.0
	daysPerWeek     = 7.0
	defaultTopN     = 3
	smallExpenseCap = 15.0
)

// CategorySummary aggregates one category's share of spending.
type CategorySummary struct {
	Category string
	Total    float64
	Percent  float64
	Count    int
}

// Summary holds the aggregate statistics for a set of expenses.
type Summary struct {
	Start         time.Time
	End           time.Time
	Categories    []CategorySummary
	Outliers      []model.Expense
	Total         float64
	Count         int
	AverageAmount float64
	StdDev        float64
	// Consistency is the coefficient of variation of amounts; lower
	// means more uniform spending.
	Consistency float64
	// WeeklyVelocity is expenses per week over the observed date span.
	WeeklyVelocity float64
	SmallExpenses  int
}

// TopCategories returns the n largest categories by total.
func (s Summary) TopCategories(n int) []CategorySummary {
	if n > len(s.Categories) {
		n = len(s.Categories)
	}
	return s.Categories[:n]
}

// Analyze computes summary statistics over the given expenses.
// Expenses with non-positive amounts are ignored.
func Analyze(expenses []model.Expense) Summary {
	var summary Summary

	byCategory := make(map[string]*CategorySummary)
	var amounts []float64

	for _, exp := range expenses {
		if exp.Amount <= 0 {
			continue
		}

		summary.Total += exp.Amount
		summary.Count++
		amounts = append(amounts, exp.Amount)

		if exp.Amount < smallExpenseCap {
			summary.SmallExpenses++
		}

		cat := byCategory[exp.Category]
		if cat == nil {
			cat = &CategorySummary{Category: exp.Category}
			byCategory[exp.Category] = cat
		}
		cat.Total += exp.Amount
		cat.Count++

		if !exp.Date.IsZero() {
			if summary.Start.IsZero() || exp.Date.Before(summary.Start) {
				summary.Start = exp.Date
			}
			if exp.Date.After(summary.End) {
				summary.End = exp.Date
			}
		}
	}

	if summary.Count == 0 {
		return summary
	}

	summary.AverageAmount = summary.Total / float64(summary.Count)

	var variance float64
	for _, amount := range amounts {
		diff := amount - summary.AverageAmount
		variance += diff * diff
	}
	variance /= float64(summary.Count)
	summary.StdDev = math.Sqrt(variance)
	if summary.AverageAmount > 0 {
		summary.Consistency = summary.StdDev / summary.AverageAmount
	}

	threshold := summary.AverageAmount + outlierSigmas*summary.StdDev
	for _, exp := range expenses {
		if exp.Amount > threshold && summary.StdDev > 0 {
			summary.Outliers = append(summary.Outliers, exp)
		}
	}

	for _, cat := range byCategory {
		cat.Percent = cat.Total / summary.Total * 100
		summary.Categories = append(summary.Categories, *cat)
	}
	sort.Slice(summary.Categories, func(i, j int) bool {
		a, b := summary.Categories[i], summary.Categories[j]
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		return a.Category < b.Category
	})

	span := summary.End.Sub(summary.Start)
	weeks := span.Hours() / 24 / daysPerWeek
	if weeks < 1 {
		// Spans shorter than a week count as one week so velocity
		// stays comparable.
		weeks = 1
	}
	summary.WeeklyVelocity = float64(summary.Count) / weeks

	return summary
}
