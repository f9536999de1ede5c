package insights

import "fmt"

const (
	concentrationPercent = 40.0
	highWeeklyVelocity   = 21.0
	irregularVariation   = 1.0
	smallExpenseShare    = 0.5
)

// Generate renders insight strings for every statistical condition the
// summary fires. It always produces at least one line for a non-empty
// summary and never fails, which makes it the terminal fallback for
// advice generation.
func Generate(summary Summary) []string {
	if summary.Count == 0 {
		return []string{"No expenses recorded yet. Start tracking to see spending insights."}
	}

	insights := []string{
		fmt.Sprintf("You spent $%.2f across %d expenses, averaging $%.2f per transaction.",
			summary.Total, summary.Count, summary.AverageAmount),
	}

	if top := summary.TopCategories(1); len(top) > 0 && top[0].Percent > concentrationPercent {
		insights = append(insights, fmt.Sprintf(
			"%s makes up %.0f%% of your spending ($%.2f). Consider whether this matches your priorities.",
			top[0].Category, top[0].Percent, top[0].Total))
	}

	if summary.WeeklyVelocity > highWeeklyVelocity {
		insights = append(insights, fmt.Sprintf(
			"You average %.1f expenses per week, several purchases a day. Batching errands can reduce impulse spending.",
			summary.WeeklyVelocity))
	}

	if float64(summary.SmallExpenses) > float64(summary.Count)*smallExpenseShare {
		insights = append(insights, fmt.Sprintf(
			"%d of your %d expenses were under $%.0f. Small purchases add up; a weekly discretionary budget can help.",
			summary.SmallExpenses, summary.Count, smallExpenseCap))
	}

	if summary.Consistency > irregularVariation {
		insights = append(insights,
			"Your expense amounts vary widely. Irregular spending makes budgets harder to hold; planning larger purchases ahead smooths this out.")
	}

	if n := len(summary.Outliers); n > 0 {
		largest := summary.Outliers[0]
		for _, outlier := range summary.Outliers[1:] {
			if outlier.Amount > largest.Amount {
				largest = outlier
			}
		}
		insights = append(insights, fmt.Sprintf(
			"%d unusually large expense(s) detected, the biggest being $%.2f (%s). Review whether these were planned.",
			n, largest.Amount, largest.Description))
	}

	return insights
}
