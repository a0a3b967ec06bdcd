// Package increment holds the tiered bid increment schedule.
package increment

import "github.com/shopspring/decimal"

type tier struct {
	below     decimal.Decimal
	increment decimal.Decimal
}

// tiers are ordered by upper bound; bids at or above the last bound use top.
var (
	tiers = []tier{
		{below: decimal.NewFromInt(50), increment: decimal.NewFromInt(1)},
		{below: decimal.NewFromInt(100), increment: decimal.NewFromInt(2)},
		{below: decimal.NewFromInt(500), increment: decimal.NewFromInt(5)},
	}
	top = decimal.NewFromInt(10)
)

// MinIncrement returns the smallest step by which currentBid must rise
func MinIncrement(currentBid decimal.Decimal) decimal.Decimal {
	for _, t := range tiers {
		if currentBid.LessThan(t.below) {
			return t.increment
		}
	}
	return top
}

// MinimumNextBid returns the lowest acceptable bid over currentBid
func MinimumNextBid(currentBid decimal.Decimal) decimal.Decimal {
	return currentBid.Add(MinIncrement(currentBid))
}
