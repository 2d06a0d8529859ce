// Package pricing computes client-side booking quotes. The rental API remains
// the authority on the stored total; the quote is what the user sees and the
// amount submitted for payment.
package pricing

import (
	"math"
	"time"

	"rentawheel/pkg/model"
)

const msPerDay = 86_400_000

// DurationDays returns the number of started 24h periods between start and
// end, never less than one. A reversed or empty range counts as one day.
func DurationDays(start, end time.Time) int {
	ms := end.Sub(start).Milliseconds()
	days := int(math.Ceil(float64(ms) / msPerDay))
	if days < 1 {
		return 1
	}
	return days
}

// Compute prices a rental of a car at dailyRate between start and end.
// Unknown insurance ids and promo codes contribute nothing.
func Compute(dailyRate model.Decimal, start, end time.Time, insuranceID int64, promoCode string, ref *model.ReferenceData) model.Quote {
	days := DurationDays(start, end)

	daily := dailyRate
	if insuranceID != 0 {
		if policy, ok := ref.InsuranceByID(insuranceID); ok {
			daily += policy.DailyCost
		}
	}

	subtotal := daily * model.Decimal(days)
	total := subtotal
	if promo, ok := ref.Promotion(promoCode); ok {
		total = subtotal * (100 - promo.DiscountPerc) / 100
	}

	return model.Quote{
		DailyRateWithInsurance: daily.Round(),
		NumberOfDays:           days,
		Subtotal:               subtotal.Round(),
		DiscountedTotal:        total.Round(),
	}
}
