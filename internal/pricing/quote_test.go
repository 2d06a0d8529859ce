package pricing

import (
	"testing"
	"time"

	"rentawheel/pkg/model"
)

var base = time.Date(2024, time.July, 1, 10, 0, 0, 0, time.UTC)

func testRef() *model.ReferenceData {
	return &model.ReferenceData{
		Insurance: []model.InsurancePolicy{
			{ID: 1, PackageName: "Basic", DailyCost: 10},
			{ID: 2, PackageName: "Premium", DailyCost: 25.5},
		},
		Promotions: []model.Promotion{
			{Code: "WELCOME10", DiscountPerc: 10},
			{Code: "FREE", DiscountPerc: 100},
		},
	}
}

func TestDurationDays(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  int
	}{
		{"same instant", base, base, 1},
		{"reversed range", base, base.Add(-48 * time.Hour), 1},
		{"one millisecond", base, base.Add(time.Millisecond), 1},
		{"exactly one day", base, base.Add(24 * time.Hour), 1},
		{"one day and a minute", base, base.Add(24*time.Hour + time.Minute), 2},
		{"three days", base, base.Add(72 * time.Hour), 3},
		{"partial third day", base, base.Add(49 * time.Hour), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DurationDays(tt.start, tt.end); got != tt.want {
				t.Errorf("DurationDays() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCompute(t *testing.T) {
	ref := testRef()
	threeDays := base.Add(72 * time.Hour)

	tests := []struct {
		name        string
		rate        model.Decimal
		end         time.Time
		insuranceID int64
		promo       string
		want        model.Quote
	}{
		{
			name:        "rate plus basic insurance over three days",
			rate:        50,
			end:         threeDays,
			insuranceID: 1,
			want:        model.Quote{DailyRateWithInsurance: 60, NumberOfDays: 3, Subtotal: 180, DiscountedTotal: 180},
		},
		{
			name:        "ten percent promo",
			rate:        50,
			end:         threeDays,
			insuranceID: 1,
			promo:       "WELCOME10",
			want:        model.Quote{DailyRateWithInsurance: 60, NumberOfDays: 3, Subtotal: 180, DiscountedTotal: 162},
		},
		{
			name: "start equals end is one day",
			rate: 50,
			end:  base,
			want: model.Quote{DailyRateWithInsurance: 50, NumberOfDays: 1, Subtotal: 50, DiscountedTotal: 50},
		},
		{
			name:  "unknown promo leaves subtotal",
			rate:  50,
			end:   threeDays,
			promo: "NOPE",
			want:  model.Quote{DailyRateWithInsurance: 50, NumberOfDays: 3, Subtotal: 150, DiscountedTotal: 150},
		},
		{
			name:  "promo codes are case sensitive",
			rate:  50,
			end:   threeDays,
			promo: "welcome10",
			want:  model.Quote{DailyRateWithInsurance: 50, NumberOfDays: 3, Subtotal: 150, DiscountedTotal: 150},
		},
		{
			name:        "unknown insurance adds nothing",
			rate:        40,
			end:         threeDays,
			insuranceID: 99,
			want:        model.Quote{DailyRateWithInsurance: 40, NumberOfDays: 3, Subtotal: 120, DiscountedTotal: 120},
		},
		{
			name:        "fractional cost rounds to cents",
			rate:        33.33,
			end:         base.Add(48 * time.Hour),
			insuranceID: 2,
			promo:       "WELCOME10",
			want:        model.Quote{DailyRateWithInsurance: 58.83, NumberOfDays: 2, Subtotal: 117.66, DiscountedTotal: 105.89},
		},
		{
			name:  "full discount",
			rate:  80,
			end:   threeDays,
			promo: "FREE",
			want:  model.Quote{DailyRateWithInsurance: 80, NumberOfDays: 3, Subtotal: 240, DiscountedTotal: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(tt.rate, base, tt.end, tt.insuranceID, tt.promo, ref)
			if got != tt.want {
				t.Errorf("Compute() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCompute_NilReferenceData(t *testing.T) {
	got := Compute(50, base, base.Add(72*time.Hour), 1, "WELCOME10", nil)
	if got.DiscountedTotal != 150 {
		t.Errorf("DiscountedTotal = %v, want 150 with no catalog", got.DiscountedTotal)
	}
}

func TestCompute_Monotonic(t *testing.T) {
	ref := &model.ReferenceData{
		Insurance: []model.InsurancePolicy{
			{ID: 1, DailyCost: 5},
			{ID: 2, DailyCost: 15},
		},
		Promotions: []model.Promotion{
			{Code: "LOW", DiscountPerc: 5},
			{Code: "HIGH", DiscountPerc: 20},
		},
	}
	end := base.Add(100 * time.Hour)

	for _, rate := range []model.Decimal{10, 49.99, 120} {
		low := Compute(rate, base, end, 1, "", ref).DiscountedTotal
		high := Compute(rate, base, end, 2, "", ref).DiscountedTotal
		if high < low {
			t.Errorf("rate %v: pricier insurance gave lower total (%v < %v)", rate, high, low)
		}

		small := Compute(rate, base, end, 1, "LOW", ref).DiscountedTotal
		big := Compute(rate, base, end, 1, "HIGH", ref).DiscountedTotal
		if big > small {
			t.Errorf("rate %v: bigger discount gave higher total (%v > %v)", rate, big, small)
		}

		more := Compute(rate+1, base, end, 1, "LOW", ref).DiscountedTotal
		if more < small {
			t.Errorf("rate %v: higher rate gave lower total (%v < %v)", rate, more, small)
		}
	}
}
