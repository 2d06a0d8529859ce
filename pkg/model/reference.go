package model

// DefaultInsurancePackage is pre-selected whenever a form needs a policy and
// none has been chosen yet.
const DefaultInsurancePackage = "Basic"

type InsurancePolicy struct {
	ID          int64   `json:"policy_id" bson:"policy_id"`
	PackageName string  `json:"package_name" bson:"package_name"`
	DailyCost   Decimal `json:"daily_cost" bson:"daily_cost"`
}

type Promotion struct {
	Code         string  `json:"promo_code" bson:"promo_code"`
	DiscountPerc Decimal `json:"discount_perc" bson:"discount_perc"`
	Description  string  `json:"description,omitempty" bson:"description,omitempty"`
}

// ReferenceData is the static catalog served by the rental API.
type ReferenceData struct {
	Branches   []Branch          `json:"branches" bson:"branches"`
	Insurance  []InsurancePolicy `json:"insurance" bson:"insurance"`
	Promotions []Promotion       `json:"promotions" bson:"promotions"`
}

func (r *ReferenceData) InsuranceByID(id int64) (InsurancePolicy, bool) {
	if r == nil {
		return InsurancePolicy{}, false
	}
	for _, p := range r.Insurance {
		if p.ID == id {
			return p, true
		}
	}
	return InsurancePolicy{}, false
}

// Promotion looks a code up by exact, case-sensitive match.
func (r *ReferenceData) Promotion(code string) (Promotion, bool) {
	if r == nil || code == "" {
		return Promotion{}, false
	}
	for _, p := range r.Promotions {
		if p.Code == code {
			return p, true
		}
	}
	return Promotion{}, false
}

func (r *ReferenceData) Branch(id int64) (Branch, bool) {
	if r == nil {
		return Branch{}, false
	}
	for _, b := range r.Branches {
		if b.ID == id {
			return b, true
		}
	}
	return Branch{}, false
}

func (r *ReferenceData) DefaultInsurance() (InsurancePolicy, bool) {
	if r == nil {
		return InsurancePolicy{}, false
	}
	for _, p := range r.Insurance {
		if p.PackageName == DefaultInsurancePackage {
			return p, true
		}
	}
	return InsurancePolicy{}, false
}
