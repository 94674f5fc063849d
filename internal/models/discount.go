package models

// Ineligibility reasons, in the order the discount engine checks them.
const (
	ReasonNoCode        = "no referral code"
	ReasonInvalidCode   = "invalid referral code"
	ReasonSelfReferral  = "self-referral"
	ReasonNotFirstOrder = "not first order"
)

// DiscountResult is computed per checkout evaluation and never persisted.
type DiscountResult struct {
	Eligible       bool   `json:"eligible"`
	Reason         string `json:"reason,omitempty"`
	DiscountAmount int64  `json:"discount_amount"`
	FinalTotal     int64  `json:"final_total"`
	ReferrerPhone  string `json:"referrer_phone,omitempty"`
	ReferralCode   string `json:"referral_code,omitempty"`
}
