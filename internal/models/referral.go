package models

// ReferralRecord status values. The transition pending → completed happens
// exactly once and never reverts; it is the only durable protocol state.
const (
	ReferralPending   = "pending"
	ReferralCompleted = "completed"
)

// ReferralRecord is a row in the "referrals" sheet. At most one record exists
// per (referrer_code, referred_user_id) pair.
type ReferralRecord struct {
	ReferralID     string `json:"referral_id"`
	ReferrerCode   string `json:"referrer_code"`
	ReferredUserID string `json:"referred_user_id"`
	ReferredName   string `json:"referred_name"`
	Status         string `json:"status"`
	RewardPoints   int64  `json:"reward_points"`
	CreatedAt      string `json:"created_at"`
	CompletedAt    string `json:"completed_at"`
}

// SettlementStatus classifies the outcome of a settlement attempt. Only
// Credited performed any writes; the rest are expected control-flow results,
// not errors.
type SettlementStatus int

const (
	SettlementCredited SettlementStatus = iota
	SettlementAlreadyCredited
	SettlementNoPendingReferral
	SettlementReferrerMissing
)

func (s SettlementStatus) String() string {
	switch s {
	case SettlementCredited:
		return "credited"
	case SettlementAlreadyCredited:
		return "already_credited"
	case SettlementNoPendingReferral:
		return "no_pending_referral"
	case SettlementReferrerMissing:
		return "referrer_missing"
	default:
		return "unknown"
	}
}

type SettlementOutcome struct {
	Status SettlementStatus
	Points int64
}
