package models

// User is a row in the "users" sheet. The phone is stored in that sheet's key
// format (local "08…" form); referral_code is unique and immutable once
// assigned; referrer_code is write-once, set only when the row is created.
type User struct {
	UserID       string `json:"user_id"`
	Name         string `json:"name"`
	Phone        string `json:"whatsapp_no"`
	PINHash      string `json:"-"`
	ReferralCode string `json:"referral_code"`
	ReferrerCode string `json:"referrer_code,omitempty"`
	TotalPoints  int64  `json:"total_points"`
	CreatedAt    string `json:"created_at"`
	LastLogin    string `json:"last_login,omitempty"`
}

// TimeLayout is the timestamp format the sheets use.
const TimeLayout = "2006-01-02 15:04:05"
