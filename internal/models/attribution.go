package models

import "time"

// Attribution is the client-local record of a referral code captured from an
// inbound link. It is valid for 30 days and cleared once consumed by a
// registration.
type Attribution struct {
	Code       string    `json:"code"`
	CapturedAt time.Time `json:"captured_at"`
	SourceURL  string    `json:"source_url"`
}
