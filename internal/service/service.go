// Package service implements the referral crediting protocol: user directory,
// first-order detection, discount evaluation, and reward settlement. Every
// multi-step write sequence here runs against a store with no transactions
// and no compare-and-swap, so each operation re-derives its state from the
// store and is safe to invoke again after any partial failure.
package service

import "errors"

var (
	// ErrBusy means a concurrent invocation of the same operation is in
	// flight in this process. Best-effort guard only: it does not protect
	// against other processes racing the same rows.
	ErrBusy = errors.New("operation already in progress")

	// ErrCodeGenerationExhausted means repeated referral-code mints kept
	// colliding with existing codes.
	ErrCodeGenerationExhausted = errors.New("referral code generation exhausted")
)
