// Package repository maps sheet rows to domain models, one repository per
// sheet. Repositories take phone numbers already rendered in the sheet's key
// format; format decisions live in the phone package, protocol decisions in
// the service layer.
package repository

import "errors"

// ErrNotFound is returned when a filtered read matches no rows. Callers
// match it with errors.Is; it deliberately does not distinguish "row absent"
// from "row written but not yet visible" — the store cannot tell us either.
var ErrNotFound = errors.New("not found")
