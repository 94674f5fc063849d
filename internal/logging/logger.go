// Package logging defines the structured-logging interface used across the
// project. The variadic args are key–value pairs:
//
//	log.Info(ctx, "order recorded", "order_id", id, "phone", phone)
package logging

import "context"

type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger
}
