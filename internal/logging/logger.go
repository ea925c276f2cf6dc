// Package logging is the project-wide logging seam. Code logs through the
// Logger interface; the slog adapter below is the only implementation the
// server wires in, but tests substitute their own.
package logging

import "context"

// Logger writes structured, context-aware log records. Trailing args are
// alternating keys and values:
//
//	log.Info(ctx, "share link rotated", "note_id", noteID)
//
// Callers must never pass an account secret or decrypted note content as
// a value.
type Logger interface {
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a derived logger that stamps the given pairs onto
	// every record.
	With(args ...any) Logger
}
