// Package common holds small types shared across vaultui packages.
package common

import (
	"context"

	"github.com/google/uuid"
)

// ContextKey is used to set values in a context.Context.
type ContextKey string

const (
	// RequestIDContextKey is used to set a request id for tracing
	// in a context.Context.
	RequestIDContextKey ContextKey = "request_id"
)

// RequestID returns the request id stored in ctx, or the zero UUID.
func RequestID(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(RequestIDContextKey).(uuid.UUID)
	return id
}

// WithRequestID returns a copy of ctx carrying the given request id.
func WithRequestID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, RequestIDContextKey, id)
}
