// Package notify publishes completion notifications for persisted albums.
// The worker treats notification as best-effort; a failed publish never fails
// the work item.
package notify

import "context"

// NoOp is a Notifier that discards notifications. It is the default provider.
type NoOp struct{}

// Publish does nothing and returns nil.
func (NoOp) Publish(_ context.Context, _ string) error { return nil }

// Close does nothing and returns nil.
func (NoOp) Close() error { return nil }
