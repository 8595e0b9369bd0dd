package services

import "context"

// INotifier dispatches templated email in the background. Delivery is
// best-effort: implementations hand the message off to a queue and
// callers treat failures as non-fatal.
type INotifier interface {
	Notify(ctx context.Context, to []string, templateID string, data map[string]string) error
}
