// Package notifier delivers explosion alerts and answers chat commands.
package notifier

import "context"

// Notifier delivers a preformatted HTML message.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// NoopNotifier discards messages. Used when no bot token is configured.
type NoopNotifier struct{}

func (NoopNotifier) Send(context.Context, string) error { return nil }
