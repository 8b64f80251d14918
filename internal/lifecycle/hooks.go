// Package lifecycle runs shutdown hooks when the process stops.
package lifecycle

import "context"

// Hook describes a named shutdown hook.
type Hook struct {
	Name string
	Fn   func(ctx context.Context) error
}

// StopFunc adapts a blocking stop function without a context, such as (*telebot.Bot).Stop.
// The hook returns ctx.Err() when stop does not return before ctx is done.
func StopFunc(stop func()) func(context.Context) error {
	return func(ctx context.Context) error {
		done := make(chan struct{})
		go func() {
			stop()
			close(done)
		}()

		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
