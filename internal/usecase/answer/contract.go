package answer

import "context"

// Completer generates a chat completion from a system instruction and a user message.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}
