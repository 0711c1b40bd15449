package domain

import "context"

// Completer is the language model port consuming assembled context.
// One method, one input, one output; provider response shapes are
// adapted outside the core.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
