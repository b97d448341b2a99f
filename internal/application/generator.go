package application

import "context"

// ResponseGenerator sends a non-empty prompt to a language model and returns
// the complete reply.
type ResponseGenerator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}
