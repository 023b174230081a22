package port

import "context"

// Generator produces text from a prompt.
type Generator interface {
	// Generate returns the full response for the prompt.
	Generate(ctx context.Context, prompt string) (string, error)

	// GenerateStream calls onDelta for each piece of the response as it arrives.
	GenerateStream(ctx context.Context, prompt string, onDelta func(string) error) error

	// ModelName returns the name of the model.
	ModelName() string
}
