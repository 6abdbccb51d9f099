package embedding

import "context"

// Client talks to an embedding backend.
type Client interface {
	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// ValidateServer checks that the backend is reachable and serves the expected dimension.
	ValidateServer(ctx context.Context, dimension int) error
}
