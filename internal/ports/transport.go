package ports

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bnema/arthas-cli/internal/domain"
)

// Transport posts one request envelope to the agent's api endpoint.
type Transport interface {
	Post(ctx context.Context, request domain.Request) (Reply, error)
}

type Reply struct {
	StatusCode int
	Body       []byte
}

func (r Reply) Decode(v any) error {
	if len(r.Body) == 0 {
		return fmt.Errorf("%w: empty response body", domain.ErrProtocol)
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("%w: decode response body: %w", domain.ErrProtocol, err)
	}

	return nil
}
