package ports

import (
	"context"

	"github.com/bnema/arthas-cli/internal/domain"
)

type ConnectionRepository interface {
	Get(ctx context.Context) (domain.Connection, error)
	Save(ctx context.Context, connection domain.Connection) error
	Delete(ctx context.Context) error
}
