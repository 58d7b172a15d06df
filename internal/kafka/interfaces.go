package kafka

import (
	"context"

	"github.com/nguyentranbao-ct/meritflow/internal/models"
)

// KudosPublisher announces kudos lifecycle events to downstream consumers.
type KudosPublisher interface {
	PublishCreated(ctx context.Context, kudos models.Kudos, requestID string) error
	Close() error
}
