package usecase

import (
	"context"

	"github.com/nguyentranbao-ct/meritflow/internal/models"
	"github.com/nguyentranbao-ct/meritflow/internal/repo/docstore"
)

// EngagementUsecase serves the read and write paths of the HTTP API.
type EngagementUsecase interface {
	Ping(ctx context.Context) ([]string, error)
	RecentEvents(ctx context.Context, employeeID string, limit int) (*ListResult, error)
	SearchCourses(ctx context.Context, skillTag string, limit int) (*ListResult, error)
	CreateKudos(ctx context.Context, req models.CreateKudosRequest) (*models.Kudos, error)
	PendingKudos(ctx context.Context, managerID string, limit int) (*ListResult, error)
	TeamPulse(ctx context.Context, teamID string, limit int) (*ListResult, error)
}

type ListResult struct {
	Items    []docstore.Document `json:"items"`
	Count    int                 `json:"count"`
	Bookmark string              `json:"bookmark,omitempty"`
}
