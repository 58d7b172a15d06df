package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/nguyentranbao-ct/meritflow/internal/config"
	"github.com/nguyentranbao-ct/meritflow/internal/kafka"
	"github.com/nguyentranbao-ct/meritflow/internal/models"
	"github.com/nguyentranbao-ct/meritflow/internal/repo/docstore"
	"github.com/nguyentranbao-ct/meritflow/pkg/ctxval"
	"github.com/nguyentranbao-ct/meritflow/pkg/logger/log"
	"github.com/segmentio/ksuid"
)

const (
	DefaultLimit  = 20
	MaxListLimit  = 50
	MaxPulseLimit = 52
)

// ClampLimit maps a requested page size into [1, upper], using DefaultLimit
// when none was given.
func ClampLimit(limit, upper int) int {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return min(limit, upper)
}

type engagementUsecase struct {
	store       docstore.Store
	collections config.CollectionConfig
	publisher   kafka.KudosPublisher

	now   func() time.Time
	newID func() string
}

func NewEngagementUsecase(store docstore.Store, conf *config.Config, publisher kafka.KudosPublisher) EngagementUsecase {
	return &engagementUsecase{
		store:       store,
		collections: conf.Collections,
		publisher:   publisher,
		now:         time.Now,
		newID: func() string {
			return ksuid.New().String()
		},
	}
}

func (uc *engagementUsecase) Ping(ctx context.Context) ([]string, error) {
	dbs, err := uc.store.Ping(ctx)
	if err != nil {
		return nil, fmt.Errorf("ping store: %w", err)
	}
	return dbs, nil
}

func (uc *engagementUsecase) RecentEvents(ctx context.Context, employeeID string, limit int) (*ListResult, error) {
	q := docstore.NewQuery().
		Where("employee_id", docstore.Eq(employeeID)).
		OrderBy("timestamp", docstore.Desc).
		WithLimit(ClampLimit(limit, MaxListLimit))
	return uc.list(ctx, uc.collections.WorkEvents, q)
}

func (uc *engagementUsecase) SearchCourses(ctx context.Context, skillTag string, limit int) (*ListResult, error) {
	q := docstore.NewQuery().
		Where("skill_tags_normalized", docstore.Contains(skillTag)).
		WithLimit(ClampLimit(limit, MaxListLimit))
	return uc.list(ctx, uc.collections.Courses, q)
}

func (uc *engagementUsecase) PendingKudos(ctx context.Context, managerID string, limit int) (*ListResult, error) {
	q := docstore.NewQuery().
		Where("manager_id", docstore.Eq(managerID)).
		Where("approval_status", docstore.Eq(string(models.ApprovalPending))).
		OrderBy("created_at", docstore.Desc).
		WithLimit(ClampLimit(limit, MaxListLimit))
	return uc.list(ctx, uc.collections.Kudos, q)
}

func (uc *engagementUsecase) TeamPulse(ctx context.Context, teamID string, limit int) (*ListResult, error) {
	q := docstore.NewQuery().
		Where("team_id", docstore.Eq(teamID)).
		OrderBy("week_start", docstore.Desc).
		WithLimit(ClampLimit(limit, MaxPulseLimit))
	return uc.list(ctx, uc.collections.PulseAggregates, q)
}

func (uc *engagementUsecase) list(ctx context.Context, collection string, q docstore.Query) (*ListResult, error) {
	ctxval.Annotate(ctx, "collection", collection)
	ctxval.Annotate(ctx, "limit", q.Limit)

	rs, err := uc.store.Find(ctx, collection, q)
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", collection, err)
	}
	items := rs.Docs
	if items == nil {
		items = []docstore.Document{}
	}
	if rs.Warning != "" {
		log.Warnw(ctx, "store query warning", "collection", collection, "warning", rs.Warning)
	}
	ctxval.Annotate(ctx, "results", len(items))
	return &ListResult{Items: items, Count: len(items), Bookmark: rs.Bookmark}, nil
}

// CreateKudos stores a pending kudos and announces it. A failed announcement
// is logged; the kudos is already stored at that point.
func (uc *engagementUsecase) CreateKudos(ctx context.Context, req models.CreateKudosRequest) (*models.Kudos, error) {
	id := models.KudosIDPrefix + uc.newID()
	kudos := models.Kudos{
		ID:             id,
		KudosID:        id,
		FromEmployeeID: req.FromEmployeeID,
		ToEmployeeID:   req.ToEmployeeID,
		ManagerID:      req.ManagerID,
		TeamID:         req.TeamID,
		Message:        req.Message,
		ValuesTags:     req.ValuesTags,
		RelatedEventID: req.RelatedEventID,
		ApprovalStatus: models.ApprovalPending,
		CreatedAt:      uc.now().UTC().Format(time.RFC3339),
	}
	if kudos.ValuesTags == nil {
		kudos.ValuesTags = []string{}
	}

	ctxval.Annotate(ctx, "collection", uc.collections.Kudos)
	ctxval.Annotate(ctx, "kudos_id", id)

	if _, err := uc.store.Upsert(ctx, uc.collections.Kudos, id, kudos.Document()); err != nil {
		return nil, fmt.Errorf("store kudos: %w", err)
	}

	if err := uc.publisher.PublishCreated(ctx, kudos, req.RequestID); err != nil {
		log.Errorw(ctx, "publish kudos created", "kudos_id", id, "error", err)
	}
	return &kudos, nil
}
