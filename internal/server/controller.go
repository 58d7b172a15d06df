package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nguyentranbao-ct/meritflow/internal/models"
	"github.com/nguyentranbao-ct/meritflow/internal/usecase"
)

type Controller interface {
	Health(c echo.Context) error
	CloudantPing(c echo.Context, req PingRequest) (*PingResponse, error)
	RecentEvents(c echo.Context, req RecentEventsRequest) (*usecase.ListResult, error)
	SearchCourses(c echo.Context, req SearchCoursesRequest) (*usecase.ListResult, error)
	CreateKudos(c echo.Context, req models.CreateKudosRequest) (*models.Kudos, error)
	PendingKudos(c echo.Context, req PendingKudosRequest) (*usecase.ListResult, error)
	TeamPulse(c echo.Context, req TeamPulseRequest) (*usecase.ListResult, error)
}

type PingRequest struct{}

type PingResponse struct {
	OK  bool     `json:"ok"`
	DBs []string `json:"dbs"`
}

type RecentEventsRequest struct {
	EmployeeID string `query:"employee_id" validate:"required"`
	Limit      int    `query:"limit"`
}

type SearchCoursesRequest struct {
	SkillTag string `query:"skill_tag" validate:"required"`
	Limit    int    `query:"limit"`
}

type PendingKudosRequest struct {
	ManagerID string `query:"manager_id" validate:"required"`
	Limit     int    `query:"limit"`
}

type TeamPulseRequest struct {
	TeamID string `query:"team_id" validate:"required"`
	Limit  int    `query:"limit"`
}

type controller struct {
	engagement usecase.EngagementUsecase
}

func NewHandler(engagement usecase.EngagementUsecase) Controller {
	return &controller{
		engagement: engagement,
	}
}

func (h *controller) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

func (h *controller) CloudantPing(c echo.Context, _ PingRequest) (*PingResponse, error) {
	dbs, err := h.engagement.Ping(c.Request().Context())
	if err != nil {
		return nil, err
	}
	return &PingResponse{OK: true, DBs: dbs}, nil
}

func (h *controller) RecentEvents(c echo.Context, req RecentEventsRequest) (*usecase.ListResult, error) {
	return h.engagement.RecentEvents(c.Request().Context(), req.EmployeeID, req.Limit)
}

func (h *controller) SearchCourses(c echo.Context, req SearchCoursesRequest) (*usecase.ListResult, error) {
	return h.engagement.SearchCourses(c.Request().Context(), req.SkillTag, req.Limit)
}

func (h *controller) CreateKudos(c echo.Context, req models.CreateKudosRequest) (*models.Kudos, error) {
	return h.engagement.CreateKudos(c.Request().Context(), req)
}

func (h *controller) PendingKudos(c echo.Context, req PendingKudosRequest) (*usecase.ListResult, error) {
	return h.engagement.PendingKudos(c.Request().Context(), req.ManagerID, req.Limit)
}

func (h *controller) TeamPulse(c echo.Context, req TeamPulseRequest) (*usecase.ListResult, error) {
	return h.engagement.TeamPulse(c.Request().Context(), req.TeamID, req.Limit)
}
