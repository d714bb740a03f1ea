package export

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pulsehq/analytics-backend/internal/analytics"
	"github.com/pulsehq/analytics-backend/internal/auth"
	"github.com/pulsehq/analytics-backend/internal/shared"
)

// SnapshotProvider is the committed-view lookup the handler reads from.
// *analytics.Dashboard is the production implementation.
type SnapshotProvider interface {
	Current(tenantID string) (*analytics.Snapshot, bool)
}

type Handler struct {
	dashboard SnapshotProvider
	logger    *slog.Logger
}

func NewHandler(dashboard SnapshotProvider, logger *slog.Logger) *Handler {
	return &Handler{
		dashboard: dashboard,
		logger:    logger.With("handler", "export"),
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/export", h.Download)
}

// Download renders the tenant's current snapshot as a file. It serves the
// committed view model only; if the tenant has not loaded a dashboard yet
// there is nothing truthful to export.
// @Summary      Export the current dashboard snapshot
// @Tags         analytics
// @Produce      text/csv
// @Param        format query string false "Export format (csv, json)" default(csv)
// @Success      200 {string} string "file download"
// @Failure      400 {object} shared.APIError
// @Failure      404 {object} shared.APIError
// @Security     BearerAuth
// @Router       /analytics/export [get]
func (h *Handler) Download(c echo.Context) error {
	tenantID, err := auth.RequireTenant(c)
	if err != nil {
		return err
	}

	format := Format(c.QueryParam("format"))
	if format == "" {
		format = FormatCSV
	}

	snap, ok := h.dashboard.Current(tenantID)
	if !ok {
		return shared.NotFound("no_snapshot", "no dashboard snapshot loaded for this tenant yet")
	}

	artifact, err := Encode(snap, format)
	if err != nil {
		return shared.FromError(err, "export_failed")
	}

	h.logger.Info("snapshot exported",
		"tenant_id", tenantID,
		"format", string(format),
		"bytes", len(artifact.Data),
	)

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", artifact.Filename))
	return c.Blob(http.StatusOK, artifact.ContentType, artifact.Data)
}
