package bootstrap

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pulsehq/analytics-backend/internal/auth"
	"github.com/pulsehq/analytics-backend/internal/event"
	"github.com/pulsehq/analytics-backend/internal/shared"
	"github.com/pulsehq/analytics-backend/internal/timewindow"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestLoadConfig_DefaultPeriodUnset(t *testing.T) {
	t.Setenv("DEFAULT_PERIOD", "")
	if cfg := LoadConfig(); cfg.DefaultPeriod != "" {
		t.Errorf("DefaultPeriod = %q, want empty", cfg.DefaultPeriod)
	}
}

func TestProvideResolver_RejectsUnknownPeriod(t *testing.T) {
	resolver := ProvideResolver(&Config{})
	if _, err := resolver.Resolve("90d"); !errors.Is(err, shared.ErrInvalid) {
		t.Fatalf("Resolve(90d) error = %v, want ErrInvalid", err)
	}
}

func TestProvideResolver_ConfiguredFallback(t *testing.T) {
	t.Setenv("DEFAULT_PERIOD", "7d")
	resolver := ProvideResolver(LoadConfig())

	window, err := resolver.Resolve("90d")
	if err != nil {
		t.Fatalf("Resolve(90d) error: %v", err)
	}
	if window.Period != timewindow.PeriodWeek {
		t.Errorf("period = %s, want 7d", window.Period)
	}
}

// The summary endpoint, assembled from the same providers Run uses, must
// reject an unknown period token instead of silently serving another window.
func TestSummaryRejectsUnknownPeriodAsWired(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	events := event.NewStore(db)
	if err := events.Migrate(); err != nil {
		t.Fatalf("migration failed: %v", err)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := ProvideAnalyticsService(events, ProvideResolver(&Config{}), log)
	handler := ProvideAnalyticsHandler(ProvideDashboard(svc, log), svc, log)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/analytics/summary?period=bogus", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	auth.SetClaimsForTest(c, &auth.Claims{TenantID: "tenant_a", UserID: "user_1"})

	err = handler.GetSnapshot(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	if he.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", he.Code)
	}
}
