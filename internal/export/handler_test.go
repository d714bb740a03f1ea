package export

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pulsehq/analytics-backend/internal/analytics"
	"github.com/pulsehq/analytics-backend/internal/auth"
)

type fakeProvider struct {
	snapshots map[string]*analytics.Snapshot
}

func (f *fakeProvider) Current(tenantID string) (*analytics.Snapshot, bool) {
	snap, ok := f.snapshots[tenantID]
	return snap, ok
}

func downloadRequest(t *testing.T, target, tenantID string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if tenantID != "" {
		auth.SetClaimsForTest(c, &auth.Claims{TenantID: tenantID, UserID: "user_1"})
	}
	return c, rec
}

func testDownloadHandler() *Handler {
	provider := &fakeProvider{snapshots: map[string]*analytics.Snapshot{
		"tenant_a": testSnapshot(),
	}}
	return NewHandler(provider, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestDownload_CSV(t *testing.T) {
	h := testDownloadHandler()

	c, rec := downloadRequest(t, "/v1/analytics/export?format=csv", "tenant_a")
	if err := h.Download(c); err != nil {
		t.Fatalf("Download() error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("content type = %s, want text/csv", ct)
	}
	cd := rec.Header().Get(echo.HeaderContentDisposition)
	if !strings.Contains(cd, "attachment") || !strings.Contains(cd, ".csv") {
		t.Errorf("content disposition = %q, want csv attachment", cd)
	}
	if !strings.Contains(rec.Body.String(), "summary") {
		t.Error("body missing summary section")
	}
}

func TestDownload_DefaultsToCSV(t *testing.T) {
	h := testDownloadHandler()

	c, rec := downloadRequest(t, "/v1/analytics/export", "tenant_a")
	if err := h.Download(c); err != nil {
		t.Fatalf("Download() error: %v", err)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("content type = %s, want text/csv default", ct)
	}
}

func TestDownload_UnsupportedFormat(t *testing.T) {
	h := testDownloadHandler()

	c, _ := downloadRequest(t, "/v1/analytics/export?format=xlsx", "tenant_a")
	err := h.Download(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("error = %v, want 400", err)
	}
}

func TestDownload_NoSnapshotLoaded(t *testing.T) {
	h := testDownloadHandler()

	c, _ := downloadRequest(t, "/v1/analytics/export", "tenant_fresh")
	err := h.Download(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Errorf("error = %v, want 404 when nothing was ever loaded", err)
	}
}

func TestDownload_Unauthenticated(t *testing.T) {
	h := testDownloadHandler()

	c, _ := downloadRequest(t, "/v1/analytics/export", "")
	err := h.Download(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Errorf("error = %v, want 401", err)
	}
}
