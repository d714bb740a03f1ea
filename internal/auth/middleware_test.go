package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func newContext(t *testing.T, authHeader string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/analytics/summary", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func okHandler(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func TestAuthenticate(t *testing.T) {
	validator := NewJWTValidator([]byte("test-key"))
	m := NewMiddleware(validator)

	valid, err := validator.Issue("user_1", "tenant_a", time.Hour)
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	noTenantValidator := NewJWTValidator([]byte("test-key"))
	noTenant, err := noTenantValidator.Issue("user_1", "", time.Hour)
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	expired, err := validator.Issue("user_1", "tenant_a", -time.Hour)
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	otherKey, err := NewJWTValidator([]byte("other-key")).Issue("user_1", "tenant_a", time.Hour)
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"valid token", "Bearer " + valid, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"expired token", "Bearer " + expired, http.StatusUnauthorized},
		{"wrong key", "Bearer " + otherKey, http.StatusUnauthorized},
		{"no tenant claim", "Bearer " + noTenant, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newContext(t, tt.header)
			err := m.Authenticate(okHandler)(c)

			if tt.wantStatus == http.StatusOK {
				if err != nil {
					t.Fatalf("expected success, got %v", err)
				}
				return
			}

			httpErr, ok := err.(*echo.HTTPError)
			if !ok {
				t.Fatalf("expected HTTPError, got %v", err)
			}
			if httpErr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", httpErr.Code, tt.wantStatus)
			}
		})
	}
}

func TestRequireTenant(t *testing.T) {
	c, _ := newContext(t, "")

	if _, err := RequireTenant(c); err == nil {
		t.Error("expected error without claims")
	}

	SetClaimsForTest(c, &Claims{UserID: "user_1", TenantID: "tenant_a"})
	tenantID, err := RequireTenant(c)
	if err != nil {
		t.Fatalf("RequireTenant() error: %v", err)
	}
	if tenantID != "tenant_a" {
		t.Errorf("tenant = %s, want tenant_a", tenantID)
	}
}

func TestValidator_RoundTrip(t *testing.T) {
	validator := NewJWTValidator([]byte("test-key"))
	token, err := validator.Issue("user_1", "tenant_a", time.Hour)
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	claims, err := validator.Validate("Bearer " + token)
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if claims.UserID != "user_1" || claims.TenantID != "tenant_a" {
		t.Errorf("claims = %+v", claims)
	}
}
