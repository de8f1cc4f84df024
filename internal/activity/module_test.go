package activity

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"prospectai_backend/internal/activity/repository"
	apphttp "prospectai_backend/internal/http"
	"prospectai_backend/platform/httpkit"
	"prospectai_backend/platform/logger"
	"prospectai_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type memoryRepo struct{ entries []repository.Entry }

func (m *memoryRepo) Create(_ context.Context, e repository.Entry) (repository.Entry, error) {
	m.entries = append(m.entries, e)
	return e, nil
}

func (m *memoryRepo) List(_ context.Context, p repository.ListParams) ([]repository.Entry, int, error) {
	var out []repository.Entry
	for _, e := range m.entries {
		if e.TenantID == p.TenantID {
			out = append(out, e)
		}
	}
	return out, len(out), nil
}

func newEngine(m *Module, tenant uuid.UUID, roles ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	protected := engine.Group("/api/v1", func(c *gin.Context) {
		c.Set(httpkit.ContextUserIDKey, uuid.New())
		c.Set(httpkit.ContextTenantIDKey, tenant)
		c.Set(httpkit.ContextRolesKey, roles)
		c.Next()
	})
	m.RegisterRoutes(&apphttp.RouterContext{Engine: engine, Protected: protected})
	return engine
}

func TestActivityRoute(t *testing.T) {
	tenant := uuid.New()
	repo := &memoryRepo{entries: []repository.Entry{
		{ID: uuid.New(), TenantID: tenant, Type: repository.TypeLeadCreated, Description: "Lead Carlos criado"},
		{ID: uuid.New(), TenantID: uuid.New(), Type: repository.TypeLeadCreated, Description: "other company"},
	}}
	m := newModule(repo, validator.New(), logger.NewWithWriter("test", io.Discard))

	rec := httptest.NewRecorder()
	newEngine(m, tenant, httpkit.RoleManager).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/prospect/activity", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Items []struct {
			Description string `json:"description"`
		} `json:"items"`
		Total int `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Total != 1 || body.Items[0].Description != "Lead Carlos criado" {
		t.Fatalf("unexpected body %+v", body)
	}

	rec = httptest.NewRecorder()
	newEngine(m, tenant, httpkit.RoleSalesperson).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/prospect/activity", nil))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("salespeople must not read the activity log, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	newEngine(m, tenant, httpkit.RoleManager).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/prospect/activity?type=bogus", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown type should fail validation, got %d", rec.Code)
	}
}
