package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"convocore/internal/common"
	"convocore/internal/models"
	"convocore/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

// stubTenantService records which operations were reached; the scoping
// tests assert foreign ids are rejected before the service is touched.
type stubTenantService struct {
	tenant *models.Tenant
	err    error
	calls  []string
}

func (s *stubTenantService) Create(context.Context, *models.Tenant) error {
	s.calls = append(s.calls, "Create")
	return s.err
}

func (s *stubTenantService) GetByID(context.Context, uuid.UUID) (*models.Tenant, error) {
	s.calls = append(s.calls, "GetByID")
	return s.tenant, s.err
}

func (s *stubTenantService) GetBySubdomain(context.Context, string) (*models.Tenant, error) {
	s.calls = append(s.calls, "GetBySubdomain")
	return s.tenant, s.err
}

func (s *stubTenantService) Update(context.Context, uuid.UUID, *services.TenantUpdate) (*models.Tenant, error) {
	s.calls = append(s.calls, "Update")
	return s.tenant, s.err
}

func (s *stubTenantService) Activate(context.Context, uuid.UUID) error {
	s.calls = append(s.calls, "Activate")
	return s.err
}

func (s *stubTenantService) Deactivate(context.Context, uuid.UUID) error {
	s.calls = append(s.calls, "Deactivate")
	return s.err
}

func (s *stubTenantService) Delete(context.Context, uuid.UUID) error {
	s.calls = append(s.calls, "Delete")
	return s.err
}

func (s *stubTenantService) CanAddUser(context.Context, uuid.UUID) (bool, error) {
	s.calls = append(s.calls, "CanAddUser")
	return true, s.err
}

func tenantTestContext(method, body string, principal *common.Principal, id string) (*echo.Echo, echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()

	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	req = req.WithContext(common.WithPrincipal(req.Context(), principal))

	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if id != "" {
		c.SetPath("/v1/tenants/:id")
		c.SetParamNames("id")
		c.SetParamValues(id)
	}
	return e, c, rec
}

func TestTenantGet_OwnTenant(t *testing.T) {
	tenantID := uuid.New()
	svc := &stubTenantService{tenant: &models.Tenant{ID: tenantID, Subdomain: "acme", IsActive: true}}
	h := NewTenantHandlers(svc)

	principal := &common.Principal{UserID: uuid.New(), TenantID: tenantID}
	_, c, rec := tenantTestContext(http.MethodGet, "", principal, tenantID.String())

	assert.NoError(t, h.Get(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "acme")
}

func TestTenantGet_ForeignTenantIsNotFound(t *testing.T) {
	svc := &stubTenantService{tenant: &models.Tenant{ID: uuid.New(), Subdomain: "other"}}
	h := NewTenantHandlers(svc)

	// The caller is scoped to a different tenant than the one in the path.
	principal := &common.Principal{UserID: uuid.New(), TenantID: uuid.New()}
	_, c, rec := tenantTestContext(http.MethodGet, "", principal, uuid.New().String())

	assert.NoError(t, h.Get(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, svc.calls)
}

func TestTenantGet_InvalidID(t *testing.T) {
	svc := &stubTenantService{}
	h := NewTenantHandlers(svc)

	principal := &common.Principal{UserID: uuid.New(), TenantID: uuid.New()}
	e, c, rec := tenantTestContext(http.MethodGet, "", principal, "not-a-uuid")

	if err := h.Get(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTenantUpdate_ForeignTenantIsNotFound(t *testing.T) {
	svc := &stubTenantService{}
	h := NewTenantHandlers(svc)

	principal := &common.Principal{UserID: uuid.New(), TenantID: uuid.New()}
	_, c, rec := tenantTestContext(http.MethodPatch, `{"name":"hijacked"}`, principal, uuid.New().String())

	assert.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, svc.calls)
}

func TestTenantDelete_ForeignTenantIsNotFound(t *testing.T) {
	svc := &stubTenantService{}
	h := NewTenantHandlers(svc)

	principal := &common.Principal{UserID: uuid.New(), TenantID: uuid.New()}
	_, c, rec := tenantTestContext(http.MethodDelete, "", principal, uuid.New().String())

	assert.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, svc.calls)
}

func TestTenantDeactivate_ForeignTenantIsNotFound(t *testing.T) {
	svc := &stubTenantService{}
	h := NewTenantHandlers(svc)

	principal := &common.Principal{UserID: uuid.New(), TenantID: uuid.New()}
	_, c, rec := tenantTestContext(http.MethodPost, "", principal, uuid.New().String())

	assert.NoError(t, h.Deactivate(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, svc.calls)
}

func TestTenantList_ReturnsOnlyCallerTenant(t *testing.T) {
	tenantID := uuid.New()
	svc := &stubTenantService{tenant: &models.Tenant{ID: tenantID, Subdomain: "acme", IsActive: true}}
	h := NewTenantHandlers(svc)

	principal := &common.Principal{UserID: uuid.New(), TenantID: tenantID}
	_, c, rec := tenantTestContext(http.MethodGet, "", principal, "")

	assert.NoError(t, h.List(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var tenants []*models.Tenant
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tenants))
	assert.Len(t, tenants, 1)
	assert.Equal(t, tenantID, tenants[0].ID)
}
