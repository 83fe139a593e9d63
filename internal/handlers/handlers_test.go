package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/maritime-school/training-admin/internal/cache"
	"github.com/maritime-school/training-admin/internal/datatable"
	"github.com/maritime-school/training-admin/internal/events"
	"github.com/maritime-school/training-admin/internal/models"
	"github.com/maritime-school/training-admin/internal/permissions"
	"github.com/maritime-school/training-admin/internal/repositories/postgres"
	"github.com/maritime-school/training-admin/internal/roster"
	"github.com/maritime-school/training-admin/internal/services"
	"github.com/maritime-school/training-admin/internal/testutil"
	"github.com/maritime-school/training-admin/internal/utils"
	"github.com/maritime-school/training-admin/internal/validator"
	"github.com/maritime-school/training-admin/pkg/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassword = "password123"

var seed = services.Actor{UserID: "seed"}

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router   *gin.Engine
	services services.ServiceManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	memory := cache.NewMemoryCache()
	v := validator.New()
	deps := services.Dependencies{
		Repo:      postgres.NewRepository(testutil.NewTestDB(t)),
		Validator: v,
		Publisher: events.NewMemoryPublisher(logger),
		Cache:     memory,
		Logger:    logger,
	}

	var sm services.ServiceManager
	resolver := permissions.NewResolver(permissions.RoleSourceFunc(func(ctx context.Context) ([]*models.Role, error) {
		return sm.Role().ListAll(ctx)
	}), memory, time.Minute, logger)
	sm = services.NewServiceManager(deps, services.AuthOptions{
		Tokens:     services.NewTokenService("handler-test-secret"),
		SessionTTL: time.Hour,
	}, resolver)
	require.NoError(t, sm.Role().EnsureDefaults(context.Background()))

	router := gin.New()
	NewHandlerManager(sm, resolver, v, utils.NewSlogLogger(logger)).SetupRoutes(router)
	return &testServer{router: router, services: sm}
}

func (s *testServer) user(t *testing.T, email, role string) *models.User {
	t.Helper()
	user, err := s.services.User().Create(context.Background(), &services.CreateUserRequest{
		Email:    email,
		Name:     email,
		Password: testPassword,
		Role:     role,
	}, seed)
	require.NoError(t, err)
	return user
}

func (s *testServer) login(t *testing.T, email string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": testPassword})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var result services.LoginResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.NotEmpty(t, result.Token)
	return result.Token
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealthAndAuthentication(t *testing.T) {
	s := newTestServer(t)
	s.user(t, "admin@school.tn", "admin")

	w := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/agents", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Unauthorized", decode[ErrorResponse](t, w).Error)

	w = s.do(t, http.MethodGet, "/api/agents", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "admin@school.tn", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, services.ErrInvalidCredentials.Error(), decode[ErrorResponse](t, w).Error)

	w = s.do(t, http.MethodPost, "/api/auth/casdoor/callback", "", map[string]string{"code": "abc"})
	assert.Equal(t, http.StatusNotImplemented, w.Code)

	token := s.login(t, "admin@school.tn")
	w = s.do(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin@school.tn", decode[models.User](t, w).Email)

	w = s.do(t, http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[SuccessResponse](t, w).Success)

	w = s.do(t, http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAgentEndpoints(t *testing.T) {
	s := newTestServer(t)
	s.user(t, "admin@school.tn", "admin")
	token := s.login(t, "admin@school.tn")

	body := map[string]string{
		"nomPrenom": "محمد علي",
		"grade":     "رائد",
		"matricule": "12 34 56",
		"telephone": "98 765 432",
	}
	w := s.do(t, http.MethodPost, "/api/agents", token, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	agent := decode[models.Agent](t, w)
	assert.Equal(t, "123456", agent.Matricule)
	assert.Equal(t, "ضابط سامي", agent.Categorie)

	w = s.do(t, http.MethodPost, "/api/agents", token, body)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPost, "/api/agents", token, map[string]string{"nomPrenom": "x", "grade": "جنرال", "matricule": "654321"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Validation failed", decode[ErrorResponse](t, w).Error)

	w = s.do(t, http.MethodPost, "/api/agents", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/agents?sort=matricule&matricule=123", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[datatable.Page[*models.Agent]](t, w)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, datatable.Asc, page.Order)

	w = s.do(t, http.MethodGet, "/api/agents?sort=unknown", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/agents/export?format=csv", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "agents_")
	assert.Contains(t, w.Body.String(), "123456")

	w = s.do(t, http.MethodGet, "/api/agents/export?format=pdf", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/agents/abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/agents/999", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/agents/"+idPath(agent.ID)+"/formations", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, decode[datatable.Page[*models.AgentFormation]](t, w).Total)

	w = s.do(t, http.MethodDelete, "/api/agents/"+idPath(agent.ID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[SuccessResponse](t, w).Success)

	w = s.do(t, http.MethodGet, "/api/audit-logs?entity=agents", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	logs := decode[services.AuditLogPage](t, w)
	assert.EqualValues(t, 3, logs.Total)
}

func TestPermissionGates(t *testing.T) {
	s := newTestServer(t)
	s.user(t, "agent@school.tn", models.DefaultRole)
	s.user(t, "manager@school.tn", "manager")
	agentToken := s.login(t, "agent@school.tn")
	managerToken := s.login(t, "manager@school.tn")

	w := s.do(t, http.MethodGet, "/api/agents", agentToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/api/agents", agentToken, map[string]string{"nomPrenom": "x", "grade": "حرس", "matricule": "111111"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/api/agents/export", agentToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/api/permissions/me", agentToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[struct {
		Role         string   `json:"role"`
		Permissions  []string `json:"permissions"`
		UIComponents []string `json:"uiComponents"`
	}](t, w)
	assert.Equal(t, models.DefaultRole, me.Role)
	assert.Contains(t, me.Permissions, "agents:read")
	assert.Contains(t, me.Permissions, "session-agents:read")
	assert.NotContains(t, me.Permissions, "users:read")
	assert.Empty(t, me.UIComponents)

	w = s.do(t, http.MethodGet, "/api/users", agentToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/api/audit-logs", agentToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/api/sessions", agentToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/agents/export?format=json", managerToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/users", managerToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPost, "/api/roles", managerToken, map[string]string{"name": "auditor", "displayName": "مراقب"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/api/dashboard/stats", managerToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUserAndRoleEndpoints(t *testing.T) {
	s := newTestServer(t)
	admin := s.user(t, "admin@school.tn", "admin")
	token := s.login(t, "admin@school.tn")

	w := s.do(t, http.MethodPost, "/api/users", token, map[string]string{
		"email":    "Clerk@School.tn",
		"name":     "كاتب",
		"password": testPassword,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "password")
	clerk := decode[models.User](t, w)
	assert.Equal(t, "clerk@school.tn", clerk.Email)
	assert.Equal(t, models.DefaultRole, clerk.Role)

	clerkToken := s.login(t, "clerk@school.tn")

	w = s.do(t, http.MethodPut, "/api/users/"+clerk.ID+"/role", token, map[string]string{"role": "manager"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "manager", decode[models.User](t, w).Role)

	w = s.do(t, http.MethodGet, "/api/permissions/me", clerkToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"manager"`)

	w = s.do(t, http.MethodPut, "/api/users/"+clerk.ID+"/role", token, map[string]string{"role": "ghost"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = s.do(t, http.MethodDelete, "/api/users/"+clerk.ID+"/role", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.DefaultRole, decode[models.User](t, w).Role)

	w = s.do(t, http.MethodPost, "/api/users/kill-session", token, map[string]string{"userId": clerk.ID})
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodGet, "/api/auth/me", clerkToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPut, "/api/users/"+clerk.ID+"/password", token, map[string]string{"password": "short"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(t, http.MethodPut, "/api/users/"+clerk.ID+"/password", token, map[string]string{"password": "another-password"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodDelete, "/api/users/"+admin.ID, token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "self_delete", decode[struct {
		Details struct {
			Rule string `json:"rule"`
		} `json:"details"`
	}](t, w).Details.Rule)

	w = s.do(t, http.MethodPost, "/api/roles", token, map[string]interface{}{
		"name":        "auditor",
		"displayName": "مراقب",
		"permissions": []string{"agents:read"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/roles/auditor", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "مراقب", decode[models.Role](t, w).DisplayName)

	w = s.do(t, http.MethodDelete, "/api/roles/admin", token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodDelete, "/api/roles/auditor", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRosterEditorOverHTTP(t *testing.T) {
	s := newTestServer(t)
	s.user(t, "manager@school.tn", "manager")
	ctx := context.Background()

	formation, err := s.services.Formation().Create(ctx, &services.FormationRequest{
		Formation:          "سلامة الملاحة",
		TypeFormation:      models.TypeFormationBase,
		CapaciteAbsorption: 30,
	}, seed)
	require.NoError(t, err)

	start := time.Now().UTC().AddDate(0, 0, 7)
	session, err := s.services.SessionFormation().Create(ctx, &services.SessionFormationRequest{
		FormationID:        formation.ID,
		DateDebut:          services.NewDate(start),
		DateFin:            services.NewDate(start.AddDate(0, 0, 10)),
		NombreParticipants: 2,
	}, seed)
	require.NoError(t, err)

	agents := make([]*models.Agent, 0, 3)
	for _, matricule := range []string{"100001", "100002", "100003"} {
		a, err := s.services.Agent().Create(ctx, &services.AgentRequest{
			NomPrenom: "عون " + matricule,
			Grade:     "حرس",
			Matricule: matricule,
		}, seed)
		require.NoError(t, err)
		agents = append(agents, a)
	}

	srv := httptest.NewServer(s.router)
	t.Cleanup(srv.Close)
	c := client.New(srv.URL)
	_, err = c.Login(ctx, "manager@school.tn", testPassword)
	require.NoError(t, err)

	candidates, err := c.Candidates(ctx, session.ID, "1000")
	require.NoError(t, err)
	assert.Len(t, candidates, 3)

	e := roster.NewEditor(c, session.ID)
	require.NoError(t, e.Load(ctx))
	assert.Equal(t, 2, e.Remaining())

	m, err := e.Add(ctx, *agents[0])
	require.NoError(t, err)
	assert.Equal(t, roster.Committed, m.State)
	assert.NotZero(t, m.RowID)

	_, err = e.Add(ctx, *agents[0])
	assert.ErrorIs(t, err, roster.ErrAlreadyEnrolled)

	_, err = e.SetResultat(ctx, m.RowID, models.ResultatReussi)
	require.NoError(t, err)

	_, err = e.Add(ctx, *agents[1])
	require.NoError(t, err)
	assert.Equal(t, 0, e.Remaining())
	_, err = e.Add(ctx, *agents[2])
	assert.ErrorIs(t, err, roster.ErrSessionFull)

	// The server enforces capacity on its own.
	_, err = c.AddAgent(ctx, models.AddSessionAgentRequest{SessionID: session.ID, AgentID: agents[2].ID})
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.Status)

	removed, _, err := e.Remove(ctx, m.RowID)
	require.NoError(t, err)
	assert.False(t, removed)
	removed, _, err = e.Remove(ctx, m.RowID)
	require.NoError(t, err)
	assert.True(t, removed)

	r, err := c.Roster(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, r.Agents, 1)
	assert.Equal(t, agents[1].ID, r.Agents[0].AgentID)
	assert.Equal(t, 1, r.Remaining)

	candidates, err = c.Candidates(ctx, session.ID, "1000")
	require.NoError(t, err)
	assert.Len(t, candidates, 2)
}

func TestRosterUpdateChecksFieldComponents(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, err := s.services.Role().Create(ctx, &services.RoleRequest{
		Name:        "clerk",
		DisplayName: "كاتب",
		Permissions: []string{"session-agents:*"},
	}, seed)
	require.NoError(t, err)
	s.user(t, "clerk@school.tn", "clerk")
	s.user(t, "manager@school.tn", "manager")
	clerkToken := s.login(t, "clerk@school.tn")
	managerToken := s.login(t, "manager@school.tn")

	formation, err := s.services.Formation().Create(ctx, &services.FormationRequest{
		Formation:          "سلامة الملاحة",
		TypeFormation:      models.TypeFormationBase,
		CapaciteAbsorption: 30,
	}, seed)
	require.NoError(t, err)
	start := time.Now().UTC().AddDate(0, 0, 7)
	session, err := s.services.SessionFormation().Create(ctx, &services.SessionFormationRequest{
		FormationID:        formation.ID,
		DateDebut:          services.NewDate(start),
		DateFin:            services.NewDate(start.AddDate(0, 0, 10)),
		NombreParticipants: 5,
	}, seed)
	require.NoError(t, err)

	var agentIDs []uint
	for _, matricule := range []string{"100001", "100002"} {
		a, err := s.services.Agent().Create(ctx, &services.AgentRequest{NomPrenom: "عون " + matricule, Grade: "حرس", Matricule: matricule}, seed)
		require.NoError(t, err)
		agentIDs = append(agentIDs, a.ID)
	}
	row, err := s.services.SessionAgent().Add(ctx, &models.AddSessionAgentRequest{SessionID: session.ID, AgentID: agentIDs[0]}, seed)
	require.NoError(t, err)
	path := "/api/session-agents/" + strconv.FormatUint(uint64(row.ID), 10)

	w := s.do(t, http.MethodPost, path+"/confirm", clerkToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPut, path, clerkToken, map[string]string{"resultat": models.ResultatReussi})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), models.UIResultatDropdown)

	w = s.do(t, http.MethodPut, path, clerkToken, map[string]uint{"agentId": agentIDs[1]})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPut, path, clerkToken, map[string]float64{"moyenne": 15})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	stored, err := s.services.AgentFormation().GetByID(ctx, row.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.Resultat)
	assert.Equal(t, agentIDs[0], stored.AgentID)
	require.NotNil(t, stored.Moyenne)
	assert.Equal(t, 15.0, *stored.Moyenne)

	w = s.do(t, http.MethodPut, path, managerToken, map[string]string{"resultat": models.ResultatReussi})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[models.AgentFormation](t, w)
	require.NotNil(t, updated.Resultat)
	assert.Equal(t, models.ResultatReussi, *updated.Resultat)
}

func TestParseListQuery(t *testing.T) {
	table := &datatable.Table[*models.Agent]{
		Columns: []datatable.Column[*models.Agent]{
			{Key: "createdAt", Compare: func(a, b *models.Agent) int { return 0 }, DefaultDesc: true},
		},
		Prefixes: map[string]func(*models.Agent) string{"matricule": func(a *models.Agent) string { return a.Matricule }},
		Filters:  map[string]func(*models.Agent) string{"grade": func(a *models.Agent) string { return a.Grade }},
	}

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	query := url.Values{
		"sort":      {"createdAt"},
		"q":         {" علي "},
		"page":      {"2"},
		"matricule": {"12"},
		"grade":     {"حرس"},
		"other":     {"x"},
	}
	c.Request = httptest.NewRequest(http.MethodGet, "/?"+query.Encode(), nil)
	q, err := parseListQuery(c, table)
	require.NoError(t, err)
	assert.Equal(t, datatable.Sort{Field: "createdAt", Order: datatable.Desc}, q.Sort)
	assert.Equal(t, "علي", q.Search)
	assert.Equal(t, 2, q.Page)
	assert.Equal(t, map[string]string{"matricule": "12"}, q.Prefixes)
	assert.Equal(t, map[string]string{"grade": "حرس"}, q.Filters)

	c.Request = httptest.NewRequest(http.MethodGet, "/?page=two", nil)
	_, err = parseListQuery(c, table)
	assert.True(t, services.IsValidation(err))

	c.Request = httptest.NewRequest(http.MethodGet, "/?format=xlsx&ids=3,%205", nil)
	q, format, err := parseExportQuery(c, table)
	require.NoError(t, err)
	assert.Equal(t, datatable.FormatExcel, format)
	assert.Equal(t, []uint{3, 5}, q.IDs)

	c.Request = httptest.NewRequest(http.MethodGet, "/?ids=7", nil)
	q, format, err = parseExportQuery(c, table)
	require.NoError(t, err)
	assert.Equal(t, datatable.FormatCSV, format)
	assert.Equal(t, []uint{7}, q.IDs)
}

func idPath(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
