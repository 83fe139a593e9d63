package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/maritime-school/training-admin/internal/models"
	"github.com/maritime-school/training-admin/internal/roster"
	"github.com/maritime-school/training-admin/pkg/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rosterServer struct {
	mu      sync.Mutex
	session *models.SessionFormation
	rows    []*models.AgentFormation
	nextID  uint
	token   string
}

func newRosterServer(t *testing.T) (*rosterServer, *httptest.Server) {
	t.Helper()
	s := &rosterServer{
		session: &models.SessionFormation{
			ID:                 5,
			FormationID:        2,
			DateDebut:          time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
			DateFin:            time.Date(2025, 4, 20, 0, 0, 0, 0, time.UTC),
			NombreParticipants: 2,
		},
		nextID: 10,
		token:  "secret",
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", s.login)
	mux.HandleFunc("GET /api/session-agents", s.authed(s.roster))
	mux.HandleFunc("POST /api/session-agents", s.authed(s.add))
	mux.HandleFunc("PUT /api/session-agents/{id}", s.authed(s.update))
	mux.HandleFunc("DELETE /api/session-agents/{id}", s.authed(s.remove))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return s, srv
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *rosterServer) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+s.token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
			return
		}
		next(w, r)
	}
}

func (s *rosterServer) login(w http.ResponseWriter, r *http.Request) {
	var body map[string]string
	json.NewDecoder(r.Body).Decode(&body)
	if body["password"] != "pw" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token":     s.token,
		"expiresAt": time.Now().Add(time.Hour),
		"user":      models.User{ID: "u1", Email: body["email"], Role: "manager"},
	})
}

func (s *rosterServer) roster(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, models.SessionRoster{
		Session:   s.session,
		Agents:    s.rows,
		Capacity:  s.session.NombreParticipants,
		Remaining: s.session.NombreParticipants - len(s.rows),
	})
}

func (s *rosterServer) add(w http.ResponseWriter, r *http.Request) {
	var req models.AddSessionAgentRequest
	json.NewDecoder(r.Body).Decode(&req)

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.rows) >= s.session.NombreParticipants {
		writeJSON(w, http.StatusConflict, map[string]interface{}{"error": "session is full", "details": map[string]int{"capacity": 2}})
		return
	}
	s.nextID++
	sid := s.session.ID
	row := &models.AgentFormation{ID: s.nextID, AgentID: req.AgentID, FormationID: s.session.FormationID, SessionFormationID: &sid}
	s.rows = append(s.rows, row)
	writeJSON(w, http.StatusCreated, row)
}

func (s *rosterServer) find(r *http.Request) (int, bool) {
	id, _ := strconv.ParseUint(r.PathValue("id"), 10, 64)
	for i, row := range s.rows {
		if row.ID == uint(id) {
			return i, true
		}
	}
	return 0, false
}

func (s *rosterServer) update(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateSessionAgentRequest
	json.NewDecoder(r.Body).Decode(&req)

	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.find(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session agent not found"})
		return
	}
	if req.Resultat != nil {
		s.rows[i].Resultat = req.Resultat
	}
	if req.Moyenne != nil {
		s.rows[i].Moyenne = req.Moyenne
	}
	writeJSON(w, http.StatusOK, s.rows[i])
}

func (s *rosterServer) setCapacity(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.NombreParticipants = n
}

func (s *rosterServer) snapshot() []models.AgentFormation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.AgentFormation, len(s.rows))
	for i, row := range s.rows {
		out[i] = *row
	}
	return out
}

func (s *rosterServer) remove(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.find(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session agent not found"})
		return
	}
	s.rows = append(s.rows[:i], s.rows[i+1:]...)
	w.WriteHeader(http.StatusNoContent)
}

func TestClientRequiresToken(t *testing.T) {
	_, srv := newRosterServer(t)
	c := client.New(srv.URL)

	_, err := c.Roster(context.Background(), 5)
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Unauthorized", apiErr.Message)

	_, err = c.Login(context.Background(), "a@b.c", "wrong")
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "invalid credentials", apiErr.Message)

	user, err := c.Login(context.Background(), "a@b.c", "pw")
	require.NoError(t, err)
	assert.Equal(t, "manager", user.Role)

	r, err := c.Roster(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Remaining)
}

func TestEditorOverHTTP(t *testing.T) {
	srv, httpSrv := newRosterServer(t)
	c := client.New(httpSrv.URL, client.WithToken(srv.token))
	ctx := context.Background()

	e := roster.NewEditor(c, 5)
	require.NoError(t, e.Load(ctx))
	assert.Equal(t, 2, e.Remaining())

	m, err := e.Add(ctx, models.Agent{ID: 1, NomPrenom: "أحمد"})
	require.NoError(t, err)
	assert.Equal(t, roster.Committed, m.State)

	_, err = e.SetResultat(ctx, m.RowID, models.ResultatReussi)
	require.NoError(t, err)
	assert.Equal(t, models.ResultatReussi, *srv.snapshot()[0].Resultat)

	srv.setCapacity(1)
	require.NoError(t, e.Load(ctx))
	_, err = e.Add(ctx, models.Agent{ID: 2})
	assert.ErrorIs(t, err, roster.ErrSessionFull)

	srv.setCapacity(3)
	require.NoError(t, e.Load(ctx))
	_, err = e.Add(ctx, models.Agent{ID: 2})
	require.NoError(t, err)

	// Capacity shrank on the server after the editor loaded.
	srv.setCapacity(1)
	_, err = e.Add(ctx, models.Agent{ID: 3})
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Len(t, e.Rows(), 2)

	removed, _, err := e.Remove(ctx, m.RowID)
	require.NoError(t, err)
	assert.False(t, removed)
	removed, _, err = e.Remove(ctx, m.RowID)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Len(t, srv.snapshot(), 1)
}
