package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/maritime-school/training-admin/internal/models"
	"github.com/maritime-school/training-admin/internal/repositories"
	"github.com/maritime-school/training-admin/internal/repositories/postgres"
	"github.com/maritime-school/training-admin/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAgentCRUD(t *testing.T) {
	repo := postgres.NewRepository(testutil.NewTestDB(t))
	ctx := context.Background()

	agent := &models.Agent{NomPrenom: "أحمد", Grade: "رائد", Matricule: "123456"}
	require.NoError(t, repo.Agent().Create(ctx, nil, agent))
	require.NotZero(t, agent.ID)
	assert.Equal(t, "ضابط سامي", agent.Categorie)

	got, err := repo.Agent().GetByID(ctx, nil, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, "123456", got.Matricule)

	got.Grade = "وكيل"
	require.NoError(t, repo.Agent().Update(ctx, nil, got))
	got, err = repo.Agent().GetByMatricule(ctx, nil, "123456")
	require.NoError(t, err)
	assert.Equal(t, "ضابط صف", got.Categorie)

	dup := &models.Agent{NomPrenom: "x", Grade: "حرس", Matricule: "123456"}
	err = repo.Agent().Create(ctx, nil, dup)
	require.Error(t, err)
	assert.True(t, repositories.IsUniqueViolation(err))

	exists, err := repo.Agent().ExistsByMatricule(ctx, nil, "123456", agent.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, repo.Agent().Delete(ctx, nil, agent.ID))
	_, err = repo.Agent().GetByID(ctx, nil, agent.ID)
	assert.True(t, repositories.IsNotFoundError(err))
	assert.True(t, repositories.IsNotFoundError(repo.Agent().Delete(ctx, nil, agent.ID)))
}

func TestAgentSearchAndLastFormation(t *testing.T) {
	repo := postgres.NewRepository(testutil.NewTestDB(t))
	ctx := context.Background()

	var ids []uint
	for _, m := range []string{"100001", "100002", "100100", "200001"} {
		a := &models.Agent{NomPrenom: "a" + m, Grade: "حرس", Matricule: m}
		require.NoError(t, repo.Agent().Create(ctx, nil, a))
		ids = append(ids, a.ID)
	}

	found, err := repo.Agent().Search(ctx, nil, repositories.AgentSearch{MatriculePrefix: "1000", ExcludeIDs: []uint{ids[1]}, Limit: 10})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "100001", found[0].Matricule)

	formation := &models.Formation{Formation: "ملاحة", TypeFormation: models.TypeFormationBase, CapaciteAbsorption: 20}
	require.NoError(t, repo.Formation().Create(ctx, nil, formation))
	for _, d := range []time.Time{date(2024, 1, 10), date(2025, 2, 1), date(2023, 5, 5)} {
		require.NoError(t, repo.AgentFormation().Create(ctx, nil, &models.AgentFormation{
			AgentID: ids[0], FormationID: formation.ID, DateDebut: d, DateFin: d.AddDate(0, 0, 10),
		}))
	}

	latest, err := repo.Agent().LastFormationDates(ctx, nil)
	require.NoError(t, err)
	assert.True(t, latest[ids[0]].Equal(date(2025, 2, 1)))
	_, ok := latest[ids[1]]
	assert.False(t, ok)

	refs, err := repo.Formation().CountReferences(ctx, nil, formation.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), refs)
}

func TestSessionRosterQueries(t *testing.T) {
	repo := postgres.NewRepository(testutil.NewTestDB(t))
	ctx := context.Background()

	formation := &models.Formation{Formation: "إنقاذ", TypeFormation: models.TypeFormationRecyclage, CapaciteAbsorption: 10}
	require.NoError(t, repo.Formation().Create(ctx, nil, formation))
	session := &models.SessionFormation{FormationID: formation.ID, DateDebut: date(2025, 3, 1), DateFin: date(2025, 3, 15), NombreParticipants: 3, Statut: models.SessionScheduled}
	require.NoError(t, repo.SessionFormation().Create(ctx, nil, session))

	a1 := &models.Agent{NomPrenom: "a", Grade: "حرس", Matricule: "000001"}
	a2 := &models.Agent{NomPrenom: "b", Grade: "حرس", Matricule: "000002"}
	require.NoError(t, repo.Agent().Create(ctx, nil, a1))
	require.NoError(t, repo.Agent().Create(ctx, nil, a2))

	sid := session.ID
	reussi := models.ResultatReussi
	for _, row := range []*models.AgentFormation{
		{AgentID: a1.ID, FormationID: formation.ID, SessionFormationID: &sid, DateDebut: session.DateDebut, DateFin: session.DateFin, Resultat: &reussi},
		{AgentID: a2.ID, FormationID: formation.ID, SessionFormationID: &sid, DateDebut: session.DateDebut, DateFin: session.DateFin},
	} {
		require.NoError(t, repo.AgentFormation().Create(ctx, nil, row))
	}

	rows, err := repo.AgentFormation().List(ctx, nil, repositories.AgentFormationFilters{SessionFormationID: &sid})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.NotNil(t, rows[0].Agent)
	assert.Equal(t, "a", rows[0].Agent.NomPrenom)
	require.NotNil(t, rows[0].Formation)

	count, err := repo.AgentFormation().CountBySession(ctx, nil, sid)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	exists, err := repo.AgentFormation().ExistsInSession(ctx, nil, sid, a1.ID, 0)
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = repo.AgentFormation().ExistsInSession(ctx, nil, sid, a1.ID, rows[0].ID)
	require.NoError(t, err)
	assert.False(t, exists)

	counts, err := repo.SessionFormation().EnrolledCounts(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[sid])

	byResultat, err := repo.AgentFormation().CountByResultat(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), byResultat[models.ResultatReussi])
	assert.Equal(t, int64(1), byResultat[""])

	require.NoError(t, repo.SessionFormation().UpdateStatut(ctx, nil, sid, models.SessionCompleted))
	got, err := repo.SessionFormation().GetByID(ctx, nil, sid)
	require.NoError(t, err)
	assert.Equal(t, models.SessionCompleted, got.Statut)
	require.NotNil(t, got.Formation)

	moved := *session
	moved.DateDebut, moved.DateFin = date(2025, 4, 1), date(2025, 4, 15)
	aligned, err := repo.AgentFormation().AlignWithSession(ctx, nil, &moved)
	require.NoError(t, err)
	assert.Equal(t, int64(2), aligned)
	rows, err = repo.AgentFormation().List(ctx, nil, repositories.AgentFormationFilters{SessionFormationID: &sid})
	require.NoError(t, err)
	for _, r := range rows {
		assert.True(t, r.DateDebut.Equal(moved.DateDebut), "row %d", r.ID)
		assert.True(t, r.DateFin.Equal(moved.DateFin), "row %d", r.ID)
	}

	require.NoError(t, repo.AgentFormation().DetachSession(ctx, nil, sid))
	count, err = repo.AgentFormation().CountBySession(ctx, nil, sid)
	require.NoError(t, err)
	assert.Zero(t, count)
	total, err := repo.AgentFormation().Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestUsersRolesAndSessions(t *testing.T) {
	repo := postgres.NewRepository(testutil.NewTestDB(t))
	ctx := context.Background()
	now := time.Now()

	for i := range models.DefaultRoles {
		role := models.DefaultRoles[i]
		require.NoError(t, repo.Role().Create(ctx, nil, &role))
	}
	roles, err := repo.Role().ListAll(ctx, nil)
	require.NoError(t, err)
	require.Len(t, roles, 3)
	assert.Equal(t, []string{"*:*"}, roles[0].PermissionList())

	u1 := &models.User{ID: "u1", Email: "a@x.tn", Name: "A", Password: "h", Role: "manager"}
	u2 := &models.User{ID: "u2", Email: "b@x.tn", Name: "B", Password: "h", Role: "manager"}
	require.NoError(t, repo.User().Create(ctx, nil, u1))
	require.NoError(t, repo.User().Create(ctx, nil, u2))

	got, err := repo.User().GetByEmail(ctx, nil, "A@X.TN")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)

	byRole, err := repo.User().CountByRole(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), byRole["manager"])

	require.NoError(t, repo.User().UpdateRole(ctx, nil, "u1", "admin"))
	byRole, err = repo.User().CountByRole(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), byRole["manager"])
	assert.Equal(t, int64(1), byRole["admin"])
	assert.True(t, repositories.IsNotFoundError(repo.User().UpdateRole(ctx, nil, "nobody", "admin")))

	sessions := repo.AuthSession()
	require.NoError(t, sessions.Create(ctx, nil, &models.Session{ID: "s1", UserID: "u1", ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, sessions.Create(ctx, nil, &models.Session{ID: "s2", UserID: "u1", ExpiresAt: now.Add(-time.Hour)}))
	require.NoError(t, sessions.Create(ctx, nil, &models.Session{ID: "s3", UserID: "u2", ExpiresAt: now.Add(-time.Minute)}))

	active, err := sessions.ActiveUserIDs(ctx, nil, now)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"u1": true}, active)

	purged, err := sessions.DeleteExpired(ctx, nil, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), purged)

	ids, err := sessions.ListIDsByUser(ctx, nil, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, ids)

	killed, err := sessions.DeleteByUser(ctx, nil, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), killed)
}

func TestWithTransactionRollsBack(t *testing.T) {
	repo := postgres.NewRepository(testutil.NewTestDB(t))
	ctx := context.Background()

	err := repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := repo.Formateur().Create(ctx, tx, &models.Formateur{NomPrenom: "f", Grade: "نقيب"}); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.EqualError(t, err, "abort")

	count, err := repo.Formateur().Count(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.NoError(t, repo.Ping(ctx))
}

func TestAuditLogList(t *testing.T) {
	repo := postgres.NewRepository(testutil.NewTestDB(t))
	ctx := context.Background()

	for i, entity := range []string{"agents", "agents", "roles"} {
		require.NoError(t, repo.AuditLog().Create(ctx, nil, &models.AuditLog{
			Entity:    entity,
			EntityID:  "1",
			Action:    models.AuditCreated,
			ActorID:   "u1",
			Changes:   models.StringList(),
			CreatedAt: date(2025, 1, i+1),
		}))
	}

	entries, total, err := repo.AuditLog().List(ctx, nil, repositories.AuditLogFilters{Entity: "agents", Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].CreatedAt.Equal(date(2025, 1, 2)))
}
