package tables

import (
	"testing"
	"time"

	"github.com/maritime-school/training-admin/internal/datatable"
	"github.com/maritime-school/training-admin/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAgentsDefaultOrderByRank(t *testing.T) {
	table := Agents()
	rows := []*models.Agent{
		{ID: 1, NomPrenom: "ب", Grade: "حرس"},
		{ID: 2, NomPrenom: "ج", Grade: "عقيد"},
		{ID: 3, NomPrenom: "ا", Grade: "عقيد"},
		{ID: 4, NomPrenom: "د", Grade: "غير معروف"},
	}

	page := table.List(rows, datatable.Query{})
	var ids []uint
	for _, a := range page.Items {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []uint{3, 2, 1, 4}, ids)
}

func TestAgentsFilters(t *testing.T) {
	table := Agents()
	last := day(2024, 5, 1)
	rows := []*models.Agent{
		{ID: 1, NomPrenom: "أحمد", Grade: "رائد", Categorie: "ضابط سامي", Matricule: "123456", LastFormationDate: &last},
		{ID: 2, NomPrenom: "محمد", Grade: "حرس", Categorie: "عون", Matricule: "123999"},
		{ID: 3, NomPrenom: "احمد", Grade: "حرس", Categorie: "عون", Matricule: "654321"},
	}

	got := table.Filter(rows, datatable.Query{Search: "احمد"})
	assert.Len(t, got, 2)

	got = table.Filter(rows, datatable.Query{Prefixes: map[string]string{"matricule": "123"}, Filters: map[string]string{"categorie": "عون"}})
	require.Len(t, got, 1)
	assert.Equal(t, uint(2), got[0].ID)

	got = table.Filter(rows, datatable.Query{Filters: map[string]string{"year": "2024"}})
	require.Len(t, got, 1)
	assert.Equal(t, uint(1), got[0].ID)

	col, ok := table.Column("lastFormationDate")
	require.True(t, ok)
	assert.True(t, col.DefaultDesc)
}

func TestSessionsDefaultOrder(t *testing.T) {
	table := Sessions()
	rows := []*models.SessionFormation{
		{ID: 1, DateDebut: day(2025, 1, 1), DisplayStatus: models.SessionCompleted},
		{ID: 2, DateDebut: day(2025, 6, 1), DisplayStatus: models.SessionScheduled},
		{ID: 3, DateDebut: day(2025, 3, 1), DisplayStatus: models.SessionInProgress},
		{ID: 4, DateDebut: day(2025, 9, 1), DisplayStatus: models.SessionScheduled},
		{ID: 5, DateDebut: day(2024, 1, 1), DisplayStatus: models.SessionCompleted},
	}

	sorted := table.SortRows(rows, datatable.Sort{})
	var ids []uint
	for _, s := range sorted {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []uint{3, 4, 2, 1, 5}, ids)

	got := table.Filter(rows, datatable.Query{Filters: map[string]string{"status": models.SessionScheduled, "year": "2025"}})
	assert.Len(t, got, 2)
}

func TestAgentFormationsFilterAndExport(t *testing.T) {
	table := AgentFormations()
	reussi := models.ResultatReussi
	score := 16.0
	rows := []*models.AgentFormation{
		{ID: 1, AgentID: 7, FormationID: 2, DateDebut: day(2024, 2, 1), DateFin: day(2024, 2, 20), Resultat: &reussi, Moyenne: &score,
			Agent: &models.Agent{NomPrenom: "سامي", Matricule: "111111"}, Formation: &models.Formation{Formation: "ملاحة"}},
		{ID: 2, AgentID: 8, FormationID: 2, DateDebut: day(2025, 2, 1), DateFin: day(2025, 2, 20)},
	}

	got := table.Filter(rows, datatable.Query{Filters: map[string]string{"resultat": reussi, "agentId": "7"}})
	require.Len(t, got, 1)

	view := table.View(rows, datatable.Query{})
	assert.Equal(t, uint(2), view[0].ID, "latest enrollment first")

	data, err := table.ExportCSV(view)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"سامي","111111","ملاحة","2024-02-01","2024-02-20","","ناجح","16"`)
}

func TestEverySortableColumnValidates(t *testing.T) {
	check := func(name string, keys []string, validate func(datatable.Query) error) {
		for _, k := range keys {
			assert.NoError(t, validate(datatable.Query{Sort: datatable.Sort{Field: k, Order: datatable.Asc}}), "%s.%s", name, k)
		}
	}
	check("agents", []string{"nomPrenom", "grade", "matricule", "telephone", "lastFormationDate"}, Agents().Validate)
	check("sessions", []string{"formation", "dateDebut", "enrolledCount", "displayStatus"}, Sessions().Validate)
	check("users", []string{"name", "email", "role", "createdAt"}, Users().Validate)
	check("roles", []string{"name", "displayName", "userCount"}, Roles().Validate)

	assert.Error(t, Users().Validate(datatable.Query{Sort: datatable.Sort{Field: "hasActiveSession", Order: datatable.Asc}}))
	assert.Error(t, Formateurs().Validate(datatable.Query{Sort: datatable.Sort{Field: "rib", Order: datatable.Asc}}))
}

func TestPhoneColumnsExportGrouped(t *testing.T) {
	tel := "98765432"
	data, err := Agents().ExportCSV([]*models.Agent{
		{NomPrenom: "أ", Grade: "حرس", Matricule: "111111", Telephone: &tel},
		{NomPrenom: "ب", Grade: "حرس", Matricule: "222222"},
	})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"98 765 432"`)

	data, err = Formateurs().ExportCSV([]*models.Formateur{{NomPrenom: "ج", Grade: "نقيب", Telephone: "71234567"}})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"71 234 567"`)
}
