package datatable

import (
	"fmt"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type person struct {
	ID        uint
	Name      string
	Grade     string
	Matricule string
	Joined    time.Time
	Score     *float64
}

func peopleTable() *Table[person] {
	return &Table[person]{
		Name: "people",
		RTL:  true,
		Columns: []Column[person]{
			{Key: "name", Header: "الاسم واللقب", Value: func(p person) any { return p.Name }, Compare: By(func(p person) string { return p.Name }, CompareString)},
			{Key: "grade", Header: "الرتبة", Value: func(p person) any { return p.Grade }, Compare: By(func(p person) string { return p.Grade }, CompareRank)},
			{Key: "matricule", Header: "المعرف", Value: func(p person) any { return p.Matricule }, Compare: By(func(p person) string { return p.Matricule }, CompareString)},
			{Key: "joined", Header: "التاريخ", Value: func(p person) any { return p.Joined }, Compare: By(func(p person) any { return p.Joined }, CompareDate), DefaultDesc: true},
			{Key: "score", Header: "المعدل", Value: func(p person) any { return p.Score }},
		},
		Search:       func(p person) []string { return []string{p.Name} },
		Prefixes:     map[string]func(person) string{"matricule": func(p person) string { return p.Matricule }},
		Filters:      map[string]func(person) string{"grade": func(p person) string { return p.Grade }},
		DefaultOrder: By(func(p person) string { return p.Grade }, CompareRank),
		ID:           func(p person) uint { return p.ID },
	}
}

func samplePeople(n int) []person {
	gradesCycle := []string{"حرس", "رائد", "عميد", "وكيل", "نقيب"}
	out := make([]person, n)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range out {
		score := float64(i % 20)
		out[i] = person{
			ID:        uint(i + 1),
			Name:      fmt.Sprintf("أحمد %03d", i),
			Grade:     gradesCycle[i%len(gradesCycle)],
			Matricule: fmt.Sprintf("%06d", 100000+i*7),
			Joined:    base.AddDate(0, 0, i),
			Score:     &score,
		}
	}
	return out
}

func TestSortAscThenDescIsReverse(t *testing.T) {
	table := peopleTable()
	rows := samplePeople(37)

	for _, field := range []string{"name", "matricule", "joined"} {
		asc := table.SortRows(rows, Sort{Field: field, Order: Asc})
		desc := table.SortRows(rows, Sort{Field: field, Order: Desc})
		reversed := slices.Clone(desc)
		slices.Reverse(reversed)
		assert.Equal(t, asc, reversed, field)
	}
}

func TestSortDoesNotMutateInput(t *testing.T) {
	table := peopleTable()
	rows := samplePeople(5)
	before := slices.Clone(rows)
	table.SortRows(rows, Sort{Field: "name", Order: Desc})
	assert.Equal(t, before, rows)
}

func TestDefaultOrderIsRank(t *testing.T) {
	table := peopleTable()
	rows := []person{{ID: 1, Grade: "حرس"}, {ID: 2, Grade: "مجهول"}, {ID: 3, Grade: "عميد"}, {ID: 4, Grade: "عقيد"}}

	sorted := table.SortRows(rows, Sort{})
	var got []string
	for _, p := range sorted {
		got = append(got, p.Grade)
	}
	assert.Equal(t, []string{"عميد", "عقيد", "حرس", "مجهول"}, got)

	table.DefaultOrder = nil
	assert.Equal(t, rows, table.SortRows(rows, Sort{}))
}

func TestNextSort(t *testing.T) {
	s := NextSort(Sort{}, "name", false)
	assert.Equal(t, Sort{Field: "name", Order: Asc}, s)
	s = NextSort(s, "name", false)
	assert.Equal(t, Sort{Field: "name", Order: Desc}, s)
	s = NextSort(s, "name", false)
	assert.Equal(t, Sort{Field: "name", Order: Asc}, s)

	s = NextSort(s, "joined", true)
	assert.Equal(t, Sort{Field: "joined", Order: Desc}, s)
	s = NextSort(s, "grade", false)
	assert.Equal(t, Sort{Field: "grade", Order: Asc}, s)

	table := peopleTable()
	clicked, err := table.Click(Sort{}, "joined")
	require.NoError(t, err)
	assert.Equal(t, Desc, clicked.Order)

	_, err = table.Click(Sort{}, "score")
	assert.ErrorIs(t, err, ErrUnknownSortField)
}

func TestFilterPredicatesHold(t *testing.T) {
	table := peopleTable()
	rows := samplePeople(60)

	queries := []Query{
		{Search: "احمد 01"},
		{Prefixes: map[string]string{"matricule": "1001"}},
		{Filters: map[string]string{"grade": "رائد"}},
		{Search: "أحمد", Filters: map[string]string{"grade": "عميد"}, Prefixes: map[string]string{"matricule": "100"}},
		{Search: "لا أحد"},
	}
	for _, q := range queries {
		filtered := table.Filter(rows, q)
		assert.LessOrEqual(t, len(filtered), len(rows))
		for _, p := range filtered {
			if q.Search != "" {
				assert.Contains(t, strings.ReplaceAll(p.Name, "أ", "ا"), strings.ReplaceAll(q.Search, "أ", "ا"))
			}
			if m := q.Prefixes["matricule"]; m != "" {
				assert.True(t, strings.HasPrefix(p.Matricule, m))
			}
			if g := q.Filters["grade"]; g != "" {
				assert.Equal(t, g, p.Grade)
			}
		}
	}

	assert.Empty(t, table.Filter(rows, Query{Search: "لا أحد"}))
	assert.Len(t, table.Filter(rows, Query{Filters: map[string]string{"grade": "رائد"}}), 12)
}

func TestFilterByIDs(t *testing.T) {
	table := peopleTable()
	rows := samplePeople(20)
	got := table.Filter(rows, Query{IDs: []uint{3, 7, 99}})
	require.Len(t, got, 2)
	assert.Equal(t, uint(3), got[0].ID)
	assert.Equal(t, uint(7), got[1].ID)
}

func TestPaginationConcatenatesToView(t *testing.T) {
	table := peopleTable()
	for _, n := range []int{0, 1, 9, 10, 11, 25, 40} {
		rows := samplePeople(n)
		q := Query{Sort: Sort{Field: "name", Order: Asc}}
		view := table.View(rows, q)

		first := table.List(rows, q)
		expectedPages := (n + PageSize - 1) / PageSize
		if expectedPages == 0 {
			expectedPages = 1
		}
		assert.Equal(t, expectedPages, first.PageCount, "n=%d", n)
		assert.Equal(t, n, first.Total)

		var all []person
		for p := 1; p <= first.PageCount; p++ {
			q.Page = p
			page := table.List(rows, q)
			assert.LessOrEqual(t, len(page.Items), PageSize)
			all = append(all, page.Items...)
		}
		if n == 0 {
			assert.Empty(t, all)
			continue
		}
		assert.Equal(t, view, all, "n=%d", n)
	}
}

func TestPaginateClampsPage(t *testing.T) {
	rows := samplePeople(25)

	items, page, count := Paginate(rows, 9)
	assert.Equal(t, 3, page)
	assert.Equal(t, 3, count)
	assert.Len(t, items, 5)

	items, page, _ = Paginate(rows, -2)
	assert.Equal(t, 1, page)
	assert.Len(t, items, PageSize)

	items, page, count = Paginate([]person{}, 4)
	assert.Equal(t, 1, page)
	assert.Equal(t, 1, count)
	assert.Empty(t, items)
}

func TestValidate(t *testing.T) {
	table := peopleTable()
	assert.NoError(t, table.Validate(Query{}))
	assert.NoError(t, table.Validate(Query{Sort: Sort{Field: "grade", Order: Desc}}))
	assert.ErrorIs(t, table.Validate(Query{Sort: Sort{Field: "nope", Order: Asc}}), ErrUnknownSortField)
	assert.ErrorIs(t, table.Validate(Query{Sort: Sort{Field: "score", Order: Asc}}), ErrUnknownSortField)
	assert.ErrorIs(t, table.Validate(Query{Sort: Sort{Field: "name", Order: "up"}}), ErrInvalidOrder)
}

func TestEpochMillis(t *testing.T) {
	d := time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, d.UnixMilli(), EpochMillis(d))
	assert.Equal(t, d.UnixMilli(), EpochMillis(&d))
	assert.Equal(t, d.UnixMilli(), EpochMillis("2025-03-04"))
	assert.Equal(t, d.UnixMilli(), EpochMillis("2025-03-04T00:00:00Z"))
	assert.Equal(t, int64(0), EpochMillis("not a date"))
	assert.Equal(t, int64(0), EpochMillis((*time.Time)(nil)))
	assert.Equal(t, -1, CompareDate("2025-01-01", d))
}

func TestThen(t *testing.T) {
	rows := []person{{ID: 1, Grade: "رائد", Name: "ب"}, {ID: 2, Grade: "رائد", Name: "ا"}, {ID: 3, Grade: "عميد", Name: "ت"}}
	cmp := Then(
		By(func(p person) string { return p.Grade }, CompareRank),
		By(func(p person) string { return p.Name }, CompareString),
	)
	sorted := slices.Clone(rows)
	slices.SortStableFunc(sorted, cmp)
	assert.Equal(t, []uint{3, 2, 1}, []uint{sorted[0].ID, sorted[1].ID, sorted[2].ID})
}
