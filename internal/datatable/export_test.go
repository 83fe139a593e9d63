package datatable

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func exportRows() []person {
	score := 14.5
	return []person{
		{ID: 1, Name: `علي "الصغير"`, Grade: "نقيب", Matricule: "123456", Joined: time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC), Score: &score},
		{ID: 2, Name: "سامي, بن محمد", Grade: "حرس", Matricule: "654321"},
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"csv": FormatCSV, "JSON": FormatJSON, "xlsx": FormatExcel, " excel ": FormatExcel} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("pdf")
	assert.Error(t, err)
}

func TestExportCSVRoundTrip(t *testing.T) {
	table := peopleTable()
	rows := exportRows()

	data, err := table.ExportCSV(rows)
	require.NoError(t, err)

	text := string(data)
	require.True(t, strings.HasPrefix(text, utf8BOM+rtlMark))
	assert.Contains(t, text, "\r\n")
	assert.Contains(t, text, `"علي ""الصغير"""`)

	r := csv.NewReader(strings.NewReader(strings.TrimPrefix(text, utf8BOM+rtlMark)))
	records, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, []string{"الاسم واللقب", "الرتبة", "المعرف", "التاريخ", "المعدل"}, records[0])
	assert.Equal(t, []string{`علي "الصغير"`, "نقيب", "123456", "2024-09-01", "14.5"}, records[1])
	assert.Equal(t, []string{"سامي, بن محمد", "حرس", "654321", "", ""}, records[2])
}

func TestExportCSVWithoutRTL(t *testing.T) {
	table := peopleTable()
	table.RTL = false
	data, err := table.ExportCSV(nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), `"الاسم واللقب"`))
}

func TestExportJSONKeepsColumnOrder(t *testing.T) {
	table := peopleTable()
	data, err := table.ExportJSON(exportRows())
	require.NoError(t, err)

	text := string(data)
	assert.Less(t, strings.Index(text, `"name"`), strings.Index(text, `"grade"`))
	assert.Less(t, strings.Index(text, `"grade"`), strings.Index(text, `"matricule"`))
	assert.Less(t, strings.Index(text, `"matricule"`), strings.Index(text, `"joined"`))
	assert.Contains(t, text, "\n  {")

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, `علي "الصغير"`, decoded[0]["name"])
	assert.Equal(t, "2024-09-01", decoded[0]["joined"])
	assert.Equal(t, 14.5, decoded[0]["score"])
	assert.Nil(t, decoded[1]["joined"])
	assert.Nil(t, decoded[1]["score"])
}

func TestExportJSONEmpty(t *testing.T) {
	data, err := peopleTable().ExportJSON(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestExportExcel(t *testing.T) {
	table := peopleTable()
	data, err := table.ExportExcel(exportRows())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"people"}, f.GetSheetList())

	rows, err := f.GetRows("people")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "الاسم واللقب", rows[0][0])
	assert.Equal(t, "123456", rows[1][2])
	assert.Equal(t, "سامي, بن محمد", rows[2][0])

	width, err := f.GetColWidth("people", "A")
	require.NoError(t, err)
	assert.Equal(t, float64(DefaultColumnWidth), width)
}

func TestExportFileName(t *testing.T) {
	table := peopleTable()
	now := time.Date(2025, 6, 30, 15, 4, 0, 0, time.UTC)

	for _, format := range []Format{FormatCSV, FormatJSON, FormatExcel} {
		file, err := table.Export(exportRows(), format, now)
		require.NoError(t, err)
		assert.Equal(t, "people_2025-06-30."+string(format), file.Name)
		assert.NotEmpty(t, file.Data)
		assert.NotEmpty(t, file.ContentType)
	}

	_, err := table.Export(nil, "pdf", now)
	assert.Error(t, err)
}

func TestFormatValue(t *testing.T) {
	var nilTime *time.Time
	var nilString *string
	s := "x"
	assert.Equal(t, "", FormatValue(nil))
	assert.Equal(t, "", FormatValue(nilTime))
	assert.Equal(t, "", FormatValue(nilString))
	assert.Equal(t, "x", FormatValue(&s))
	assert.Equal(t, "", FormatValue(time.Time{}))
	assert.Equal(t, "42", FormatValue(uint(42)))
	assert.Equal(t, "true", FormatValue(true))
}
