package exporter

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classicist-scraper/internal/types"
)

func sampleRun() *types.ScrapeRun {
	started := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &types.ScrapeRun{
		SourceURL: "https://www.classicist.org/membership-directory/",
		StartedAt: started,
		Records: []types.MemberRecord{
			{
				SummaryRecord: types.SummaryRecord{
					Name:      "Jane Architect",
					Certified: true,
					DetailURL: "https://www.classicist.org/members/jane/",
				},
				Detail: &types.DetailRecord{
					Field:          "Architecture",
					City:           "Roswell",
					State:          "GA",
					MailingAddress: "604 Macy Drive Roswell, GA 30076",
					Email:          "jane@example.com",
					Highlights:     []string{"Palladio Award 2021"},
					SocialMedia:    []types.SocialLink{{Platform: "facebook", URL: "https://facebook.com/jane", Text: "fb"}},
					Photos:         []string{"https://cdn.example.com/p1.jpg"},
				},
				Timestamp: started,
			},
			{
				SummaryRecord: types.SummaryRecord{
					Name:      "John Builder",
					DetailURL: "https://www.classicist.org/members/john/",
				},
				Timestamp: started,
			},
		},
		Errors: []types.ScrapeError{
			{DetailURL: "https://www.classicist.org/members/broken/", Reason: "navigation timeout"},
		},
	}
}

func newTestExporter(t *testing.T) (*Exporter, string) {
	t.Helper()
	dir := t.TempDir()
	e, err := NewExporter(dir, logrus.New())
	require.NoError(t, err)
	return e, dir
}

func TestExportJSON_RoundTrip(t *testing.T) {
	e, dir := newTestExporter(t)
	run := sampleRun()

	path, err := e.Export(run, "json", filepath.Join(dir, "members.json"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var loaded types.ScrapeRun
	require.NoError(t, json.Unmarshal(data, &loaded))
	assert.Equal(t, run.SourceURL, loaded.SourceURL)
	require.Len(t, loaded.Records, 2)
	assert.Equal(t, "Jane Architect", loaded.Records[0].Name)
	require.NotNil(t, loaded.Records[0].Detail)
	assert.Equal(t, "GA", loaded.Records[0].Detail.State)
	assert.Nil(t, loaded.Records[1].Detail)
	require.Len(t, loaded.Errors, 1)
}

func TestExportCSV(t *testing.T) {
	e, dir := newTestExporter(t)

	path, err := e.Export(sampleRun(), "csv", filepath.Join(dir, "members.csv"))
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, csvHeaders, rows[0])

	jane := rows[1]
	assert.Equal(t, "Jane Architect", jane[0])
	assert.Equal(t, "Architecture", jane[1])
	assert.Equal(t, "Roswell", jane[2])
	assert.Equal(t, "GA", jane[3])
	assert.Equal(t, "true", jane[8])
	assert.Equal(t, "facebook:https://facebook.com/jane", jane[12])
	assert.Equal(t, "Palladio Award 2021", jane[14])

	// Unmerged member leaves detail columns empty
	john := rows[2]
	assert.Equal(t, "John Builder", john[0])
	assert.Equal(t, "", john[1])
	assert.Equal(t, "false", john[8])
}

func TestExportXLSX(t *testing.T) {
	e, dir := newTestExporter(t)

	path, err := e.Export(sampleRun(), "excel", filepath.Join(dir, "members.xlsx"))
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestExport_UnsupportedFormat(t *testing.T) {
	e, _ := newTestExporter(t)

	_, err := e.Export(sampleRun(), "parquet", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")
}

func TestExport_DefaultFilename(t *testing.T) {
	e, dir := newTestExporter(t)

	path, err := e.Export(sampleRun(), "json", "")
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))
	assert.Contains(t, filepath.Base(path), "members_")
}

func TestLoadSummaries_CSVRoundTrip(t *testing.T) {
	e, dir := newTestExporter(t)

	path, err := e.Export(sampleRun(), "csv", filepath.Join(dir, "members.csv"))
	require.NoError(t, err)

	summaries, err := LoadSummaries(path)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "Jane Architect", summaries[0].Name)
	assert.True(t, summaries[0].Certified)
	assert.Equal(t, "https://www.classicist.org/members/jane/", summaries[0].DetailURL)
	assert.False(t, summaries[1].Certified)
}

func TestLoadSummaries_JSONRun(t *testing.T) {
	e, dir := newTestExporter(t)

	path, err := e.Export(sampleRun(), "json", filepath.Join(dir, "members.json"))
	require.NoError(t, err)

	summaries, err := LoadSummaries(path)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "John Builder", summaries[1].Name)
}

func TestLoadSummaries_JSONArray(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "summaries.json")
	payload := `[
		{"name":"A","certified":true,"detail_url":"https://www.classicist.org/members/a/"},
		{"name":"No URL","certified":false,"detail_url":""}
	]`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0644))

	summaries, err := LoadSummaries(path)
	require.NoError(t, err)
	// Records without a detail URL are dropped
	require.Len(t, summaries, 1)
	assert.Equal(t, "A", summaries[0].Name)
}

func TestLoadSummaries_MissingURLColumn(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("name,certified\nA,true\n"), 0644))

	_, err := LoadSummaries(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "detail_url")
}

func TestLoadSummaries_UnsupportedExtension(t *testing.T) {
	_, err := LoadSummaries("members.xml")
	require.Error(t, err)
}
