package exporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"classicist-scraper/internal/types"
)

// LoadSummaries reads a previously exported summary collection from a CSV or
// JSON file. The detail URL column is mandatory; rows without one are
// skipped. JSON input may be either a plain array of summary records or a
// full exported run.
func LoadSummaries(path string) ([]types.SummaryRecord, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return loadSummariesJSON(path)
	case ".csv":
		return loadSummariesCSV(path)
	default:
		return nil, fmt.Errorf("unsupported input format: %s", path)
	}
}

func loadSummariesJSON(path string) ([]types.SummaryRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}

	var summaries []types.SummaryRecord
	if err := json.Unmarshal(data, &summaries); err != nil {
		// Fall back to a full exported run
		var run types.ScrapeRun
		if runErr := json.Unmarshal(data, &run); runErr != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		for _, member := range run.Records {
			summaries = append(summaries, member.SummaryRecord)
		}
	}

	return filterSummaries(summaries), nil
}

func loadSummariesCSV(path string) ([]types.SummaryRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(rows) < 1 {
		return nil, nil
	}

	col := make(map[string]int)
	for i, name := range rows[0] {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := col["detail_url"]; !ok {
		return nil, fmt.Errorf("%s has no detail_url column", path)
	}

	cell := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var summaries []types.SummaryRecord
	for _, row := range rows[1:] {
		summaries = append(summaries, types.SummaryRecord{
			Name:            cell(row, "name"),
			Certified:       parseBool(cell(row, "certified")),
			DetailURL:       cell(row, "detail_url"),
			MembershipLevel: cell(row, "membership_level"),
		})
	}

	return filterSummaries(summaries), nil
}

// filterSummaries drops records without a detail URL
func filterSummaries(in []types.SummaryRecord) []types.SummaryRecord {
	out := make([]types.SummaryRecord, 0, len(in))
	for _, s := range in {
		if s.DetailURL == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "1", "yes", "y":
		return true
	}
	return false
}
