// Package exporter serializes scrape runs to JSON, CSV and Excel and loads
// previously exported summary collections back in for the detail pass.
package exporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"classicist-scraper/internal/types"
)

// csvHeaders is the flat per-member column set shared by CSV and Excel output
var csvHeaders = []string{
	"name", "field", "city", "state", "location", "mailing_address",
	"phone", "email", "certified", "detail_url", "membership_level",
	"about", "social_media", "logo", "highlights", "photos", "timestamp",
}

// Exporter writes scrape runs to disk
type Exporter struct {
	outputDir string
	logger    types.Logger
}

// NewExporter creates an exporter rooted at outputDir, creating the
// directory if needed
func NewExporter(outputDir string, logger types.Logger) (*Exporter, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &Exporter{outputDir: outputDir, logger: logger}, nil
}

// Export writes run in the given format ("json", "csv" or "excel") to
// outputFile, or to a timestamped file in the output directory when
// outputFile is empty. Returns the path written.
func (e *Exporter) Export(run *types.ScrapeRun, format string, outputFile string) (string, error) {
	switch format {
	case "json":
		return e.writeJSON(run, outputFile)
	case "csv":
		return e.writeCSV(run, outputFile)
	case "excel":
		return e.writeXLSX(run, outputFile)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func (e *Exporter) defaultPath(ext string) string {
	stamp := time.Now().Format("20060102_150405")
	return filepath.Join(e.outputDir, fmt.Sprintf("members_%s.%s", stamp, ext))
}

func (e *Exporter) writeJSON(run *types.ScrapeRun, outputFile string) (string, error) {
	if outputFile == "" {
		outputFile = e.defaultPath("json")
	}

	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal run: %w", err)
	}
	if err := os.WriteFile(outputFile, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write output file: %w", err)
	}

	e.logger.Infof("Data exported to JSON: %s", outputFile)
	return outputFile, nil
}

func (e *Exporter) writeCSV(run *types.ScrapeRun, outputFile string) (string, error) {
	if outputFile == "" {
		outputFile = e.defaultPath("csv")
	}

	f, err := os.Create(outputFile)
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeaders); err != nil {
		return "", err
	}
	for _, member := range run.Records {
		if err := w.Write(flattenMember(member)); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	e.logger.Infof("Data exported to CSV: %s", outputFile)
	return outputFile, nil
}

func (e *Exporter) writeXLSX(run *types.ScrapeRun, outputFile string) (string, error) {
	if outputFile == "" {
		outputFile = e.defaultPath("xlsx")
	}

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	for i, h := range csvHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}
	for r, member := range run.Records {
		for c, v := range flattenMember(member) {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			f.SetCellValue(sheet, cell, v)
		}
	}
	for i := 1; i <= len(csvHeaders); i++ {
		col, _ := excelize.ColumnNumberToName(i)
		_ = f.SetColWidth(sheet, col, col, 28)
	}

	if err := f.SaveAs(outputFile); err != nil {
		return "", fmt.Errorf("failed to save workbook: %w", err)
	}

	e.logger.Infof("Data exported to Excel: %s", outputFile)
	return outputFile, nil
}

// flattenMember produces one flat row per member. Multi-value fields are
// joined with "; "; an unmerged member simply leaves the detail columns
// empty.
func flattenMember(m types.MemberRecord) []string {
	d := m.Detail
	if d == nil {
		d = &types.DetailRecord{}
	}
	return []string{
		m.Name,
		d.Field,
		d.City,
		d.State,
		d.Location,
		d.MailingAddress,
		d.Phone,
		d.Email,
		strconv.FormatBool(m.Certified),
		m.DetailURL,
		m.MembershipLevel,
		d.About,
		joinSocialLinks(d.SocialMedia),
		d.Logo,
		strings.Join(d.Highlights, "; "),
		strings.Join(d.Photos, "; "),
		m.Timestamp.Format(time.RFC3339),
	}
}

func joinSocialLinks(links []types.SocialLink) string {
	parts := make([]string, 0, len(links))
	for _, l := range links {
		parts = append(parts, l.Platform+":"+l.URL)
	}
	return strings.Join(parts, "; ")
}
