package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"kbaudit/internal/store"
)

const (
	SheetName  = "Audit Report"
	filePrefix = "AI_Audit_Report_"
	fileExt    = ".xlsx"
)

// ErrNoData is returned when there are no articles to export.
var ErrNoData = errors.New("no articles to report")

type column struct {
	header string
	width  float64
	value  func(store.Article) any
}

var columns = []column{
	{"Article ID", 15, func(a store.Article) any { return "KB-" + customID(a.CustomID) }},
	{"Article Title", 40, func(a store.Article) any { return a.Title }},
	{"Category", 20, func(a store.Article) any { return fallback(a.Category, "Unknown") }},
	{"URL", 30, func(a store.Article) any { return a.URL }},
	{"Last Updated", 15, func(a store.Article) any { return formatDate(a.LastUpdated) }},
	{"Topics Covered", 30, func(a store.Article) any { return a.Topics }},
	{"Content Type", 20, func(a store.Article) any { return a.ContentType }},
	{"Word Count", 12, func(a store.Article) any { return a.WordCount }},
	{"Has Screenshots", 15, func(a store.Article) any { return yesNo(a.HasScreenshots) }},
	{"Gaps Identified", 50, func(a store.Article) any { return a.Gap }},
}

// FileName returns the report name for a given export time.
func FileName(now time.Time) string {
	return fmt.Sprintf("%s%d%s", filePrefix, now.Unix(), fileExt)
}

// Write renders rows into dir and returns the created file path.
func Write(dir string, rows []store.Article, now time.Time) (string, error) {
	if len(rows) == 0 {
		return "", ErrNoData
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return "", fmt.Errorf("name sheet: %w", err)
	}
	headerStyle, cellStyle, err := newStyles(f)
	if err != nil {
		return "", err
	}

	lastCol, err := excelize.ColumnNumberToName(len(columns))
	if err != nil {
		return "", err
	}
	for i, col := range columns {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return "", err
		}
		if err := f.SetColWidth(SheetName, name, name, col.width); err != nil {
			return "", fmt.Errorf("set width %s: %w", name, err)
		}
		if err := f.SetCellValue(SheetName, name+"1", col.header); err != nil {
			return "", fmt.Errorf("write header: %w", err)
		}
	}
	if err := f.SetCellStyle(SheetName, "A1", lastCol+"1", headerStyle); err != nil {
		return "", fmt.Errorf("style header: %w", err)
	}

	for r, row := range rows {
		for c, col := range columns {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return "", err
			}
			if err := f.SetCellValue(SheetName, cell, col.value(row)); err != nil {
				return "", fmt.Errorf("write %s: %w", cell, err)
			}
		}
	}
	lastCell := fmt.Sprintf("%s%d", lastCol, len(rows)+1)
	if err := f.SetCellStyle(SheetName, "A2", lastCell, cellStyle); err != nil {
		return "", fmt.Errorf("style cells: %w", err)
	}

	path := filepath.Join(dir, FileName(now))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save report: %w", err)
	}
	return path, nil
}

// Latest returns the most recent report in dir, or os.ErrNotExist.
func Latest(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, filePrefix+"*"+fileExt))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no report in %s: %w", dir, os.ErrNotExist)
	}
	type candidate struct {
		path    string
		modTime time.Time
	}
	found := make([]candidate, 0, len(matches))
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil || info.IsDir() {
			continue
		}
		found = append(found, candidate{path: match, modTime: info.ModTime()})
	}
	if len(found) == 0 {
		return "", fmt.Errorf("no report in %s: %w", dir, os.ErrNotExist)
	}
	sort.Slice(found, func(i, j int) bool {
		if found[i].modTime.Equal(found[j].modTime) {
			return found[i].path > found[j].path
		}
		return found[i].modTime.After(found[j].modTime)
	})
	return found[0].path, nil
}

func newStyles(f *excelize.File) (int, int, error) {
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D7E4BC"}},
		Border:    border,
	})
	if err != nil {
		return 0, 0, fmt.Errorf("header style: %w", err)
	}
	cell, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
		Border:    border,
	})
	if err != nil {
		return 0, 0, fmt.Errorf("cell style: %w", err)
	}
	return header, cell, nil
}

func customID(id string) string {
	return fallback(id, "N/A")
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return value
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
