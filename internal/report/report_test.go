package report

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"kbaudit/internal/store"
)

func sampleRows() []store.Article {
	return []store.Article{
		{
			ID:             1,
			Title:          "How to login",
			URL:            "https://help.example.com/article/63-how-to-login",
			Category:       "Getting Started",
			WordCount:      120,
			CustomID:       "63",
			HasScreenshots: true,
			LastUpdated:    time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC),
			Gap:            "- Missing SSO steps",
			Topics:         "login, accounts",
			ContentType:    "How-to",
			Analyzed:       true,
		},
		{
			ID:    2,
			Title: "Orphan",
			URL:   "https://help.example.com/article/orphan",
		},
	}
}

func TestWriteProducesWorkbook(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	now := time.Unix(1760000000, 0)

	path, err := Write(dir, sampleRows(), now)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if filepath.Base(path) != "AI_Audit_Report_1760000000.xlsx" {
		t.Fatalf("unexpected file name %s", path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	if got := f.GetSheetName(0); got != SheetName {
		t.Fatalf("unexpected sheet %q", got)
	}
	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	wantHeader := []string{"Article ID", "Article Title", "Category", "URL", "Last Updated", "Topics Covered", "Content Type", "Word Count", "Has Screenshots", "Gaps Identified"}
	for i, want := range wantHeader {
		if rows[0][i] != want {
			t.Fatalf("header %d = %q, want %q", i, rows[0][i], want)
		}
	}
	first := rows[1]
	if first[0] != "KB-63" || first[2] != "Getting Started" || first[4] != "2026-03-04" || first[7] != "120" || first[8] != "Yes" || first[9] != "- Missing SSO steps" {
		t.Fatalf("unexpected first row %v", first)
	}
	second := rows[2]
	if second[0] != "KB-N/A" || second[2] != "Unknown" || second[8] != "No" {
		t.Fatalf("unexpected second row %v", second)
	}

	width, err := f.GetColWidth(SheetName, "J")
	if err != nil || width != 50 {
		t.Fatalf("unexpected gap column width %v (%v)", width, err)
	}
	styleID, err := f.GetCellStyle(SheetName, "B1")
	if err != nil {
		t.Fatalf("GetCellStyle: %v", err)
	}
	style, err := f.GetStyle(styleID)
	if err != nil {
		t.Fatalf("GetStyle: %v", err)
	}
	if style.Font == nil || !style.Font.Bold {
		t.Fatal("expected bold header")
	}
}

func TestWriteWithoutRows(t *testing.T) {
	if _, err := Write(t.TempDir(), nil, time.Now()); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestLatestPicksNewest(t *testing.T) {
	dir := t.TempDir()
	if _, err := Latest(dir); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not exist, got %v", err)
	}

	older, err := Write(dir, sampleRows(), time.Unix(100, 0))
	if err != nil {
		t.Fatalf("Write older: %v", err)
	}
	newer, err := Write(dir, sampleRows(), time.Unix(200, 0))
	if err != nil {
		t.Fatalf("Write newer: %v", err)
	}
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(older, past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	got, err := Latest(dir)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if got != newer {
		t.Fatalf("Latest = %s, want %s", got, newer)
	}
}
