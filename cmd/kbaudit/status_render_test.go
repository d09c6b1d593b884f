package main

import (
	"fmt"
	"io"
	"strings"
	"testing"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Run lock", statusError, "Busy", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Run lock:", "[FAIL] Busy")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Run lock", statusOK, "idle", true)
	if !strings.HasPrefix(got, ansiGreen) || !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected green line, got %q", got)
	}
}

func TestRenderStatusLineWithoutMessage(t *testing.T) {
	got := renderStatusLine("Database", statusInfo, "  ", false)
	if !strings.HasSuffix(got, "[INFO]") {
		t.Fatalf("expected bare badge, got %q", got)
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatal("expected non-file writer to disable color")
	}
}

func TestRenderTablePadsRows(t *testing.T) {
	out := renderTable([]string{"#", "Title"}, [][]string{{"1"}, {"2", "Second"}}, []columnAlignment{alignRight})
	if !strings.Contains(out, "Title") || !strings.Contains(out, "Second") {
		t.Fatalf("unexpected table %q", out)
	}
	if renderTable(nil, nil, nil) != "" {
		t.Fatal("expected empty render without headers")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("Invite your team", 6); got != "Invit…" {
		t.Fatalf("unexpected truncation %q", got)
	}
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("unexpected %q", got)
	}
}
