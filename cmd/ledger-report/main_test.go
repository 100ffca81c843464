package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "expenses.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun_Report(t *testing.T) {
	t.Setenv("DEFAULT_BUDGET", "")
	path := writeCSV(t, "Date,Category,Amount,Description\n"+
		"2025-01-01,Food,15.75,Breakfast\n"+
		"2025-01-02,Transport,7.80,Bus fare\n"+
		"2025-01-03,Entertainment,22.50,Movie ticket\n"+
		"whenever,Food,1.00,Snack\n")

	var stdout, stderr bytes.Buffer
	code := run([]string{"-file", path, "-date", "2025-01-15"}, &stdout, &stderr)
	if code != exitOK {
		t.Fatalf("exit %d, stderr: %s", code, stderr.String())
	}

	out := stdout.String()
	for _, want := range []string{
		"47.05",
		"Budget 2025-01:",
		"46.05 of 1000.00 (4.6%)",
		"Entertainment",
		"2025-01-03",
		"(1 record(s) with unparseable dates not shown)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRun_BudgetFlag(t *testing.T) {
	path := writeCSV(t, "Date,Category,Amount,Description\n2025-02-01,Food,50,x\n")
	var stdout, stderr bytes.Buffer
	if code := run([]string{"-file", path, "-date", "2025-02-10", "-budget", "100"}, &stdout, &stderr); code != exitOK {
		t.Fatalf("exit %d: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "50.00 of 100.00 (50.0%)") {
		t.Errorf("unexpected output:\n%s", stdout.String())
	}
}

func TestRun_SchemaErrorExitsNonZero(t *testing.T) {
	path := writeCSV(t, "Date,Category,Amount\n2025-01-01,Food,1\n")
	var stdout, stderr bytes.Buffer
	if code := run([]string{"-file", path}, &stdout, &stderr); code != exitError {
		t.Fatalf("exit %d, want %d", code, exitError)
	}
	if !strings.Contains(stderr.String(), "CSV file missing required columns: Description") {
		t.Errorf("stderr = %s", stderr.String())
	}
}

func TestRun_EmptyLedger(t *testing.T) {
	path := writeCSV(t, "Date,Category,Amount,Description\n")
	var stdout, stderr bytes.Buffer
	if code := run([]string{"-file", path}, &stdout, &stderr); code != exitOK {
		t.Fatalf("exit %d: %s", code, stderr.String())
	}
	if strings.TrimSpace(stdout.String()) != "No expense data available." {
		t.Errorf("stdout = %q", stdout.String())
	}
}

func TestRun_BadArguments(t *testing.T) {
	path := writeCSV(t, "Date,Category,Amount,Description\n")
	tests := [][]string{
		{"-file", path, "-budget", "-5"},
		{"-file", path, "-budget", "lots"},
		{"-file", path, "-date", "soon"},
		{"-nope"},
	}
	for _, args := range tests {
		var stdout, stderr bytes.Buffer
		if code := run(args, &stdout, &stderr); code != exitUsage {
			t.Errorf("run(%v) = %d, want %d", args, code, exitUsage)
		}
	}
}

func TestRun_MissingFile(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"-file", filepath.Join(t.TempDir(), "absent.csv")}, &stdout, &stderr); code != exitError {
		t.Fatalf("exit %d, want %d", code, exitError)
	}
}
