package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRunVersion(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-version"}, strings.NewReader(""), &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if !strings.Contains(stdout.String(), "sqlrun version") {
		t.Errorf("stdout = %q", stdout.String())
	}
}

func TestRunNoInputPrintsUsage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(nil, strings.NewReader(""), &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if !strings.Contains(stdout.String(), "Usage:") {
		t.Errorf("usage not printed: %q", stdout.String())
	}
}

func TestRunTooManyArgs(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"a.sql", "b.sql"}, strings.NewReader(""), &stdout, &stderr)
	if code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
}

func TestRunFileAndStdinConflict(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-s", "a.sql"}, strings.NewReader(""), &stdout, &stderr)
	if code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
	if !strings.Contains(stderr.String(), "cannot combine") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestRunUnknownDialect(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-dialect", "oracle", "a.sql"}, strings.NewReader(""), &stdout, &stderr)
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "unknown dialect") {
		t.Errorf("stderr = %q", stderr.String())
	}
}
