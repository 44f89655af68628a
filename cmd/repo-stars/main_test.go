package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Sternrassler/repo-stars/internal/testutil"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"GITHUB_TOKEN", "GITHUB_API_URL", "REDIS_URL", "LOG_LEVEL", "METRICS_ADDR"} {
		t.Setenv(key, "")
	}
}

func writeProjects(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "projects.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

const projectList = `
categories:
  - name: Libraries
    projects:
      - name: widget
        url: https://github.com/acme/widget
      - name: gadget
        url: https://github.com/acme/gadget
      - name: homepage
        url: https://example.com/
`

func TestRun_JSONReport(t *testing.T) {
	clearEnv(t)

	mock := testutil.NewMockGitHub()
	defer mock.Close()
	mock.SetRepo("acme", "widget", 42)
	t.Setenv("GITHUB_API_URL", mock.URL())

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{
		"-projects", writeProjects(t, projectList),
		"-format", "json",
	}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr:\n%s", code, stderr.String())
	}

	var rows []struct {
		Name   string `json:"name"`
		Stars  int    `json:"stars"`
		Status string `json:"status"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &rows); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, stdout.String())
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}

	byName := map[string]int{}
	for i, r := range rows {
		byName[r.Name] = i
	}
	if r := rows[byName["widget"]]; r.Status != "success" || r.Stars != 42 {
		t.Errorf("widget = %+v", r)
	}
	if r := rows[byName["gadget"]]; r.Status != "failure" || r.Error != "Not Found" {
		t.Errorf("gadget = %+v", r)
	}
	if r := rows[byName["homepage"]]; r.Status != "unresolved" {
		t.Errorf("homepage = %+v", r)
	}
	if rows[0].Name != "widget" {
		t.Errorf("first row = %q, want the most starred project", rows[0].Name)
	}
	if !strings.Contains(stderr.String(), "Report written") {
		t.Errorf("summary log missing from stderr:\n%s", stderr.String())
	}
}

func TestRun_TableReport(t *testing.T) {
	clearEnv(t)

	mock := testutil.NewMockGitHub()
	defer mock.Close()
	mock.SetRepo("acme", "widget", 7)
	mock.SetRepo("acme", "gadget", 3)
	t.Setenv("GITHUB_API_URL", mock.URL())

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-projects", writeProjects(t, projectList), "-verbose"}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr:\n%s", code, stderr.String())
	}
	if !strings.HasPrefix(stdout.String(), "CATEGORY") {
		t.Errorf("table header missing:\n%s", stdout.String())
	}
	if !strings.Contains(stderr.String(), "Record enriched") {
		t.Error("-verbose did not log enriched records")
	}
}

func TestRun_Errors(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"unknown flag", []string{"-nope"}, 2},
		{"unknown format", []string{"-format", "xml"}, 2},
		{"missing config", []string{"-config", filepath.Join(t.TempDir(), "none.yaml")}, 1},
		{"missing projects", []string{"-projects", filepath.Join(t.TempDir(), "none.yaml")}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := run(context.Background(), tt.args, &stdout, &stderr); code != tt.want {
				t.Errorf("exit code = %d, want %d", code, tt.want)
			}
			if stdout.Len() != 0 {
				t.Errorf("unexpected stdout: %s", stdout.String())
			}
		})
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	clearEnv(t)

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("pipeline:\n  fetch_workers: -1\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-config", cfgPath, "-projects", writeProjects(t, projectList)}, &stdout, &stderr)
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "invalid config") {
		t.Errorf("stderr = %s", stderr.String())
	}
}

func TestRun_UnreachableRedisDisablesCache(t *testing.T) {
	clearEnv(t)

	mock := testutil.NewMockGitHub()
	defer mock.Close()
	mock.SetRepo("acme", "widget", 1)
	t.Setenv("GITHUB_API_URL", mock.URL())
	t.Setenv("REDIS_URL", "127.0.0.1:1")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-projects", writeProjects(t, projectList), "-format", "csv"}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr:\n%s", code, stderr.String())
	}
	if !strings.Contains(stderr.String(), "cache disabled") {
		t.Errorf("expected cache disabled warning:\n%s", stderr.String())
	}
	if !strings.HasPrefix(stdout.String(), "category,name,url") {
		t.Errorf("csv header missing:\n%s", stdout.String())
	}
}

func TestRedisOptions(t *testing.T) {
	tests := []struct {
		raw      string
		wantAddr string
		wantErr  bool
	}{
		{"localhost:6379", "localhost:6379", false},
		{"redis://localhost:6380/2", "localhost:6380", false},
		{"redis://%zz", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			opts, err := redisOptions(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("redisOptions(%q) error = %v", tt.raw, err)
			}
			if err == nil && opts.Addr != tt.wantAddr {
				t.Errorf("Addr = %q, want %q", opts.Addr, tt.wantAddr)
			}
		})
	}
}
