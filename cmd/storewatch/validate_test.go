package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestRunValidate_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
address: ChIJ-place
database_url: postgres://watch:hunter2@db:5432/storewatch
poll_interval: 30s
webhook: https://hooks.example/abc
desktop_notify: true
status_port: 8081
`)

	output, err := executeCmd(t, context.Background(), "", "validate", "-c", path)
	if err != nil {
		t.Fatalf("validate command error = %v", err)
	}

	expectedPhrases := []string{
		"is valid!",
		"Region:        en-US",
		"Poll interval: 30s",
		"Notifications: webhook, desktop",
		"Status API:    port 8081",
		"postgres://watch:xxxxx@db:5432/storewatch",
	}
	for _, phrase := range expectedPhrases {
		if !strings.Contains(output, phrase) {
			t.Errorf("output missing %q\nGot: %s", phrase, output)
		}
	}
	if strings.Contains(output, "hunter2") {
		t.Errorf("output leaks database password\nGot: %s", output)
	}
}

func TestRunValidate_Defaults(t *testing.T) {
	path := writeConfig(t, "address: ChIJ-place\n")

	output, err := executeCmd(t, context.Background(), "", "validate", "-c", path)
	if err != nil {
		t.Fatalf("validate command error = %v", err)
	}
	for _, phrase := range []string{
		"Database:      sqlite://storewatch.db",
		"Notifications: none",
		"Status API:    disabled",
	} {
		if !strings.Contains(output, phrase) {
			t.Errorf("output missing %q\nGot: %s", phrase, output)
		}
	}
}

func TestRunValidate_InvalidConfig(t *testing.T) {
	path := writeConfig(t, "poll_interval: 30s\n")

	_, err := executeCmd(t, context.Background(), "", "validate", "-c", path)
	if err == nil {
		t.Fatal("expected error for invalid config, got nil")
	}
	if !strings.Contains(err.Error(), "invalid config") || !strings.Contains(err.Error(), "address is required") {
		t.Errorf("error = %v, want invalid config: address is required", err)
	}
}

func TestRunValidate_MissingFile(t *testing.T) {
	_, err := executeCmd(t, context.Background(), "", "validate", "-c", "/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
	if !strings.Contains(err.Error(), "failed to read config file") {
		t.Errorf("error = %v, want read failure", err)
	}
}
