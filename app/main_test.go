package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lysyi3m/site-sync/app/cfg"
	"github.com/lysyi3m/site-sync/app/pipeline"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"success", nil, exitOK},
		{"config error", &cfg.ConfigError{Err: errors.New("missing token")}, exitConfigError},
		{"wrapped config error", fmt.Errorf("failed to prepare books: %w", &cfg.ConfigError{Err: errors.New("no shelf")}), exitConfigError},
		{"upstream error", fmt.Errorf("failed to fetch messages: %w", &pipeline.UpstreamError{Source: "slack", Err: errors.New("boom")}), exitFailure},
		{"save error", errors.New("failed to write state"), exitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.expected {
				t.Errorf("Expected exit code %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestRun_NoCommand(t *testing.T) {
	if got := run([]string{}); got != exitConfigError {
		t.Errorf("Expected exit code %d, got %d", exitConfigError, got)
	}
}

func TestRun_MissingToken(t *testing.T) {
	t.Setenv("SLACK_BOT_TOKEN", "")
	t.Setenv("MICROBLOG_TOKEN", "")
	t.Setenv("SLACK_BOOKMARKS_CHANNEL", "C123")

	if got := run([]string{"sync-bookmarks"}); got != exitConfigError {
		t.Errorf("Expected exit code %d, got %d", exitConfigError, got)
	}
}

func TestRun_FeedsWithoutJobs(t *testing.T) {
	dir := t.TempDir()
	args := []string{"--data-dir", dir, "feeds", "--feeds-dir", filepath.Join(dir, "feeds")}

	if got := run(args); got != exitOK {
		t.Errorf("Expected exit code %d, got %d", exitOK, got)
	}
}

func TestRun_FeedsInvalidJob(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "broken.yml"), []byte("settings:\n  enabled: true\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if got := run([]string{"--data-dir", dir, "feeds", "--feeds-dir", dir}); got != exitConfigError {
		t.Errorf("Expected exit code %d, got %d", exitConfigError, got)
	}
}

func captureStderr(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}

	previous := os.Stderr
	os.Stderr = w
	defer func() { os.Stderr = previous }()

	fn()
	w.Close()

	output, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	return string(output)
}

func TestRun_ReportsConfigErrorOnce(t *testing.T) {
	t.Setenv("SLACK_BOT_TOKEN", "")
	os.Unsetenv("SLACK_BOT_TOKEN")
	t.Setenv("MICROBLOG_TOKEN", "mb-token")
	t.Setenv("SLACK_BOOKMARKS_CHANNEL", "C123")

	var code int
	output := captureStderr(t, func() {
		code = run([]string{"sync-bookmarks"})
	})

	if code != exitConfigError {
		t.Errorf("Expected exit code %d, got %d", exitConfigError, code)
	}
	if n := strings.Count(output, "slack-token"); n != 1 {
		t.Errorf("Expected the error to be printed once, got %d times: %s", n, output)
	}
}

func TestRun_Help(t *testing.T) {
	if got := run([]string{"--help"}); got != exitOK {
		t.Errorf("Expected exit code %d, got %d", exitOK, got)
	}
}
