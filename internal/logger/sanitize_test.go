package logger

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitizeString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{name: "empty", in: "", max: 10, want: ""},
		{name: "plain", in: "/api/v1/progress", max: 100, want: "/api/v1/progress"},
		{name: "log injection", in: "/x\n{\"level\":\"error\"}\r", max: 100, want: "/x{\"level\":\"error\"}"},
		{name: "invalid utf8", in: "ab\xffcd", max: 100, want: "abcd"},
		{name: "truncated", in: "abcdefghij", max: 4, want: "abcd..."},
		{name: "multibyte boundary", in: "ééé", max: 3, want: "é..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := SanitizeString(tt.in, tt.max)
			if got != tt.want {
				t.Errorf("SanitizeString(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("Expected valid UTF-8, got %q", got)
			}
		})
	}
}

func TestSanitizeHelpers(t *testing.T) {
	t.Parallel()

	if got := SanitizeError(nil); got != "" {
		t.Errorf("Expected empty string for nil error, got %q", got)
	}
	if got := SanitizeError(errors.New("boom\x00")); got != "boom" {
		t.Errorf("Expected control characters removed, got %q", got)
	}
	if got := SanitizePath(strings.Repeat("a", MaxPathLength+10)); len(got) != MaxPathLength+3 {
		t.Errorf("Expected path truncated to %d bytes plus ellipsis, got %d", MaxPathLength, len(got))
	}
	if got := SanitizeUserID("user-1"); got != "user-1" {
		t.Errorf("Expected user id unchanged, got %q", got)
	}
}

func TestNewLogger_WithFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "planner.log")
	log, err := NewLogger(Options{File: path})
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	log.Info("planner_started")
	_ = Sync(log)
}
