package export

import (
	"bytes"
	"net/url"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/benvon/study-advent/internal/models"
)

var base = time.Date(2024, 12, 1, 15, 30, 0, 0, time.UTC)

func sampleTasks() []models.Task {
	return []models.Task{
		{Day: 1, Title: "Intro, setup; tools", IsUnlocked: true, IsCompleted: true},
		{Day: 2, Title: "Variables"},
		{Day: 24, Title: "Final review"},
	}
}

func TestWriteICS(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := WriteICS(&buf, sampleTasks(), ICSOptions{Base: base, Stamp: base}); err != nil {
		t.Fatalf("WriteICS failed: %v", err)
	}
	out := buf.String()

	tests := []struct {
		name string
		want string
	}{
		{name: "calendar header", want: "BEGIN:VCALENDAR\r\nVERSION:2.0\r\n"},
		{name: "day 1 all-day start", want: "DTSTART;VALUE=DATE:20241201\r\n"},
		{name: "day 1 exclusive end", want: "DTEND;VALUE=DATE:20241202\r\n"},
		{name: "day 24 offset", want: "DTSTART;VALUE=DATE:20241224\r\n"},
		{name: "escaped summary", want: `SUMMARY:Day 1: Intro\, setup\; tools`},
		{name: "one hour alarm", want: "TRIGGER:-PT1H\r\n"},
		{name: "stable uid", want: "UID:study-advent-day-2-20241202@study-advent\r\n"},
		{name: "stamp", want: "DTSTAMP:20241201T153000Z\r\n"},
		{name: "footer", want: "END:VCALENDAR\r\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if !strings.Contains(out, tt.want) {
				t.Errorf("Expected output to contain %q", tt.want)
			}
		})
	}

	if got := strings.Count(out, "BEGIN:VEVENT"); got != 3 {
		t.Errorf("Expected 3 events, got %d", got)
	}
	if got := strings.Count(out, "BEGIN:VALARM"); got != 3 {
		t.Errorf("Expected 3 alarms, got %d", got)
	}
}

func TestWriteICS_SkipCompleted(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := WriteICS(&buf, sampleTasks(), ICSOptions{Base: base, SkipCompleted: true}); err != nil {
		t.Fatalf("WriteICS failed: %v", err)
	}
	if got := strings.Count(buf.String(), "BEGIN:VEVENT"); got != 2 {
		t.Errorf("Expected 2 events, got %d", got)
	}
}

func TestWriteICS_FoldsLongLines(t *testing.T) {
	t.Parallel()

	long := []models.Task{{Day: 1, Title: strings.Repeat("é", 80)}}
	var buf bytes.Buffer
	if err := WriteICS(&buf, long, ICSOptions{Base: base}); err != nil {
		t.Fatalf("WriteICS failed: %v", err)
	}
	for _, line := range strings.Split(buf.String(), "\r\n") {
		if len(line) > icsLineLimit {
			t.Errorf("Expected lines of at most %d octets, got %d", icsLineLimit, len(line))
		}
		if !utf8.ValidString(strings.TrimPrefix(line, " ")) {
			t.Error("Expected folds on rune boundaries")
		}
	}
}

func TestGoogleCalendarURL(t *testing.T) {
	t.Parallel()

	raw := GoogleCalendarURL(models.Task{Day: 3, Title: "Loops & recursion"}, base)
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("Expected valid URL, got %v", err)
	}
	if u.Host != "calendar.google.com" {
		t.Errorf("Expected google host, got %s", u.Host)
	}
	q := u.Query()
	if q.Get("action") != "TEMPLATE" {
		t.Errorf("Expected TEMPLATE action, got %s", q.Get("action"))
	}
	if q.Get("dates") != "20241203/20241204" {
		t.Errorf("Expected day 3 dates, got %s", q.Get("dates"))
	}
	if q.Get("text") != "Day 3: Loops & recursion" {
		t.Errorf("Expected title round trip, got %s", q.Get("text"))
	}
}

func TestWritePrintHTML(t *testing.T) {
	t.Parallel()

	snap := models.Snapshot{}
	snap.Tasks = append(sampleTasks(), models.Task{Day: 5, Title: "<script>alert(1)</script>"})
	snap.CompletedCount = 1
	snap.SyllabusText = "Week 1: basics"

	var buf bytes.Buffer
	if err := WritePrintHTML(&buf, NewPrintData(snap, base)); err != nil {
		t.Fatalf("WritePrintHTML failed: %v", err)
	}
	out := buf.String()

	if strings.Contains(out, "<script>alert(1)</script>") {
		t.Error("Expected task titles to be escaped")
	}
	if !strings.Contains(out, "1 of 4 days complete") {
		t.Error("Expected progress summary")
	}
	if !strings.Contains(out, "December 1, 2024") {
		t.Error("Expected print date")
	}
	if !strings.Contains(out, "Week 1: basics") {
		t.Error("Expected syllabus section")
	}
}
