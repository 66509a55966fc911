// Package export renders the study calendar for external calendars and printing.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/benvon/study-advent/internal/models"
)

const (
	icsDateLayout     = "20060102"
	icsDateTimeLayout = "20060102T150405Z"
	icsLineLimit      = 75
	prodID            = "-//study-advent//Advent Study Calendar//EN"
)

// ICSOptions controls calendar export.
type ICSOptions struct {
	// Base is the date of day 1.
	Base time.Time
	// Stamp is written as DTSTAMP on every event.
	Stamp time.Time
	// SkipCompleted leaves completed tasks out.
	SkipCompleted bool
}

// WriteICS writes an iCalendar document with one all-day event per task.
// Each event carries a display alarm one hour before it starts.
func WriteICS(w io.Writer, tasks []models.Task, opts ICSOptions) error {
	iw := &icsWriter{w: w}
	iw.line("BEGIN:VCALENDAR")
	iw.line("VERSION:2.0")
	iw.line("PRODID:" + prodID)
	iw.line("CALSCALE:GREGORIAN")
	iw.line("METHOD:PUBLISH")
	iw.line("X-WR-CALNAME:" + escapeText("Advent Study Calendar"))

	base := dateOnly(opts.Base)
	stamp := opts.Stamp.UTC().Format(icsDateTimeLayout)
	for _, t := range tasks {
		if opts.SkipCompleted && t.IsCompleted {
			continue
		}
		start := base.AddDate(0, 0, t.Day-1)
		iw.line("BEGIN:VEVENT")
		iw.line(fmt.Sprintf("UID:study-advent-day-%d-%s@study-advent", t.Day, start.Format(icsDateLayout)))
		iw.line("DTSTAMP:" + stamp)
		iw.line("DTSTART;VALUE=DATE:" + start.Format(icsDateLayout))
		iw.line("DTEND;VALUE=DATE:" + start.AddDate(0, 0, 1).Format(icsDateLayout))
		iw.line("SUMMARY:" + escapeText(fmt.Sprintf("Day %d: %s", t.Day, t.Title)))
		iw.line("DESCRIPTION:" + escapeText(fmt.Sprintf("Advent study task for day %d.", t.Day)))
		if t.IsCompleted {
			iw.line("STATUS:CONFIRMED")
		}
		iw.line("BEGIN:VALARM")
		iw.line("TRIGGER:-PT1H")
		iw.line("ACTION:DISPLAY")
		iw.line("DESCRIPTION:" + escapeText("Study reminder: "+t.Title))
		iw.line("END:VALARM")
		iw.line("END:VEVENT")
	}
	iw.line("END:VCALENDAR")
	return iw.err
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

var textEscaper = strings.NewReplacer(
	`\`, `\\`,
	";", `\;`,
	",", `\,`,
	"\r\n", `\n`,
	"\n", `\n`,
)

func escapeText(s string) string {
	return textEscaper.Replace(s)
}

type icsWriter struct {
	w   io.Writer
	err error
}

// line writes one content line, folded at 75 octets without splitting a rune.
func (iw *icsWriter) line(s string) {
	if iw.err != nil {
		return
	}
	var b strings.Builder
	limit := icsLineLimit
	for len(s) > limit {
		cut := limit
		for cut > 0 && !isRuneStart(s[cut]) {
			cut--
		}
		b.WriteString(s[:cut])
		b.WriteString("\r\n ")
		s = s[cut:]
		// continuation lines start with a space
		limit = icsLineLimit - 1
	}
	b.WriteString(s)
	b.WriteString("\r\n")
	_, iw.err = io.WriteString(iw.w, b.String())
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
