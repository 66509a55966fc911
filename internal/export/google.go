package export

import (
	"fmt"
	"net/url"
	"time"

	"github.com/benvon/study-advent/internal/models"
)

const googleCalendarURL = "https://calendar.google.com/calendar/render"

// GoogleCalendarURL returns a prefilled "add event" link for one task as an all-day event.
func GoogleCalendarURL(task models.Task, base time.Time) string {
	start := dateOnly(base).AddDate(0, 0, task.Day-1)
	q := url.Values{}
	q.Set("action", "TEMPLATE")
	q.Set("text", fmt.Sprintf("Day %d: %s", task.Day, task.Title))
	q.Set("dates", start.Format(icsDateLayout)+"/"+start.AddDate(0, 0, 1).Format(icsDateLayout))
	q.Set("details", fmt.Sprintf("Advent study task for day %d.", task.Day))
	return googleCalendarURL + "?" + q.Encode()
}
