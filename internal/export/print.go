package export

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/benvon/study-advent/internal/models"
)

var printTemplate = template.Must(template.New("print").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Advent Study Calendar</title>
<style>
body { font-family: Georgia, serif; margin: 2em; }
h1 { margin-bottom: 0.2em; }
.summary { color: #555; margin-bottom: 1.5em; }
.grid { display: grid; grid-template-columns: repeat(4, 1fr); gap: 0.6em; }
.day { border: 1px solid #999; padding: 0.6em; min-height: 5em; page-break-inside: avoid; }
.day.done { background: #eef7ee; }
.num { font-weight: bold; }
pre { white-space: pre-wrap; }
</style>
</head>
<body>
<h1>Advent Study Calendar</h1>
<div class="summary">{{.Completed}} of {{.Total}} days complete &middot; printed {{.Printed}}</div>
<div class="grid">
{{range .Tasks}}<div class="day{{if .IsCompleted}} done{{end}}"><span class="num">{{if .IsCompleted}}&#10003;{{else}}&#9744;{{end}} Day {{.Day}}</span><br>{{.Title}}</div>
{{end}}</div>
{{if .Syllabus}}<h2>Syllabus</h2>
<pre>{{.Syllabus}}</pre>{{end}}
</body>
</html>
`))

// PrintData is the content of the printable calendar.
type PrintData struct {
	Tasks     []models.Task
	Completed int
	Total     int
	Syllabus  string
	Printed   string
}

// NewPrintData builds the printable view of a snapshot.
func NewPrintData(snap models.Snapshot, printedAt time.Time) PrintData {
	return PrintData{
		Tasks:     snap.Tasks,
		Completed: snap.CompletedCount,
		Total:     len(snap.Tasks),
		Syllabus:  snap.SyllabusText,
		Printed:   printedAt.Format("January 2, 2006"),
	}
}

// WritePrintHTML renders a printable page. All user text is HTML-escaped.
func WritePrintHTML(w io.Writer, data PrintData) error {
	if err := printTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render print view: %w", err)
	}
	return nil
}
