package handlers

import (
	"bytes"
	"net/http"

	"github.com/benvon/study-advent/internal/export"
	"github.com/benvon/study-advent/internal/planner"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// printContentSecurityPolicy lets the print view use its inline stylesheet and nothing else.
const printContentSecurityPolicy = "default-src 'none'; style-src 'unsafe-inline'"

// ExportHandler renders the calendar for other tools
type ExportHandler struct {
	planner *planner.Planner
	logger  *zap.Logger
}

// NewExportHandler creates a new export handler
func NewExportHandler(p *planner.Planner, logger *zap.Logger) *ExportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportHandler{planner: p, logger: logger}
}

// RegisterRoutes registers export routes
func (h *ExportHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/export/ics", h.ExportICS).Methods(http.MethodGet)
	r.HandleFunc("/export/google/{day}", h.GoogleCalendarLink).Methods(http.MethodGet)
	r.HandleFunc("/export/print", h.PrintView).Methods(http.MethodGet)
}

// ExportICS downloads the calendar as an iCalendar file.
// ?pending=true leaves completed days out.
func (h *ExportHandler) ExportICS(w http.ResponseWriter, r *http.Request) {
	snap := h.planner.Snapshot()
	if snap.Empty() {
		respondServiceError(w, h.logger, "export_ics", planner.ErrNoCalendar)
		return
	}

	now := h.planner.Now()
	var buf bytes.Buffer
	err := export.WriteICS(&buf, snap.Tasks, export.ICSOptions{
		Base:          now,
		Stamp:         now,
		SkipCompleted: r.URL.Query().Get("pending") == "true",
	})
	if err != nil {
		respondServiceError(w, h.logger, "export_ics", err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="advent-study-calendar.ics"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Warn("export_write_failed", zap.String("format", "ics"), zap.Error(err))
	}
}

// GoogleCalendarLink returns an "add to Google Calendar" URL for one day
func (h *ExportHandler) GoogleCalendarLink(w http.ResponseWriter, r *http.Request) {
	day, err := pathInt(r, "day")
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	snap := h.planner.Snapshot()
	if snap.Empty() {
		respondServiceError(w, h.logger, "export_google", planner.ErrNoCalendar)
		return
	}
	for _, task := range snap.Tasks {
		if task.Day == day {
			respondJSON(w, http.StatusOK, map[string]string{
				"url": export.GoogleCalendarURL(task, h.planner.Now()),
			})
			return
		}
	}
	respondServiceError(w, h.logger, "export_google", planner.ErrTaskNotFound)
}

// PrintView renders a printable HTML page of the calendar
func (h *ExportHandler) PrintView(w http.ResponseWriter, r *http.Request) {
	snap := h.planner.Snapshot()
	if snap.Empty() {
		respondServiceError(w, h.logger, "export_print", planner.ErrNoCalendar)
		return
	}

	var buf bytes.Buffer
	if err := export.WritePrintHTML(&buf, export.NewPrintData(snap, h.planner.Now())); err != nil {
		respondServiceError(w, h.logger, "export_print", err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Security-Policy", printContentSecurityPolicy)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Warn("export_write_failed", zap.String("format", "html"), zap.Error(err))
	}
}
