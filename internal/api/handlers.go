package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/kuntur-security/kuntur-console/internal/alert"
	"github.com/kuntur-security/kuntur-console/internal/pipeline"
	"github.com/kuntur-security/kuntur-console/internal/report"
	"github.com/kuntur-security/kuntur-console/internal/roster"
)

//go:generate mockgen -source=handlers.go -destination=mocks/mock.go

// AlertService is the slice of the console the alert endpoints need.
type AlertService interface {
	Current() (*alert.Alert, alert.DeliveryHandle)
	Acknowledge(ctx context.Context, reason string) error
	Subscribe() (<-chan alert.Alert, func())
}

// ReportService submits police reports and brokers field completion.
type ReportService interface {
	Submit(ctx context.Context, r report.PoliceReport) (*report.SubmitResult, error)
	CompleteFields(ctx context.Context, a alert.Alert, emptyFields []string) (map[string]interface{}, error)
}

// RosterService provides the paginated police roster.
type RosterService interface {
	FetchAll(ctx context.Context) ([]roster.Officer, error)
	FetchPage(ctx context.Context, page int) (roster.Page, error)
}

// StatusService reports the health of the alert sources.
type StatusService interface {
	PollerStatus() pipeline.Status
	SocketState() string
}

// Handler holds the HTTP handlers for the operator API.
type Handler struct {
	logger   *slog.Logger
	alerts   AlertService
	reports  ReportService
	roster   RosterService
	status   StatusService
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, alerts AlertService, reports ReportService, rosterSvc RosterService, status StatusService) *Handler {
	return &Handler{
		logger:   logger,
		alerts:   alerts,
		reports:  reports,
		roster:   rosterSvc,
		status:   status,
		validate: validator.New(),
	}
}

type currentAlertResponse struct {
	Alert       alert.Alert          `json:"alert"`
	DeliveryTag alert.DeliveryHandle `json:"deliveryTag"`
}

// GetAlert returns the alert currently held for the operator, or 204 when
// the mailbox is empty.
func (h *Handler) GetAlert(w http.ResponseWriter, r *http.Request) {
	a, handle := h.alerts.Current()
	if a == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusOK, currentAlertResponse{Alert: *a, DeliveryTag: handle})
}

// AckAlert acknowledges the current alert with the queue backend.
func (h *Handler) AckAlert(w http.ResponseWriter, r *http.Request) {
	h.acknowledge(w, r, "acknowledged")
}

// FalseAlarm dismisses the current alert as a false alarm. The queue side is
// identical to a normal acknowledgement; only the audit trail differs.
func (h *Handler) FalseAlarm(w http.ResponseWriter, r *http.Request) {
	h.acknowledge(w, r, "false-alarm")
}

func (h *Handler) acknowledge(w http.ResponseWriter, r *http.Request, reason string) {
	if err := h.alerts.Acknowledge(r.Context(), reason); err != nil {
		h.logger.Error("acknowledgement failed",
			slog.String("reason", reason),
			slog.Any("error", err))
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "acknowledgement failed"})
		return
	}

	h.logger.Info("alert resolved", slog.String("reason", reason))
	writeJSON(w, http.StatusOK, map[string]string{"status": reason})
}

type submitReportRequest struct {
	OfficerID   string `json:"officerId" validate:"required"`
	Description string `json:"description"`
	CrimeCode   string `json:"crimeCode"`
}

// SubmitReport builds a police report from the current alert and the chosen
// officer, forwards it to the report backend, and mirrors the backend's
// response representation back to the caller.
func (h *Handler) SubmitReport(w http.ResponseWriter, r *http.Request) {
	var req submitReportRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	a, _ := h.alerts.Current()
	if a == nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "no alert to report"})
		return
	}

	officer, ok := h.findOfficer(w, r, req.OfficerID)
	if !ok {
		return
	}

	built := report.Build(*a, officer, req.Description, req.CrimeCode)

	result, err := h.reports.Submit(r.Context(), built)
	if err != nil {
		h.logger.Error("report submission failed", slog.Any("error", err))
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "report submission failed"})
		return
	}

	switch {
	case result.PDF != nil:
		w.Header().Set("Content-Type", "application/pdf")
		w.WriteHeader(http.StatusOK)
		w.Write(result.PDF)
	case result.Document != nil:
		writeJSON(w, http.StatusOK, result.Document)
	default:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(result.Text))
	}
}

type completeFieldsRequest struct {
	EmptyFields []string `json:"camposVacios" validate:"required,min=1"`
}

type completeFieldsResponse struct {
	Completed map[string]interface{} `json:"completados"`
}

// CompleteFields asks the report backend to suggest values for the report
// fields the current alert left empty.
func (h *Handler) CompleteFields(w http.ResponseWriter, r *http.Request) {
	var req completeFieldsRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	a, _ := h.alerts.Current()
	if a == nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "no alert to report"})
		return
	}

	completed, err := h.reports.CompleteFields(r.Context(), *a, req.EmptyFields)
	if err != nil {
		h.logger.Error("field completion failed", slog.Any("error", err))
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "field completion failed"})
		return
	}

	writeJSON(w, http.StatusOK, completeFieldsResponse{Completed: completed})
}

// ListOfficers returns one page of the police roster.
func (h *Handler) ListOfficers(w http.ResponseWriter, r *http.Request) {
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "page must be a positive integer"})
			return
		}
		page = n
	}

	result, err := h.roster.FetchPage(r.Context(), page)
	if err != nil {
		h.logger.Error("roster fetch failed", slog.Any("error", err))
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "roster unavailable"})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type statusResponse struct {
	Poller       pipeline.Status `json:"poller"`
	Socket       string          `json:"socket"`
	AlertPending bool            `json:"alertPending"`
}

// GetStatus reports source health and whether an alert is pending.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	a, _ := h.alerts.Current()

	writeJSON(w, http.StatusOK, statusResponse{
		Poller:       h.status.PollerStatus(),
		Socket:       h.status.SocketState(),
		AlertPending: a != nil,
	})
}

// decodeBody parses and validates a JSON request body, writing the error
// response itself when the body is unusable.
func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return false
	}

	if err := h.validate.Struct(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return false
	}

	return true
}

// findOfficer resolves an officer ID against the roster, writing the error
// response itself when that fails.
func (h *Handler) findOfficer(w http.ResponseWriter, r *http.Request, id string) (roster.Officer, bool) {
	officers, err := h.roster.FetchAll(r.Context())
	if err != nil {
		h.logger.Error("roster fetch failed", slog.Any("error", err))
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "roster unavailable"})
		return roster.Officer{}, false
	}

	for _, o := range officers {
		if o.ID == id {
			return o, true
		}
	}

	writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "unknown officer"})
	return roster.Officer{}, false
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
