package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"cyclecount/internal/counts/service"
	apperrors "cyclecount/pkg/errors"
	httputil "cyclecount/pkg/http"
	"cyclecount/pkg/logger"
	"cyclecount/pkg/middleware"
	"cyclecount/pkg/model"
)

type SubmissionHandler struct {
	service service.SubmissionService
	log     *logger.Logger
}

func NewSubmissionHandler(service service.SubmissionService, log *logger.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		service: service,
		log:     log,
	}
}

// Submit records a count. The counter identifies via the same header
// the rate limiter keys on, with ?user= as the fallback.
func (h *SubmissionHandler) Submit(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userName := middleware.DefaultCounterExtractor(r)
	if userName == "" {
		h.writeError(w, "Submit", apperrors.InvalidInput("Counter name required via X-Counter-Name header or user query parameter"))
		return
	}

	var req model.CountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Submit", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	submission, err := h.service.Submit(r.Context(), userName, &req)
	if err != nil {
		h.writeError(w, "Submit", err)
		return
	}

	if err := httputil.WriteCreated(w, submission); err != nil {
		h.log.Error("failed to write created response", "handler", "Submit", "operation", "WriteCreated", "error", err)
	}
}

func (h *SubmissionHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	countedBy := r.URL.Query().Get("user")

	submissions, total, err := h.service.GetAll(r.Context(), countedBy, limit, offset)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WritePaginated(w, submissions, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *SubmissionHandler) Dashboard(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	snapshot, err := h.service.Dashboard(r.Context())
	if err != nil {
		h.writeError(w, "Dashboard", err)
		return
	}

	if err := httputil.WriteSuccess(w, snapshot); err != nil {
		h.log.Error("failed to write success response", "handler", "Dashboard", "operation", "WriteSuccess", "error", err)
	}
}

func (h *SubmissionHandler) writeError(w http.ResponseWriter, handlerName string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handlerName, "operation", "WriteError", "error", writeErr)
	}
}

func (h *SubmissionHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/counts", h.Submit)
	router.GET("/api/v1/counts", h.GetAll)
	router.GET("/api/v1/counts/dashboard", h.Dashboard)
}
