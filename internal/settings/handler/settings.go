package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"cyclecount/internal/settings/service"
	httputil "cyclecount/pkg/http"
	"cyclecount/pkg/i18n"
	"cyclecount/pkg/logger"
	"cyclecount/pkg/model"
)

type SettingsHandler struct {
	service service.SettingsService
	log     *logger.Logger
}

func NewSettingsHandler(service service.SettingsService, log *logger.Logger) *SettingsHandler {
	return &SettingsHandler{
		service: service,
		log:     log,
	}
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	settings, err := h.service.Get(r.Context(), ps.ByName("user"))
	if err != nil {
		h.writeError(w, "Get", err)
		return
	}

	if err := httputil.WriteSuccess(w, settings); err != nil {
		h.log.Error("failed to write success response", "handler", "Get", "operation", "WriteSuccess", "error", err)
	}
}

func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var updates model.UserSettingsUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Update", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	settings, err := h.service.Update(r.Context(), ps.ByName("user"), &updates)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := httputil.WriteSuccess(w, settings); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

// Translations serves the UI string catalog. An empty :lang falls back
// to Accept-Language detection, then the configured default.
func (h *SettingsHandler) Translations(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	lang := ps.ByName("lang")
	if lang == "" {
		lang = i18n.DetectLanguage(r.Header.Get("Accept-Language"))
	}

	catalog, err := h.service.Translations(lang)
	if err != nil {
		h.writeError(w, "Translations", err)
		return
	}

	if err := httputil.WriteSuccess(w, catalog); err != nil {
		h.log.Error("failed to write success response", "handler", "Translations", "operation", "WriteSuccess", "error", err)
	}
}

func (h *SettingsHandler) writeError(w http.ResponseWriter, handlerName string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handlerName, "operation", "WriteError", "error", writeErr)
	}
}

func (h *SettingsHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/settings/:user", h.Get)
	router.PATCH("/api/v1/settings/:user", h.Update)
	router.GET("/api/v1/translations/:lang", h.Translations)
}
