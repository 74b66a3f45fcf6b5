package handler

import (
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	"cyclecount/internal/inventory/service"
	apperrors "cyclecount/pkg/errors"
	httputil "cyclecount/pkg/http"
	"cyclecount/pkg/logger"
	"cyclecount/pkg/model"
)

const uploadFieldName = "file"

type InventoryHandler struct {
	service service.InventoryService
	log     *logger.Logger
	maxSize int64
}

func NewInventoryHandler(service service.InventoryService, log *logger.Logger, maxImportSize int64) *InventoryHandler {
	return &InventoryHandler{
		service: service,
		log:     log,
		maxSize: maxImportSize,
	}
}

// Import receives the workbook as multipart form field "file".
// Optional query params sheet and header_row override the stored
// mapping for this upload only.
func (h *InventoryHandler) Import(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	file, ok := h.openUpload(w, r, "Import")
	if !ok {
		return
	}
	defer file.Close()

	query := r.URL.Query()
	sheetOverride := query.Get("sheet")

	var headerRowOverride *int
	if raw := query.Get("header_row"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.writeError(w, "Import", apperrors.InvalidInput("invalid header_row parameter: "+raw))
			return
		}
		headerRowOverride = &n
	}

	result, err := h.service.Import(r.Context(), file, sheetOverride, headerRowOverride)
	if err != nil {
		h.writeError(w, "Import", err)
		return
	}

	if err := httputil.WriteCreated(w, result); err != nil {
		h.log.Error("failed to write created response", "handler", "Import", "operation", "WriteCreated", "error", err)
	}
}

func (h *InventoryHandler) Sheets(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	file, ok := h.openUpload(w, r, "Sheets")
	if !ok {
		return
	}
	defer file.Close()

	sheets, err := h.service.ListSheets(r.Context(), file)
	if err != nil {
		h.writeError(w, "Sheets", err)
		return
	}

	if err := httputil.WriteSuccess(w, sheets); err != nil {
		h.log.Error("failed to write success response", "handler", "Sheets", "operation", "WriteSuccess", "error", err)
	}
}

func (h *InventoryHandler) SaveMapping(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var mapping model.ColumnMapping
	if err := json.NewDecoder(r.Body).Decode(&mapping); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "SaveMapping", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := h.service.SaveMapping(r.Context(), &mapping); err != nil {
		h.writeError(w, "SaveMapping", err)
		return
	}

	if err := httputil.WriteSuccess(w, mapping); err != nil {
		h.log.Error("failed to write success response", "handler", "SaveMapping", "operation", "WriteSuccess", "error", err)
	}
}

func (h *InventoryHandler) GetMapping(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	mapping, err := h.service.GetMapping(r.Context())
	if err != nil {
		h.writeError(w, "GetMapping", err)
		return
	}

	if err := httputil.WriteSuccess(w, mapping); err != nil {
		h.log.Error("failed to write success response", "handler", "GetMapping", "operation", "WriteSuccess", "error", err)
	}
}

func (h *InventoryHandler) ExpectedQty(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()
	lookup := model.ExpectedQtyLookup{
		Location: query.Get("location"),
		PalletID: query.Get("pallet_id"),
		SKU:      query.Get("sku"),
		Lot:      query.Get("lot"),
	}

	if lookup.Location == "" && lookup.PalletID == "" && lookup.SKU == "" {
		h.writeError(w, "ExpectedQty", apperrors.InvalidInput("at least one of location, pallet_id or sku is required"))
		return
	}

	qty, found, err := h.service.ResolveExpectedQty(r.Context(), lookup)
	if err != nil {
		h.writeError(w, "ExpectedQty", err)
		return
	}

	if err := httputil.WriteSuccess(w, map[string]any{
		"expected_qty": qty,
		"found":        found,
	}); err != nil {
		h.log.Error("failed to write success response", "handler", "ExpectedQty", "operation", "WriteSuccess", "error", err)
	}
}

func (h *InventoryHandler) openUpload(w http.ResponseWriter, r *http.Request, handlerName string) (multipart.File, bool) {
	if err := r.ParseMultipartForm(h.maxSize); err != nil {
		h.writeError(w, handlerName, apperrors.InvalidInput("Request must be multipart/form-data with a file field"))
		return nil, false
	}

	file, _, err := r.FormFile(uploadFieldName)
	if err != nil {
		h.writeError(w, handlerName, apperrors.InvalidInput("Missing upload field 'file'"))
		return nil, false
	}

	return file, true
}

func (h *InventoryHandler) writeError(w http.ResponseWriter, handlerName string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handlerName, "operation", "WriteError", "error", writeErr)
	}
}

func (h *InventoryHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/inventory/import", h.Import)
	router.POST("/api/v1/inventory/sheets", h.Sheets)
	router.PUT("/api/v1/inventory/mapping", h.SaveMapping)
	router.GET("/api/v1/inventory/mapping", h.GetMapping)
	router.GET("/api/v1/inventory/expected", h.ExpectedQty)
}
