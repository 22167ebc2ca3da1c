package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/facturacr/edocs-api/internal/ingestlog"
	"github.com/facturacr/edocs-api/internal/models"
	"github.com/facturacr/edocs-api/internal/services"
	"github.com/facturacr/edocs-api/internal/utils"
	"github.com/gorilla/mux"
)

const (
	// MaxUploadSize bounds one whole multipart batch.
	MaxUploadSize = 64 << 20
	// MaxFileSize bounds one XML payload.
	MaxFileSize = 2 << 20
)

type DocumentHandler struct {
	service services.DocumentService
	logger  *utils.Logger
}

func NewDocumentHandler(service services.DocumentService, logger *utils.Logger) *DocumentHandler {
	return &DocumentHandler{
		service: service,
		logger:  logger,
	}
}

func (h *DocumentHandler) UploadDocuments(w http.ResponseWriter, r *http.Request) {
	channel := mux.Vars(r)["channel"]
	if channel == "" {
		h.respondError(w, utils.NewBadRequestError("Channel is required"))
		return
	}

	if r.ContentLength > MaxUploadSize {
		h.respondError(w, utils.NewBadRequestError("Upload exceeds size limit"))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)

	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		if strings.Contains(err.Error(), "request body too large") {
			h.respondError(w, utils.NewBadRequestError("Upload exceeds size limit"))
			return
		}
		h.respondError(w, utils.NewBadRequestError("Invalid form data"))
		return
	}

	fileHeaders := r.MultipartForm.File["files"]
	if len(fileHeaders) == 0 {
		h.respondError(w, utils.NewBadRequestError("No files provided"))
		return
	}

	files := make([]services.UploadFile, 0, len(fileHeaders))
	for _, header := range fileHeaders {
		if header.Size > MaxFileSize {
			h.respondError(w, utils.NewBadRequestError("File "+header.Filename+" exceeds size limit"))
			return
		}

		f, err := header.Open()
		if err != nil {
			h.respondError(w, utils.NewInternalError("Failed to read uploaded file"))
			return
		}
		data, err := io.ReadAll(io.LimitReader(f, MaxFileSize+1))
		f.Close()
		if err != nil {
			h.respondError(w, utils.NewInternalError("Failed to read uploaded file"))
			return
		}

		files = append(files, services.UploadFile{Name: header.Filename, Data: data})
	}

	result, err := h.service.IngestBatch(r.Context(), channel, files)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, result)
}

func (h *DocumentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	channel := mux.Vars(r)["channel"]

	resp, err := h.service.LoadDataset(r.Context(), channel)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, resp)
}

func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	rec, err := h.service.GetDocument(r.Context(), vars["channel"], vars["clave"])
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, rec)
}

func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	if err := h.service.DeleteDocument(r.Context(), vars["channel"], vars["clave"]); err != nil {
		h.respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *DocumentHandler) OpenFilterDialog(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	resp, err := h.service.OpenFilterDialog(r.Context(), vars["channel"], vars["column"])
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, resp)
}

func (h *DocumentHandler) ConfirmFilter(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req models.ConfirmFilterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, utils.NewBadRequestError("Invalid request body"))
		return
	}

	if err := h.service.ConfirmFilter(r.Context(), vars["channel"], vars["column"], req.Selected); err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]any{
		"filters": h.service.ActiveFilters(vars["channel"]),
	})
}

func (h *DocumentHandler) RemoveFilter(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	h.service.RemoveFilter(vars["channel"], vars["column"])

	h.respondJSON(w, http.StatusOK, map[string]any{
		"filters": h.service.ActiveFilters(vars["channel"]),
	})
}

func (h *DocumentHandler) RemoveAllFilters(w http.ResponseWriter, r *http.Request) {
	channel := mux.Vars(r)["channel"]

	h.service.RemoveAllFilters(channel)

	h.respondJSON(w, http.StatusOK, map[string]any{"filters": []string{}})
}

func (h *DocumentHandler) ListFilters(w http.ResponseWriter, r *http.Request) {
	channel := mux.Vars(r)["channel"]

	h.respondJSON(w, http.StatusOK, map[string]any{
		"filters": h.service.ActiveFilters(channel),
	})
}

func (h *DocumentHandler) GetIngestLog(w http.ResponseWriter, r *http.Request) {
	channel := mux.Vars(r)["channel"]

	outcome := ingestlog.Outcome(r.URL.Query().Get("outcome"))
	switch outcome {
	case "", ingestlog.OutcomeSuccess, ingestlog.OutcomeRejected, ingestlog.OutcomeResponse:
	default:
		h.respondError(w, utils.NewBadRequestError("Unknown outcome filter"))
		return
	}

	entries := h.service.IngestLog(channel, outcome)
	h.respondJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *DocumentHandler) ClearIngestLog(w http.ResponseWriter, r *http.Request) {
	channel := mux.Vars(r)["channel"]

	h.service.ClearIngestLog(channel)
	w.WriteHeader(http.StatusNoContent)
}

func (h *DocumentHandler) SyncActivities(w http.ResponseWriter, r *http.Request) {
	channel := mux.Vars(r)["channel"]

	count, err := h.service.SyncActivities(r.Context(), channel)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]any{"synced": count})
}

func (h *DocumentHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", "error", err)
	}
}

func (h *DocumentHandler) respondError(w http.ResponseWriter, err error) {
	var status int
	var message string

	switch e := err.(type) {
	case *utils.AppError:
		status = e.StatusCode
		message = e.Message
	default:
		status = http.StatusInternalServerError
		message = "Internal server error"
	}

	h.logger.Error("Request error", "status", status, "error", message)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
