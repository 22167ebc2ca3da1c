package router

import (
	"net/http"

	"github.com/facturacr/edocs-api/internal/handlers"
	"github.com/facturacr/edocs-api/internal/middleware"
	"github.com/facturacr/edocs-api/internal/services"
	"github.com/facturacr/edocs-api/internal/utils"

	"github.com/gorilla/mux"
)

func NewRouter(docService services.DocumentService, logger *utils.Logger) http.Handler {
	r := mux.NewRouter()

	// Middlewares
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS())
	r.Use(middleware.Recovery(logger))

	docHandler := handlers.NewDocumentHandler(docService, logger)

	api := r.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)

	// Documents
	api.HandleFunc("/channels/{channel}/documents", docHandler.UploadDocuments).Methods(http.MethodPost)
	api.HandleFunc("/channels/{channel}/documents", docHandler.ListDocuments).Methods(http.MethodGet)
	api.HandleFunc("/channels/{channel}/documents/{clave}", docHandler.GetDocument).Methods(http.MethodGet)
	api.HandleFunc("/channels/{channel}/documents/{clave}", docHandler.DeleteDocument).Methods(http.MethodDelete)

	// Cascading column filters
	api.HandleFunc("/channels/{channel}/filters", docHandler.ListFilters).Methods(http.MethodGet)
	api.HandleFunc("/channels/{channel}/filters", docHandler.RemoveAllFilters).Methods(http.MethodDelete)
	api.HandleFunc("/channels/{channel}/filters/{column}/dialog", docHandler.OpenFilterDialog).Methods(http.MethodPost)
	api.HandleFunc("/channels/{channel}/filters/{column}", docHandler.ConfirmFilter).Methods(http.MethodPost)
	api.HandleFunc("/channels/{channel}/filters/{column}", docHandler.RemoveFilter).Methods(http.MethodDelete)

	// Ingestion log
	api.HandleFunc("/channels/{channel}/ingest-log", docHandler.GetIngestLog).Methods(http.MethodGet)
	api.HandleFunc("/channels/{channel}/ingest-log", docHandler.ClearIngestLog).Methods(http.MethodDelete)

	// Activity catalog sync
	api.HandleFunc("/channels/{channel}/activities/sync", docHandler.SyncActivities).Methods(http.MethodPost)

	return r
}
