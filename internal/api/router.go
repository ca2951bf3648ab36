// Package api wires the HTTP transport: routes, middleware and handlers.
package api

import (
	"github.com/gorilla/mux"

	"github.com/avclabs/faxdesk/internal/api/recovery"
	"github.com/avclabs/faxdesk/internal/health"
	"github.com/avclabs/faxdesk/internal/services"
)

// RouterOptions carries the wired services the router exposes.
type RouterOptions struct {
	Documents *services.DocumentService
	Memos     *services.MemoService
	Uploads   *services.UploadService
	Mail      *services.MailService
	Health    *health.ServiceHealthChecker
	Metrics   *Metrics
}

// NewRouter creates the HTTP router with all API routes.
func NewRouter(opts RouterOptions) *mux.Router {
	router := mux.NewRouter()

	// Global middlewares. CORS headers also need to reach 405 and
	// preflight responses, which bypass router middleware in mux.
	router.Use(recovery.Middleware)
	router.Use(corsMiddleware)
	if opts.Metrics != nil {
		router.Use(opts.Metrics.Middleware("faxdesk"))
	}
	router.MethodNotAllowedHandler = methodNotAllowedHandler()

	documentHandler := NewDocumentHandler(opts.Documents)
	memoHandler := NewMemoHandler(opts.Memos)
	uploadHandler := NewUploadHandler(opts.Uploads)
	mailHandler := NewMailHandler(opts.Mail)
	healthHandler := NewHealthHandler(opts.Health)

	// Document endpoints
	router.HandleFunc("/documents", documentHandler.ListDocuments).Methods("GET")
	router.HandleFunc("/documents/{id}", documentHandler.GetDocument).Methods("GET")
	router.HandleFunc("/documents/{id}/tags", documentHandler.UpdateLabels).Methods("PATCH")
	router.HandleFunc("/documents/{id}/classify", documentHandler.Classify).Methods("POST")

	// Memo endpoints
	router.HandleFunc("/documents/{id}/memos", memoHandler.ListMemos).Methods("GET")
	router.HandleFunc("/documents/{id}/memos", memoHandler.CreateMemo).Methods("POST")
	router.HandleFunc("/documents/{id}/memos/{memoId}", memoHandler.UpdateMemo).Methods("PUT")
	router.HandleFunc("/documents/{id}/memos/{memoId}", memoHandler.DeleteMemo).Methods("DELETE")

	// Upload and mail endpoints
	router.HandleFunc("/uploads/presigned-url", uploadHandler.PresignUpload).Methods("POST")
	router.HandleFunc("/emails/send", mailHandler.SendMail).Methods("POST")

	// Operational endpoints
	router.HandleFunc("/health", healthHandler.CheckHealth).Methods("GET")
	if opts.Metrics != nil {
		router.Handle("/metrics", opts.Metrics.Handler()).Methods("GET")
	}

	return router
}
