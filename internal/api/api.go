package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"

	"reportdesk/pkg/reportdesk"
)

// NewRouter builds the HTTP API router.
func NewRouter(core *reportdesk.Core, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = core.Logger()
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	}))
	r.Use(middleware.Compress(5))
	r.Use(requestLoggingMiddleware(logger))
	r.Use(recoveryLoggingMiddleware(logger))

	h := &handler{
		core:   core,
		logger: logger,
		markdown: goldmark.New(
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
	}

	r.Get("/api/health", h.health)

	r.Route("/api/credit-reports", func(r chi.Router) {
		r.Get("/", h.listCreditReports)
		r.Post("/", h.generateCreditReport)
		r.Post("/stream", h.generateCreditReportStream)
		r.Post("/parse", h.parseCreditReport)
		r.Get("/export", h.exportCreditReports)
		r.Get("/{id}", h.getCreditReport)
		r.Delete("/{id}", h.deleteCreditReport)
	})

	r.Route("/api/insights", func(r chi.Router) {
		r.Get("/", h.listInsights)
		r.Post("/", h.generateInsight)
		r.Post("/stream", h.generateInsightStream)
		r.Post("/shorten", h.shortenInsight)
		r.Get("/export", h.exportInsights)
		r.Get("/{id}", h.getInsight)
		r.Get("/{id}/html", h.getInsightHTML)
		r.Delete("/{id}", h.deleteInsight)
	})

	r.Get("/api/ai-settings", h.getAISettings)
	r.Put("/api/ai-settings", h.setAISettings)

	r.Get("/api/operation-logs", h.getOperationLogs)

	r.Get("/api/storage", h.getStorageInfo)
	r.Get("/api/storage/backup", h.downloadBackup)

	return r
}

type handler struct {
	core     *reportdesk.Core
	logger   *slog.Logger
	markdown goldmark.Markdown
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
