package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"reportdesk/pkg/reportdesk"
)

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Credit reports.

func (h *handler) generateCreditReport(w http.ResponseWriter, r *http.Request) {
	var payload creditReportPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	record, err := h.core.GenerateCreditReport(r.Context(), payload.request())
	if err != nil {
		h.logger.Error("credit report generation failed", "provider", payload.Provider, "model", payload.Model, "err", err)
		writeErrorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *handler) generateCreditReportStream(w http.ResponseWriter, r *http.Request) {
	var payload creditReportPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	req := payload.request()
	if _, err := reportdesk.ValidateCreditReportRequest(req); err != nil {
		writeErrorResponse(w, r, err)
		return
	}

	h.stream(w, r, "credit report", "generating credit report", func(onDelta func(string)) (any, error) {
		return h.core.GenerateCreditReportStream(r.Context(), req, onDelta)
	})
}

func (h *handler) parseCreditReport(w http.ResponseWriter, r *http.Request) {
	var payload parsePayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.core.ParseCreditReport(payload.Text))
}

func (h *handler) listCreditReports(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	records, err := h.core.ListCreditReports(r.Context(), limit, offset)
	if err != nil {
		writeErrorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pageResponse{Items: records, Limit: limit, Offset: offset})
}

func (h *handler) getCreditReport(w http.ResponseWriter, r *http.Request) {
	record, err := h.core.GetCreditReport(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErrorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *handler) deleteCreditReport(w http.ResponseWriter, r *http.Request) {
	if err := h.core.DeleteCreditReport(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeErrorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *handler) exportCreditReports(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.core.ExportCreditReportsCSV(r.Context(), &buf); err != nil {
		writeErrorResponse(w, r, err)
		return
	}
	writeCSV(w, "credit-reports", buf.Bytes())
}

// Insights.

func (h *handler) generateInsight(w http.ResponseWriter, r *http.Request) {
	var payload insightPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	record, err := h.core.GenerateInsight(r.Context(), payload.request())
	if err != nil {
		h.logger.Error("insight generation failed",
			"location", payload.Location,
			"sector", payload.Sector,
			"provider", payload.Provider,
			"err", err,
		)
		writeErrorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *handler) generateInsightStream(w http.ResponseWriter, r *http.Request) {
	var payload insightPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(payload.Location) == "" || strings.TrimSpace(payload.Sector) == "" {
		writeError(w, r, http.StatusBadRequest, "location and sector are required")
		return
	}

	req := payload.request()
	h.stream(w, r, "insight", "generating investment insight", func(onDelta func(string)) (any, error) {
		return h.core.GenerateInsightStream(r.Context(), req, onDelta)
	})
}

func (h *handler) shortenInsight(w http.ResponseWriter, r *http.Request) {
	var payload shortenPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.core.ShortenInsight(payload.Text, payload.Location, payload.Sector))
}

func (h *handler) listInsights(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	records, err := h.core.ListInsights(r.Context(), limit, offset)
	if err != nil {
		writeErrorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pageResponse{Items: records, Limit: limit, Offset: offset})
}

func (h *handler) getInsight(w http.ResponseWriter, r *http.Request) {
	record, err := h.core.GetInsight(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErrorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *handler) getInsightHTML(w http.ResponseWriter, r *http.Request) {
	record, err := h.core.GetInsight(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErrorResponse(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := h.markdown.Convert([]byte(record.Text), &buf); err != nil {
		writeErrorResponse(w, r, reportdesk.WrapError(reportdesk.ErrCodeInternal, "failed to render insight", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *handler) deleteInsight(w http.ResponseWriter, r *http.Request) {
	if err := h.core.DeleteInsight(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeErrorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *handler) exportInsights(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.core.ExportInsightsCSV(r.Context(), &buf); err != nil {
		writeErrorResponse(w, r, err)
		return
	}
	writeCSV(w, "insights", buf.Bytes())
}

// AI settings.

func (h *handler) getAISettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.core.GetAISettings(r.Context())
	if err != nil {
		writeErrorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *handler) setAISettings(w http.ResponseWriter, r *http.Request) {
	var payload aiSettingsPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	current, err := h.core.GetAISettings(r.Context())
	if err != nil {
		writeErrorResponse(w, r, err)
		return
	}
	saved, err := h.core.SetAISettings(r.Context(), payload.apply(current))
	if err != nil {
		writeErrorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (h *handler) getOperationLogs(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	logs, err := h.core.GetOperationLogs(r.Context(), limit, offset)
	if err != nil {
		writeErrorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pageResponse{Items: logs, Limit: limit, Offset: offset})
}

// Streaming.

// stream runs generate while relaying model deltas as server-sent events:
// progress, delta..., then result or error, then done.
func (h *handler) stream(w http.ResponseWriter, r *http.Request, kind, startMessage string, generate func(onDelta func(string)) (any, error)) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, r, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	initSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	if err := writeSSEEvent(w, flusher, "progress", map[string]string{
		"stage":   "start",
		"message": startMessage,
	}); err != nil {
		h.logger.Warn("stream write failed", "kind", kind, "stage", "start", "err", err)
		return
	}

	result, err := generate(func(delta string) {
		if delta == "" {
			return
		}
		if err := writeSSEEvent(w, flusher, "delta", map[string]string{"text": delta}); err != nil {
			h.logger.Warn("stream delta write failed", "kind", kind, "err", err)
		}
	})
	if err != nil {
		h.logger.Error("stream generation failed", "kind", kind, "err", err)
		payload := map[string]string{"error": err.Error()}
		if code := reportdesk.ErrorCodeOf(err); code != "" {
			payload["error_code"] = string(code)
		}
		_ = writeSSEEvent(w, flusher, "error", payload)
		_ = writeSSEEvent(w, flusher, "done", map[string]any{"ok": false})
		return
	}

	_ = writeSSEEvent(w, flusher, "result", result)
	_ = writeSSEEvent(w, flusher, "done", map[string]any{"ok": true})
}

func initSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
}

func writeSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte("event: " + event + "\n")); err != nil {
		return err
	}
	if _, err := w.Write([]byte("data: " + string(data) + "\n\n")); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

// Helpers.

func writeCSV(w http.ResponseWriter, name string, data []byte) {
	filename := fmt.Sprintf("%s-%s.csv", name, time.Now().Format("20060102"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func pageParams(r *http.Request) (int, int) {
	query := r.URL.Query()
	return normalizeLimitOffset(parseIntDefault(query.Get("limit"), 0), parseIntDefault(query.Get("offset"), 0))
}

func parseIntDefault(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return i
}

func normalizeLimitOffset(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
