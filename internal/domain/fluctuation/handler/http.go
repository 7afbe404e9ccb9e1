package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/exporter"
	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/model"
	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/parser"
	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/repository"
	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/service"
	"github.com/FACorreiaa/sig-activa/pkg/storage"
)

const multipartMemory = 32 << 20

// HTTPHandler serves the upload and download routes used by the dashboard.
type HTTPHandler struct {
	svc            *service.Service
	logger         *slog.Logger
	maxUploadBytes int64
}

func NewHTTPHandler(svc *service.Service, maxUploadBytes int64, logger *slog.Logger) *HTTPHandler {
	return &HTTPHandler{svc: svc, logger: logger, maxUploadBytes: maxUploadBytes}
}

// Register mounts the routes on mux. protect wraps the routes that need authentication.
func (h *HTTPHandler) Register(mux *http.ServeMux, protect func(http.Handler) http.Handler) {
	if protect == nil {
		protect = func(next http.Handler) http.Handler { return next }
	}
	mux.Handle("POST /api/fluctuation/analyze", protect(http.HandlerFunc(h.handleAnalyze)))
	mux.Handle("POST /api/fluctuation/export", protect(http.HandlerFunc(h.handleExport)))
	mux.Handle("POST /api/fluctuation/export.csv", protect(http.HandlerFunc(h.handleExportCSV)))
	mux.Handle("POST /api/fluctuation/process", protect(http.HandlerFunc(h.handleProcess)))
	mux.Handle("GET /api/fluctuation/runs/{id}/download", protect(http.HandlerFunc(h.handleDownload)))
	mux.HandleFunc("GET /healthz", h.handleHealth)
}

func (h *HTTPHandler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	up, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	res, err := h.svc.Analyze(r.Context(), up)
	if err != nil {
		h.respondServiceError(w, r, "failed to analyze workbook", err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

func (h *HTTPHandler) handleExport(w http.ResponseWriter, r *http.Request) {
	res, ok := h.readResult(w, r)
	if !ok {
		return
	}
	data, name, err := h.svc.Export(r.Context(), res)
	if err != nil {
		h.respondServiceError(w, r, "failed to export workbook", err)
		return
	}
	h.writeAttachment(w, exporter.ContentType, name, data)
}

func (h *HTTPHandler) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	res, ok := h.readResult(w, r)
	if !ok {
		return
	}
	data, name, err := h.svc.ExportCSV(r.Context(), res)
	if err != nil {
		h.respondServiceError(w, r, "failed to export csv", err)
		return
	}
	h.writeAttachment(w, "text/csv; charset=utf-8", name, data)
}

func (h *HTTPHandler) handleProcess(w http.ResponseWriter, r *http.Request) {
	up, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	summary, err := h.svc.Process(r.Context(), ownerID(r.Context()), up)
	if err != nil {
		h.respondServiceError(w, r, "failed to process workbook", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, summary)
}

func (h *HTTPHandler) handleDownload(w http.ResponseWriter, r *http.Request) {
	runID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, "invalid run ID", nil)
		return
	}

	rc, info, err := h.svc.Download(r.Context(), ownerID(r.Context()), runID)
	if err != nil {
		h.respondServiceError(w, r, "failed to download workbook", err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", info.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", info.Name))
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("failed to stream workbook", slog.String("run_id", runID.String()), slog.Any("error", err))
	}
}

func (h *HTTPHandler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readUpload reads the multipart "file" field within the upload limit.
func (h *HTTPHandler) readUpload(w http.ResponseWriter, r *http.Request) (service.Upload, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		h.respondBodyError(w, r, "failed to read multipart form", err)
		return service.Upload{}, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, "missing file field", err)
		return service.Upload{}, false
	}
	defer file.Close()

	if header.Size > h.maxUploadBytes {
		h.respondError(w, r, http.StatusRequestEntityTooLarge, "workbook exceeds the upload limit", nil)
		return service.Upload{}, false
	}
	data, err := io.ReadAll(file)
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, "failed to read file", err)
		return service.Upload{}, false
	}

	return service.Upload{
		FileName:   header.Filename,
		Data:       data,
		RekapSheet: r.FormValue("rekapSheet"),
	}, true
}

// readResult decodes a Result posted back by the dashboard for export.
func (h *HTTPHandler) readResult(w http.ResponseWriter, r *http.Request) (*model.Result, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes*4)
	var res model.Result
	if err := json.NewDecoder(r.Body).Decode(&res); err != nil {
		h.respondBodyError(w, r, "invalid result body", err)
		return nil, false
	}
	return &res, true
}

func (h *HTTPHandler) writeAttachment(w http.ResponseWriter, contentType, name string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if _, err := w.Write(data); err != nil {
		h.logger.Warn("failed to write attachment", slog.String("file", name), slog.Any("error", err))
	}
}

// writeJSON encodes v as JSON with the given status and writes headers.
func (h *HTTPHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("failed to write json response", slog.Any("error", err))
	}
}

// respondError logs the error and returns a JSON error body. The error text goes out as
// detail so failures at the service boundary keep their message.
func (h *HTTPHandler) respondError(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	attrs := []any{
		slog.Int("status", status),
		slog.String("msg", message),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	}
	if err != nil {
		attrs = append(attrs, slog.Any("error", err))
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request error", attrs...)
	} else {
		h.logger.Warn("request error", attrs...)
	}

	body := map[string]string{"status": "error", "error": message}
	if err != nil {
		body["detail"] = err.Error()
	}
	h.writeJSON(w, status, body)
}

func (h *HTTPHandler) respondBodyError(w http.ResponseWriter, r *http.Request, message string, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		h.respondError(w, r, http.StatusRequestEntityTooLarge, "request body exceeds the upload limit", err)
		return
	}
	h.respondError(w, r, http.StatusBadRequest, message, err)
}

func (h *HTTPHandler) respondServiceError(w http.ResponseWriter, r *http.Request, message string, err error) {
	h.respondError(w, r, httpStatus(err), message, err)
}

func httpStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrEmptyUpload), errors.Is(err, parser.ErrUnreadableWorkbook):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrRunNotFound), errors.Is(err, storage.ErrFileNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrHistoryDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
