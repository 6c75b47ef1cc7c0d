package reports

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"medreport-backend/internal/extract"
	"medreport-backend/internal/llm"
	"medreport-backend/internal/shared/metrics"
	"medreport-backend/internal/shared/server/middleware"
	"medreport-backend/internal/shared/server/respond"
)

const maxUploadSize = 10 << 20 // 10MB

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches report routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/reports", h.upload)
	rg.GET("/reports", h.list)
	rg.GET("/reports/:id", h.get)
	rg.DELETE("/reports/:id", h.remove)
}

func (h *Handler) upload(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	payload, err := io.ReadAll(file)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}

	metrics.IncIngestStarted()
	start := time.Now()
	id, err := h.Svc.Ingest(c.Request.Context(), userID, fileHeader.Filename, payload)
	metrics.ObserveIngestDurationMs(float64(time.Since(start).Milliseconds()))
	if err != nil {
		if errors.Is(err, ErrNotMedicalReport) {
			metrics.IncIngestRejected()
		} else {
			metrics.IncIngestFailed()
		}
		respondIngestError(c, err)
		return
	}
	metrics.IncIngestAccepted()

	c.Set("reportId", id)
	respond.Created(c, gin.H{
		"success":     true,
		"document_id": id,
	})
}

func (h *Handler) get(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	report, err := h.Svc.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "report not found", nil)
		case errors.Is(err, ErrForbidden):
			respond.Error(c, http.StatusForbidden, "forbidden", "report belongs to another user", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch report", nil)
		}
		return
	}

	respond.OK(c, gin.H{
		"success": true,
		"report":  toResponse(report),
	})
}

func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	list, err := h.Svc.List(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list reports", nil)
		return
	}

	out := make([]reportResponse, 0, len(list))
	for _, report := range list {
		out = append(out, toResponse(report))
	}
	respond.OK(c, gin.H{
		"success": true,
		"reports": out,
		"total":   len(out),
	})
}

func (h *Handler) remove(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	err := h.Svc.Delete(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "report not found", nil)
		case errors.Is(err, ErrForbidden):
			respond.Error(c, http.StatusForbidden, "forbidden", "report belongs to another user", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to delete report", nil)
		}
		return
	}

	respond.OK(c, gin.H{"success": true})
}

// respondIngestError maps pipeline failures to the stable error taxonomy so
// callers can discriminate retry-later from fix-the-input from rejection.
func respondIngestError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidUpload):
		respond.Error(c, http.StatusBadRequest, "invalid_upload", err.Error(), nil)
	case errors.Is(err, extract.ErrEmptyDocument):
		respond.Error(c, http.StatusBadRequest, "empty_document", "the PDF contains no pages", nil)
	case errors.Is(err, extract.ErrCorruptDocument):
		respond.Error(c, http.StatusBadRequest, "corrupt_document", "the file cannot be parsed as a PDF", nil)
	case errors.Is(err, ErrNotMedicalReport):
		respond.Error(c, http.StatusUnprocessableEntity, "not_a_medical_report", err.Error(), nil)
	case errors.Is(err, llm.ErrBackendUnavailable):
		respond.Error(c, http.StatusServiceUnavailable, "backend_unavailable", "the analysis backend is unavailable, retry later", nil)
	case errors.Is(err, ErrExtractionFailed), errors.Is(err, llm.ErrUnparsableResponse):
		respond.Error(c, http.StatusBadGateway, "extraction_failed", err.Error(), nil)
	case errors.Is(err, ErrPersistenceFailed):
		respond.Error(c, http.StatusInternalServerError, "persistence_failed", "failed to save report", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to process document", nil)
	}
}

type reportResponse struct {
	ID        string     `json:"id"`
	Filename  string     `json:"filename"`
	Data      ReportData `json:"extracted_data"`
	CreatedAt time.Time  `json:"created_at"`
}

func toResponse(report Report) reportResponse {
	return reportResponse{
		ID:        report.ID,
		Filename:  report.Filename,
		Data:      report.Data,
		CreatedAt: report.CreatedAt,
	}
}
