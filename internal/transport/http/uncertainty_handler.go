package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"uncertcli/internal/dataprocessing"
	apierrors "uncertcli/internal/errors"
	"uncertcli/internal/exporter"
	"uncertcli/internal/files"
	"uncertcli/internal/infrastructure"
	"uncertcli/internal/middleware"
	"uncertcli/internal/validation"
	api "uncertcli/pkg/contracts/api/v1"
	"uncertcli/pkg/contracts/domain"
)

// TrialsField is the multipart part holding the uploaded trial table
const TrialsField = "trials"

// UncertaintyAnalyzer computes a result table from an uploaded trial table
type UncertaintyAnalyzer interface {
	Analyze(ctx context.Context, name string, r io.Reader, opts dataprocessing.ProcessingOptions) (*domain.ResultTable, error)
}

// UncertaintyHandler serves uncertainty runs over uploaded tables
type UncertaintyHandler struct {
	service      UncertaintyAnalyzer
	defaults     dataprocessing.ProcessingOptions
	validation   *middleware.ValidationMiddleware
	files        *validation.FileValidator
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewUncertaintyHandler creates the handler. defaults supply every option the
// request leaves out.
func NewUncertaintyHandler(
	service UncertaintyAnalyzer,
	defaults dataprocessing.ProcessingOptions,
	requests *middleware.ValidationMiddleware,
	fileValidator *validation.FileValidator,
	errorHandler *apierrors.ErrorHandler,
	logger *slog.Logger,
) *UncertaintyHandler {
	return &UncertaintyHandler{
		service:      service,
		defaults:     defaults,
		validation:   requests,
		files:        fileValidator,
		errorHandler: errorHandler,
		logger:       infrastructure.WithComponent(logger, "uncertainty_handler"),
	}
}

// Routes returns the uncertainty routes
func (h *UncertaintyHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.ContentTypeValidator(h.errorHandler, "multipart/form-data"))
	r.Use(h.validation.LimitBody)

	r.Post("/", h.Analyze)
	return r
}

// Analyze handles POST /api/v1/uncertainty. The trial table is the multipart
// "trials" part; options come from the query string. With export=csv or
// export=excel the result file is streamed back, otherwise a JSON body is sent.
func (h *UncertaintyHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	var req api.UncertaintyRequest
	if err := h.validation.BindQuery(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	maxBytes := h.validation.MaxBodySize()
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.errorHandler.HandleError(w, r, apierrors.ErrPayloadTooLarge)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(TrialsField)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation(TrialsField, "a trial table upload is required"))
		return
	}
	defer file.Close()

	if err := h.files.ValidateUpload(header, maxBytes); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	opts := h.options(req)
	h.logger.InfoContext(ctx, "analysing upload",
		slog.String("file", header.Filename),
		slog.Int64("size", header.Size),
		slog.String("group_column", opts.GroupColumn),
		slog.Int("workers", opts.Workers),
		slog.String("export", req.Export),
	)

	table, err := h.service.Analyze(ctx, header.Filename, file, opts)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	if format, ok := req.ExportFormat(); ok {
		h.writeExport(w, r, header.Filename, table, format)
		return
	}

	render.JSON(w, r, api.UncertaintyResponse{
		ID:            uuid.New().String(),
		Source:        header.Filename,
		Columns:       table.Columns,
		Rows:          api.NewUncertaintyRows(table.Rows),
		SkippedGroups: table.SkippedGroups,
		Unresolved:    table.UnresolvedCount(),
		Options:       opts.Format,
		DurationMS:    time.Since(start).Milliseconds(),
		CompletedAt:   time.Now().UTC(),
	})
}

func (h *UncertaintyHandler) options(req api.UncertaintyRequest) dataprocessing.ProcessingOptions {
	opts := h.defaults
	if req.GroupColumn != "" {
		opts.GroupColumn = req.GroupColumn
	}
	if req.Workers > 0 {
		opts.Workers = req.Workers
	}
	opts.Format = req.FormatOptions(opts.Format)
	return opts
}

// writeExport encodes into memory first so an encoding failure can still be
// reported as a problem response.
func (h *UncertaintyHandler) writeExport(w http.ResponseWriter, r *http.Request, source string, table *domain.ResultTable, format domain.ExportFormat) {
	ext, err := exporter.Extension(format)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := exporter.Encode(&buf, table, format); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewExportError("cannot encode result table", err))
		return
	}

	w.Header().Set("Content-Type", exporter.ContentType(format))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": files.ResultName(source, ext),
	}))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "export response truncated",
			slog.String("error", err.Error()),
			slog.String("format", string(format)))
	}
}
