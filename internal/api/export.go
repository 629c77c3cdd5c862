package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"thinkink-backend/internal/export"
	"thinkink-backend/pkg/api"

	"github.com/go-chi/chi/v5"
)

type ExportService struct {
	renderer *export.PdfRenderer
}

func NewExportService(renderer *export.PdfRenderer) *ExportService {
	return &ExportService{renderer: renderer}
}

func (s *ExportService) AddRoutes(r chi.Router) {
	r.Route("/export", func(r chi.Router) {
		r.Post("/pdf", s.ExportPdf)
		r.Post("/markdown", RestHandler(s.ExportMarkdown))
		r.Post("/html", s.ExportHtml)
	})
}

func exportFilename(requested, extension string) string {
	if requested != "" {
		return requested
	}
	return fmt.Sprintf("export-%s.%s", time.Now().UTC().Format("20060102-150405"), extension)
}

// ExportPdf returns the rendered document directly rather than JSON, so the
// browser can treat the response as a file download.
func (s *ExportService) ExportPdf(w http.ResponseWriter, r *http.Request) {
	if _, err := RequireUser(r); err != nil {
		writeEndpointError(w, err)
		return
	}

	req, err := ParseRequest[api.ExportPdfRequest](r)
	if err != nil {
		writeEndpointError(w, err)
		return
	}

	if strings.TrimSpace(req.Html) == "" {
		writeEndpointError(w, CodedError(http.StatusBadRequest, fmt.Errorf("HTML content is required")))
		return
	}

	title := req.Title
	if title == "" {
		title = "Export"
	}

	pdf, err := s.renderer.RenderPdf(r.Context(), req.Html, title)
	if err != nil {
		if errors.Is(err, export.ErrNotConfigured) {
			writeEndpointError(w, CodedError(http.StatusServiceUnavailable, err))
			return
		}
		writeEndpointError(w, CodedErrorf(http.StatusInternalServerError, "Failed to generate PDF: %v", err))
		return
	}

	filename := exportFilename(req.Filename, "pdf")
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	if _, err := w.Write(pdf); err != nil {
		slog.Error("error writing pdf export response", "filename", filename, "error", err)
	}
}

func (s *ExportService) ExportMarkdown(r *http.Request) (any, error) {
	if _, err := RequireUser(r); err != nil {
		return nil, err
	}

	req, err := ParseRequest[api.ExportMarkdownRequest](r)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.Html) == "" {
		return nil, CodedError(http.StatusBadRequest, fmt.Errorf("HTML content is required"))
	}

	markdown, err := export.ToMarkdown(req.Html)
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "Failed to convert to markdown: %v", err)
	}

	return api.ExportMarkdownResponse{
		Markdown: markdown,
		Filename: exportFilename(req.Filename, "md"),
	}, nil
}

// ExportHtml hands back the same styled document the PDF pipeline renders,
// for clients that want to print or archive it themselves.
func (s *ExportService) ExportHtml(w http.ResponseWriter, r *http.Request) {
	if _, err := RequireUser(r); err != nil {
		writeEndpointError(w, err)
		return
	}

	req, err := ParseRequest[api.ExportPdfRequest](r)
	if err != nil {
		writeEndpointError(w, err)
		return
	}

	if strings.TrimSpace(req.Html) == "" {
		writeEndpointError(w, CodedError(http.StatusBadRequest, fmt.Errorf("HTML content is required")))
		return
	}

	title := req.Title
	if title == "" {
		title = "Export"
	}

	doc, err := export.WrapDocument(req.Html, title)
	if err != nil {
		writeEndpointError(w, CodedErrorf(http.StatusInternalServerError, "Failed to render document: %v", err))
		return
	}

	filename := exportFilename(req.Filename, "html")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	if _, err := w.Write([]byte(doc)); err != nil {
		slog.Error("error writing html export response", "filename", filename, "error", err)
	}
}
