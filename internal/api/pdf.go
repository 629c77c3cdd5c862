package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"thinkink-backend/internal/ai"
	"thinkink-backend/internal/database"
	"thinkink-backend/internal/pdfx"
	"thinkink-backend/pkg/api"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

type PdfService struct {
	db     *gorm.DB
	llm    ai.LLM
	params *ai.ParamSet
}

func NewPdfService(db *gorm.DB, llm ai.LLM, params *ai.ParamSet) *PdfService {
	return &PdfService{db: db, llm: llm, params: params}
}

func (s *PdfService) AddRoutes(r chi.Router) {
	r.Route("/pdf", func(r chi.Router) {
		r.Post("/extract", RestHandler(s.Extract))
		r.Post("/info", RestHandler(s.Info))
		r.Post("/summarize", RestHandler(s.Summarize))
		r.Get("/stats", RestHandler(s.Stats))
	})
}

func parsePdfUpload(r *http.Request) (string, []byte, error) {
	header, data, err := ParseMultipartFile(r, "file")
	if err != nil {
		return "", nil, err
	}

	if header.Filename == "" {
		return "", nil, CodedErrorf(http.StatusBadRequest, "No file provided")
	}
	if !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
		return "", nil, CodedErrorf(http.StatusBadRequest, "File must be a PDF")
	}
	if len(data) == 0 {
		return "", nil, CodedErrorf(http.StatusBadRequest, "Empty file")
	}

	return header.Filename, data, nil
}

func (s *PdfService) Extract(r *http.Request) (any, error) {
	user, err := RequireUser(r)
	if err != nil {
		return nil, err
	}

	filename, data, err := parsePdfUpload(r)
	if err != nil {
		return nil, err
	}

	start := time.Now()

	doc, err := pdfx.Extract(data)
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "PDF processing failed: %v", err)
	}

	res := api.PdfExtractResponse{
		Text:             doc.Text,
		Pages:            convertPdfPages(doc.Pages),
		TotalPages:       doc.TotalPages,
		WordCount:        doc.WordCount,
		ExtractionMethod: pdfx.ExtractionMethod,
		ProcessingTime:   elapsedSeconds(start),
	}

	input := struct {
		Filename   string `json:"filename"`
		FileSize   int    `json:"file_size"`
		TotalPages int    `json:"total_pages"`
	}{Filename: filename, FileSize: len(data), TotalPages: doc.TotalPages}

	output := struct {
		WordCount        int    `json:"word_count"`
		ExtractionMethod string `json:"extraction_method"`
	}{WordCount: doc.WordCount, ExtractionMethod: pdfx.ExtractionMethod}

	if _, err := database.SaveHistoryItem(r.Context(), s.db, user.Id, database.FeaturePdf, input, output, res.ProcessingTime, database.ItemCompleted); err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to save history")
	}

	return res, nil
}

func (s *PdfService) Info(r *http.Request) (any, error) {
	if _, err := RequireUser(r); err != nil {
		return nil, err
	}

	_, data, err := parsePdfUpload(r)
	if err != nil {
		return nil, err
	}

	meta, err := pdfx.Info(data)
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "Failed to get PDF info: %v", err)
	}

	return api.PdfInfoResponse{
		TotalPages:       meta.TotalPages,
		Title:            meta.Title,
		Author:           meta.Author,
		Subject:          meta.Subject,
		Creator:          meta.Creator,
		Producer:         meta.Producer,
		CreationDate:     meta.CreationDate,
		ModificationDate: meta.ModificationDate,
	}, nil
}

func (s *PdfService) Summarize(r *http.Request) (any, error) {
	user, err := RequireUser(r)
	if err != nil {
		return nil, err
	}

	filename, data, err := parsePdfUpload(r)
	if err != nil {
		return nil, err
	}

	start := time.Now()

	doc, err := pdfx.Extract(data)
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "PDF processing failed: %v", err)
	}
	if doc.WordCount == 0 {
		return nil, CodedErrorf(http.StatusBadRequest, "No text could be extracted from the PDF")
	}

	summary, err := summarizeExtractedText(r.Context(), s.llm, s.params.For("pdf"), doc.Text)
	if err != nil {
		return nil, CodedErrorf(http.StatusBadGateway, "AI processing failed: %v", err)
	}

	res := api.PdfSummarizeResponse{
		Filename:       filename,
		TotalPages:     doc.TotalPages,
		WordCount:      doc.WordCount,
		Summary:        summary,
		ProcessingTime: elapsedSeconds(start),
	}

	input := struct {
		Filename   string `json:"filename"`
		FileSize   int    `json:"file_size"`
		TotalPages int    `json:"total_pages"`
	}{Filename: filename, FileSize: len(data), TotalPages: doc.TotalPages}

	output := struct {
		WordCount        int             `json:"word_count"`
		ExtractionMethod string          `json:"extraction_method"`
		Summary          api.TextSummary `json:"summary"`
	}{WordCount: doc.WordCount, ExtractionMethod: pdfx.ExtractionMethod, Summary: summary}

	if _, err := database.SaveHistoryItem(r.Context(), s.db, user.Id, database.FeaturePdf, input, output, res.ProcessingTime, database.ItemCompleted); err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to save history")
	}

	return res, nil
}

func (s *PdfService) Formats(r *http.Request) (any, error) {
	return api.PdfFormatsResponse{
		SupportedFormats:  []string{"PDF"},
		MaxFileSize:       "10MB",
		ExtractionMethods: []string{pdfx.ExtractionMethod},
		Features: []string{
			"Text extraction",
			"Page-by-page extraction",
			"PDF metadata extraction",
			"Complex layout handling",
		},
	}, nil
}

func (s *PdfService) Stats(r *http.Request) (any, error) {
	user, err := RequireUser(r)
	if err != nil {
		return nil, err
	}

	items, err := userHistory(r.Context(), s.db, user.Id, database.FeaturePdf)
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "Failed to get statistics")
	}

	stats := api.PdfStats{
		TotalProcessed:    len(items),
		ExtractionMethods: make(map[string]int),
	}

	totalTime := 0.0
	for _, item := range items {
		totalTime += item.ProcessingTime
		stats.TotalWords += outputWordCount(item)

		var in struct {
			TotalPages int `json:"total_pages"`
		}
		if len(item.InputData) > 0 {
			if err := json.Unmarshal(item.InputData, &in); err == nil {
				stats.TotalPages += in.TotalPages
			}
		}

		stats.ExtractionMethods[extractionMethod(item)]++
	}

	if len(items) > 0 {
		stats.AverageProcessingTime = round2(totalTime / float64(len(items)))
		stats.LastProcessed = formatTime(items[0].CreationTime)
	}

	return stats, nil
}

func extractionMethod(item database.HistoryItem) string {
	var out struct {
		ExtractionMethod string `json:"extraction_method"`
	}
	if len(item.OutputData) > 0 {
		if err := json.Unmarshal(item.OutputData, &out); err == nil && out.ExtractionMethod != "" {
			return out.ExtractionMethod
		}
	}
	return "unknown"
}

func convertPdfPages(pages []pdfx.Page) []api.PdfPage {
	converted := make([]api.PdfPage, len(pages))
	for i, page := range pages {
		converted[i] = api.PdfPage{Page: page.Number, Text: page.Text}
	}
	return converted
}
