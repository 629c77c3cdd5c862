package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"thinkink-backend/internal/ai"
	"thinkink-backend/internal/database"
	"thinkink-backend/internal/ocr"
	"thinkink-backend/pkg/api"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ImageService struct {
	db     *gorm.DB
	ocr    ocr.Client
	llm    ai.LLM
	params *ai.ParamSet
}

func NewImageService(db *gorm.DB, ocrClient ocr.Client, llm ai.LLM, params *ai.ParamSet) *ImageService {
	return &ImageService{db: db, ocr: ocrClient, llm: llm, params: params}
}

func (s *ImageService) AddRoutes(r chi.Router) {
	r.Route("/image", func(r chi.Router) {
		r.Post("/process", RestHandler(s.Process))
		r.Get("/history", RestHandler(s.History))
		r.Get("/history/{image_id}", RestHandler(s.HistoryDetail))
		r.Delete("/history/{image_id}", RestHandler(s.DeleteRecord))
		r.Delete("/history", RestHandler(s.ClearHistory))
	})
}

func (s *ImageService) Process(r *http.Request) (any, error) {
	user, err := RequireUser(r)
	if err != nil {
		return nil, err
	}

	header, data, err := ParseMultipartFile(r, "file")
	if err != nil {
		return nil, err
	}

	if !strings.HasPrefix(header.Header.Get("Content-Type"), "image/") {
		return nil, CodedErrorf(http.StatusBadRequest, "File must be an image (JPG, PNG, etc.)")
	}
	if len(data) == 0 {
		return nil, CodedErrorf(http.StatusBadRequest, "Empty file")
	}

	start := time.Now()
	ctx := r.Context()

	// The item is visible in history as PROCESSING while OCR and
	// summarization run, and keeps the failure reason if either step dies.
	item := database.ImageItem{
		Id:           uuid.New(),
		UserId:       user.Id,
		Filename:     header.Filename,
		ContentType:  header.Header.Get("Content-Type"),
		SizeBytes:    int64(len(data)),
		Status:       database.ItemProcessing,
		CreationTime: time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "Failed to process image")
	}

	text, err := s.ocr.ExtractText(ctx, header.Filename, data)
	if err != nil {
		_ = database.FailImageItem(ctx, s.db, item.Id, fmt.Sprintf("text extraction failed: %v", err))
		if errors.Is(err, ocr.ErrNoText) {
			return nil, CodedErrorf(http.StatusBadRequest, "No text could be extracted from the image. Please ensure the image contains clear, readable text.")
		}
		return nil, CodedErrorf(http.StatusBadGateway, "Failed to extract text from image")
	}

	summary, err := summarizeExtractedText(ctx, s.llm, s.params.For("image"), text)
	if err != nil {
		_ = database.FailImageItem(ctx, s.db, item.Id, fmt.Sprintf("summarization failed: %v", err))
		return nil, CodedErrorf(http.StatusBadGateway, "AI processing failed: %v", err)
	}

	processingTime := elapsedSeconds(start)
	if err := database.CompleteImageItem(ctx, s.db, item.Id, text, summary, processingTime); err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "Failed to process image")
	}

	item.ExtractedText = text
	item.ProcessingTime = processingTime
	item.Status = database.ItemCompleted

	res := convertImageItem(item)
	res.Summary = summary

	return res, nil
}

type imageHistoryParams struct {
	Limit  int `schema:"limit"`
	Offset int `schema:"offset"`
}

func (s *ImageService) History(r *http.Request) (any, error) {
	user, err := RequireUser(r)
	if err != nil {
		return nil, err
	}

	params, err := ParseRequestQueryParams[imageHistoryParams](r)
	if err != nil {
		return nil, err
	}

	limit := clampLimit(params.Limit, 20, 100)
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}

	var items []database.ImageItem
	err = s.db.WithContext(r.Context()).
		Where("user_id = ?", user.Id).
		Order("creation_time DESC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "Failed to retrieve image history")
	}

	return convertImageItems(items), nil
}

func (s *ImageService) HistoryDetail(r *http.Request) (any, error) {
	user, err := RequireUser(r)
	if err != nil {
		return nil, err
	}

	imageId, err := URLParamUUID(r, "image_id")
	if err != nil {
		return nil, err
	}

	var item database.ImageItem
	err = s.db.WithContext(r.Context()).
		Where("id = ? AND user_id = ?", imageId, user.Id).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, CodedErrorf(http.StatusNotFound, "Image processing record not found")
		}
		return nil, CodedErrorf(http.StatusInternalServerError, "Failed to retrieve image detail")
	}

	return convertImageItem(item), nil
}

func (s *ImageService) DeleteRecord(r *http.Request) (any, error) {
	user, err := RequireUser(r)
	if err != nil {
		return nil, err
	}

	imageId, err := URLParamUUID(r, "image_id")
	if err != nil {
		return nil, err
	}

	result := s.db.WithContext(r.Context()).
		Where("id = ? AND user_id = ?", imageId, user.Id).
		Delete(&database.ImageItem{})
	if result.Error != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "Failed to delete image processing record")
	}
	if result.RowsAffected == 0 {
		return nil, CodedErrorf(http.StatusNotFound, "Image processing record not found")
	}

	return api.MessageResponse{Message: "Image processing record deleted successfully"}, nil
}

func (s *ImageService) ClearHistory(r *http.Request) (any, error) {
	user, err := RequireUser(r)
	if err != nil {
		return nil, err
	}

	result := s.db.WithContext(r.Context()).
		Where("user_id = ?", user.Id).
		Delete(&database.ImageItem{})
	if result.Error != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "Failed to clear image history")
	}

	return api.MessageResponse{Message: fmt.Sprintf("Cleared %d image processing records", result.RowsAffected)}, nil
}
