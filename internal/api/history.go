package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"thinkink-backend/internal/database"
	"thinkink-backend/pkg/api"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type HistoryService struct {
	db *gorm.DB
}

func NewHistoryService(db *gorm.DB) *HistoryService {
	return &HistoryService{db: db}
}

func (s *HistoryService) AddRoutes(r chi.Router) {
	r.Route("/history", func(r chi.Router) {
		r.Get("/", RestHandler(s.GetHistory))
		r.Get("/summary", RestHandler(s.GetSummary))
		r.Get("/feature/{feature_type}", RestHandler(s.GetFeatureHistory))
		r.Delete("/{history_id}", RestHandler(s.DeleteItem))
		r.Delete("/", RestHandler(s.ClearHistory))
	})
}

// userHistory loads a user's history rows, newest first, optionally filtered
// to a set of feature types. Shared with the per-feature stats endpoints.
func userHistory(ctx context.Context, db *gorm.DB, userId uuid.UUID, featureTypes ...string) ([]database.HistoryItem, error) {
	query := db.WithContext(ctx).Where("user_id = ?", userId)
	if len(featureTypes) > 0 {
		query = query.Where("feature_type IN ?", featureTypes)
	}

	var items []database.HistoryItem
	if err := query.Order("creation_time DESC").Find(&items).Error; err != nil {
		slog.Error("error loading history", "user_id", userId, "error", err)
		return nil, err
	}
	return items, nil
}

type historyListParams struct {
	FeatureType string `schema:"feature_type"`
	Limit       int    `schema:"limit"`
	Offset      int    `schema:"offset"`
}

func (s *HistoryService) GetHistory(r *http.Request) (any, error) {
	user, err := RequireUser(r)
	if err != nil {
		return nil, err
	}

	params, err := ParseRequestQueryParams[historyListParams](r)
	if err != nil {
		return nil, err
	}

	limit := clampLimit(params.Limit, 50, 100)
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}

	query := s.db.WithContext(r.Context()).Where("user_id = ?", user.Id)
	if params.FeatureType != "" {
		query = query.Where("feature_type = ?", params.FeatureType)
	}

	var items []database.HistoryItem
	if err := query.Order("creation_time DESC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		slog.Error("error loading history", "user_id", user.Id, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to retrieve history")
	}

	return convertHistoryItems(items), nil
}

type historySummaryParams struct {
	Days int `schema:"days"`
}

func (s *HistoryService) GetSummary(r *http.Request) (any, error) {
	user, err := RequireUser(r)
	if err != nil {
		return nil, err
	}

	params, err := ParseRequestQueryParams[historySummaryParams](r)
	if err != nil {
		return nil, err
	}
	days := clampLimit(params.Days, 30, 365)

	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	var items []database.HistoryItem
	err = s.db.WithContext(r.Context()).
		Where("user_id = ? AND creation_time >= ?", user.Id, cutoff).
		Order("creation_time DESC").
		Find(&items).Error
	if err != nil {
		slog.Error("error loading history summary", "user_id", user.Id, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to retrieve history summary")
	}

	breakdown := map[string]int{}
	totalProcessingTime := 0.0
	successful := 0
	for _, item := range items {
		breakdown[item.FeatureType]++
		totalProcessingTime += item.ProcessingTime
		if item.Status == database.ItemCompleted {
			successful++
		}
	}

	recent := items
	if len(recent) > 10 {
		recent = recent[:10]
	}

	stats := api.ProcessingStats{
		TotalProcessingTime: round2(totalProcessingTime),
	}
	if len(items) > 0 {
		stats.AverageProcessingTime = round2(totalProcessingTime / float64(len(items)))
		stats.SuccessRate = round1(float64(successful) / float64(len(items)) * 100)
	}

	return api.HistorySummary{
		TotalItems:       len(items),
		FeatureBreakdown: breakdown,
		RecentActivity:   convertHistoryItems(recent),
		ProcessingStats:  stats,
	}, nil
}

type featureHistoryParams struct {
	Limit int `schema:"limit"`
}

func (s *HistoryService) GetFeatureHistory(r *http.Request) (any, error) {
	user, err := RequireUser(r)
	if err != nil {
		return nil, err
	}

	featureType := chi.URLParam(r, "feature_type")
	if featureType == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "missing {feature_type} url parameter")
	}

	params, err := ParseRequestQueryParams[featureHistoryParams](r)
	if err != nil {
		return nil, err
	}
	limit := clampLimit(params.Limit, 20, 50)

	var items []database.HistoryItem
	err = s.db.WithContext(r.Context()).
		Where("user_id = ? AND feature_type = ?", user.Id, featureType).
		Order("creation_time DESC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		slog.Error("error loading feature history", "user_id", user.Id, "feature", featureType, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to retrieve feature history")
	}

	return api.FeatureHistoryResponse{
		FeatureType: featureType,
		TotalItems:  len(items),
		Items:       convertHistoryItems(items),
	}, nil
}

func (s *HistoryService) DeleteItem(r *http.Request) (any, error) {
	user, err := RequireUser(r)
	if err != nil {
		return nil, err
	}

	itemId, err := URLParamUUID(r, "history_id")
	if err != nil {
		return nil, err
	}

	ctx := r.Context()

	var item database.HistoryItem
	err = s.db.WithContext(ctx).First(&item, "id = ? AND user_id = ?", itemId, user.Id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, CodedErrorf(http.StatusNotFound, "history item not found")
		}
		slog.Error("error looking up history item", "item_id", itemId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to delete history item")
	}

	if err := s.db.WithContext(ctx).Delete(&item).Error; err != nil {
		slog.Error("error deleting history item", "item_id", itemId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to delete history item")
	}

	return api.MessageResponse{Message: "History item deleted successfully"}, nil
}

type clearHistoryParams struct {
	FeatureType string `schema:"feature_type"`
}

func (s *HistoryService) ClearHistory(r *http.Request) (any, error) {
	user, err := RequireUser(r)
	if err != nil {
		return nil, err
	}

	params, err := ParseRequestQueryParams[clearHistoryParams](r)
	if err != nil {
		return nil, err
	}

	query := s.db.WithContext(r.Context()).Where("user_id = ?", user.Id)
	if params.FeatureType != "" {
		query = query.Where("feature_type = ?", params.FeatureType)
	}

	result := query.Delete(&database.HistoryItem{})
	if result.Error != nil {
		slog.Error("error clearing history", "user_id", user.Id, "error", result.Error)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to clear history")
	}

	return api.DeletedResponse{
		Message:      fmt.Sprintf("Cleared %d history items", result.RowsAffected),
		DeletedCount: result.RowsAffected,
	}, nil
}
