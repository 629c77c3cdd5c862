package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func UpdateHistoryItemStatus(ctx context.Context, txn *gorm.DB, itemId uuid.UUID, status string) error {
	updates := map[string]any{"status": status}
	if status == ItemCompleted || status == ItemFailed {
		updates["completion_time"] = time.Now().UTC()
	}

	if err := txn.WithContext(ctx).Model(&HistoryItem{Id: itemId}).Updates(updates).Error; err != nil {
		slog.Error("error updating history item status", "item_id", itemId, "status", status, "error", err)
		return err
	}
	return nil
}

// CompleteHistoryItem stores the output payload and processing time together
// with the terminal COMPLETED status.
func CompleteHistoryItem(ctx context.Context, txn *gorm.DB, itemId uuid.UUID, output any, processingTime float64) error {
	data, err := json.Marshal(output)
	if err != nil {
		return fmt.Errorf("could not marshal output payload: %w", err)
	}

	updates := map[string]any{
		"status":          ItemCompleted,
		"output_data":     datatypes.JSON(data),
		"processing_time": processingTime,
		"completion_time": time.Now().UTC(),
	}

	if err := txn.WithContext(ctx).Model(&HistoryItem{Id: itemId}).Updates(updates).Error; err != nil {
		slog.Error("error completing history item", "item_id", itemId, "error", err)
		return err
	}
	return nil
}

func FailHistoryItem(ctx context.Context, txn *gorm.DB, itemId uuid.UUID, errorMessage string) error {
	updates := map[string]any{
		"status":          ItemFailed,
		"error":           errorMessage,
		"completion_time": time.Now().UTC(),
	}

	if err := txn.WithContext(ctx).Model(&HistoryItem{Id: itemId}).Updates(updates).Error; err != nil {
		slog.Error("error marking history item failed", "item_id", itemId, "error", err)
		return err
	}
	return nil
}

// SaveHistoryItem records a finished (or queued) processing run. Input and
// output payloads are marshalled to the opaque JSON columns; the shape of each
// depends on the feature type and is owned by the feature's API structs.
func SaveHistoryItem(ctx context.Context, db *gorm.DB, userId uuid.UUID, featureType string, input, output any, processingTime float64, status string) (HistoryItem, error) {
	inputData, err := json.Marshal(input)
	if err != nil {
		return HistoryItem{}, fmt.Errorf("could not marshal input payload: %w", err)
	}
	outputData, err := json.Marshal(output)
	if err != nil {
		return HistoryItem{}, fmt.Errorf("could not marshal output payload: %w", err)
	}

	item := HistoryItem{
		Id:             uuid.New(),
		UserId:         userId,
		FeatureType:    featureType,
		InputData:      inputData,
		OutputData:     outputData,
		ProcessingTime: processingTime,
		Status:         status,
		CreationTime:   time.Now().UTC(),
	}

	if err := db.WithContext(ctx).Create(&item).Error; err != nil {
		slog.Error("error saving history item", "user_id", userId, "feature", featureType, "error", err)
		return HistoryItem{}, err
	}
	return item, nil
}

// SaveResearchItem stores a completed paper search with its full result set.
func SaveResearchItem(ctx context.Context, db *gorm.DB, userId uuid.UUID, query string, maxResults int, results any) (ResearchItem, error) {
	data, err := json.Marshal(results)
	if err != nil {
		return ResearchItem{}, fmt.Errorf("could not marshal search results: %w", err)
	}

	item := ResearchItem{
		Id:           uuid.New(),
		UserId:       userId,
		Query:        query,
		MaxResults:   maxResults,
		Results:      datatypes.JSON(data),
		CreationTime: time.Now().UTC(),
	}

	if err := db.WithContext(ctx).Create(&item).Error; err != nil {
		slog.Error("error saving research item", "user_id", userId, "error", err)
		return ResearchItem{}, err
	}
	return item, nil
}

func UpdateImageItemStatus(ctx context.Context, txn *gorm.DB, itemId uuid.UUID, status string) error {
	updates := map[string]any{"status": status}
	if status == ItemCompleted || status == ItemFailed {
		updates["completion_time"] = time.Now().UTC()
	}

	if err := txn.WithContext(ctx).Model(&ImageItem{Id: itemId}).Updates(updates).Error; err != nil {
		slog.Error("error updating image item status", "item_id", itemId, "status", status, "error", err)
		return err
	}
	return nil
}

func CompleteImageItem(ctx context.Context, txn *gorm.DB, itemId uuid.UUID, extractedText string, summary any, processingTime float64) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("could not marshal summary payload: %w", err)
	}

	updates := map[string]any{
		"status":          ItemCompleted,
		"extracted_text":  extractedText,
		"summary":         datatypes.JSON(data),
		"processing_time": processingTime,
		"completion_time": time.Now().UTC(),
	}

	if err := txn.WithContext(ctx).Model(&ImageItem{Id: itemId}).Updates(updates).Error; err != nil {
		slog.Error("error completing image item", "item_id", itemId, "error", err)
		return err
	}
	return nil
}

func FailImageItem(ctx context.Context, txn *gorm.DB, itemId uuid.UUID, errorMessage string) error {
	updates := map[string]any{
		"status":          ItemFailed,
		"error":           errorMessage,
		"completion_time": time.Now().UTC(),
	}

	if err := txn.WithContext(ctx).Model(&ImageItem{Id: itemId}).Updates(updates).Error; err != nil {
		slog.Error("error marking image item failed", "item_id", itemId, "error", err)
		return err
	}
	return nil
}
