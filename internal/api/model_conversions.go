package api

import (
	"encoding/json"
	"strings"

	"thinkink-backend/internal/database"
	"thinkink-backend/pkg/api"
)

func convertUser(u database.User) api.UserProfile {
	return api.UserProfile{
		Id:          u.Id,
		FirebaseUid: u.FirebaseUid,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		PhotoUrl:    u.PhotoUrl,
		Provider:    u.Provider,
		CreatedAt:   u.CreationTime,
		LastLogin:   u.LastLogin,
	}
}

func convertHistoryItem(item database.HistoryItem) api.HistoryItem {
	return api.HistoryItem{
		Id:             item.Id,
		UserId:         item.UserId,
		FeatureType:    item.FeatureType,
		InputData:      json.RawMessage(item.InputData),
		OutputData:     json.RawMessage(item.OutputData),
		ProcessingTime: item.ProcessingTime,
		Status:         item.Status,
		Error:          item.Error,
		CreatedAt:      item.CreationTime,
	}
}

func convertHistoryItems(items []database.HistoryItem) []api.HistoryItem {
	converted := make([]api.HistoryItem, 0, len(items))
	for _, item := range items {
		converted = append(converted, convertHistoryItem(item))
	}
	return converted
}

func convertImageItem(item database.ImageItem) api.ImageProcessResponse {
	res := api.ImageProcessResponse{
		Id:             item.Id,
		UserId:         item.UserId,
		Filename:       item.Filename,
		ExtractedText:  item.ExtractedText,
		WordCount:      len(strings.Fields(item.ExtractedText)),
		CharacterCount: len(item.ExtractedText),
		ProcessingTime: item.ProcessingTime,
		Status:         item.Status,
		CreatedAt:      item.CreationTime,
	}

	if len(item.Summary) > 0 {
		if err := json.Unmarshal(item.Summary, &res.Summary); err != nil {
			res.Summary = api.TextSummary{MainSummary: "Summary could not be generated."}
		}
	}

	return res
}

func convertImageItems(items []database.ImageItem) []api.ImageProcessResponse {
	converted := make([]api.ImageProcessResponse, 0, len(items))
	for _, item := range items {
		converted = append(converted, convertImageItem(item))
	}
	return converted
}

func convertResearchItem(item database.ResearchItem) api.ResearchHistoryItem {
	return api.ResearchHistoryItem{
		Id:        item.Id,
		Topic:     item.Query,
		Results:   json.RawMessage(item.Results),
		CreatedAt: item.CreationTime,
	}
}

func convertResearchItems(items []database.ResearchItem) []api.ResearchHistoryItem {
	converted := make([]api.ResearchHistoryItem, 0, len(items))
	for _, item := range items {
		converted = append(converted, convertResearchItem(item))
	}
	return converted
}
