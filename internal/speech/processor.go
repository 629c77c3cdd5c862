package speech

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"thinkink-backend/internal/ai"
	"thinkink-backend/internal/database"
	"thinkink-backend/internal/messaging"
	"thinkink-backend/internal/storage"
	"thinkink-backend/pkg/api"
	"thinkink-backend/pkg/models"

	"gorm.io/gorm"
)

const DefaultSummaryLength = 200

// Objects in the speech and audio buckets are transient: uploads are deleted
// once transcribed and synthesized clips are only served for a short window.
const (
	objectMaxAge    = time.Hour
	cleanupInterval = time.Hour
)

type TaskProcessor struct {
	db       *gorm.DB
	storage  storage.Provider
	reciever messaging.Reciever

	transcriber Transcriber
	llm         ai.LLM
	params      *ai.ParamSet

	speechBucket string
	audioBucket  string
}

func NewTaskProcessor(db *gorm.DB, store storage.Provider, reciever messaging.Reciever, transcriber Transcriber, llm ai.LLM, params *ai.ParamSet, speechBucket, audioBucket string) *TaskProcessor {
	return &TaskProcessor{
		db:           db,
		storage:      store,
		reciever:     reciever,
		transcriber:  transcriber,
		llm:          llm,
		params:       params,
		speechBucket: speechBucket,
		audioBucket:  audioBucket,
	}
}

func (proc *TaskProcessor) Start() {
	slog.Info("starting task processor")

	for task := range proc.reciever.Tasks() {
		proc.ProcessTask(task)
	}
}

func (proc *TaskProcessor) Stop() {
	slog.Info("stopping task processor")

	proc.reciever.Close()
}

func (proc *TaskProcessor) ProcessTask(task messaging.Task) {
	ctx := context.Background()

	var err error
	switch task.Type() {

	case messaging.TranscriptionQueue:
		var payload models.TranscriptionTaskPayload
		if err = json.Unmarshal(task.Payload(), &payload); err != nil {
			slog.Error("error unmarshalling transcription task", "error", err)
			if err := task.Reject(); err != nil { // Discard malformed message
				slog.Error("error rejecting message from queue", "error", err)
			}
			return
		}
		err = proc.processTranscriptionTask(ctx, payload)

	default:
		slog.Error("received unknown task type", "queue", task.Type())
		if err := task.Reject(); err != nil { // reject unknown message type
			slog.Error("error rejecting message from queue", "error", err)
		}
		return
	}

	if err != nil {
		slog.Error("error processing task", "queue", task.Type(), "error", err)
		if err := task.Nack(); err != nil {
			slog.Error("error reporting processing failure on message from queue", "error", err)
		}
	} else {
		slog.Info("successfully processed task", "queue", task.Type())
		if err := task.Ack(); err != nil {
			slog.Error("error acknowledging message from queue", "error", err)
		}
	}
}

func (proc *TaskProcessor) processTranscriptionTask(ctx context.Context, payload models.TranscriptionTaskPayload) error {
	itemId := payload.ItemId

	slog.Info("processing transcription task", "item_id", itemId, "user_id", payload.UserId)

	var item database.HistoryItem
	if err := proc.db.WithContext(ctx).First(&item, "id = ?", itemId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			slog.Info("history item deleted, skipping transcription task", "item_id", itemId)
			return nil
		}
		slog.Error("error fetching history item", "item_id", itemId, "error", err)
		return fmt.Errorf("error getting history item: %w", err)
	}

	if item.Status != database.ItemQueued {
		slog.Info("history item no longer queued, skipping transcription task", "item_id", itemId, "status", item.Status)
		return nil
	}

	if err := database.UpdateHistoryItemStatus(ctx, proc.db, itemId, database.ItemProcessing); err != nil {
		return err
	}

	start := time.Now()

	audio, err := proc.storage.GetObject(ctx, payload.Bucket, payload.Key)
	if err != nil {
		database.FailHistoryItem(ctx, proc.db, itemId, fmt.Sprintf("could not read uploaded audio: %s", err.Error())) //nolint:errcheck
		return fmt.Errorf("error reading audio object %s/%s: %w", payload.Bucket, payload.Key, err)
	}

	result, err := proc.transcriber.Transcribe(ctx, payload.Filename, audio)
	if err != nil {
		database.FailHistoryItem(ctx, proc.db, itemId, err.Error()) //nolint:errcheck
		return fmt.Errorf("error transcribing %s: %w", payload.Key, err)
	}

	output := api.RecordOutput{
		TranscribeResponse: api.TranscribeResponse{
			Transcription: result.Transcription,
			Confidence:    result.Confidence,
			WordCount:     result.WordCount,
			Duration:      result.Duration,
			Timestamps:    result.Timestamps,
		},
	}

	if payload.Summarize {
		summary, err := proc.summarizeTranscription(ctx, result.Transcription)
		if err != nil {
			// The transcript is still useful on its own, so a summary failure
			// does not fail the item.
			slog.Error("error summarizing transcription", "item_id", itemId, "error", err)
		} else {
			output.Summary = summary
		}
	}

	processingTime := math.Round(time.Since(start).Seconds()*100) / 100
	output.ProcessingTime = processingTime

	if err := database.CompleteHistoryItem(ctx, proc.db, itemId, output, processingTime); err != nil {
		return err
	}

	if err := proc.storage.DeleteObject(ctx, payload.Bucket, payload.Key); err != nil {
		slog.Error("error deleting processed audio", "bucket", payload.Bucket, "key", payload.Key, "error", err)
	}

	return nil
}

func (proc *TaskProcessor) summarizeTranscription(ctx context.Context, transcription string) (*api.VoiceSummarizeResponse, error) {
	prompt, err := ai.VoiceSummarizePrompt(transcription, DefaultSummaryLength)
	if err != nil {
		return nil, err
	}

	raw, err := proc.llm.Generate(ctx, "", prompt, proc.params.For("voice_summary"))
	if err != nil {
		return nil, err
	}

	summary, err := ai.DecodeJSON[api.VoiceSummarizeResponse](raw)
	if err != nil {
		return nil, fmt.Errorf("error parsing summary response: %w", err)
	}
	if summary.WordCount <= 0 {
		summary.WordCount = len(strings.Fields(summary.Summary))
	}

	return &summary, nil
}

// CleanupLoop deletes stale objects from the speech and audio buckets on an
// hourly cadence. Uploads are normally removed right after transcription, so
// this only catches clips from failed jobs and expired synthesized audio.
func (proc *TaskProcessor) CleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			proc.cleanupBucket(ctx, proc.speechBucket)
			proc.cleanupBucket(ctx, proc.audioBucket)
		}
	}
}

func (proc *TaskProcessor) cleanupBucket(ctx context.Context, bucket string) {
	objects, err := proc.storage.ListObjects(ctx, bucket, "")
	if err != nil {
		slog.Error("error listing objects for cleanup", "bucket", bucket, "error", err)
		return
	}

	cutoff := time.Now().Add(-objectMaxAge)
	removed := 0
	for _, obj := range objects {
		if obj.LastModified.After(cutoff) {
			continue
		}
		if err := proc.storage.DeleteObject(ctx, bucket, obj.Name); err != nil {
			slog.Error("error deleting stale object", "bucket", bucket, "key", obj.Name, "error", err)
			continue
		}
		removed++
	}

	if removed > 0 {
		slog.Info("removed stale audio objects", "bucket", bucket, "count", removed)
	}
}
