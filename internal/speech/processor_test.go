package speech_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"thinkink-backend/internal/ai"
	"thinkink-backend/internal/database"
	"thinkink-backend/internal/messaging"
	"thinkink-backend/internal/speech"
	"thinkink-backend/internal/storage"
	"thinkink-backend/pkg/api"
	"thinkink-backend/pkg/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type fakeTranscriber struct {
	result speech.Result
	err    error
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, filename string, data []byte) (speech.Result, error) {
	if f.err != nil {
		return speech.Result{}, f.err
	}
	return f.result, nil
}

type fakeLLM struct {
	response string
	err      error
}

func (f *fakeLLM) Generate(ctx context.Context, systemPrompt, userPrompt string, params ai.GenParams) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

// stubTask records the acknowledgement outcome so tests can assert whether a
// message was acked, nacked, or rejected.
type stubTask struct {
	queue    string
	payload  []byte
	acked    bool
	nacked   bool
	rejected bool
}

func (t *stubTask) Type() string    { return t.queue }
func (t *stubTask) Payload() []byte { return t.payload }
func (t *stubTask) Ack() error      { t.acked = true; return nil }
func (t *stubTask) Nack() error     { t.nacked = true; return nil }
func (t *stubTask) Reject() error   { t.rejected = true; return nil }

func createDB(t *testing.T, create ...any) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, database.GetMigrator(db).Migrate())

	for _, c := range create {
		require.NoError(t, db.Create(c).Error)
	}

	return db
}

func seedUser() *database.User {
	now := time.Now().UTC()
	return &database.User{
		Id:           uuid.New(),
		FirebaseUid:  "fb-worker-" + uuid.NewString()[:8],
		Email:        "worker@example.com",
		CreationTime: now,
		LastLogin:    now,
	}
}

func queuedItem(userId uuid.UUID) *database.HistoryItem {
	return &database.HistoryItem{
		Id:           uuid.New(),
		UserId:       userId,
		FeatureType:  database.FeatureVoiceSummary,
		Status:       database.ItemQueued,
		InputData:    datatypes.JSON(`{"bucket":"speech","key":"rec.wav"}`),
		CreationTime: time.Now().UTC(),
	}
}

func newProcessor(t *testing.T, db *gorm.DB, transcriber speech.Transcriber, llm ai.LLM) (*speech.TaskProcessor, *storage.LocalProvider) {
	t.Helper()

	store := storage.NewLocalProvider(t.TempDir())
	require.NoError(t, store.CreateBucket(context.Background(), "speech"))
	require.NoError(t, store.CreateBucket(context.Background(), "audio"))

	queue := messaging.NewInMemoryQueue()
	t.Cleanup(queue.Close)

	params, err := ai.LoadParams("")
	require.NoError(t, err)

	return speech.NewTaskProcessor(db, store, queue, transcriber, llm, params, "speech", "audio"), store
}

func transcriptionTask(t *testing.T, payload models.TranscriptionTaskPayload) *stubTask {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return &stubTask{queue: messaging.TranscriptionQueue, payload: data}
}

func TestProcessTranscriptionTask(t *testing.T) {
	user := seedUser()
	item := queuedItem(user.Id)
	db := createDB(t, user, item)

	transcriber := &fakeTranscriber{result: speech.Result{
		Transcription: "today we will review the cell cycle",
		Confidence:    0.9,
		WordCount:     7,
		Duration:      4.2,
	}}
	llm := &fakeLLM{response: `{"summary":"A review of the cell cycle.","main_points":["mitosis"],"word_count":6,"context":"biology lecture"}`}
	proc, store := newProcessor(t, db, transcriber, llm)

	require.NoError(t, store.PutObject(context.Background(), "speech", "rec.wav", bytes.NewReader([]byte("clip-bytes"))))

	task := transcriptionTask(t, models.TranscriptionTaskPayload{
		ItemId:    item.Id,
		UserId:    user.Id,
		Bucket:    "speech",
		Key:       "rec.wav",
		Filename:  "rec.wav",
		Summarize: true,
	})
	proc.ProcessTask(task)

	assert.True(t, task.acked)
	assert.False(t, task.nacked)

	var stored database.HistoryItem
	require.NoError(t, db.First(&stored, "id = ?", item.Id).Error)
	assert.Equal(t, database.ItemCompleted, stored.Status)
	assert.True(t, stored.CompletionTime.Valid)

	var output api.RecordOutput
	require.NoError(t, json.Unmarshal(stored.OutputData, &output))
	assert.Equal(t, "today we will review the cell cycle", output.Transcription)
	assert.Equal(t, 7, output.WordCount)
	require.NotNil(t, output.Summary)
	assert.Equal(t, "A review of the cell cycle.", output.Summary.Summary)

	_, err := store.GetObject(context.Background(), "speech", "rec.wav")
	assert.Error(t, err, "the uploaded clip should be deleted after transcription")
}

func TestProcessTranscriptionTaskWithoutSummary(t *testing.T) {
	user := seedUser()
	item := queuedItem(user.Id)
	db := createDB(t, user, item)

	transcriber := &fakeTranscriber{result: speech.Result{Transcription: "short note", WordCount: 2}}
	llm := &fakeLLM{err: errors.New("should not be called")}
	proc, store := newProcessor(t, db, transcriber, llm)

	require.NoError(t, store.PutObject(context.Background(), "speech", "rec.wav", bytes.NewReader([]byte("clip-bytes"))))

	task := transcriptionTask(t, models.TranscriptionTaskPayload{
		ItemId: item.Id, UserId: user.Id, Bucket: "speech", Key: "rec.wav", Filename: "rec.wav",
	})
	proc.ProcessTask(task)

	assert.True(t, task.acked)

	var stored database.HistoryItem
	require.NoError(t, db.First(&stored, "id = ?", item.Id).Error)
	assert.Equal(t, database.ItemCompleted, stored.Status)
	assert.NotContains(t, string(stored.OutputData), `"summary"`)
}

func TestProcessTranscriptionTaskSummaryFailureKeepsTranscript(t *testing.T) {
	user := seedUser()
	item := queuedItem(user.Id)
	db := createDB(t, user, item)

	transcriber := &fakeTranscriber{result: speech.Result{Transcription: "the transcript survives", WordCount: 3}}
	llm := &fakeLLM{err: errors.New("model overloaded")}
	proc, store := newProcessor(t, db, transcriber, llm)

	require.NoError(t, store.PutObject(context.Background(), "speech", "rec.wav", bytes.NewReader([]byte("clip-bytes"))))

	task := transcriptionTask(t, models.TranscriptionTaskPayload{
		ItemId: item.Id, UserId: user.Id, Bucket: "speech", Key: "rec.wav", Filename: "rec.wav", Summarize: true,
	})
	proc.ProcessTask(task)

	assert.True(t, task.acked, "a summary failure should not fail the job")

	var stored database.HistoryItem
	require.NoError(t, db.First(&stored, "id = ?", item.Id).Error)
	assert.Equal(t, database.ItemCompleted, stored.Status)
	assert.Contains(t, string(stored.OutputData), "the transcript survives")
	assert.NotContains(t, string(stored.OutputData), `"summary"`)
}

func TestProcessTranscriptionTaskFailures(t *testing.T) {
	t.Run("audio object missing", func(t *testing.T) {
		user := seedUser()
		item := queuedItem(user.Id)
		db := createDB(t, user, item)

		proc, _ := newProcessor(t, db, &fakeTranscriber{}, &fakeLLM{})

		task := transcriptionTask(t, models.TranscriptionTaskPayload{
			ItemId: item.Id, UserId: user.Id, Bucket: "speech", Key: "gone.wav", Filename: "gone.wav",
		})
		proc.ProcessTask(task)

		assert.True(t, task.nacked)

		var stored database.HistoryItem
		require.NoError(t, db.First(&stored, "id = ?", item.Id).Error)
		assert.Equal(t, database.ItemFailed, stored.Status)
		assert.Contains(t, stored.Error, "could not read uploaded audio")
	})

	t.Run("transcription fails", func(t *testing.T) {
		user := seedUser()
		item := queuedItem(user.Id)
		db := createDB(t, user, item)

		transcriber := &fakeTranscriber{err: errors.New("whisper timed out")}
		proc, store := newProcessor(t, db, transcriber, &fakeLLM{})

		require.NoError(t, store.PutObject(context.Background(), "speech", "rec.wav", bytes.NewReader([]byte("clip-bytes"))))

		task := transcriptionTask(t, models.TranscriptionTaskPayload{
			ItemId: item.Id, UserId: user.Id, Bucket: "speech", Key: "rec.wav", Filename: "rec.wav",
		})
		proc.ProcessTask(task)

		assert.True(t, task.nacked)

		var stored database.HistoryItem
		require.NoError(t, db.First(&stored, "id = ?", item.Id).Error)
		assert.Equal(t, database.ItemFailed, stored.Status)
		assert.Equal(t, "whisper timed out", stored.Error)

		_, err := store.GetObject(context.Background(), "speech", "rec.wav")
		assert.NoError(t, err, "failed jobs keep the clip around for retries")
	})
}

func TestProcessTranscriptionTaskSkips(t *testing.T) {
	t.Run("item deleted", func(t *testing.T) {
		user := seedUser()
		db := createDB(t, user)
		proc, _ := newProcessor(t, db, &fakeTranscriber{}, &fakeLLM{})

		task := transcriptionTask(t, models.TranscriptionTaskPayload{
			ItemId: uuid.New(), UserId: user.Id, Bucket: "speech", Key: "rec.wav",
		})
		proc.ProcessTask(task)

		assert.True(t, task.acked, "a deleted item is treated as done")
	})

	t.Run("item already processed", func(t *testing.T) {
		user := seedUser()
		item := queuedItem(user.Id)
		item.Status = database.ItemCompleted
		db := createDB(t, user, item)

		proc, store := newProcessor(t, db, &fakeTranscriber{}, &fakeLLM{})
		require.NoError(t, store.PutObject(context.Background(), "speech", "rec.wav", bytes.NewReader([]byte("clip-bytes"))))

		task := transcriptionTask(t, models.TranscriptionTaskPayload{
			ItemId: item.Id, UserId: user.Id, Bucket: "speech", Key: "rec.wav",
		})
		proc.ProcessTask(task)

		assert.True(t, task.acked)

		_, err := store.GetObject(context.Background(), "speech", "rec.wav")
		assert.NoError(t, err, "skipped tasks should leave the object alone")
	})
}

func TestProcessTaskDiscardsBadMessages(t *testing.T) {
	db := createDB(t)
	proc, _ := newProcessor(t, db, &fakeTranscriber{}, &fakeLLM{})

	t.Run("malformed payload", func(t *testing.T) {
		task := &stubTask{queue: messaging.TranscriptionQueue, payload: []byte("{not json")}
		proc.ProcessTask(task)
		assert.True(t, task.rejected)
		assert.False(t, task.acked)
	})

	t.Run("unknown queue", func(t *testing.T) {
		task := &stubTask{queue: "mystery_queue", payload: []byte("{}")}
		proc.ProcessTask(task)
		assert.True(t, task.rejected)
	})
}
