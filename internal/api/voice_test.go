package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	backend "thinkink-backend/internal/api"
	"thinkink-backend/internal/database"
	"thinkink-backend/internal/messaging"
	"thinkink-backend/internal/speech"
	"thinkink-backend/internal/storage"
	"thinkink-backend/pkg/api"
	"thinkink-backend/pkg/models"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	testSpeechBucket = "speech"
	testAudioBucket  = "audio"
)

type voiceFixture struct {
	service *backend.VoiceService
	queue   *messaging.InMemoryQueue
	store   *storage.LocalProvider
	llm     *fakeLLM
	synth   *fakeSynthesizer
}

func newVoiceFixture(t *testing.T, db *gorm.DB, transcriber speech.Transcriber) voiceFixture {
	store := storage.NewLocalProvider(t.TempDir())
	require.NoError(t, store.CreateBucket(context.Background(), testSpeechBucket))
	require.NoError(t, store.CreateBucket(context.Background(), testAudioBucket))

	queue := messaging.NewInMemoryQueue()
	t.Cleanup(queue.Close)

	llm := &fakeLLM{}
	synth := &fakeSynthesizer{audio: []byte("mp3-bytes")}

	service := backend.NewVoiceService(db, llm, loadParams(t), transcriber, synth, store, queue, testSpeechBucket, testAudioBucket)
	return voiceFixture{service: service, queue: queue, store: store, llm: llm, synth: synth}
}

func TestTranscribeAudio(t *testing.T) {
	user := testUser()
	db := createDB(t, &user)

	transcriber := &fakeTranscriber{result: speech.Result{
		Transcription: "today we cover the krebs cycle",
		Confidence:    0.95,
		WordCount:     6,
		Duration:      4.2,
		Timestamps:    []api.WordTimestamp{{Word: "today", StartTime: 0, EndTime: 0.4}},
	}}
	fix := newVoiceFixture(t, db, transcriber)
	router := authedRouter(user, fix.service.AddRoutes)

	rec := uploadFile(t, router, "/voice/transcribe", "lecture.wav", "audio/wav", []byte("wav-bytes"), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	response := decode[api.TranscribeResponse](t, rec)
	assert.Equal(t, "today we cover the krebs cycle", response.Transcription)
	assert.Equal(t, 0.95, response.Confidence)
	assert.Equal(t, 6, response.WordCount)
	assert.Equal(t, 4.2, response.Duration)
	require.Len(t, response.Timestamps, 1)

	var item database.HistoryItem
	require.NoError(t, db.First(&item).Error)
	assert.Equal(t, database.FeatureVoice, item.FeatureType)

	var input struct {
		Filename   string `json:"filename"`
		FileFormat string `json:"file_format"`
		FileSize   int    `json:"file_size"`
	}
	require.NoError(t, json.Unmarshal(item.InputData, &input))
	assert.Equal(t, "lecture.wav", input.Filename)
	assert.Equal(t, "wav", input.FileFormat)
	assert.Equal(t, len("wav-bytes"), input.FileSize)
}

func TestTranscribeAudioValidation(t *testing.T) {
	user := testUser()
	db := createDB(t, &user)

	fix := newVoiceFixture(t, db, &fakeTranscriber{})
	router := authedRouter(user, fix.service.AddRoutes)

	t.Run("empty file", func(t *testing.T) {
		rec := uploadFile(t, router, "/voice/transcribe", "silent.wav", "audio/wav", nil, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Empty file")
	})

	t.Run("unsupported format", func(t *testing.T) {
		rec := uploadFile(t, router, "/voice/transcribe", "notes.txt", "text/plain", []byte("x"), nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Unsupported file format")
		assert.Contains(t, rec.Body.String(), "wav, mp3")
	})

	t.Run("missing file field", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/voice/transcribe", strings.NewReader("--x--"))
		req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("transcriber failure", func(t *testing.T) {
		broken := newVoiceFixture(t, db, &fakeTranscriber{err: errors.New("whisper offline")})
		router := authedRouter(user, broken.service.AddRoutes)

		rec := uploadFile(t, router, "/voice/transcribe", "lecture.wav", "audio/wav", []byte("x"), nil)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Contains(t, rec.Body.String(), "Transcription failed")
	})
}

func TestMicrophone(t *testing.T) {
	user := testUser()
	db := createDB(t, &user)

	transcriber := &fakeTranscriber{result: speech.Result{
		Transcription: "quick voice memo",
		Confidence:    0.9,
		WordCount:     3,
		Duration:      2.0,
	}}
	fix := newVoiceFixture(t, db, transcriber)
	router := authedRouter(user, fix.service.AddRoutes)

	rec := uploadFile(t, router, "/voice/microphone", "mic.webm", "audio/webm", []byte("webm"), map[string]string{"duration": "15"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// The live-recording response is slim; duration and file path stay in
	// history only.
	response := decode[api.TranscribeResponse](t, rec)
	assert.Equal(t, "quick voice memo", response.Transcription)
	assert.Zero(t, response.Duration)
	assert.Empty(t, response.FilePath)

	var item database.HistoryItem
	require.NoError(t, db.First(&item).Error)
	assert.Equal(t, database.FeatureVoiceMicrophone, item.FeatureType)

	var full api.TranscribeResponse
	require.NoError(t, json.Unmarshal(item.OutputData, &full))
	assert.Equal(t, 2.0, full.Duration)
	assert.True(t, strings.HasPrefix(full.FilePath, "mic_"), "recording saved by default: %s", full.FilePath)

	keys, err := fix.store.ListObjects(context.Background(), testSpeechBucket, "mic_")
	require.NoError(t, err)
	assert.Len(t, keys, 1)
}

func TestMicrophoneSkipsSaveWhenAsked(t *testing.T) {
	user := testUser()
	db := createDB(t, &user)

	fix := newVoiceFixture(t, db, &fakeTranscriber{result: speech.Result{Transcription: "memo"}})
	router := authedRouter(user, fix.service.AddRoutes)

	rec := uploadFile(t, router, "/voice/microphone", "mic.wav", "audio/wav", []byte("wav"), map[string]string{"save_recording": "false"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	keys, err := fix.store.ListObjects(context.Background(), testSpeechBucket, "")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestMicrophoneDurationValidation(t *testing.T) {
	user := testUser()
	db := createDB(t, &user)

	fix := newVoiceFixture(t, db, &fakeTranscriber{})
	router := authedRouter(user, fix.service.AddRoutes)

	for _, duration := range []string{"0", "61", "abc"} {
		rec := uploadFile(t, router, "/voice/microphone", "mic.wav", "audio/wav", []byte("wav"), map[string]string{"duration": duration})
		assert.Equal(t, http.StatusBadRequest, rec.Code, "duration=%s", duration)
		assert.Contains(t, rec.Body.String(), "Duration must be between 1 and 60 seconds")
	}
}

func TestSummarizeTranscription(t *testing.T) {
	user := testUser()
	db := createDB(t, &user)

	fix := newVoiceFixture(t, db, &fakeTranscriber{})
	fix.llm.response = `{"summary":"The lecture covered cellular respiration.","main_points":["glycolysis"],"key_phrases":["ATP"],"context":"lecture"}`
	router := authedRouter(user, fix.service.AddRoutes)

	rec := postJSON(t, router, "/voice/summarize", api.VoiceSummarizeRequest{Transcription: "long transcript of the lecture"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	summary := decode[api.VoiceSummarizeResponse](t, rec)
	assert.Equal(t, "The lecture covered cellular respiration.", summary.Summary)
	assert.Equal(t, 5, summary.WordCount, "word count computed when the model omits it")
	assert.Equal(t, []string{"glycolysis"}, summary.MainPoints)
	assert.Equal(t, "lecture", summary.Context)

	var item database.HistoryItem
	require.NoError(t, db.First(&item).Error)
	assert.Equal(t, database.FeatureVoiceSummary, item.FeatureType)
	// History keeps counts, not the transcript.
	assert.NotContains(t, string(item.InputData), "long transcript")

	t.Run("empty transcription", func(t *testing.T) {
		rec := postJSON(t, router, "/voice/summarize", api.VoiceSummarizeRequest{Transcription: "   "})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Transcription cannot be empty")
	})
}

func TestAnalyzeTranscription(t *testing.T) {
	user := testUser()
	db := createDB(t, &user)

	fix := newVoiceFixture(t, db, &fakeTranscriber{})
	fix.llm.response = `{"summary":"Clear walkthrough.","sentiment":"positive","clarity_score":15}`
	router := authedRouter(user, fix.service.AddRoutes)

	rec := postJSON(t, router, "/voice/analyze", api.VoiceSummarizeRequest{Transcription: "the talk went well"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	analysis := decode[api.VoiceAnalysisResponse](t, rec)
	assert.Equal(t, "positive", analysis.Sentiment)
	assert.Equal(t, 10, analysis.ClarityScore, "scores are clamped to 0-10")
	assert.NotNil(t, analysis.KeyPoints)
	assert.NotNil(t, analysis.TopicsDiscussed)

	var item database.HistoryItem
	require.NoError(t, db.First(&item).Error)
	assert.Equal(t, database.FeatureVoiceAnalysis, item.FeatureType)
}

func TestAnalyzeEmotion(t *testing.T) {
	user := testUser()
	db := createDB(t, &user)

	transcriber := &fakeTranscriber{result: speech.Result{Transcription: "I am so ready for this exam"}}
	fix := newVoiceFixture(t, db, transcriber)
	fix.llm.response = `{"primary_emotion":"Excited","emotion_scores":{"confidence":150,"energy_level":80,"stress_level":-5,"motivation_level":90},"context":"study session"}`
	router := authedRouter(user, fix.service.AddRoutes)

	rec := uploadFile(t, router, "/voice/analyze-emotion", "memo.wav", "audio/wav", []byte("wav"), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	emotion := decode[api.EmotionAnalysisResponse](t, rec)
	assert.Equal(t, "neutral", emotion.PrimaryEmotion, "unknown labels collapse to neutral")
	assert.Equal(t, 100, emotion.EmotionScores.Confidence)
	assert.Equal(t, 0, emotion.EmotionScores.StressLevel)
	assert.NotNil(t, emotion.Suggestions)
	assert.False(t, emotion.AnalysisTimestamp.IsZero())

	var item database.HistoryItem
	require.NoError(t, db.First(&item).Error)
	assert.Equal(t, database.FeatureVoiceEmotion, item.FeatureType)
}

func TestRecordQueuesTranscription(t *testing.T) {
	user := testUser()
	db := createDB(t, &user)

	fix := newVoiceFixture(t, db, &fakeTranscriber{})
	router := authedRouter(user, fix.service.AddRoutes)

	rec := uploadFile(t, router, "/voice/record", "session.mp3", "audio/mpeg", []byte("mp3-data"), map[string]string{"summarize": "false"})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	response := decode[api.RecordResponse](t, rec)
	assert.Equal(t, database.ItemQueued, response.Status)
	assert.NotEqual(t, uuid.Nil, response.ItemId)

	var task models.TranscriptionTaskPayload
	select {
	case queued := <-fix.queue.Tasks():
		require.NoError(t, json.Unmarshal(queued.Payload(), &task))
	case <-time.After(time.Second):
		t.Fatal("no task queued")
	}
	assert.Equal(t, response.ItemId, task.ItemId)
	assert.Equal(t, user.Id, task.UserId)
	assert.Equal(t, testSpeechBucket, task.Bucket)
	assert.Equal(t, "session.mp3", task.Filename)
	assert.False(t, task.Summarize)

	// The clip is parked in object storage under the queued key.
	data, err := fix.store.GetObject(context.Background(), testSpeechBucket, task.Key)
	require.NoError(t, err)
	assert.Equal(t, []byte("mp3-data"), data)

	var item database.HistoryItem
	require.NoError(t, db.First(&item, "id = ?", response.ItemId).Error)
	assert.Equal(t, database.FeatureVoiceSummary, item.FeatureType)
	assert.Equal(t, database.ItemQueued, item.Status)

	var input struct {
		Bucket string `json:"bucket"`
		Key    string `json:"key"`
	}
	require.NoError(t, json.Unmarshal(item.InputData, &input))
	assert.Equal(t, task.Key, input.Key)
	assert.Equal(t, testSpeechBucket, input.Bucket)
}

type failingPublisher struct{}

func (failingPublisher) PublishTranscriptionTask(ctx context.Context, payload models.TranscriptionTaskPayload) error {
	return errors.New("broker unreachable")
}

func (failingPublisher) Close() {}

func TestRecordPublishFailureCleansUp(t *testing.T) {
	user := testUser()
	db := createDB(t, &user)

	store := storage.NewLocalProvider(t.TempDir())
	require.NoError(t, store.CreateBucket(context.Background(), testSpeechBucket))
	require.NoError(t, store.CreateBucket(context.Background(), testAudioBucket))

	service := backend.NewVoiceService(db, &fakeLLM{}, loadParams(t), &fakeTranscriber{}, &fakeSynthesizer{}, store, failingPublisher{}, testSpeechBucket, testAudioBucket)
	router := authedRouter(user, service.AddRoutes)

	rec := uploadFile(t, router, "/voice/record", "session.mp3", "audio/mpeg", []byte("mp3"), nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "error queueing transcription job")

	// The uploaded clip is removed and the item marked failed rather than
	// stranded in QUEUED.
	keys, err := store.ListObjects(context.Background(), testSpeechBucket, "")
	require.NoError(t, err)
	assert.Empty(t, keys)

	var item database.HistoryItem
	require.NoError(t, db.First(&item).Error)
	assert.Equal(t, database.ItemFailed, item.Status)
}

func TestTextToSpeech(t *testing.T) {
	user := testUser()
	db := createDB(t, &user)

	fix := newVoiceFixture(t, db, &fakeTranscriber{})
	router := authedRouter(user, fix.service.AddRoutes)

	rec := postJSON(t, router, "/voice/text-to-speech", api.TextToSpeechRequest{Text: "read this passage aloud"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	response := decode[api.TextToSpeechResponse](t, rec)
	assert.True(t, strings.HasPrefix(response.FileName, "tts_"), response.FileName)
	assert.True(t, strings.HasSuffix(response.FileName, ".mp3"), response.FileName)
	assert.Equal(t, "/audio/"+response.FileName, response.FilePath)
	assert.Equal(t, 1.2, response.Duration, "four words at 0.3s per word")
	assert.Empty(t, response.TranslatedText)

	data, err := fix.store.GetObject(context.Background(), testAudioBucket, response.FileName)
	require.NoError(t, err)
	assert.Equal(t, []byte("mp3-bytes"), data)

	t.Run("empty text", func(t *testing.T) {
		rec := postJSON(t, router, "/voice/text-to-speech", api.TextToSpeechRequest{Text: " "})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Text cannot be empty")
	})
}

func TestTextToSpeechTranslates(t *testing.T) {
	user := testUser()
	db := createDB(t, &user)

	fix := newVoiceFixture(t, db, &fakeTranscriber{})
	fix.llm.response = "vanakkam maanavargale"
	router := authedRouter(user, fix.service.AddRoutes)

	rec := postJSON(t, router, "/voice/text-to-speech", api.TextToSpeechRequest{Text: "hello students", Language: "ta", Translate: true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	response := decode[api.TextToSpeechResponse](t, rec)
	assert.Equal(t, "vanakkam maanavargale", response.TranslatedText)

	require.Len(t, fix.llm.prompts, 1)
	assert.Contains(t, fix.llm.prompts[0], "Tamil")

	// The synthesizer receives the translation, not the original text.
	require.Len(t, fix.synth.spoken, 1)
	assert.Equal(t, "vanakkam maanavargale", fix.synth.spoken[0])

	t.Run("empty translation", func(t *testing.T) {
		fix.llm.response = "   "
		rec := postJSON(t, router, "/voice/text-to-speech", api.TextToSpeechRequest{Text: "hello", Language: "ta", Translate: true})
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Contains(t, rec.Body.String(), "Translation failed: empty response")
	})
}

func TestServeAudio(t *testing.T) {
	user := testUser()
	db := createDB(t, &user)

	fix := newVoiceFixture(t, db, &fakeTranscriber{})
	require.NoError(t, fix.store.PutObject(context.Background(), testAudioBucket, "tts_clip.mp3", strings.NewReader("mp3-bytes")))

	r := authedRouter(user, func(router chi.Router) {
		fix.service.AddPublicRoutes(router)
	})

	t.Run("streams stored audio", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/audio/tts_clip.mp3", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "audio/mpeg", rec.Header().Get("Content-Type"))
		assert.Equal(t, "mp3-bytes", rec.Body.String())
	})

	t.Run("unknown file", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/audio/tts_missing.mp3", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "audio file not found")
	})

	t.Run("path traversal rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/audio/..%2Fsecrets.txt", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid audio filename")
	})
}

func TestVoiceStats(t *testing.T) {
	user := testUser()
	now := time.Now().UTC()

	db := createDB(t, &user,
		&database.HistoryItem{
			Id: uuid.New(), UserId: user.Id, FeatureType: database.FeatureVoice,
			InputData:      datatypes.JSON(`{"filename":"a.wav","file_format":"wav"}`),
			OutputData:     datatypes.JSON(`{"transcription":"x","word_count":100}`),
			ProcessingTime: 2.0, Status: database.ItemCompleted, CreationTime: now,
		},
		&database.HistoryItem{
			Id: uuid.New(), UserId: user.Id, FeatureType: database.FeatureVoiceMicrophone,
			InputData:      datatypes.JSON(`{"duration":10}`),
			OutputData:     datatypes.JSON(`{"transcription":"y","word_count":50}`),
			ProcessingTime: 4.0, Status: database.ItemCompleted, CreationTime: now.Add(-time.Hour),
		},
		// Async recordings live under a different feature and are excluded.
		&database.HistoryItem{
			Id: uuid.New(), UserId: user.Id, FeatureType: database.FeatureVoiceSummary,
			OutputData:     datatypes.JSON(`{"word_count":999}`),
			ProcessingTime: 9.0, Status: database.ItemCompleted, CreationTime: now,
		},
	)

	fix := newVoiceFixture(t, db, &fakeTranscriber{})
	router := authedRouter(user, fix.service.AddRoutes)

	var stats api.VoiceStats
	rec := getJSON(t, router, "/voice/stats", &stats)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, 2, stats.TotalProcessed)
	assert.Equal(t, 150, stats.TotalWords)
	assert.Equal(t, 3.0, stats.AverageProcessingTime)
	assert.Equal(t, map[string]int{"wav": 1}, stats.FormatBreakdown)
	require.NotNil(t, stats.LastProcessed)
}
