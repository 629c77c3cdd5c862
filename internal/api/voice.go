package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"thinkink-backend/internal/ai"
	"thinkink-backend/internal/database"
	"thinkink-backend/internal/messaging"
	"thinkink-backend/internal/speech"
	"thinkink-backend/internal/storage"
	"thinkink-backend/pkg/api"
	"thinkink-backend/pkg/models"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Seconds of synthesized speech per word, used to estimate clip length
// without decoding the generated MP3.
const synthesizedSecondsPerWord = 0.3

// Languages the text-to-speech endpoint can translate into before
// synthesis. Unknown codes are passed to the model verbatim.
var translationLanguages = map[string]string{
	"en": "English",
	"ta": "Tamil",
}

type VoiceService struct {
	db          *gorm.DB
	llm         ai.LLM
	params      *ai.ParamSet
	transcriber speech.Transcriber
	synthesizer speech.Synthesizer
	storage     storage.Provider
	publisher   messaging.Publisher

	speechBucket string
	audioBucket  string
}

func NewVoiceService(db *gorm.DB, llm ai.LLM, params *ai.ParamSet, transcriber speech.Transcriber, synthesizer speech.Synthesizer, store storage.Provider, publisher messaging.Publisher, speechBucket, audioBucket string) *VoiceService {
	return &VoiceService{
		db:           db,
		llm:          llm,
		params:       params,
		transcriber:  transcriber,
		synthesizer:  synthesizer,
		storage:      store,
		publisher:    publisher,
		speechBucket: speechBucket,
		audioBucket:  audioBucket,
	}
}

func (s *VoiceService) AddRoutes(r chi.Router) {
	r.Route("/voice", func(r chi.Router) {
		r.Post("/transcribe", RestHandler(s.Transcribe))
		r.Post("/microphone", RestHandler(s.Microphone))
		r.Post("/summarize", RestHandler(s.Summarize))
		r.Post("/analyze", RestHandler(s.Analyze))
		r.Post("/analyze-emotion", RestHandler(s.AnalyzeEmotion))
		r.Post("/record", s.Record)
		r.Post("/text-to-speech", RestHandler(s.TextToSpeech))
		r.Get("/stats", RestHandler(s.Stats))
	})
}

// AddPublicRoutes registers the endpoints that must work without
// authentication, so browsers can load generated audio directly from an
// <audio> tag.
func (s *VoiceService) AddPublicRoutes(r chi.Router) {
	r.Get("/audio/{filename}", s.ServeAudio)
}

// parseAudioUpload reads the uploaded clip from the 'file' multipart field
// and checks it against the transcriber's supported formats.
func parseAudioUpload(r *http.Request) (string, []byte, error) {
	header, data, err := ParseMultipartFile(r, "file")
	if err != nil {
		return "", nil, err
	}

	if header.Filename == "" {
		return "", nil, CodedError(http.StatusBadRequest, fmt.Errorf("No file provided"))
	}
	if len(data) == 0 {
		return "", nil, CodedError(http.StatusBadRequest, fmt.Errorf("Empty file"))
	}
	if !speech.FormatSupported(header.Filename) {
		return "", nil, CodedErrorf(http.StatusBadRequest, "Unsupported file format. Supported formats: %s", strings.Join(speech.SupportedFormats, ", "))
	}

	return header.Filename, data, nil
}

func fileFormat(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 {
		return ""
	}
	return strings.ToLower(filename[idx+1:])
}

func (s *VoiceService) Transcribe(r *http.Request) (any, error) {
	user, err := RequireUser(r)
	if err != nil {
		return nil, err
	}

	filename, data, err := parseAudioUpload(r)
	if err != nil {
		return nil, err
	}

	start := time.Now()

	result, err := s.transcriber.Transcribe(r.Context(), filename, data)
	if err != nil {
		return nil, CodedErrorf(http.StatusBadGateway, "Transcription failed: %v", err)
	}

	res := api.TranscribeResponse{
		Transcription:  result.Transcription,
		Confidence:     result.Confidence,
		WordCount:      result.WordCount,
		Duration:       result.Duration,
		Timestamps:     result.Timestamps,
		ProcessingTime: elapsedSeconds(start),
	}

	input := map[string]any{
		"filename":    filename,
		"file_size":   len(data),
		"file_format": fileFormat(filename),
	}
	if _, err := database.SaveHistoryItem(r.Context(), s.db, user.Id, database.FeatureVoice, input, res, res.ProcessingTime, database.ItemCompleted); err != nil {
		return nil, err
	}

	return res, nil
}

// Microphone ingests a clip the client recorded locally. The response is
// deliberately slim: live recording UIs only need the text back, the full
// result is kept in history.
func (s *VoiceService) Microphone(r *http.Request) (any, error) {
	user, err := RequireUser(r)
	if err != nil {
		return nil, err
	}

	filename, data, err := parseAudioUpload(r)
	if err != nil {
		return nil, err
	}

	duration := 10
	if v := r.FormValue("duration"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 60 {
			return nil, CodedError(http.StatusBadRequest, fmt.Errorf("Duration must be between 1 and 60 seconds"))
		}
		duration = parsed
	}

	saveRecording := true
	if v := r.FormValue("save_recording"); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			saveRecording = parsed
		}
	}

	start := time.Now()

	result, err := s.transcriber.Transcribe(r.Context(), filename, data)
	if err != nil {
		return nil, CodedErrorf(http.StatusBadGateway, "Transcription failed: %v", err)
	}

	full := api.TranscribeResponse{
		Transcription:  result.Transcription,
		Confidence:     result.Confidence,
		WordCount:      result.WordCount,
		Duration:       result.Duration,
		Timestamps:     result.Timestamps,
		ProcessingTime: elapsedSeconds(start),
	}

	if saveRecording {
		key := fmt.Sprintf("mic_%s.%s", uuid.New().String(), fileFormat(filename))
		if err := s.storage.PutObject(r.Context(), s.speechBucket, key, bytes.NewReader(data)); err != nil {
			slog.Error("error storing microphone recording", "key", key, "error", err)
		} else {
			full.FilePath = key
		}
	}

	input := map[string]any{"duration": duration}
	if _, err := database.SaveHistoryItem(r.Context(), s.db, user.Id, database.FeatureVoiceMicrophone, input, full, full.ProcessingTime, database.ItemCompleted); err != nil {
		return nil, err
	}

	return api.TranscribeResponse{
		Transcription:  full.Transcription,
		Confidence:     full.Confidence,
		WordCount:      full.WordCount,
		ProcessingTime: full.ProcessingTime,
	}, nil
}

func (s *VoiceService) Summarize(r *http.Request) (any, error) {
	user, err := RequireUser(r)
	if err != nil {
		return nil, err
	}

	req, err := ParseRequest[api.VoiceSummarizeRequest](r)
	if err != nil {
		return nil, err
	}

	req.Transcription = strings.TrimSpace(req.Transcription)
	if req.Transcription == "" {
		return nil, CodedError(http.StatusBadRequest, fmt.Errorf("Transcription cannot be empty"))
	}
	if req.MaxLength <= 0 {
		req.MaxLength = speech.DefaultSummaryLength
	}

	start := time.Now()

	prompt, err := ai.VoiceSummarizePrompt(req.Transcription, req.MaxLength)
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to summarize transcription")
	}

	raw, err := s.llm.Generate(r.Context(), "", prompt, s.params.For("voice_summary"))
	if err != nil {
		return nil, CodedErrorf(http.StatusBadGateway, "AI processing failed: %v", err)
	}

	summary, err := ai.DecodeJSON[api.VoiceSummarizeResponse](raw)
	if err != nil {
		return nil, CodedError(http.StatusBadGateway, fmt.Errorf("invalid response from AI service"))
	}

	if summary.WordCount <= 0 {
		summary.WordCount = len(strings.Fields(summary.Summary))
	}
	if summary.MainPoints == nil {
		summary.MainPoints = []string{}
	}
	if summary.KeyPhrases == nil {
		summary.KeyPhrases = []string{}
	}
	summary.ProcessingTime = elapsedSeconds(start)

	input := map[string]any{
		"transcription_length": len(strings.Fields(req.Transcription)),
		"max_length":           req.MaxLength,
	}
	output := map[string]any{
		"summary_length":    len(strings.Fields(summary.Summary)),
		"main_points_count": len(summary.MainPoints),
	}
	if _, err := database.SaveHistoryItem(r.Context(), s.db, user.Id, database.FeatureVoiceSummary, input, output, summary.ProcessingTime, database.ItemCompleted); err != nil {
		return nil, err
	}

	return summary, nil
}

func (s *VoiceService) Analyze(r *http.Request) (any, error) {
	user, err := RequireUser(r)
	if err != nil {
		return nil, err
	}

	req, err := ParseRequest[api.VoiceSummarizeRequest](r)
	if err != nil {
		return nil, err
	}

	req.Transcription = strings.TrimSpace(req.Transcription)
	if req.Transcription == "" {
		return nil, CodedError(http.StatusBadRequest, fmt.Errorf("Transcription cannot be empty"))
	}

	start := time.Now()

	prompt, err := ai.VoiceAnalyzePrompt(req.Transcription)
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to analyze transcription")
	}

	raw, err := s.llm.Generate(r.Context(), "", prompt, s.params.For("voice_analysis"))
	if err != nil {
		return nil, CodedErrorf(http.StatusBadGateway, "AI processing failed: %v", err)
	}

	analysis, err := ai.DecodeJSON[api.VoiceAnalysisResponse](raw)
	if err != nil {
		return nil, CodedError(http.StatusBadGateway, fmt.Errorf("invalid response from AI service"))
	}

	analysis.ClarityScore = ai.ClampClarityScore(analysis.ClarityScore)
	if analysis.KeyPoints == nil {
		analysis.KeyPoints = []string{}
	}
	if analysis.TopicsDiscussed == nil {
		analysis.TopicsDiscussed = []string{}
	}
	if analysis.SentimentReasons == nil {
		analysis.SentimentReasons = []string{}
	}
	if analysis.SuggestedImprovements == nil {
		analysis.SuggestedImprovements = []string{}
	}
	analysis.ProcessingTime = elapsedSeconds(start)

	input := map[string]any{"transcription_length": len(strings.Fields(req.Transcription))}
	output := map[string]any{
		"sentiment":     analysis.Sentiment,
		"clarity_score": analysis.ClarityScore,
		"topics_count":  len(analysis.TopicsDiscussed),
	}
	if _, err := database.SaveHistoryItem(r.Context(), s.db, user.Id, database.FeatureVoiceAnalysis, input, output, analysis.ProcessingTime, database.ItemCompleted); err != nil {
		return nil, err
	}

	return analysis, nil
}

func (s *VoiceService) AnalyzeEmotion(r *http.Request) (any, error) {
	user, err := RequireUser(r)
	if err != nil {
		return nil, err
	}

	filename, data, err := parseAudioUpload(r)
	if err != nil {
		return nil, err
	}

	start := time.Now()

	result, err := s.transcriber.Transcribe(r.Context(), filename, data)
	if err != nil {
		return nil, CodedErrorf(http.StatusBadGateway, "Transcription failed: %v", err)
	}

	prompt, err := ai.EmotionPrompt(result.Transcription)
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to analyze emotion")
	}

	raw, err := s.llm.Generate(r.Context(), "", prompt, s.params.For("voice_emotion"))
	if err != nil {
		return nil, CodedErrorf(http.StatusBadGateway, "AI processing failed: %v", err)
	}

	emotion, err := ai.DecodeJSON[api.EmotionAnalysisResponse](raw)
	if err != nil {
		return nil, CodedError(http.StatusBadGateway, fmt.Errorf("invalid response from AI service"))
	}

	ai.NormalizeEmotion(&emotion)
	emotion.ProcessingTime = elapsedSeconds(start)
	emotion.AnalysisTimestamp = time.Now().UTC()

	input := map[string]any{
		"filename":             filename,
		"transcription_length": len(strings.Fields(result.Transcription)),
	}
	output := map[string]any{
		"primary_emotion": emotion.PrimaryEmotion,
		"emotion_scores":  emotion.EmotionScores,
	}
	if _, err := database.SaveHistoryItem(r.Context(), s.db, user.Id, database.FeatureVoiceEmotion, input, output, emotion.ProcessingTime, database.ItemCompleted); err != nil {
		return nil, err
	}

	return emotion, nil
}

// Record accepts a clip for asynchronous processing: the audio is parked in
// object storage and a transcription task is queued for the worker. Responds
// 202 since the result arrives in history later.
func (s *VoiceService) Record(w http.ResponseWriter, r *http.Request) {
	res, err := s.record(r)
	if err != nil {
		writeEndpointError(w, err)
		return
	}
	WriteJsonResponseWithStatus(w, http.StatusAccepted, res)
}

func (s *VoiceService) record(r *http.Request) (api.RecordResponse, error) {
	user, err := RequireUser(r)
	if err != nil {
		return api.RecordResponse{}, err
	}

	filename, data, err := parseAudioUpload(r)
	if err != nil {
		return api.RecordResponse{}, err
	}

	summarize := true
	if v := r.FormValue("summarize"); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			summarize = parsed
		}
	}

	key := fmt.Sprintf("rec_%s.%s", uuid.New().String(), fileFormat(filename))
	if err := s.storage.PutObject(r.Context(), s.speechBucket, key, bytes.NewReader(data)); err != nil {
		return api.RecordResponse{}, CodedError(http.StatusInternalServerError, fmt.Errorf("error storing uploaded audio: %w", err))
	}

	// Bucket and key are recorded so queued jobs can be re-published after a
	// restart without re-uploading the audio.
	input := map[string]any{
		"filename":    filename,
		"file_size":   len(data),
		"file_format": fileFormat(filename),
		"bucket":      s.speechBucket,
		"key":         key,
		"summarize":   summarize,
	}
	item, err := database.SaveHistoryItem(r.Context(), s.db, user.Id, database.FeatureVoiceSummary, input, struct{}{}, 0, database.ItemQueued)
	if err != nil {
		if derr := s.storage.DeleteObject(r.Context(), s.speechBucket, key); derr != nil {
			slog.Error("error deleting orphaned audio object", "key", key, "error", derr)
		}
		return api.RecordResponse{}, err
	}

	payload := models.TranscriptionTaskPayload{
		ItemId:    item.Id,
		UserId:    user.Id,
		Bucket:    s.speechBucket,
		Key:       key,
		Filename:  filename,
		Summarize: summarize,
	}
	if err := s.publisher.PublishTranscriptionTask(r.Context(), payload); err != nil {
		if ferr := database.FailHistoryItem(r.Context(), s.db, item.Id, "could not queue transcription job"); ferr != nil {
			slog.Error("error marking unqueued item failed", "item_id", item.Id, "error", ferr)
		}
		if derr := s.storage.DeleteObject(r.Context(), s.speechBucket, key); derr != nil {
			slog.Error("error deleting orphaned audio object", "key", key, "error", derr)
		}
		return api.RecordResponse{}, CodedError(http.StatusInternalServerError, fmt.Errorf("error queueing transcription job: %w", err))
	}

	return api.RecordResponse{
		ItemId:  item.Id,
		Status:  database.ItemQueued,
		Message: "Recording accepted for processing",
	}, nil
}

func (s *VoiceService) TextToSpeech(r *http.Request) (any, error) {
	if _, err := RequireUser(r); err != nil {
		return nil, err
	}

	req, err := ParseRequest[api.TextToSpeechRequest](r)
	if err != nil {
		return nil, err
	}

	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		return nil, CodedError(http.StatusBadRequest, fmt.Errorf("Text cannot be empty"))
	}
	if req.Language == "" {
		req.Language = "en"
	}

	speak := req.Text
	translated := ""
	if req.Translate && req.Language != "en" {
		language := translationLanguages[req.Language]
		if language == "" {
			language = req.Language
		}

		prompt, err := ai.TranslatePrompt(req.Text, language)
		if err != nil {
			return nil, CodedErrorf(http.StatusInternalServerError, "failed to translate text")
		}

		raw, err := s.llm.Generate(r.Context(), "", prompt, s.params.For("translate"))
		if err != nil {
			return nil, CodedErrorf(http.StatusBadGateway, "Translation failed: %v", err)
		}
		translated = strings.TrimSpace(ai.StripFences(raw))
		if translated == "" {
			return nil, CodedError(http.StatusBadGateway, fmt.Errorf("Translation failed: empty response"))
		}
		speak = translated
	}

	audio, err := s.synthesizer.Synthesize(r.Context(), speak)
	if err != nil {
		return nil, CodedErrorf(http.StatusBadGateway, "Text-to-speech conversion failed: %v", err)
	}

	fileName := fmt.Sprintf("tts_%s.mp3", uuid.New().String())
	if err := s.storage.PutObject(r.Context(), s.audioBucket, fileName, bytes.NewReader(audio)); err != nil {
		return nil, CodedError(http.StatusInternalServerError, fmt.Errorf("error storing synthesized audio: %w", err))
	}

	return api.TextToSpeechResponse{
		FilePath:       "/audio/" + fileName,
		FileName:       fileName,
		Duration:       round2(float64(len(strings.Fields(speak))) * synthesizedSecondsPerWord),
		TranslatedText: translated,
	}, nil
}

// ServeAudio streams a synthesized clip back to the client.
func (s *VoiceService) ServeAudio(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	if filename == "" || strings.Contains(filename, "/") || strings.Contains(filename, "..") {
		writeEndpointError(w, CodedError(http.StatusBadRequest, fmt.Errorf("invalid audio filename")))
		return
	}

	stream, err := s.storage.GetObjectStream(s.audioBucket, filename)
	if err != nil {
		writeEndpointError(w, CodedError(http.StatusNotFound, fmt.Errorf("audio file not found")))
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	if _, err := io.Copy(w, stream); err != nil {
		slog.Error("error streaming audio file", "filename", filename, "error", err)
	}
}

func (s *VoiceService) Formats(r *http.Request) (any, error) {
	return api.VoiceFormatsResponse{
		SupportedFormats:  speech.SupportedFormats,
		RecommendedFormat: "wav",
		MaxFileSize:       "10MB",
		RecordingLimits: api.RecordingLimits{
			MaxDuration:     300,
			MinDuration:     1,
			DefaultDuration: 10,
		},
	}, nil
}

func (s *VoiceService) Stats(r *http.Request) (any, error) {
	user, err := RequireUser(r)
	if err != nil {
		return nil, err
	}

	items, err := userHistory(r.Context(), s.db, user.Id, database.FeatureVoice, database.FeatureVoiceMicrophone)
	if err != nil {
		return nil, err
	}

	stats := api.VoiceStats{FormatBreakdown: map[string]int{}}
	stats.TotalProcessed = len(items)

	totalTime := 0.0
	for _, item := range items {
		stats.TotalWords += outputWordCount(item)
		totalTime += item.ProcessingTime

		var input struct {
			FileFormat string `json:"file_format"`
		}
		if err := json.Unmarshal(item.InputData, &input); err == nil && input.FileFormat != "" {
			stats.FormatBreakdown[input.FileFormat]++
		}
	}

	if len(items) > 0 {
		stats.AverageProcessingTime = round2(totalTime / float64(len(items)))
		stats.LastProcessed = formatTime(items[0].CreationTime)
	}

	return stats, nil
}
