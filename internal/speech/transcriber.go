package speech

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"thinkink-backend/pkg/api"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Words per second assumed when the container gives us no duration. Matches
// a typical 150 wpm speaking rate.
const estimatedSecondsPerWord = 0.4

var SupportedFormats = []string{"wav", "mp3", "m4a", "flac", "ogg", "webm"}

func FormatSupported(filename string) bool {
	parts := strings.Split(filename, ".")
	ext := strings.ToLower(parts[len(parts)-1])
	for _, format := range SupportedFormats {
		if ext == format {
			return true
		}
	}
	return false
}

type Result struct {
	Transcription string
	Confidence    float64
	WordCount     int
	Duration      float64
	Timestamps    []api.WordTimestamp
	SampleRate    int
}

type Transcriber interface {
	Transcribe(ctx context.Context, filename string, data []byte) (Result, error)
}

// OpenAITranscriber sends audio to a whisper endpoint. A non empty baseURL
// points it at an OpenAI compatible local server instead of the hosted API.
type OpenAITranscriber struct {
	client openai.Client
	model  string
}

func NewOpenAITranscriber(apiKey, baseURL, model string) *OpenAITranscriber {
	opts := []option.RequestOption{}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if model == "" {
		model = openai.AudioModelWhisper1
	}

	return &OpenAITranscriber{client: openai.NewClient(opts...), model: model}
}

func (t *OpenAITranscriber) Transcribe(ctx context.Context, filename string, data []byte) (Result, error) {
	res, err := t.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:  openai.File(bytes.NewReader(data), filename, "application/octet-stream"),
		Model: t.model,
	})
	if err != nil {
		slog.Error("transcription request failed", "filename", filename, "error", err)
		return Result{}, fmt.Errorf("transcription failed: %w", err)
	}

	transcription := strings.TrimSpace(res.Text)
	if transcription == "" {
		return Result{}, fmt.Errorf("no speech detected in audio")
	}

	words := strings.Fields(transcription)

	result := Result{
		Transcription: transcription,
		Confidence:    0.9,
		WordCount:     len(words),
	}

	if info, err := parseWavHeader(data); err == nil {
		result.Duration = math.Round(info.Duration*100) / 100
		result.SampleRate = info.SampleRate
	} else {
		result.Duration = math.Round(float64(len(words))*estimatedSecondsPerWord*100) / 100
	}

	result.Timestamps = spreadTimestamps(words, result.Duration)

	return result, nil
}

// spreadTimestamps distributes words evenly across the clip. The whisper
// endpoint does not return word timings at the default granularity, so this
// approximation keeps the response shape stable.
func spreadTimestamps(words []string, duration float64) []api.WordTimestamp {
	if len(words) == 0 || duration <= 0 {
		return nil
	}

	avg := duration / float64(len(words))
	timestamps := make([]api.WordTimestamp, len(words))
	current := 0.0
	for i, word := range words {
		timestamps[i] = api.WordTimestamp{
			Word:      word,
			StartTime: math.Round(current*100) / 100,
			EndTime:   math.Round((current+avg)*100) / 100,
		}
		current += avg
	}

	return timestamps
}
