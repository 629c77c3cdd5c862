package speech

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type Synthesizer interface {
	// Synthesize renders text as mp3 audio.
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

type OpenAISynthesizer struct {
	client openai.Client
	model  string
	voice  openai.AudioSpeechNewParamsVoice
}

func NewOpenAISynthesizer(apiKey, baseURL, model string) *OpenAISynthesizer {
	opts := []option.RequestOption{}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if model == "" {
		model = openai.SpeechModelTTS1
	}

	return &OpenAISynthesizer{
		client: openai.NewClient(opts...),
		model:  model,
		voice:  openai.AudioSpeechNewParamsVoiceAlloy,
	}
}

func (s *OpenAISynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	res, err := s.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model:          s.model,
		Input:          text,
		Voice:          s.voice,
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	})
	if err != nil {
		slog.Error("speech synthesis request failed", "error", err)
		return nil, fmt.Errorf("speech synthesis failed: %w", err)
	}
	defer res.Body.Close()

	audio, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading synthesized audio: %w", err)
	}

	return audio, nil
}
