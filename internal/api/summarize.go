package api

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"thinkink-backend/internal/ai"
	"thinkink-backend/pkg/api"
)

const chunkAttempts = 3

// summarizeExtractedText runs the chunked summarization used for OCR and PDF
// output: split the text, prompt per chunk with up to three attempts, then
// parse the joined completions into a structured summary.
func summarizeExtractedText(ctx context.Context, llm ai.LLM, params ai.GenParams, text string) (api.TextSummary, error) {
	chunks := ai.SplitTextChunks(text, ai.DefaultChunkSize)

	parts := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		prompt, err := ai.ChunkSummaryPrompt(chunk, i+1, len(chunks))
		if err != nil {
			return api.TextSummary{}, err
		}

		var completion string
		for attempt := 1; attempt <= chunkAttempts; attempt++ {
			completion, err = llm.Generate(ctx, "", prompt, params)
			if err == nil && strings.TrimSpace(completion) == "" {
				err = fmt.Errorf("empty response from model")
			}
			if err == nil {
				break
			}
			if attempt < chunkAttempts {
				slog.Warn("chunk summarization failed, retrying", "chunk", i+1, "attempt", attempt, "error", err)
			}
		}
		if err != nil {
			return api.TextSummary{}, fmt.Errorf("error summarizing chunk %d of %d: %w", i+1, len(chunks), err)
		}

		parts = append(parts, strings.TrimSpace(completion))
	}

	return ai.ParseTextSummary(strings.Join(parts, "\n\n")), nil
}
