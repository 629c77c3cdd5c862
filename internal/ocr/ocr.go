package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrNoText is returned when the engine runs successfully but finds no
// readable text in the image.
var ErrNoText = errors.New("no text could be extracted from the image")

type Client interface {
	ExtractText(ctx context.Context, filename string, image []byte) (string, error)
}

// TesseractClient talks to a tesseract-server sidecar
// (https://github.com/hertzg/tesseract-server), which wraps the tesseract CLI
// behind a multipart HTTP endpoint.
type TesseractClient struct {
	client    *resty.Client
	languages []string
}

func NewTesseractClient(baseURL string, languages ...string) *TesseractClient {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}

	return &TesseractClient{
		client:    resty.New().SetBaseURL(baseURL),
		languages: languages,
	}
}

type tesseractResponse struct {
	Data struct {
		ExitCode int    `json:"exitCode"`
		Stderr   string `json:"stderr"`
		Stdout   string `json:"stdout"`
	} `json:"data"`
}

func (c *TesseractClient) ExtractText(ctx context.Context, filename string, image []byte) (string, error) {
	options, err := json.Marshal(map[string]any{"languages": c.languages})
	if err != nil {
		return "", fmt.Errorf("error encoding ocr options: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	res, err := c.client.R().
		SetContext(ctx).
		SetFileReader("file", filename, bytes.NewReader(image)).
		SetMultipartField("options", "", "application/json", bytes.NewReader(options)).
		Post("/tesseract")

	if err != nil {
		slog.Error("unable to reach ocr service", "error", err)
		return "", fmt.Errorf("ocr request failed: %w", err)
	}

	if !res.IsSuccess() {
		slog.Error("ocr service returned error", "status_code", res.StatusCode(), "body", res.String())
		return "", fmt.Errorf("ocr service returned status %d", res.StatusCode())
	}

	var parsed tesseractResponse
	if err := json.Unmarshal(res.Body(), &parsed); err != nil {
		slog.Error("error parsing response from ocr service", "error", err)
		return "", fmt.Errorf("error parsing ocr response: %w", err)
	}

	if parsed.Data.ExitCode != 0 {
		slog.Error("ocr engine failed", "exit_code", parsed.Data.ExitCode, "stderr", parsed.Data.Stderr)
		return "", fmt.Errorf("ocr engine exited with code %d", parsed.Data.ExitCode)
	}

	// Tesseract output keeps page layout line breaks, which only confuse the
	// downstream summarizer. Collapse all whitespace runs.
	text := strings.Join(strings.Fields(parsed.Data.Stdout), " ")
	if text == "" {
		return "", ErrNoText
	}

	return text, nil
}
