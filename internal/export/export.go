// Package export renders user supplied HTML into downloadable documents.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
)

var ErrNotConfigured = errors.New("pdf generation service is not configured")

const documentCss = template.CSS(`
body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; color: #1f2937; }
h1, h2, h3, h4 { color: #111827; margin: 0 0 8px; }
h1 { font-size: 22px; }
h2 { font-size: 18px; border-bottom: 1px solid #e5e7eb; padding-bottom: 6px; }
h3 { font-size: 16px; }
p, li, td, th { font-size: 12px; line-height: 1.5; }
.meta { color: #6b7280; font-size: 10px; margin-bottom: 16px; }
.section { margin: 14px 0; }
ul { padding-left: 18px; }
table { width: 100%; border-collapse: collapse; margin: 8px 0; }
th, td { border: 1px solid #e5e7eb; padding: 6px; text-align: left; }
`)

var documentTemplate = template.Must(template.New("document").Parse(`<!DOCTYPE html>
<html lang="en">
  <head>
    <meta charset="utf-8" />
    <title>{{.Title}}</title>
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <style>{{.Css}}</style>
  </head>
  <body>
    {{.Body}}
  </body>
</html>
`))

type documentFields struct {
	Title string
	Css   template.CSS
	Body  template.HTML
}

// PdfRenderer shells out to wkhtmltopdf, feeding the wrapped document over
// stdin and reading the PDF from stdout.
type PdfRenderer struct {
	binary string
}

func NewPdfRenderer() *PdfRenderer {
	binary, err := exec.LookPath("wkhtmltopdf")
	if err != nil {
		slog.Error("wkhtmltopdf not found, pdf export disabled", "error", err)
		return &PdfRenderer{}
	}

	slog.Info("pdf export initialized", "wkhtmltopdf", binary)
	return &PdfRenderer{binary: binary}
}

func (r *PdfRenderer) RenderPdf(ctx context.Context, content, title string) ([]byte, error) {
	if r.binary == "" {
		return nil, ErrNotConfigured
	}

	doc, err := WrapDocument(content, title)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.binary,
		"--page-size", "A4",
		"--margin-top", "24mm",
		"--margin-right", "18mm",
		"--margin-bottom", "24mm",
		"--margin-left", "18mm",
		"--encoding", "UTF-8",
		"--no-outline",
		"--quiet",
		"-", "-")

	cmd.Stdin = strings.NewReader(doc)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		slog.Error("wkhtmltopdf failed", "error", err, "stderr", stderr.String())
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	if stdout.Len() == 0 {
		return nil, fmt.Errorf("PDF generation returned empty result")
	}

	return stdout.Bytes(), nil
}

// WrapDocument embeds an HTML fragment into the styled document shell used
// for every export format.
func WrapDocument(content, title string) (string, error) {
	sanitized := strings.TrimSpace(content)
	sanitized = strings.ReplaceAll(sanitized, "\n", " ")
	sanitized = strings.ReplaceAll(sanitized, "\r", "")

	var doc strings.Builder
	err := documentTemplate.Execute(&doc, documentFields{
		Title: title,
		Css:   documentCss,
		Body:  template.HTML(sanitized), //nolint:gosec // callers export their own content
	})
	if err != nil {
		return "", fmt.Errorf("error rendering document: %w", err)
	}

	return doc.String(), nil
}

// ToMarkdown converts an HTML fragment to markdown.
func ToMarkdown(content string) (string, error) {
	converter := md.NewConverter("", true, nil)

	markdown, err := converter.ConvertString(content)
	if err != nil {
		return "", fmt.Errorf("failed to convert to markdown: %w", err)
	}

	return strings.TrimSpace(markdown), nil
}
