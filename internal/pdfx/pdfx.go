// Package pdfx extracts text and metadata from PDF documents with MuPDF via
// the go-fitz bindings.
package pdfx

import (
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"
)

const ExtractionMethod = "fitz"

type Page struct {
	Number int
	Text   string
}

type Document struct {
	Pages      []Page // pages with extractable text only
	Text       string
	TotalPages int
	WordCount  int
}

type Metadata struct {
	TotalPages       int
	Title            string
	Author           string
	Subject          string
	Creator          string
	Producer         string
	CreationDate     string
	ModificationDate string
}

func Extract(data []byte) (Document, error) {
	pdf, err := fitz.NewFromMemory(data)
	if err != nil {
		return Document{}, fmt.Errorf("could not open pdf: %w", err)
	}
	defer pdf.Close()

	doc := Document{TotalPages: pdf.NumPage()}

	pageTexts := make([]string, 0, doc.TotalPages)
	for i := 0; i < doc.TotalPages; i++ {
		pageText, err := pdf.Text(i)
		if err != nil {
			return Document{}, fmt.Errorf("could not extract text from page %d: %w", i+1, err)
		}

		pageText = strings.TrimSpace(pageText)
		if pageText == "" {
			continue
		}

		doc.Pages = append(doc.Pages, Page{Number: i + 1, Text: pageText})
		pageTexts = append(pageTexts, pageText)
	}

	doc.Text = strings.Join(pageTexts, "\n\n")
	doc.WordCount = len(strings.Fields(doc.Text))

	return doc, nil
}

func Info(data []byte) (Metadata, error) {
	pdf, err := fitz.NewFromMemory(data)
	if err != nil {
		return Metadata{}, fmt.Errorf("could not open pdf: %w", err)
	}
	defer pdf.Close()

	meta := pdf.Metadata()

	return Metadata{
		TotalPages:       pdf.NumPage(),
		Title:            metaValue(meta, "title"),
		Author:           metaValue(meta, "author"),
		Subject:          metaValue(meta, "subject"),
		Creator:          metaValue(meta, "creator"),
		Producer:         metaValue(meta, "producer"),
		CreationDate:     metaValue(meta, "creationDate"),
		ModificationDate: metaValue(meta, "modDate"),
	}, nil
}

func metaValue(meta map[string]string, key string) string {
	if v := strings.TrimSpace(meta[key]); v != "" {
		return v
	}
	return "Unknown"
}
