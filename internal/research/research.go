package research

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

type Paper struct {
	Title     string
	Authors   []string
	Year      string
	Citations int
	Abstract  string
	URL       string
	Venue     string
}

type Searcher interface {
	SearchPapers(ctx context.Context, topic string, numPapers int) ([]Paper, error)
}

// CrossrefClient searches the Crossref works API for published papers.
// Crossref asks polite clients to identify themselves with a mailto
// parameter, which also routes requests to the faster polite pool.
type CrossrefClient struct {
	client *resty.Client
	mailto string
}

func NewCrossrefClient(mailto string) *CrossrefClient {
	return &CrossrefClient{
		client: resty.New().SetBaseURL("https://api.crossref.org"),
		mailto: mailto,
	}
}

type crossrefResponse struct {
	Message struct {
		Items []crossrefWork `json:"items"`
	} `json:"message"`
}

type crossrefWork struct {
	Title  []string `json:"title"`
	Author []struct {
		Given  string `json:"given"`
		Family string `json:"family"`
		Name   string `json:"name"`
	} `json:"author"`
	Issued struct {
		DateParts [][]int `json:"date-parts"`
	} `json:"issued"`
	ContainerTitle      []string `json:"container-title"`
	Abstract            string   `json:"abstract"`
	URL                 string   `json:"URL"`
	DOI                 string   `json:"DOI"`
	IsReferencedByCount int      `json:"is-referenced-by-count"`
}

func (c *CrossrefClient) SearchPapers(ctx context.Context, topic string, numPapers int) ([]Paper, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req := c.client.R().
		SetContext(ctx).
		SetQueryParam("query", topic).
		SetQueryParam("rows", strconv.Itoa(numPapers)).
		SetQueryParam("select", "title,author,issued,container-title,abstract,URL,DOI,is-referenced-by-count")
	if c.mailto != "" {
		req.SetQueryParam("mailto", c.mailto)
	}

	res, err := req.Get("/works")
	if err != nil {
		slog.Error("unable to reach crossref", "error", err)
		return nil, fmt.Errorf("paper search failed: %w", err)
	}

	if !res.IsSuccess() {
		slog.Error("crossref returned error", "status_code", res.StatusCode(), "body", res.String())
		return nil, fmt.Errorf("paper search returned status %d", res.StatusCode())
	}

	var parsed crossrefResponse
	if err := json.Unmarshal(res.Body(), &parsed); err != nil {
		slog.Error("error parsing response from crossref", "error", err)
		return nil, fmt.Errorf("error parsing paper search response: %w", err)
	}

	papers := make([]Paper, 0, len(parsed.Message.Items))
	for _, work := range parsed.Message.Items {
		papers = append(papers, toPaper(work))
	}

	return papers, nil
}

func toPaper(work crossrefWork) Paper {
	paper := Paper{
		Title:     "Title not available",
		Authors:   []string{"Author not available"},
		Year:      "Year not available",
		Abstract:  "Abstract not available",
		Venue:     "Venue not available",
		Citations: work.IsReferencedByCount,
		URL:       work.URL,
	}

	if len(work.Title) > 0 && work.Title[0] != "" {
		paper.Title = work.Title[0]
	}

	if len(work.Author) > 0 {
		authors := make([]string, 0, len(work.Author))
		for _, a := range work.Author {
			name := strings.TrimSpace(a.Given + " " + a.Family)
			if name == "" {
				name = a.Name
			}
			if name != "" {
				authors = append(authors, name)
			}
		}
		if len(authors) > 0 {
			paper.Authors = authors
		}
	}

	if len(work.Issued.DateParts) > 0 && len(work.Issued.DateParts[0]) > 0 {
		paper.Year = strconv.Itoa(work.Issued.DateParts[0][0])
	}

	if len(work.ContainerTitle) > 0 && work.ContainerTitle[0] != "" {
		paper.Venue = work.ContainerTitle[0]
	}

	if abstract := cleanAbstract(work.Abstract); abstract != "" {
		paper.Abstract = abstract
	} else {
		paper.Abstract = fmt.Sprintf(
			"This paper titled '%s' was published in %s and has been cited %d times. "+
				"It was authored by %s. The full abstract is not available through the API.",
			paper.Title, paper.Year, paper.Citations, strings.Join(paper.Authors, ", "))
	}

	if paper.URL == "" && work.DOI != "" {
		paper.URL = "https://doi.org/" + work.DOI
	}

	return paper
}

var jatsTagPattern = regexp.MustCompile(`<[^>]+>`)

// cleanAbstract strips the JATS XML markup that Crossref wraps abstracts in.
func cleanAbstract(abstract string) string {
	text := jatsTagPattern.ReplaceAllString(abstract, " ")
	text = html.UnescapeString(text)
	return strings.Join(strings.Fields(text), " ")
}
