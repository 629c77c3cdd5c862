package research

import (
	"fmt"

	"thinkink-backend/pkg/api"
)

// FormatCitations renders APA and IEEE style reference strings for a paper.
func FormatCitations(title string, authors []string, year, venue string) api.CitationsFormat {
	if len(authors) == 0 {
		return api.CitationsFormat{
			Apa:  "Citation format error",
			Ieee: "Citation format error",
		}
	}

	var apaAuthors string
	switch len(authors) {
	case 1:
		apaAuthors = authors[0]
	case 2:
		apaAuthors = fmt.Sprintf("%s & %s", authors[0], authors[1])
	default:
		apaAuthors = fmt.Sprintf("%s et al.", authors[0])
	}

	ieeeAuthors := authors[0]
	if len(authors) > 1 {
		ieeeAuthors = fmt.Sprintf("%s et al.", authors[0])
	}

	return api.CitationsFormat{
		Apa:  fmt.Sprintf("%s (%s). %s. %s.", apaAuthors, year, title, venue),
		Ieee: fmt.Sprintf("%s, \"%s,\" %s, %s.", ieeeAuthors, title, venue, year),
	}
}
