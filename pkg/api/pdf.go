package api

// PdfPage is the per-page slice of an extraction result. Pages with no
// extractable text are omitted.
type PdfPage struct {
	Page int    `json:"page"`
	Text string `json:"text"`
}

type PdfExtractResponse struct {
	Text             string    `json:"text"`
	Pages            []PdfPage `json:"pages"`
	TotalPages       int       `json:"total_pages"`
	WordCount        int       `json:"word_count"`
	ExtractionMethod string    `json:"extraction_method"`
	ProcessingTime   float64   `json:"processing_time"`
}

// PdfInfoResponse carries document metadata without extracting any text.
// Fields missing from the document are reported as "Unknown".
type PdfInfoResponse struct {
	TotalPages       int    `json:"total_pages"`
	Title            string `json:"title"`
	Author           string `json:"author"`
	Subject          string `json:"subject"`
	Creator          string `json:"creator"`
	Producer         string `json:"producer"`
	CreationDate     string `json:"creation_date"`
	ModificationDate string `json:"modification_date"`
}

type PdfSummarizeResponse struct {
	Filename       string      `json:"filename"`
	TotalPages     int         `json:"total_pages"`
	WordCount      int         `json:"word_count"`
	Summary        TextSummary `json:"summary"`
	ProcessingTime float64     `json:"processing_time"`
}

type PdfFormatsResponse struct {
	SupportedFormats  []string `json:"supported_formats"`
	MaxFileSize       string   `json:"max_file_size"`
	ExtractionMethods []string `json:"extraction_methods"`
	Features          []string `json:"features"`
}

type PdfStats struct {
	TotalProcessed        int            `json:"total_processed"`
	TotalWords            int            `json:"total_words"`
	TotalPages            int            `json:"total_pages"`
	AverageProcessingTime float64        `json:"average_processing_time"`
	ExtractionMethods     map[string]int `json:"extraction_methods"`
	LastProcessed         *string        `json:"last_processed"`
}
