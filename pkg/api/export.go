package api

// ExportPdfRequest wraps client-rendered HTML for conversion. Filename and
// Title are optional; the server picks timestamped defaults.
type ExportPdfRequest struct {
	Html     string `json:"html"`
	Filename string `json:"filename,omitempty"`
	Title    string `json:"title,omitempty"`
}

type ExportMarkdownRequest struct {
	Html     string `json:"html"`
	Filename string `json:"filename,omitempty"`
}

type ExportMarkdownResponse struct {
	Markdown string `json:"markdown"`
	Filename string `json:"filename"`
}
