package ai

import (
	"fmt"
	"strings"
	"text/template"
)

var summaryModeInstructions = map[string]string{
	"narrative": "Write the summary in a flowing, story-like manner that's engaging and easy to follow.",
	"beginner":  "Use simple, clear language suitable for beginners. Avoid technical terms and explain concepts in basic terms.",
	"technical": "Use precise technical language and domain-specific terminology. Maintain a professional and academic tone.",
	"bullet":    "Present the summary as a structured list of key points, using bullet points for clarity.",
}

var summarizationTypeInstructions = map[string]string{
	"extractive":  "Create the summary by selecting and combining the most important sentences from the original text. Maintain the original wording where possible.",
	"abstractive": "Generate a new summary that captures the meaning of the text in your own words. Rephrase and restructure the content while maintaining accuracy.",
}

var complexityInstructions = map[string]string{
	"basic":        "like you're explaining to a 10-year-old, using very simple terms",
	"intermediate": "for a high school student, balancing simplicity with some technical details",
	"advanced":     "for a college student, maintaining clarity while including technical concepts",
}

func styleInstruction(mode string) string {
	if instr, ok := summaryModeInstructions[mode]; ok {
		return instr
	}
	return "Write in a clear, concise manner."
}

func methodInstruction(summarizationType string) string {
	if instr, ok := summarizationTypeInstructions[summarizationType]; ok {
		return instr
	}
	return "Summarize the text appropriately."
}

type summarizeNotesFields struct {
	Style     string
	Method    string
	MaxLength int
	Text      string
	UseBlooms bool
}

const summarizeNotesPrompt = `Please summarize the following text according to these specifications:

Style: {{ .Style }}
Method: {{ .Method }}
Maximum Length: {{ .MaxLength }} words

Text to summarize:
{{ .Text }}
{{ if .UseBlooms }}
Additionally, analyze the content using Bloom's Taxonomy and provide learning objectives at each level under a "blooms_taxonomy" key with arrays for "remember", "understand", "apply", "analyze", "evaluate", and "create".
{{ end }}
Present the summary in the following JSON format:
{
    "summary": "the summarized text",
    "key_points": ["point 1", "point 2", "point 3"],
    "word_count": number_of_words_in_summary{{ if .UseBlooms }},
    "blooms_taxonomy": {...}{{ end }}
}

Respond only with the JSON, no additional text.`

var summarizeNotesTmpl = template.Must(template.New("summarizeNotes").Parse(summarizeNotesPrompt))

func SummarizeNotesPrompt(text string, maxLength int, summarizationType, summaryMode string, useBlooms bool) (string, error) {
	return render(summarizeNotesTmpl, summarizeNotesFields{
		Style:     styleInstruction(summaryMode),
		Method:    methodInstruction(summarizationType),
		MaxLength: maxLength,
		Text:      text,
		UseBlooms: useBlooms,
	})
}

type generateNotesFields struct {
	Topic       string
	DetailLevel string
}

const generateNotesPrompt = `You are a study assistant. Write well organized study notes on the topic below at a {{ .DetailLevel }} level of detail.

Topic: {{ .Topic }}

Format your response as a valid JSON object with this exact structure:
{
    "topic": "the topic",
    "notes": "the study notes as flowing text with paragraphs",
    "key_points": ["point 1", "point 2", "point 3"],
    "word_count": number_of_words_in_notes
}

Respond only with the JSON, no additional text.`

var generateNotesTmpl = template.Must(template.New("generateNotes").Parse(generateNotesPrompt))

func GenerateNotesPrompt(topic, detailLevel string) (string, error) {
	return render(generateNotesTmpl, generateNotesFields{Topic: topic, DetailLevel: detailLevel})
}

const extractPrompt = `You are a precise JSON generator. Extract key information from the following text and format it as JSON.

Text to analyze:
{{ .Text }}

Instructions:
1. Extract key points, important facts, main ideas, and vocabulary
2. Format response as VALID JSON only
3. No explanation, markdown, or extra text
4. Must match this exact structure:
{
    "key_points": ["point 1", "point 2", "point 3"],
    "important_facts": ["fact 1", "fact 2"],
    "main_ideas": ["idea 1", "idea 2"],
    "vocabulary": ["term 1: definition", "term 2: definition"]
}

Rules:
- Each array must contain at least 2 items
- No nested objects, only string arrays
- Each string should be a complete, meaningful phrase
- Use double quotes for JSON properties and strings

Return only valid JSON matching the exact structure above.`

var extractTmpl = template.Must(template.New("extract").Parse(extractPrompt))

func ExtractKeyPointsPrompt(text string) (string, error) {
	return render(extractTmpl, struct{ Text string }{Text: text})
}

type quizFields struct {
	Text           string
	NumQuestions   int
	UseBlooms      bool
	TaxonomyLevels string
}

const quizPrompt = `You are a quiz generator. Based on the following text, generate {{ .NumQuestions }} multiple choice questions.

Text to analyze:
{{ .Text }}
{{ if .UseBlooms }}
Use Bloom's Taxonomy to create questions at different cognitive levels:
- Remember: Test recall of specific facts and basic concepts
- Understand: Test comprehension and ability to explain ideas
- Apply: Test ability to use information in new situations
- Analyze: Test ability to draw connections and find patterns
- Evaluate: Test ability to justify a position or decision
- Create: Test ability to create new or original work
Distribute questions across these cognitive levels: {{ .TaxonomyLevels }}
Each question should clearly target one of these cognitive levels.
{{ end }}
For each question:
1. Generate a clear, specific question
2. Create 4 distinct answer options labeled A, B, C, D
3. Mark one option as correct
4. Provide a brief explanation for why the correct answer is right

Format your response as a valid JSON object with this exact structure:
{
    "questions": [
        {
            "question": "What is...?",
            "options": [
                "A) First option",
                "B) Second option",
                "C) Third option",
                "D) Fourth option"
            ],
            "correct_answer": "A) First option",
            "explanation": "This is correct because..."
        }
    ],
    "total_questions": {{ .NumQuestions }}
}

Requirements:
1. Each option MUST start with its letter (A, B, C, or D) followed by a closing parenthesis
2. The correct_answer MUST exactly match one of the options including the letter prefix
3. Generate exactly {{ .NumQuestions }} questions
4. Questions should test understanding, not just memorization

Respond only with the JSON object, no additional text.`

var quizTmpl = template.Must(template.New("quiz").Parse(quizPrompt))

func QuizPrompt(text string, numQuestions int, useBlooms bool, taxonomyLevels []string) (string, error) {
	if len(taxonomyLevels) == 0 {
		taxonomyLevels = []string{"remember", "understand", "apply", "analyze", "evaluate", "create"}
	}
	return render(quizTmpl, quizFields{
		Text:           text,
		NumQuestions:   numQuestions,
		UseBlooms:      useBlooms,
		TaxonomyLevels: strings.Join(taxonomyLevels, ", "),
	})
}

type mindmapFields struct {
	Topic     string
	Subtopics string
}

const mindmapPrompt = `Create a comprehensive mind map structure. The response must be a valid JSON object.
Include 3-5 main branches, each with 2-4 subtopics.
Each subtopic should have 2-3 key details or facts.

Response format must be exactly:
{
    "topic": "main topic",
    "branches": [
        {
            "name": "main branch name",
            "subtopics": [
                {
                    "name": "subtopic name",
                    "details": ["detail 1", "detail 2"]
                }
            ]
        }
    ]
}

{{ if .Subtopics }}Generate a mind map for the topic "{{ .Topic }}" that incorporates these subtopics: {{ .Subtopics }}
Organize the provided subtopics into logical branches and add additional relevant subtopics as needed.
{{ else }}Generate a mind map for this topic: "{{ .Topic }}"
{{ end }}
Respond only with the JSON object, no additional text or explanations.`

var mindmapTmpl = template.Must(template.New("mindmap").Parse(mindmapPrompt))

func MindmapPrompt(topic string, subtopics []string) (string, error) {
	return render(mindmapTmpl, mindmapFields{Topic: topic, Subtopics: strings.Join(subtopics, ", ")})
}

type eli5Fields struct {
	Topic           string
	Instruction     string
	ComplexityLevel string
}

const eli5Prompt = `Explain this topic {{ .Instruction }}.
Break down complex concepts into simpler parts.
Use clear analogies and real-world examples.

Topic to explain: {{ .Topic }}

Respond with only a JSON object in this exact format:
{
    "original_topic": "{{ .Topic }}",
    "simple_explanation": "A clear, simple explanation of the topic",
    "key_concepts": ["Key concept 1 in simple terms", "Key concept 2 in simple terms"],
    "examples": ["A concrete, real-world example 1", "A concrete, real-world example 2"],
    "analogies": ["A relatable analogy 1", "A relatable analogy 2"]
}

Requirements:
1. Each array should have 2-4 items
2. Keep explanations concise and clear
3. Use language appropriate for the {{ .ComplexityLevel }} level

Return only the JSON object, no additional text.`

var eli5Tmpl = template.Must(template.New("eli5").Parse(eli5Prompt))

func Eli5Prompt(topic, complexityLevel string) (string, error) {
	instr, ok := complexityInstructions[complexityLevel]
	if !ok {
		instr = complexityInstructions["basic"]
	}
	return render(eli5Tmpl, eli5Fields{Topic: topic, Instruction: instr, ComplexityLevel: complexityLevel})
}

type voiceSummarizeFields struct {
	Transcription string
	MaxLength     int
}

const voiceSummarizePrompt = `Create a concise summary of this transcribed speech, highlighting the most important points.
Keep the summary within {{ .MaxLength }} words.

Text to summarize:
{{ .Transcription }}

Please provide the summary in this JSON format:
{
    "summary": "The concise summary",
    "main_points": ["point 1", "point 2", "point 3"],
    "word_count": number of words in summary,
    "key_phrases": ["phrase 1", "phrase 2"],
    "action_items": ["action 1", "action 2"],
    "context": "brief description of the context/setting"
}

Return only the JSON object, no additional text.`

var voiceSummarizeTmpl = template.Must(template.New("voiceSummarize").Parse(voiceSummarizePrompt))

func VoiceSummarizePrompt(transcription string, maxLength int) (string, error) {
	return render(voiceSummarizeTmpl, voiceSummarizeFields{Transcription: transcription, MaxLength: maxLength})
}

const voiceAnalyzePrompt = `Analyze the following transcribed speech text and provide a structured analysis.
Focus on key points, main ideas, and overall sentiment.

Text to analyze:
{{ .Transcription }}

Please provide the analysis in this JSON format:
{
    "summary": "A concise summary of the main points",
    "key_points": ["point 1", "point 2", "point 3"],
    "topics_discussed": ["topic 1", "topic 2"],
    "sentiment": "positive/negative/neutral",
    "sentiment_reasons": ["reason 1", "reason 2"],
    "clarity_score": 0-10,
    "suggested_improvements": ["suggestion 1", "suggestion 2"]
}

Return only the JSON object, no additional text.`

var voiceAnalyzeTmpl = template.Must(template.New("voiceAnalyze").Parse(voiceAnalyzePrompt))

func VoiceAnalyzePrompt(transcription string) (string, error) {
	return render(voiceAnalyzeTmpl, struct{ Transcription string }{Transcription: transcription})
}

const emotionPrompt = `Analyze the following transcribed speech and detect the speaker's emotional state.
Consider the following aspects:
1. Content and word choice
2. Context of learning/study environment
3. Speech patterns and phrases used

Transcribed text:
{{ .Transcription }}

Provide a structured analysis in this JSON format:
{
    "primary_emotion": "one of [happy, confident, motivated, tired, frustrated, stressed, anxious, neutral]",
    "emotion_scores": {
        "confidence": 0-100,
        "energy_level": 0-100,
        "stress_level": 0-100,
        "motivation_level": 0-100
    },
    "context": "Brief description of what suggests this emotional state",
    "suggestions": ["1-2 specific suggestions based on the emotional state", "Focus on learning effectiveness and well-being"],
    "additional_notes": "Any relevant observations about speaking style or patterns"
}

Return only the JSON object, no additional text.`

var emotionTmpl = template.Must(template.New("emotion").Parse(emotionPrompt))

func EmotionPrompt(transcription string) (string, error) {
	return render(emotionTmpl, struct{ Transcription string }{Transcription: transcription})
}

type chunkSummaryFields struct {
	Lead string
	Text string
}

const chunkSummaryPrompt = `{{ .Lead }} provide a comprehensive summary of the following text.
Include key points, main ideas, and important details.

Text to summarize:
{{ .Text }}

Please structure your response as:
1. Main Summary (2-3 sentences)
2. Key Points (bullet points)
3. Important Details

Keep your response focused and concise.`

var chunkSummaryTmpl = template.Must(template.New("chunkSummary").Parse(chunkSummaryPrompt))

// ChunkSummaryPrompt builds the prompt for one chunk of extracted text. Multi
// chunk documents get a continuation lead so the model keeps the same shape.
func ChunkSummaryPrompt(chunk string, part, totalParts int) (string, error) {
	lead := "Please"
	if totalParts > 1 {
		lead = fmt.Sprintf("Continuing summary - Part %d,", part)
	}
	return render(chunkSummaryTmpl, chunkSummaryFields{Lead: lead, Text: chunk})
}

type paperSummaryFields struct {
	Style     string
	Method    string
	MaxLength int
	Abstract  string
}

const paperSummaryPrompt = `Please summarize the following research paper abstract according to these specifications:

Style: {{ .Style }}
Method: {{ .Method }}
Maximum Length: {{ .MaxLength }} words

Abstract:
{{ .Abstract }}

Provide the response in the following JSON format:
{
    "summary": "the generated summary",
    "key_findings": ["finding 1", "finding 2", "finding 3"],
    "methodology": "brief description of research methodology",
    "implications": "practical implications of the research"
}

Respond only with the JSON, no additional text.`

var paperSummaryTmpl = template.Must(template.New("paperSummary").Parse(paperSummaryPrompt))

func PaperSummaryPrompt(abstract, summarizationType, summaryMode string, maxLength int) (string, error) {
	return render(paperSummaryTmpl, paperSummaryFields{
		Style:     styleInstruction(summaryMode),
		Method:    methodInstruction(summarizationType),
		MaxLength: maxLength,
		Abstract:  abstract,
	})
}

type comparativePaper struct {
	Index    int
	Title    string
	Year     string
	Abstract string
}

type comparativeFields struct {
	Papers []comparativePaper
	Style  string
}

const comparativePrompt = `Analyze and compare the following research papers:
{{ range .Papers }}
Paper {{ .Index }}:
Title: {{ .Title }}
Year: {{ .Year }}
Abstract: {{ .Abstract }}
{{ end }}
Style: {{ .Style }}

Provide a comparative analysis in the following JSON format:
{
    "common_themes": ["theme 1", "theme 2"],
    "key_differences": ["difference 1", "difference 2"],
    "research_trends": "overview of trends across papers",
    "methodology_comparison": "comparison of research methods",
    "timeline_evolution": "how the research has evolved over time",
    "gaps_and_opportunities": "identified research gaps and future opportunities"
}

Focus on identifying patterns, contradictions, and evolution of ideas.
Respond only with the JSON, no additional text.`

var comparativeTmpl = template.Must(template.New("comparative").Parse(comparativePrompt))

type PaperRef struct {
	Title    string
	Year     string
	Abstract string
}

func ComparativeAnalysisPrompt(papers []PaperRef, summaryMode string) (string, error) {
	fields := comparativeFields{Style: styleInstruction(summaryMode)}
	for i, p := range papers {
		fields.Papers = append(fields.Papers, comparativePaper{Index: i + 1, Title: p.Title, Year: p.Year, Abstract: p.Abstract})
	}
	return render(comparativeTmpl, fields)
}

type translateFields struct {
	Language string
	Text     string
}

const translatePrompt = `Translate the following text to {{ .Language }}.
Preserve the meaning and tone of the original.
Return only the translated text, no explanations or notes.

Text:
{{ .Text }}`

var translateTmpl = template.Must(template.New("translate").Parse(translatePrompt))

func TranslatePrompt(text, language string) (string, error) {
	return render(translateTmpl, translateFields{Language: language, Text: text})
}

func render(tmpl *template.Template, fields any) (string, error) {
	out := new(strings.Builder)
	if err := tmpl.Execute(out, fields); err != nil {
		return "", fmt.Errorf("error rendering %s template: %w", tmpl.Name(), err)
	}
	return out.String(), nil
}
