package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"thinkink-backend/pkg/api"
)

// StripFences removes markdown code fences that models wrap around JSON
// despite instructions not to.
func StripFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	}
	return strings.TrimSpace(trimmed)
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}

// DecodeJSON parses a model completion into T, tolerating code fences and
// leading or trailing prose around the JSON object.
func DecodeJSON[T any](raw string) (T, error) {
	var out T
	cleaned := extractJSONObject(StripFences(raw))
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return out, fmt.Errorf("error parsing llm response: %w", err)
	}
	return out, nil
}

var optionLetters = []string{"A", "B", "C", "D"}

// RepairQuiz enforces the option contract: four options each carrying a
// letter prefix, and a correct answer that matches one of them verbatim.
func RepairQuiz(quiz *api.QuizGenerateResponse) error {
	if len(quiz.Questions) == 0 {
		return fmt.Errorf("quiz contains no questions")
	}

	for i := range quiz.Questions {
		q := &quiz.Questions[i]
		if len(q.Options) != 4 {
			return fmt.Errorf("question %d has %d options, expected 4", i+1, len(q.Options))
		}

		for j, opt := range q.Options {
			prefix := optionLetters[j] + ") "
			if !strings.HasPrefix(opt, prefix) {
				q.Options[j] = prefix + strings.TrimLeft(opt, "ABCD). ")
			}
		}

		if !matchOption(q) {
			return fmt.Errorf("question %d correct answer does not match any option", i+1)
		}
	}

	quiz.TotalQuestions = len(quiz.Questions)

	return nil
}

func matchOption(q *api.QuizQuestion) bool {
	for _, opt := range q.Options {
		if q.CorrectAnswer == opt {
			return true
		}
	}

	// The model sometimes answers with the bare letter or the unprefixed text.
	answer := strings.TrimSpace(q.CorrectAnswer)
	for j, opt := range q.Options {
		if answer == optionLetters[j] || answer == optionLetters[j]+")" {
			q.CorrectAnswer = opt
			return true
		}
		if strings.EqualFold(answer, strings.TrimPrefix(opt, optionLetters[j]+") ")) {
			q.CorrectAnswer = opt
			return true
		}
	}

	return false
}

func ClampClarityScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 10 {
		return 10
	}
	return score
}

var knownEmotions = map[string]struct{}{
	"happy": {}, "confident": {}, "motivated": {}, "tired": {},
	"frustrated": {}, "stressed": {}, "anxious": {}, "neutral": {},
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// NormalizeEmotion clamps scores to 0-100 and falls back to neutral when the
// model invents an emotion outside the fixed vocabulary.
func NormalizeEmotion(res *api.EmotionAnalysisResponse) {
	res.PrimaryEmotion = strings.ToLower(strings.TrimSpace(res.PrimaryEmotion))
	if _, ok := knownEmotions[res.PrimaryEmotion]; !ok {
		res.PrimaryEmotion = "neutral"
	}

	res.EmotionScores.Confidence = clampScore(res.EmotionScores.Confidence)
	res.EmotionScores.EnergyLevel = clampScore(res.EmotionScores.EnergyLevel)
	res.EmotionScores.StressLevel = clampScore(res.EmotionScores.StressLevel)
	res.EmotionScores.MotivationLevel = clampScore(res.EmotionScores.MotivationLevel)

	if res.Suggestions == nil {
		res.Suggestions = []string{}
	}
}

// ParseTextSummary splits a sectioned prose completion into the structured
// summary. The model is prompted for numbered "Main Summary", "Key Points",
// and "Important Details" sections but drifts on the exact headers, so
// matching is fuzzy.
func ParseTextSummary(text string) api.TextSummary {
	summary := api.TextSummary{
		KeyPoints:        []string{},
		ImportantDetails: []string{},
	}

	var mainSummary strings.Builder
	section := "main_summary"

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		lower := strings.ToLower(line)
		switch {
		case containsAny(lower, "main summary", "summary:", "overview:"):
			section = "main_summary"
			continue
		case containsAny(lower, "key points", "points:", "key findings:"):
			section = "key_points"
			continue
		case containsAny(lower, "important details", "details:", "additional info"):
			section = "important_details"
			continue
		}

		if isListItem(line) {
			item := strings.TrimLeft(line, "•-*0123456789. ")
			switch section {
			case "key_points":
				if !contains(summary.KeyPoints, item) {
					summary.KeyPoints = append(summary.KeyPoints, item)
				}
			case "important_details":
				if !contains(summary.ImportantDetails, item) {
					summary.ImportantDetails = append(summary.ImportantDetails, item)
				}
			}
		} else if section == "main_summary" {
			mainSummary.WriteString(line)
			mainSummary.WriteString(" ")
		}
	}

	summary.MainSummary = strings.TrimSpace(mainSummary.String())

	if summary.MainSummary == "" {
		summary.MainSummary = "Summary could not be generated."
	}
	if len(summary.KeyPoints) == 0 {
		summary.KeyPoints = []string{"No key points identified."}
	}
	if len(summary.ImportantDetails) == 0 {
		summary.ImportantDetails = []string{"No additional details extracted."}
	}

	return summary
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func isListItem(line string) bool {
	if strings.HasPrefix(line, "•") || strings.HasPrefix(line, "-") || strings.HasPrefix(line, "*") {
		return true
	}
	if len(line) > 1 && line[0] >= '1' && line[0] <= '9' && (line[1] == '.' || line[1] == ')') {
		return true
	}
	return false
}

func contains(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}
