package ai_test

import (
	"testing"

	"thinkink-backend/internal/ai"
	"thinkink-backend/pkg/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain json", `{"a": 1}`, `{"a": 1}`},
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"bare fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"surrounding whitespace", "  \n{\"a\": 1}\n  ", `{"a": 1}`},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.want, ai.StripFences(test.raw))
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Summary string `json:"summary"`
		Count   int    `json:"count"`
	}

	t.Run("clean object", func(t *testing.T) {
		out, err := ai.DecodeJSON[payload](`{"summary": "ok", "count": 3}`)
		require.NoError(t, err)
		assert.Equal(t, payload{Summary: "ok", Count: 3}, out)
	})

	t.Run("fenced with prose", func(t *testing.T) {
		raw := "Here is the result you asked for:\n```json\n{\"summary\": \"ok\", \"count\": 3}\n```\nLet me know if you need more."
		out, err := ai.DecodeJSON[payload](raw)
		require.NoError(t, err)
		assert.Equal(t, "ok", out.Summary)
	})

	t.Run("unknown fields are ignored", func(t *testing.T) {
		out, err := ai.DecodeJSON[payload](`{"summary": "ok", "count": 1, "confidence": 0.9}`)
		require.NoError(t, err)
		assert.Equal(t, 1, out.Count)
	})

	t.Run("no json at all", func(t *testing.T) {
		_, err := ai.DecodeJSON[payload]("I cannot answer that.")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error parsing llm response")
	})
}

func quizWith(answer string, options ...string) *api.QuizGenerateResponse {
	return &api.QuizGenerateResponse{
		Questions: []api.QuizQuestion{{
			Question:      "Which planet is largest?",
			Options:       options,
			CorrectAnswer: answer,
		}},
	}
}

func TestRepairQuiz(t *testing.T) {
	t.Run("well formed quiz is untouched", func(t *testing.T) {
		quiz := quizWith("C) Jupiter", "A) Mercury", "B) Venus", "C) Jupiter", "D) Mars")
		require.NoError(t, ai.RepairQuiz(quiz))

		assert.Equal(t, []string{"A) Mercury", "B) Venus", "C) Jupiter", "D) Mars"}, quiz.Questions[0].Options)
		assert.Equal(t, "C) Jupiter", quiz.Questions[0].CorrectAnswer)
		assert.Equal(t, 1, quiz.TotalQuestions)
	})

	t.Run("adds missing letter prefixes", func(t *testing.T) {
		quiz := quizWith("C) Jupiter", "Mercury", "Venus", "Jupiter", "Mars")
		require.NoError(t, ai.RepairQuiz(quiz))

		assert.Equal(t, []string{"A) Mercury", "B) Venus", "C) Jupiter", "D) Mars"}, quiz.Questions[0].Options)
	})

	t.Run("resolves a bare letter answer", func(t *testing.T) {
		quiz := quizWith("C", "Mercury", "Venus", "Jupiter", "Mars")
		require.NoError(t, ai.RepairQuiz(quiz))
		assert.Equal(t, "C) Jupiter", quiz.Questions[0].CorrectAnswer)
	})

	t.Run("resolves a letter with parenthesis", func(t *testing.T) {
		quiz := quizWith("B)", "Mercury", "Venus", "Jupiter", "Mars")
		require.NoError(t, ai.RepairQuiz(quiz))
		assert.Equal(t, "B) Venus", quiz.Questions[0].CorrectAnswer)
	})

	t.Run("resolves unprefixed answer text case insensitively", func(t *testing.T) {
		quiz := quizWith("jupiter", "Mercury", "Venus", "Jupiter", "Mars")
		require.NoError(t, ai.RepairQuiz(quiz))
		assert.Equal(t, "C) Jupiter", quiz.Questions[0].CorrectAnswer)
	})

	t.Run("no questions", func(t *testing.T) {
		err := ai.RepairQuiz(&api.QuizGenerateResponse{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no questions")
	})

	t.Run("wrong option count", func(t *testing.T) {
		quiz := quizWith("Mercury", "Mercury", "Venus")
		err := ai.RepairQuiz(quiz)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "has 2 options, expected 4")
	})

	t.Run("answer outside the options", func(t *testing.T) {
		quiz := quizWith("E) Saturn", "Mercury", "Venus", "Jupiter", "Mars")
		err := ai.RepairQuiz(quiz)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "does not match any option")
	})
}

func TestClampClarityScore(t *testing.T) {
	assert.Equal(t, 0, ai.ClampClarityScore(-3))
	assert.Equal(t, 0, ai.ClampClarityScore(0))
	assert.Equal(t, 7, ai.ClampClarityScore(7))
	assert.Equal(t, 10, ai.ClampClarityScore(10))
	assert.Equal(t, 10, ai.ClampClarityScore(15))
}

func TestNormalizeEmotion(t *testing.T) {
	t.Run("known emotion is lowercased", func(t *testing.T) {
		res := api.EmotionAnalysisResponse{PrimaryEmotion: "  Happy "}
		ai.NormalizeEmotion(&res)
		assert.Equal(t, "happy", res.PrimaryEmotion)
	})

	t.Run("unknown emotion collapses to neutral", func(t *testing.T) {
		res := api.EmotionAnalysisResponse{PrimaryEmotion: "Exhilarated"}
		ai.NormalizeEmotion(&res)
		assert.Equal(t, "neutral", res.PrimaryEmotion)
	})

	t.Run("scores are clamped to 0-100", func(t *testing.T) {
		res := api.EmotionAnalysisResponse{
			PrimaryEmotion: "tired",
			EmotionScores: api.EmotionScores{
				Confidence:      150,
				EnergyLevel:     -20,
				StressLevel:     55,
				MotivationLevel: 101,
			},
		}
		ai.NormalizeEmotion(&res)

		assert.Equal(t, 100, res.EmotionScores.Confidence)
		assert.Equal(t, 0, res.EmotionScores.EnergyLevel)
		assert.Equal(t, 55, res.EmotionScores.StressLevel)
		assert.Equal(t, 100, res.EmotionScores.MotivationLevel)
	})

	t.Run("nil suggestions become an empty list", func(t *testing.T) {
		res := api.EmotionAnalysisResponse{PrimaryEmotion: "happy"}
		ai.NormalizeEmotion(&res)
		require.NotNil(t, res.Suggestions)
		assert.Empty(t, res.Suggestions)
	})
}

func TestParseTextSummary(t *testing.T) {
	text := `Main Summary:
The lecture introduces photosynthesis.
It covers the light dependent reactions.

Key Points:
- Chlorophyll absorbs light
- Water molecules are split
- Chlorophyll absorbs light

Important Details:
1. Occurs in chloroplasts
2. Produces oxygen as a byproduct`

	summary := ai.ParseTextSummary(text)

	assert.Equal(t, "The lecture introduces photosynthesis. It covers the light dependent reactions.", summary.MainSummary)
	assert.Equal(t, []string{"Chlorophyll absorbs light", "Water molecules are split"}, summary.KeyPoints,
		"repeated bullets should be collapsed")
	assert.Equal(t, []string{"Occurs in chloroplasts", "Produces oxygen as a byproduct"}, summary.ImportantDetails)
}

func TestParseTextSummaryHeaderDrift(t *testing.T) {
	text := `Overview:
A quick tour of the French Revolution.

Key findings:
• Taxes fell hardest on the third estate
• Bread prices doubled in 1789

Additional info worth noting:
* The Estates General had not met since 1614`

	summary := ai.ParseTextSummary(text)

	assert.Equal(t, "A quick tour of the French Revolution.", summary.MainSummary)
	assert.Equal(t, []string{"Taxes fell hardest on the third estate", "Bread prices doubled in 1789"}, summary.KeyPoints)
	assert.Equal(t, []string{"The Estates General had not met since 1614"}, summary.ImportantDetails)
}

func TestParseTextSummaryFallbacks(t *testing.T) {
	summary := ai.ParseTextSummary("")

	assert.Equal(t, "Summary could not be generated.", summary.MainSummary)
	assert.Equal(t, []string{"No key points identified."}, summary.KeyPoints)
	assert.Equal(t, []string{"No additional details extracted."}, summary.ImportantDetails)
}

func TestParseTextSummaryProseOnly(t *testing.T) {
	summary := ai.ParseTextSummary("Mitochondria make ATP.\nThey have their own DNA.")

	assert.Equal(t, "Mitochondria make ATP. They have their own DNA.", summary.MainSummary)
	assert.Equal(t, []string{"No key points identified."}, summary.KeyPoints)
}
