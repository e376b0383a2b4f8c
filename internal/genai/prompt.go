package genai

import (
	"fmt"
	"strings"

	"quizmaster-service/internal/domain"
)

// buildQuizPrompt asks for a strict JSON object so the response can be parsed
// without tool-calling support.
func buildQuizPrompt(cfg domain.QuizConfig) string {
	typeInstructions := "For MCQs, provide exactly 4 options without any labels (A, B, C, D will be added by the client)"
	if cfg.QuestionType == domain.TypeTrueFalse {
		typeInstructions = `For true/false, options should be ["True", "False"]`
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Generate %d %s difficulty %s questions about %s.\n\n",
		cfg.NumberOfQuestions, cfg.Difficulty, cfg.QuestionType, cfg.Topic)
	sb.WriteString(`Format the response as valid JSON with this exact structure:
{
  "questions": [
    {
      "question": "Question text here",
      "options": ["Option 1 text", "Option 2 text", "Option 3 text", "Option 4 text"],
      "correctAnswer": "Option 1 text",
      "explanation": "Brief explanation of why this is correct"
    }
  ]
}

Requirements:
- Questions should be clear and unambiguous
- ` + typeInstructions + `
- Do NOT include A, B, C, D labels in the options array - provide only the option text
- Include educational explanations for each answer
- correctAnswer must exactly match one of the options text
- Use proper grammar and spelling
- Make questions engaging and educational
- Avoid trick questions or ambiguous wording

Return ONLY the JSON object, no additional text.`)
	return sb.String()
}

func buildExplanationPrompt(question, correctAnswer, userAnswer string) string {
	return fmt.Sprintf(`Given this question: %q
Correct answer: %q
User's answer: %q

Provide a clear, educational explanation (max 150 words) of:
1. Why the correct answer is right
2. Why the user's answer is wrong (if applicable)
3. Additional context or learning points

Keep the tone encouraging and educational.`, question, correctAnswer, userAnswer)
}
