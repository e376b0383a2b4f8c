package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"quizmaster-service/internal/app"
	"quizmaster-service/internal/config"
	"quizmaster-service/internal/domain"
	"quizmaster-service/internal/genai"
	"quizmaster-service/internal/infra/memory"
)

const maxInputAttempts = 3

// NewPlayCmd runs a quiz interactively in the terminal.
func NewPlayCmd(configPath *string) *cobra.Command {
	var (
		topic        string
		difficulty   string
		questionType string
		count        int
	)

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a quiz in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := domain.QuizConfig{
				Topic:             topic,
				Difficulty:        difficulty,
				QuestionType:      questionType,
				NumberOfQuestions: count,
			}
			return runPlay(cmd.Context(), *configPath, cfg, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&topic, "topic", "General knowledge", "quiz topic")
	cmd.Flags().StringVar(&difficulty, "difficulty", domain.DifficultyEasy, "easy, medium, or hard")
	cmd.Flags().StringVar(&questionType, "type", domain.TypeMCQ, "mcq or true-false")
	cmd.Flags().IntVar(&count, "count", 5, "number of questions")
	return cmd
}

func runPlay(ctx context.Context, configPath string, quizCfg domain.QuizConfig, in io.Reader, out io.Writer) error {
	var generator app.Generator = memory.NewStaticGenerator()
	var explainer app.Explainer = memory.NewStaticExplainer()
	if cfg, err := config.Load(configPath); err == nil && cfg.OpenAI.APIKey != "" {
		client := genai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
		generator, explainer = client, client
	} else if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		client := genai.NewClient(key, "")
		generator, explainer = client, client
	}

	service := app.NewQuizService(generator, explainer, nil)

	quiz, err := service.GenerateQuiz(ctx, quizCfg)
	if err != nil {
		return err
	}
	if err := service.StartQuiz(&quiz); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n%s (%s, %s) — %d questions, %s on the clock\n",
		quiz.Topic, quiz.Difficulty, quiz.QuestionType,
		quiz.NumberOfQuestions, domain.FormatDuration(quiz.TotalTime))

	reader := bufio.NewReader(in)
	for {
		question, index, err := service.CurrentQuestion()
		if err != nil {
			break
		}
		printQuestion(out, index+1, question)

		started := time.Now()
		chosen, ok := readAnswer(reader, out, len(question.Options))
		taken := int(time.Since(started).Seconds())
		if ok {
			correct, err := service.SubmitAnswer(index, question.Options[chosen], taken)
			if err != nil {
				if errors.Is(err, domain.ErrNoActiveSession) {
					fmt.Fprintln(out, "\nTime is up!")
					break
				}
				return err
			}
			if correct {
				fmt.Fprintln(out, "Correct!")
			} else {
				fmt.Fprintf(out, "Wrong. Correct answer was %s\n", question.CorrectAnswer)
			}
		} else {
			fmt.Fprintf(out, "Skipping. Correct answer was %s\n", question.CorrectAnswer)
		}

		if _, err := service.NextQuestion(ctx); err != nil {
			if errors.Is(err, domain.ErrNoActiveSession) {
				break
			}
			return err
		}
		if _, done := service.Result(); done {
			break
		}
	}

	result, ok := service.Result()
	if !ok {
		if result, err = service.CompleteQuiz(ctx); err != nil {
			return err
		}
	}
	printResult(out, result)
	return nil
}

func printQuestion(out io.Writer, number int, question domain.Question) {
	fmt.Fprintf(out, "\nQ%d: %s\n\n", number, question.Question)
	for i, option := range question.Options {
		fmt.Fprintf(out, "%c. %s\n", 'A'+i, option)
	}
	fmt.Fprintln(out)
}

func readAnswer(reader *bufio.Reader, out io.Writer, optionCount int) (int, bool) {
	if optionCount < 1 {
		return -1, false
	}

	maxLetter := byte('A' + optionCount - 1)

	for attempt := 1; attempt <= maxInputAttempts; attempt++ {
		line, err := reader.ReadString('\n')
		if err != nil {
			return -1, false
		}

		line = strings.ToUpper(strings.TrimSpace(line))
		if len(line) == 1 {
			letter := line[0]
			if letter >= 'A' && letter <= maxLetter {
				return int(letter - 'A'), true
			}
		}

		if attempt < maxInputAttempts {
			fmt.Fprintf(out, "Invalid input. Please enter a letter A-%c.\n", maxLetter)
		}
	}

	return -1, false
}

func printResult(out io.Writer, result domain.Result) {
	fmt.Fprintf(out, "\nFinal score: %d/%d (%d%%) — grade %s\n",
		result.CorrectAnswers, result.TotalQuestions, result.Percentage, result.Grade)
	fmt.Fprintln(out, result.PerformanceMessage)

	stats := domain.ComputeStats(result)
	fmt.Fprintf(out, "Correct %d, incorrect %d, unanswered %d, time %s\n",
		stats.TotalCorrect, stats.TotalIncorrect, stats.TotalUnanswered,
		domain.FormatDuration(result.TimeTaken))

	for i, q := range result.Questions {
		if q.IsCorrect {
			continue
		}
		fmt.Fprintf(out, "\nQ%d: %s\n  %s\n", i+1, q.Question.Question, q.CustomExplanation)
	}
}
