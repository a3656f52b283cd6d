package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prepstack/satprep-backend/internal/config"
	"github.com/prepstack/satprep-backend/internal/database"
	"github.com/prepstack/satprep-backend/internal/logger"
	"github.com/prepstack/satprep-backend/internal/model"
)

type seedQuestion struct {
	Text          string
	Options       []string
	CorrectAnswer string
	Explanation   string
	Subject       model.Subject
	Difficulty    int
}

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	fmt.Println("=== Seeding Practice Papers ===")

	questions := []seedQuestion{
		{
			Text:          "If 3x + 7 = 22, what is the value of x?",
			Options:       []string{"3", "5", "7", "15"},
			CorrectAnswer: "5",
			Explanation:   "Subtract 7 from both sides to get 3x = 15, then divide by 3.",
			Subject:       model.SubjectMath,
			Difficulty:    1,
		},
		{
			Text:          "Which value of y satisfies y/4 = 12?",
			Options:       []string{"3", "16", "48", "8"},
			CorrectAnswer: "48",
			Explanation:   "Multiply both sides by 4.",
			Subject:       model.SubjectMath,
			Difficulty:    1,
		},
		{
			Text:          "A line passes through (0, 2) with slope 3. Which equation describes it?",
			Options:       []string{"y = 2x + 3", "y = 3x + 2", "y = 3x - 2", "y = 2x - 3"},
			CorrectAnswer: "y = 3x + 2",
			Explanation:   "Slope-intercept form is y = mx + b with m = 3 and b = 2.",
			Subject:       model.SubjectMath,
			Difficulty:    2,
		},
		{
			Text:          "The word \"ubiquitous\" most nearly means:",
			Options:       []string{"rare", "everywhere", "hidden", "ancient"},
			CorrectAnswer: "everywhere",
			Explanation:   "Ubiquitous describes something present or found everywhere.",
			Subject:       model.SubjectReading,
			Difficulty:    2,
		},
		{
			Text:          "Which choice best maintains parallel structure? \"She likes hiking, swimming, and ___.\"",
			Options:       []string{"to ride bikes", "riding bikes", "bike rides", "she rides bikes"},
			CorrectAnswer: "riding bikes",
			Explanation:   "The gerund form matches hiking and swimming.",
			Subject:       model.SubjectWriting,
			Difficulty:    1,
		},
	}

	ids := make([]uuid.UUID, 0, len(questions))
	for i, q := range questions {
		var id uuid.UUID
		err := pool.QueryRow(ctx,
			`INSERT INTO questions (question_text, options, correct_answer, explanation, video_solution_url, passage, subject, difficulty)
			 VALUES ($1, $2, $3, $4, '', '', $5, $6)
			 RETURNING id`,
			q.Text, q.Options, q.CorrectAnswer, q.Explanation, q.Subject, q.Difficulty,
		).Scan(&id)
		if err != nil {
			log.Fatal().Err(err).Int("index", i).Msg("Failed to insert question")
		}
		ids = append(ids, id)
	}
	fmt.Printf("Inserted %d questions\n", len(ids))

	papers := []struct {
		title     string
		paperType model.PaperType
		subject   model.Subject
		duration  int
	}{
		{"SAT Practice Test 1", model.PaperTypeFullTest, model.SubjectMath, 90},
		{"Daily Quiz: Mixed Review", model.PaperTypeDailyQuiz, model.SubjectReading, 0},
	}

	for _, p := range papers {
		var paperID uuid.UUID
		err := pool.QueryRow(ctx,
			`INSERT INTO question_papers (title, type, subject, level, status, duration_minutes)
			 VALUES ($1, $2, $3, 'INTERMEDIATE', 'PUBLISHED', $4)
			 RETURNING id`,
			p.title, p.paperType, p.subject, p.duration,
		).Scan(&paperID)
		if err != nil {
			log.Fatal().Err(err).Str("title", p.title).Msg("Failed to insert paper")
		}

		for i, qid := range ids {
			if _, err := pool.Exec(ctx,
				`INSERT INTO paper_questions (paper_id, question_id, order_num) VALUES ($1, $2, $3)`,
				paperID, qid, i,
			); err != nil {
				log.Fatal().Err(err).Msg("Failed to link question to paper")
			}
		}
		fmt.Printf("Created paper %q with %d questions (ID: %s)\n", p.title, len(ids), paperID)
	}

	fmt.Println("\nSeed completed!")
}
