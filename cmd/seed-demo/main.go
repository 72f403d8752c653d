package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/quizdesk/quizdesk-backend/internal/config"
	"github.com/quizdesk/quizdesk-backend/internal/database"
	"github.com/quizdesk/quizdesk-backend/internal/logger"
)

// demoQuestion is one seeded question with its candidate answers.
// The first answer is the correct one.
type demoQuestion struct {
	text    string
	answers []string
}

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	fmt.Println("=== Seeding demo question group ===")

	groupID := uuid.New()
	if _, err := pool.Exec(ctx,
		`INSERT INTO question_groups (id, name, active) VALUES ($1, $2, TRUE)`,
		groupID, "General Knowledge (Demo)"); err != nil {
		log.Fatal().Err(err).Msg("Failed to create question group")
	}
	fmt.Printf("Created group %s\n", groupID)

	questions := []demoQuestion{
		{"Which planet is closest to the sun?", []string{"Mercury", "Venus", "Mars", "Jupiter"}},
		{"What is the chemical symbol for gold?", []string{"Au", "Ag", "Go", "Gd"}},
		{"How many continents are there?", []string{"Seven", "Five", "Six", "Eight"}},
		{"Which language has the most native speakers?", []string{"Mandarin Chinese", "English", "Spanish", "Hindi"}},
		{"What year did the first moon landing happen?", []string{"1969", "1959", "1972", "1965"}},
	}

	for i, q := range questions {
		questionID := uuid.New()
		if _, err := pool.Exec(ctx,
			`INSERT INTO questions (id, group_id, question_text, active, position)
			 VALUES ($1, $2, $3, TRUE, $4)`,
			questionID, groupID, q.text, i+1); err != nil {
			log.Fatal().Err(err).Msg("Failed to create question")
		}

		for j, answer := range q.answers {
			if _, err := pool.Exec(ctx,
				`INSERT INTO answers (id, question_id, answer_text, is_correct)
				 VALUES ($1, $2, $3, $4)`,
				uuid.New(), questionID, answer, j == 0); err != nil {
				log.Fatal().Err(err).Msg("Failed to create answer")
			}
		}
	}

	fmt.Printf("Seeded %d questions\n", len(questions))
	fmt.Println("Assign the group to a user via POST /api/v1/exams/assign")
	fmt.Printf("  {\"group_id\": \"%s\"}\n", groupID)
}
