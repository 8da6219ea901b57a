package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prepdesk/prepdesk-backend/internal/config"
	"github.com/prepdesk/prepdesk-backend/internal/database"
	"github.com/prepdesk/prepdesk-backend/internal/logger"
	"github.com/prepdesk/prepdesk-backend/internal/model"
)

// Seeds one published mock exam with two sections, a shared reading
// passage, and a mix of question types. Safe to re-run: existing rows with
// the same IDs are left untouched.
func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	fmt.Println("=== Seeding Mock Exam ===")

	examID := "aptitude-mock-1"

	_, err = pool.Exec(ctx,
		`INSERT INTO exams (id, title, duration_minutes, instructions, languages, status)
		 VALUES ($1, $2, $3, $4, $5, 'PUBLISHED')
		 ON CONFLICT (id) DO NOTHING`,
		examID, "Aptitude Mock Test 1", 60,
		"Each question carries 2 marks. Incorrect answers deduct 0.5.",
		[]string{"en", "hi"},
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to insert exam")
	}

	sections := []struct {
		id   string
		name string
	}{
		{"sec-verbal", "Verbal Ability"},
		{"sec-quant", "Quantitative Aptitude"},
	}
	for i, s := range sections {
		_, err = pool.Exec(ctx,
			`INSERT INTO sections (id, exam_id, name, position)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (id) DO NOTHING`,
			s.id, examID, s.name, i,
		)
		if err != nil {
			log.Fatal().Err(err).Str("section", s.id).Msg("Failed to insert section")
		}
	}

	// Shared passage for the first two verbal questions.
	passage, _ := json.Marshal(map[string]string{
		"text": "Read the passage and answer the questions that follow. " +
			"The migration of early humans across continents reshaped both " +
			"the species and the lands they settled.",
	})
	_, err = pool.Exec(ctx,
		`INSERT INTO question_sets (id, kind, title, content)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO NOTHING`,
		"set-migration-passage", model.QuestionSetKindPassage, "Early Human Migration", passage,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to insert question set")
	}

	type seedQuestion struct {
		id      string
		section string
		qtype   model.QuestionType
		setID   *string
		body    map[string]interface{}
	}

	setID := "set-migration-passage"
	questions := []seedQuestion{
		{
			id: "vrb-q1", section: "sec-verbal", qtype: model.QuestionTypeSingleChoice, setID: &setID,
			body: map[string]interface{}{
				"prompt":  "According to the passage, what did early migration reshape?",
				"options": []string{"Only the species", "Only the lands", "Both species and lands", "Neither"},
			},
		},
		{
			id: "vrb-q2", section: "sec-verbal", qtype: model.QuestionTypeSingleChoice, setID: &setID,
			body: map[string]interface{}{
				"prompt":  "The tone of the passage is best described as:",
				"options": []string{"Critical", "Descriptive", "Satirical", "Persuasive"},
			},
		},
		{
			id: "vrb-q3", section: "sec-verbal", qtype: model.QuestionTypeMultiChoice,
			body: map[string]interface{}{
				"prompt":  "Select all words that are synonyms of 'reshape'.",
				"options": []string{"transform", "preserve", "remold", "observe"},
			},
		},
		{
			id: "qnt-q1", section: "sec-quant", qtype: model.QuestionTypeSingleChoice,
			body: map[string]interface{}{
				"prompt":  "If 3x + 5 = 20, what is x?",
				"options": []string{"3", "5", "15", "25"},
			},
		},
		{
			id: "qnt-q2", section: "sec-quant", qtype: model.QuestionTypeNumerical,
			body: map[string]interface{}{
				"prompt": "A train travels 240 km in 3 hours. Its average speed in km/h is:",
			},
		},
	}

	for i, q := range questions {
		body, _ := json.Marshal(q.body)
		_, err = pool.Exec(ctx,
			`INSERT INTO questions (id, section_id, type, marks, negative_marks, question_set_id, body, position)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 ON CONFLICT (id) DO NOTHING`,
			q.id, q.section, q.qtype, 2.0, 0.5, q.setID, body, i,
		)
		if err != nil {
			log.Fatal().Err(err).Str("question", q.id).Msg("Failed to insert question")
		}
	}

	fmt.Printf("Seeded exam '%s' with %d questions across %d sections\n", examID, len(questions), len(sections))
}
