package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/quizdesk/quizdesk-backend/internal/model"
)

// QuestionRepository handles question group, question, and answer data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// GetGroup retrieves a question group by its ID.
func (r *QuestionRepository) GetGroup(ctx context.Context, id uuid.UUID) (*model.QuestionGroup, error) {
	g := &model.QuestionGroup{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, active, created_at
		 FROM question_groups
		 WHERE id = $1`, id,
	).Scan(&g.ID, &g.Name, &g.Active, &g.CreatedAt)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// ListActiveIDsByGroup returns the IDs of the group's active questions in
// ascending ID order, the order slots are snapshotted in.
func (r *QuestionRepository) ListActiveIDsByGroup(ctx context.Context, groupID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id FROM questions
		 WHERE group_id = $1 AND active
		 ORDER BY id`, groupID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GroupPayloads returns the user-facing payloads of every question in a
// group, correctness stripped. Inactive questions are included: a slot
// snapshotted before deactivation still needs its question content.
func (r *QuestionRepository) GroupPayloads(ctx context.Context, groupID uuid.UUID) ([]model.QuestionPayload, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT q.id, q.question_text, a.id, a.answer_text
		 FROM questions q
		 JOIN answers a ON a.question_id = q.id
		 WHERE q.group_id = $1
		 ORDER BY q.position, q.id, a.id`, groupID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payloads []model.QuestionPayload
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		var qID uuid.UUID
		var qText string
		var opt model.AnswerOption
		if err := rows.Scan(&qID, &qText, &opt.ID, &opt.AnswerText); err != nil {
			return nil, err
		}
		i, ok := index[qID]
		if !ok {
			i = len(payloads)
			index[qID] = i
			payloads = append(payloads, model.QuestionPayload{ID: qID, QuestionText: qText})
		}
		payloads[i].Options = append(payloads[i].Options, opt)
	}
	return payloads, rows.Err()
}

// GetAnswer retrieves an answer by ID scoped to its question. Returns
// pgx.ErrNoRows when the answer does not belong to the question.
func (r *QuestionRepository) GetAnswer(ctx context.Context, questionID, answerID uuid.UUID) (*model.Answer, error) {
	a := &model.Answer{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, question_id, answer_text, is_correct
		 FROM answers
		 WHERE id = $1 AND question_id = $2`, answerID, questionID,
	).Scan(&a.ID, &a.QuestionID, &a.AnswerText, &a.IsCorrect)
	if err != nil {
		return nil, err
	}
	return a, nil
}
